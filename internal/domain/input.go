package domain

import (
	"fmt"
	"strings"
)

// Execution input field names. These are the keys callers pass when they start
// an execution, so they are part of the wire contract and keep their casing.
const (
	InputBuildID       = "BuildId"
	InputJob           = "Job"
	InputModel         = "Model"
	InputEndpoint      = "Endpoint"
	InputImage         = "ecrArn"
	InputDataPath      = "dataBucketPath"
	InputAuthorDate    = "authorDate"
	InputTable         = "DynamoDBTable"
	InputTriggerSource = "triggerSource"
	InputCommitID      = "commitId"
)

const inputFieldTypeString = "string"

// InputField declares one execution parameter.
type InputField struct {
	Name string
	Type string
}

// InputSchema is the ordered set of parameters supplied with every execution.
type InputSchema struct {
	Fields []InputField
}

// TrainingInputSchema returns the ten-field schema of the training workflow.
func TrainingInputSchema() InputSchema {
	names := []string{
		InputBuildID,
		InputJob,
		InputModel,
		InputEndpoint,
		InputImage,
		InputDataPath,
		InputAuthorDate,
		InputTable,
		InputTriggerSource,
		InputCommitID,
	}
	fields := make([]InputField, 0, len(names))
	for _, name := range names {
		fields = append(fields, InputField{Name: name, Type: inputFieldTypeString})
	}
	return InputSchema{Fields: fields}
}

func (s InputSchema) Has(field string) bool {
	for _, f := range s.Fields {
		if f.Name == field {
			return true
		}
	}
	return false
}

func (s InputSchema) Names() []string {
	out := make([]string, 0, len(s.Fields))
	for _, f := range s.Fields {
		out = append(out, f.Name)
	}
	return out
}

// Ref returns the execution-time reference to field. Unknown fields are an error
// so that a typo surfaces when the definition is built, not when it runs.
func (s InputSchema) Ref(field string) (PathExpr, error) {
	if !s.Has(field) {
		return "", fmt.Errorf("input field %q is not declared in the execution input schema", field)
	}
	return InputRef(field), nil
}

// Value implements InputBinding by deferring every field to execution time.
func (s InputSchema) Value(field string) (any, error) {
	return s.Ref(field)
}

// InputBinding decides what a step parameter sourced from the execution input
// contains: a path expression, or a value fixed at definition time.
type InputBinding interface {
	Value(field string) (any, error)
}

// LiteralBinding pins every field to a fixed string.
type LiteralBinding map[string]string

func (b LiteralBinding) Value(field string) (any, error) {
	v, ok := b[field]
	if !ok {
		return nil, fmt.Errorf("no literal bound for input field %q", field)
	}
	return v, nil
}

// Validate checks the binding covers every field of schema.
func (b LiteralBinding) Validate(schema InputSchema) error {
	var missing []string
	for _, name := range schema.Names() {
		if _, ok := b[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("literal binding missing fields: %s", strings.Join(missing, ", "))
	}
	return nil
}
