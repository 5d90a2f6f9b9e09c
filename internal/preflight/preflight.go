// Package preflight checks, before a definition is published, that the
// service accepts it and that the resources it names exist.
package preflight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	ddbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	sfntypes "github.com/aws/aws-sdk-go-v2/service/sfn/types"
)

const (
	SeverityError   = "error"
	SeverityWarning = "warning"

	CheckDefinition = "definition"
	CheckTable      = "catalog_table"
	CheckFunction   = "function"
)

type DefinitionValidator interface {
	ValidateStateMachineDefinition(ctx context.Context, params *sfn.ValidateStateMachineDefinitionInput, optFns ...func(*sfn.Options)) (*sfn.ValidateStateMachineDefinitionOutput, error)
}

type TableDescriber interface {
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

type FunctionGetter interface {
	GetFunction(ctx context.Context, params *lambda.GetFunctionInput, optFns ...func(*lambda.Options)) (*lambda.GetFunctionOutput, error)
}

// Targets names what a definition depends on.
type Targets struct {
	Definition string
	Table      string
	Functions  []string
}

type Finding struct {
	Check    string
	Target   string
	Severity string
	Message  string
}

type Report struct {
	Findings []Finding
}

func (r *Report) add(check, target, severity, message string) {
	r.Findings = append(r.Findings, Finding{Check: check, Target: target, Severity: severity, Message: message})
}

// Errors returns the findings that block publishing.
func (r Report) Errors() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			out = append(out, f)
		}
	}
	return out
}

// FailedError is returned when at least one check reports an error.
type FailedError struct {
	Findings []Finding
}

func (e *FailedError) Error() string {
	parts := make([]string, 0, len(e.Findings))
	for _, f := range e.Findings {
		parts = append(parts, fmt.Sprintf("%s %s: %s", f.Check, f.Target, f.Message))
	}
	return "preflight failed: " + strings.Join(parts, "; ")
}

type Checker struct {
	Definitions DefinitionValidator
	Tables      TableDescriber
	Functions   FunctionGetter
	Logger      *slog.Logger
	Timeout     time.Duration
}

// Run executes every check and returns the full report. The error is a
// *FailedError when any finding has error severity.
func (c *Checker) Run(ctx context.Context, t Targets) (Report, error) {
	if c.Definitions == nil || c.Tables == nil || c.Functions == nil {
		return Report{}, errors.New("preflight clients are required")
	}
	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var report Report
	c.checkDefinition(ctx, t.Definition, &report)
	c.checkTable(ctx, t.Table, &report)
	for _, fn := range t.Functions {
		c.checkFunction(ctx, fn, &report)
	}

	for _, f := range report.Findings {
		logger.Info("preflight finding", "check", f.Check, "target", f.Target, "severity", f.Severity, "message", f.Message)
	}
	if errs := report.Errors(); len(errs) > 0 {
		return report, &FailedError{Findings: errs}
	}
	return report, nil
}

func (c *Checker) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Timeout)
}

func (c *Checker) checkDefinition(ctx context.Context, definition string, report *Report) {
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	out, err := c.Definitions.ValidateStateMachineDefinition(callCtx, &sfn.ValidateStateMachineDefinitionInput{
		Definition: aws.String(definition),
		Type:       sfntypes.StateMachineTypeStandard,
	})
	if err != nil {
		report.add(CheckDefinition, "definition", SeverityError, err.Error())
		return
	}
	for _, d := range out.Diagnostics {
		severity := SeverityWarning
		if d.Severity == sfntypes.ValidateStateMachineDefinitionSeverityError {
			severity = SeverityError
		}
		target := aws.ToString(d.Location)
		if target == "" {
			target = "definition"
		}
		report.add(CheckDefinition, target, severity, fmt.Sprintf("%s: %s", aws.ToString(d.Code), aws.ToString(d.Message)))
	}
	if out.Result == sfntypes.ValidateStateMachineDefinitionResultCodeFail && len(out.Diagnostics) == 0 {
		report.add(CheckDefinition, "definition", SeverityError, "definition rejected without diagnostics")
	}
}

func (c *Checker) checkTable(ctx context.Context, table string, report *Report) {
	if strings.TrimSpace(table) == "" {
		report.add(CheckTable, "", SeverityError, "table name is empty")
		return
	}
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	out, err := c.Tables.DescribeTable(callCtx, &dynamodb.DescribeTableInput{TableName: aws.String(table)})
	if err != nil {
		report.add(CheckTable, table, SeverityError, err.Error())
		return
	}
	if out.Table == nil {
		report.add(CheckTable, table, SeverityError, "table description missing")
		return
	}
	if out.Table.TableStatus != ddbtypes.TableStatusActive {
		report.add(CheckTable, table, SeverityWarning, fmt.Sprintf("table status is %s", out.Table.TableStatus))
	}
}

func (c *Checker) checkFunction(ctx context.Context, name string, report *Report) {
	if strings.TrimSpace(name) == "" {
		report.add(CheckFunction, "", SeverityError, "function name is empty")
		return
	}
	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	out, err := c.Functions.GetFunction(callCtx, &lambda.GetFunctionInput{FunctionName: aws.String(name)})
	if err != nil {
		report.add(CheckFunction, name, SeverityError, err.Error())
		return
	}
	if out.Configuration != nil && out.Configuration.State != "" && out.Configuration.State != lambdatypes.StateActive {
		report.add(CheckFunction, name, SeverityWarning, fmt.Sprintf("function state is %s", out.Configuration.State))
	}
}
