package validate

import (
	"fmt"
	"strings"

	"github.com/animus-labs/trainflow/internal/domain"
)

// Workflow performs strict validation of a workflow graph before it is
// rendered: step identity, result paths, retry policies, and that every
// execution input reference names a declared input field.
func Workflow(wf domain.Workflow) error {
	issues := &ValidationError{}

	if err := wf.ValidateBasicShape(); err != nil {
		issues.Add(err.Error())
	}

	seenNames := make(map[string]struct{}, len(wf.Steps))
	seenResults := make(map[string]string, len(wf.Steps))
	for i, step := range wf.Steps {
		name := strings.TrimSpace(step.Name)
		if name == "" {
			issues.Add(fmt.Sprintf("step[%d] name is required", i))
			continue
		}
		if _, exists := seenNames[name]; exists {
			issues.Add(fmt.Sprintf("duplicate step name %q", name))
		}
		seenNames[name] = struct{}{}

		if step.Resource() == "" {
			issues.Add(fmt.Sprintf("step[%s] has unknown kind %q", name, step.Kind))
		}

		if !strings.HasPrefix(step.ResultPath, "$.") || step.ResultKey() == "" {
			issues.Add(fmt.Sprintf("step[%s] result path must start with \"$.\", got %q", name, step.ResultPath))
		} else if other, ok := seenResults[step.ResultPath]; ok {
			issues.Add(fmt.Sprintf("step[%s] result path %q already written by %q", name, step.ResultPath, other))
		} else {
			seenResults[step.ResultPath] = name
		}

		if step.Retry != nil {
			if err := step.Retry.Validate(); err != nil {
				issues.Add(fmt.Sprintf("step[%s] %v", name, err))
			}
		}

		for _, expr := range step.Parameters.PathExprs() {
			if strings.TrimSpace(string(expr)) == "" {
				issues.Add(fmt.Sprintf("step[%s] has an empty path expression", name))
				continue
			}
			for _, field := range expr.InputFields() {
				if !wf.Input.Has(field) {
					issues.Add(fmt.Sprintf("step[%s] references undeclared input field %q", name, field))
				}
			}
		}
	}

	return issues.OrNil()
}
