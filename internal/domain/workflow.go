package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Workflow is a sequential chain of task steps plus the identity it is
// published under. Steps run in slice order; the last one ends the execution.
type Workflow struct {
	Name            string
	StateMachineARN string
	RoleARN         string
	Comment         string
	Input           InputSchema
	Steps           []Step
}

func (w Workflow) StepNames() []string {
	out := make([]string, 0, len(w.Steps))
	for _, step := range w.Steps {
		out = append(out, step.Name)
	}
	return out
}

// Step returns the first step named name.
func (w Workflow) Step(name string) (Step, bool) {
	for _, step := range w.Steps {
		if step.Name == name {
			return step, true
		}
	}
	return Step{}, false
}

// Next returns the name of the step following index i, or "" for the last step.
func (w Workflow) Next(i int) string {
	if i+1 >= len(w.Steps) {
		return ""
	}
	return w.Steps[i+1].Name
}

// ValidateBasicShape performs lightweight structural checks.
func (w Workflow) ValidateBasicShape() error {
	if strings.TrimSpace(w.StateMachineARN) == "" {
		return errors.New("state machine arn is required")
	}
	if len(w.Input.Fields) == 0 {
		return errors.New("input schema must declare at least one field")
	}
	if len(w.Steps) == 0 {
		return errors.New("steps must contain at least one step")
	}
	for i, step := range w.Steps {
		if strings.TrimSpace(step.Name) == "" {
			return fmt.Errorf("step[%d] name is required", i)
		}
		if step.Resource() == "" {
			return fmt.Errorf("step[%d] kind %q has no resource", i, step.Kind)
		}
	}
	return nil
}
