package validate

import (
	"errors"
	"strings"
	"testing"

	"github.com/animus-labs/trainflow/internal/domain"
)

func validWorkflow() domain.Workflow {
	retry := domain.RetryPolicy{ErrorEquals: []string{"ThrottlingException"}, IntervalSeconds: 5, MaxAttempts: 3, BackoffRate: 1.5}
	return domain.Workflow{
		StateMachineARN: "arn:aws:states:eu-west-1:123456789012:stateMachine:training",
		Input:           domain.TrainingInputSchema(),
		Steps: []domain.Step{
			domain.Step{
				Kind: domain.StepCreateEndpoint,
				Name: "Create Endpoint",
				Parameters: domain.Object{
					domain.Param("EndpointName", domain.InputRef(domain.InputEndpoint)),
				},
				ResultPath: "$.endpoint",
			}.WithRetry(retry),
			{
				Kind: domain.StepInvokeFunction,
				Name: "Wait",
				Parameters: domain.Object{
					domain.Param("FunctionName", "wait"),
					domain.Param("Payload", domain.Object{domain.Param("Input", domain.WholeState)}),
				},
				ResultPath: "$.wait",
			},
		},
	}
}

func TestWorkflow_Valid(t *testing.T) {
	if err := Workflow(validWorkflow()); err != nil {
		t.Fatalf("Workflow: %v", err)
	}
}

func TestWorkflow_Issues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(wf *domain.Workflow)
		want   string
	}{
		{
			name:   "missing arn",
			mutate: func(wf *domain.Workflow) { wf.StateMachineARN = "" },
			want:   "state machine arn is required",
		},
		{
			name:   "duplicate name",
			mutate: func(wf *domain.Workflow) { wf.Steps[1].Name = wf.Steps[0].Name },
			want:   "duplicate step name",
		},
		{
			name:   "unknown kind",
			mutate: func(wf *domain.Workflow) { wf.Steps[1].Kind = "sleep" },
			want:   "unknown kind",
		},
		{
			name:   "root result path",
			mutate: func(wf *domain.Workflow) { wf.Steps[1].ResultPath = "$" },
			want:   "result path must start with",
		},
		{
			name:   "shared result path",
			mutate: func(wf *domain.Workflow) { wf.Steps[1].ResultPath = wf.Steps[0].ResultPath },
			want:   "already written by",
		},
		{
			name:   "bad retry",
			mutate: func(wf *domain.Workflow) { wf.Steps[0].Retry.IntervalSeconds = 0 },
			want:   "intervalSeconds",
		},
		{
			name: "undeclared input",
			mutate: func(wf *domain.Workflow) {
				wf.Steps[0].Parameters = wf.Steps[0].Parameters.With("EndpointName", domain.InputRef("Region"))
			},
			want: `undeclared input field "Region"`,
		},
		{
			name: "nested undeclared input",
			mutate: func(wf *domain.Workflow) {
				wf.Steps[1].Parameters = wf.Steps[1].Parameters.With("Payload", domain.Object{
					domain.Param("Items", []any{domain.Format("{}", domain.InputRef("Stage"))}),
				})
			},
			want: `undeclared input field "Stage"`,
		},
		{
			name: "empty path",
			mutate: func(wf *domain.Workflow) {
				wf.Steps[1].Parameters = wf.Steps[1].Parameters.With("Extra", domain.PathExpr(" "))
			},
			want: "empty path expression",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			wf := validWorkflow()
			tc.mutate(&wf)
			err := Workflow(wf)
			if err == nil {
				t.Fatalf("expected error")
			}
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected *ValidationError, got %T", err)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("error %q does not mention %q", err.Error(), tc.want)
			}
		})
	}
}

func TestValidationError_OrNil(t *testing.T) {
	var nilErr *ValidationError
	if nilErr.OrNil() != nil {
		t.Fatalf("nil receiver should be nil")
	}
	e := &ValidationError{}
	e.Add("  ")
	if e.OrNil() != nil {
		t.Fatalf("blank issues should be ignored")
	}
	e.Add("broken")
	if e.OrNil() == nil {
		t.Fatalf("expected error")
	}
}
