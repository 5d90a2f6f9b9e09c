package builder

import (
	"fmt"
	"strings"

	"github.com/animus-labs/trainflow/internal/domain"
	"github.com/animus-labs/trainflow/internal/settings"
	"github.com/animus-labs/trainflow/internal/workflow/validate"
)

// Step display names. They double as state names in the rendered definition.
const (
	NameTrain          = "Train step"
	NameSaveModel      = "Save model"
	NameRegister       = "Insert artifact into catalog"
	NameEndpointConfig = "Create Endpoint configuration"
	NameEndpoint       = "Create Endpoint"
	NameEndpointWait   = "Test Endpoint in service"
	NameModelTest      = "Test model"
)

// Result paths each step writes its output to.
const (
	ResultTrain          = "$.train_step_result"
	ResultSaveModel      = "$.save_step_result"
	ResultRegister       = "$.register_artifact_step_result"
	ResultEndpointConfig = "$.endpoint_config_step_result"
	ResultEndpoint       = "$.endpoint_step_result"
	ResultEndpointWait   = "$.endpoint_wait_step_result"
	ResultModelTest      = "$.model_test_step_result"
)

// Build generates the training workflow from s. A nil binding defers every
// execution input to run time through the training input schema.
func Build(s settings.Settings, binding domain.InputBinding) (domain.Workflow, error) {
	schema := domain.TrainingInputSchema()
	if binding == nil {
		binding = schema
	}
	if err := s.Validate(); err != nil {
		return domain.Workflow{}, fmt.Errorf("settings: %w", err)
	}

	throttling := s.Retry.Throttling.Domain()
	readiness := s.Retry.EndpointReadiness.Domain()

	in := &binder{in: binding}
	steps := []domain.Step{
		trainStep(s, in).WithRetry(throttling),
		saveModelStep(s, in, ExpectedModelData()).WithRetry(throttling),
		registerArtifactStep(s, in),
		endpointConfigStep(s, in).WithRetry(throttling),
		endpointStep(in).WithRetry(throttling),
		invokeFunctionStep(NameEndpointWait, s.Functions.EndpointWait, ResultEndpointWait).WithRetry(readiness),
		invokeFunctionStep(NameModelTest, s.Functions.ModelTest, ResultModelTest),
	}
	if in.err != nil {
		return domain.Workflow{}, in.err
	}

	wf := domain.Workflow{
		Name:            strings.TrimSpace(s.StateMachine.Name),
		StateMachineARN: strings.TrimSpace(s.StateMachine.ARN),
		RoleARN:         strings.TrimSpace(s.StateMachine.RoleARN),
		Comment:         strings.TrimSpace(s.StateMachine.Comment),
		Input:           schema,
		Steps:           steps,
	}
	if err := validate.Workflow(wf); err != nil {
		return domain.Workflow{}, err
	}
	return wf, nil
}

// binder resolves input fields and keeps the first failure so step
// constructors stay declarative.
type binder struct {
	in  domain.InputBinding
	err error
}

func (b *binder) v(field string) any {
	val, err := b.in.Value(field)
	if err != nil {
		if b.err == nil {
			b.err = fmt.Errorf("bind %s: %w", field, err)
		}
		return ""
	}
	return val
}
