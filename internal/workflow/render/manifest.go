package render

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/animus-labs/trainflow/internal/domain"
)

// Manifest describes an archived definition: who it targets, what input it
// expects, and which exact document was published.
func Manifest(wf domain.Workflow, definition []byte, publicationID string, renderedAt time.Time) ([]byte, error) {
	payload := manifestPayload{
		PublicationID:    strings.TrimSpace(publicationID),
		RenderedAt:       renderedAt.UTC(),
		WorkflowName:     wf.Name,
		StateMachineARN:  wf.StateMachineARN,
		RoleARN:          wf.RoleARN,
		InputSchema:      make([]inputFieldPayload, 0, len(wf.Input.Fields)),
		Steps:            make([]stepPayload, 0, len(wf.Steps)),
		DefinitionSHA256: SHA256(definition),
	}
	for _, f := range wf.Input.Fields {
		payload.InputSchema = append(payload.InputSchema, inputFieldPayload{Name: f.Name, Type: f.Type})
	}
	for _, step := range wf.Steps {
		sp := stepPayload{
			Name:       step.Name,
			Kind:       string(step.Kind),
			Resource:   step.Resource(),
			ResultPath: step.ResultPath,
		}
		if step.Retry != nil {
			sp.Retry = &retryPayload{
				ErrorEquals:     append([]string{}, step.Retry.ErrorEquals...),
				IntervalSeconds: step.Retry.IntervalSeconds,
				MaxAttempts:     step.Retry.MaxAttempts,
				BackoffRate:     step.Retry.BackoffRate,
			}
		}
		payload.Steps = append(payload.Steps, sp)
	}
	return json.MarshalIndent(payload, "", "  ")
}

type manifestPayload struct {
	PublicationID    string              `json:"publicationId"`
	RenderedAt       time.Time           `json:"renderedAt"`
	WorkflowName     string              `json:"workflowName,omitempty"`
	StateMachineARN  string              `json:"stateMachineArn"`
	RoleARN          string              `json:"roleArn,omitempty"`
	InputSchema      []inputFieldPayload `json:"inputSchema"`
	Steps            []stepPayload       `json:"steps"`
	DefinitionSHA256 string              `json:"definitionSha256"`
}

type inputFieldPayload struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type stepPayload struct {
	Name       string        `json:"name"`
	Kind       string        `json:"kind"`
	Resource   string        `json:"resource"`
	ResultPath string        `json:"resultPath"`
	Retry      *retryPayload `json:"retry,omitempty"`
}

type retryPayload struct {
	ErrorEquals     []string `json:"errorEquals"`
	IntervalSeconds int      `json:"intervalSeconds"`
	MaxAttempts     int      `json:"maxAttempts"`
	BackoffRate     float64  `json:"backoffRate"`
}
