package render_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/animus-labs/trainflow/internal/domain"
	"github.com/animus-labs/trainflow/internal/settings"
	"github.com/animus-labs/trainflow/internal/workflow/builder"
	"github.com/animus-labs/trainflow/internal/workflow/render"
)

type definitionDoc struct {
	Comment string                    `json:"Comment"`
	StartAt string                    `json:"StartAt"`
	States  map[string]map[string]any `json:"States"`
}

func buildWorkflow(t *testing.T) domain.Workflow {
	t.Helper()
	s := settings.Default()
	s.StateMachine.ARN = "arn:aws:states:eu-west-1:123456789012:stateMachine:training"
	s.StateMachine.Comment = "training pipeline"
	s.SageMakerRoleARN = "arn:aws:iam::123456789012:role/sagemaker-training"
	s.CatalogTable = "model-catalog"
	s.Functions.EndpointWait = "endpoint-wait"
	s.Functions.ModelTest = "model-test"
	s.Training.OutputPath = "s3://models/output"
	wf, err := builder.Build(s, nil)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return wf
}

func decode(t *testing.T, raw []byte) definitionDoc {
	t.Helper()
	var doc definitionDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("definition is not valid json: %v\n%s", err, raw)
	}
	return doc
}

func TestDefinition_Deterministic(t *testing.T) {
	wf := buildWorkflow(t)
	first, err := render.Definition(wf)
	if err != nil {
		t.Fatalf("Definition: %v", err)
	}
	second, err := render.Definition(wf)
	if err != nil {
		t.Fatalf("Definition: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("rendering the same workflow twice produced different output")
	}
	if render.SHA256(first) != render.SHA256(second) {
		t.Fatalf("digest mismatch")
	}
}

func TestDefinition_Chain(t *testing.T) {
	wf := buildWorkflow(t)
	raw, err := render.Definition(wf)
	if err != nil {
		t.Fatalf("Definition: %v", err)
	}
	doc := decode(t, raw)

	if doc.Comment != "training pipeline" {
		t.Fatalf("Comment = %q", doc.Comment)
	}
	if doc.StartAt != builder.NameTrain {
		t.Fatalf("StartAt = %q", doc.StartAt)
	}
	if len(doc.States) != len(wf.Steps) {
		t.Fatalf("states = %d, want %d", len(doc.States), len(wf.Steps))
	}
	for i, step := range wf.Steps {
		state := doc.States[step.Name]
		if state == nil {
			t.Fatalf("state %q missing", step.Name)
		}
		if state["Type"] != "Task" {
			t.Fatalf("%s: Type = %v", step.Name, state["Type"])
		}
		if state["Resource"] != step.Resource() {
			t.Fatalf("%s: Resource = %v", step.Name, state["Resource"])
		}
		if state["ResultPath"] != step.ResultPath {
			t.Fatalf("%s: ResultPath = %v", step.Name, state["ResultPath"])
		}
		if next := wf.Next(i); next != "" {
			if state["Next"] != next {
				t.Fatalf("%s: Next = %v, want %q", step.Name, state["Next"], next)
			}
			if _, ok := state["End"]; ok {
				t.Fatalf("%s: unexpected End", step.Name)
			}
		} else if state["End"] != true {
			t.Fatalf("%s: last state must set End", step.Name)
		}
		_, hasRetry := state["Retry"]
		if hasRetry != (step.Retry != nil) {
			t.Fatalf("%s: Retry present = %v, want %v", step.Name, hasRetry, step.Retry != nil)
		}
	}
}

func TestDefinition_PathKeysAreSuffixed(t *testing.T) {
	raw, err := render.Definition(buildWorkflow(t))
	if err != nil {
		t.Fatalf("Definition: %v", err)
	}
	doc := decode(t, raw)

	train := doc.States[builder.NameTrain]["Parameters"].(map[string]any)
	if got := train["TrainingJobName.$"]; got != "$$.Execution.Input['Job']" {
		t.Fatalf("TrainingJobName.$ = %v", got)
	}
	if _, ok := train["TrainingJobName"]; ok {
		t.Fatalf("path value rendered under an unsuffixed key")
	}

	wait := doc.States[builder.NameEndpointWait]["Parameters"].(map[string]any)
	if got := wait["FunctionName"]; got != "endpoint-wait" {
		t.Fatalf("FunctionName = %v", got)
	}
	payload := wait["Payload"].(map[string]any)
	if got := payload["Input.$"]; got != "$" {
		t.Fatalf("Payload.Input.$ = %v", got)
	}

	item := doc.States[builder.NameRegister]["Parameters"].(map[string]any)["Item"].(map[string]any)
	start := item["trainingStartTime"].(map[string]any)
	if got := start["S.$"]; got != "States.Format('{}', $.train_step_result.TrainingStartTime)" {
		t.Fatalf("trainingStartTime = %v", got)
	}
	accuracy := item["Accuracy"].(map[string]any)
	if got := accuracy["N"]; got != "0" {
		t.Fatalf("Accuracy = %v", got)
	}
}

func TestDefinition_StateMemberOrder(t *testing.T) {
	raw, err := render.Definition(buildWorkflow(t))
	if err != nil {
		t.Fatalf("Definition: %v", err)
	}
	text := string(raw)
	order := []string{`"Resource"`, `"Parameters"`, `"Type"`, `"Next"`, `"ResultPath"`, `"Retry"`}
	last := -1
	for _, key := range order {
		idx := strings.Index(text, key)
		if idx < 0 {
			t.Fatalf("%s missing", key)
		}
		if idx < last {
			t.Fatalf("%s rendered out of order", key)
		}
		last = idx
	}
	if !strings.Contains(text, "\n    \"StartAt\"") {
		t.Fatalf("expected four-space indentation:\n%s", text)
	}
}

func TestDefinition_NoSteps(t *testing.T) {
	if _, err := render.Definition(domain.Workflow{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDefinition_DuplicateParameterKey(t *testing.T) {
	wf := buildWorkflow(t)
	step := wf.Steps[0]
	step.Parameters = domain.Object{
		domain.Param("Name", domain.InputRef(domain.InputJob)),
		domain.Param("Name.$", "$.other"),
	}
	wf.Steps[0] = step
	if _, err := render.Definition(wf); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}

func TestDefinition_UnsupportedValue(t *testing.T) {
	wf := buildWorkflow(t)
	step := wf.Steps[0]
	step.Parameters = domain.Object{domain.Param("When", time.Now())}
	wf.Steps[0] = step
	if _, err := render.Definition(wf); err == nil {
		t.Fatalf("expected error")
	}
}

func TestManifest(t *testing.T) {
	wf := buildWorkflow(t)
	def, err := render.Definition(wf)
	if err != nil {
		t.Fatalf("Definition: %v", err)
	}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	raw, err := render.Manifest(wf, def, " pub-1 ", at)
	if err != nil {
		t.Fatalf("Manifest: %v", err)
	}

	var got struct {
		PublicationID    string    `json:"publicationId"`
		RenderedAt       time.Time `json:"renderedAt"`
		StateMachineARN  string    `json:"stateMachineArn"`
		DefinitionSHA256 string    `json:"definitionSha256"`
		InputSchema      []struct {
			Name string `json:"name"`
		} `json:"inputSchema"`
		Steps []struct {
			Name  string          `json:"name"`
			Retry json.RawMessage `json:"retry"`
		} `json:"steps"`
	}
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal manifest: %v", err)
	}
	if got.PublicationID != "pub-1" {
		t.Fatalf("publicationId = %q", got.PublicationID)
	}
	if !got.RenderedAt.Equal(at) {
		t.Fatalf("renderedAt = %v", got.RenderedAt)
	}
	if got.DefinitionSHA256 != render.SHA256(def) {
		t.Fatalf("definition digest mismatch")
	}
	var names []string
	for _, f := range got.InputSchema {
		names = append(names, f.Name)
	}
	if diff := cmp.Diff(wf.Input.Names(), names); diff != "" {
		t.Fatalf("input schema mismatch (-want +got):\n%s", diff)
	}
	if len(got.Steps) != len(wf.Steps) {
		t.Fatalf("steps = %d", len(got.Steps))
	}
	if last := got.Steps[len(got.Steps)-1]; len(last.Retry) != 0 {
		t.Fatalf("model test step should carry no retry, got %s", last.Retry)
	}
}
