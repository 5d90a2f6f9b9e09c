package provision

import (
	"fmt"

	"github.com/animus-labs/trainflow/internal/domain"
	"github.com/animus-labs/trainflow/internal/settings"
	"github.com/animus-labs/trainflow/internal/workflow/builder"
	"github.com/animus-labs/trainflow/internal/workflow/patch"
	"github.com/animus-labs/trainflow/internal/workflow/render"
)

// Rendered is a built workflow together with its publishable definition.
type Rendered struct {
	Workflow   domain.Workflow
	Raw        []byte
	Definition string
	Patch      patch.Report
}

// Render builds, serializes and patches the training workflow. It performs no I/O.
func Render(s settings.Settings) (Rendered, error) {
	wf, err := builder.Build(s, nil)
	if err != nil {
		return Rendered{}, fmt.Errorf("build workflow: %w", err)
	}
	raw, err := render.Definition(wf)
	if err != nil {
		return Rendered{}, fmt.Errorf("render definition: %w", err)
	}

	mode := patch.Strict
	if s.Patch.Lenient {
		mode = patch.Lenient
	}
	fixups := patch.TrainingFixups(s.Training.ImagePlaceholder, domain.InputImage, trimResultKey(builder.ResultTrain))
	def, report, err := patch.Apply(string(raw), fixups, mode)
	if err != nil {
		return Rendered{}, fmt.Errorf("patch definition: %w", err)
	}
	return Rendered{Workflow: wf, Raw: raw, Definition: def, Patch: report}, nil
}

func trimResultKey(resultPath string) string {
	return domain.Step{ResultPath: resultPath}.ResultKey()
}
