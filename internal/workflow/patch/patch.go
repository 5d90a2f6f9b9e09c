// Package patch rewrites fields of a rendered definition that the step
// builders cannot express: image references that must be read from the
// execution input, and the model artifact location, which the model step
// addresses relative to its own input instead of the training result.
package patch

import (
	"fmt"
	"strings"

	"github.com/animus-labs/trainflow/internal/domain"
)

type Mode int

const (
	// Strict fails when a fixup does not match exactly once.
	Strict Mode = iota
	// Lenient skips a fixup that does not match exactly once and reports it.
	Lenient
)

func (m Mode) String() string {
	if m == Lenient {
		return "lenient"
	}
	return "strict"
}

// Fixup is one literal substring replacement.
type Fixup struct {
	Name string
	Old  string
	New  string
}

// Outcome records what happened to one fixup.
type Outcome struct {
	Name    string
	Matches int
	Applied bool
}

type Report struct {
	Mode     Mode
	Outcomes []Outcome
}

// Skipped lists fixups that were not applied.
func (r Report) Skipped() []string {
	var out []string
	for _, o := range r.Outcomes {
		if !o.Applied {
			out = append(out, o.Name)
		}
	}
	return out
}

// MismatchError is returned in Strict mode when a fixup's literal does not
// occur exactly once in the document it is applied to.
type MismatchError struct {
	Fixup   string
	Matches int
	Literal string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("fixup %q matched %d times, want exactly 1 (literal %q)", e.Fixup, e.Matches, e.Literal)
}

// Apply runs fixups in order. Each fixup is counted against the document as
// left by the fixups before it.
func Apply(doc string, fixups []Fixup, mode Mode) (string, Report, error) {
	report := Report{Mode: mode, Outcomes: make([]Outcome, 0, len(fixups))}
	for _, f := range fixups {
		if f.Old == "" {
			return "", report, fmt.Errorf("fixup %q has an empty literal", f.Name)
		}
		n := strings.Count(doc, f.Old)
		if n != 1 {
			report.Outcomes = append(report.Outcomes, Outcome{Name: f.Name, Matches: n})
			if mode == Strict {
				return "", report, &MismatchError{Fixup: f.Name, Matches: n, Literal: f.Old}
			}
			continue
		}
		doc = strings.Replace(doc, f.Old, f.New, 1)
		report.Outcomes = append(report.Outcomes, Outcome{Name: f.Name, Matches: n, Applied: true})
	}
	return doc, report, nil
}

// TrainingFixups returns the three corrections for the training workflow:
// the training image and the hosting image are read from the execution input
// field imageField, and the model artifact location is rescoped under
// trainResultKey.
func TrainingFixups(imagePlaceholder, imageField, trainResultKey string) []Fixup {
	imageRef := domain.InputRef(imageField).String()
	return []Fixup{
		{
			Name: "training-image",
			Old:  jsonMember("TrainingImage", imagePlaceholder),
			New:  jsonMember("TrainingImage.$", imageRef),
		},
		{
			Name: "hosting-image",
			Old:  jsonMember("Image", imagePlaceholder),
			New:  jsonMember("Image.$", imageRef),
		},
		{
			Name: "model-data-url",
			Old:  jsonMember("ModelDataUrl.$", "$['ModelArtifacts']['S3ModelArtifacts']"),
			New:  jsonMember("ModelDataUrl.$", fmt.Sprintf("$['%s']['ModelArtifacts']['S3ModelArtifacts']", trainResultKey)),
		},
	}
}

// jsonMember spells a string member the way the renderer's indented output does.
func jsonMember(key, value string) string {
	return fmt.Sprintf("%q: %q", key, value)
}
