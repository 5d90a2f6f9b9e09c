// Package provision runs one provisioning pass: render the training workflow,
// optionally check and archive it, publish it, and record the outcome.
package provision

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/animus-labs/trainflow/internal/archive"
	"github.com/animus-labs/trainflow/internal/domain"
	"github.com/animus-labs/trainflow/internal/ledger"
	"github.com/animus-labs/trainflow/internal/preflight"
	"github.com/animus-labs/trainflow/internal/publish"
	"github.com/animus-labs/trainflow/internal/settings"
	"github.com/animus-labs/trainflow/internal/workflow/render"
)

type Publisher interface {
	Publish(ctx context.Context, req publish.Request) (publish.Result, error)
}

type PreflightChecker interface {
	Run(ctx context.Context, t preflight.Targets) (preflight.Report, error)
}

type Archiver interface {
	Archive(ctx context.Context, wf domain.Workflow, definition []byte, publicationID string) (archive.Location, error)
}

type LedgerRecorder interface {
	Record(ctx context.Context, entry ledger.Entry) error
}

// Runner wires the optional stages. Preflight, Archiver and Ledger may be nil.
type Runner struct {
	Logger    *slog.Logger
	Publisher Publisher
	Preflight PreflightChecker
	Archiver  Archiver
	Ledger    LedgerRecorder
	Actor     string
	NewID     func() string
	Now       func() time.Time
}

type Outcome struct {
	PublicationID string
	Rendered      Rendered
	Published     *publish.Result
	Archive       *archive.Location
}

// Run renders the workflow and, unless dryRun is set, publishes it. Archive
// and ledger failures are logged and do not change the result.
func (r *Runner) Run(ctx context.Context, s settings.Settings, dryRun bool) (Outcome, error) {
	logger := r.logger()

	rendered, err := Render(s)
	if err != nil {
		return Outcome{}, err
	}
	for _, name := range rendered.Patch.Skipped() {
		logger.Warn("definition fixup skipped", "fixup", name, "mode", rendered.Patch.Mode.String())
	}

	out := Outcome{PublicationID: r.newID(), Rendered: rendered}
	logger.Info("workflow definition rendered",
		"publication_id", out.PublicationID,
		"state_machine_arn", rendered.Workflow.StateMachineARN,
		"steps", len(rendered.Workflow.Steps),
		"definition_sha256", render.SHA256([]byte(rendered.Definition)),
	)
	if dryRun {
		return out, nil
	}
	if r.Publisher == nil {
		return out, errors.New("publisher is required")
	}

	if r.Preflight != nil {
		if _, err := r.Preflight.Run(ctx, preflight.Targets{
			Definition: rendered.Definition,
			Table:      s.CatalogTable,
			Functions:  []string{s.Functions.EndpointWait, s.Functions.ModelTest},
		}); err != nil {
			r.record(ctx, out, ledger.OutcomePreflightFailed, nil, err)
			return out, err
		}
	}

	if r.Archiver != nil {
		loc, err := r.Archiver.Archive(ctx, rendered.Workflow, []byte(rendered.Definition), out.PublicationID)
		if err != nil {
			logger.Warn("definition archive failed", "publication_id", out.PublicationID, "error", err)
		} else {
			out.Archive = &loc
			logger.Info("definition archived", "publication_id", out.PublicationID, "uri", loc.URI())
		}
	}

	res, err := r.Publisher.Publish(ctx, publish.Request{
		StateMachineARN:    rendered.Workflow.StateMachineARN,
		Name:               rendered.Workflow.Name,
		RoleARN:            rendered.Workflow.RoleARN,
		Definition:         rendered.Definition,
		CreateIfMissing:    s.Publish.CreateIfMissing,
		PublishVersion:     s.Publish.PublishVersion,
		VersionDescription: s.Publish.VersionDescription,
	})
	if err != nil {
		r.record(ctx, out, ledger.OutcomeFailed, nil, err)
		return out, err
	}
	out.Published = &res
	r.record(ctx, out, ledger.OutcomePublished, &res, nil)
	return out, nil
}

func (r *Runner) record(ctx context.Context, out Outcome, outcome string, res *publish.Result, cause error) {
	if r.Ledger == nil {
		return
	}
	payload := map[string]any{
		"steps":          out.Rendered.Workflow.StepNames(),
		"patch_mode":     out.Rendered.Patch.Mode.String(),
		"patch_skipped":  out.Rendered.Patch.Skipped(),
		"workflow_name":  out.Rendered.Workflow.Name,
		"workflow_input": out.Rendered.Workflow.Input.Names(),
	}
	entry := ledger.Entry{
		PublicationID:    out.PublicationID,
		OccurredAt:       r.now(),
		Actor:            r.Actor,
		StateMachineARN:  out.Rendered.Workflow.StateMachineARN,
		DefinitionSHA256: render.SHA256([]byte(out.Rendered.Definition)),
		Outcome:          outcome,
		Payload:          payload,
	}
	if out.Archive != nil {
		entry.ArchiveURI = out.Archive.URI()
	}
	if res != nil {
		entry.RevisionID = res.RevisionID
		payload["action"] = res.Action
	}
	if cause != nil {
		entry.ErrorMessage = cause.Error()
		var pe *publish.PublishError
		if errors.As(cause, &pe) {
			entry.ErrorKind = pe.Kind
			entry.ErrorCode = pe.Code
			entry.ErrorMessage = pe.Message
		}
	}
	if err := r.Ledger.Record(ctx, entry); err != nil {
		r.logger().Warn("ledger record failed", "publication_id", out.PublicationID, "error", err)
	}
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func (r *Runner) newID() string {
	if r.NewID != nil {
		return r.NewID()
	}
	return uuid.NewString()
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now().UTC()
	}
	return time.Now().UTC()
}
