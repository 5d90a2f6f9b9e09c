// Package ledger records every attempt to publish a workflow definition in
// Postgres, with an integrity digest over the row contents.
package ledger

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	OutcomePublished       = "published"
	OutcomeFailed          = "failed"
	OutcomePreflightFailed = "preflight_failed"
)

type Entry struct {
	PublicationID    string
	OccurredAt       time.Time
	Actor            string
	StateMachineARN  string
	DefinitionSHA256 string
	Outcome          string
	ErrorKind        string
	ErrorCode        string
	ErrorMessage     string
	RevisionID       string
	ArchiveURI       string
	Payload          any
}

type QueryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (e Entry) Validate() error {
	if _, err := uuid.Parse(strings.TrimSpace(e.PublicationID)); err != nil {
		return fmt.Errorf("PublicationID must be a uuid: %w", err)
	}
	if e.OccurredAt.IsZero() {
		return errors.New("OccurredAt is required")
	}
	if strings.TrimSpace(e.Actor) == "" {
		return errors.New("Actor is required")
	}
	if strings.TrimSpace(e.StateMachineARN) == "" {
		return errors.New("StateMachineARN is required")
	}
	if strings.TrimSpace(e.DefinitionSHA256) == "" {
		return errors.New("DefinitionSHA256 is required")
	}
	switch e.Outcome {
	case OutcomePublished, OutcomeFailed, OutcomePreflightFailed:
	default:
		return fmt.Errorf("Outcome %q is not recognised", e.Outcome)
	}
	return nil
}

const schemaDDL = `CREATE TABLE IF NOT EXISTS workflow_publications (
	entry_id          BIGSERIAL PRIMARY KEY,
	publication_id    UUID NOT NULL UNIQUE,
	occurred_at       TIMESTAMPTZ NOT NULL,
	actor             TEXT NOT NULL,
	state_machine_arn TEXT NOT NULL,
	definition_sha256 TEXT NOT NULL,
	outcome           TEXT NOT NULL,
	error_kind        TEXT,
	error_code        TEXT,
	error_message     TEXT,
	revision_id       TEXT,
	archive_uri       TEXT,
	payload           JSONB NOT NULL,
	integrity_sha256  TEXT NOT NULL
)`

// EnsureSchema creates the ledger table when it is missing.
func EnsureSchema(ctx context.Context, db Execer) error {
	if db == nil {
		return errors.New("execer is required")
	}
	if _, err := db.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure ledger schema: %w", err)
	}
	return nil
}

func Insert(ctx context.Context, q QueryRower, entry Entry) (int64, error) {
	if q == nil {
		return 0, errors.New("queryer is required")
	}
	if entry.OccurredAt.IsZero() {
		entry.OccurredAt = time.Now().UTC()
	}
	if err := entry.Validate(); err != nil {
		return 0, err
	}

	payload := entry.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal payload: %w", err)
	}
	integrity, err := ComputeIntegritySHA256(entry, payloadJSON)
	if err != nil {
		return 0, err
	}

	var id int64
	err = q.QueryRowContext(
		ctx,
		`INSERT INTO workflow_publications (
			publication_id,
			occurred_at,
			actor,
			state_machine_arn,
			definition_sha256,
			outcome,
			error_kind,
			error_code,
			error_message,
			revision_id,
			archive_uri,
			payload,
			integrity_sha256
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		RETURNING entry_id`,
		strings.TrimSpace(entry.PublicationID),
		entry.OccurredAt.UTC(),
		strings.TrimSpace(entry.Actor),
		strings.TrimSpace(entry.StateMachineARN),
		strings.TrimSpace(entry.DefinitionSHA256),
		entry.Outcome,
		nullable(entry.ErrorKind),
		nullable(entry.ErrorCode),
		nullable(entry.ErrorMessage),
		nullable(entry.RevisionID),
		nullable(entry.ArchiveURI),
		payloadJSON,
		integrity,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert publication: %w", err)
	}
	return id, nil
}

func nullable(s string) sql.NullString {
	s = strings.TrimSpace(s)
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func ComputeIntegritySHA256(entry Entry, payloadJSON []byte) (string, error) {
	type integrityInput struct {
		PublicationID    string          `json:"publication_id"`
		OccurredAt       time.Time       `json:"occurred_at"`
		Actor            string          `json:"actor"`
		StateMachineARN  string          `json:"state_machine_arn"`
		DefinitionSHA256 string          `json:"definition_sha256"`
		Outcome          string          `json:"outcome"`
		ErrorKind        string          `json:"error_kind,omitempty"`
		ErrorCode        string          `json:"error_code,omitempty"`
		ErrorMessage     string          `json:"error_message,omitempty"`
		RevisionID       string          `json:"revision_id,omitempty"`
		ArchiveURI       string          `json:"archive_uri,omitempty"`
		Payload          json.RawMessage `json:"payload"`
	}

	in := integrityInput{
		PublicationID:    strings.TrimSpace(entry.PublicationID),
		OccurredAt:       entry.OccurredAt.UTC(),
		Actor:            strings.TrimSpace(entry.Actor),
		StateMachineARN:  strings.TrimSpace(entry.StateMachineARN),
		DefinitionSHA256: strings.TrimSpace(entry.DefinitionSHA256),
		Outcome:          entry.Outcome,
		ErrorKind:        strings.TrimSpace(entry.ErrorKind),
		ErrorCode:        strings.TrimSpace(entry.ErrorCode),
		ErrorMessage:     strings.TrimSpace(entry.ErrorMessage),
		RevisionID:       strings.TrimSpace(entry.RevisionID),
		ArchiveURI:       strings.TrimSpace(entry.ArchiveURI),
		Payload:          payloadJSON,
	}

	blob, err := json.Marshal(in)
	if err != nil {
		return "", fmt.Errorf("marshal integrity: %w", err)
	}
	sum := sha256.Sum256(blob)
	return hex.EncodeToString(sum[:]), nil
}
