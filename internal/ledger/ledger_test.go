package ledger

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"
)

func sampleEntry() Entry {
	return Entry{
		PublicationID:    "8f14e45f-ceea-467a-9575-6f1b2a3c4d5e",
		OccurredAt:       time.Unix(1772366400, 0).UTC(),
		Actor:            "ci",
		StateMachineARN:  "arn:aws:states:eu-west-1:123456789012:stateMachine:training",
		DefinitionSHA256: "3b7e",
		Outcome:          OutcomePublished,
		RevisionID:       "rev-2",
	}
}

func TestComputeIntegritySHA256_StableAcrossWhitespace(t *testing.T) {
	payload := []byte(`{"steps":7}`)
	a, err := ComputeIntegritySHA256(sampleEntry(), payload)
	if err != nil {
		t.Fatalf("ComputeIntegritySHA256() err=%v", err)
	}
	padded := sampleEntry()
	padded.Actor = " ci "
	padded.RevisionID = "rev-2\n"
	b, err := ComputeIntegritySHA256(padded, payload)
	if err != nil {
		t.Fatalf("ComputeIntegritySHA256() err=%v", err)
	}
	if a != b {
		t.Fatalf("integrity should ignore surrounding whitespace: %q vs %q", a, b)
	}
}

func TestComputeIntegritySHA256_ChangesOnContent(t *testing.T) {
	base, err := ComputeIntegritySHA256(sampleEntry(), []byte(`{"steps":7}`))
	if err != nil {
		t.Fatalf("ComputeIntegritySHA256() err=%v", err)
	}

	changed := sampleEntry()
	changed.Outcome = OutcomeFailed
	changed.ErrorCode = "InvalidDefinition"
	a, err := ComputeIntegritySHA256(changed, []byte(`{"steps":7}`))
	if err != nil {
		t.Fatalf("ComputeIntegritySHA256() err=%v", err)
	}
	b, err := ComputeIntegritySHA256(sampleEntry(), []byte(`{"steps":6}`))
	if err != nil {
		t.Fatalf("ComputeIntegritySHA256() err=%v", err)
	}
	if a == base || b == base {
		t.Fatalf("expected integrity to differ")
	}
}

func TestEntry_Validate(t *testing.T) {
	if err := sampleEntry().Validate(); err != nil {
		t.Fatalf("Validate() err=%v", err)
	}
	cases := map[string]func(e *Entry){
		"publication id": func(e *Entry) { e.PublicationID = "pub-1" },
		"occurred at":    func(e *Entry) { e.OccurredAt = time.Time{} },
		"actor":          func(e *Entry) { e.Actor = " " },
		"arn":            func(e *Entry) { e.StateMachineARN = "" },
		"digest":         func(e *Entry) { e.DefinitionSHA256 = "" },
		"outcome":        func(e *Entry) { e.Outcome = "skipped" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			e := sampleEntry()
			mutate(&e)
			if err := e.Validate(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

type fakeExecer struct {
	query string
	err   error
}

func (f *fakeExecer) ExecContext(_ context.Context, query string, _ ...any) (sql.Result, error) {
	f.query = query
	return nil, f.err
}

func TestEnsureSchema(t *testing.T) {
	db := &fakeExecer{}
	if err := EnsureSchema(context.Background(), db); err != nil {
		t.Fatalf("EnsureSchema() err=%v", err)
	}
	if !strings.Contains(db.query, "CREATE TABLE IF NOT EXISTS workflow_publications") {
		t.Fatalf("unexpected ddl: %s", db.query)
	}

	failing := &fakeExecer{err: errors.New("permission denied")}
	if err := EnsureSchema(context.Background(), failing); err == nil {
		t.Fatalf("expected error")
	}
}

func TestInsert_RejectsInvalidEntry(t *testing.T) {
	if _, err := Insert(context.Background(), nil, sampleEntry()); err == nil {
		t.Fatalf("expected error for nil queryer")
	}
}

func TestNullable(t *testing.T) {
	if v := nullable("  "); v.Valid {
		t.Fatalf("blank should be NULL")
	}
	if v := nullable(" rev "); !v.Valid || v.String != "rev" {
		t.Fatalf("nullable = %+v", v)
	}
}

func TestNewWriter_RequiresDB(t *testing.T) {
	if _, err := NewWriter(nil); err == nil {
		t.Fatalf("expected error")
	}
}
