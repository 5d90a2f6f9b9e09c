package ledger

import (
	"context"
	"errors"
)

// Writer appends entries to the ledger table.
type Writer struct {
	db QueryRower
}

func NewWriter(db QueryRower) (*Writer, error) {
	if db == nil {
		return nil, errors.New("db is required")
	}
	return &Writer{db: db}, nil
}

func (w *Writer) Record(ctx context.Context, entry Entry) error {
	_, err := Insert(ctx, w.db, entry)
	return err
}
