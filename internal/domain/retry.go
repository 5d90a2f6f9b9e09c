package domain

import (
	"errors"
	"fmt"
	"strings"
)

// RetryPolicy is a declarative retrier evaluated by the workflow engine. Only
// error kinds listed in ErrorEquals are retried, matched by exact string.
type RetryPolicy struct {
	ErrorEquals     []string
	IntervalSeconds int
	MaxAttempts     int
	BackoffRate     float64
}

func (r RetryPolicy) Validate() error {
	if len(r.ErrorEquals) == 0 {
		return errors.New("retry errorEquals must contain at least one error kind")
	}
	for i, kind := range r.ErrorEquals {
		if strings.TrimSpace(kind) == "" {
			return fmt.Errorf("retry errorEquals[%d] is blank", i)
		}
	}
	if r.IntervalSeconds < 1 {
		return errors.New("retry intervalSeconds must be >= 1")
	}
	if r.MaxAttempts < 0 {
		return errors.New("retry maxAttempts must be >= 0")
	}
	if r.BackoffRate < 1 {
		return errors.New("retry backoffRate must be >= 1")
	}
	return nil
}

// Matches reports whether errorKind is retried by r.
func (r RetryPolicy) Matches(errorKind string) bool {
	for _, kind := range r.ErrorEquals {
		if kind == errorKind {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so an attached policy cannot be changed through the
// value it was attached from.
func (r RetryPolicy) Clone() RetryPolicy {
	r.ErrorEquals = append([]string(nil), r.ErrorEquals...)
	return r
}
