package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// Kind separates terminal failures (caller must change the input) from
// transient ones (caller may retry the whole operation).
type Kind string

const (
	KindValidation         Kind = "VALIDATION_ERROR"
	KindNotFound           Kind = "NOT_FOUND"
	KindTimeout            Kind = "TIMEOUT"
	KindConflict           Kind = "CONFLICT"
	KindStorageUnavailable Kind = "STORAGE_UNAVAILABLE"
	KindUnexpected         Kind = "UNEXPECTED"
)

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

type FieldViolation struct {
	Field string `json:"field"`
	Rule  string `json:"rule"`
}

// ValidationError reports every violated rule at once rather than
// failing on the first field.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.Field+": "+v.Rule)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// KindOf maps any error coming out of the protocol to its taxonomy kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return KindValidation
	}
	var serr *Error
	if errors.As(err, &serr) {
		return serr.Kind
	}
	return KindUnexpected
}

// classify wraps storage-layer failures into the taxonomy. Lock and
// serialization conflicts are retryable as a whole operation; connection
// class failures are retryable after backoff; deadline hits surface as
// Timeout so callers can distinguish them from generic failure.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var verr *ValidationError
	if errors.As(err, &verr) {
		return err
	}
	var serr *Error
	if errors.As(err, &serr) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &Error{Kind: KindTimeout, Message: "operation exceeded its time budget", Err: err}
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return &Error{Kind: KindConflict, Message: "row contention, retry the operation", Err: err}
		case "57014":
			return &Error{Kind: KindTimeout, Message: "statement cancelled", Err: err}
		}
		if strings.HasPrefix(pgErr.Code, "08") {
			return &Error{Kind: KindStorageUnavailable, Message: "database connection failure", Err: err}
		}
		return &Error{Kind: KindUnexpected, Message: "database error", Err: err}
	}
	if pgconn.SafeToRetry(err) {
		return &Error{Kind: KindStorageUnavailable, Message: "database unavailable", Err: err}
	}
	return &Error{Kind: KindUnexpected, Message: "save failed", Err: err}
}
