// Package reconcile orchestrates the reconciliation engine's single entry
// point: ingesting both CDR sides, matching, classifying discrepancies,
// detecting hung-call clusters, and aggregating a summary, per spec.md's
// component design.
package reconcile

import "github.com/rotisserie/eris"

// Kind classifies an engine error for the caller, per spec.md §7.
type Kind string

const (
	KindInput    Kind = "INPUT_ERROR"
	KindDecode   Kind = "DECODE_ERROR"
	KindLimit    Kind = "LIMIT_ERROR"
	KindInternal Kind = "INTERNAL_ERROR"
)

// Error is the engine's error contract: a machine-readable Kind plus a
// short message and optional detail string for the caller, with the full
// eris-wrapped cause available via Unwrap for logs.
type Error struct {
	Kind    Kind
	Message string
	Detail  string
	cause   error
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Message
	}
	return e.Message + ": " + e.Detail
}

func (e *Error) Unwrap() error { return e.cause }

func wrapError(kind Kind, message string, cause error) *Error {
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	return &Error{Kind: kind, Message: message, Detail: detail, cause: eris.Wrap(cause, message)}
}

func inputError(message string, cause error) *Error    { return wrapError(KindInput, message, cause) }
func decodeError(message string, cause error) *Error   { return wrapError(KindDecode, message, cause) }
func limitError(message string, cause error) *Error    { return wrapError(KindLimit, message, cause) }
func internalError(message string, cause error) *Error { return wrapError(KindInternal, message, cause) }
