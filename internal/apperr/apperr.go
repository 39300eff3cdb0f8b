// Package apperr defines the workflow error taxonomy.
//
// Every specific error belongs to one kind. errors.Is matches a specific error
// against itself and against its kind sentinel, so callers can branch either way:
//
//	errors.Is(err, apperr.ErrInvalidState)
//	errors.Is(err, workflow.ErrAlreadyCheckedIn)
package apperr

import "errors"

type Kind string

const (
	KindAccessDenied Kind = "access_denied"
	KindInvalidState Kind = "invalid_state"
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
)

// Error is a taxonomy error. Code is a stable message id used for user-facing text.
type Error struct {
	Kind Kind
	Code string
	Msg  string
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return string(e.Kind)
}

// Is matches kind sentinels (errors without a Code) of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == "" && t.Kind == e.Kind
}

var (
	ErrAccessDenied = &Error{Kind: KindAccessDenied, Msg: "access denied"}
	ErrInvalidState = &Error{Kind: KindInvalidState, Msg: "invalid state"}
	ErrValidation   = &Error{Kind: KindValidation, Msg: "validation error"}
	ErrNotFound     = &Error{Kind: KindNotFound, Msg: "not found"}
)

// New returns a specific error of the given kind.
func New(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Msg: msg}
}

// As extracts a taxonomy error from err.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the kind of err, or "" for errors outside the taxonomy.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return ""
}
