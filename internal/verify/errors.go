package verify

import (
	"errors"
	"fmt"
)

// Error kinds reported by a failed checkpoint.
const (
	KindElementNotFound = "ELEMENT_NOT_FOUND"
	KindAssertion       = "ASSERTION"
	KindNavigation      = "NAVIGATION"
)

// Assertion reasons.
const (
	ReasonModalMissing    = "modal-missing"
	ReasonContentMismatch = "content-mismatch"
	ReasonSuccessMissing  = "success-missing"
)

// Sentinels for errors.Is matching by kind.
var (
	ErrElementNotFound = errors.New("element not found")
	ErrAssertion       = errors.New("assertion failed")
	ErrNavigation      = errors.New("navigation failed")
)

// Error is a checkpoint failure.
type Error struct {
	Kind    string
	Step    string
	Reason  string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	head := e.Kind
	if e.Reason != "" {
		head += "(" + e.Reason + ")"
	}
	if e.Step != "" {
		head += " at " + e.Step
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", head, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", head, e.Message, e.Cause)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports kind equality against the package sentinels.
func (e *Error) Is(target error) bool {
	switch target {
	case ErrElementNotFound:
		return e.Kind == KindElementNotFound
	case ErrAssertion:
		return e.Kind == KindAssertion
	case ErrNavigation:
		return e.Kind == KindNavigation
	}
	return false
}

func newError(kind, reason, msg string, cause error) *Error {
	return &Error{Kind: kind, Reason: reason, Message: msg, Cause: cause}
}

// AsError extracts the checkpoint failure from err, if any.
func AsError(err error) (*Error, bool) {
	var verr *Error
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
