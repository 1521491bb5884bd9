package service

import (
	"errors"
	"strings"
)

// ErrorKind categorises a LifecycleError so callers can map it to a response
type ErrorKind string

const (
	ErrKindValidation        ErrorKind = "validation"
	ErrKindNotFound          ErrorKind = "not_found"
	ErrKindIllegalTransition ErrorKind = "illegal_transition"
	// ErrKindReactivationLimit is an illegal transition caused by the reactivation cap
	ErrKindReactivationLimit ErrorKind = "reactivation_limit"
	ErrKindConflict          ErrorKind = "conflict"
)

// LifecycleError is the failure result of a contract operation. Messages
// holds every human-readable problem found, never just the first one.
type LifecycleError struct {
	Kind     ErrorKind
	Messages []string
}

func (e *LifecycleError) Error() string {
	return string(e.Kind) + ": " + strings.Join(e.Messages, "; ")
}

func newLifecycleError(kind ErrorKind, messages ...string) *LifecycleError {
	return &LifecycleError{Kind: kind, Messages: messages}
}

// KindOf returns the kind of a LifecycleError anywhere in err's chain
func KindOf(err error) (ErrorKind, bool) {
	var le *LifecycleError
	if errors.As(err, &le) {
		return le.Kind, true
	}
	return "", false
}

// IsKind reports whether err is a LifecycleError of the given kind
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}

// ErrorMessages flattens err into the list returned to clients
func ErrorMessages(err error) []string {
	var le *LifecycleError
	if errors.As(err, &le) {
		return append([]string(nil), le.Messages...)
	}
	return []string{err.Error()}
}
