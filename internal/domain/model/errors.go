package model

import (
	"errors"
	"fmt"
)

// ErrorKind classifies domain failures so outer layers can map them without
// parsing messages.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindState
	KindNotFound
	KindEligibility
	KindConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindState:
		return "state"
	case KindNotFound:
		return "not_found"
	case KindEligibility:
		return "eligibility"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// DomainError is a typed domain failure.
type DomainError struct {
	Kind ErrorKind
	Msg  string
}

func (e *DomainError) Error() string { return e.Msg }

// Is matches any DomainError of the same kind, so sentinels work with errors.Is.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Sentinels for errors.Is checks.
var (
	ErrValidation       = &DomainError{Kind: KindValidation, Msg: "validation failed"}
	ErrState            = &DomainError{Kind: KindState, Msg: "operation not allowed in current state"}
	ErrNotFound         = &DomainError{Kind: KindNotFound, Msg: "not found"}
	ErrIneligibleMember = &DomainError{Kind: KindEligibility, Msg: "member is not eligible"}
	ErrDuplicateRequest = &DomainError{Kind: KindConflict, Msg: "duplicate request"}
)

func NewValidationError(format string, args ...any) error {
	return &DomainError{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func NewStateError(format string, args ...any) error {
	return &DomainError{Kind: KindState, Msg: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(format string, args ...any) error {
	return &DomainError{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func NewEligibilityError(format string, args ...any) error {
	return &DomainError{Kind: KindEligibility, Msg: fmt.Sprintf(format, args...)}
}

func NewConflictError(format string, args ...any) error {
	return &DomainError{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of the first DomainError in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}
