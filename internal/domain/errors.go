package domain

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrorKindValidation        ErrorKind = "VALIDATION"
	ErrorKindNotFound          ErrorKind = "NOT_FOUND"
	ErrorKindAuthorization     ErrorKind = "AUTHORIZATION"
	ErrorKindInvalidState      ErrorKind = "INVALID_STATE"
	ErrorKindSettlementPending ErrorKind = "SETTLEMENT_PENDING"
)

// KindedError is implemented by every engine error so the transport layer can
// render a precise message without string matching.
type KindedError interface {
	error
	Kind() ErrorKind
}

// ValidationError reports malformed or out-of-range input. Never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Kind() ErrorKind { return ErrorKindValidation }

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFoundError reports a referenced entity that does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

func (e *NotFoundError) Kind() ErrorKind { return ErrorKindNotFound }

func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// AuthorizationError reports a caller that is not the owner or renter the
// transition requires.
type AuthorizationError struct {
	Identity string
	Entity   string
	ID       string
}

func (e *AuthorizationError) Error() string {
	return fmt.Sprintf("%s is not authorized to act on %s %s", e.Identity, e.Entity, e.ID)
}

func (e *AuthorizationError) Kind() ErrorKind { return ErrorKindAuthorization }

func NewAuthorizationError(identity, entity, id string) *AuthorizationError {
	return &AuthorizationError{Identity: identity, Entity: entity, ID: id}
}

// InvalidStateError reports an entity that is not in the state required by the
// requested transition (double accept, double return, bid on a closed listing).
type InvalidStateError struct {
	Entity string
	ID     string
	State  string
	Op     string
}

func (e *InvalidStateError) Error() string {
	if e.State == "" {
		return fmt.Sprintf("cannot %s %s %s: state changed concurrently", e.Op, e.Entity, e.ID)
	}
	return fmt.Sprintf("cannot %s %s %s in state %s", e.Op, e.Entity, e.ID, e.State)
}

func (e *InvalidStateError) Kind() ErrorKind { return ErrorKindInvalidState }

func NewInvalidStateError(entity, id, state, op string) *InvalidStateError {
	return &InvalidStateError{Entity: entity, ID: id, State: state, Op: op}
}

// SettlementPendingError means the internal transition is committed but the
// ledger effect has not been accepted yet. Callers retry or poll using the
// settlement id.
type SettlementPendingError struct {
	SettlementID string
	OperationID  string
	Err          error
}

func (e *SettlementPendingError) Error() string {
	return fmt.Sprintf("settlement %s (operation %s) pending: %v", e.SettlementID, e.OperationID, e.Err)
}

func (e *SettlementPendingError) Unwrap() error { return e.Err }

func (e *SettlementPendingError) Kind() ErrorKind { return ErrorKindSettlementPending }

// KindOf returns the kind of the first KindedError in err's chain, or "" for
// infrastructure errors.
func KindOf(err error) ErrorKind {
	var ke KindedError
	if errors.As(err, &ke) {
		return ke.Kind()
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
