package model

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("ageorm: entity not found")
	ErrMultipleResults = errors.New("ageorm: multiple results")
	ErrDetached        = errors.New("ageorm: entity is detached")
	ErrNotPersisted    = errors.New("ageorm: entity is not persisted")
	ErrUnresolvable    = errors.New("ageorm: unresolvable reference")
	ErrAlreadyExists   = errors.New("ageorm: already exists")
	ErrGraphNotFound   = errors.New("ageorm: graph not found")

	// ErrRequired is wrapped by a *ValidationError for a missing required field.
	ErrRequired = errors.New("value is required")
)

// NotFoundError is returned when exactly one result was expected and none
// matched.
type NotFoundError struct {
	Label string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("ageorm: no %s found matching query", e.Label)
}

func (e *NotFoundError) Is(err error) bool { return err == ErrNotFound }

func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{Label: label}
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// MultipleResultsError is returned when exactly one result was expected and
// several matched.
type MultipleResultsError struct {
	Label string
	Count int
}

func (e *MultipleResultsError) Error() string {
	return fmt.Sprintf("ageorm: expected 1 %s, got %d", e.Label, e.Count)
}

func (e *MultipleResultsError) Is(err error) bool { return err == ErrMultipleResults }

func NewMultipleResultsError(label string, count int) *MultipleResultsError {
	return &MultipleResultsError{Label: label, Count: count}
}

func IsMultipleResults(err error) bool {
	return errors.Is(err, ErrMultipleResults)
}

// DetachedError is returned when an operation needs a bound entity.
type DetachedError struct {
	Label string
	What  string
}

func (e *DetachedError) Error() string {
	return fmt.Sprintf("ageorm: cannot load %s of %s: entity is not bound to a graph", e.What, e.Label)
}

func (e *DetachedError) Is(err error) bool { return err == ErrDetached }

func NewDetachedError(label, what string) *DetachedError {
	return &DetachedError{Label: label, What: what}
}

func IsDetached(err error) bool {
	return errors.Is(err, ErrDetached)
}

// NotPersistedError is returned when an operation needs an entity identity.
type NotPersistedError struct {
	Label  string
	Reason string
}

func (e *NotPersistedError) Error() string {
	return fmt.Sprintf("ageorm: %s: %s", e.Label, e.Reason)
}

func (e *NotPersistedError) Is(err error) bool { return err == ErrNotPersisted }

func NewNotPersistedError(label, reason string) *NotPersistedError {
	return &NotPersistedError{Label: label, Reason: reason}
}

func IsNotPersisted(err error) bool {
	return errors.Is(err, ErrNotPersisted)
}

// UnresolvableReferenceError is returned when a relationship target given by
// label has no registered type.
type UnresolvableReferenceError struct {
	Label string
}

func (e *UnresolvableReferenceError) Error() string {
	return fmt.Sprintf("ageorm: cannot resolve relationship target %q", e.Label)
}

func (e *UnresolvableReferenceError) Is(err error) bool { return err == ErrUnresolvable }

func IsUnresolvable(err error) bool {
	return errors.Is(err, ErrUnresolvable)
}

// AlreadyExistsError is returned when defining a label or creating a graph
// that already exists.
type AlreadyExistsError struct {
	Kind string
	Name string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("ageorm: %s %q already exists", e.Kind, e.Name)
}

func (e *AlreadyExistsError) Is(err error) bool { return err == ErrAlreadyExists }

func NewAlreadyExistsError(kind, name string) *AlreadyExistsError {
	return &AlreadyExistsError{Kind: kind, Name: name}
}

func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// GraphNotFoundError is returned for operations on a graph that does not exist.
type GraphNotFoundError struct {
	Graph string
}

func (e *GraphNotFoundError) Error() string {
	return fmt.Sprintf("ageorm: graph %q does not exist", e.Graph)
}

func (e *GraphNotFoundError) Is(err error) bool { return err == ErrGraphNotFound }

func NewGraphNotFoundError(graph string) *GraphNotFoundError {
	return &GraphNotFoundError{Graph: graph}
}

func IsGraphNotFound(err error) bool {
	return errors.Is(err, ErrGraphNotFound)
}

// ValidationError reports a field value or declaration that was rejected.
type ValidationError struct {
	Name string
	Err  error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ageorm: invalid field %q: %s", e.Name, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func NewValidationError(name string, err error) *ValidationError {
	return &ValidationError{Name: name, Err: err}
}

func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ValidationError
	return errors.As(err, &e)
}
