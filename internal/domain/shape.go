package domain

import (
	"errors"
	"fmt"
	"strings"
)

// FieldErrorKind classifies why a field was rejected.
type FieldErrorKind string

const (
	MissingField FieldErrorKind = "missing_field"
	InvalidEnum  FieldErrorKind = "invalid_enum"
)

var (
	// ErrMissingField matches any FieldError of kind MissingField via errors.Is.
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidEnum matches any FieldError of kind InvalidEnum via errors.Is.
	ErrInvalidEnum = errors.New("value outside allowed set")
)

// FieldError describes a single rejected field.
type FieldError struct {
	Field string
	Kind  FieldErrorKind
	Value string
}

func (e *FieldError) Error() string {
	if e.Kind == InvalidEnum {
		return fmt.Sprintf("%s: invalid value %q", e.Field, e.Value)
	}
	return fmt.Sprintf("%s is required", e.Field)
}

// Is lets callers match on the kind sentinels.
func (e *FieldError) Is(target error) bool {
	switch target {
	case ErrMissingField:
		return e.Kind == MissingField
	case ErrInvalidEnum:
		return e.Kind == InvalidEnum
	}
	return false
}

// ValidateShape checks the required string fields and the two closed enumerations.
// Nothing else is inspected.
func ValidateShape(t Ticket) error {
	required := []struct {
		name  string
		value string
	}{
		{"subject", t.Subject},
		{"description", t.Description},
		{"created_by", t.CreatedBy},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return &FieldError{Field: f.name, Kind: MissingField}
		}
	}
	if !t.Status.Valid() {
		return &FieldError{Field: "status", Kind: InvalidEnum, Value: string(t.Status)}
	}
	if !t.Priority.Valid() {
		return &FieldError{Field: "priority", Kind: InvalidEnum, Value: string(t.Priority)}
	}
	return nil
}
