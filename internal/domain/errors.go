package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownBody is matched by every error reporting an unresolvable body name.
	ErrUnknownBody = errors.New("unknown body")
	// ErrInvalidArgument is matched by every malformed-input error of the core.
	ErrInvalidArgument = errors.New("invalid argument")
)

// UnknownBodyError reports that a provider cannot resolve a body name.
type UnknownBodyError struct {
	Name string
}

func (e *UnknownBodyError) Error() string {
	return fmt.Sprintf("unknown body %q", e.Name)
}

// Is makes errors.Is(err, ErrUnknownBody) succeed.
func (e *UnknownBodyError) Is(target error) bool {
	return target == ErrUnknownBody
}

// InvalidArgumentError reports a caller error such as an out-of-range latitude.
type InvalidArgumentError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidArgumentError) Error() string {
	return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, e.Reason)
}

// Is makes errors.Is(err, ErrInvalidArgument) succeed.
func (e *InvalidArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

func invalid(field string, value float64, reason string) error {
	return &InvalidArgumentError{Field: field, Value: value, Reason: reason}
}
