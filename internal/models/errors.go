package models

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidArgument     = errors.New("invalid argument")
	ErrReverseNotSupported = errors.New("reverse migration not supported")
)

// ArgumentError reports a bad argument to a builder or codec call.
type ArgumentError struct {
	Param  string
	Reason string
}

func (e *ArgumentError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("The argument '%s' cannot be null, empty or contain only white space.", e.Param)
	}
	return fmt.Sprintf("invalid argument '%s': %s", e.Param, e.Reason)
}

func (e *ArgumentError) Is(target error) bool { return target == ErrInvalidArgument }

// CheckNotEmpty returns an ArgumentError when value is empty or whitespace.
func CheckNotEmpty(value, param string) error {
	if strings.TrimSpace(value) == "" {
		return &ArgumentError{Param: param}
	}
	return nil
}

func OutOfRange(param string, value any) error {
	return &ArgumentError{Param: param, Reason: fmt.Sprintf("value %v is out of range", value)}
}

// ReverseNotSupportedError is recorded when a Down body reaches an operation
// whose inverse cannot be derived.
type ReverseNotSupportedError struct {
	Operation string
}

func (e *ReverseNotSupportedError) Error() string {
	return fmt.Sprintf("reverse migration for %s is not supported", e.Operation)
}

func (e *ReverseNotSupportedError) Is(target error) bool { return target == ErrReverseNotSupported }
