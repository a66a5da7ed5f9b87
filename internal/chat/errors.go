package chat

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an application, chat or message does not exist.
var ErrNotFound = errors.New("not found")

// ValidationError reports a rejected input field. Handlers map it to 400.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func validateName(name string) error {
	if len(name) < 3 || len(name) > 50 {
		return &ValidationError{Field: "name", Reason: "must be 3-50 characters"}
	}
	return nil
}

func validateBody(body string) error {
	if body == "" {
		return &ValidationError{Field: "body", Reason: "must not be empty"}
	}
	return nil
}
