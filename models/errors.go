package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNoGraphData is reported when an oracle response holds no nodes
	ErrNoGraphData = errors.New("no graph data")

	// ErrMalformedPayload is reported when an oracle response cannot be decoded
	ErrMalformedPayload = errors.New("malformed graph payload")
)

// InputError is a recoverable problem with the graph handed to the core. The
// caller should show an empty or error state instead of starting a layout.
type InputError struct {
	Reason string
	Err    error
}

// NewInputError wraps err with a human readable reason
func NewInputError(err error, format string, args ...any) *InputError {
	return &InputError{Reason: fmt.Sprintf(format, args...), Err: err}
}

func (e *InputError) Error() string {
	if e.Reason == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// IsInputError reports whether err is, or wraps, an InputError
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}
