package tools

import "errors"

// RetryError is a tool failure the model may recover from by calling the tool
// again, possibly with different input. Message is what the model sees.
type RetryError struct {
	Message string
	Err     error
}

func (e *RetryError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *RetryError) Unwrap() error { return e.Err }

// Retry wraps err as a RetryError.
func Retry(message string, err error) *RetryError {
	return &RetryError{Message: message, Err: err}
}

// IsRetry reports whether err is or wraps a RetryError.
func IsRetry(err error) bool {
	var re *RetryError
	return errors.As(err, &re)
}
