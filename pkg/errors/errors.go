package errors

import (
	"context"
	"errors"
	"fmt"
)

// ErrorType classifies why a single account lookup failed
type ErrorType string

const (
	ErrorTypeTimeout  ErrorType = "timeout"
	ErrorTypeCommand  ErrorType = "command"
	ErrorTypeNotFound ErrorType = "not_found"
	ErrorTypeParsing  ErrorType = "parsing"
	ErrorTypeUnknown  ErrorType = "unknown"
)

// Error is a failed lookup for one account
type Error struct {
	Type    ErrorType
	Account string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error for %s: %s: %v", e.Type, e.Account, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error for %s: %s", e.Type, e.Account, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds a typed lookup error
func New(t ErrorType, account, message string, cause error) *Error {
	return &Error{Type: t, Account: account, Message: message, Err: cause}
}

// TypeOf returns the ErrorType carried by err, classifying deadline errors as
// timeouts and anything else as unknown.
func TypeOf(err error) ErrorType {
	if err == nil {
		return ""
	}
	var lookupErr *Error
	if errors.As(err, &lookupErr) {
		return lookupErr.Type
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorTypeTimeout
	}
	return ErrorTypeUnknown
}

// IsTimeout reports whether err is a lookup that ran out of time
func IsTimeout(err error) bool {
	return TypeOf(err) == ErrorTypeTimeout
}
