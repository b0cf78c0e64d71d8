package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	err := New(ErrorTypeCommand, "bob", "exit status 2", nil)
	assert.Equal(t, "command error for bob: exit status 2", err.Error())

	cause := errors.New("signal: killed")
	wrapped := New(ErrorTypeTimeout, "bob", "lookup timed out", cause)
	assert.Equal(t, "timeout error for bob: lookup timed out: signal: killed", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorType
	}{
		{"nil", nil, ""},
		{"typed", New(ErrorTypeParsing, "a", "no fields", nil), ErrorTypeParsing},
		{"wrapped typed", fmt.Errorf("query: %w", New(ErrorTypeNotFound, "a", "missing", nil)), ErrorTypeNotFound},
		{"deadline", fmt.Errorf("run: %w", context.DeadlineExceeded), ErrorTypeTimeout},
		{"plain", errors.New("boom"), ErrorTypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TypeOf(tt.err))
		})
	}

	assert.True(t, IsTimeout(context.DeadlineExceeded))
	assert.False(t, IsTimeout(errors.New("boom")))
}
