package errors

import (
	"errors"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeEntityNotFound, "node[%s] is not found", "X")

	if err.Code != ErrCodeEntityNotFound {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeEntityNotFound)
	}

	if err.Message != "node[X] is not found" {
		t.Errorf("Message = %v, want %v", err.Message, "node[X] is not found")
	}

	expected := "ENTITY_NOT_FOUND: node[X] is not found"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeNetwork, cause, "failed to dial")

	if err.Code != ErrCodeNetwork {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeNetwork)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{"matching code", New(ErrCodePortNotFound, "test"), ErrCodePortNotFound, true},
		{"non-matching code", New(ErrCodePortNotFound, "test"), ErrCodeNetwork, false},
		{"outer code of wrapped error", Wrap(ErrCodeNetwork, New(ErrCodeInvalidInput, "inner"), "outer"), ErrCodeNetwork, true},
		{"non-Error type", errors.New("plain error"), ErrCodeInvalidInput, false},
		{"nil error", nil, ErrCodeInvalidInput, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	if got := GetCode(New(ErrCodeCyclicGraph, "x")); got != ErrCodeCyclicGraph {
		t.Errorf("GetCode() = %v, want %v", got, ErrCodeCyclicGraph)
	}
	if got := GetCode(errors.New("plain")); got != "" {
		t.Errorf("GetCode(plain) = %v, want empty", got)
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"structured", New(ErrCodeEntityNotFound, "node[X] is not found"), "node[X] is not found"},
		{"plain", errors.New("boom"), "boom"},
		{"wrapped", Wrap(ErrCodeInvalidDocument, errors.New("bad key"), "parse document"), "parse document: bad key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.want {
				t.Errorf("UserMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsCompileError(t *testing.T) {
	if !IsCompileError(New(ErrCodePortNotFound, "x")) {
		t.Error("PORT_NOT_FOUND should be a compile error")
	}
	if IsCompileError(New(ErrCodeNetwork, "x")) {
		t.Error("NETWORK_ERROR should not be a compile error")
	}
}
