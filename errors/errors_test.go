package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestErrorClass_String(t *testing.T) {
	tests := []struct {
		class    ErrorClass
		expected string
	}{
		{ErrorTransient, "transient"},
		{ErrorInvalid, "invalid"},
		{ErrorFatal, "fatal"},
		{ErrorClass(999), "unknown"},
	}

	for _, test := range tests {
		t.Run(test.expected, func(t *testing.T) {
			result := test.class.String()
			if result != test.expected {
				t.Errorf("expected %s, got %s", test.expected, result)
			}
		})
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"upstream unavailable", ErrUpstreamUnavailable, true},
		{"upstream status", ErrUpstreamStatus, true},
		{"context deadline exceeded", context.DeadlineExceeded, true},
		{"context canceled", context.Canceled, true},
		{"invalid cube", ErrInvalidCube, false},
		{"timeout in message", fmt.Errorf("operation timeout occurred"), true},
		{"network error", fmt.Errorf("network connection failed"), true},
		{"classified transient", &ClassifiedError{Class: ErrorTransient, Err: fmt.Errorf("test")}, true},
		{"classified fatal", &ClassifiedError{Class: ErrorFatal, Err: fmt.Errorf("test")}, false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsTransient(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsInvalid(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"invalid cube", ErrInvalidCube, true},
		{"dimension not found", ErrDimensionNotFound, true},
		{"dataset unknown", ErrDatasetUnknown, true},
		{"parsing failed", ErrParsingFailed, true},
		{"upstream unavailable", ErrUpstreamUnavailable, false},
		{"classified invalid", &ClassifiedError{Class: ErrorInvalid, Err: fmt.Errorf("test")}, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsInvalid(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestIsFatal(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil error", nil, false},
		{"invalid config", ErrInvalidConfig, true},
		{"missing config", ErrMissingConfig, true},
		{"invalid cube", ErrInvalidCube, false},
		{"classified fatal", &ClassifiedError{Class: ErrorFatal, Err: fmt.Errorf("test")}, true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			result := IsFatal(test.err)
			if result != test.expected {
				t.Errorf("expected %v, got %v for error: %v", test.expected, result, test.err)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected ErrorClass
	}{
		{"nil error", nil, ErrorTransient},
		{"invalid cube", ErrInvalidCube, ErrorInvalid},
		{"missing config", ErrMissingConfig, ErrorFatal},
		{"unknown error", errors.New("something odd"), ErrorTransient},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := Classify(test.err); got != test.expected {
				t.Errorf("expected %v, got %v", test.expected, got)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	base := errors.New("boom")
	wrapped := Wrap(base, "Engine", "Flatten", "series expansion")

	if wrapped == nil {
		t.Fatal("expected non-nil error")
	}
	if !errors.Is(wrapped, base) {
		t.Error("wrapped error should match base via errors.Is")
	}
	if !strings.Contains(wrapped.Error(), "Engine.Flatten: series expansion failed") {
		t.Errorf("unexpected message: %s", wrapped.Error())
	}
	if Wrap(nil, "a", "b", "c") != nil {
		t.Error("wrapping nil should return nil")
	}
}

func TestWrapClassified(t *testing.T) {
	base := errors.New("boom")

	if !IsInvalid(WrapInvalid(base, "Engine", "Flatten", "dimension check")) {
		t.Error("WrapInvalid should produce an invalid-classified error")
	}
	if !IsTransient(WrapTransient(base, "Client", "Dataset", "fetch")) {
		t.Error("WrapTransient should produce a transient-classified error")
	}
	if !IsFatal(WrapFatal(base, "Config", "Load", "read")) {
		t.Error("WrapFatal should produce a fatal-classified error")
	}

	// Sentinel identity survives classification wrapping.
	wrapped := WrapInvalid(ErrInvalidCube, "Engine", "Flatten", "dimension check")
	if !errors.Is(wrapped, ErrInvalidCube) {
		t.Error("classified wrap should preserve the sentinel")
	}
}
