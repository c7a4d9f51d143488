package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantMsg string
	}{
		{"ErrConfigRequired", ErrConfigRequired, "toolbus: configuration is required"},
		{"ErrLoggerRequired", ErrLoggerRequired, "toolbus: logger is required"},
		{"ErrRegistryRequired", ErrRegistryRequired, "toolbus: message registry is required"},
		{"ErrMissingSubject", ErrMissingSubject, "toolbus: subject is required"},
		{"ErrUnknownType", ErrUnknownType, "toolbus: unknown message type"},
		{"ErrProtocolViolation", ErrProtocolViolation, "toolbus: protocol violation"},
		{"ErrTimeout", ErrTimeout, "toolbus: request timed out"},
		{"ErrNotConnected", ErrNotConnected, "toolbus: not connected"},
		{"ErrDuplicateType", ErrDuplicateType, "toolbus: message type already registered"},
		{"ErrDefinitionRequired", ErrDefinitionRequired, "toolbus: message definition is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestConfigValidationError(t *testing.T) {
	inner := errors.New("invalid servers")
	err := ConfigValidationError{Err: inner}

	want := "toolbus: invalid configuration: invalid servers"
	if got := err.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if unwrapped := err.Unwrap(); unwrapped != inner {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, inner)
	}
}

func TestNewConfigValidationError(t *testing.T) {
	t.Run("nil error returns nil", func(t *testing.T) {
		if err := NewConfigValidationError(nil); err != nil {
			t.Errorf("NewConfigValidationError(nil) = %v, want nil", err)
		}
	})

	t.Run("errors.Is works with wrapped error", func(t *testing.T) {
		inner := errors.New("specific error")
		err := NewConfigValidationError(inner)

		var cfgErr ConfigValidationError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("expected ConfigValidationError, got %T", err)
		}
		if !errors.Is(err, inner) {
			t.Error("errors.Is should match wrapped error")
		}
	})
}

func TestTypedErrorsMatchSentinels(t *testing.T) {
	cause := errors.New("toolId is required")
	tests := []struct {
		name     string
		err      error
		sentinel error
		contains string
	}{
		{"validation", &ValidationError{Type: "call-tool", Cause: cause}, ErrValidation, "invalid call-tool payload"},
		{"missing subject", &MissingSubjectError{Type: "call-tool"}, ErrMissingSubject, "call-tool message has no subject"},
		{"unknown type", &UnknownTypeError{Type: "bogus"}, ErrUnknownType, `"bogus"`},
		{"untagged", &UnknownTypeError{}, ErrUnknownType, "no type tag"},
		{"malformed", &MalformedMessageError{Cause: cause}, ErrMalformedMessage, "malformed message"},
		{"protocol", &ProtocolViolationError{Subject: "handshake", Type: "handshake", Reason: "reply is not a response"}, ErrProtocolViolation, "reply is not a response"},
		{"timeout", &TimeoutError{Subject: "handshake", Window: time.Second, Attempts: 2}, ErrTimeout, "2 attempt(s)"},
		{"connection", &ConnectionError{Op: "publish"}, ErrNotConnected, "publish: not connected"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("outer: %w", tt.err)
			if !errors.Is(wrapped, tt.sentinel) {
				t.Fatalf("expected %T to match %v", tt.err, tt.sentinel)
			}
			if !strings.Contains(tt.err.Error(), tt.contains) {
				t.Fatalf("expected %q in %q", tt.contains, tt.err.Error())
			}
		})
	}
}

func TestValidationErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("bad")
	err := &ValidationError{Type: "handshake", Cause: cause}
	if !errors.Is(err, cause) {
		t.Fatal("expected cause to be reachable")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want Category
	}{
		{nil, CategoryNone},
		{&ValidationError{Type: "x"}, CategoryLocal},
		{&MissingSubjectError{Type: "x"}, CategoryLocal},
		{ErrNoReplyAddress, CategoryLocal},
		{&UnknownTypeError{Type: "x"}, CategoryProtocol},
		{&ProtocolViolationError{}, CategoryProtocol},
		{&MalformedMessageError{Cause: errors.New("eof")}, CategoryProtocol},
		{&TimeoutError{}, CategoryTransport},
		{&ConnectionError{Op: "request"}, CategoryTransport},
		{errors.New("other"), CategoryUnknown},
	}

	for _, tt := range tests {
		if got := Classify(tt.err); got != tt.want {
			t.Errorf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}

func TestIsRetryableOnlyForTimeouts(t *testing.T) {
	if !IsRetryable(&TimeoutError{}) {
		t.Fatal("expected timeout to be retryable")
	}
	if IsRetryable(&ConnectionError{Op: "publish"}) {
		t.Fatal("expected connection error to not be retryable")
	}
	if IsRetryable(&ProtocolViolationError{}) {
		t.Fatal("expected protocol violation to not be retryable")
	}
	if IsRetryable(nil) {
		t.Fatal("expected nil to not be retryable")
	}
}

func TestTimeoutErrorReportsWindow(t *testing.T) {
	err := &TimeoutError{Subject: "handshake", Window: 250 * time.Millisecond, Attempts: 1}
	if !err.Timeout() {
		t.Fatal("expected Timeout() to report true")
	}
	if !strings.Contains(err.Error(), "after 250ms") {
		t.Fatalf("expected window in %q", err.Error())
	}
}
