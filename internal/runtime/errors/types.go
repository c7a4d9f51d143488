package errors

import (
	sterrors "errors"
	"fmt"
	"time"
)

// ConfigValidationError wraps the joined result of Config.Validate.
type ConfigValidationError struct {
	Err error
}

func (e ConfigValidationError) Error() string {
	return fmt.Sprintf("toolbus: invalid configuration: %v", e.Err)
}

func (e ConfigValidationError) Unwrap() error {
	return e.Err
}

// NewConfigValidationError wraps err, returning nil when err is nil.
func NewConfigValidationError(err error) error {
	if err == nil {
		return nil
	}
	return ConfigValidationError{Err: err}
}

// ValidationError reports a payload that does not satisfy its kind's predicate.
type ValidationError struct {
	Type  string
	Cause error
}

func (e *ValidationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("toolbus: invalid %s payload: %v", e.Type, e.Cause)
	}
	return fmt.Sprintf("toolbus: invalid %s payload", e.Type)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// MissingSubjectError reports an envelope that reached a send path without a subject.
type MissingSubjectError struct {
	Type string
}

func (e *MissingSubjectError) Error() string {
	return fmt.Sprintf("toolbus: %s message has no subject", e.Type)
}

// Is implements errors.Is for MissingSubjectError.
func (e *MissingSubjectError) Is(target error) bool {
	return target == ErrMissingSubject
}

// UnknownTypeError reports a wire tag with no registered decoder.
type UnknownTypeError struct {
	Type string
}

func (e *UnknownTypeError) Error() string {
	if e.Type == "" {
		return "toolbus: message has no type tag"
	}
	return fmt.Sprintf("toolbus: unknown message type %q", e.Type)
}

// Is implements errors.Is for UnknownTypeError.
func (e *UnknownTypeError) Is(target error) bool {
	return target == ErrUnknownType
}

// MalformedMessageError reports bytes that are not a JSON object.
type MalformedMessageError struct {
	Cause error
}

func (e *MalformedMessageError) Error() string {
	return fmt.Sprintf("toolbus: malformed message: %v", e.Cause)
}

func (e *MalformedMessageError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for MalformedMessageError.
func (e *MalformedMessageError) Is(target error) bool {
	return target == ErrMalformedMessage
}

// ProtocolViolationError reports a reply that is not a Response kind.
type ProtocolViolationError struct {
	Subject string
	Type    string
	Reason  string
}

func (e *ProtocolViolationError) Error() string {
	return fmt.Sprintf("toolbus: protocol violation on %q: %s (got %q)", e.Subject, e.Reason, e.Type)
}

// Is implements errors.Is for ProtocolViolationError.
func (e *ProtocolViolationError) Is(target error) bool {
	return target == ErrProtocolViolation
}

// TimeoutError reports a request that received no reply within its window.
type TimeoutError struct {
	Subject string
	// Window is the reply window of each attempt.
	Window   time.Duration
	Attempts int
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("toolbus: request on %q timed out after %v (%d attempt(s))", e.Subject, e.Window, e.Attempts)
}

// Timeout reports true so callers checking for net.Error style timeouts match.
func (e *TimeoutError) Timeout() bool { return true }

// Is implements errors.Is for TimeoutError.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout
}

// ConnectionError wraps a broker level failure.
type ConnectionError struct {
	Op    string
	Cause error
}

func (e *ConnectionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("toolbus: %s: %v", e.Op, e.Cause)
	}
	return fmt.Sprintf("toolbus: %s: not connected", e.Op)
}

func (e *ConnectionError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for ConnectionError.
func (e *ConnectionError) Is(target error) bool {
	return target == ErrNotConnected
}

// Category groups errors by where they originate.
type Category int

const (
	// CategoryNone is returned for a nil error.
	CategoryNone Category = iota
	// CategoryLocal covers failures detected before any network interaction.
	CategoryLocal
	// CategoryProtocol covers peers that sent something the protocol does not allow.
	CategoryProtocol
	// CategoryTransport covers broker and timing failures.
	CategoryTransport
	// CategoryUnknown covers everything else.
	CategoryUnknown
)

func (c Category) String() string {
	switch c {
	case CategoryNone:
		return "none"
	case CategoryLocal:
		return "local"
	case CategoryProtocol:
		return "protocol"
	case CategoryTransport:
		return "transport"
	default:
		return "unknown"
	}
}

// Classify reports the Category of err.
func Classify(err error) Category {
	switch {
	case err == nil:
		return CategoryNone
	case sterrors.Is(err, ErrValidation),
		sterrors.Is(err, ErrMissingSubject),
		sterrors.Is(err, ErrNotRequest),
		sterrors.Is(err, ErrNotResponse),
		sterrors.Is(err, ErrNoReplyAddress):
		return CategoryLocal
	case sterrors.Is(err, ErrUnknownType),
		sterrors.Is(err, ErrMalformedMessage),
		sterrors.Is(err, ErrProtocolViolation):
		return CategoryProtocol
	case sterrors.Is(err, ErrTimeout),
		sterrors.Is(err, ErrNotConnected),
		sterrors.Is(err, ErrSubscriptionClosed):
		return CategoryTransport
	default:
		return CategoryUnknown
	}
}

// IsRetryable reports whether err may be retried. Only timeouts qualify.
func IsRetryable(err error) bool {
	return sterrors.Is(err, ErrTimeout)
}
