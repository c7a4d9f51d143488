package errors

import sterrors "errors"

var (
	ErrConfigRequired     = sterrors.New("toolbus: configuration is required")
	ErrLoggerRequired     = sterrors.New("toolbus: logger is required")
	ErrRegistryRequired   = sterrors.New("toolbus: message registry is required")
	ErrDefinitionRequired = sterrors.New("toolbus: message definition is required")
	ErrSinkRequired       = sterrors.New("toolbus: durable sink is not configured")

	ErrMissingSubject     = sterrors.New("toolbus: subject is required")
	ErrValidation         = sterrors.New("toolbus: payload validation failed")
	ErrUnknownType        = sterrors.New("toolbus: unknown message type")
	ErrMalformedMessage   = sterrors.New("toolbus: malformed message")
	ErrProtocolViolation  = sterrors.New("toolbus: protocol violation")
	ErrDuplicateType      = sterrors.New("toolbus: message type already registered")
	ErrNoReplyAddress     = sterrors.New("toolbus: message has no reply address")
	ErrNotRequest         = sterrors.New("toolbus: message is not a request")
	ErrNotResponse        = sterrors.New("toolbus: message is not a response")
	ErrTimeout            = sterrors.New("toolbus: request timed out")
	ErrNotConnected       = sterrors.New("toolbus: not connected")
	ErrSubscriptionClosed = sterrors.New("toolbus: subscription closed")
)
