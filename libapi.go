package toolbus

import (
	"context"
	"io"

	brokerpkg "github.com/drblury/toolbus/internal/runtime/broker"
	clientpkg "github.com/drblury/toolbus/internal/runtime/client"
	configpkg "github.com/drblury/toolbus/internal/runtime/config"
	errspkg "github.com/drblury/toolbus/internal/runtime/errors"
	idspkg "github.com/drblury/toolbus/internal/runtime/ids"
	jsoncodec "github.com/drblury/toolbus/internal/runtime/jsoncodec"
	loggingpkg "github.com/drblury/toolbus/internal/runtime/logging"
	messagespkg "github.com/drblury/toolbus/internal/runtime/messages"
	metadatapkg "github.com/drblury/toolbus/internal/runtime/metadata"
	metricspkg "github.com/drblury/toolbus/internal/runtime/metrics"
	protocolpkg "github.com/drblury/toolbus/internal/runtime/protocol"
	streampkg "github.com/drblury/toolbus/internal/runtime/stream"
	subjectspkg "github.com/drblury/toolbus/internal/runtime/subjects"
)

type (
	Config = configpkg.Config

	Client          = clientpkg.Client
	Dependencies    = clientpkg.Dependencies
	Subscription    = clientpkg.Subscription
	Handler         = clientpkg.Handler
	RequestOption   = clientpkg.RequestOption
	SubscribeOption = clientpkg.SubscribeOption
	ServeOption     = clientpkg.ServeOption
	DurableSink     = clientpkg.DurableSink
	Hooks           = clientpkg.Hooks
	Job             = clientpkg.Job

	Envelope          = messagespkg.Envelope
	Class             = messagespkg.Class
	Kind              = messagespkg.Kind
	Registry          = messagespkg.Registry
	Message[P any]    = messagespkg.Message[P]
	Definition[P any] = messagespkg.Definition[P]

	BrokerConn   = brokerpkg.Conn
	DialFunc     = brokerpkg.DialFunc
	MemoryBroker = brokerpkg.Memory

	Handshake    = protocolpkg.Handshake
	HandshakeAck = protocolpkg.HandshakeAck
	ToolCall     = protocolpkg.ToolCall
	SkillCall    = protocolpkg.SkillCall
	ToolResult   = protocolpkg.ToolResult
	Failure      = protocolpkg.Failure
	Server       = protocolpkg.Server
	Tool         = protocolpkg.Tool
	Agent        = protocolpkg.Agent
	Skill        = protocolpkg.Skill
	Lifecycle    = protocolpkg.Lifecycle
	Reconnect    = protocolpkg.Reconnect

	Announcement[T protocolpkg.Descriptor] = protocolpkg.Announcement[T]

	DiscoveryKind  = subjectspkg.DiscoveryKind
	LifecycleEvent = subjectspkg.LifecycleEvent

	Metadata      = metadatapkg.Metadata
	LogFields     = loggingpkg.LogFields
	ServiceLogger = loggingpkg.ServiceLogger
	ClientMetrics = metricspkg.ClientMetrics

	StreamRegistry     = streampkg.Registry
	StreamBuilder      = streampkg.Builder
	StreamCapabilities = streampkg.Capabilities
	StreamSink         = streampkg.Sink

	ErrorCategory          = errspkg.Category
	ConfigValidationError  = errspkg.ConfigValidationError
	ValidationError        = errspkg.ValidationError
	MissingSubjectError    = errspkg.MissingSubjectError
	UnknownTypeError       = errspkg.UnknownTypeError
	MalformedMessageError  = errspkg.MalformedMessageError
	ProtocolViolationError = errspkg.ProtocolViolationError
	TimeoutError           = errspkg.TimeoutError
	ConnectionError        = errspkg.ConnectionError
)

const (
	Publish  = messagespkg.Publish
	Request  = messagespkg.Request
	Response = messagespkg.Response

	DefaultRequestTimeout = clientpkg.DefaultRequestTimeout
	MaxRequestAttempts    = clientpkg.MaxRequestAttempts

	DiscoveryServers = subjectspkg.DiscoveryServers
	DiscoveryTools   = subjectspkg.DiscoveryTools
	DiscoveryAgents  = subjectspkg.DiscoveryAgents
	DiscoverySkills  = subjectspkg.DiscoverySkills

	EventStarted   = subjectspkg.EventStarted
	EventStopped   = subjectspkg.EventStopped
	EventReconnect = subjectspkg.EventReconnect

	ErrorCategoryNone      = errspkg.CategoryNone
	ErrorCategoryLocal     = errspkg.CategoryLocal
	ErrorCategoryProtocol  = errspkg.CategoryProtocol
	ErrorCategoryTransport = errspkg.CategoryTransport
	ErrorCategoryUnknown   = errspkg.CategoryUnknown
)

var (
	NewClient           = clientpkg.New
	WithTimeout         = clientpkg.WithTimeout
	WithRetryOnTimeout  = clientpkg.WithRetryOnTimeout
	WithBuffer          = clientpkg.WithBuffer
	WithConcurrency     = clientpkg.WithConcurrency
	WithHooks           = clientpkg.WithHooks
	NewRegistry         = messagespkg.NewRegistry
	MustNewRegistry     = messagespkg.MustNewRegistry
	NewProtocolRegistry = protocolpkg.NewRegistry
	ProtocolKinds       = protocolpkg.Kinds
	Encode              = messagespkg.Encode

	Dial          = brokerpkg.Dial
	StaticDialer  = brokerpkg.Static
	NewMemory     = brokerpkg.NewMemory
	DialNATS      = brokerpkg.DialNATS
	DefaultConfig = configpkg.Default
	ConfigFromEnv = configpkg.FromEnv
	ConfigFromMap = configpkg.FromMap

	ValidateConfig = configpkg.ValidateConfig

	HandshakeKind         = protocolpkg.HandshakeKind
	HandshakeAckKind      = protocolpkg.HandshakeAckKind
	ToolCallKind          = protocolpkg.ToolCallKind
	SkillCallKind         = protocolpkg.SkillCallKind
	ToolResultKind        = protocolpkg.ToolResultKind
	FailureKind           = protocolpkg.FailureKind
	DiscoveredServersKind = protocolpkg.DiscoveredServersKind
	DiscoveredToolsKind   = protocolpkg.DiscoveredToolsKind
	DiscoveredAgentsKind  = protocolpkg.DiscoveredAgentsKind
	DiscoveredSkillsKind  = protocolpkg.DiscoveredSkillsKind
	LifecycleKind         = protocolpkg.LifecycleKind
	ReconnectKind         = protocolpkg.ReconnectKind

	HandshakeSubject    = subjectspkg.Handshake
	ToolCallSubject     = subjectspkg.ToolCall
	ToolCallAll         = subjectspkg.ToolCallAll
	ToolCallFor         = subjectspkg.ToolCallFor
	SkillCallSubject    = subjectspkg.SkillCall
	SkillCallAll        = subjectspkg.SkillCallAll
	SkillCallFor        = subjectspkg.SkillCallFor
	DiscoverySubject    = subjectspkg.Discovery
	DiscoveryAll        = subjectspkg.DiscoveryAll
	LifecycleSubject    = subjectspkg.Lifecycle
	LifecycleForSession = subjectspkg.LifecycleForSession
	LifecycleAll        = subjectspkg.LifecycleAll
	MatchSubject        = subjectspkg.Match
	ValidSubject        = subjectspkg.ValidSubject
	ValidPattern        = subjectspkg.ValidPattern

	DefaultStreamRegistry = streampkg.DefaultRegistry
	OpenStream            = streampkg.Open
	NewStreamSink         = streampkg.NewSink

	NewMetrics = metricspkg.New

	Marshal       = jsoncodec.Marshal
	MarshalIndent = jsoncodec.MarshalIndent
	Unmarshal     = jsoncodec.Unmarshal

	NewSlogServiceLogger = loggingpkg.NewSlogServiceLogger
	NopLogger            = loggingpkg.Nop

	NewMetadata  = metadatapkg.New
	NewMessageID = idspkg.NewMessageID

	ClassifyError = errspkg.Classify
	IsRetryable   = errspkg.IsRetryable

	ErrConfigRequired     = errspkg.ErrConfigRequired
	ErrLoggerRequired     = errspkg.ErrLoggerRequired
	ErrRegistryRequired   = errspkg.ErrRegistryRequired
	ErrSinkRequired       = errspkg.ErrSinkRequired
	ErrMissingSubject     = errspkg.ErrMissingSubject
	ErrValidation         = errspkg.ErrValidation
	ErrUnknownType        = errspkg.ErrUnknownType
	ErrMalformedMessage   = errspkg.ErrMalformedMessage
	ErrProtocolViolation  = errspkg.ErrProtocolViolation
	ErrDuplicateType      = errspkg.ErrDuplicateType
	ErrDefinitionRequired = errspkg.ErrDefinitionRequired
	ErrNoReplyAddress     = errspkg.ErrNoReplyAddress
	ErrNotRequest         = errspkg.ErrNotRequest
	ErrNotResponse        = errspkg.ErrNotResponse
	ErrTimeout            = errspkg.ErrTimeout
	ErrNotConnected       = errspkg.ErrNotConnected
	ErrSubscriptionClosed = errspkg.ErrSubscriptionClosed
)

// Header keys set on every envelope the client sends.
const (
	MetadataKeyMessageID = metadatapkg.KeyMessageID
	MetadataKeyType      = metadatapkg.KeyType
	MetadataKeyAttempt   = metadatapkg.KeyAttempt
)

func NewPublish[P any](tag string, validate func(P) error, subject func(P) string) *Definition[P] {
	return messagespkg.NewPublish(tag, validate, subject)
}

func NewRequest[P any](tag string, validate func(P) error, subject func(P) string) *Definition[P] {
	return messagespkg.NewRequest(tag, validate, subject)
}

func NewResponse[P any](tag string, validate func(P) error) *Definition[P] {
	return messagespkg.NewResponse(tag, validate)
}

// As returns env as a *Message[P] when its payload type is P.
func As[P any](env Envelope) (*Message[P], bool) {
	return messagespkg.As[P](env)
}

// NewLogger builds a slog backed ServiceLogger writing to w.
func NewLogger(w io.Writer, level, format string) ServiceLogger {
	return loggingpkg.New(w, level, format)
}

// Connect builds a client for cfg using the protocol registry and starts it.
func Connect(ctx context.Context, cfg *Config, log ServiceLogger, deps Dependencies) (*Client, error) {
	if log == nil {
		log = loggingpkg.Nop()
	}
	c, err := clientpkg.New(cfg, log, protocolpkg.NewRegistry(), deps)
	if err != nil {
		return nil, err
	}
	if err := c.Start(ctx); err != nil {
		return nil, err
	}
	return c, nil
}
