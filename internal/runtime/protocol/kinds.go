// Package protocol defines the concrete message kinds exchanged between the
// orchestrator and runtimes.
package protocol

import "github.com/drblury/toolbus/internal/runtime/messages"

// Wire type tags.
const (
	TypeHandshake         = "handshake"
	TypeHandshakeAck      = "handshake-response"
	TypeToolCall          = "call-tool"
	TypeSkillCall         = "call-skill"
	TypeToolResult        = "tool-response"
	TypeFailure           = "error-response"
	TypeDiscoveredServers = "discovered-servers"
	TypeDiscoveredTools   = "discovered-tools"
	TypeDiscoveredAgents  = "discovered-agents"
	TypeDiscoveredSkills  = "discovered-skills"
	TypeLifecycle         = "runtime-lifecycle"
	TypeReconnect         = "runtime-reconnect"
)

// Kinds lists every protocol kind. The order is the registration order.
func Kinds() []messages.Kind {
	return []messages.Kind{
		HandshakeKind,
		HandshakeAckKind,
		ToolCallKind,
		SkillCallKind,
		ToolResultKind,
		FailureKind,
		DiscoveredServersKind,
		DiscoveredToolsKind,
		DiscoveredAgentsKind,
		DiscoveredSkillsKind,
		LifecycleKind,
		ReconnectKind,
	}
}

// NewRegistry returns a registry holding every protocol kind.
func NewRegistry() *messages.Registry {
	return messages.MustNewRegistry(Kinds()...)
}
