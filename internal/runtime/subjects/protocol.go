package subjects

// DiscoveryKind names the capability a discovery broadcast announces.
type DiscoveryKind string

const (
	DiscoveryServers DiscoveryKind = "servers"
	DiscoveryTools   DiscoveryKind = "tools"
	DiscoveryAgents  DiscoveryKind = "agents"
	DiscoverySkills  DiscoveryKind = "skills"
)

// Valid reports whether k is a known discovery kind.
func (k DiscoveryKind) Valid() bool {
	switch k {
	case DiscoveryServers, DiscoveryTools, DiscoveryAgents, DiscoverySkills:
		return true
	}
	return false
}

// LifecycleEvent names a runtime lifecycle transition.
type LifecycleEvent string

const (
	EventStarted   LifecycleEvent = "started"
	EventStopped   LifecycleEvent = "stopped"
	EventReconnect LifecycleEvent = "reconnect"
)

// Valid reports whether e is a known lifecycle event.
func (e LifecycleEvent) Valid() bool {
	switch e {
	case EventStarted, EventStopped, EventReconnect:
		return true
	}
	return false
}

// Handshake is the single shared subject runtimes announce themselves on.
func Handshake() string {
	return TokenHandshake
}

// Route picks the fourth token of a call subject: the target runtime when the
// call is pinned to one, otherwise the caller.
func Route(runtimeID, from string) string {
	if runtimeID != "" {
		return runtimeID
	}
	return from
}

// ToolCall is {tenant}.call-tool.{toolId}.{route}.
func ToolCall(tenant, toolID, route string) string {
	return Join(tenant, TokenCallTool, toolID, route)
}

// ToolCallAll matches every tool call of every tenant.
func ToolCallAll() string {
	return Join(SingleWildcard, TokenCallTool, SingleWildcard, SingleWildcard)
}

// ToolCallFor matches calls to one tool regardless of tenant and route.
func ToolCallFor(toolID string) string {
	return Join(SingleWildcard, TokenCallTool, toolID, SingleWildcard)
}

// SkillCall is {tenant}.call-skill.{skillId}.{route}.
func SkillCall(tenant, skillID, route string) string {
	return Join(tenant, TokenCallSkill, skillID, route)
}

// SkillCallAll matches every skill call of every tenant.
func SkillCallAll() string {
	return Join(SingleWildcard, TokenCallSkill, SingleWildcard, SingleWildcard)
}

// SkillCallFor matches calls to one skill regardless of tenant and route.
func SkillCallFor(skillID string) string {
	return Join(SingleWildcard, TokenCallSkill, skillID, SingleWildcard)
}

// Discovery is {tenant}.{runtimeId}.{kind}, or {runtimeId}.{kind} when the
// runtime is not bound to a tenant.
func Discovery(tenant, runtimeID string, kind DiscoveryKind) string {
	if tenant == "" {
		return Join(runtimeID, string(kind))
	}
	return Join(tenant, runtimeID, string(kind))
}

// DiscoveryAll matches every discovery kind from one tenant and runtime pair.
func DiscoveryAll(tenant, runtimeID string) string {
	return Discovery(tenant, runtimeID, SingleWildcard)
}

// Lifecycle is runtime.{event}.{serverId}.{sessionId}.
func Lifecycle(event LifecycleEvent, serverID, sessionID string) string {
	return Join(TokenRuntime, string(event), serverID, sessionID)
}

// LifecycleForSession matches one event for a session on any server.
func LifecycleForSession(event LifecycleEvent, sessionID string) string {
	return Join(TokenRuntime, string(event), SingleWildcard, sessionID)
}

// LifecycleAll matches one event for every server and session.
func LifecycleAll(event LifecycleEvent) string {
	return Join(TokenRuntime, string(event), SingleWildcard, SingleWildcard)
}

// CallAddress is a parsed tool or skill call subject.
type CallAddress struct {
	Tenant   string
	Verb     string
	EntityID string
	Route    string
}

// ParseCall splits a concrete call subject. ok is false for anything that is
// not a four-token call-tool or call-skill subject.
func ParseCall(subject string) (addr CallAddress, ok bool) {
	toks := Tokens(subject)
	if len(toks) != 4 || (toks[1] != TokenCallTool && toks[1] != TokenCallSkill) {
		return CallAddress{}, false
	}
	for _, t := range toks {
		if ValidToken(t) != nil {
			return CallAddress{}, false
		}
	}
	return CallAddress{Tenant: toks[0], Verb: toks[1], EntityID: toks[2], Route: toks[3]}, true
}

// LifecycleAddress is a parsed lifecycle subject.
type LifecycleAddress struct {
	Event     LifecycleEvent
	ServerID  string
	SessionID string
}

// ParseLifecycle splits a concrete lifecycle subject.
func ParseLifecycle(subject string) (addr LifecycleAddress, ok bool) {
	toks := Tokens(subject)
	if len(toks) != 4 || toks[0] != TokenRuntime || !LifecycleEvent(toks[1]).Valid() {
		return LifecycleAddress{}, false
	}
	if ValidToken(toks[2]) != nil || ValidToken(toks[3]) != nil {
		return LifecycleAddress{}, false
	}
	return LifecycleAddress{Event: LifecycleEvent(toks[1]), ServerID: toks[2], SessionID: toks[3]}, true
}
