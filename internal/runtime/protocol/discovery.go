package protocol

import (
	"errors"
	"fmt"
	"strings"

	"github.com/drblury/toolbus/internal/runtime/messages"
	"github.com/drblury/toolbus/internal/runtime/subjects"
)

// Descriptor is a capability a runtime can announce.
type Descriptor interface {
	Server | Tool | Agent | Skill
}

// Server describes an MCP server hosted by a runtime.
type Server struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Transport   string `json:"transport,omitempty"`
}

// Tool describes one callable tool.
type Tool struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	ServerID    string         `json:"serverId,omitempty"`
	InputSchema map[string]any `json:"inputSchema,omitempty"`
}

// Agent describes an agent a runtime can run.
type Agent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Model       string `json:"model,omitempty"`
}

// Skill describes a named bundle of tools.
type Skill struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	ToolIDs     []string `json:"toolIds,omitempty"`
}

// Announcement broadcasts the capabilities of one runtime. It is addressed to
// the exact tenant and runtime pair so runtimes never see each other's lists.
type Announcement[T Descriptor] struct {
	WorkspaceID string `json:"workspaceId,omitempty"`
	RuntimeID   string `json:"runtimeId"`
	Items       []T    `json:"items"`
}

var (
	DiscoveredServersKind = newDiscoveryKind[Server](TypeDiscoveredServers, subjects.DiscoveryServers)
	DiscoveredToolsKind   = newDiscoveryKind[Tool](TypeDiscoveredTools, subjects.DiscoveryTools)
	DiscoveredAgentsKind  = newDiscoveryKind[Agent](TypeDiscoveredAgents, subjects.DiscoveryAgents)
	DiscoveredSkillsKind  = newDiscoveryKind[Skill](TypeDiscoveredSkills, subjects.DiscoverySkills)
)

func newDiscoveryKind[T Descriptor](tag string, kind subjects.DiscoveryKind) *messages.Definition[Announcement[T]] {
	return messages.NewPublish(tag, validateAnnouncement[T], func(a Announcement[T]) string {
		return subjects.Discovery(a.WorkspaceID, a.RuntimeID, kind)
	})
}

func validateAnnouncement[T Descriptor](a Announcement[T]) error {
	errs := []error{
		requiredID("runtimeId", a.RuntimeID),
		optionalID("workspaceId", a.WorkspaceID),
	}
	seen := make(map[string]struct{}, len(a.Items))
	for i, item := range a.Items {
		id, name := identify(item)
		if id == "" {
			errs = append(errs, fmt.Errorf("items[%d]: id is required", i))
			continue
		}
		if strings.TrimSpace(name) == "" {
			errs = append(errs, fmt.Errorf("items[%d]: name is required", i))
		}
		if _, dup := seen[id]; dup {
			errs = append(errs, fmt.Errorf("items[%d]: duplicate id %q", i, id))
		}
		seen[id] = struct{}{}
	}
	return errors.Join(errs...)
}

func identify[T Descriptor](item T) (id, name string) {
	switch v := any(item).(type) {
	case Server:
		return v.ID, v.Name
	case Tool:
		return v.ID, v.Name
	case Agent:
		return v.ID, v.Name
	case Skill:
		return v.ID, v.Name
	}
	return "", ""
}
