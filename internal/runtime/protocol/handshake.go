package protocol

import (
	"errors"
	"strings"

	"github.com/drblury/toolbus/internal/runtime/messages"
	"github.com/drblury/toolbus/internal/runtime/subjects"
)

// Handshake is sent by a runtime when it starts, before it serves anything.
// Exactly one of WorkspaceKey or SkillKey authenticates it.
type Handshake struct {
	Name         string `json:"name"`
	PID          int    `json:"pid"`
	HostIP       string `json:"hostIP,omitempty"`
	Hostname     string `json:"hostname,omitempty"`
	Version      string `json:"version,omitempty"`
	WorkspaceKey string `json:"workspaceKey,omitempty"`
	SkillKey     string `json:"skillKey,omitempty"`
	SkillName    string `json:"skillName,omitempty"`
}

// HandshakeAck tells a runtime the identity the orchestrator assigned it.
type HandshakeAck struct {
	RuntimeID   string `json:"runtimeId"`
	WorkspaceID string `json:"workspaceId,omitempty"`
	SkillID     string `json:"skillId,omitempty"`
}

var (
	HandshakeKind    = messages.NewRequest(TypeHandshake, validateHandshake, func(Handshake) string { return subjects.Handshake() })
	HandshakeAckKind = messages.NewResponse(TypeHandshakeAck, validateHandshakeAck)
)

func validateHandshake(h Handshake) error {
	var errs []error
	if strings.TrimSpace(h.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if h.PID < 0 {
		errs = append(errs, errors.New("pid cannot be negative"))
	}

	hasWorkspace := h.WorkspaceKey != ""
	hasSkill := h.SkillKey != ""
	switch {
	case hasWorkspace && hasSkill:
		errs = append(errs, errors.New("workspaceKey and skillKey are mutually exclusive"))
	case !hasWorkspace && !hasSkill:
		errs = append(errs, errors.New("one of workspaceKey or skillKey is required"))
	case hasWorkspace && h.SkillName == "":
		errs = append(errs, errors.New("skillName is required with workspaceKey"))
	case hasSkill && h.SkillName != "":
		errs = append(errs, errors.New("skillName must not be set with skillKey"))
	}
	return errors.Join(errs...)
}

func validateHandshakeAck(a HandshakeAck) error {
	if err := subjects.ValidID(a.RuntimeID); err != nil {
		return fieldError("runtimeId", err)
	}
	return optionalID("workspaceId", a.WorkspaceID)
}
