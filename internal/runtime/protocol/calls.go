package protocol

import (
	"errors"
	"strings"

	"github.com/drblury/toolbus/internal/runtime/messages"
	"github.com/drblury/toolbus/internal/runtime/subjects"
)

// ToolCall asks a runtime to execute one tool. RuntimeID pins the call to a
// specific runtime; otherwise the subject is routed by the caller id.
type ToolCall struct {
	WorkspaceID string         `json:"workspaceId"`
	ToolID      string         `json:"toolId"`
	From        string         `json:"from"`
	RuntimeID   string         `json:"runtimeId,omitempty"`
	Arguments   map[string]any `json:"arguments,omitempty"`
}

// SkillCall asks a runtime to execute a tool exposed through a skill.
type SkillCall struct {
	WorkspaceID string         `json:"workspaceId"`
	SkillID     string         `json:"skillId"`
	ToolName    string         `json:"toolName"`
	From        string         `json:"from"`
	RuntimeID   string         `json:"runtimeId,omitempty"`
	Arguments   map[string]any `json:"arguments,omitempty"`
}

// ToolResult is the successful or tool-level failed outcome of a call.
type ToolResult struct {
	Result     any    `json:"result,omitempty"`
	IsError    bool   `json:"isError"`
	Error      string `json:"error,omitempty"`
	ExecutedBy string `json:"executedBy,omitempty"`
}

// Failure answers a request the responder could not handle at all.
type Failure struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

var (
	ToolCallKind   = messages.NewRequest(TypeToolCall, validateToolCall, toolCallSubject)
	SkillCallKind  = messages.NewRequest(TypeSkillCall, validateSkillCall, skillCallSubject)
	ToolResultKind = messages.NewResponse(TypeToolResult, validateToolResult)
	FailureKind    = messages.NewResponse(TypeFailure, validateFailure)
)

func toolCallSubject(c ToolCall) string {
	return subjects.ToolCall(c.WorkspaceID, c.ToolID, subjects.Route(c.RuntimeID, c.From))
}

func skillCallSubject(c SkillCall) string {
	return subjects.SkillCall(c.WorkspaceID, c.SkillID, subjects.Route(c.RuntimeID, c.From))
}

func validateToolCall(c ToolCall) error {
	return errors.Join(
		requiredID("workspaceId", c.WorkspaceID),
		requiredID("toolId", c.ToolID),
		requiredID("from", c.From),
		optionalID("runtimeId", c.RuntimeID),
	)
}

func validateSkillCall(c SkillCall) error {
	var nameErr error
	if strings.TrimSpace(c.ToolName) == "" {
		nameErr = errors.New("toolName is required")
	}
	return errors.Join(
		requiredID("workspaceId", c.WorkspaceID),
		requiredID("skillId", c.SkillID),
		requiredID("from", c.From),
		optionalID("runtimeId", c.RuntimeID),
		nameErr,
	)
}

func validateToolResult(r ToolResult) error {
	if r.IsError && r.Error == "" {
		return errors.New("error message is required when isError is set")
	}
	if !r.IsError && r.Error != "" {
		return errors.New("error message set on a successful result")
	}
	return nil
}

func validateFailure(f Failure) error {
	if strings.TrimSpace(f.Error) == "" {
		return errors.New("error is required")
	}
	return nil
}
