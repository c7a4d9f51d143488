package echoruntime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/toolbus/cmd/toolbus/internal"
	"github.com/drblury/toolbus/internal/runtime/messages"
	"github.com/drblury/toolbus/internal/runtime/protocol"
)

func TestNewEchoRuntimeCommand(t *testing.T) {
	cmd := NewEchoRuntimeCommand(&internal.GlobalOptions{})

	require.NotNil(t, cmd)
	assert.Equal(t, "echo-runtime", cmd.Use)
	assert.Equal(t, "echo", cmd.Flags().Lookup("tool").DefValue)
	assert.NotNil(t, cmd.Flags().Lookup("runtime-id"))
	assert.NotNil(t, cmd.Flags().Lookup("workspace"))
	assert.NotNil(t, cmd.Flags().Lookup("concurrency"))
}

func TestHandlerEchoesArguments(t *testing.T) {
	req := protocol.ToolCallKind.MustCreate(protocol.ToolCall{
		WorkspaceID: "ws1",
		ToolID:      "echo",
		From:        "orch",
		Arguments:   map[string]any{"text": "hi"},
	})

	resp, err := Handler("rt-1")(context.Background(), req)
	require.NoError(t, err)

	result, ok := messages.As[protocol.ToolResult](resp)
	require.True(t, ok)
	assert.Equal(t, map[string]any{"text": "hi"}, result.Payload().Result)
	assert.Equal(t, "rt-1", result.Payload().ExecutedBy)
}

func TestHandlerRejectsOtherRequests(t *testing.T) {
	req := protocol.HandshakeKind.MustCreate(protocol.Handshake{Name: "rt", PID: 1, SkillKey: "sk"})

	_, err := Handler("rt-1")(context.Background(), req)
	assert.ErrorContains(t, err, "unsupported request type")
}
