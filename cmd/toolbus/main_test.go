package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToolbusCommand(t *testing.T) {
	cmd := NewToolbusCommand()

	require.NotNil(t, cmd)
	assert.Equal(t, "toolbus", cmd.Use)
	assert.True(t, cmd.HasExample())
	assert.NotNil(t, cmd.PersistentFlags().Lookup("metrics-addr"))

	for _, name := range []string{"watch", "call", "handshake", "echo-runtime"} {
		sub, _, err := cmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, sub.Name())
		assert.NotNil(t, sub.RunE, name)
	}
}
