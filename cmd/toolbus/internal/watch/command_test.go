package watch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/toolbus/cmd/toolbus/internal"
)

func TestNewWatchCommand(t *testing.T) {
	cmd := NewWatchCommand(&internal.GlobalOptions{})

	require.NotNil(t, cmd)
	assert.Equal(t, "watch <pattern>", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("buffer"))
	assert.Error(t, cmd.Args(cmd, nil))
	assert.NoError(t, cmd.Args(cmd, []string{"runtime.>"}))
}
