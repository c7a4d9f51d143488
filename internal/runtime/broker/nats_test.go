package broker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/drblury/toolbus/internal/runtime/config"
	errspkg "github.com/drblury/toolbus/internal/runtime/errors"
	"github.com/drblury/toolbus/internal/runtime/logging"
	"github.com/drblury/toolbus/internal/runtime/metadata"
)

const testNATSURL = "nats://localhost:4222"

func natsAvailable(t *testing.T) {
	t.Helper()
	nc, err := nats.Connect(testNATSURL, nats.Timeout(500*time.Millisecond))
	if err != nil {
		t.Skip("NATS not available, skipping test")
	}
	nc.Close()
}

func TestDialNATSReportsConnectFailure(t *testing.T) {
	original := ConnectFunc
	defer func() { ConnectFunc = original }()

	ConnectFunc = func(string, ...nats.Option) (*nats.Conn, error) {
		return nil, errors.New("no servers available")
	}

	cfg := config.Default()
	_, err := DialNATS(context.Background(), &cfg, logging.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, errspkg.ErrNotConnected)
	assert.Contains(t, err.Error(), "no servers available")
}

func TestDialNATSTimesOutWhenNoServerAnswers(t *testing.T) {
	cfg := config.Default()
	cfg.Servers = []string{"nats://127.0.0.1:1"}
	cfg.ConnectTimeout = 150 * time.Millisecond
	cfg.ReconnectWait = 20 * time.Millisecond

	start := time.Now()
	_, err := DialNATS(context.Background(), &cfg, logging.Nop())
	require.Error(t, err)
	assert.ErrorIs(t, err, errspkg.ErrNotConnected)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestNATSConnRoundTrip(t *testing.T) {
	natsAvailable(t)

	cfg := config.Default()
	cfg.Servers = []string{testNATSURL}
	conn, err := DialNATS(context.Background(), &cfg, logging.Nop())
	require.NoError(t, err)
	defer conn.Close()

	got := make(chan *Msg, 1)
	sub, err := conn.Subscribe("toolbus.test.*", func(m *Msg) { got <- m })
	require.NoError(t, err)
	assert.Equal(t, "toolbus.test.*", sub.Subject())
	require.NoError(t, conn.nc.Flush())

	require.NoError(t, conn.Publish(context.Background(), &Msg{
		Subject: "toolbus.test.one",
		Header:  metadata.New(metadata.KeyMessageID, "id-1"),
		Data:    []byte(`{"type":"x"}`),
	}))

	select {
	case m := <-got:
		assert.Equal(t, "toolbus.test.one", m.Subject)
		assert.Equal(t, "id-1", m.Header[metadata.KeyMessageID])
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, sub.Drain(ctx))
	require.NoError(t, conn.Drain(ctx))
	assert.False(t, conn.IsConnected())
}
