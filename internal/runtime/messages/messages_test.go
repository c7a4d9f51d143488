package messages

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errspkg "github.com/drblury/toolbus/internal/runtime/errors"
	"github.com/drblury/toolbus/internal/runtime/metadata"
)

type ping struct {
	Tenant string `json:"tenant"`
	Target string `json:"target"`
	Count  int    `json:"count"`
}

type pong struct {
	Echo string `json:"echo"`
}

func validatePing(p ping) error {
	if p.Target == "" {
		return errors.New("target is required")
	}
	return nil
}

var (
	pingKind = NewRequest("ping", validatePing, func(p ping) string { return p.Tenant + ".ping." + p.Target })
	pongKind = NewResponse("pong", func(p pong) error { return nil })
	noteKind = NewPublish("note", func(p ping) error { return nil }, func(p ping) string { return p.Target })
)

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, err := NewRegistry(pingKind, pongKind, noteKind)
	require.NoError(t, err)
	return r
}

func TestCreateDerivesSubjectAndID(t *testing.T) {
	m, err := pingKind.Create(ping{Tenant: "ws1", Target: "rt-1", Count: 3})
	require.NoError(t, err)

	assert.Equal(t, "ping", m.Type())
	assert.Equal(t, Request, m.Class())
	assert.Equal(t, "ws1.ping.rt-1", m.Subject())
	assert.Len(t, m.ID(), 26)
	assert.Equal(t, 3, m.Payload().Count)
	assert.False(t, m.ShouldRespond(), "outbound requests carry no reply address")
}

func TestCreateRejectsInvalidPayload(t *testing.T) {
	_, err := pingKind.Create(ping{Tenant: "ws1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errspkg.ErrValidation)

	var verr *errspkg.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "ping", verr.Type)
}

func TestCreateRejectsUnusableSubject(t *testing.T) {
	_, err := pingKind.Create(ping{Tenant: "", Target: "rt-1"})
	assert.ErrorIs(t, err, errspkg.ErrValidation)
}

func TestResponseHasNoSubject(t *testing.T) {
	m, err := pongKind.Create(pong{Echo: "x"})
	require.NoError(t, err)
	assert.Empty(t, m.Subject())
	assert.Equal(t, Response, m.Class())
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	r := newTestRegistry(t)
	original := pingKind.MustCreate(ping{Tenant: "ws1", Target: "rt-1", Count: 7})

	raw, err := Encode(original)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"ping","subject":"ws1.ping.rt-1","tenant":"ws1","target":"rt-1","count":7}`, string(raw))

	env, err := r.Decode(raw)
	require.NoError(t, err)

	decoded, ok := As[ping](env)
	require.True(t, ok)
	assert.Equal(t, original.Type(), decoded.Type())
	assert.Equal(t, original.Subject(), decoded.Subject())
	assert.Equal(t, original.Payload(), decoded.Payload())
}

func TestDecodeDerivesSubjectWhenAbsent(t *testing.T) {
	r := newTestRegistry(t)
	env, err := r.Decode([]byte(`{"type":"ping","tenant":"ws2","target":"rt-4"}`))
	require.NoError(t, err)
	assert.Equal(t, "ws2.ping.rt-4", env.Subject())
}

func TestDecodeErrors(t *testing.T) {
	r := newTestRegistry(t)

	tests := []struct {
		name     string
		raw      string
		sentinel error
	}{
		{"malformed json", `{"type":`, errspkg.ErrMalformedMessage},
		{"not an object", `[1,2,3]`, errspkg.ErrMalformedMessage},
		{"missing tag", `{"target":"rt"}`, errspkg.ErrUnknownType},
		{"unregistered tag", `{"type":"bogus"}`, errspkg.ErrUnknownType},
		{"predicate fails", `{"type":"ping","tenant":"ws1"}`, errspkg.ErrValidation},
		{"field type mismatch", `{"type":"ping","target":"rt","count":"many"}`, errspkg.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := r.Decode([]byte(tt.raw))
			assert.Nil(t, env)
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}
}

func TestEncodeRejectsReservedPayloadFields(t *testing.T) {
	type clashing struct {
		Type string `json:"type"`
	}
	kind := NewPublish("clash", nil, func(clashing) string { return "clash" })
	_, err := Encode(kind.MustCreate(clashing{Type: "x"}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `reserved field "type"`)
}

func TestRegistryRegisterIsLastWriteWins(t *testing.T) {
	r := newTestRegistry(t)
	replacement := NewPublish("ping", func(p pong) error { return nil }, func(pong) string { return "replaced" })

	r.Register(replacement)
	env, err := r.Decode([]byte(`{"type":"ping","echo":"hi"}`))
	require.NoError(t, err)

	m, ok := As[pong](env)
	require.True(t, ok)
	assert.Equal(t, Publish, m.Class())
	assert.Equal(t, "hi", m.Payload().Echo)
}

func TestRegistryUnregister(t *testing.T) {
	r := newTestRegistry(t)
	before, err := r.Decode([]byte(`{"type":"note","target":"a"}`))
	require.NoError(t, err)

	r.Unregister(noteKind)

	_, err = r.Decode([]byte(`{"type":"note","target":"a"}`))
	assert.ErrorIs(t, err, errspkg.ErrUnknownType)
	assert.Equal(t, "a", before.Subject(), "already decoded envelopes stay usable")
	assert.Equal(t, []string{"ping", "pong"}, r.Types())
}

func TestNewRegistryRejectsDuplicates(t *testing.T) {
	_, err := NewRegistry(pingKind, NewPublish("ping", func(ping) error { return nil }, func(ping) string { return "x" }))
	assert.ErrorIs(t, err, errspkg.ErrDuplicateType)

	assert.Panics(t, func() { MustNewRegistry(pingKind, pingKind) })
}

func TestNewRegistryRejectsNilKinds(t *testing.T) {
	_, err := NewRegistry(pingKind, nil)
	assert.ErrorIs(t, err, errspkg.ErrDefinitionRequired)
	assert.Contains(t, err.Error(), "kind 1 is nil")
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := newTestRegistry(t)
	raw, err := Encode(noteKind.MustCreate(ping{Target: "a"}))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = r.Decode(raw)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r.Register(noteKind)
			}
		}()
	}
	wg.Wait()
}

type recordingReplier struct {
	replyTo string
	resp    Envelope
}

func (r *recordingReplier) Reply(_ context.Context, replyTo string, resp Envelope) error {
	r.replyTo = replyTo
	r.resp = resp
	return nil
}

func TestRespondUsesDeliveryReplyAddress(t *testing.T) {
	r := newTestRegistry(t)
	replier := &recordingReplier{}
	raw, err := Encode(pingKind.MustCreate(ping{Tenant: "ws1", Target: "rt-1"}))
	require.NoError(t, err)

	env, err := r.DecodeDelivery(raw, Delivery{
		Subject: "ws1.ping.rt-1",
		Reply:   "_INBOX.abc",
		Header:  metadata.New(metadata.KeyMessageID, "01HZZZZZZZZZZZZZZZZZZZZZZZ"),
		Replier: replier,
	})
	require.NoError(t, err)
	require.True(t, env.ShouldRespond())
	assert.Equal(t, "01HZZZZZZZZZZZZZZZZZZZZZZZ", env.ID())

	req, _ := As[ping](env)
	assert.Equal(t, "_INBOX.abc", req.ReplyTo())

	resp := pongKind.MustCreate(pong{Echo: "ok"})
	require.NoError(t, req.Respond(context.Background(), resp))
	assert.Equal(t, "_INBOX.abc", replier.replyTo)
	assert.Same(t, resp, replier.resp)
}

func TestRespondGuards(t *testing.T) {
	outbound := pingKind.MustCreate(ping{Tenant: "ws1", Target: "rt-1"})
	err := outbound.Respond(context.Background(), pongKind.MustCreate(pong{}))
	assert.ErrorIs(t, err, errspkg.ErrNoReplyAddress)

	r := newTestRegistry(t)
	raw, _ := Encode(outbound)
	env, err := r.DecodeDelivery(raw, Delivery{Reply: "_INBOX.x", Replier: &recordingReplier{}})
	require.NoError(t, err)
	req, _ := As[ping](env)

	err = req.Respond(context.Background(), noteKind.MustCreate(ping{Target: "a"}))
	assert.ErrorIs(t, err, errspkg.ErrNotResponse)
	assert.ErrorIs(t, req.Respond(context.Background(), nil), errspkg.ErrNotResponse)
}

func TestPublishKindsNeverRespond(t *testing.T) {
	r := newTestRegistry(t)
	raw, _ := Encode(noteKind.MustCreate(ping{Target: "a"}))
	env, err := r.DecodeDelivery(raw, Delivery{Reply: "_INBOX.x", Replier: &recordingReplier{}})
	require.NoError(t, err)
	assert.False(t, env.ShouldRespond())
}

func TestDefinitionConstructorsPanicOnMisuse(t *testing.T) {
	assert.Panics(t, func() { NewPublish[ping]("", nil, func(ping) string { return "x" }) })
	assert.Panics(t, func() { NewRequest[ping]("req", nil, nil) })
}

func TestClassString(t *testing.T) {
	assert.Equal(t, "publish", Publish.String())
	assert.Equal(t, "request", Request.String())
	assert.Equal(t, "response", Response.String())
	assert.Equal(t, "unknown", Class(0).String())
}
