package protocol

import (
	"errors"
	"fmt"

	"github.com/drblury/toolbus/internal/runtime/messages"
	"github.com/drblury/toolbus/internal/runtime/subjects"
)

// Lifecycle reports a runtime server session starting or stopping.
type Lifecycle struct {
	Event     subjects.LifecycleEvent `json:"event"`
	ServerID  string                  `json:"serverId"`
	SessionID string                  `json:"sessionId"`
	RuntimeID string                  `json:"runtimeId,omitempty"`
	Reason    string                  `json:"reason,omitempty"`
}

// Reconnect asks the runtime owning a session to re-establish it.
type Reconnect struct {
	ServerID  string `json:"serverId"`
	SessionID string `json:"sessionId"`
	Reason    string `json:"reason,omitempty"`
}

var (
	LifecycleKind = messages.NewPublish(TypeLifecycle, validateLifecycle, func(l Lifecycle) string {
		return subjects.Lifecycle(l.Event, l.ServerID, l.SessionID)
	})
	ReconnectKind = messages.NewPublish(TypeReconnect, validateReconnect, func(r Reconnect) string {
		return subjects.Lifecycle(subjects.EventReconnect, r.ServerID, r.SessionID)
	})
)

func validateLifecycle(l Lifecycle) error {
	var eventErr error
	if l.Event != subjects.EventStarted && l.Event != subjects.EventStopped {
		eventErr = fmt.Errorf("event: %q is not started or stopped", l.Event)
	}
	return errors.Join(
		eventErr,
		requiredID("serverId", l.ServerID),
		requiredID("sessionId", l.SessionID),
		optionalID("runtimeId", l.RuntimeID),
	)
}

func validateReconnect(r Reconnect) error {
	return errors.Join(
		requiredID("serverId", r.ServerID),
		requiredID("sessionId", r.SessionID),
	)
}
