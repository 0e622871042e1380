package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/gatecrash/pkg/dispatch"
	"github.com/go-go-golems/gatecrash/pkg/events"
	"github.com/go-go-golems/gatecrash/pkg/wire"
)

func feedMessage(t *testing.T, ev events.UIEvent) *message.Message {
	t.Helper()
	payload, err := json.Marshal(ev)
	require.NoError(t, err)
	return message.NewMessage(watermill.NewUUID(), payload)
}

func TestPlainRunner_HandlerPrintsAppends(t *testing.T) {
	var buf bytes.Buffer
	pr := NewPlainRunner(&fakeSubmitter{}, &buf)
	handle := pr.HandlerFunc()

	err := handle(feedMessage(t, events.UIEvent{
		Type: events.TypeAppend, Role: wire.RoleGatekeeper, Content: "No.", Kind: dispatch.KindNormal,
	}))
	require.NoError(t, err)
	err = handle(feedMessage(t, events.UIEvent{
		Type: events.TypeAppend, Content: "Connection issue: Retrying...", Kind: dispatch.KindStatus,
	}))
	require.NoError(t, err)

	out := buf.String()
	require.Contains(t, out, "Gatekeeper")
	require.Contains(t, out, "No.")
	require.Contains(t, out, "Connection issue: Retrying...")
}

func TestPlainRunner_GateEventsToggleTurn(t *testing.T) {
	pr := NewPlainRunner(&fakeSubmitter{}, &bytes.Buffer{})
	handle := pr.HandlerFunc()

	require.NoError(t, handle(feedMessage(t, events.UIEvent{Type: events.TypeGate, Enabled: true})))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.True(t, pr.waitForTurn(ctx))

	require.NoError(t, handle(feedMessage(t, events.UIEvent{Type: events.TypeGate, Enabled: false})))
	pr.mu.Lock()
	enabled := pr.enabled
	pr.mu.Unlock()
	require.False(t, enabled)
}

func TestPlainRunner_FinishUnblocksWait(t *testing.T) {
	pr := NewPlainRunner(&fakeSubmitter{}, &bytes.Buffer{})

	turn := make(chan bool, 1)
	go func() {
		turn <- pr.waitForTurn(context.Background())
	}()

	pr.Finish()
	select {
	case ok := <-turn:
		require.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("waitForTurn did not return after Finish")
	}
}

func TestPlainRunner_SecretBadgePrinted(t *testing.T) {
	var buf bytes.Buffer
	pr := NewPlainRunner(&fakeSubmitter{}, &buf)
	handle := pr.HandlerFunc()

	require.NoError(t, handle(feedMessage(t, events.UIEvent{Type: events.TypeSecret, Unlocked: true})))
	require.Contains(t, buf.String(), "SECRET UNLOCKED")
}
