package transcript

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

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

func TestWriter_RecordsConversation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.md")
	w, err := New(path)
	require.NoError(t, err)
	handle := w.HandlerFunc()

	require.NoError(t, handle(feedMessage(t, events.UIEvent{
		Type: events.TypeAppend, Role: wire.RoleGreeter, Content: "Welcome to the gate.", Kind: dispatch.KindNormal,
	})))
	require.NoError(t, handle(feedMessage(t, events.UIEvent{
		Type: events.TypeAppend, Content: "Connection issue: Retrying...", Kind: dispatch.KindStatus,
	})))
	require.NoError(t, handle(feedMessage(t, events.UIEvent{
		Type: events.TypeAppend, Role: wire.RoleSystem, Content: "Secret Code: XYZZY", Kind: dispatch.KindSecret,
	})))
	require.NoError(t, w.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(raw)
	require.Contains(t, text, "## Session ")
	require.Contains(t, text, "**AI Agent:** Welcome to the gate.")
	require.Contains(t, text, "*Connection issue: Retrying...*")
	require.Contains(t, text, "> Secret Code: XYZZY")
}

func TestWriter_IgnoresGateAndSecretSignals(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.md")
	w, err := New(path)
	require.NoError(t, err)
	handle := w.HandlerFunc()

	require.NoError(t, handle(feedMessage(t, events.UIEvent{Type: events.TypeGate, Enabled: true})))
	require.NoError(t, handle(feedMessage(t, events.UIEvent{Type: events.TypeSecret, Unlocked: true})))
	require.NoError(t, w.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.NotContains(t, string(raw), "true")
}

func TestWriter_AppendsAcrossSessions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.md")

	w1, err := New(path)
	require.NoError(t, err)
	require.NoError(t, w1.HandlerFunc()(feedMessage(t, events.UIEvent{
		Type: events.TypeAppend, Role: wire.RoleGatekeeper, Content: "No.", Kind: dispatch.KindNormal,
	})))
	require.NoError(t, w1.Close())

	w2, err := New(path)
	require.NoError(t, err)
	require.NoError(t, w2.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, strings.Count(string(raw), "## Session "))
	require.Contains(t, string(raw), "**Gatekeeper:** No.")
}

func TestNew_BadPath(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing", "session.md"))
	require.Error(t, err)
}
