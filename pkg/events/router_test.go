package events

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/stretchr/testify/require"

	"github.com/go-go-golems/gatecrash/pkg/dispatch"
)

type collector struct {
	mu     sync.Mutex
	events []UIEvent
}

func (c *collector) handler() func(msg *message.Message) error {
	return func(msg *message.Message) error {
		ev, err := DecodeUIEvent(msg)
		if err != nil {
			return err
		}
		c.mu.Lock()
		c.events = append(c.events, ev)
		c.mu.Unlock()
		return nil
	}
}

func (c *collector) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.events)
}

func (c *collector) snapshot() []UIEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]UIEvent(nil), c.events...)
}

func startRouter(t *testing.T, r *EventRouter) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = r.Run(ctx) }()
	select {
	case <-r.Running():
	case <-time.After(time.Second):
		t.Fatal("router did not start")
	}
}

func TestEventRouter_OrderPreservedPerHandler(t *testing.T) {
	r, err := NewEventRouter()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	col := &collector{}
	r.AddHandler("collector", Topic, col.handler())
	startRouter(t, r)
	require.True(t, r.IsRunning())

	feed := NewFeed(r.Publisher, Topic)
	const n = 25
	for i := 0; i < n; i++ {
		feed.Append(dispatch.Rendered{Kind: dispatch.KindNormal, Content: strconv.Itoa(i)})
	}

	require.Eventually(t, func() bool { return col.len() == n }, time.Second, 5*time.Millisecond)
	for i, ev := range col.snapshot() {
		require.Equal(t, strconv.Itoa(i), ev.Content)
		require.Equal(t, TypeAppend, ev.Type)
	}
}

func TestEventRouter_FanOutToAllHandlers(t *testing.T) {
	r, err := NewEventRouter(WithVerbose(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	first, second := &collector{}, &collector{}
	r.AddHandler("first", Topic, first.handler())
	r.AddHandler("second", Topic, second.handler())
	startRouter(t, r)

	feed := NewFeed(r.Publisher, Topic)
	feed.AppendStatus("Connection issue", "Retrying...")
	feed.SetInputEnabled(true)
	feed.SetSecretUnlocked(true)

	require.Eventually(t, func() bool { return first.len() == 3 && second.len() == 3 }, time.Second, 5*time.Millisecond)

	for _, col := range []*collector{first, second} {
		got := col.snapshot()
		require.Equal(t, TypeAppend, got[0].Type)
		require.Equal(t, dispatch.KindStatus, got[0].Kind)
		require.Equal(t, "Connection issue: Retrying...", got[0].Content)
		require.Equal(t, TypeGate, got[1].Type)
		require.True(t, got[1].Enabled)
		require.Equal(t, TypeSecret, got[2].Type)
		require.True(t, got[2].Unlocked)
	}
}

func TestEventRouter_GateCloseTravelsAsFalse(t *testing.T) {
	r, err := NewEventRouter()
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })

	col := &collector{}
	r.AddHandler("collector", Topic, col.handler())
	startRouter(t, r)

	feed := NewFeed(r.Publisher, Topic)
	feed.SetInputEnabled(true)
	feed.SetInputEnabled(false)

	require.Eventually(t, func() bool { return col.len() == 2 }, time.Second, 5*time.Millisecond)
	got := col.snapshot()
	require.True(t, got[0].Enabled)
	require.False(t, got[1].Enabled)
}

func TestDecodeUIEvent_Garbage(t *testing.T) {
	_, err := DecodeUIEvent(message.NewMessage("1", []byte("}{")))
	require.Error(t, err)
}
