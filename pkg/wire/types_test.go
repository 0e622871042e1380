package wire

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventDecodeTolerant(t *testing.T) {
	payload := `{"type":"teleport","role":"wizard","mana":42,"content":"whoosh"}`

	var ev Event
	require.NoError(t, json.Unmarshal([]byte(payload), &ev))
	assert.Equal(t, "teleport", ev.Type)
	assert.Equal(t, "whoosh", ev.Content)
	assert.Empty(t, ev.Status)
}

func TestEventsPageDecodeWithoutEvents(t *testing.T) {
	var page EventsPage
	require.NoError(t, json.Unmarshal([]byte(`{"completed":true,"secret_unlocked":false}`), &page))
	assert.True(t, page.Completed)
	assert.Empty(t, page.Events)
}
