package events

import (
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/gatecrash/pkg/dispatch"
	"github.com/go-go-golems/gatecrash/pkg/session"
)

// UI event envelope types.
const (
	TypeAppend = "append"
	TypeGate   = "gate"
	TypeSecret = "secret"
)

// UIEvent is the envelope crossing the router: one conversation entry, an
// input-gate change, or the secret flag. Type decides which fields matter.
type UIEvent struct {
	Type     string        `json:"type"`
	Role     string        `json:"role,omitempty"`
	Content  string        `json:"content,omitempty"`
	Kind     dispatch.Kind `json:"kind,omitempty"`
	Enabled  bool          `json:"enabled,omitempty"`
	Unlocked bool          `json:"unlocked,omitempty"`
}

// DecodeUIEvent is the single decode point for feed handlers.
func DecodeUIEvent(msg *message.Message) (UIEvent, error) {
	var ev UIEvent
	if err := json.Unmarshal(msg.Payload, &ev); err != nil {
		return UIEvent{}, errors.Wrap(err, "decode ui event")
	}
	return ev, nil
}

// Feed publishes controller output as UI events. It stands in for the
// renderer on the controller side so any number of real consumers can
// subscribe behind the router.
type Feed struct {
	publisher message.Publisher
	topic     string
	logger    zerolog.Logger
}

var _ session.Renderer = (*Feed)(nil)
var _ session.InputGate = (*Feed)(nil)
var _ session.SecretDisplay = (*Feed)(nil)

func NewFeed(publisher message.Publisher, topic string) *Feed {
	return &Feed{
		publisher: publisher,
		topic:     topic,
		logger:    log.With().Str("component", "feed").Logger(),
	}
}

func (f *Feed) Append(m dispatch.Rendered) {
	f.publish(UIEvent{Type: TypeAppend, Role: m.Role, Content: m.Content, Kind: m.Kind})
}

func (f *Feed) AppendStatus(status, details string) {
	f.publish(UIEvent{Type: TypeAppend, Kind: dispatch.KindStatus, Content: dispatch.StatusText(status, details)})
}

func (f *Feed) SetInputEnabled(enabled bool) {
	f.publish(UIEvent{Type: TypeGate, Enabled: enabled})
}

func (f *Feed) SetSecretUnlocked(unlocked bool) {
	f.publish(UIEvent{Type: TypeSecret, Unlocked: unlocked})
}

func (f *Feed) publish(ev UIEvent) {
	payload, err := json.Marshal(ev)
	if err != nil {
		f.logger.Error().Err(err).Msg("failed to marshal ui event")
		return
	}
	if err := f.publisher.Publish(f.topic, message.NewMessage(watermill.NewUUID(), payload)); err != nil {
		f.logger.Error().Err(err).Str("type", ev.Type).Msg("failed to publish ui event")
	}
}
