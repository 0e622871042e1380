package ui

import (
	"github.com/ThreeDotsLabs/watermill/message"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/gatecrash/pkg/dispatch"
	"github.com/go-go-golems/gatecrash/pkg/events"
)

// Messages injected into the Bubble Tea program by the feed forwarder and
// the process wiring.
type (
	// AppendMsg adds one entry to the conversation view.
	AppendMsg struct{ Entry dispatch.Rendered }
	// GateMsg opens or closes the input box.
	GateMsg struct{ Enabled bool }
	// SecretMsg flips the secret-unlocked badge.
	SecretMsg struct{ Unlocked bool }
	// SessionDoneMsg reports that the session loop has returned.
	SessionDoneMsg struct{ Err error }
)

// ForwardFunc bridges feed events into the Bubble Tea program by turning
// each envelope into its tea.Msg. The message is acked only after the
// program has accepted it, which keeps delivery order intact end to end.
func ForwardFunc(p *tea.Program) func(msg *message.Message) error {
	return func(msg *message.Message) error {
		defer msg.Ack()

		ev, err := events.DecodeUIEvent(msg)
		if err != nil {
			log.Error().Err(err).Str("payload", string(msg.Payload)).Msg("failed to decode ui event")
			return err
		}

		switch ev.Type {
		case events.TypeAppend:
			p.Send(AppendMsg{Entry: dispatch.Rendered{Role: ev.Role, Content: ev.Content, Kind: ev.Kind}})
		case events.TypeGate:
			p.Send(GateMsg{Enabled: ev.Enabled})
		case events.TypeSecret:
			p.Send(SecretMsg{Unlocked: ev.Unlocked})
		}
		return nil
	}
}
