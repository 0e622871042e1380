// Package dispatch turns raw server events into display actions. It is the
// single place that knows which event types exist and what each one means
// for the conversation view and the input gate.
package dispatch

import (
	"github.com/go-go-golems/gatecrash/pkg/wire"
)

// Kind classifies how a rendered entry is displayed.
type Kind string

const (
	KindNormal Kind = "normal"
	KindSecret Kind = "secret"
	KindStatus Kind = "status"
)

// Rendered is the display-only projection of a server event: who said it,
// what to show, how to style it. The core keeps no history of these; they
// are handed to the renderer exactly once, in arrival order.
type Rendered struct {
	Role    string
	Content string
	Kind    Kind
}

// Action is the outcome of interpreting one event: at most one entry to
// render and at most one control signal. The zero Action means "ignore".
type Action struct {
	Render      *Rendered
	EnableInput bool
}

// StatusText joins a status and its optional details into the line shown to
// the user.
func StatusText(status, details string) string {
	if details == "" {
		return status
	}
	return status + ": " + details
}

// Interpret maps one server event to its action. Each event matches at most
// one rule; events matching none produce the zero Action, never an error, so
// event types added by newer servers pass through silently.
func Interpret(ev wire.Event) Action {
	switch ev.Type {
	case wire.TypeMessage:
		return Action{Render: &Rendered{Role: ev.Role, Content: ev.Content, Kind: KindNormal}}
	case wire.TypeSecret:
		return Action{Render: &Rendered{Role: ev.Role, Content: ev.Content, Kind: KindSecret}}
	case wire.TypeStatus:
		if ev.Status == "" {
			return Action{}
		}
		return Action{Render: &Rendered{Kind: KindStatus, Content: StatusText(ev.Status, ev.Details)}}
	case wire.TypeInputRequired:
		return Action{EnableInput: true}
	case wire.TypeEvent:
		if ev.Content == "" {
			return Action{}
		}
		return Action{Render: &Rendered{Role: ev.Role, Content: ev.Content, Kind: KindNormal}}
	}
	return Action{}
}
