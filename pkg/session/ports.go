package session

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/go-go-golems/gatecrash/pkg/dispatch"
	"github.com/go-go-golems/gatecrash/pkg/wire"
)

// Transport is the slice of the session API the controller drives. All
// methods block until the exchange finishes or ctx is cancelled.
type Transport interface {
	CreateSession(ctx context.Context) (wire.SessionCreated, error)
	FetchEvents(ctx context.Context, sessionID string, timeout time.Duration) (wire.EventsPage, error)
	SendMessage(ctx context.Context, sessionID, content string) error
}

// Renderer displays conversation entries. Append order is display order;
// implementations keep the view scrolled to the latest entry.
type Renderer interface {
	Append(m dispatch.Rendered)
	AppendStatus(status, details string)
}

// InputGate reflects whether the user may type. Calls are idempotent and
// the last one wins.
type InputGate interface {
	SetInputEnabled(enabled bool)
}

// SecretDisplay is an optional renderer capability for the service's
// secret-unlocked flag. The controller only ever reports true, once.
type SecretDisplay interface {
	SetSecretUnlocked(unlocked bool)
}

var (
	// ErrEmptyInput rejects a blank or whitespace-only submission. Nothing
	// is sent over the network.
	ErrEmptyInput = errors.New("nothing to send")

	// ErrSessionCompleted rejects submissions after the session ended.
	ErrSessionCompleted = errors.New("session already completed")

	// ErrInputClosed rejects submissions while the input gate is closed.
	ErrInputClosed = errors.New("input is not enabled")
)
