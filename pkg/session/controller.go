package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/gatecrash/pkg/dispatch"
	"github.com/go-go-golems/gatecrash/pkg/wire"
)

const (
	// DefaultPollTimeout is the long-poll window requested from the server.
	// The service clamps requested windows to at most 30 seconds.
	DefaultPollTimeout = 20 * time.Second

	// DefaultRetryDelay is the pause after a failed poll. Failed polls are
	// retried forever at this fixed cadence while the session is live.
	DefaultRetryDelay = 3 * time.Second
)

// Phase is a session's position in its lifecycle. Transitions only move
// forward; completed is terminal.
type Phase string

const (
	PhaseNew       Phase = "new"
	PhaseStarting  Phase = "starting"
	PhaseActive    Phase = "active"
	PhaseCompleted Phase = "completed"
)

// Status lines surfaced by the controller itself, as opposed to statuses
// pushed by the server.
const (
	statusConnectionIssue = "Connection issue"
	statusRetrying        = "Retrying..."
	statusSendFailed      = "Send failed"
	statusSessionFailed   = "Session failed"
	statusRestartHint     = "Restart gatecrash to try again."
)

// Controller owns one session: its identity, completion state and input
// gate. Run drives creation and the strictly sequential poll loop on the
// caller's goroutine; Submit relays user input from the UI goroutine. Both
// mutate the gate, so gate state lives behind the controller's mutex and a
// gate enable always loses against a completed session.
type Controller struct {
	transport Transport
	renderer  Renderer
	gate      InputGate
	secrets   SecretDisplay

	pollTimeout time.Duration
	retryDelay  time.Duration

	mu             sync.Mutex
	sessionID      string
	phase          Phase
	inputEnabled   bool
	completed      bool
	secretUnlocked bool

	logger zerolog.Logger
}

type Option func(*Controller)

// WithPollTimeout changes the long-poll window requested from the server.
func WithPollTimeout(d time.Duration) Option {
	return func(c *Controller) {
		c.pollTimeout = d
	}
}

// WithRetryDelay changes the pause between failed polls.
func WithRetryDelay(d time.Duration) Option {
	return func(c *Controller) {
		c.retryDelay = d
	}
}

// WithSecretDisplay attaches an optional consumer for the secret-unlocked
// flag.
func WithSecretDisplay(sd SecretDisplay) Option {
	return func(c *Controller) {
		c.secrets = sd
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController wires a controller to its collaborators. The controller
// starts in PhaseNew with the gate closed; nothing happens until Run.
func NewController(transport Transport, renderer Renderer, gate InputGate, opts ...Option) *Controller {
	c := &Controller{
		transport:   transport,
		renderer:    renderer,
		gate:        gate,
		pollTimeout: DefaultPollTimeout,
		retryDelay:  DefaultRetryDelay,
		phase:       PhaseNew,
		logger:      log.With().Str("component", "session").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run creates the session, drains the opening event batch and polls for
// events until the session completes or ctx is cancelled. Call it exactly
// once. A creation failure is terminal: the gate stays closed and no
// second session is ever created on the user's behalf.
func (c *Controller) Run(ctx context.Context) error {
	c.setPhase(PhaseStarting)
	c.setInputEnabled(false)

	created, err := c.transport.CreateSession(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("session creation failed")
		c.failStartup()
		return errors.Wrap(err, "create session")
	}

	c.mu.Lock()
	c.sessionID = created.SessionID
	c.mu.Unlock()
	c.logger.Info().Str("session_id", created.SessionID).Msg("session created")

	c.applyEvents(created.Events)
	c.noteSecretUnlocked(created.SecretUnlocked)
	if created.Completed {
		c.complete()
		return nil
	}

	c.setPhase(PhaseActive)
	c.setInputEnabled(true)

	return c.pollLoop(ctx)
}

// pollLoop fetches event pages one at a time. The next poll is issued only
// after the previous page has been fully applied, and never once the
// session has completed. A failed poll surfaces a status line and retries
// after the fixed delay, indefinitely.
func (c *Controller) pollLoop(ctx context.Context) error {
	for {
		if c.Completed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		page, err := c.transport.FetchEvents(ctx, c.SessionID(), c.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Warn().Err(err).Str("session_id", c.SessionID()).Msg("poll failed")
			c.renderer.AppendStatus(statusConnectionIssue, statusRetrying)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.retryDelay):
			}
			continue
		}

		c.applyEvents(page.Events)
		c.noteSecretUnlocked(page.SecretUnlocked)
		if page.Completed {
			c.complete()
			return nil
		}
	}
}

// Submit relays one user message. The gate closes for the duration of the
// send and reopens afterwards on both success and failure; only completion
// keeps it closed. Blank input is rejected before any network call.
func (c *Controller) Submit(ctx context.Context, text string) error {
	content := strings.TrimSpace(text)
	if content == "" {
		return ErrEmptyInput
	}

	c.mu.Lock()
	if c.completed {
		c.mu.Unlock()
		return ErrSessionCompleted
	}
	if !c.inputEnabled {
		c.mu.Unlock()
		return ErrInputClosed
	}
	id := c.sessionID
	c.setGateLocked(false)
	c.mu.Unlock()

	err := c.transport.SendMessage(ctx, id, content)

	c.mu.Lock()
	c.setGateLocked(true)
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn().Err(err).Str("session_id", id).Msg("send failed")
		c.renderer.AppendStatus(statusSendFailed, "")
		return errors.Wrap(err, "send message")
	}
	return nil
}

// applyEvents renders one batch in arrival order, applying control signals
// as they appear. Batches are never reordered, filtered or deduplicated.
func (c *Controller) applyEvents(events []wire.Event) {
	for _, ev := range events {
		act := dispatch.Interpret(ev)
		if act.Render != nil {
			c.renderer.Append(*act.Render)
		}
		if act.EnableInput {
			c.setInputEnabled(true)
		}
	}
}

// complete marks the session finished and closes the gate for good.
// Completion is monotonic; repeated calls are no-ops.
func (c *Controller) complete() {
	c.mu.Lock()
	if c.completed {
		c.mu.Unlock()
		return
	}
	c.completed = true
	c.phase = PhaseCompleted
	c.setGateLocked(false)
	id := c.sessionID
	c.mu.Unlock()

	c.logger.Info().Str("session_id", id).Msg("session completed")
}

// failStartup marks the controller completed without a session. Creation
// is never retried; the user is told to restart instead.
func (c *Controller) failStartup() {
	c.mu.Lock()
	c.completed = true
	c.phase = PhaseCompleted
	c.setGateLocked(false)
	c.mu.Unlock()

	c.renderer.AppendStatus(statusSessionFailed, statusRestartHint)
}

// setGateLocked applies the desired gate state, forcing it closed once the
// session has completed. Callers hold c.mu.
func (c *Controller) setGateLocked(enabled bool) {
	if enabled && c.completed {
		enabled = false
	}
	c.inputEnabled = enabled
	c.gate.SetInputEnabled(enabled)
}

func (c *Controller) setInputEnabled(enabled bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setGateLocked(enabled)
}

// noteSecretUnlocked latches the secret flag. False reports are ignored so
// the flag can only ever go up.
func (c *Controller) noteSecretUnlocked(unlocked bool) {
	if !unlocked {
		return
	}
	c.mu.Lock()
	already := c.secretUnlocked
	c.secretUnlocked = true
	c.mu.Unlock()

	if already || c.secrets == nil {
		return
	}
	c.secrets.SetSecretUnlocked(true)
}

func (c *Controller) setPhase(p Phase) {
	c.mu.Lock()
	c.phase = p
	c.mu.Unlock()
	c.logger.Debug().Str("phase", string(p)).Msg("phase change")
}

// SessionID returns the server-assigned id, or "" before creation.
func (c *Controller) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

func (c *Controller) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Controller) InputEnabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inputEnabled
}

func (c *Controller) Completed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed
}

func (c *Controller) SecretUnlocked() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.secretUnlocked
}
