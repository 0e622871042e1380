package ui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/charmbracelet/lipgloss"
	"github.com/chzyer/readline"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/gatecrash/pkg/dispatch"
	"github.com/go-go-golems/gatecrash/pkg/events"
	"github.com/go-go-golems/gatecrash/pkg/session"
	"github.com/go-go-golems/gatecrash/pkg/wire"
)

// PlainRunner drives the conversation in line mode: feed events print as
// they arrive and a readline prompt collects input while the gate is open.
// This is the fallback for terminals where the full-screen UI is disabled.
type PlainRunner struct {
	submit Submitter
	out    io.Writer
	width  int

	mu      sync.Mutex
	cond    *sync.Cond
	rl      *readline.Instance
	enabled bool
	done    bool
}

type PlainOption func(*PlainRunner)

// WithPlainWidth wraps printed entries at the given terminal width.
func WithPlainWidth(width int) PlainOption {
	return func(r *PlainRunner) { r.width = width }
}

func NewPlainRunner(submit Submitter, out io.Writer, opts ...PlainOption) *PlainRunner {
	r := &PlainRunner{submit: submit, out: out}
	r.cond = sync.NewCond(&r.mu)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HandlerFunc returns the feed handler that prints entries and tracks the
// input gate.
func (r *PlainRunner) HandlerFunc() func(msg *message.Message) error {
	return func(msg *message.Message) error {
		defer msg.Ack()

		ev, err := events.DecodeUIEvent(msg)
		if err != nil {
			log.Error().Err(err).Str("payload", string(msg.Payload)).Msg("failed to decode ui event")
			return err
		}

		switch ev.Type {
		case events.TypeAppend:
			fmt.Fprintln(r.writer(), r.renderLine(ev))
		case events.TypeGate:
			r.setEnabled(ev.Enabled)
		case events.TypeSecret:
			if ev.Unlocked {
				fmt.Fprintln(r.writer(), badgeStyle.Render("SECRET UNLOCKED"))
			}
		}
		return nil
	}
}

// Loop reads lines until the session ends, the user interrupts, or ctx is
// cancelled. It blocks between turns while the input gate is closed.
func (r *PlainRunner) Loop(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          promptStyle.Render("you> "),
		InterruptPrompt: "^C",
	})
	if err != nil {
		return errors.Wrap(err, "init readline")
	}
	r.mu.Lock()
	r.rl = rl
	r.mu.Unlock()
	defer func() { _ = rl.Close() }()

	fmt.Fprintln(rl.Stdout(), headerStyle.Render("AI Gatekeeper")+" "+helpStyle.Render("(ctrl+c quits)"))

	stop := context.AfterFunc(ctx, func() {
		r.cond.Broadcast()
		_ = rl.Close()
	})
	defer stop()

	for {
		if !r.waitForTurn(ctx) {
			return ctx.Err()
		}

		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			return nil
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return errors.Wrap(err, "read input")
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		if err := r.submit.Submit(ctx, line); err != nil {
			switch {
			case errors.Is(err, session.ErrSessionCompleted):
				return nil
			case errors.Is(err, session.ErrEmptyInput), errors.Is(err, session.ErrInputClosed):
				continue
			default:
				// The failure is already on screen as a status entry; echo
				// the line so it can be copied for another try.
				fmt.Fprintln(r.writer(), statusStyle.Render("· not sent: ")+line)
			}
		}
	}
}

// Finish tells the loop the session is over and unblocks a pending read so
// the process can exit without another keypress.
func (r *PlainRunner) Finish() {
	r.mu.Lock()
	r.done = true
	rl := r.rl
	r.mu.Unlock()
	r.cond.Broadcast()
	if rl != nil {
		_ = rl.Close()
	}
}

// waitForTurn blocks until input is allowed. False means stop reading: the
// session finished or ctx was cancelled.
func (r *PlainRunner) waitForTurn(ctx context.Context) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for !r.enabled && !r.done && ctx.Err() == nil {
		r.cond.Wait()
	}
	return r.enabled && !r.done && ctx.Err() == nil
}

func (r *PlainRunner) setEnabled(enabled bool) {
	r.mu.Lock()
	r.enabled = enabled
	r.mu.Unlock()
	r.cond.Broadcast()
}

// writer routes output through readline once it exists, which keeps prints
// from garbling the prompt line.
func (r *PlainRunner) writer() io.Writer {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.rl != nil {
		return r.rl.Stdout()
	}
	return r.out
}

func (r *PlainRunner) renderLine(ev events.UIEvent) string {
	switch ev.Kind {
	case dispatch.KindStatus:
		return r.wrap(statusStyle.Render("· " + ev.Content))
	case dispatch.KindSecret:
		return secretStyle.Render(ev.Content)
	default:
		label := RoleLabel(ev.Role)
		if label == "" {
			return r.wrap(ev.Content)
		}
		style := labelStyle
		if ev.Role == wire.RoleCandidate {
			style = youLabelStyle
		}
		return r.wrap(style.Render(label+":") + " " + ev.Content)
	}
}

func (r *PlainRunner) wrap(s string) string {
	if r.width <= 0 {
		return s
	}
	return lipgloss.NewStyle().Width(r.width).Render(s)
}
