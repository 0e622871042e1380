// Package transcript records the conversation to a Markdown file as it
// happens. The writer subscribes to the same feed topic as the screens, so
// the file sees entries in exactly the order they were shown.
package transcript

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/gatecrash/pkg/dispatch"
	"github.com/go-go-golems/gatecrash/pkg/events"
	"github.com/go-go-golems/gatecrash/pkg/ui"
)

// Writer appends feed entries to a Markdown transcript. Sessions append to
// the same file, separated by a timestamped heading.
type Writer struct {
	mu     sync.Mutex
	f      *os.File
	logger zerolog.Logger
}

// New opens (or creates) the transcript at path and writes the session
// heading. The file may hold the secret once it is revealed, hence 0600.
func New(path string) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, errors.Wrapf(err, "open transcript %s", path)
	}

	w := &Writer{
		f:      f,
		logger: log.With().Str("component", "transcript").Logger(),
	}
	if err := w.write(fmt.Sprintf("## Session %s\n\n", time.Now().Format(time.RFC3339))); err != nil {
		_ = f.Close()
		return nil, err
	}
	w.logger.Debug().Str("path", path).Msg("transcript opened")
	return w, nil
}

// HandlerFunc returns the feed handler. Only conversation entries are
// recorded; gate and secret notifications are screen state, not transcript
// material.
func (w *Writer) HandlerFunc() func(msg *message.Message) error {
	return func(msg *message.Message) error {
		defer msg.Ack()

		ev, err := events.DecodeUIEvent(msg)
		if err != nil {
			w.logger.Error().Err(err).Str("payload", string(msg.Payload)).Msg("failed to decode ui event")
			return err
		}
		if ev.Type != events.TypeAppend {
			return nil
		}
		return w.append(ev)
	}
}

func (w *Writer) append(ev events.UIEvent) error {
	switch ev.Kind {
	case dispatch.KindStatus:
		return w.write(fmt.Sprintf("*%s*\n\n", ev.Content))
	case dispatch.KindSecret:
		return w.write(fmt.Sprintf("> %s\n\n", strings.ReplaceAll(ev.Content, "\n", "\n> ")))
	default:
		label := ui.RoleLabel(ev.Role)
		if label == "" {
			return w.write(ev.Content + "\n\n")
		}
		return w.write(fmt.Sprintf("**%s:** %s\n\n", label, ev.Content))
	}
}

func (w *Writer) write(s string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.f.WriteString(s); err != nil {
		return errors.Wrap(err, "write transcript")
	}
	return nil
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}
