// Package events carries interpreted session output from the controller to
// the attached consumers (TUI forwarder, line printer, transcript writer)
// over an in-process watermill router.
package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Topic is the single stream all UI events travel on. One process drives
// one session, so there is no per-session topic fan-out.
const Topic = "ui"

// EventRouter fans UI events out to however many handlers are attached.
// Handlers must be registered before Run; each handler sees events in
// publish order because publishing blocks until every subscriber has acked
// the previous message.
type EventRouter struct {
	Publisher message.Publisher

	pubsub  *gochannel.GoChannel
	router  *message.Router
	verbose bool
}

type EventRouterOption func(*EventRouter)

// WithVerbose forces debug-level logging for the router internals.
func WithVerbose(verbose bool) EventRouterOption {
	return func(r *EventRouter) {
		r.verbose = verbose
	}
}

func NewEventRouter(opts ...EventRouterOption) (*EventRouter, error) {
	r := &EventRouter{}
	for _, opt := range opts {
		opt(r)
	}

	wlog := log.With().Str("component", "events").Logger()
	if r.verbose {
		wlog = wlog.Level(zerolog.DebugLevel)
	}
	logger := NewWatermillLogger(wlog)

	r.pubsub = gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            64,
		BlockPublishUntilSubscriberAck: true,
	}, logger)
	r.Publisher = r.pubsub

	router, err := message.NewRouter(message.RouterConfig{}, logger)
	if err != nil {
		return nil, errors.Wrap(err, "create message router")
	}
	r.router = router

	return r, nil
}

// AddHandler attaches a consumer to a topic. Call before Run.
func (r *EventRouter) AddHandler(name, topic string, f func(msg *message.Message) error) {
	r.router.AddNoPublisherHandler(name, topic, r.pubsub, f)
}

// Run blocks until ctx is cancelled or the router is closed.
func (r *EventRouter) Run(ctx context.Context) error {
	return r.router.Run(ctx)
}

// Running closes once all handlers are subscribed and events may be
// published without loss.
func (r *EventRouter) Running() <-chan struct{} {
	return r.router.Running()
}

func (r *EventRouter) IsRunning() bool {
	return r.router.IsRunning()
}

func (r *EventRouter) Close() error {
	var firstErr error
	if err := r.router.Close(); err != nil {
		firstErr = err
	}
	if err := r.pubsub.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
