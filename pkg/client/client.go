package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/gatecrash/pkg/wire"
)

const userAgent = "gatecrash"

// Client talks to the gatekeeper session API over HTTP. It performs no
// retries and imposes no request deadlines of its own: event polls are held
// open by the server for up to the requested window, so the only local way
// to abort a request is cancelling its context.
type Client struct {
	baseURL    string
	httpClient *http.Client
	runID      string
	logger     zerolog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The replacement must
// not carry a Timeout shorter than the poll window or long polls will be cut
// off mid-wait.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a client for the service at baseURL. Request paths are joined
// as baseURL + "/api/...", so baseURL must not end in a slash (trailing
// slashes are trimmed).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{},
		runID:      uuid.NewString(),
		logger:     log.With().Str("component", "client").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// CreateSession starts a fresh session. The response carries the opening
// event batch alongside the assigned session id.
func (c *Client) CreateSession(ctx context.Context) (wire.SessionCreated, error) {
	var out wire.SessionCreated
	if err := c.doJSON(ctx, "create session", http.MethodPost, c.baseURL+"/api/session", nil, &out); err != nil {
		return wire.SessionCreated{}, err
	}
	return out, nil
}

// FetchEvents long-polls for the next batch of events. The server holds the
// request open for up to the given window; an empty batch is a normal
// response, not an error.
func (c *Client) FetchEvents(ctx context.Context, sessionID string, timeout time.Duration) (wire.EventsPage, error) {
	seconds := int(timeout / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	u := c.baseURL + "/api/session/" + url.PathEscape(sessionID) + "/events?timeout=" + strconv.Itoa(seconds)

	var out wire.EventsPage
	if err := c.doJSON(ctx, "fetch events", http.MethodGet, u, nil, &out); err != nil {
		return wire.EventsPage{}, err
	}
	return out, nil
}

// SendMessage posts one user message to the session. Only the HTTP status
// decides the outcome; the acknowledgement body is discarded.
func (c *Client) SendMessage(ctx context.Context, sessionID, content string) error {
	u := c.baseURL + "/api/session/" + url.PathEscape(sessionID) + "/message"
	return c.doJSON(ctx, "send message", http.MethodPost, u, wire.MessageRequest{Content: content}, nil)
}

// doJSON runs one exchange: marshal in (when non-nil), check the status,
// decode into out (when non-nil). Failures map to *TransportError or
// *MalformedPayloadError so callers can tell a broken connection from a
// broken payload.
func (c *Client) doJSON(ctx context.Context, op, method, u string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return &TransportError{Op: op, Err: err}
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Gatecrash-Run", c.runID)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().Str("op", op).Str("method", method).Str("url", u).Msg("request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Op: op, Err: err}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransportError{Op: op, Status: resp.StatusCode}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &MalformedPayloadError{Op: op, Err: err}
	}
	return nil
}
