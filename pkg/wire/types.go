package wire

// Event types pushed by the gatekeeper service. The interpreter ignores
// anything not listed here so newer servers can add types without breaking
// older clients.
const (
	TypeMessage       = "message"
	TypeSecret        = "secret"
	TypeStatus        = "status"
	TypeInputRequired = "input_required"
	TypeEvent         = "event"
)

// Roles the service attaches to message events.
const (
	RoleGreeter    = "greeting_assistant"
	RoleGatekeeper = "unhelpful_assistant"
	RoleCandidate  = "Candidate"
	RoleSystem     = "system"
)

// Event is a single server-pushed item. Which fields are populated depends
// on Type; extra fields and unknown types must decode without error.
type Event struct {
	Type    string `json:"type"`
	Role    string `json:"role,omitempty"`
	Content string `json:"content,omitempty"`
	Status  string `json:"status,omitempty"`
	Details string `json:"details,omitempty"`
}

// SessionCreated is the response to POST /api/session. Events carries the
// opening batch (greeting, initial status) that precedes the first poll.
type SessionCreated struct {
	SessionID      string  `json:"session_id"`
	Events         []Event `json:"events"`
	Completed      bool    `json:"completed"`
	SecretUnlocked bool    `json:"secret_unlocked"`
}

// EventsPage is the response to GET /api/session/{id}/events.
type EventsPage struct {
	Events         []Event `json:"events"`
	Completed      bool    `json:"completed"`
	SecretUnlocked bool    `json:"secret_unlocked"`
}

// MessageRequest is the body of POST /api/session/{id}/message.
type MessageRequest struct {
	Content string `json:"content"`
}

// SendAck is the body answering a message post. Only the HTTP status code
// decides success; the body is informational.
type SendAck struct {
	Status string `json:"status"`
}
