package client

import "fmt"

// TransportError reports a failed exchange with the session service. Status
// holds the HTTP status code, or 0 when the request never produced a
// response (DNS failure, refused connection, cancelled context).
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: service returned %d", e.Op, e.Status)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// MalformedPayloadError reports a 2xx response whose body did not decode
// into the expected shape. Callers never see partial payloads.
type MalformedPayloadError struct {
	Op  string
	Err error
}

func (e *MalformedPayloadError) Error() string {
	return fmt.Sprintf("%s: undecodable response: %v", e.Op, e.Err)
}

func (e *MalformedPayloadError) Unwrap() error { return e.Err }
