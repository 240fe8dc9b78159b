package events

const (
	// KindSessionConfigured identifies the handshake acknowledgment.
	KindSessionConfigured Kind = "session.configured"
)

// SessionConfigured acknowledges the configuration handshake. Adapters
// consume it to transition to the active state; it is never dispatched to
// subscribers because dispatch only opens once the session is active.
type SessionConfigured struct {
	Base
	EventID string
}

// NewSessionConfigured creates a handshake acknowledgment event.
func NewSessionConfigured(eventID string) SessionConfigured {
	return SessionConfigured{Base: NewBase(KindSessionConfigured), EventID: eventID}
}
