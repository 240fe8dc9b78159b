package events

const (
	// KindError identifies a diagnostic surfaced by the backend or the codec.
	KindError Kind = "error"
	// KindUnhandled identifies a wire kind this build does not understand.
	KindUnhandled Kind = "unhandled"
)

// Error carries a diagnostic message. Protocol-level errors leave the
// session active; transport-level ones are dispatched once before the
// session reaches its terminal state.
type Error struct {
	Base
	EventID string
	Message string
}

// NewError creates an error event.
func NewError(eventID, message string) Error {
	return Error{Base: NewBase(KindError), EventID: eventID, Message: message}
}

// Unhandled wraps an unknown wire message kind. It is informational only.
type Unhandled struct {
	Base
	WireType string
}

// NewUnhandled creates an unhandled event for an unknown wire kind.
func NewUnhandled(wireType string) Unhandled {
	return Unhandled{Base: NewBase(KindUnhandled), WireType: wireType}
}
