// Package sessions defines the capability surface a voice session backend
// must provide, together with the lifecycle state machine both backend
// adapters embed. Subscribers registered before the session starts receive
// every dispatched event exactly once, in arrival order.
package sessions

import (
	"context"

	"github.com/coffeechat/voicecore/core/audio"
	"github.com/coffeechat/voicecore/core/events"
	"github.com/coffeechat/voicecore/core/llms"
)

// State names a point in the session lifecycle. Closed and Failed are
// terminal; a machine never leaves them.
type State string

const (
	StateIdle       State = "idle"
	StateConnecting State = "connecting"
	StateActive     State = "active"
	StateClosing    State = "closing"
	StateClosed     State = "closed"
	StateFailed     State = "failed"
)

// Terminal reports whether the state admits no further transitions.
func (s State) Terminal() bool {
	return s == StateClosed || s == StateFailed
}

// Config carries everything a backend needs to open a session.
type Config struct {
	SampleRate           int
	TranscriptionEnabled bool
	Instructions         string
	Tools                []llms.Tool
}

// Session is the capability surface shared by every backend adapter.
// Subscribe must be called before StartSession; registrations after the
// session is active are not guaranteed to observe earlier events.
type Session interface {
	StartSession(ctx context.Context, config Config) error
	SendAudio(frame audio.Frame) error
	ClearInputBuffer() error
	StopSession() error
	Subscribe(func(events.Event))
	State() State
}
