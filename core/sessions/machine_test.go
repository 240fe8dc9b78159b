package sessions

import (
	"errors"
	"testing"

	"github.com/coffeechat/voicecore/core/events"
)

func TestDispatchOnlyWhenActive(t *testing.T) {
	machine := NewMachine()

	received := []events.Event{}
	machine.Subscribe(func(event events.Event) {
		received = append(received, event)
	})

	machine.Dispatch(events.NewSpeechStarted("ev-idle"))
	if len(received) != 0 {
		t.Fatalf("expected no events before the session is active, got %d", len(received))
	}

	if err := machine.Transition(StateConnecting); err != nil {
		t.Fatalf("failed to transition to connecting: %v", err)
	}
	machine.Dispatch(events.NewSpeechStarted("ev-connecting"))
	if len(received) != 0 {
		t.Fatalf("expected no events while connecting, got %d", len(received))
	}

	if err := machine.Transition(StateActive); err != nil {
		t.Fatalf("failed to transition to active: %v", err)
	}
	machine.Dispatch(events.NewSpeechStarted("ev-active"))
	if len(received) != 1 {
		t.Fatalf("expected 1 event while active, got %d", len(received))
	}

	if err := machine.Transition(StateClosing); err != nil {
		t.Fatalf("failed to transition to closing: %v", err)
	}
	machine.Dispatch(events.NewSpeechStarted("ev-closing"))
	if len(received) != 1 {
		t.Fatalf("expected events after close to be dropped, got %d", len(received))
	}
}

func TestDispatchPreservesArrivalOrder(t *testing.T) {
	machine := NewMachine()

	order := []events.Kind{}
	machine.Subscribe(func(event events.Event) {
		order = append(order, event.Kind())
	})

	if err := machine.Transition(StateConnecting); err != nil {
		t.Fatalf("failed to transition to connecting: %v", err)
	}
	if err := machine.Transition(StateActive); err != nil {
		t.Fatalf("failed to transition to active: %v", err)
	}

	machine.Dispatch(events.NewTranscriptionCompleted("ev-1", "a"))
	machine.Dispatch(events.NewResponseDone("ev-2", []events.OutputItem{
		{Content: []events.ContentPart{{Transcript: "b"}}},
	}))
	machine.Dispatch(events.NewTranscriptionCompleted("ev-3", "c"))

	want := []events.Kind{
		events.KindTranscriptionCompleted,
		events.KindResponseDone,
		events.KindTranscriptionCompleted,
	}
	if len(order) != len(want) {
		t.Fatalf("expected %d events, got %d", len(want), len(order))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("expected event %d to be %q, got %q", i, want[i], order[i])
		}
	}
}

func TestFailDeliversExactlyOneError(t *testing.T) {
	machine := NewMachine()

	errorsSeen := 0
	machine.Subscribe(func(event events.Event) {
		if _, ok := event.(events.Error); ok {
			errorsSeen++
		}
	})

	if err := machine.Transition(StateConnecting); err != nil {
		t.Fatalf("failed to transition to connecting: %v", err)
	}
	if err := machine.Transition(StateActive); err != nil {
		t.Fatalf("failed to transition to active: %v", err)
	}

	machine.Fail(errors.New("transport reset"))
	machine.Fail(errors.New("transport reset again"))

	if errorsSeen != 1 {
		t.Fatalf("expected exactly one error event, got %d", errorsSeen)
	}
	if machine.State() != StateFailed {
		t.Fatalf("expected failed state, got %q", machine.State())
	}
}

func TestFailBeforeActiveEmitsNoEvents(t *testing.T) {
	machine := NewMachine()

	received := []events.Event{}
	machine.Subscribe(func(event events.Event) {
		received = append(received, event)
	})

	if err := machine.Transition(StateConnecting); err != nil {
		t.Fatalf("failed to transition to connecting: %v", err)
	}
	machine.Fail(errors.New("dial refused"))

	// Startup failures reach the caller through the error return; the
	// subscriber must see nothing for a session that never activated.
	if len(received) != 0 {
		t.Fatalf("expected no events for a failure before activation, got %d", len(received))
	}
	if machine.State() != StateFailed {
		t.Fatalf("expected failed state, got %q", machine.State())
	}
}

func TestFailAfterCloseIsIgnored(t *testing.T) {
	machine := NewMachine()

	errorsSeen := 0
	machine.Subscribe(func(event events.Event) {
		if _, ok := event.(events.Error); ok {
			errorsSeen++
		}
	})

	for _, state := range []State{StateConnecting, StateActive, StateClosing, StateClosed} {
		if err := machine.Transition(state); err != nil {
			t.Fatalf("failed to transition to %q: %v", state, err)
		}
	}

	machine.Fail(errors.New("read after close"))

	if errorsSeen != 0 {
		t.Fatalf("expected no error events after a clean close, got %d", errorsSeen)
	}
	if machine.State() != StateClosed {
		t.Fatalf("expected closed state, got %q", machine.State())
	}
}

func TestTerminalStatesRejectTransitions(t *testing.T) {
	tests := []struct {
		name string
		from State
		to   State
	}{
		{"closed to connecting", StateClosed, StateConnecting},
		{"failed to active", StateFailed, StateActive},
		{"idle to active", StateIdle, StateActive},
		{"active to connecting", StateActive, StateConnecting},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if legalTransition(tt.from, tt.to) {
				t.Fatalf("expected transition %q to %q to be illegal", tt.from, tt.to)
			}
		})
	}
}
