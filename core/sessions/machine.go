package sessions

import (
	"fmt"
	"sync"

	"github.com/coffeechat/voicecore/core/events"
)

// Machine tracks session lifecycle state and fans dispatched events out to
// subscribers. Adapters embed it and drive transitions from their transport
// loops. Delivery is synchronous: Dispatch returns only after every
// subscriber has seen the event, and concurrent dispatchers are serialized
// so subscribers observe a single total order.
type Machine struct {
	mu        sync.Mutex
	state     State
	wasActive bool

	dispatchMu  sync.Mutex
	subscribers []func(events.Event)
}

func NewMachine() *Machine {
	return &Machine{state: StateIdle}
}

// Subscribe registers a callback for every event dispatched while the
// session is active, plus the single Error event a failure of an active
// session produces.
func (m *Machine) Subscribe(callback func(events.Event)) {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()
	m.subscribers = append(m.subscribers, callback)
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Dispatch delivers the event to all subscribers if the session is active,
// and silently drops it otherwise. Events arriving between StopSession and
// the transport actually closing are dropped here.
func (m *Machine) Dispatch(event events.Event) {
	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()

	if m.State() != StateActive {
		logger.Debug("dropping event outside active session",
			"kind", event.Kind(), "state", string(m.State()))
		return
	}

	for _, subscriber := range m.subscribers {
		subscriber(event)
	}
}

// Transition moves the machine along one legal lifecycle edge. Terminal
// states reject all transitions.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !legalTransition(m.state, to) {
		return fmt.Errorf("illegal session transition from %q to %q", m.state, to)
	}
	m.state = to
	if to == StateActive {
		m.wasActive = true
	}
	return nil
}

// Fail pins the machine in the failed state and delivers exactly one Error
// event to subscribers, but only if the session ever reached active:
// failures during startup are fully reported through the caller's error
// return, and subscribers see nothing before the handshake completes.
// Calling Fail on an already terminal machine does nothing, so a transport
// error racing a clean close cannot surface.
func (m *Machine) Fail(err error) {
	m.mu.Lock()
	if m.state.Terminal() {
		m.mu.Unlock()
		return
	}
	m.state = StateFailed
	announce := m.wasActive
	m.mu.Unlock()

	logger.Error("session failed", "error", err)
	if !announce {
		return
	}

	m.dispatchMu.Lock()
	defer m.dispatchMu.Unlock()
	event := events.NewError("", err.Error())
	for _, subscriber := range m.subscribers {
		subscriber(event)
	}
}

func legalTransition(from, to State) bool {
	switch from {
	case StateIdle:
		return to == StateConnecting
	case StateConnecting:
		return to == StateActive || to == StateClosing || to == StateClosed
	case StateActive:
		return to == StateClosing
	case StateClosing:
		return to == StateClosed
	default:
		return false
	}
}
