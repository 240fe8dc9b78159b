package voicechat

import (
	"fmt"
	"sync"
	"time"

	"github.com/jinzhu/copier"

	"github.com/coffeechat/voicecore/core/events"
	"github.com/coffeechat/voicecore/core/order"
)

// Role tags a transcript entry with its speaker.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// TranscriptEntry is one finalized utterance in the conversation.
type TranscriptEntry struct {
	Role Role
	Text string
	At   time.Time
}

// ConversationSnapshot is a point-in-time copy of the derived conversation
// state. It shares no memory with the aggregator.
type ConversationSnapshot struct {
	Transcript []TranscriptEntry
	Order      order.Summary
}

// Aggregator folds session events into the transcript and the order
// summary. It is driven from the session's dispatch path, so events arrive
// one at a time and in order; all its own state is still guarded because
// snapshots may be taken from any goroutine.
type Aggregator struct {
	mu         sync.Mutex
	transcript []TranscriptEntry
	order      order.Summary
	lastAt     time.Time

	taxRate float64

	onUpdate func()
	onError  func(error)
}

type AggregatorOption func(*Aggregator)

// WithTaxRate overrides the tax rate applied when recomputing order
// summaries.
func WithTaxRate(taxRate float64) AggregatorOption {
	return func(a *Aggregator) { a.taxRate = taxRate }
}

// WithUpdateCallback registers a callback fired after every fold that
// changed the derived state.
func WithUpdateCallback(callback func()) AggregatorOption {
	return func(a *Aggregator) { a.onUpdate = callback }
}

// WithAggregatorErrorCallback registers the callback for malformed order
// payloads and backend error events.
func WithAggregatorErrorCallback(callback func(error)) AggregatorOption {
	return func(a *Aggregator) { a.onError = callback }
}

// DefaultTaxRate matches the menu's 8% sales tax.
const DefaultTaxRate = 0.08

func NewAggregator(opts ...AggregatorOption) *Aggregator {
	aggregator := &Aggregator{
		taxRate:  DefaultTaxRate,
		onUpdate: func() {},
		onError:  func(error) {},
	}
	for _, opt := range opts {
		opt(aggregator)
	}
	return aggregator
}

// Fold applies one session event to the derived state.
func (a *Aggregator) Fold(event events.Event) {
	switch typedEvent := event.(type) {
	case events.TranscriptionCompleted:
		a.appendEntry(RoleUser, typedEvent.Transcript, typedEvent.Timestamp())

	case events.ResponseDone:
		transcript := typedEvent.Transcript()
		if transcript == "" {
			return
		}
		a.appendEntry(RoleAssistant, transcript, typedEvent.Timestamp())

	case events.ToolResponse:
		if typedEvent.ToolName != "update_order" {
			return
		}
		a.replaceOrder(typedEvent.ToolResult)

	case events.Error:
		a.onError(fmt.Errorf("session error: %s", typedEvent.Message))
	}
}

func (a *Aggregator) appendEntry(role Role, text string, at time.Time) {
	a.mu.Lock()
	// Timestamps are clamped non-decreasing so a slow backend clock cannot
	// reorder the transcript.
	if at.Before(a.lastAt) {
		at = a.lastAt
	}
	a.lastAt = at
	a.transcript = append(a.transcript, TranscriptEntry{Role: role, Text: text, At: at})
	a.mu.Unlock()
	a.onUpdate()
}

// replaceOrder swaps the summary atomically. A payload that fails to decode
// leaves the previous summary untouched.
func (a *Aggregator) replaceOrder(payload string) {
	lines, err := order.DecodeLines([]byte(payload))
	if err != nil {
		a.onError(fmt.Errorf("rejected order update: %w", err))
		return
	}
	summary := order.Summarize(lines, a.taxRate)

	a.mu.Lock()
	a.order = summary
	a.mu.Unlock()
	a.onUpdate()
}

// Snapshot deep-copies the derived state so callers can never observe a
// later fold through a held snapshot.
func (a *Aggregator) Snapshot() ConversationSnapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	snapshot := ConversationSnapshot{}
	if err := copier.CopyWithOption(&snapshot.Transcript, &a.transcript, copier.Option{DeepCopy: true}); err != nil {
		logger.Warn("failed to copy transcript", "error", err)
	}
	if err := copier.CopyWithOption(&snapshot.Order, &a.order, copier.Option{DeepCopy: true}); err != nil {
		logger.Warn("failed to copy order summary", "error", err)
	}
	return snapshot
}
