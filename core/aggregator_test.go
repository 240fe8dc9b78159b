package voicechat

import (
	"math"
	"testing"

	"github.com/coffeechat/voicecore/core/events"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTranscriptPreservesArrivalOrder(t *testing.T) {
	aggregator := NewAggregator()

	aggregator.Fold(events.NewTranscriptionCompleted("ev-1", "a"))
	aggregator.Fold(events.NewResponseDone("ev-2", []events.OutputItem{
		{Content: []events.ContentPart{{Transcript: "b"}}},
	}))
	aggregator.Fold(events.NewTranscriptionCompleted("ev-3", "c"))

	snapshot := aggregator.Snapshot()
	if len(snapshot.Transcript) != 3 {
		t.Fatalf("expected 3 transcript entries, got %d", len(snapshot.Transcript))
	}

	want := []struct {
		role Role
		text string
	}{
		{RoleUser, "a"},
		{RoleAssistant, "b"},
		{RoleUser, "c"},
	}
	for i, entry := range snapshot.Transcript {
		if entry.Role != want[i].role || entry.Text != want[i].text {
			t.Fatalf("expected entry %d to be %s:%q, got %s:%q",
				i, want[i].role, want[i].text, entry.Role, entry.Text)
		}
	}
}

func TestEmptyResponseAppendsNothing(t *testing.T) {
	aggregator := NewAggregator()

	aggregator.Fold(events.NewResponseDone("ev-1", nil))
	aggregator.Fold(events.NewResponseDone("ev-2", []events.OutputItem{
		{Content: []events.ContentPart{{Transcript: ""}}},
	}))

	if snapshot := aggregator.Snapshot(); len(snapshot.Transcript) != 0 {
		t.Fatalf("expected no transcript entries for audio-only turns, got %d", len(snapshot.Transcript))
	}
}

func TestTimestampsAreNonDecreasing(t *testing.T) {
	aggregator := NewAggregator()

	earlier := events.NewTranscriptionCompleted("ev-1", "first constructed")
	later := events.NewTranscriptionCompleted("ev-2", "second constructed")

	// Fold in reverse construction order to simulate a backend clock that
	// lags arrival order.
	aggregator.Fold(later)
	aggregator.Fold(earlier)

	snapshot := aggregator.Snapshot()
	if len(snapshot.Transcript) != 2 {
		t.Fatalf("expected 2 transcript entries, got %d", len(snapshot.Transcript))
	}
	if snapshot.Transcript[1].At.Before(snapshot.Transcript[0].At) {
		t.Fatalf("expected non-decreasing timestamps, got %v then %v",
			snapshot.Transcript[0].At, snapshot.Transcript[1].At)
	}
}

func TestOrderUpdateRecomputesTotals(t *testing.T) {
	aggregator := NewAggregator()

	aggregator.Fold(events.NewToolResponse("ev-1", "update_order", `{"items":[
		{"item":"Cappuccino","size":"Large","quantity":1,"price":5.50},
		{"item":"Extra shot","size":"","quantity":1,"price":1.00},
		{"item":"Vanilla latte","size":"Regular","quantity":1,"price":5.90}
	]}`))

	snapshot := aggregator.Snapshot()
	if len(snapshot.Order.Lines) != 3 {
		t.Fatalf("expected 3 order lines, got %d", len(snapshot.Order.Lines))
	}
	if !almostEqual(snapshot.Order.Subtotal, 12.40) {
		t.Fatalf("expected subtotal 12.40, got %v", snapshot.Order.Subtotal)
	}
	if !almostEqual(snapshot.Order.Tax, 0.992) {
		t.Fatalf("expected tax 0.992, got %v", snapshot.Order.Tax)
	}
	if !almostEqual(snapshot.Order.Total, 13.392) {
		t.Fatalf("expected total 13.392, got %v", snapshot.Order.Total)
	}
}

func TestOrderReplacementLeavesNoResidue(t *testing.T) {
	aggregator := NewAggregator()

	aggregator.Fold(events.NewToolResponse("ev-1", "update_order", `{"items":[
		{"item":"Cappuccino","size":"Large","quantity":1,"price":5.50},
		{"item":"Extra shot","size":"","quantity":1,"price":1.00}
	]}`))
	before := aggregator.Snapshot()

	aggregator.Fold(events.NewToolResponse("ev-2", "update_order", `{"items":[
		{"item":"Espresso","size":"","quantity":2,"price":3.00}
	]}`))

	after := aggregator.Snapshot()
	if len(after.Order.Lines) != 1 || after.Order.Lines[0].Item != "Espresso" {
		t.Fatalf("expected the new order to fully replace the old, got %+v", after.Order.Lines)
	}
	if !almostEqual(after.Order.Subtotal, 6.00) {
		t.Fatalf("expected subtotal 6.00, got %v", after.Order.Subtotal)
	}

	// The earlier snapshot must not observe the replacement.
	if len(before.Order.Lines) != 2 {
		t.Fatalf("expected held snapshot to keep 2 lines, got %d", len(before.Order.Lines))
	}
}

func TestMalformedOrderPayloadKeepsPreviousSummary(t *testing.T) {
	errorsSeen := 0
	aggregator := NewAggregator(WithAggregatorErrorCallback(func(error) {
		errorsSeen++
	}))

	aggregator.Fold(events.NewToolResponse("ev-1", "update_order",
		`{"items":[{"item":"Cappuccino","size":"Large","quantity":1,"price":5.50}]}`))

	tests := []struct {
		name    string
		payload string
	}{
		{"invalid json", `{"items":`},
		{"zero quantity", `{"items":[{"item":"Espresso","quantity":0,"price":3.00}]}`},
		{"missing item", `{"items":[{"item":"","quantity":1,"price":3.00}]}`},
		{"negative price", `{"items":[{"item":"Espresso","quantity":1,"price":-3.00}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aggregator.Fold(events.NewToolResponse("ev-x", "update_order", tt.payload))

			snapshot := aggregator.Snapshot()
			if len(snapshot.Order.Lines) != 1 || snapshot.Order.Lines[0].Item != "Cappuccino" {
				t.Fatalf("expected previous summary to be kept, got %+v", snapshot.Order.Lines)
			}
		})
	}
	if errorsSeen != len(tests) {
		t.Fatalf("expected %d rejected payloads, got %d", len(tests), errorsSeen)
	}
}

func TestUnrelatedToolResponsesAreIgnored(t *testing.T) {
	aggregator := NewAggregator()

	aggregator.Fold(events.NewToolResponse("ev-1", "get_menu", `{"items":[]}`))

	snapshot := aggregator.Snapshot()
	if len(snapshot.Order.Lines) != 0 || snapshot.Order.Total != 0 {
		t.Fatalf("expected unrelated tool responses to leave the order untouched, got %+v", snapshot.Order)
	}
}
