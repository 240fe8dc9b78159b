package order

import (
	"math"
	"testing"
)

const floatTolerance = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < floatTolerance
}

func TestSummarizeTotalsAddUp(t *testing.T) {
	lines := []Line{
		{Item: "Cappuccino", Size: "Large", Quantity: 1, UnitPrice: 5.50},
		{Item: "Extra Shot", Size: "", Quantity: 1, UnitPrice: 1.00},
		{Item: "Vanilla Latte", Size: "Regular", Quantity: 1, UnitPrice: 5.90},
	}

	summary := Summarize(lines, 0.08)

	if !almostEqual(summary.Subtotal, 12.40) {
		t.Fatalf("expected subtotal 12.40, got %v", summary.Subtotal)
	}
	if !almostEqual(summary.Tax, 0.992) {
		t.Fatalf("expected tax 0.992, got %v", summary.Tax)
	}
	if !almostEqual(summary.Total, 13.392) {
		t.Fatalf("expected total 13.392, got %v", summary.Total)
	}
	if !almostEqual(summary.Total, summary.Subtotal+summary.Tax) {
		t.Fatalf("expected total to equal subtotal+tax, got %v vs %v", summary.Total, summary.Subtotal+summary.Tax)
	}
}

func TestSummarizeInvariantsHoldForArbitraryLines(t *testing.T) {
	cases := [][]Line{
		nil,
		{},
		{{Item: "Espresso", Quantity: 3, UnitPrice: 2.20}},
		{
			{Item: "Flat White", Size: "Large", Quantity: 2, UnitPrice: 4.80},
			{Item: "Croissant", Quantity: 5, UnitPrice: 3.10},
			{Item: "Earl Grey", Size: "Pot", Quantity: 1, UnitPrice: 6.00},
		},
	}

	for _, lines := range cases {
		summary := Summarize(lines, 0.08)

		expectedSubtotal := 0.0
		for _, line := range lines {
			expectedSubtotal += line.UnitPrice * float64(line.Quantity)
		}
		if !almostEqual(summary.Subtotal, expectedSubtotal) {
			t.Fatalf("expected subtotal %v, got %v", expectedSubtotal, summary.Subtotal)
		}
		if !almostEqual(summary.Total, summary.Subtotal+summary.Tax) {
			t.Fatalf("expected total %v, got %v", summary.Subtotal+summary.Tax, summary.Total)
		}
	}
}

func TestSummarizeDoesNotAliasInputLines(t *testing.T) {
	lines := []Line{{Item: "Mocha", Quantity: 1, UnitPrice: 4.50}}

	summary := Summarize(lines, 0.08)
	lines[0].Quantity = 99

	if summary.Lines[0].Quantity != 1 {
		t.Fatalf("expected summary to keep its own line copy, got quantity %d", summary.Lines[0].Quantity)
	}
}

func TestSummarizeFillsDisplayLabels(t *testing.T) {
	tests := []struct {
		name  string
		line  Line
		label string
	}{
		{"standard size is bare", Line{Item: "Cappuccino", Size: "standard", Quantity: 1}, "Cappuccino"},
		{"empty size is bare", Line{Item: "Extra Shot", Quantity: 1}, "Extra Shot"},
		{"kannchen serving", Line{Item: "Darjeeling", Size: "Kannchen", Quantity: 1}, "Kannchen of Darjeeling"},
		{"pot serving", Line{Item: "Earl Grey", Size: "pot", Quantity: 1}, "Pot of Earl Grey"},
		{"regular size capitalized", Line{Item: "Vanilla Latte", Size: "regular", Quantity: 1}, "Regular Vanilla Latte"},
		{"provided label kept", Line{Item: "Latte", Size: "large", Quantity: 1, DisplayLabel: "House Latte"}, "House Latte"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary := Summarize([]Line{tt.line}, 0.08)
			if got := summary.Lines[0].DisplayLabel; got != tt.label {
				t.Fatalf("expected display label %q, got %q", tt.label, got)
			}
		})
	}
}

func TestDecodeLinesAcceptsObjectAndArrayPayloads(t *testing.T) {
	object := `{"items":[{"item":"Cappuccino","size":"Large","quantity":1,"price":5.5}]}`
	array := `[{"item":"Cappuccino","size":"Large","quantity":1,"price":5.5}]`

	for _, payload := range []string{object, array} {
		lines, err := DecodeLines([]byte(payload))
		if err != nil {
			t.Fatalf("expected payload to decode, got error: %v", err)
		}
		if len(lines) != 1 {
			t.Fatalf("expected one line, got %d", len(lines))
		}
		if lines[0].Item != "Cappuccino" || lines[0].UnitPrice != 5.5 {
			t.Fatalf("unexpected decoded line: %+v", lines[0])
		}
	}
}

func TestDecodeLinesRejectsInvalidPayloads(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty payload", ""},
		{"malformed json", `{"items":[`},
		{"missing item name", `{"items":[{"item":"","quantity":1,"price":2}]}`},
		{"zero quantity", `{"items":[{"item":"Espresso","quantity":0,"price":2}]}`},
		{"negative quantity", `{"items":[{"item":"Espresso","quantity":-1,"price":2}]}`},
		{"negative price", `{"items":[{"item":"Espresso","quantity":1,"price":-2}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DecodeLines([]byte(tt.payload)); err == nil {
				t.Fatalf("expected payload %q to be rejected", tt.payload)
			}
		})
	}
}
