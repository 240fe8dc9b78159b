// Package order models the derived order state of one conversation.
//
// A Summary is always recomputed in full from a line list, never patched
// incrementally, so it cannot drift from its lines.
package order

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Line is one ordered item as surfaced by the update_order tool.
type Line struct {
	Item         string  `json:"item"`
	Size         string  `json:"size"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"price"`
	DisplayLabel string  `json:"display,omitempty"`
}

// Summary is the fully derived view over a line list.
type Summary struct {
	Lines    []Line
	Subtotal float64
	Tax      float64
	Total    float64
}

// Summarize recomputes a Summary from scratch. It is a pure function:
// subtotal is the sum of unit price times quantity, tax is subtotal times
// taxRate, and total is their sum.
func Summarize(lines []Line, taxRate float64) Summary {
	summary := Summary{Lines: make([]Line, len(lines))}
	copy(summary.Lines, lines)

	for i, line := range summary.Lines {
		if line.DisplayLabel == "" {
			summary.Lines[i].DisplayLabel = displayLabel(line.Item, line.Size)
		}
		summary.Subtotal += line.UnitPrice * float64(line.Quantity)
	}
	summary.Tax = summary.Subtotal * taxRate
	summary.Total = summary.Subtotal + summary.Tax
	return summary
}

type linesPayload struct {
	Items []Line `json:"items"`
}

// DecodeLines parses a tool payload into a validated line list. The payload
// is either a bare array of lines or an object with an "items" array.
// Validation failures are domain errors; the caller keeps its previous
// summary when one is returned.
func DecodeLines(payload []byte) ([]Line, error) {
	trimmed := strings.TrimSpace(string(payload))
	if trimmed == "" {
		return nil, fmt.Errorf("empty order payload")
	}

	var lines []Line
	if strings.HasPrefix(trimmed, "[") {
		if err := json.Unmarshal(payload, &lines); err != nil {
			return nil, fmt.Errorf("failed to parse order payload: %w", err)
		}
	} else {
		var parsed linesPayload
		if err := json.Unmarshal(payload, &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse order payload: %w", err)
		}
		lines = parsed.Items
	}

	for i, line := range lines {
		if strings.TrimSpace(line.Item) == "" {
			return nil, fmt.Errorf("order line %d: missing item name", i)
		}
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("order line %d (%s): quantity must be positive, got %d", i, line.Item, line.Quantity)
		}
		if line.UnitPrice < 0 {
			return nil, fmt.Errorf("order line %d (%s): negative unit price", i, line.Item)
		}
	}

	return lines, nil
}

// displayLabel formats the customer-facing label for a line. Standard sizes
// contribute nothing; serving vessels read as "Kannchen of"/"Pot of"; any
// other size becomes a capitalized prefix.
func displayLabel(item, size string) string {
	var prefix string
	switch strings.ToLower(size) {
	case "", "standard":
		prefix = ""
	case "kannchen":
		prefix = "Kannchen of "
	case "pot":
		prefix = "Pot of "
	default:
		prefix = capitalize(size) + " "
	}

	return strings.TrimSpace(prefix + item)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
