package voicechat

import (
	"encoding/json"
	"fmt"

	"github.com/coffeechat/voicecore/core/llms"
	"github.com/coffeechat/voicecore/core/order"
)

// DefaultInstructions is the barista persona used when no system prompt is
// configured.
const DefaultInstructions = `You are a friendly barista taking a voice order at a coffee shop.
Keep replies short and conversational. When the customer adds, changes or
removes items, call the update_order tool with the complete new order, not
a diff. Confirm the order back before closing out. Only offer items from
the menu; politely decline anything else.`

type updateOrderParameters struct {
	Items []order.Line `json:"items" jsonschema:"title=Order lines,description=The complete order after this change"`
}

// updateOrderTool declares the order replacement tool. The realtime backend
// executes it server-side and reports the result as a tool.response; the
// segmented backend executes the handler locally, which echoes the
// validated payload so both backends surface the same result shape.
func updateOrderTool() llms.Tool {
	return llms.NewTool(
		"update_order",
		"Replace the customer's order with the given line items. Always send the full order.",
		func(parameters updateOrderParameters) (string, error) {
			payload, err := json.Marshal(parameters)
			if err != nil {
				return "", fmt.Errorf("failed to encode order payload: %w", err)
			}
			if _, err := order.DecodeLines(payload); err != nil {
				return "", err
			}
			return string(payload), nil
		},
	)
}
