package events

const (
	// KindToolResponse identifies a tool invocation result from the backend.
	KindToolResponse Kind = "tool.response"
)

// ToolResponse carries the result of a tool invocation. ToolResult is the
// raw JSON payload; consumers validate it themselves.
type ToolResponse struct {
	Base
	EventID    string
	ToolName   string
	ToolResult string
}

// NewToolResponse creates a tool response event.
func NewToolResponse(eventID, toolName, toolResult string) ToolResponse {
	return ToolResponse{Base: NewBase(KindToolResponse), EventID: eventID, ToolName: toolName, ToolResult: toolResult}
}
