package llms

import "context"

// Stream is a lazily evaluated model response. Chunks yields typed stream
// chunks in generation order and stops early when the consumer returns
// false.
type Stream interface {
	Chunks(context.Context) func(func(StreamChunk, error) bool)
}

type StreamChunk interface {
	FinishReason() *string
}

type StreamContentChunk interface {
	StreamChunk
	Content() string
}

type StreamToolCallChunk interface {
	StreamChunk
	ToolCall() ToolCall
}
