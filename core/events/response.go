package events

import "strings"

const (
	// KindResponseDone identifies the completion of one assistant turn.
	KindResponseDone Kind = "response.done"
)

// ContentPart is one content element of an output item. Only the transcript
// text matters to subscribers; audio-only parts have an empty transcript.
type ContentPart struct {
	Transcript string
}

// OutputItem is one output element of a completed assistant turn.
type OutputItem struct {
	Content []ContentPart
}

// ResponseDone marks the completion of an assistant turn and carries its
// structured output.
type ResponseDone struct {
	Base
	EventID string
	Output  []OutputItem
}

// NewResponseDone creates a response done event.
func NewResponseDone(eventID string, output []OutputItem) ResponseDone {
	return ResponseDone{Base: NewBase(KindResponseDone), EventID: eventID, Output: output}
}

// Transcript concatenates every non-empty content transcript of the turn
// with single spaces. An all-audio turn yields the empty string.
func (r ResponseDone) Transcript() string {
	parts := []string{}
	for _, item := range r.Output {
		for _, content := range item.Content {
			if content.Transcript != "" {
				parts = append(parts, content.Transcript)
			}
		}
	}
	return strings.Join(parts, " ")
}
