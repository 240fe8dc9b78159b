package voicechat

import "github.com/coffeechat/voicecore/core/llms"

type conversationOptions struct {
	captureClient  CaptureClient
	playbackClient PlaybackClient

	sampleRate           int
	transcriptionEnabled bool
	instructions         string
	taxRate              float64
	tools                []llms.Tool

	onUpdate func()
	onError  func(error)
}

type ConversationOption func(*conversationOptions)

// WithCaptureClient wires a microphone device into the conversation.
// Without one the conversation is playback-only.
func WithCaptureClient(client CaptureClient) ConversationOption {
	return func(o *conversationOptions) { o.captureClient = client }
}

// WithPlaybackClient wires a speaker device into the conversation. Without
// one assistant audio is discarded.
func WithPlaybackClient(client PlaybackClient) ConversationOption {
	return func(o *conversationOptions) { o.playbackClient = client }
}

// WithSampleRate overrides the capture sample rate requested from the
// backend.
func WithSampleRate(sampleRate int) ConversationOption {
	return func(o *conversationOptions) {
		if sampleRate > 0 {
			o.sampleRate = sampleRate
		}
	}
}

// WithTranscription toggles user-utterance transcription in the session
// configuration.
func WithTranscription(enabled bool) ConversationOption {
	return func(o *conversationOptions) { o.transcriptionEnabled = enabled }
}

// WithInstructions overrides the assistant's system prompt.
func WithInstructions(instructions string) ConversationOption {
	return func(o *conversationOptions) {
		if instructions != "" {
			o.instructions = instructions
		}
	}
}

// WithOrderTaxRate overrides the tax rate used for order summaries.
func WithOrderTaxRate(taxRate float64) ConversationOption {
	return func(o *conversationOptions) {
		if taxRate >= 0 {
			o.taxRate = taxRate
		}
	}
}

// WithTools declares extra tools beyond the built-in update_order.
func WithTools(tools ...llms.Tool) ConversationOption {
	return func(o *conversationOptions) { o.tools = append(o.tools, tools...) }
}

// WithSnapshotCallback registers a callback fired whenever the transcript
// or the order summary changes.
func WithSnapshotCallback(callback func()) ConversationOption {
	return func(o *conversationOptions) { o.onUpdate = callback }
}

// WithErrorCallback registers the callback for session errors, rejected
// order payloads and device failures.
func WithErrorCallback(callback func(error)) ConversationOption {
	return func(o *conversationOptions) { o.onError = callback }
}
