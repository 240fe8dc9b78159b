// Package speechtotext defines the callback contract a transcription
// provider fulfills for the segmented backend.
package speechtotext

import "github.com/coffeechat/voicecore/core/audio"

type TranscriptionOptions struct {
	// SpeechStartedCallback fires when the provider's voice activity
	// detection sees the user start talking.
	SpeechStartedCallback func()
	// InterimTranscriptionCallback fires with partial, unstable transcripts.
	InterimTranscriptionCallback func(transcript string)
	// TranscriptionCallback fires once per utterance with the final
	// transcript.
	TranscriptionCallback func(transcript string)

	EncodingInfo audio.EncodingInfo
}

type TranscriptionOption func(*TranscriptionOptions)

func WithSpeechStartedCallback(callback func()) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.SpeechStartedCallback = callback
	}
}

func WithInterimTranscriptionCallback(callback func(transcript string)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.InterimTranscriptionCallback = callback
	}
}

func WithTranscriptionCallback(callback func(transcript string)) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.TranscriptionCallback = callback
	}
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TranscriptionOption {
	return func(o *TranscriptionOptions) {
		o.EncodingInfo = encodingInfo
	}
}
