// Package texttospeech defines the synthesis contract a speech provider
// fulfills for the segmented backend.
package texttospeech

import "github.com/coffeechat/voicecore/core/audio"

type TextToSpeechOptions struct {
	// SpeechAudioCallback is called for every chunk of synthesized audio.
	SpeechAudioCallback func(audio []byte)
	// SpeechEndedCallback is called once all text sent before EndOfText has
	// been synthesized.
	SpeechEndedCallback func()
	// ErrorCallback is called when synthesis fails mid-stream.
	ErrorCallback func(error)

	EncodingInfo audio.EncodingInfo
}

type TextToSpeechOption func(*TextToSpeechOptions)

func WithSpeechAudioCallback(callback func([]byte)) TextToSpeechOption {
	return func(o *TextToSpeechOptions) { o.SpeechAudioCallback = callback }
}

func WithSpeechEndedCallback(callback func()) TextToSpeechOption {
	return func(o *TextToSpeechOptions) { o.SpeechEndedCallback = callback }
}

func WithErrorCallback(callback func(error)) TextToSpeechOption {
	return func(o *TextToSpeechOptions) { o.ErrorCallback = callback }
}

func WithEncodingInfo(encodingInfo audio.EncodingInfo) TextToSpeechOption {
	return func(o *TextToSpeechOptions) {
		if encodingInfo.IsZero() {
			return
		}
		o.EncodingInfo = encodingInfo
	}
}

// SpeechStream synthesizes one assistant turn. Text is spoken in the order
// it is sent.
type SpeechStream interface {
	// SendText queues text for synthesis. It errors once EndOfText, Cancel
	// or Close has been called.
	SendText(text string) error
	// EndOfText signals that no more text will be sent. The stream closes
	// itself after the remaining speech has been generated.
	EndOfText() error
	// Cancel discards any pending synthesis and closes the stream.
	Cancel() error
	// Close releases the stream immediately. Repeated calls are ignored.
	Close() error
}
