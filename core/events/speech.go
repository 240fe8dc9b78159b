package events

const (
	// KindSpeechStarted identifies the peer's barge-in signal.
	KindSpeechStarted Kind = "input_audio.speech_started"
	// KindTranscriptionCompleted identifies the final transcript of one user
	// utterance.
	KindTranscriptionCompleted Kind = "input_audio.transcription_completed"
)

// SpeechStarted marks the start of user speech detected by the peer.
type SpeechStarted struct {
	Base
	EventID string
}

// NewSpeechStarted creates a speech started event.
func NewSpeechStarted(eventID string) SpeechStarted {
	return SpeechStarted{Base: NewBase(KindSpeechStarted), EventID: eventID}
}

// TranscriptionCompleted carries the final transcript of a user utterance.
type TranscriptionCompleted struct {
	Base
	EventID    string
	Transcript string
}

// NewTranscriptionCompleted creates a transcription completed event.
func NewTranscriptionCompleted(eventID, transcript string) TranscriptionCompleted {
	return TranscriptionCompleted{Base: NewBase(KindTranscriptionCompleted), EventID: eventID, Transcript: transcript}
}
