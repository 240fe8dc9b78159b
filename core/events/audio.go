package events

const (
	// KindAudioDelta identifies one chunk of synthesized assistant speech.
	KindAudioDelta Kind = "audio.delta"
)

// AudioDelta carries decoded PCM bytes for playback. The slice is owned by
// the playback pipeline once dispatched and must not be mutated afterwards.
type AudioDelta struct {
	Base
	EventID string
	Audio   []byte
}

// NewAudioDelta creates an assistant audio chunk event.
func NewAudioDelta(eventID string, audio []byte) AudioDelta {
	return AudioDelta{Base: NewBase(KindAudioDelta), EventID: eventID, Audio: audio}
}
