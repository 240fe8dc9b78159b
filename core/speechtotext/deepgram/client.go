package deepgram

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// TranscriptionClient streams microphone audio to Deepgram's live listen
// endpoint and surfaces transcripts through callbacks.
type TranscriptionClient struct {
	apiKey string

	connMu sync.Mutex
	conn   *websocket.Conn

	lastAudioTs           time.Time
	accumulatedTranscript string
	unendedSegment        bool
}

// NewTranscriptionClient builds a client with the given API key, falling
// back to the DEEPGRAM_API_KEY environment variable when empty.
func NewTranscriptionClient(apiKey string) (*TranscriptionClient, error) {
	if apiKey == "" {
		var ok bool
		if apiKey, ok = os.LookupEnv("DEEPGRAM_API_KEY"); !ok {
			return nil, fmt.Errorf("deepgram api key not found")
		}
	}
	return &TranscriptionClient{apiKey: apiKey}, nil
}
