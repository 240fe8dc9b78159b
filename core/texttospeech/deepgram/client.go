package deepgram

import (
	"fmt"
	"os"
	"slices"

	"github.com/coffeechat/voicecore/core/audio"
)

type Voice string

const (
	VoiceThalia  Voice = "aura-2-thalia-en"
	VoiceAsteria Voice = "aura-asteria-en"
	VoiceOrion   Voice = "aura-orion-en"
	VoiceLuna    Voice = "aura-luna-en"

	defaultVoice = VoiceThalia
)

func AvailableVoices() []Voice {
	return []Voice{VoiceThalia, VoiceAsteria, VoiceOrion, VoiceLuna}
}

// TextToSpeechClient opens streaming synthesis sessions against Deepgram's
// speak endpoint. One client can serve many sequential streams.
type TextToSpeechClient struct {
	apiKey       string
	voice        Voice
	encodingInfo audio.EncodingInfo
}

// NewTextToSpeechClient builds a client with the given API key, falling
// back to the DEEPGRAM_API_KEY environment variable when empty. An empty
// voice selects the default.
func NewTextToSpeechClient(apiKey string, voice Voice) (*TextToSpeechClient, error) {
	if apiKey == "" {
		var ok bool
		if apiKey, ok = os.LookupEnv("DEEPGRAM_API_KEY"); !ok {
			return nil, fmt.Errorf("deepgram api key not found")
		}
	}

	if voice == "" {
		voice = defaultVoice
	}
	if !slices.Contains(AvailableVoices(), voice) {
		return nil, fmt.Errorf("invalid voice %q", voice)
	}

	return &TextToSpeechClient{
		apiKey:       apiKey,
		voice:        voice,
		encodingInfo: audio.GetDefaultEncodingInfo(),
	}, nil
}

func (c *TextToSpeechClient) SetVoice(voice Voice) {
	c.voice = voice
}
