package protocol

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/coffeechat/voicecore/core/audio"
	"github.com/coffeechat/voicecore/core/events"
	"github.com/coffeechat/voicecore/core/llms"
)

// Wire message kinds. Inbound kinds map one-to-one onto event kinds;
// outbound kinds are only ever produced by Encode helpers.
const (
	wireSessionConfigure       = "session.configure"
	wireSessionConfigured      = "session.configured"
	wireInputAudioAppend       = "input_audio.append"
	wireInputAudioClear        = "input_audio.clear"
	wireAudioDelta             = "audio.delta"
	wireSpeechStarted          = "input_audio.speech_started"
	wireTranscriptionCompleted = "input_audio.transcription_completed"
	wireResponseDone           = "response.done"
	wireToolResponse           = "tool.response"
	wireError                  = "error"
)

type envelope struct {
	Type    string `json:"type"`
	EventID string `json:"event_id,omitempty"`
}

// Decode translates one wire message into a typed event. It never fails:
// undecodable input yields an Error event and unknown kinds yield Unhandled.
func Decode(data []byte) events.Event {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return events.NewError("", fmt.Sprintf("undecodable wire message: %v", err))
	}

	switch env.Type {
	case wireSessionConfigured:
		return events.NewSessionConfigured(env.EventID)

	case wireAudioDelta:
		var msg struct {
			envelope
			Delta string `json:"delta"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			return events.NewError(env.EventID, fmt.Sprintf("malformed audio delta: %v", err))
		}
		pcm, err := base64.StdEncoding.DecodeString(msg.Delta)
		if err != nil {
			return events.NewError(env.EventID, fmt.Sprintf("undecodable audio delta payload: %v", err))
		}
		return events.NewAudioDelta(env.EventID, pcm)

	case wireSpeechStarted:
		return events.NewSpeechStarted(env.EventID)

	case wireTranscriptionCompleted:
		var msg struct {
			envelope
			Transcript string `json:"transcript"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			return events.NewError(env.EventID, fmt.Sprintf("malformed transcription: %v", err))
		}
		return events.NewTranscriptionCompleted(env.EventID, msg.Transcript)

	case wireResponseDone:
		var msg struct {
			envelope
			Response struct {
				Output []struct {
					Content []struct {
						Transcript string `json:"transcript"`
					} `json:"content"`
				} `json:"output"`
			} `json:"response"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			return events.NewError(env.EventID, fmt.Sprintf("malformed response: %v", err))
		}
		output := make([]events.OutputItem, 0, len(msg.Response.Output))
		for _, item := range msg.Response.Output {
			outputItem := events.OutputItem{}
			for _, content := range item.Content {
				outputItem.Content = append(outputItem.Content, events.ContentPart{Transcript: content.Transcript})
			}
			output = append(output, outputItem)
		}
		return events.NewResponseDone(env.EventID, output)

	case wireToolResponse:
		var msg struct {
			envelope
			ToolName   string `json:"tool_name"`
			ToolResult string `json:"tool_result"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			return events.NewError(env.EventID, fmt.Sprintf("malformed tool response: %v", err))
		}
		return events.NewToolResponse(env.EventID, msg.ToolName, msg.ToolResult)

	case wireError:
		var msg struct {
			envelope
			Message string `json:"message"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			return events.NewError(env.EventID, fmt.Sprintf("malformed error message: %v", err))
		}
		return events.NewError(env.EventID, msg.Message)

	default:
		return events.NewUnhandled(env.Type)
	}
}

type toolDeclaration struct {
	Type        string          `json:"type"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type configureSession struct {
	SampleRate              int               `json:"sample_rate"`
	InputAudioTranscription *transcriptionCfg `json:"input_audio_transcription,omitempty"`
	Tools                   []toolDeclaration `json:"tools,omitempty"`
}

type transcriptionCfg struct {
	Enabled bool `json:"enabled"`
}

type configureMessage struct {
	Type    string           `json:"type"`
	Session configureSession `json:"session"`
}

// EncodeConfigure builds the configuration handshake: sample rate,
// transcription flag, and the declared tools with their parameter schemas.
func EncodeConfigure(sampleRate int, transcriptionEnabled bool, tools []llms.Tool) ([]byte, error) {
	msg := configureMessage{
		Type:    wireSessionConfigure,
		Session: configureSession{SampleRate: sampleRate},
	}
	if transcriptionEnabled {
		msg.Session.InputAudioTranscription = &transcriptionCfg{Enabled: true}
	}

	for _, tool := range tools {
		parameters := json.RawMessage(`{"type":"object"}`)
		if tool.Schema() != nil {
			data, err := json.Marshal(tool.Schema())
			if err != nil {
				return nil, fmt.Errorf("failed to encode parameter schema for tool %q: %w", tool.Name, err)
			}
			parameters = data
		}
		msg.Session.Tools = append(msg.Session.Tools, toolDeclaration{
			Type:        "function",
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  parameters,
		})
	}

	return json.Marshal(msg)
}

type appendAudioMessage struct {
	Type  string `json:"type"`
	Audio string `json:"audio"`
	Seq   uint64 `json:"seq"`
}

// EncodeAppendAudio wraps one captured frame as an outbound audio append.
func EncodeAppendAudio(frame audio.Frame) ([]byte, error) {
	return json.Marshal(appendAudioMessage{
		Type:  wireInputAudioAppend,
		Audio: base64.StdEncoding.EncodeToString(frame.Data),
		Seq:   frame.Seq,
	})
}

// EncodeClearAudio builds the outbound input buffer discard message.
func EncodeClearAudio() ([]byte, error) {
	return json.Marshal(envelope{Type: wireInputAudioClear})
}
