// Command coffeechat is a terminal client for placing coffee orders by
// voice. It wires a backend session, the local audio devices and the
// conversation core together and renders the transcript and the running
// order in a TUI.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	voicechat "github.com/coffeechat/voicecore/core"
	"github.com/coffeechat/voicecore/core/audio/miniaudio"
	"github.com/coffeechat/voicecore/core/audio/portaudio"
	"github.com/coffeechat/voicecore/core/config"
	"github.com/coffeechat/voicecore/core/llms/openai"
	"github.com/coffeechat/voicecore/core/realtime"
	"github.com/coffeechat/voicecore/core/segmented"
	"github.com/coffeechat/voicecore/core/sessions"
	sttdeepgram "github.com/coffeechat/voicecore/core/speechtotext/deepgram"
	ttsdeepgram "github.com/coffeechat/voicecore/core/texttospeech/deepgram"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "coffeechat: %v\n", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "coffeechat: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	session, err := buildSession(cfg)
	if err != nil {
		return err
	}

	// The conversation's callbacks run on session goroutines; they hand
	// messages to the UI through this channel and never touch the model.
	updates := make(chan tea.Msg, 32)

	options := []voicechat.ConversationOption{
		voicechat.WithSampleRate(cfg.Audio.SampleRate),
		voicechat.WithOrderTaxRate(cfg.Order.TaxRate),
		voicechat.WithSnapshotCallback(func() {
			select {
			case updates <- snapshotUpdatedMsg{}:
			default:
			}
		}),
		voicechat.WithErrorCallback(func(err error) {
			select {
			case updates <- conversationErrMsg{err: err}:
			default:
			}
		}),
	}
	if cfg.Assistant.Instructions != "" {
		options = append(options, voicechat.WithInstructions(cfg.Assistant.Instructions))
	}
	if cfg.Assistant.Transcription != nil {
		options = append(options, voicechat.WithTranscription(*cfg.Assistant.Transcription))
	}

	deviceOptions, closeDevice, err := buildDevice(cfg)
	if err != nil {
		return err
	}
	defer closeDevice()
	options = append(options, deviceOptions...)

	conversation := voicechat.NewConversation(session, options...)
	defer conversation.Close()

	if err := conversation.Start(context.Background()); err != nil {
		return err
	}

	program := tea.NewProgram(newModel(conversation, updates), tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run ui: %w", err)
	}
	return nil
}

// buildSession constructs the backend adapter selected by the config.
func buildSession(cfg *config.Config) (sessions.Session, error) {
	switch cfg.Backend {
	case config.BackendRealtime:
		return realtime.NewSession(
			realtime.WithEndpoint(cfg.Realtime.Endpoint, cfg.Realtime.AuthToken),
		), nil

	case config.BackendSegmented:
		stt, err := sttdeepgram.NewTranscriptionClient(cfg.Segmented.DeepgramAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to build transcription client: %w", err)
		}
		tts, err := ttsdeepgram.NewTextToSpeechClient(
			cfg.Segmented.DeepgramAPIKey,
			ttsdeepgram.Voice(cfg.Segmented.Voice),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to build text to speech client: %w", err)
		}
		llm := openai.NewClient(cfg.Segmented.OpenAIAPIKey, cfg.Segmented.Model)

		return segmented.NewSession(
			segmented.WithTranscriber(stt),
			segmented.WithPromptStreamer(llm),
			segmented.WithSpeechSynthesizer(tts),
		), nil

	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

// buildDevice constructs the audio device layer selected by the config and
// returns the conversation options that wire it in.
func buildDevice(cfg *config.Config) ([]voicechat.ConversationOption, func(), error) {
	switch cfg.Audio.Device {
	case "miniaudio":
		client, err := miniaudio.NewClient()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize audio devices: %w", err)
		}
		return []voicechat.ConversationOption{
			voicechat.WithCaptureClient(client),
			voicechat.WithPlaybackClient(client),
		}, func() { _ = client.Close() }, nil

	case "portaudio":
		client, err := portaudio.NewClient(0)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize microphone: %w", err)
		}
		return []voicechat.ConversationOption{
			voicechat.WithCaptureClient(client),
		}, func() { _ = client.Close() }, nil

	case "none":
		return nil, func() {}, nil

	default:
		return nil, nil, errors.New("no usable audio device configured")
	}
}
