// Package segmented implements the pipelined backend adapter. It chains a
// transcription leg, a completion leg and a synthesis leg and surfaces the
// same event stream the realtime backend produces, so subscribers cannot
// tell the two apart.
package segmented

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/coffeechat/voicecore/core/audio"
	"github.com/coffeechat/voicecore/core/events"
	"github.com/coffeechat/voicecore/core/llms"
	"github.com/coffeechat/voicecore/core/sessions"
	"github.com/coffeechat/voicecore/core/speechtotext"
	"github.com/coffeechat/voicecore/core/texttospeech"
)

type transcriber interface {
	Transcribe(ctx context.Context, opts ...speechtotext.TranscriptionOption) error
	SendAudio(audio []byte) error
	StopStream() error
}

type promptStreamer interface {
	PromptWithStream(prompt string, instructions string, history []llms.Turn, tools []llms.Tool) llms.Stream
}

type speechSynthesizer interface {
	NewSpeechStream(ctx context.Context, opts ...texttospeech.TextToSpeechOption) (texttospeech.SpeechStream, error)
}

// Session is a segmented backend session. The zero value is not usable;
// construct with NewSession.
type Session struct {
	*sessions.Machine

	stt transcriber
	llm promptStreamer
	tts speechSynthesizer

	config sessions.Config

	turnMu      sync.Mutex
	turnGen     uint64
	turnCancel  context.CancelFunc
	turnSpeech  texttospeech.SpeechStream
	history     []llms.Turn
	baseCtx     context.Context
	baseCancel  context.CancelFunc
	stopStreams sync.Once
}

type Option func(*Session)

func WithTranscriber(stt transcriber) Option {
	return func(s *Session) { s.stt = stt }
}

func WithPromptStreamer(llm promptStreamer) Option {
	return func(s *Session) { s.llm = llm }
}

func WithSpeechSynthesizer(tts speechSynthesizer) Option {
	return func(s *Session) { s.tts = tts }
}

func NewSession(opts ...Option) *Session {
	session := &Session{Machine: sessions.NewMachine()}
	for _, opt := range opts {
		opt(session)
	}
	return session
}

// StartSession opens the transcription leg and arms the pipeline. It
// returns once the session is active; assistant turns run on background
// goroutines as utterances complete.
func (s *Session) StartSession(ctx context.Context, config sessions.Config) error {
	ctx, span := tracer.Start(ctx, "start segmented session")
	defer span.End()

	if s.stt == nil || s.llm == nil || s.tts == nil {
		return fmt.Errorf("segmented session requires a transcriber, a prompt streamer and a speech synthesizer")
	}
	if err := s.Transition(sessions.StateConnecting); err != nil {
		return err
	}

	s.config = config
	s.baseCtx, s.baseCancel = context.WithCancel(context.WithoutCancel(ctx))

	encodingInfo := audio.GetDefaultEncodingInfo()
	if config.SampleRate != 0 {
		encodingInfo.SampleRate = config.SampleRate
	}

	err := s.stt.Transcribe(s.baseCtx,
		speechtotext.WithEncodingInfo(encodingInfo),
		speechtotext.WithSpeechStartedCallback(func() {
			s.interruptTurn()
			s.Dispatch(events.NewSpeechStarted(uuid.NewString()))
		}),
		speechtotext.WithTranscriptionCallback(func(transcript string) {
			s.Dispatch(events.NewTranscriptionCompleted(uuid.NewString(), transcript))
			go s.respond(transcript)
		}),
	)
	if err != nil {
		span.RecordError(err)
		s.Fail(err)
		return fmt.Errorf("failed to open transcription stream: %w", err)
	}

	if err := s.Transition(sessions.StateActive); err != nil {
		return err
	}
	return nil
}

// SendAudio forwards one captured frame to the transcription leg. Frames
// sent while the session is not active are dropped without error.
func (s *Session) SendAudio(frame audio.Frame) error {
	if s.State() != sessions.StateActive {
		return nil
	}
	if err := s.stt.SendAudio(frame.Data); err != nil {
		return fmt.Errorf("failed to forward audio to transcription: %w", err)
	}
	return nil
}

// ClearInputBuffer is a no-op for the segmented backend: audio streams
// straight into the transcription leg, nothing is buffered client-side.
func (s *Session) ClearInputBuffer() error {
	return nil
}

// StopSession tears the pipeline down. In-flight assistant turns are
// cancelled; their events never reach subscribers once the state leaves
// active.
func (s *Session) StopSession() error {
	if s.State().Terminal() || s.State() == sessions.StateIdle {
		return nil
	}
	if err := s.Transition(sessions.StateClosing); err != nil {
		return err
	}

	s.interruptTurn()

	var errs error
	s.stopStreams.Do(func() {
		if err := s.stt.StopStream(); err != nil {
			errs = errors.Join(errs, err)
		}
	})
	if s.baseCancel != nil {
		s.baseCancel()
	}

	if err := s.Transition(sessions.StateClosed); err != nil {
		return errors.Join(errs, err)
	}
	return errs
}

// interruptTurn cancels the running assistant turn, if any. Used for both
// barge-in and teardown.
func (s *Session) interruptTurn() {
	s.turnMu.Lock()
	cancel := s.turnCancel
	speech := s.turnSpeech
	s.turnCancel = nil
	s.turnSpeech = nil
	s.turnMu.Unlock()

	if cancel != nil {
		cancel()
	}
	if speech != nil {
		if err := speech.Cancel(); err != nil {
			logger.Warn("failed to cancel speech stream", "error", err)
		}
	}
}

// respond runs one assistant turn: stream the completion, speak it as it
// arrives, execute tool calls, then report the finished turn.
func (s *Session) respond(transcript string) {
	ctx, span := tracer.Start(s.baseCtx, "assistant turn")
	defer span.End()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// The cancel handle is registered before the speech socket dials, so a
	// barge-in arriving during connection establishment still lands.
	s.turnMu.Lock()
	s.turnGen++
	gen := s.turnGen
	s.turnCancel = cancel
	s.turnSpeech = nil
	history := append([]llms.Turn(nil), s.history...)
	s.turnMu.Unlock()

	speech, err := s.tts.NewSpeechStream(ctx,
		texttospeech.WithSpeechAudioCallback(func(chunk []byte) {
			s.Dispatch(events.NewAudioDelta(uuid.NewString(), chunk))
		}),
	)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		span.RecordError(err)
		s.Dispatch(events.NewError(uuid.NewString(), fmt.Sprintf("failed to open speech stream: %v", err)))
		return
	}

	s.turnMu.Lock()
	interrupted := ctx.Err() != nil || s.turnGen != gen || s.turnCancel == nil
	if !interrupted {
		s.turnSpeech = speech
	}
	s.turnMu.Unlock()
	if interrupted {
		_ = speech.Cancel()
		return
	}

	responseText := ""
	toolCalls := []llms.ToolCall{}

	stream := s.llm.PromptWithStream(transcript, s.config.Instructions, history, s.config.Tools)
	for chunk, err := range stream.Chunks(ctx) {
		if err != nil {
			if ctx.Err() != nil {
				interrupted = true
				break
			}
			span.RecordError(err)
			s.Dispatch(events.NewError(uuid.NewString(), fmt.Sprintf("completion failed: %v", err)))
			interrupted = true
			break
		}

		switch typedChunk := chunk.(type) {
		case llms.StreamContentChunk:
			if content := typedChunk.Content(); content != "" {
				responseText += content
				if err := speech.SendText(content); err != nil {
					logger.Warn("failed to forward text to speech stream", "error", err)
				}
			}
		case llms.StreamToolCallChunk:
			toolCall := typedChunk.ToolCall()
			toolCall.Response = s.executeTool(toolCall)
			toolCalls = append(toolCalls, toolCall)
		}

		if chunk.FinishReason() != nil {
			break
		}
	}

	s.turnMu.Lock()
	if s.turnGen != gen || s.turnCancel == nil {
		// Barge-in or teardown already cancelled this turn, or a newer
		// turn has taken over the registration.
		interrupted = true
	} else {
		s.turnCancel = nil
		s.turnSpeech = nil
	}
	if !interrupted {
		s.history = append(s.history,
			llms.Turn{Role: llms.TurnRoleUser, Content: transcript},
			llms.Turn{Role: llms.TurnRoleAssistant, Content: responseText, ToolCalls: toolCalls},
		)
	}
	s.turnMu.Unlock()

	if interrupted {
		_ = speech.Cancel()
		return
	}

	if err := speech.EndOfText(); err != nil {
		logger.Warn("failed to finish speech stream", "error", err)
	}

	output := []events.OutputItem{}
	if responseText != "" {
		output = append(output, events.OutputItem{
			Content: []events.ContentPart{{Transcript: responseText}},
		})
	}
	s.Dispatch(events.NewResponseDone(uuid.NewString(), output))
}

// executeTool runs one tool call and surfaces its result as an event, the
// same shape the realtime backend delivers.
func (s *Session) executeTool(toolCall llms.ToolCall) string {
	for _, tool := range s.config.Tools {
		if tool.Name != toolCall.Name {
			continue
		}
		result, err := tool.Execute(toolCall.Arguments)
		if err != nil {
			s.Dispatch(events.NewError(uuid.NewString(), fmt.Sprintf("tool %q failed: %v", toolCall.Name, err)))
			return ""
		}
		s.Dispatch(events.NewToolResponse(uuid.NewString(), toolCall.Name, result))
		return result
	}

	s.Dispatch(events.NewError(uuid.NewString(), fmt.Sprintf("unknown tool %q", toolCall.Name)))
	return ""
}
