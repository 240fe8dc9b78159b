package voicechat

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/codes"

	"github.com/coffeechat/voicecore/core/audio"
	"github.com/coffeechat/voicecore/core/events"
	"github.com/coffeechat/voicecore/core/llms"
	"github.com/coffeechat/voicecore/core/sessions"
)

// Conversation owns one voice ordering session end to end: it routes
// captured frames into the session, synthesized audio into playback, and
// everything else into the aggregator.
type Conversation struct {
	session sessions.Session

	capture    *Capture
	playback   *Playback
	aggregator *Aggregator

	options conversationOptions

	baseContext context.Context
	closeOnce   sync.Once
}

// NewConversation wires a conversation around an already constructed
// backend session. The session must not have been started yet: the
// conversation subscribes before the handshake so no event is missed.
func NewConversation(session sessions.Session, opts ...ConversationOption) *Conversation {
	options := conversationOptions{
		sampleRate:           audio.DefaultSampleRate,
		transcriptionEnabled: true,
		instructions:         DefaultInstructions,
		taxRate:              DefaultTaxRate,
		onUpdate:             func() {},
		onError:              func(error) {},
	}
	for _, opt := range opts {
		opt(&options)
	}

	c := &Conversation{
		session:     session,
		options:     options,
		baseContext: context.Background(),
	}
	c.aggregator = NewAggregator(
		WithTaxRate(options.taxRate),
		WithUpdateCallback(options.onUpdate),
		WithAggregatorErrorCallback(options.onError),
	)
	if options.playbackClient != nil {
		c.playback = NewPlayback(options.playbackClient)
	}
	if options.captureClient != nil {
		c.capture = NewCapture(options.captureClient, c.forwardFrame,
			WithCaptureErrorCallback(options.onError))
	}

	session.Subscribe(c.route)
	return c
}

// Start opens the backend session. Recording does not begin until
// StartRecording is called.
func (c *Conversation) Start(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "start conversation")
	defer span.End()

	c.baseContext = ctx
	if c.playback != nil {
		c.playback.Start(ctx)
	}

	config := sessions.Config{
		SampleRate:           c.options.sampleRate,
		TranscriptionEnabled: c.options.transcriptionEnabled,
		Instructions:         c.options.instructions,
		Tools:                append([]llms.Tool{updateOrderTool()}, c.options.tools...),
	}
	if c.capture != nil {
		config.SampleRate = c.capture.EncodingInfo().SampleRate
	}

	if err := c.session.StartSession(ctx, config); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("failed to start session: %w", err)
	}
	return nil
}

// route is the single subscriber on the session: audio goes straight to
// playback, barge-in resets it, everything else folds into the aggregator.
func (c *Conversation) route(event events.Event) {
	switch typedEvent := event.(type) {
	case events.AudioDelta:
		if c.playback != nil {
			c.playback.Enqueue(typedEvent.Audio)
		}
	case events.SpeechStarted:
		if c.playback != nil {
			c.playback.Reset()
		}
	default:
		c.aggregator.Fold(event)
	}
}

func (c *Conversation) forwardFrame(frame audio.Frame) {
	if err := c.session.SendAudio(frame); err != nil {
		logger.Warn("failed to forward captured frame", "error", err, "seq", frame.Seq)
	}
}

// StartRecording opens the microphone. Anything the assistant is still
// saying is cut off, matching the push-to-talk behavior of the app.
func (c *Conversation) StartRecording() error {
	if c.capture == nil {
		return fmt.Errorf("no capture device configured")
	}
	if c.playback != nil {
		c.playback.Reset()
	}
	return c.capture.Start(c.baseContext)
}

// StopRecording closes the microphone, discards any input audio the
// backend has not yet processed and silences pending playback.
func (c *Conversation) StopRecording() error {
	if c.capture == nil {
		return fmt.Errorf("no capture device configured")
	}

	var errs error
	if err := c.capture.Stop(); err != nil {
		errs = errors.Join(errs, err)
	}
	if err := c.session.ClearInputBuffer(); err != nil {
		errs = errors.Join(errs, err)
	}
	if c.playback != nil {
		c.playback.Reset()
	}
	return errs
}

func (c *Conversation) IsRecording() bool {
	return c.capture != nil && c.capture.IsCapturing()
}

// State exposes the underlying session state.
func (c *Conversation) State() sessions.State { return c.session.State() }

// Snapshot returns a point-in-time copy of the transcript and the order.
func (c *Conversation) Snapshot() ConversationSnapshot {
	return c.aggregator.Snapshot()
}

// Close tears the conversation down: microphone first so no frame races
// the closing session, then the session, then playback.
func (c *Conversation) Close() error {
	var errs error
	c.closeOnce.Do(func() {
		if c.capture != nil {
			if err := c.capture.Close(); err != nil {
				errs = errors.Join(errs, fmt.Errorf("failed to close capture: %w", err))
			}
		}
		if err := c.session.StopSession(); err != nil {
			errs = errors.Join(errs, fmt.Errorf("failed to stop session: %w", err))
		}
		if c.playback != nil {
			if err := c.playback.Close(); err != nil {
				errs = errors.Join(errs, fmt.Errorf("failed to close playback: %w", err))
			}
		}

		if errs != nil {
			_, span := tracer.Start(context.WithoutCancel(c.baseContext), "close conversation")
			span.RecordError(errs)
			span.SetStatus(codes.Error, errs.Error())
			span.End()
		}
	})
	return errs
}
