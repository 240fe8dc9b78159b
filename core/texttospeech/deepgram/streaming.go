package deepgram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/coffeechat/voicecore/core/texttospeech"
)

type speechStream struct {
	ws *websocket.Conn
	mu sync.Mutex

	options texttospeech.TextToSpeechOptions

	textComplete bool
	cancelled    bool
	closed       bool
}

// NewSpeechStream opens a streaming synthesis session for one assistant
// turn. The stream closes itself once the text sent before EndOfText has
// been fully synthesized.
func (c *TextToSpeechClient) NewSpeechStream(ctx context.Context, opts ...texttospeech.TextToSpeechOption) (texttospeech.SpeechStream, error) {
	stream := &speechStream{
		options: texttospeech.TextToSpeechOptions{
			SpeechAudioCallback: func([]byte) {},
			SpeechEndedCallback: func() {},
			ErrorCallback:       func(error) {},
			EncodingInfo:        c.encodingInfo,
		},
	}
	for _, opt := range opts {
		opt(&stream.options)
	}

	var err error
	if stream.ws, err = c.connectWebsocket(stream.options); err != nil {
		return nil, fmt.Errorf("failed to open websocket: %w", err)
	}

	go stream.processIncomingMessages(ctx)

	return stream, nil
}

func (c *TextToSpeechClient) connectWebsocket(options texttospeech.TextToSpeechOptions) (*websocket.Conn, error) {
	urlValues := url.Values{}
	urlValues.Set("encoding", options.EncodingInfo.Format.Name())
	urlValues.Set("sample_rate", strconv.Itoa(options.EncodingInfo.SampleRate))
	urlValues.Set("model", string(c.voice))
	urlValues.Set("container", "none")

	conn, _, err := websocket.DefaultDialer.Dial(
		(&url.URL{
			Scheme: "wss",
			Host:   "api.deepgram.com", Path: "/v1/speak",
			RawQuery: urlValues.Encode(),
		}).String(),
		http.Header{"Authorization": {"token " + c.apiKey}})
	if err != nil {
		return nil, fmt.Errorf("failed to open socket connection to deepgram: %w", err)
	}

	return conn, nil
}

func (r *speechStream) processIncomingMessages(ctx context.Context) {
	_, span := tracer.Start(ctx, "synthesize speech")
	defer span.End()

	for {
		msgType, msg, err := r.ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				logger.Warn("websocket read error", "error", err)
				span.RecordError(err)
				r.options.ErrorCallback(err)
			}
			_ = r.Close()
			return
		}

		switch msgType {
		case websocket.BinaryMessage:
			if len(msg) > 0 {
				r.options.SpeechAudioCallback(msg)
			}
		case websocket.TextMessage:
			var parsedMsg struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(msg, &parsedMsg); err != nil {
				logger.Warn("failed to unmarshal deepgram message", "error", err)
				continue
			}

			switch parsedMsg.Type {
			case "Flushed":
				complete := func() bool {
					r.mu.Lock()
					defer r.mu.Unlock()
					return r.textComplete && !r.cancelled
				}()
				if complete {
					r.options.SpeechEndedCallback()
					_ = r.Close()
					return
				}
			}
		}
	}
}

func (r *speechStream) SendText(text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.writableLocked(); err != nil {
		return err
	}
	if err := r.sendLocked(speakMsg(text)); err != nil {
		return fmt.Errorf("failed to send text to deepgram: %w", err)
	}
	return nil
}

func (r *speechStream) EndOfText() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.textComplete {
		return nil
	}
	if err := r.writableLocked(); err != nil {
		return err
	}

	r.textComplete = true
	if err := r.sendLocked(flushMsg); err != nil {
		return fmt.Errorf("failed to flush deepgram buffer: %w", err)
	}
	return nil
}

func (r *speechStream) Cancel() error {
	r.mu.Lock()
	if r.closed || r.cancelled {
		r.mu.Unlock()
		return nil
	}
	r.cancelled = true
	err := r.sendLocked(clearMsg)
	r.mu.Unlock()

	closeErr := r.Close()
	if err != nil {
		return fmt.Errorf("failed to clear deepgram buffer: %w", errors.Join(err, closeErr))
	}
	return closeErr
}

func (r *speechStream) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true
	if err := r.ws.WriteJSON(closeMsg); err != nil {
		if aggressiveCloseErr := r.ws.Close(); aggressiveCloseErr != nil {
			return fmt.Errorf("failed to close websocket: %w", errors.Join(err, aggressiveCloseErr))
		}
	}
	return nil
}

func (r *speechStream) writableLocked() error {
	if r.closed {
		return fmt.Errorf("speech stream closed")
	} else if r.cancelled {
		return fmt.Errorf("speech stream cancelled")
	} else if r.textComplete {
		return fmt.Errorf("speech stream text already completed")
	}
	return nil
}

func (r *speechStream) sendLocked(msg any) error {
	if r.ws == nil {
		return fmt.Errorf("websocket connection closed")
	}
	return r.ws.WriteJSON(msg)
}

type websocketMessage struct {
	Type string `json:"type"`
}

type websocketTextMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func speakMsg(text string) websocketTextMessage {
	return websocketTextMessage{Type: "Speak", Text: text}
}

var (
	flushMsg = websocketMessage{Type: "Flush"}
	clearMsg = websocketMessage{Type: "Clear"}
	closeMsg = websocketMessage{Type: "Close"}
)
