// Package realtime implements the single-socket backend adapter. One
// websocket carries both directions: captured audio and control messages go
// out, synthesized audio and conversation events come back. The peer does
// all the heavy lifting; this adapter is a codec loop around the session
// state machine.
package realtime

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/coffeechat/voicecore/core/audio"
	"github.com/coffeechat/voicecore/core/events"
	"github.com/coffeechat/voicecore/core/protocol"
	"github.com/coffeechat/voicecore/core/sessions"
)

// wireConn is the slice of *websocket.Conn the adapter needs. Tests
// substitute an in-memory implementation.
type wireConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type dialer func(ctx context.Context) (wireConn, error)

// Session is a realtime backend session. The zero value is not usable;
// construct with NewSession.
type Session struct {
	*sessions.Machine

	dial dialer

	// writeMu serializes outbound writes with lifecycle transitions, so a
	// frame racing StopSession can never reach the transport after the
	// close message.
	writeMu sync.Mutex
	conn    wireConn
}

type Option func(*Session)

// WithEndpoint points the session at a middle-tier websocket URL,
// authenticating with the given bearer token. Token may be empty.
func WithEndpoint(url, token string) Option {
	return func(s *Session) {
		s.dial = func(ctx context.Context) (wireConn, error) {
			header := http.Header{}
			if token != "" {
				header.Set("Authorization", "Bearer "+token)
			}
			conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
			if err != nil {
				return nil, fmt.Errorf("failed to open socket connection to %s: %w", url, err)
			}
			return conn, nil
		}
	}
}

func NewSession(opts ...Option) *Session {
	session := &Session{Machine: sessions.NewMachine()}
	for _, opt := range opts {
		opt(session)
	}
	return session
}

// StartSession dials the backend, performs the configuration handshake and
// starts the read loop. It returns once the session is active.
func (s *Session) StartSession(ctx context.Context, config sessions.Config) error {
	ctx, span := tracer.Start(ctx, "start realtime session")
	defer span.End()

	if s.dial == nil {
		return fmt.Errorf("no endpoint configured")
	}
	if err := s.Transition(sessions.StateConnecting); err != nil {
		return err
	}

	conn, err := s.dial(ctx)
	if err != nil {
		span.RecordError(err)
		s.Fail(err)
		return fmt.Errorf("failed to connect: %w", err)
	}
	s.writeMu.Lock()
	s.conn = conn
	s.writeMu.Unlock()

	configure, err := protocol.EncodeConfigure(config.SampleRate, config.TranscriptionEnabled, config.Tools)
	if err != nil {
		s.teardown()
		s.Fail(err)
		return fmt.Errorf("failed to encode session configuration: %w", err)
	}
	if err := s.write(configure); err != nil {
		s.teardown()
		s.Fail(err)
		return fmt.Errorf("failed to send session configuration: %w", err)
	}

	if err := s.awaitConfigured(conn); err != nil {
		s.teardown()
		s.Fail(err)
		return err
	}

	if err := s.Transition(sessions.StateActive); err != nil {
		s.teardown()
		return err
	}
	go s.readLoop(conn)

	return nil
}

// awaitConfigured consumes messages until the handshake acknowledgment.
// Anything else arriving first belongs to no active session and is dropped.
func (s *Session) awaitConfigured(conn wireConn) error {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("connection lost during handshake: %w", err)
		}

		switch event := protocol.Decode(msg).(type) {
		case events.SessionConfigured:
			return nil
		case events.Error:
			return fmt.Errorf("backend rejected configuration: %s", event.Message)
		}
	}
}

func (s *Session) readLoop(conn wireConn) {
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if state := s.State(); state == sessions.StateClosing || state == sessions.StateClosed {
				return
			}
			s.Fail(fmt.Errorf("connection lost: %w", err))
			return
		}

		event := protocol.Decode(msg)
		if _, ok := event.(events.SessionConfigured); ok {
			continue
		}
		if unhandled, ok := event.(events.Unhandled); ok {
			logger.Debug("ignoring unknown wire message", "wire_type", unhandled.WireType)
		}
		s.Dispatch(event)
	}
}

// SendAudio forwards one captured frame. Frames sent while the session is
// not active are dropped without error.
func (s *Session) SendAudio(frame audio.Frame) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.State() != sessions.StateActive {
		return nil
	}

	msg, err := protocol.EncodeAppendAudio(frame)
	if err != nil {
		return fmt.Errorf("failed to encode audio frame: %w", err)
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		return fmt.Errorf("failed to send audio frame: %w", err)
	}
	return nil
}

// ClearInputBuffer asks the backend to discard unprocessed input audio.
func (s *Session) ClearInputBuffer() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.State() != sessions.StateActive {
		return nil
	}

	msg, err := protocol.EncodeClearAudio()
	if err != nil {
		return fmt.Errorf("failed to encode clear message: %w", err)
	}
	if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
		return fmt.Errorf("failed to send clear message: %w", err)
	}
	return nil
}

// StopSession closes the session cleanly. It is safe to call from any
// state; calls after the session is terminal do nothing.
func (s *Session) StopSession() error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.State().Terminal() || s.State() == sessions.StateIdle {
		return nil
	}
	if err := s.Transition(sessions.StateClosing); err != nil {
		return err
	}

	var closeErr error
	if s.conn != nil {
		closeErr = s.conn.Close()
		s.conn = nil
	}
	if err := s.Transition(sessions.StateClosed); err != nil {
		return err
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close connection: %w", closeErr)
	}
	return nil
}

func (s *Session) write(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Session) teardown() {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
}
