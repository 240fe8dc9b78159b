package voicechat

import (
	"context"
	"sync"
	"testing"

	"github.com/coffeechat/voicecore/core/audio"
	"github.com/coffeechat/voicecore/core/events"
	"github.com/coffeechat/voicecore/core/sessions"
)

type fakeSession struct {
	*sessions.Machine

	mu         sync.Mutex
	started    bool
	stopped    bool
	cleared    int
	frames     []audio.Frame
	configUsed sessions.Config
}

func newFakeSession() *fakeSession {
	return &fakeSession{Machine: sessions.NewMachine()}
}

func (f *fakeSession) StartSession(ctx context.Context, config sessions.Config) error {
	f.mu.Lock()
	f.started = true
	f.configUsed = config
	f.mu.Unlock()
	if err := f.Transition(sessions.StateConnecting); err != nil {
		return err
	}
	return f.Transition(sessions.StateActive)
}

func (f *fakeSession) SendAudio(frame audio.Frame) error {
	if f.State() != sessions.StateActive {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frames = append(f.frames, frame)
	return nil
}

func (f *fakeSession) ClearInputBuffer() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
	return nil
}

func (f *fakeSession) StopSession() error {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
	if f.State() == sessions.StateActive {
		if err := f.Transition(sessions.StateClosing); err != nil {
			return err
		}
		return f.Transition(sessions.StateClosed)
	}
	return nil
}

func (f *fakeSession) activate(t *testing.T) {
	t.Helper()
	if err := f.Transition(sessions.StateConnecting); err != nil {
		t.Fatalf("failed to transition to connecting: %v", err)
	}
	if err := f.Transition(sessions.StateActive); err != nil {
		t.Fatalf("failed to transition to active: %v", err)
	}
}

func TestAssistantAudioRoutesToPlayback(t *testing.T) {
	session := newFakeSession()
	client := &fakePlaybackClient{}
	conversation := NewConversation(session, WithPlaybackClient(client))

	session.activate(t)

	session.Dispatch(events.NewAudioDelta("ev-1", []byte{1, 2}))
	session.Dispatch(events.NewAudioDelta("ev-2", []byte{3, 4}))

	// The render loop was never started, so the queue holds everything.
	if got := conversation.playback.QueuedChunks(); got != 2 {
		t.Fatalf("expected 2 queued chunks, got %d", got)
	}
}

func TestBargeInEmptiesPlaybackQueue(t *testing.T) {
	session := newFakeSession()
	client := &fakePlaybackClient{}
	conversation := NewConversation(session, WithPlaybackClient(client))

	session.activate(t)

	session.Dispatch(events.NewAudioDelta("ev-1", []byte{1, 2}))
	session.Dispatch(events.NewAudioDelta("ev-2", []byte{3, 4}))
	session.Dispatch(events.NewSpeechStarted("ev-3"))

	if got := conversation.playback.QueuedChunks(); got != 0 {
		t.Fatalf("expected empty playback queue after barge-in, got %d chunks", got)
	}

	client.mu.Lock()
	cleared := client.cleared
	client.mu.Unlock()
	if cleared == 0 {
		t.Fatalf("expected the device buffer to be cleared on barge-in")
	}
}

func TestCapturedFramesReachTheSession(t *testing.T) {
	session := newFakeSession()
	captureDevice := &fakeCaptureClient{}
	conversation := NewConversation(session, WithCaptureClient(captureDevice))

	if err := conversation.Start(context.Background()); err != nil {
		t.Fatalf("failed to start conversation: %v", err)
	}
	if err := conversation.StartRecording(); err != nil {
		t.Fatalf("failed to start recording: %v", err)
	}

	captureDevice.push(make([]byte, 2*testFrameSize))

	session.mu.Lock()
	frames := len(session.frames)
	session.mu.Unlock()
	if frames != 2 {
		t.Fatalf("expected 2 frames to reach the session, got %d", frames)
	}
}

func TestStopRecordingClearsInputBuffer(t *testing.T) {
	session := newFakeSession()
	captureDevice := &fakeCaptureClient{}
	playbackDevice := &fakePlaybackClient{}
	conversation := NewConversation(session,
		WithCaptureClient(captureDevice), WithPlaybackClient(playbackDevice))

	if err := conversation.Start(context.Background()); err != nil {
		t.Fatalf("failed to start conversation: %v", err)
	}
	if err := conversation.StartRecording(); err != nil {
		t.Fatalf("failed to start recording: %v", err)
	}
	if !conversation.IsRecording() {
		t.Fatalf("expected recording to be on")
	}

	if err := conversation.StopRecording(); err != nil {
		t.Fatalf("failed to stop recording: %v", err)
	}

	session.mu.Lock()
	cleared := session.cleared
	session.mu.Unlock()
	if cleared != 1 {
		t.Fatalf("expected one input buffer clear, got %d", cleared)
	}
	if conversation.IsRecording() {
		t.Fatalf("expected recording to be off")
	}
}

func TestSessionConfigDeclaresUpdateOrderTool(t *testing.T) {
	session := newFakeSession()
	conversation := NewConversation(session)

	if err := conversation.Start(context.Background()); err != nil {
		t.Fatalf("failed to start conversation: %v", err)
	}

	session.mu.Lock()
	config := session.configUsed
	session.mu.Unlock()

	found := false
	for _, tool := range config.Tools {
		if tool.Name == "update_order" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected the update_order tool to be declared")
	}
	if config.Instructions == "" {
		t.Fatalf("expected default instructions to be set")
	}
}

func TestSnapshotFollowsOrderUpdates(t *testing.T) {
	session := newFakeSession()
	updates := 0
	conversation := NewConversation(session, WithSnapshotCallback(func() {
		updates++
	}))

	session.activate(t)
	session.Dispatch(events.NewToolResponse("ev-1", "update_order",
		`{"items":[{"item":"Cappuccino","size":"Large","quantity":1,"price":5.50}]}`))

	snapshot := conversation.Snapshot()
	if len(snapshot.Order.Lines) != 1 {
		t.Fatalf("expected 1 order line, got %d", len(snapshot.Order.Lines))
	}
	if snapshot.Order.Lines[0].DisplayLabel != "Large Cappuccino" {
		t.Fatalf("expected display label %q, got %q", "Large Cappuccino", snapshot.Order.Lines[0].DisplayLabel)
	}
	if updates != 1 {
		t.Fatalf("expected one snapshot update, got %d", updates)
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	session := newFakeSession()
	conversation := NewConversation(session, WithPlaybackClient(&fakePlaybackClient{}))

	if err := conversation.Start(context.Background()); err != nil {
		t.Fatalf("failed to start conversation: %v", err)
	}
	if err := conversation.Close(); err != nil {
		t.Fatalf("failed to close conversation: %v", err)
	}
	if err := conversation.Close(); err != nil {
		t.Fatalf("expected repeated close to be a no-op, got %v", err)
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	if !session.stopped {
		t.Fatalf("expected the session to be stopped on close")
	}
}
