package voicechat

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/coffeechat/voicecore/core/audio"
)

type fakeCaptureClient struct {
	mu       sync.Mutex
	onAudio  func([]byte)
	started  bool
	stopped  bool
	closed   bool
	startErr error
}

func (f *fakeCaptureClient) StartCapture(ctx context.Context, onAudio func(audio []byte)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.started = true
	f.onAudio = onAudio
	return nil
}

func (f *fakeCaptureClient) StopCapture() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return nil
}

func (f *fakeCaptureClient) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

func (f *fakeCaptureClient) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeCaptureClient) push(chunk []byte) {
	f.mu.Lock()
	onAudio := f.onAudio
	f.mu.Unlock()
	if onAudio != nil {
		onAudio(chunk)
	}
}

// frameSize is 20ms of 24kHz 16-bit mono audio.
const testFrameSize = audio.DefaultSampleRate * 2 * DefaultFrameDuration / 1000

func TestCaptureChunksToFixedFrames(t *testing.T) {
	client := &fakeCaptureClient{}

	var mu sync.Mutex
	frames := []audio.Frame{}
	capture := NewCapture(client, func(frame audio.Frame) {
		mu.Lock()
		frames = append(frames, frame)
		mu.Unlock()
	})

	if err := capture.Start(context.Background()); err != nil {
		t.Fatalf("failed to start capture: %v", err)
	}

	// Device chunks never line up with the frame cadence.
	client.push(make([]byte, testFrameSize+100))
	client.push(make([]byte, testFrameSize-100))
	client.push(make([]byte, testFrameSize))

	mu.Lock()
	defer mu.Unlock()
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames from 3 frame-lengths of audio, got %d", len(frames))
	}
	for i, frame := range frames {
		if len(frame.Data) != testFrameSize {
			t.Fatalf("expected frame %d to hold %d bytes, got %d", i, testFrameSize, len(frame.Data))
		}
		if frame.Seq != uint64(i) {
			t.Fatalf("expected frame %d to carry seq %d, got %d", i, i, frame.Seq)
		}
	}
}

func TestCaptureEmitsNoFramesAfterStop(t *testing.T) {
	client := &fakeCaptureClient{}

	var mu sync.Mutex
	frames := 0
	capture := NewCapture(client, func(audio.Frame) {
		mu.Lock()
		frames++
		mu.Unlock()
	})

	if err := capture.Start(context.Background()); err != nil {
		t.Fatalf("failed to start capture: %v", err)
	}
	client.push(make([]byte, testFrameSize))

	if err := capture.Stop(); err != nil {
		t.Fatalf("failed to stop capture: %v", err)
	}
	client.push(make([]byte, 4*testFrameSize))

	mu.Lock()
	defer mu.Unlock()
	if frames != 1 {
		t.Fatalf("expected no frames after stop, got %d total", frames)
	}
}

func TestCapturePendingTailDiscardedOnStop(t *testing.T) {
	client := &fakeCaptureClient{}

	var mu sync.Mutex
	frames := 0
	capture := NewCapture(client, func(audio.Frame) {
		mu.Lock()
		frames++
		mu.Unlock()
	})

	if err := capture.Start(context.Background()); err != nil {
		t.Fatalf("failed to start capture: %v", err)
	}
	client.push(make([]byte, testFrameSize/2))

	if err := capture.Stop(); err != nil {
		t.Fatalf("failed to stop capture: %v", err)
	}
	if err := capture.Start(context.Background()); err != nil {
		t.Fatalf("failed to restart capture: %v", err)
	}
	client.push(make([]byte, testFrameSize/2))

	mu.Lock()
	defer mu.Unlock()
	// The half frame from before the stop must not combine with audio
	// captured after the restart.
	if frames != 0 {
		t.Fatalf("expected stale tail to be discarded on stop, got %d frames", frames)
	}
}

func TestCaptureDeviceErrorReportedPerAttempt(t *testing.T) {
	client := &fakeCaptureClient{startErr: fmt.Errorf("device busy")}

	errorsSeen := 0
	capture := NewCapture(client, nil, WithCaptureErrorCallback(func(error) {
		errorsSeen++
	}))

	if err := capture.Start(context.Background()); err == nil {
		t.Fatalf("expected start to fail")
	}
	if errorsSeen != 1 {
		t.Fatalf("expected one error callback for the first attempt, got %d", errorsSeen)
	}

	// A retry that fails again must be reported again, not swallowed.
	if err := capture.Start(context.Background()); err == nil {
		t.Fatalf("expected retry to fail")
	}
	if errorsSeen != 2 {
		t.Fatalf("expected a second error callback for the retry, got %d", errorsSeen)
	}
	if capture.IsCapturing() {
		t.Fatalf("expected capture to be stopped after a device error")
	}
}
