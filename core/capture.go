package voicechat

import (
	"context"
	"fmt"
	"sync"

	"github.com/coffeechat/voicecore/core/audio"
)

// DefaultFrameDuration is the fixed cadence captured audio is chunked to,
// in milliseconds.
const DefaultFrameDuration = 20

// CaptureClient is the device surface the capture pipeline drives.
// Implementations live in core/audio/miniaudio and core/audio/portaudio.
type CaptureClient interface {
	StartCapture(ctx context.Context, onAudio func(audio []byte)) error
	StopCapture() error
	EncodingInfo() audio.EncodingInfo
	Close() error
}

// Capture chunks device audio into fixed-duration frames with strictly
// increasing sequence numbers. Device chunk sizes vary; frame sizes do not.
// Once Stop returns, no further frames are emitted.
type Capture struct {
	client CaptureClient

	encodingInfo audio.EncodingInfo
	frameSize    int

	mu          sync.Mutex
	capturing   bool
	pending     []byte
	seq         uint64
	errReported bool

	onFrame func(frame audio.Frame)
	onError func(error)
}

type CaptureOption func(*Capture)

// WithCaptureErrorCallback registers the callback for device failures. It
// fires at most once per capture attempt; the pipeline does not retry on
// its own.
func WithCaptureErrorCallback(callback func(error)) CaptureOption {
	return func(c *Capture) { c.onError = callback }
}

func NewCapture(client CaptureClient, onFrame func(frame audio.Frame), opts ...CaptureOption) *Capture {
	if onFrame == nil {
		onFrame = func(audio.Frame) {}
	}

	encodingInfo := client.EncodingInfo()
	capture := &Capture{
		client:       client,
		encodingInfo: encodingInfo,
		frameSize:    encodingInfo.BytesPerSecond() * DefaultFrameDuration / 1000,
		onFrame:      onFrame,
		onError:      func(error) {},
	}
	for _, opt := range opts {
		opt(capture)
	}
	return capture
}

func (c *Capture) EncodingInfo() audio.EncodingInfo { return c.encodingInfo }

// Start opens the device stream. Repeated calls while capturing are no-ops.
func (c *Capture) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.capturing {
		c.mu.Unlock()
		return nil
	}
	c.capturing = true
	c.pending = nil
	c.errReported = false
	c.mu.Unlock()

	if err := c.client.StartCapture(ctx, c.onDeviceAudio); err != nil {
		c.mu.Lock()
		c.capturing = false
		c.mu.Unlock()
		c.deviceError(fmt.Errorf("failed to start capture device: %w", err))
		return fmt.Errorf("failed to start capture device: %w", err)
	}
	return nil
}

// Stop closes the device stream. After Stop returns no frame reaches the
// frame callback, even if a device chunk is mid-flight.
func (c *Capture) Stop() error {
	c.mu.Lock()
	if !c.capturing {
		c.mu.Unlock()
		return nil
	}
	c.capturing = false
	c.pending = nil
	c.mu.Unlock()

	if err := c.client.StopCapture(); err != nil {
		return fmt.Errorf("failed to stop capture device: %w", err)
	}
	return nil
}

func (c *Capture) IsCapturing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capturing
}

// onDeviceAudio rechunks whatever the device hands us into exact frames.
// The tail shorter than one frame stays pending until the next chunk.
func (c *Capture) onDeviceAudio(chunk []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.capturing {
		return
	}

	c.pending = append(c.pending, chunk...)
	for len(c.pending) >= c.frameSize {
		data := make([]byte, c.frameSize)
		copy(data, c.pending[:c.frameSize])
		c.pending = c.pending[c.frameSize:]

		c.onFrame(audio.NewFrame(data, c.encodingInfo, c.seq))
		c.seq++
	}
}

// deviceError reports one failure per capture attempt. A retried Start that
// fails again reports again; duplicate errors within one attempt do not.
func (c *Capture) deviceError(err error) {
	c.mu.Lock()
	if c.errReported {
		c.mu.Unlock()
		return
	}
	c.errReported = true
	c.mu.Unlock()

	logger.Error("capture device failed", "error", err)
	c.onError(err)
}

// Close stops capture and releases the device.
func (c *Capture) Close() error {
	stopErr := c.Stop()
	if err := c.client.Close(); err != nil {
		return fmt.Errorf("failed to close capture device: %w", err)
	}
	return stopErr
}
