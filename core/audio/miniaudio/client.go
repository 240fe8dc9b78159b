// Package miniaudio provides microphone and speaker device clients backed
// by the miniaudio library. One Client serves both the capture and the
// playback side of a conversation.
package miniaudio

import (
	"context"
	"fmt"
	"sync"

	"github.com/gen2brain/malgo"

	"github.com/coffeechat/voicecore/core/audio"
)

type Client struct {
	// audioContext is only saved to be able to uninitialize it, it is an
	// ownership thing
	audioContext *malgo.AllocatedContext
	playbackClient
	captureClient

	closeOnce sync.Once
}

func NewClient() (*Client, error) {
	audioCtx, err := malgo.InitContext(nil, malgo.ContextConfig{}, func(message string) {})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize audio context: %w", err)
	}

	client := Client{audioContext: audioCtx}

	if err := client.playbackClient.init(audioCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize playback device: %w", err)
	}
	if err := client.playbackClient.start(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to start playback device: %w", err)
	}

	if err := client.captureClient.init(audioCtx); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to initialize capture device: %w", err)
	}

	return &client, nil
}

func (c *Client) StartCapture(_ context.Context, onAudio func(audio []byte)) error {
	return c.captureClient.start(onAudio)
}

func (c *Client) StopCapture() error {
	return c.captureClient.stop()
}

func (c *Client) SendAudio(audio []byte) error {
	return c.playbackClient.sendAudio(audio)
}

func (c *Client) ClearBuffer() {
	c.playbackClient.clearBuffer()
}

func (c *Client) EncodingInfo() audio.EncodingInfo {
	return audio.GetDefaultEncodingInfo()
}

// Close releases both devices and the audio context. The same Client backs
// capture and playback, so Close may be reached from either teardown path.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		_ = c.captureClient.uninit()
		_ = c.playbackClient.uninit()
		if c.audioContext != nil {
			_ = c.audioContext.Uninit()
			c.audioContext.Free()
		}
	})
	return nil
}
