package voicechat

import (
	"context"
	"fmt"
	"sync"
)

// PlaybackClient is the output device surface the playback pipeline drives.
type PlaybackClient interface {
	SendAudio(audio []byte) error
	ClearBuffer()
	Close() error
}

// Playback renders enqueued audio chunks strictly in order through the
// output device. Reset discards everything queued immediately, including
// whatever the device still buffers, and is safe to call at any time.
type Playback struct {
	client PlaybackClient

	mu         sync.Mutex
	queue      [][]byte
	generation uint64
	stopped    bool

	updateSignal chan struct{}
}

func NewPlayback(client PlaybackClient) *Playback {
	return &Playback{
		client:       client,
		updateSignal: make(chan struct{}, 1),
	}
}

// Start launches the render loop. It returns when the pipeline is stopped
// or the context is cancelled.
func (p *Playback) Start(ctx context.Context) {
	go p.renderLoop(ctx)
}

// Enqueue appends one chunk to the playback queue. Chunks enqueued after
// Stop are dropped.
func (p *Playback) Enqueue(chunk []byte) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.queue = append(p.queue, chunk)
	p.mu.Unlock()
	p.signalUpdate()
}

// Reset empties the queue and the device buffer. Pending chunks are gone by
// the time Reset returns; calling it on an empty pipeline does nothing.
func (p *Playback) Reset() {
	p.mu.Lock()
	p.queue = nil
	p.generation++
	p.mu.Unlock()
	p.signalUpdate()
	p.client.ClearBuffer()
}

// QueuedChunks reports how many chunks await rendering.
func (p *Playback) QueuedChunks() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Stop halts rendering and discards anything still queued.
func (p *Playback) Stop() {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.stopped = true
	p.queue = nil
	p.mu.Unlock()
	p.signalUpdate()
	p.client.ClearBuffer()
}

// Close stops the pipeline and releases the device.
func (p *Playback) Close() error {
	p.Stop()
	if err := p.client.Close(); err != nil {
		return fmt.Errorf("failed to close playback device: %w", err)
	}
	return nil
}

func (p *Playback) renderLoop(ctx context.Context) {
	for {
		chunk, generation, ok := p.nextChunk(ctx)
		if !ok {
			return
		}
		if chunk == nil {
			continue
		}

		// A reset while this chunk was in flight means it belongs to audio
		// the user already cut off.
		p.mu.Lock()
		stale := generation != p.generation
		p.mu.Unlock()
		if stale {
			continue
		}

		if err := p.client.SendAudio(chunk); err != nil {
			logger.Warn("failed to render audio chunk", "error", err)
		}
	}
}

// nextChunk pops the head of the queue, blocking through underruns until a
// chunk arrives or the pipeline stops.
func (p *Playback) nextChunk(ctx context.Context) (chunk []byte, generation uint64, ok bool) {
	for {
		p.mu.Lock()
		if p.stopped {
			p.mu.Unlock()
			return nil, 0, false
		}
		if len(p.queue) > 0 {
			chunk = p.queue[0]
			p.queue = p.queue[1:]
			generation = p.generation
			p.mu.Unlock()
			return chunk, generation, true
		}
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, 0, false
		case <-p.updateSignal:
		}
	}
}

func (p *Playback) signalUpdate() {
	select {
	case p.updateSignal <- struct{}{}:
	default:
	}
}
