package peaks

import (
	"errors"
	"log"
	"sync"

	"github.com/Alexander-D-Karpov/waveview/pkg/types"
)

const defaultChunkSize = 1 << 16

var (
	// ErrChannelTerminated is returned when posting to a terminated channel.
	ErrChannelTerminated = errors.New("compute channel terminated")
	// ErrChannelBusy is returned when the request queue cannot accept more work.
	ErrChannelBusy = errors.New("compute channel busy")
)

// Progress is one refinement message from the worker. Peaks is always a
// complete array for the requested geometry, computed from the sample
// prefix scanned so far; consumers replace, never merge.
type Progress struct {
	Peaks []float64
	Done  bool
}

// Options configures channel creation.
type Options struct {
	// ChunkSize is the number of samples scanned between progress
	// messages. Zero picks a default.
	ChunkSize int
	// Disabled makes New return nil, which callers must treat as the
	// normal "no background compute here" fallback, not an error.
	Disabled bool
	Debug    bool
}

type computeRequest struct {
	samples []float64
	geom    types.Geometry
	chunk   int
}

// Channel runs peak extraction on a worker goroutine and streams
// refinement messages back. All interaction is message passing; the
// worker never shares mutable state with the caller.
type Channel struct {
	requests chan computeRequest
	events   chan Progress
	quit     chan struct{}
	termOnce sync.Once
	chunk    int
	debug    bool
}

// New starts a worker and returns its channel, or nil when background
// compute is disabled. A nil result is an expected fallback trigger.
func New(opts Options) *Channel {
	if opts.Disabled {
		return nil
	}

	chunk := opts.ChunkSize
	if chunk <= 0 {
		chunk = defaultChunkSize
	}

	c := &Channel{
		requests: make(chan computeRequest, 1),
		events:   make(chan Progress, 8),
		quit:     make(chan struct{}),
		chunk:    chunk,
		debug:    opts.Debug,
	}
	go c.run()
	return c
}

// Compute moves the buffer into the worker and queues extraction for the
// given geometry. chunkHint overrides the configured chunk size when
// positive. Posting can fail (consumed buffer, terminated or saturated
// channel); callers are expected to absorb the error and keep whatever
// main-thread peaks they already have.
func (c *Channel) Compute(buf *OwnedBuffer, geom types.Geometry, chunkHint int) error {
	samples, err := buf.Take()
	if err != nil {
		return err
	}

	chunk := chunkHint
	if chunk <= 0 {
		chunk = c.chunk
	}
	req := computeRequest{samples: samples, geom: geom, chunk: chunk}

	select {
	case <-c.quit:
		return ErrChannelTerminated
	case c.requests <- req:
		return nil
	default:
	}

	// Queue full: a newer request supersedes a stale queued one.
	select {
	case <-c.requests:
	default:
	}

	select {
	case <-c.quit:
		return ErrChannelTerminated
	case c.requests <- req:
		return nil
	default:
		return ErrChannelBusy
	}
}

// Events yields progress messages. The channel is closed once the worker
// exits, which happens only after Terminate.
func (c *Channel) Events() <-chan Progress {
	return c.events
}

// Terminate stops the worker and releases it. It is safe to call any
// number of times, including on a channel whose work already finished;
// no progress message is emitted after it returns.
func (c *Channel) Terminate() {
	c.termOnce.Do(func() {
		close(c.quit)
	})
}

func (c *Channel) run() {
	defer close(c.events)

	for {
		select {
		case <-c.quit:
			return
		case req := <-c.requests:
			if !c.process(req) {
				return
			}
		}
	}
}

// process streams prefix peaks for one request. It returns false when
// the worker should exit, and bails out early when a newer request is
// already queued, since that request's results supersede these anyway.
func (c *Channel) process(req computeRequest) bool {
	total := len(req.samples)

	if c.debug {
		log.Printf("[PEAKS] Worker computing %d samples in chunks of %d (%d slots)",
			total, req.chunk, req.geom.SlotCount())
	}

	scanned := 0
	for {
		scanned += req.chunk
		if scanned > total {
			scanned = total
		}

		msg := Progress{
			Peaks: extractPrefix(req.samples, scanned, req.geom),
			Done:  scanned >= total,
		}

		select {
		case <-c.quit:
			return false
		case c.events <- msg:
		}

		if msg.Done {
			return true
		}
		if len(c.requests) > 0 {
			return true
		}
	}
}
