package peaks

import (
	"errors"
	"sync"
)

// ErrBufferConsumed is returned when a buffer is taken twice.
var ErrBufferConsumed = errors.New("sample buffer already consumed")

// OwnedBuffer carries samples handed to the background channel with
// move semantics: once taken, the holder's reference is gone for good.
// Callers that still need the samples must pass a copy (see CopyOf).
type OwnedBuffer struct {
	mu       sync.Mutex
	samples  []float64
	consumed bool
}

// NewOwnedBuffer wraps samples without copying. The caller must not
// touch the slice afterwards.
func NewOwnedBuffer(samples []float64) *OwnedBuffer {
	return &OwnedBuffer{samples: samples}
}

// CopyOf wraps a defensive copy of samples, leaving the original usable.
func CopyOf(samples []float64) *OwnedBuffer {
	dup := make([]float64, len(samples))
	copy(dup, samples)
	return &OwnedBuffer{samples: dup}
}

// Take moves the samples out of the buffer. The second and any later
// call returns ErrBufferConsumed.
func (b *OwnedBuffer) Take() ([]float64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.consumed {
		return nil, ErrBufferConsumed
	}
	b.consumed = true
	samples := b.samples
	b.samples = nil
	return samples, nil
}

// Consumed reports whether the samples were already taken.
func (b *OwnedBuffer) Consumed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.consumed
}
