package waveform

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widthRecorder struct {
	mu      sync.Mutex
	commits []int
}

func (r *widthRecorder) record(width int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commits = append(r.commits, width)
}

func (r *widthRecorder) snapshot() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.commits...)
}

func TestWatcherDebouncesBursts(t *testing.T) {
	w := NewGeometryWatcher(30*time.Millisecond, 600, false)
	defer w.Stop()

	rec := &widthRecorder{}
	w.OnWidth(rec.record)

	// An interactive resize delivers a burst of raw readings; only the
	// final one survives the debounce window.
	for _, width := range []float64{610.2, 625.8, 640.1, 660.9, 680.4} {
		w.Observe(width)
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(100 * time.Millisecond)

	commits := rec.snapshot()
	require.Len(t, commits, 1)
	assert.Equal(t, 680, commits[0])
	assert.Equal(t, 680, w.Width())
}

func TestWatcherSkipsUnchangedWidth(t *testing.T) {
	w := NewGeometryWatcher(20*time.Millisecond, 600, false)
	defer w.Stop()

	rec := &widthRecorder{}
	w.OnWidth(rec.record)

	w.Observe(800)
	time.Sleep(80 * time.Millisecond)
	w.Observe(800.7) // truncates to the committed 800
	time.Sleep(80 * time.Millisecond)

	assert.Equal(t, []int{800}, rec.snapshot())
}

func TestWatcherClampsToOnePixel(t *testing.T) {
	w := NewGeometryWatcher(10*time.Millisecond, 600, false)
	defer w.Stop()

	rec := &widthRecorder{}
	w.OnWidth(rec.record)

	w.Observe(-40)
	time.Sleep(60 * time.Millisecond)

	assert.Equal(t, []int{1}, rec.snapshot())
}

func TestWatcherFallback(t *testing.T) {
	w := NewGeometryWatcher(10*time.Millisecond, 512, false)
	defer w.Stop()

	rec := &widthRecorder{}
	w.OnWidth(rec.record)

	w.UseFallback()
	assert.Equal(t, []int{512}, rec.snapshot())

	// Once a real resize source reported in, the fallback stays quiet.
	w.Observe(700)
	time.Sleep(60 * time.Millisecond)
	w.UseFallback()

	assert.Equal(t, []int{512, 700}, rec.snapshot())
}

func TestWatcherStopCancelsPending(t *testing.T) {
	w := NewGeometryWatcher(30*time.Millisecond, 600, false)

	rec := &widthRecorder{}
	w.OnWidth(rec.record)

	w.Observe(900)
	w.Stop()
	time.Sleep(80 * time.Millisecond)

	assert.Empty(t, rec.snapshot())
}
