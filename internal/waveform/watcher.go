package waveform

import (
	"log"
	"sync"
	"time"
)

// DefaultDebounce is how long the watcher waits after the last raw
// resize callback before committing a new width.
const DefaultDebounce = 150 * time.Millisecond

// GeometryWatcher turns a stream of raw container resize callbacks into
// debounced integer width commits. Sub-pixel jitter during an
// interactive resize therefore produces one commit, not a storm of
// re-extractions.
type GeometryWatcher struct {
	mu       sync.Mutex
	delay    time.Duration
	fallback int
	width    int
	pending  int
	timer    *time.Timer
	onWidth  func(int)
	observed bool
	warnOnce sync.Once
	debug    bool
}

func NewGeometryWatcher(delay time.Duration, fallbackWidth int, debug bool) *GeometryWatcher {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &GeometryWatcher{
		delay:    delay,
		fallback: fallbackWidth,
		width:    fallbackWidth,
		debug:    debug,
	}
}

// OnWidth registers the commit callback. It fires off the caller's
// goroutine after the debounce delay.
func (w *GeometryWatcher) OnWidth(callback func(int)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onWidth = callback
}

// Observe feeds one raw width reading from the resize source.
func (w *GeometryWatcher) Observe(width float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.observed = true
	w.pending = int(width)
	if w.pending < 1 {
		w.pending = 1
	}

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.delay, w.commit)
}

func (w *GeometryWatcher) commit() {
	w.mu.Lock()
	width := w.pending
	changed := width != w.width
	w.width = width
	callback := w.onWidth
	w.mu.Unlock()

	if !changed {
		return
	}
	if w.debug {
		log.Printf("[GEOMETRY] Committed width %d", width)
	}
	if callback != nil {
		callback(width)
	}
}

// Width returns the last committed width.
func (w *GeometryWatcher) Width() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.width
}

// UseFallback is called when no resize source is attached (headless
// hosts). It warns once and commits the configured static width.
func (w *GeometryWatcher) UseFallback() {
	w.mu.Lock()
	if w.observed {
		w.mu.Unlock()
		return
	}
	width := w.fallback
	callback := w.onWidth
	w.mu.Unlock()

	w.warnOnce.Do(func() {
		log.Printf("[GEOMETRY] No resize source available, using static width %d", width)
	})
	if callback != nil {
		callback(width)
	}
}

// Stop cancels any pending commit.
func (w *GeometryWatcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
