package waveform

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/Alexander-D-Karpov/waveview/internal/config"
	"github.com/Alexander-D-Karpov/waveview/internal/peaks"
	"github.com/Alexander-D-Karpov/waveview/pkg/types"
)

// Controller orchestrates one waveform session per loaded source:
// resolve bytes, decode once, extract a fast synchronous pass, then let
// the background channel refine it. Published peaks always follow
// last-write-wins; consumers never observe a partially written array.
type Controller struct {
	mu sync.Mutex

	cfg      *config.Config
	resolver Resolver
	decoder  Decoder
	factory  func() *peaks.Channel

	samples  []float64
	length   time.Duration
	geom     types.Geometry
	peaks    []float64
	channel  *peaks.Channel
	session  uint64
	debug    bool
	onPeaks  func([]float64)
	onError  func(ErrClass, string)
	onLoaded func(time.Duration)
}

// Option overrides a collaborator, mainly for tests.
type Option func(*Controller)

func WithResolver(r Resolver) Option {
	return func(c *Controller) { c.resolver = r }
}

func WithDecoder(d Decoder) Option {
	return func(c *Controller) { c.decoder = d }
}

func WithChannelFactory(f func() *peaks.Channel) Option {
	return func(c *Controller) { c.factory = f }
}

func NewController(cfg *config.Config, opts ...Option) *Controller {
	c := &Controller{
		cfg:      cfg,
		resolver: NewResolver(cfg),
		decoder:  NewDecoder(),
		debug:    cfg.Debug,
		geom: types.Geometry{
			Width:    cfg.Waveform.FallbackWidth,
			BarWidth: cfg.Waveform.BarWidth,
			Gap:      cfg.Waveform.Gap,
		},
	}
	c.factory = func() *peaks.Channel {
		return peaks.New(peaks.Options{
			ChunkSize: cfg.Waveform.WorkerChunkSize,
			Disabled:  cfg.Waveform.DisableWorker,
			Debug:     cfg.Debug,
		})
	}

	for _, opt := range opts {
		opt(c)
	}
	return c
}

// OnPeaksUpdated registers the publication callback. It fires once for
// the synchronous pass and once per background refinement; each payload
// fully replaces the previous one.
func (c *Controller) OnPeaksUpdated(callback func([]float64)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPeaks = callback
}

// OnError registers the load failure callback. It fires at most once per
// load attempt, with a classification and a human readable message.
func (c *Controller) OnError(callback func(ErrClass, string)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onError = callback
}

// OnLoaded registers a callback fired when a source finishes decoding,
// with the decoded duration.
func (c *Controller) OnLoaded(callback func(time.Duration)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onLoaded = callback
}

// Load resolves and decodes a source, then publishes peaks for it.
// Accepted source types are a URL-or-path string, a raw []byte buffer,
// or an io.Reader. Anything else is a silent no-op by design: no peaks,
// no error, so future source kinds degrade gracefully instead of
// breaking callers.
func (c *Controller) Load(ctx context.Context, source interface{}) {
	switch src := source.(type) {
	case string:
		data, err := c.resolver.Resolve(ctx, src)
		if err != nil {
			c.fail(ErrClassNetwork, err)
			return
		}
		c.LoadBytes(data)
	case []byte:
		c.LoadBytes(src)
	case io.Reader:
		data, err := io.ReadAll(src)
		if err != nil {
			c.fail(ErrClassNetwork, err)
			return
		}
		c.LoadBytes(data)
	default:
		if c.debug {
			log.Printf("[WAVEFORM] Ignoring unsupported source type %T", source)
		}
	}
}

// LoadBytes decodes raw audio bytes and publishes peaks for them.
func (c *Controller) LoadBytes(data []byte) {
	decoded, err := c.decoder.Decode(data)
	if err != nil {
		c.fail(Classify(err, ErrClassDecode), err)
		return
	}
	c.loadDecoded(decoded)
}

// LoadPCM feeds an already-decoded analysis channel straight into the
// pipeline. The controller is agnostic to how the samples arrived.
func (c *Controller) LoadPCM(samples []float64, sampleRate int) {
	c.loadDecoded(Decoded{Samples: samples, SampleRate: sampleRate})
}

func (c *Controller) loadDecoded(decoded Decoded) {
	c.mu.Lock()

	// Stale progress from the previous source must never clobber the
	// new one, so the old channel dies before anything else happens.
	c.terminateLocked()
	c.session++

	c.samples = decoded.Samples
	c.length = decoded.Length()
	geom := c.geom

	fast := peaks.Extract(c.samples, geom)
	c.peaks = fast
	onPeaks := c.onPeaks
	onLoaded := c.onLoaded
	length := c.length

	if c.debug {
		log.Printf("[WAVEFORM] Session %d ready: %d samples, %d slots, length %v",
			c.session, len(c.samples), geom.SlotCount(), c.length)
	}

	c.dispatchLocked(geom)
	c.mu.Unlock()

	if onLoaded != nil {
		onLoaded(length)
	}
	if onPeaks != nil {
		onPeaks(fast)
	}
}

// SetGeometry re-extracts for a changed display geometry using the
// retained buffer; the audio is never re-decoded. Width changes of at
// most one pixel are ignored unless bar width or gap changed too, so
// responsive resize jitter cannot trigger recomputation storms.
func (c *Controller) SetGeometry(geom types.Geometry) {
	c.mu.Lock()

	widthDelta := geom.Width - c.geom.Width
	if widthDelta < 0 {
		widthDelta = -widthDelta
	}
	barsChanged := geom.BarWidth != c.geom.BarWidth || geom.Gap != c.geom.Gap
	if widthDelta <= 1 && !barsChanged {
		c.mu.Unlock()
		return
	}

	c.geom = geom
	if c.samples == nil {
		c.mu.Unlock()
		return
	}

	fast := peaks.Extract(c.samples, geom)
	c.peaks = fast
	onPeaks := c.onPeaks

	if c.debug {
		log.Printf("[WAVEFORM] Geometry change: width %d, %d slots", geom.Width, geom.SlotCount())
	}

	c.dispatchLocked(geom)
	c.mu.Unlock()

	if onPeaks != nil {
		onPeaks(fast)
	}
}

// dispatchLocked hands a defensive copy of the retained samples to the
// background channel. The copy is required by the channel's move
// semantics: the controller still needs the original for the next
// geometry change. Any posting failure falls back silently to the
// synchronous peaks already published.
func (c *Controller) dispatchLocked(geom types.Geometry) {
	created := false
	if c.channel == nil {
		c.channel = c.factory()
		created = c.channel != nil
	}
	if c.channel == nil {
		return
	}

	buf := peaks.CopyOf(c.samples)
	if err := c.channel.Compute(buf, geom, 0); err != nil {
		if c.debug {
			log.Printf("[WAVEFORM] Background compute unavailable, keeping fast peaks: %v", err)
		}
		return
	}

	if created {
		go c.listen(c.channel, c.session)
	}
}

// listen applies refinement messages for one session. It stops as soon
// as the session moves on; events from a terminated channel are never
// applied because the session counter has already advanced by the time
// Terminate returns to the caller. Messages computed for a geometry the
// session has since left behind are skipped: the re-dispatch that
// followed the geometry change supersedes them.
func (c *Controller) listen(ch *peaks.Channel, session uint64) {
	for ev := range ch.Events() {
		c.mu.Lock()
		if c.session != session {
			c.mu.Unlock()
			return
		}
		if len(ev.Peaks) != c.geom.SlotCount() {
			c.mu.Unlock()
			continue
		}
		c.peaks = ev.Peaks
		callback := c.onPeaks
		c.mu.Unlock()

		if callback != nil {
			callback(ev.Peaks)
		}
	}
}

func (c *Controller) terminateLocked() {
	if c.channel != nil {
		c.channel.Terminate()
		c.channel = nil
	}
}

func (c *Controller) fail(class ErrClass, err error) {
	c.mu.Lock()
	c.terminateLocked()
	c.session++
	c.samples = nil
	c.peaks = nil
	c.length = 0
	callback := c.onError
	c.mu.Unlock()

	log.Printf("[WAVEFORM] Load failed (%s): %v", class, err)

	if callback != nil {
		callback(class, class.Message(err))
	}
}

// Peaks returns the currently published array, or nil when no source is
// loaded.
func (c *Controller) Peaks() []float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.peaks
}

// Length returns the decoded duration of the current source.
func (c *Controller) Length() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.length
}

// Geometry returns the current display geometry.
func (c *Controller) Geometry() types.Geometry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.geom
}

// Close tears the controller down, terminating any live background
// channel and dropping the retained buffer.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.terminateLocked()
	c.session++
	c.samples = nil
	c.peaks = nil
	c.length = 0
}
