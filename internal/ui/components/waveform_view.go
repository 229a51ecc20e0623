package components

import (
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/Alexander-D-Karpov/waveview/internal/render"
	"github.com/Alexander-D-Karpov/waveview/internal/waveform"
	"github.com/Alexander-D-Karpov/waveview/pkg/types"
)

// WaveformView hosts the compositor inside a Fyne widget: it feeds
// container resizes into the geometry watcher, runs the animation loop
// while playing, and turns taps into seek requests.
type WaveformView struct {
	widget.BaseWidget

	comp    *render.Compositor
	watcher *waveform.GeometryWatcher
	stateFn func() types.PlaybackState
	img     *canvas.Image

	mu            sync.Mutex
	onSeek        func(time.Duration)
	frameInterval time.Duration
	animating     bool
	stopAnim      chan struct{}
}

func NewWaveformView(comp *render.Compositor, watcher *waveform.GeometryWatcher, frameRate int, stateFn func() types.PlaybackState) *WaveformView {
	if frameRate <= 0 {
		frameRate = 30
	}

	v := &WaveformView{
		comp:          comp,
		watcher:       watcher,
		stateFn:       stateFn,
		frameInterval: time.Second / time.Duration(frameRate),
	}
	v.img = canvas.NewImageFromImage(comp.Image())
	v.img.FillMode = canvas.ImageFillStretch
	v.img.ScaleMode = canvas.ImageScalePixels
	v.ExtendBaseWidget(v)
	return v
}

func (v *WaveformView) MinSize() fyne.Size { return fyne.NewSize(120, 60) }

// OnSeek registers the seek request sink.
func (v *WaveformView) OnSeek(callback func(time.Duration)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.onSeek = callback
}

// Tapped maps the tap position to a playback time and forwards it.
func (v *WaveformView) Tapped(e *fyne.PointEvent) {
	state := v.stateFn()
	if state.Duration <= 0 {
		return
	}

	width := v.Size().Width
	if width <= 0 {
		return
	}
	frac := float64(e.Position.X / width)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}

	v.mu.Lock()
	callback := v.onSeek
	v.mu.Unlock()

	if callback != nil {
		callback(time.Duration(frac * float64(state.Duration)))
	}
}

// RepaintOnce paints a single frame for the current transport state and
// refreshes the canvas. Used for paused frames and data updates.
func (v *WaveformView) RepaintOnce() {
	v.comp.Paint(v.stateFn())
	fyne.Do(func() {
		v.img.Image = v.comp.Image()
		v.img.Refresh()
	})
}

// SyncPlayback starts the frame loop when the transport is playing and
// stops it (after one last paint) when it is not.
func (v *WaveformView) SyncPlayback() {
	state := v.stateFn()

	v.mu.Lock()
	if state.Playing && !v.animating {
		v.animating = true
		v.stopAnim = make(chan struct{})
		go v.animate(v.stopAnim)
		v.mu.Unlock()
		return
	}
	v.mu.Unlock()

	if !state.Playing {
		v.RepaintOnce()
	}
}

func (v *WaveformView) animate(stop chan struct{}) {
	ticker := time.NewTicker(v.frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			state := v.stateFn()
			v.comp.Paint(state)
			fyne.Do(func() {
				v.img.Image = v.comp.Image()
				v.img.Refresh()
			})
			if !state.Playing {
				v.mu.Lock()
				v.animating = false
				v.mu.Unlock()
				return
			}
		}
	}
}

// Close stops any running frame loop.
func (v *WaveformView) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.animating {
		close(v.stopAnim)
		v.animating = false
	}
	v.watcher.Stop()
}

func (v *WaveformView) CreateRenderer() fyne.WidgetRenderer {
	return &waveformViewRenderer{view: v}
}

type waveformViewRenderer struct {
	view *WaveformView
}

func (r *waveformViewRenderer) MinSize() fyne.Size { return r.view.MinSize() }

func (r *waveformViewRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.view.img}
}

func (r *waveformViewRenderer) Destroy() {}

func (r *waveformViewRenderer) Refresh() {
	r.view.img.Image = r.view.comp.Image()
	canvas.Refresh(r.view.img)
}

func (r *waveformViewRenderer) Layout(size fyne.Size) {
	r.view.img.Resize(size)
	if size.Width > 0 {
		r.view.watcher.Observe(float64(size.Width))
	}
}
