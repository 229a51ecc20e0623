package ui

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/Alexander-D-Karpov/waveview/internal/audio"
	"github.com/Alexander-D-Karpov/waveview/internal/config"
	"github.com/Alexander-D-Karpov/waveview/internal/handlers"
	"github.com/Alexander-D-Karpov/waveview/internal/render"
	"github.com/Alexander-D-Karpov/waveview/internal/search"
	"github.com/Alexander-D-Karpov/waveview/internal/storage"
	"github.com/Alexander-D-Karpov/waveview/internal/ui/components"
	"github.com/Alexander-D-Karpov/waveview/internal/waveform"
	"github.com/Alexander-D-Karpov/waveview/pkg/types"
)

// App assembles the waveform pipeline and its chrome into one window.
type App struct {
	ctx    context.Context
	cfg    *config.Config
	window fyne.Window

	storage    *storage.Database
	player     *audio.Player
	resolver   waveform.Resolver
	controller *waveform.Controller
	watcher    *waveform.GeometryWatcher
	comp       *render.Compositor
	view       *components.WaveformView
	transport  *components.TransportBar
	searcher   *search.Engine
	bus        *handlers.EventBus

	waveArea      *fyne.Container
	errorLabel    *widget.Label
	currentSource string
	markers       []*types.Marker
	debug         bool
}

func NewApp(ctx context.Context, fyneApp fyne.App, cfg *config.Config) (*App, error) {
	db, err := storage.NewDatabase(cfg)
	if err != nil {
		return nil, err
	}

	player, err := audio.NewPlayer(cfg)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			log.Printf("[APP] Failed to close database: %v", closeErr)
		}
		return nil, err
	}

	a := &App{
		ctx:        ctx,
		cfg:        cfg,
		storage:    db,
		player:     player,
		resolver:   waveform.NewResolver(cfg),
		controller: waveform.NewController(cfg),
		watcher: waveform.NewGeometryWatcher(
			time.Duration(cfg.Waveform.DebounceMs)*time.Millisecond,
			cfg.Waveform.FallbackWidth,
			cfg.Debug,
		),
		searcher: search.NewEngine(cfg, db),
		bus:      handlers.NewEventBus(),
		debug:    cfg.Debug,
	}

	a.comp = render.New(
		cfg.Waveform.FallbackWidth,
		cfg.UI.WaveformHeight,
		1,
		cfg.Waveform.BarWidth,
		cfg.Waveform.Gap,
		a.paletteFromConfig(),
		cfg.Debug,
	)
	a.view = components.NewWaveformView(a.comp, a.watcher, cfg.Waveform.FrameRate, a.player.State)
	a.transport = components.NewTransportBar(a.player)

	a.window = fyneApp.NewWindow("WaveView")
	a.window.Resize(fyne.NewSize(float32(cfg.UI.WindowWidth), float32(cfg.UI.WindowHeight)))

	a.buildUI()
	a.wireEvents()

	return a, nil
}

func (a *App) paletteFromConfig() render.Colors {
	return render.Colors{
		Background: render.ParseHexColor(a.cfg.Waveform.BackgroundColor),
		Bar:        render.ParseHexColor(a.cfg.Waveform.BarColor),
		Progress:   render.ParseHexColor(a.cfg.Waveform.ProgressColor),
		Playhead:   render.ParseHexColor(a.cfg.Waveform.PlayheadColor),
		Marker:     render.ParseHexColor(a.cfg.Waveform.MarkerColor),
	}
}

func (a *App) buildUI() {
	a.errorLabel = widget.NewLabel("")
	a.errorLabel.Alignment = fyne.TextAlignCenter
	a.errorLabel.Hide()

	a.waveArea = container.NewStack(a.view, a.errorLabel)

	content := container.NewBorder(
		nil,
		a.transport.Container(),
		nil, nil,
		a.waveArea,
	)
	a.window.SetContent(content)
}

func (a *App) wireEvents() {
	a.controller.OnPeaksUpdated(func(peaks []float64) {
		a.comp.SetPeaks(peaks)
		a.view.RepaintOnce()
		a.bus.Publish(handlers.EventPeaksUpdated, len(peaks))
	})

	a.controller.OnError(func(class waveform.ErrClass, message string) {
		a.bus.Publish(handlers.EventLoadError, message)
	})

	a.controller.OnLoaded(func(length time.Duration) {
		a.bus.Publish(handlers.EventTrackLoaded, length)
	})

	a.watcher.OnWidth(a.handleWidthChange)

	a.player.OnPositionChanged(func(pos time.Duration) {
		a.bus.Publish(handlers.EventPosition, pos)
	})
	a.player.OnFinished(func() {
		a.bus.Publish(handlers.EventFinished, nil)
	})

	a.bus.Subscribe(handlers.EventPosition, func(data interface{}) {
		pos, ok := data.(time.Duration)
		if !ok {
			return
		}
		a.transport.UpdateTime(pos, a.player.Duration())
		a.view.SyncPlayback()
	})

	a.bus.Subscribe(handlers.EventFinished, func(interface{}) {
		a.transport.SetPlaying(false)
		a.view.SyncPlayback()
	})

	a.bus.Subscribe(handlers.EventLoadError, func(data interface{}) {
		message, _ := data.(string)
		a.showError(message)
	})

	a.view.OnSeek(func(pos time.Duration) {
		if err := a.player.Seek(pos); err != nil {
			log.Printf("[APP] Seek failed: %v", err)
			return
		}
		a.view.RepaintOnce()
	})

	a.transport.OnPlayFlip(func() {
		a.view.SyncPlayback()
	})
	a.transport.OnOpen(a.showOpenDialog)
	a.transport.OnMarker(a.addMarker)
}

func (a *App) handleWidthChange(width int) {
	geom := a.controller.Geometry()
	geom.Width = width
	a.controller.SetGeometry(geom)

	scale := float32(1)
	if c := a.window.Canvas(); c != nil {
		scale = c.Scale()
	}
	a.comp.Resize(width, a.cfg.UI.WaveformHeight, scale)
	a.view.RepaintOnce()
}

// OpenSource loads a URL or local path: one byte fetch feeds both the
// analysis pipeline and the playback stream.
func (a *App) OpenSource(source string) {
	go func() {
		data, err := a.resolver.Resolve(a.ctx, source)
		if err != nil {
			log.Printf("[APP] Fetch failed for %s: %v", source, err)
			a.showError(waveform.ErrClassNetwork.Message(err))
			return
		}

		a.controller.LoadBytes(data)
		if a.controller.Peaks() == nil {
			return // decode error already surfaced through the bus
		}
		a.clearError()

		if err := a.player.Load(data); err != nil {
			log.Printf("[APP] Playback load failed: %v", err)
		}

		a.currentSource = source
		a.transport.SetName(filepath.Base(source))
		a.transport.SetPlaying(a.player.IsPlaying())
		a.view.SyncPlayback()

		a.rememberTrack(source)
		a.reloadMarkers()
	}()
}

func (a *App) rememberTrack(source string) {
	track := &types.Track{
		Source: source,
		Name:   filepath.Base(source),
		Length: a.controller.Length(),
	}
	if err := a.storage.SaveTrack(a.ctx, track); err != nil {
		log.Printf("[APP] Failed to save recent track: %v", err)
	}
}

func (a *App) reloadMarkers() {
	markers, err := a.storage.GetMarkers(a.ctx, a.currentSource)
	if err != nil {
		log.Printf("[APP] Failed to load markers: %v", err)
		return
	}
	a.markers = markers
	a.comp.SetMarkers(toRenderMarkers(markers))
	a.view.RepaintOnce()
}

func (a *App) addMarker(pos time.Duration) {
	if a.currentSource == "" {
		return
	}

	marker := &types.Marker{
		Source: a.currentSource,
		Time:   pos,
	}
	if err := a.storage.SaveMarker(a.ctx, marker); err != nil {
		log.Printf("[APP] Failed to save marker: %v", err)
		return
	}

	a.markers = append(a.markers, marker)
	a.comp.SetMarkers(toRenderMarkers(a.markers))
	a.view.RepaintOnce()
}

func toRenderMarkers(markers []*types.Marker) []render.Marker {
	out := make([]render.Marker, 0, len(markers))
	for _, m := range markers {
		out = append(out, render.Marker{
			Time:  m.Time,
			Label: m.Label,
		})
	}
	return out
}

func (a *App) showOpenDialog() {
	entry := widget.NewEntry()
	entry.SetPlaceHolder("URL or file path")

	filter := widget.NewEntry()
	filter.SetPlaceHolder("Filter recent files")

	list := widget.NewLabel("")
	list.Wrapping = fyne.TextWrapWord

	refreshList := func(query string) {
		tracks, err := a.searcher.Search(a.ctx, query, 10)
		if err != nil {
			log.Printf("[APP] Recents search failed: %v", err)
			return
		}
		text := ""
		for _, t := range tracks {
			text += t.Source + "\n"
		}
		list.SetText(text)
	}
	filter.OnChanged = refreshList
	refreshList("")

	content := container.NewVBox(entry, filter, list)
	d := dialog.NewCustomConfirm("Open audio", "Open", "Cancel", content, func(confirmed bool) {
		if !confirmed || entry.Text == "" {
			return
		}
		a.OpenSource(entry.Text)
	}, a.window)
	d.Resize(fyne.NewSize(480, 320))
	d.Show()
}

func (a *App) showError(message string) {
	fyne.Do(func() {
		a.errorLabel.SetText(message)
		a.errorLabel.Show()
		a.view.Hide()
	})
}

func (a *App) clearError() {
	fyne.Do(func() {
		a.errorLabel.Hide()
		a.view.Show()
	})
}

func (a *App) ShowAndRun() {
	a.window.ShowAndRun()
}

func (a *App) Close() {
	a.view.Close()
	a.controller.Close()

	if err := a.player.Close(); err != nil {
		log.Printf("[APP] Failed to close player: %v", err)
	}
	if err := a.storage.Close(); err != nil {
		log.Printf("[APP] Failed to close storage: %v", err)
	}
}
