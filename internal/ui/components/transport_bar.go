package components

import (
	"fmt"
	"log"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/Alexander-D-Karpov/waveview/pkg/types"
)

// TransportBar is the playback chrome under the waveform: play/pause,
// time readout, volume and the add-marker action. It talks to the
// transport only through the Transport interface.
type TransportBar struct {
	transport types.Transport

	container *fyne.Container
	playBtn   *widget.Button
	markerBtn *widget.Button
	openBtn   *widget.Button
	volumeBar *widget.Slider
	volumeBtn *widget.Button
	timeLabel *widget.Label
	nameLabel *widget.Label

	isPlaying  bool
	onOpen     func()
	onMarker   func(time.Duration)
	onPlayFlip func()
}

func NewTransportBar(transport types.Transport) *TransportBar {
	tb := &TransportBar{
		transport: transport,
	}

	tb.setupWidgets()
	tb.setupLayout()

	return tb
}

func (tb *TransportBar) setupWidgets() {
	tb.playBtn = widget.NewButtonWithIcon("", theme.MediaPlayIcon(), tb.togglePlay)
	tb.playBtn.Importance = widget.HighImportance

	tb.openBtn = widget.NewButtonWithIcon("", theme.FolderOpenIcon(), func() {
		if tb.onOpen != nil {
			tb.onOpen()
		}
	})

	tb.markerBtn = widget.NewButtonWithIcon("", theme.ContentAddIcon(), tb.addMarker)
	tb.markerBtn.Importance = widget.LowImportance

	tb.volumeBar = widget.NewSlider(0, 100)
	tb.volumeBar.SetValue(70)
	tb.volumeBar.OnChanged = tb.onVolumeChange

	tb.volumeBtn = widget.NewButtonWithIcon("", theme.VolumeUpIcon(), nil)
	tb.volumeBtn.Importance = widget.LowImportance

	tb.timeLabel = widget.NewLabel("0:00 / 0:00")
	tb.timeLabel.TextStyle = fyne.TextStyle{Monospace: true}

	tb.nameLabel = widget.NewLabel("No audio loaded")
	tb.nameLabel.TextStyle = fyne.TextStyle{Bold: true}
	tb.nameLabel.Truncation = fyne.TextTruncateEllipsis
}

func (tb *TransportBar) setupLayout() {
	controls := container.NewHBox(
		tb.openBtn,
		tb.playBtn,
		tb.markerBtn,
	)

	volume := container.NewBorder(nil, nil, tb.volumeBtn, nil, tb.volumeBar)
	volume = container.NewGridWrap(fyne.NewSize(180, 40), volume)

	tb.container = container.NewBorder(
		nil, nil,
		controls,
		container.NewHBox(tb.timeLabel, volume),
		tb.nameLabel,
	)
}

func (tb *TransportBar) togglePlay() {
	if tb.isPlaying {
		if err := tb.transport.Pause(); err != nil {
			log.Printf("[TRANSPORT_BAR] Pause failed: %v", err)
			return
		}
	} else {
		if err := tb.transport.Resume(); err != nil {
			log.Printf("[TRANSPORT_BAR] Resume failed: %v", err)
			return
		}
	}
	tb.isPlaying = !tb.isPlaying
	tb.updatePlayButton()

	if tb.onPlayFlip != nil {
		tb.onPlayFlip()
	}
}

func (tb *TransportBar) addMarker() {
	if tb.onMarker != nil {
		tb.onMarker(tb.transport.Position())
	}
}

func (tb *TransportBar) updatePlayButton() {
	fyne.Do(func() {
		if tb.isPlaying {
			tb.playBtn.SetIcon(theme.MediaPauseIcon())
		} else {
			tb.playBtn.SetIcon(theme.MediaPlayIcon())
		}
		tb.playBtn.Refresh()
	})
}

func (tb *TransportBar) onVolumeChange(v float64) {
	if err := tb.transport.SetVolume(v / 100); err != nil {
		log.Printf("[TRANSPORT_BAR] Failed to set volume: %v", err)
	}

	fyne.Do(func() {
		if v == 0 {
			tb.volumeBtn.SetIcon(theme.VolumeMuteIcon())
		} else if v < 50 {
			tb.volumeBtn.SetIcon(theme.VolumeDownIcon())
		} else {
			tb.volumeBtn.SetIcon(theme.VolumeUpIcon())
		}
	})
}

// SetPlaying reflects an externally driven transport state change.
func (tb *TransportBar) SetPlaying(playing bool) {
	tb.isPlaying = playing
	tb.updatePlayButton()
}

// SetName updates the loaded source label.
func (tb *TransportBar) SetName(name string) {
	fyne.Do(func() {
		if name == "" {
			tb.nameLabel.SetText("No audio loaded")
		} else {
			tb.nameLabel.SetText(name)
		}
	})
}

// UpdateTime refreshes the position/duration readout.
func (tb *TransportBar) UpdateTime(pos, dur time.Duration) {
	fyne.Do(func() {
		if dur > 0 {
			tb.timeLabel.SetText(fmt.Sprintf("%s / %s", formatDuration(pos), formatDuration(dur)))
		} else {
			tb.timeLabel.SetText(fmt.Sprintf("%s / --:--", formatDuration(pos)))
		}
	})
}

func (tb *TransportBar) OnOpen(callback func()) {
	tb.onOpen = callback
}

func (tb *TransportBar) OnMarker(callback func(time.Duration)) {
	tb.onMarker = callback
}

func (tb *TransportBar) OnPlayFlip(callback func()) {
	tb.onPlayFlip = callback
}

func (tb *TransportBar) Container() *fyne.Container {
	return tb.container
}

func formatDuration(d time.Duration) string {
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
