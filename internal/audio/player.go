package audio

import (
	"fmt"
	"log"
	"runtime"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"

	"github.com/Alexander-D-Karpov/waveview/internal/config"
	"github.com/Alexander-D-Karpov/waveview/pkg/types"
)

var speakerInitialized = false
var speakerMutex sync.Mutex

// Player is the playback sink. It decodes an in-memory copy of the
// audio for the speaker and reports a position clock; it knows nothing
// about waveforms.
type Player struct {
	mu sync.Mutex

	cfg              *config.Config
	streamer         beep.StreamSeekCloser
	ctrl             *beep.Ctrl
	volume           *effects.Volume
	srcRate          beep.SampleRate
	duration         time.Duration
	positionCallback func(time.Duration)
	finishedCallback func()
	sampleRate       beep.SampleRate
	ticker           *time.Ticker
	done             chan struct{}
	debug            bool
	playing          bool
	paused           bool
}

func NewPlayer(cfg *config.Config) (*Player, error) {
	p := &Player{
		cfg:        cfg,
		done:       make(chan struct{}),
		sampleRate: beep.SampleRate(cfg.Audio.SampleRate),
		debug:      cfg.Debug,
	}

	if err := p.initializeSpeaker(); err != nil {
		return nil, fmt.Errorf("failed to initialize speaker: %w", err)
	}

	p.ticker = time.NewTicker(50 * time.Millisecond)
	go p.positionUpdater()

	if p.debug {
		log.Printf("[AUDIO] Player initialized on %s with sample rate: %d", runtime.GOOS, p.sampleRate)
	}

	return p, nil
}

func (p *Player) initializeSpeaker() error {
	speakerMutex.Lock()
	defer speakerMutex.Unlock()

	if speakerInitialized {
		return nil
	}

	bufferSize := p.sampleRate.N(time.Second / 10)
	if runtime.GOOS == "linux" {
		bufferSize = p.sampleRate.N(time.Second / 5)
	}

	if p.debug {
		log.Printf("[AUDIO] Initializing speaker with sample rate %d, buffer size %d", p.sampleRate, bufferSize)
	}

	if err := speaker.Init(p.sampleRate, bufferSize); err != nil {
		return fmt.Errorf("speaker initialization failed: %w", err)
	}

	speakerInitialized = true
	return nil
}

// Load decodes data and starts playback from the beginning, replacing
// whatever was playing before.
func (p *Player) Load(data []byte) error {
	stream, format, err := Decode(data)
	if err != nil {
		return fmt.Errorf("load playback stream: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopInternal()

	p.streamer = stream
	p.srcRate = format.SampleRate
	p.duration = format.SampleRate.D(stream.Len())

	if p.debug {
		log.Printf("[AUDIO] Loaded stream - Sample Rate: %d, Length: %d samples, Duration: %v",
			format.SampleRate, stream.Len(), p.duration)
	}

	resampled := beep.Resample(4, format.SampleRate, p.sampleRate, stream)
	p.ctrl = &beep.Ctrl{Streamer: resampled, Paused: false}
	p.volume = &effects.Volume{
		Streamer: p.ctrl,
		Base:     2,
		Volume:   (p.cfg.Audio.DefaultVolume - 1) * 5,
		Silent:   p.cfg.Audio.DefaultVolume == 0,
	}

	speaker.Clear()

	sequence := beep.Seq(p.volume, beep.Callback(func() {
		p.handleFinished()
	}))
	speaker.Play(sequence)

	p.playing = true
	p.paused = false
	return nil
}

func (p *Player) handleFinished() {
	p.mu.Lock()
	p.playing = false
	p.paused = false
	callback := p.finishedCallback
	p.mu.Unlock()

	if callback != nil {
		callback()
	}
}

func (p *Player) stopInternal() {
	if p.playing || p.paused {
		speaker.Clear()
	}

	if p.streamer != nil {
		if closeErr := p.streamer.Close(); closeErr != nil {
			if p.debug {
				log.Printf("[AUDIO] Error closing streamer: %v", closeErr)
			}
		}
		p.streamer = nil
	}

	p.ctrl = nil
	p.volume = nil
	p.duration = 0
	p.playing = false
	p.paused = false
}

func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing && !p.paused && p.ctrl != nil
}

func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctrl != nil && p.playing && !p.paused {
		speaker.Lock()
		p.ctrl.Paused = true
		speaker.Unlock()
		p.paused = true
	}
	return nil
}

func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ctrl != nil && p.playing && p.paused {
		speaker.Lock()
		p.ctrl.Paused = false
		speaker.Unlock()
		p.paused = false
	}
	return nil
}

func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stopInternal()
	return nil
}

func (p *Player) Seek(position time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streamer == nil {
		return nil
	}

	pos := p.srcRate.N(position)
	if pos < 0 || pos >= p.streamer.Len() {
		return nil
	}

	speaker.Lock()
	err := p.streamer.Seek(pos)
	speaker.Unlock()
	if err != nil {
		return fmt.Errorf("seek to %v: %w", position, err)
	}
	return nil
}

func (p *Player) SetVolume(volume float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.volume != nil {
		speaker.Lock()
		p.volume.Volume = (volume - 1) * 5
		p.volume.Silent = volume == 0
		speaker.Unlock()
	}
	return nil
}

func (p *Player) Position() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.streamer == nil {
		return 0
	}
	return p.srcRate.D(p.streamer.Position())
}

func (p *Player) Duration() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

// State snapshots the transport clock for the renderer.
func (p *Player) State() types.PlaybackState {
	p.mu.Lock()
	defer p.mu.Unlock()

	state := types.PlaybackState{
		Duration: p.duration,
		Playing:  p.playing && !p.paused,
	}
	if p.streamer != nil {
		state.Position = p.srcRate.D(p.streamer.Position())
	}
	return state
}

func (p *Player) OnPositionChanged(callback func(time.Duration)) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.positionCallback = callback
}

func (p *Player) OnFinished(callback func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finishedCallback = callback
}

func (p *Player) Close() error {
	if p.debug {
		log.Printf("[AUDIO] Closing player")
	}

	close(p.done)
	if p.ticker != nil {
		p.ticker.Stop()
	}
	return p.Stop()
}

func (p *Player) positionUpdater() {
	for {
		select {
		case <-p.ticker.C:
			p.updatePosition()
		case <-p.done:
			return
		}
	}
}

func (p *Player) updatePosition() {
	p.mu.Lock()
	if p.streamer == nil || !p.playing || p.paused {
		p.mu.Unlock()
		return
	}
	pos := p.srcRate.D(p.streamer.Position())
	callback := p.positionCallback
	p.mu.Unlock()

	if callback != nil {
		callback(pos)
	}
}
