package waveform

import (
	"errors"
	"time"

	"github.com/Alexander-D-Karpov/waveview/internal/audio"
)

// Decoded is the analysis copy of one loaded audio source: the single
// channel the peaks are computed from, plus enough metadata to relate
// marker times to sample positions.
type Decoded struct {
	Samples    []float64
	SampleRate int
}

// Length is the decoded duration.
func (d Decoded) Length() time.Duration {
	if d.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(d.Samples)) / float64(d.SampleRate) * float64(time.Second))
}

// Decoder produces the analysis channel from raw bytes.
type Decoder interface {
	Decode(data []byte) (Decoded, error)
}

type beepDecoder struct{}

// NewDecoder returns the default decoder, backed by the beep codec set
// (mp3, wav, flac, ogg/vorbis). Only the first channel is kept; the
// waveform never mixes channels down.
func NewDecoder() Decoder {
	return beepDecoder{}
}

func (beepDecoder) Decode(data []byte) (Decoded, error) {
	samples, sampleRate, err := audio.DecodeSamples(data)
	if err != nil {
		if errors.Is(err, audio.ErrUnknownFormat) {
			return Decoded{}, classify(ErrClassCapability, err)
		}
		return Decoded{}, classify(ErrClassDecode, err)
	}
	return Decoded{Samples: samples, SampleRate: sampleRate}, nil
}
