package audio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/flac"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
)

// ErrUnknownFormat means no decoder is registered for the sniffed
// container. Callers map this to a capability error rather than a
// decode error: the bytes may be fine, we just cannot read them here.
var ErrUnknownFormat = fmt.Errorf("no decoder for audio format")

type decodeFunc func(io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

type container struct {
	name   string
	decode decodeFunc
}

func sniffContainer(data []byte) (container, bool) {
	switch {
	case len(data) >= 4 && string(data[:4]) == "RIFF":
		return container{"wav", func(r io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
			return wav.Decode(r)
		}}, true
	case len(data) >= 4 && string(data[:4]) == "fLaC":
		return container{"flac", func(r io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
			return flac.Decode(r)
		}}, true
	case len(data) >= 4 && string(data[:4]) == "OggS":
		return container{"ogg", func(r io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
			return vorbis.Decode(r)
		}}, true
	case len(data) >= 3 && string(data[:3]) == "ID3",
		len(data) >= 2 && data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return container{"mp3", func(r io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
			return mp3.Decode(r)
		}}, true
	}
	return container{}, false
}

// Decode sniffs the container format of data and opens a seekable
// streamer over it. The returned streamer owns its reader and must be
// closed by the caller.
func Decode(data []byte) (beep.StreamSeekCloser, beep.Format, error) {
	c, ok := sniffContainer(data)
	if !ok {
		return nil, beep.Format{}, ErrUnknownFormat
	}

	stream, format, err := c.decode(io.NopCloser(bytes.NewReader(data)))
	if err != nil {
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", c.name, err)
	}
	return stream, format, nil
}

// DecodeSamples decodes data fully and returns the left channel as
// float64 samples in [-1, 1], along with the source sample rate. This is
// the analysis path; playback streams instead of draining.
func DecodeSamples(data []byte) ([]float64, int, error) {
	stream, format, err := Decode(data)
	if err != nil {
		return nil, 0, err
	}
	defer stream.Close()

	samples := make([]float64, 0, stream.Len())
	buf := make([][2]float64, 2048)
	for {
		n, ok := stream.Stream(buf)
		for i := 0; i < n; i++ {
			samples = append(samples, buf[i][0])
		}
		if !ok {
			break
		}
	}

	if err := stream.Err(); err != nil {
		return nil, 0, fmt.Errorf("drain samples: %w", err)
	}
	return samples, int(format.SampleRate), nil
}
