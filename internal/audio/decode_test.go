package audio

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeWAV builds a minimal mono 16-bit PCM RIFF file.
func makeWAV(sampleRate int, samples []int16) []byte {
	dataSize := len(samples) * 2
	var buf bytes.Buffer

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // mono
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate*2))
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	binary.Write(&buf, binary.LittleEndian, samples)

	return buf.Bytes()
}

func TestSniffContainer(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"wav", []byte("RIFF....WAVE"), "wav"},
		{"flac", []byte("fLaC...."), "flac"},
		{"ogg", []byte("OggS...."), "ogg"},
		{"mp3 id3", []byte("ID3....."), "mp3"},
		{"mp3 frame sync", []byte{0xFF, 0xFB, 0x90, 0x00}, "mp3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := sniffContainer(tt.data)
			require.True(t, ok)
			assert.Equal(t, tt.want, c.name)
		})
	}
}

func TestSniffContainerUnknown(t *testing.T) {
	for _, data := range [][]byte{nil, {}, []byte("x"), []byte("PK\x03\x04....")} {
		_, ok := sniffContainer(data)
		assert.False(t, ok)
	}
}

func TestDecodeUnknownFormat(t *testing.T) {
	_, _, err := Decode([]byte("this is not audio"))
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestDecodeTruncatedWAV(t *testing.T) {
	_, _, err := Decode([]byte("RIFF"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnknownFormat)
}

func TestDecodeSamplesWAVRoundTrip(t *testing.T) {
	pcm := []int16{0, 16384, -16384, 32767, -32768, 0}
	data := makeWAV(8000, pcm)

	samples, rate, err := DecodeSamples(data)
	require.NoError(t, err)
	assert.Equal(t, 8000, rate)
	require.Len(t, samples, len(pcm))

	assert.InDelta(t, 0.0, samples[0], 0.001)
	assert.InDelta(t, 0.5, samples[1], 0.001)
	assert.InDelta(t, -0.5, samples[2], 0.001)
	assert.InDelta(t, 1.0, samples[3], 0.001)
	assert.InDelta(t, -1.0, samples[4], 0.001)
}
