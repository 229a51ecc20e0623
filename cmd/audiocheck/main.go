package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"strings"
	"time"

	"github.com/gordonklaus/portaudio"

	"github.com/Alexander-D-Karpov/waveview/internal/audio"
	"github.com/Alexander-D-Karpov/waveview/internal/peaks"
	"github.com/Alexander-D-Karpov/waveview/pkg/types"
)

// audiocheck verifies the output device and the peak extractor without
// starting the UI: it decodes a file (or synthesizes a tone), prints the
// extracted bars as ASCII, and plays a short excerpt through PortAudio.
var (
	file  = flag.String("file", "", "Audio file to analyze (plays a 440Hz tone when empty)")
	width = flag.Int("width", 80, "Terminal width for the ASCII waveform")
)

func main() {
	flag.Parse()

	samples, sampleRate, err := loadSamples()
	if err != nil {
		log.Fatalf("[CHECK] Failed to load samples: %v", err)
	}
	fmt.Printf("%d samples at %d Hz (%.1fs)\n",
		len(samples), sampleRate, float64(len(samples))/float64(sampleRate))

	printBars(samples)

	if err := playExcerpt(samples, sampleRate); err != nil {
		log.Fatalf("[CHECK] Playback failed: %v", err)
	}
}

func loadSamples() ([]float64, int, error) {
	if *file == "" {
		return synthTone(440, 44100, 2*time.Second), 44100, nil
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read %s: %w", *file, err)
	}
	return audio.DecodeSamples(data)
}

func synthTone(freq float64, sampleRate int, dur time.Duration) []float64 {
	n := int(float64(sampleRate) * dur.Seconds())
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = 0.8 * math.Sin(2*math.Pi*freq*float64(i)/float64(sampleRate))
	}
	return samples
}

func printBars(samples []float64) {
	geom := types.Geometry{Width: *width, BarWidth: 1, Gap: 0}
	bars := peaks.Extract(samples, geom)

	const rows = 8
	for row := rows; row > 0; row-- {
		threshold := float64(row) / rows
		var line strings.Builder
		for _, p := range bars {
			if p >= threshold {
				line.WriteByte('#')
			} else {
				line.WriteByte(' ')
			}
		}
		fmt.Println(line.String())
	}
}

func playExcerpt(samples []float64, sampleRate int) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize portaudio: %w", err)
	}
	defer func() {
		if err := portaudio.Terminate(); err != nil {
			log.Printf("[CHECK] Failed to terminate portaudio: %v", err)
		}
	}()

	limit := 2 * sampleRate
	if limit > len(samples) {
		limit = len(samples)
	}
	pos := 0
	done := make(chan struct{})

	stream, err := portaudio.OpenDefaultStream(
		0, 1, float64(sampleRate),
		sampleRate/50,
		func(out []float32) {
			for i := range out {
				if pos >= limit {
					out[i] = 0
					continue
				}
				out[i] = float32(samples[pos])
				pos++
			}
			if pos >= limit {
				select {
				case <-done:
				default:
					close(done)
				}
			}
		})
	if err != nil {
		return fmt.Errorf("failed to open output stream: %w", err)
	}
	defer func() {
		if err := stream.Close(); err != nil {
			log.Printf("[CHECK] Failed to close stream: %v", err)
		}
	}()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("failed to start stream: %w", err)
	}
	<-done
	return stream.Stop()
}
