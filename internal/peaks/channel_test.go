package peaks

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alexander-D-Karpov/waveview/pkg/types"
)

func rampSamples(n int) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = float64(i+1) / float64(n)
	}
	return samples
}

// collectUntilDone drains progress messages up to and including the Done
// message, failing the test if the worker stalls.
func collectUntilDone(t *testing.T, ch *Channel) []Progress {
	t.Helper()

	var got []Progress
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-ch.Events():
			require.True(t, ok, "events closed before Done")
			got = append(got, ev)
			if ev.Done {
				return got
			}
		case <-timeout:
			t.Fatalf("timed out after %d progress messages", len(got))
		}
	}
}

func TestNewDisabledReturnsNil(t *testing.T) {
	assert.Nil(t, New(Options{Disabled: true}))
}

func TestComputeStreamsRefinements(t *testing.T) {
	ch := New(Options{ChunkSize: 25})
	require.NotNil(t, ch)
	defer ch.Terminate()

	samples := rampSamples(100)
	geom := types.Geometry{Width: 30, BarWidth: 2, Gap: 1} // 10 slots

	require.NoError(t, ch.Compute(NewOwnedBuffer(samples), geom, 0))
	got := collectUntilDone(t, ch)

	require.Len(t, got, 4)
	for i, ev := range got {
		assert.Len(t, ev.Peaks, geom.SlotCount(), "message %d", i)
		assert.Equal(t, i == len(got)-1, ev.Done, "message %d", i)
	}

	// Every message is a complete array; refinement only ever raises
	// slots, never lowers them.
	for i := 1; i < len(got); i++ {
		for slot := range got[i].Peaks {
			assert.GreaterOrEqual(t, got[i].Peaks[slot], got[i-1].Peaks[slot],
				"message %d slot %d", i, slot)
		}
	}

	assert.Equal(t, Extract(samples, geom), got[len(got)-1].Peaks)
}

func TestComputeChunkHintOverride(t *testing.T) {
	ch := New(Options{ChunkSize: 1000})
	require.NotNil(t, ch)
	defer ch.Terminate()

	geom := types.Geometry{Width: 12, BarWidth: 1, Gap: 1}
	require.NoError(t, ch.Compute(NewOwnedBuffer(rampSamples(100)), geom, 50))

	got := collectUntilDone(t, ch)
	assert.Len(t, got, 2)
}

func TestComputeRejectsConsumedBuffer(t *testing.T) {
	ch := New(Options{})
	require.NotNil(t, ch)
	defer ch.Terminate()

	buf := NewOwnedBuffer(rampSamples(10))
	_, err := buf.Take()
	require.NoError(t, err)

	assert.ErrorIs(t, ch.Compute(buf, types.Geometry{Width: 10, BarWidth: 1, Gap: 1}, 0), ErrBufferConsumed)
}

func TestNewerRequestSupersedesQueued(t *testing.T) {
	ch := New(Options{ChunkSize: 10})
	require.NotNil(t, ch)
	defer ch.Terminate()

	narrow := types.Geometry{Width: 6, BarWidth: 1, Gap: 1}  // 3 slots
	wide := types.Geometry{Width: 20, BarWidth: 1, Gap: 1}   // 10 slots
	samples := rampSamples(200)

	// Two rapid posts: the second replaces the first while it is still
	// queued, so the wide geometry's results must arrive eventually.
	require.NoError(t, ch.Compute(NewOwnedBuffer(samples), narrow, 0))
	require.NoError(t, ch.Compute(NewOwnedBuffer(samples), wide, 0))

	got := collectUntilDone(t, ch)
	final := got[len(got)-1]
	assert.Len(t, final.Peaks, wide.SlotCount())
	assert.Equal(t, Extract(samples, wide), final.Peaks)

	// If the first request did run, it was abandoned early; in either
	// case no Done message for the narrow geometry ever appeared.
	for i, ev := range got {
		if len(ev.Peaks) == narrow.SlotCount() {
			assert.False(t, ev.Done, "message %d", i)
		}
	}
}

func TestTerminateStopsEvents(t *testing.T) {
	ch := New(Options{ChunkSize: 5})
	require.NotNil(t, ch)

	require.NoError(t, ch.Compute(NewOwnedBuffer(rampSamples(1000)), types.Geometry{Width: 30, BarWidth: 2, Gap: 1}, 0))
	ch.Terminate()
	ch.Terminate() // second call is a no-op

	err := ch.Compute(NewOwnedBuffer(rampSamples(10)), types.Geometry{Width: 10, BarWidth: 1, Gap: 1}, 0)
	assert.ErrorIs(t, err, ErrChannelTerminated)

	// The worker drains out; the events channel closes instead of
	// delivering anything computed after termination.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-ch.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("events channel never closed after Terminate")
		}
	}
}
