package peaks

import (
	"github.com/Alexander-D-Karpov/waveview/pkg/types"
)

// Extract downsamples a single channel of samples in [-1, 1] into one
// max-abs peak per display slot. It is deterministic, allocation-bounded
// and never fails: an empty buffer yields an all-zero array of the slot
// count implied by the geometry.
//
// Samples are partitioned into slotCount ranges of exactly
// len(samples)/slotCount samples each; the trailing remainder past the
// last full range is not folded into the final slot. Rendering tolerates
// the loss, and keeping the ranges uniform keeps every bar comparable.
func Extract(samples []float64, geom types.Geometry) []float64 {
	return extractPrefix(samples, len(samples), geom)
}

// extractPrefix computes peaks with slot ranges derived from the full
// sample count, but only scans samples below limit. Slots whose range
// lies entirely past the limit stay at zero, which is what lets the
// background channel stream increasingly complete arrays for a fixed
// geometry.
func extractPrefix(samples []float64, limit int, geom types.Geometry) []float64 {
	slots := geom.SlotCount()
	out := make([]float64, slots)

	if len(samples) == 0 {
		return out
	}
	if limit > len(samples) {
		limit = len(samples)
	}

	perSlot := len(samples) / slots
	if perSlot < 1 {
		perSlot = 1
	}

	for i := 0; i < slots; i++ {
		start := i * perSlot
		end := start + perSlot
		if end > limit {
			end = limit
		}
		if start >= end {
			continue
		}

		peak := 0.0
		for _, v := range samples[start:end] {
			if v < 0 {
				v = -v
			}
			if v > peak {
				peak = v
			}
		}
		out[i] = peak
	}

	return out
}
