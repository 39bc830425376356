// SPDX-License-Identifier: MIT
package analysis

const (
	// beatGain scales the block-to-block RMS rise into a confidence value.
	beatGain = 12.0

	// beatThreshold is the confidence required to register an onset.
	beatThreshold = 0.6

	// minBeatInterval is the refractory period in seconds between registered
	// onsets, so one transient spanning two blocks counts once.
	minBeatInterval = 0.2

	// maxBeatHistory caps the onset FIFO and with it the tempo estimate cost.
	maxBeatHistory = 64

	// Inter-onset intervals at or below this are near-duplicate timestamps,
	// not beats, and are excluded from the tempo mean.
	intervalEpsilon = 1.1920929e-07
)

// onsetDetector turns block RMS rises into beat confidences and keeps a
// bounded history of registered onset times for tempo estimation.
type onsetDetector struct {
	prevRMS float64
	beats   []float64 // onset midpoints, oldest first, len <= maxBeatHistory
}

// confidence reports the onset strength for a block with the given RMS.
// prevRMS is updated unconditionally; a high confidence alone does not
// register an onset.
func (d *onsetDetector) confidence(rms float64) float64 {
	delta := rms - d.prevRMS
	d.prevRMS = rms
	if delta <= 0 {
		return 0
	}
	return clamp01(delta * beatGain)
}

// register records an onset at time t when the confidence clears the
// threshold and the refractory interval since the previous onset has
// elapsed. The oldest entry is evicted once the history is full.
func (d *onsetDetector) register(t, confidence float64) bool {
	if confidence < beatThreshold {
		return false
	}
	if n := len(d.beats); n > 0 && t-d.beats[n-1] < minBeatInterval {
		return false
	}
	if len(d.beats) == maxBeatHistory {
		copy(d.beats, d.beats[1:])
		d.beats = d.beats[:maxBeatHistory-1]
	}
	d.beats = append(d.beats, t)
	return true
}

// tempoBPM derives a tempo from the mean positive interval between the
// registered onsets. It reports false until at least one valid interval
// exists. Old onsets age out of the FIFO, so the estimate follows tempo
// changes over roughly a 64-beat horizon.
func (d *onsetDetector) tempoBPM() (float64, bool) {
	var sum float64
	var count int
	for i := 1; i < len(d.beats); i++ {
		if dt := d.beats[i] - d.beats[i-1]; dt > intervalEpsilon {
			sum += dt
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return 60 / (sum / float64(count)), true
}

func (d *onsetDetector) reset() {
	d.prevRMS = 0
	d.beats = d.beats[:0]
}
