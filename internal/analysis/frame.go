// SPDX-License-Identifier: MIT
package analysis

// AnalysisFrame holds the features extracted from a single block of audio.
// All fields except Time are normalized to [0, 1]; Time is the midpoint of
// the analysed block in seconds since the start of the stream.
type AnalysisFrame struct {
	Time             float64 `json:"time"`
	RMS              float64 `json:"rms"`
	SpectralCentroid float64 `json:"spectral_centroid"`
	BeatConfidence   float64 `json:"beat_confidence"`
	LowBandEnergy    float64 `json:"low_band_energy"`
	HighBandEnergy   float64 `json:"high_band_energy"`
	SpectralFlux     float64 `json:"spectral_flux"`
}

// AnalysisSummary describes the stream analysed so far. TempoBPM and
// DurationSeconds are nil until enough audio has been observed to compute
// them.
type AnalysisSummary struct {
	SampleRate      int      `json:"sample_rate"`
	TempoBPM        *float64 `json:"tempo_bpm,omitempty"`
	DurationSeconds *float64 `json:"duration_seconds,omitempty"`
}

// clone returns a deep copy so callers cannot alias internal state.
func (s AnalysisSummary) clone() AnalysisSummary {
	out := AnalysisSummary{SampleRate: s.SampleRate}
	if s.TempoBPM != nil {
		v := *s.TempoBPM
		out.TempoBPM = &v
	}
	if s.DurationSeconds != nil {
		v := *s.DurationSeconds
		out.DurationSeconds = &v
	}
	return out
}
