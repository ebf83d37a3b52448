package models

import "math"

// FeatureNames is the canonical, ordered schema of the numeric feature vector.
// The order is part of the normalization model's contract: a scaler fitted
// against this order must be applied in this order.
var FeatureNames = []string{
	"dwell_mean", "dwell_std", "dwell_median", "dwell_min", "dwell_max",
	"latency_mean", "latency_std", "latency_median", "latency_min", "latency_max",
	"flight_mean", "flight_std", "flight_median",
	"typing_speed", "total_time", "key_count",
	"rhythm_consistency", "digraph_mean", "digraph_std",
}

// MaxRawSamples caps the raw dwell/latency arrays kept for diagnostics.
const MaxRawSamples = 50

// FeatureVector is the fixed-schema statistical fingerprint of one typing
// sample. The two raw arrays are retained for external inspection only and are
// excluded from similarity scoring. Immutable once produced.
type FeatureVector struct {
	DwellMean   float64 `json:"dwell_mean"`
	DwellStd    float64 `json:"dwell_std"`
	DwellMedian float64 `json:"dwell_median"`
	DwellMin    float64 `json:"dwell_min"`
	DwellMax    float64 `json:"dwell_max"`

	LatencyMean   float64 `json:"latency_mean"`
	LatencyStd    float64 `json:"latency_std"`
	LatencyMedian float64 `json:"latency_median"`
	LatencyMin    float64 `json:"latency_min"`
	LatencyMax    float64 `json:"latency_max"`

	FlightMean   float64 `json:"flight_mean"`
	FlightStd    float64 `json:"flight_std"`
	FlightMedian float64 `json:"flight_median"`

	TypingSpeed float64 `json:"typing_speed"`
	TotalTime   float64 `json:"total_time"`
	KeyCount    float64 `json:"key_count"`

	RhythmConsistency float64 `json:"rhythm_consistency"`
	DigraphMean       float64 `json:"digraph_mean"`
	DigraphStd        float64 `json:"digraph_std"`

	RawDwellTimes []float64 `json:"raw_dwell_times"`
	RawLatencies  []float64 `json:"raw_latencies"`
}

// Vector projects the feature vector onto the canonical 19-dimension numeric
// schema, in FeatureNames order. NaN and Inf values are sanitized to 0 so a
// single ill-conditioned sample cannot poison distance computations.
func (f *FeatureVector) Vector() []float64 {
	v := []float64{
		f.DwellMean, f.DwellStd, f.DwellMedian, f.DwellMin, f.DwellMax,
		f.LatencyMean, f.LatencyStd, f.LatencyMedian, f.LatencyMin, f.LatencyMax,
		f.FlightMean, f.FlightStd, f.FlightMedian,
		f.TypingSpeed, f.TotalTime, f.KeyCount,
		f.RhythmConsistency, f.DigraphMean, f.DigraphStd,
	}
	for i, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			v[i] = 0
		}
	}
	return v
}
