// Package biometric implements the similarity engine: feature normalization,
// multi-metric distance scoring, and ranked identification.
package biometric

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// ErrNotFitted is returned when exporting a scaler that has never been fitted.
var ErrNotFitted = errors.New("scaler not fitted")

// Scaler holds per-dimension mean and standard deviation fitted over all
// enrolled samples. The ordered dimension-name list is part of its contract:
// transforms must be applied in the same order the scaler was fitted against.
type Scaler struct {
	Names []string  `json:"feature_names"`
	Mean  []float64 `json:"mean"`
	Std   []float64 `json:"std"`
}

// FitScaler computes a per-dimension mean/std scaler over vectors, which must
// all have len(names) dimensions. Fewer than 2 vectors cannot estimate spread;
// nil is returned.
func FitScaler(names []string, vectors [][]float64) *Scaler {
	if len(vectors) < 2 {
		return nil
	}
	dims := len(names)
	s := &Scaler{
		Names: append([]string(nil), names...),
		Mean:  make([]float64, dims),
		Std:   make([]float64, dims),
	}
	n := float64(len(vectors))
	for _, v := range vectors {
		for d := 0; d < dims; d++ {
			s.Mean[d] += v[d]
		}
	}
	for d := 0; d < dims; d++ {
		s.Mean[d] /= n
	}
	for _, v := range vectors {
		for d := 0; d < dims; d++ {
			diff := v[d] - s.Mean[d]
			s.Std[d] += diff * diff
		}
	}
	for d := 0; d < dims; d++ {
		s.Std[d] = math.Sqrt(s.Std[d] / n)
	}
	return s
}

// Transform returns (v - mean) / std per dimension. Dimensions with zero
// standard deviation are centered but not scaled, avoiding division by zero.
// A vector of the wrong length is returned unchanged (copied).
func (s *Scaler) Transform(v []float64) []float64 {
	out := append([]float64(nil), v...)
	if len(v) != len(s.Mean) {
		return out
	}
	for d := range out {
		out[d] -= s.Mean[d]
		if s.Std[d] != 0 {
			out[d] /= s.Std[d]
		}
	}
	return out
}

// Marshal serializes the scaler and its dimension-name list as one opaque blob.
func (s *Scaler) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalScaler restores a scaler from blob and validates it against the
// expected ordered dimension names. A missing or mismatched name list
// invalidates comparisons silently, so it is rejected here.
func UnmarshalScaler(blob []byte, names []string) (*Scaler, error) {
	var s Scaler
	if err := json.Unmarshal(blob, &s); err != nil {
		return nil, fmt.Errorf("failed to parse model blob: %w", err)
	}
	if len(s.Names) != len(names) {
		return nil, fmt.Errorf("model has %d dimensions, want %d", len(s.Names), len(names))
	}
	for i, name := range names {
		if s.Names[i] != name {
			return nil, fmt.Errorf("model dimension %d is %q, want %q", i, s.Names[i], name)
		}
	}
	if len(s.Mean) != len(names) || len(s.Std) != len(names) {
		return nil, fmt.Errorf("model parameters do not match %d dimensions", len(names))
	}
	return &s, nil
}
