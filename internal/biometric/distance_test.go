package biometric

import (
	"math"
	"testing"

	"github.com/typegait/typegait/internal/models"
)

func TestEuclideanScore(t *testing.T) {
	a := []float64{0, 0, 0}
	if got := euclideanScore(a, a); got != 100 {
		t.Errorf("identical vectors: got %v, want 100", got)
	}
	// Increasing distance strictly decreases the score.
	near := euclideanScore(a, []float64{1, 0, 0})
	far := euclideanScore(a, []float64{5, 0, 0})
	if !(near > far) {
		t.Errorf("score must decrease with distance: near=%v far=%v", near, far)
	}
	if got := euclideanScore(a, []float64{1, 2}); got != 0 {
		t.Errorf("dimension mismatch: got %v, want worst-case 0", got)
	}
}

func TestManhattanScore(t *testing.T) {
	a := []float64{1, 2}
	if got := manhattanScore(a, a); got != 100 {
		t.Errorf("identical vectors: got %v, want 100", got)
	}
	if got := manhattanScore(a, []float64{2, 4}); math.Abs(got-100.0/4) > 1e-12 {
		t.Errorf("distance 3: got %v, want 25", got)
	}
	if got := manhattanScore(a, []float64{1}); got != 0 {
		t.Errorf("dimension mismatch: got %v, want 0", got)
	}
}

func TestCosineScore(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"same direction", []float64{1, 1}, []float64{2, 2}, 100},
		{"opposite direction", []float64{1, 0}, []float64{-1, 0}, 0},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 50},
		{"zero vector degrades to neutral", []float64{0, 0}, []float64{1, 1}, 50},
		{"dimension mismatch degrades to neutral", []float64{1}, []float64{1, 1}, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cosineScore(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimingSimilarity(t *testing.T) {
	q := &models.FeatureVector{DwellMean: 80, LatencyMean: 150, FlightMean: 70, TypingSpeed: 300}

	if got := timingSimilarity(q, q); got != 100 {
		t.Errorf("identical timing: got %v, want 100", got)
	}

	zero := &models.FeatureVector{}
	if got := timingSimilarity(zero, zero); got != timingNeutralScore {
		t.Errorf("no qualifying fields: got %v, want %v", got, timingNeutralScore)
	}

	// Only the dwell field qualifies; relative difference 50/100 maps to 50.
	a := &models.FeatureVector{DwellMean: 100}
	b := &models.FeatureVector{DwellMean: 50}
	if got := timingSimilarity(a, b); math.Abs(got-50) > 1e-9 {
		t.Errorf("relative diff 0.5: got %v, want 50", got)
	}
}

func TestCombinedScore(t *testing.T) {
	if got := combinedScore(100, 100, 100, 100); got != 100 {
		t.Errorf("all perfect: got %v, want 100", got)
	}
	if got := combinedScore(0, 0, 0, 0); got != 0 {
		t.Errorf("all zero: got %v, want 0", got)
	}
	want := 0.25*80 + 0.25*60 + 0.20*50 + 0.30*90
	if got := combinedScore(80, 60, 50, 90); math.Abs(got-want) > 1e-12 {
		t.Errorf("weighted blend: got %v, want %v", got, want)
	}
}

func TestConfidence(t *testing.T) {
	if got := confidence(nil); got != 0 {
		t.Errorf("no scores: got %v, want 0", got)
	}
	if got := confidence([]float64{42}); got != 0 {
		t.Errorf("single score: got %v, want 0", got)
	}
	if got := confidence([]float64{0, 0}); got != 0 {
		t.Errorf("zero mean: got %v, want 0", got)
	}
	if got := confidence([]float64{70, 70, 70}); got != 100 {
		t.Errorf("constant scores: got %v, want 100", got)
	}
	spread := confidence([]float64{40, 90})
	tight := confidence([]float64{64, 66})
	if !(tight > spread) {
		t.Errorf("lower variance must raise confidence: tight=%v spread=%v", tight, spread)
	}
}
