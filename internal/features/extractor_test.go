package features

import (
	"math"
	"testing"

	"github.com/typegait/typegait/internal/models"
)

// typed builds a press/release pair sequence: each key is pressed at
// start + i*latency and released dwell later.
func typed(keys []string, start, latency, dwell float64) []models.KeyEvent {
	var events []models.KeyEvent
	for i, k := range keys {
		pressAt := start + float64(i)*latency
		events = append(events,
			models.KeyEvent{Kind: models.KindPress, Key: k, Timestamp: pressAt},
			models.KeyEvent{Kind: models.KindRelease, Key: k, Timestamp: pressAt + dwell},
		)
	}
	return events
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestExtract_degenerateInput(t *testing.T) {
	tests := []struct {
		name   string
		events []models.KeyEvent
	}{
		{"nil events", nil},
		{"empty events", []models.KeyEvent{}},
		{"single event", []models.KeyEvent{{Kind: models.KindPress, Key: "a", Timestamp: 10}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fv := Extract(tt.events, "abc")
			for i, v := range fv.Vector() {
				if v != 0 {
					t.Errorf("dimension %s: got %v, want 0", models.FeatureNames[i], v)
				}
			}
			if len(fv.RawDwellTimes) != 0 || len(fv.RawLatencies) != 0 {
				t.Errorf("raw arrays should be empty, got %d/%d",
					len(fv.RawDwellTimes), len(fv.RawLatencies))
			}
		})
	}
}

func TestExtract_constantCadence(t *testing.T) {
	keys := []string{"a", "b", "c", "d", "e"}
	fv := Extract(typed(keys, 0, 150, 80), "abcde")

	if !almostEqual(fv.DwellMean, 80) {
		t.Errorf("DwellMean = %v, want 80", fv.DwellMean)
	}
	if !almostEqual(fv.DwellStd, 0) {
		t.Errorf("DwellStd = %v, want 0", fv.DwellStd)
	}
	if !almostEqual(fv.DwellMedian, 80) || !almostEqual(fv.DwellMin, 80) || !almostEqual(fv.DwellMax, 80) {
		t.Errorf("dwell median/min/max = %v/%v/%v, want all 80",
			fv.DwellMedian, fv.DwellMin, fv.DwellMax)
	}
	if !almostEqual(fv.LatencyMean, 150) || !almostEqual(fv.LatencyStd, 0) {
		t.Errorf("latency mean/std = %v/%v, want 150/0", fv.LatencyMean, fv.LatencyStd)
	}
	if !almostEqual(fv.RhythmConsistency, 1.0) {
		t.Errorf("RhythmConsistency = %v, want 1.0", fv.RhythmConsistency)
	}
	if fv.KeyCount != 5 {
		t.Errorf("KeyCount = %v, want 5", fv.KeyCount)
	}
	if !almostEqual(fv.TotalTime, 600) {
		t.Errorf("TotalTime = %v, want 600", fv.TotalTime)
	}
	// 5 chars over 0.6s = 500 cpm
	if !almostEqual(fv.TypingSpeed, 500) {
		t.Errorf("TypingSpeed = %v, want 500", fv.TypingSpeed)
	}
	// Release at i*150+80, next press at (i+1)*150: flight = 70 each.
	if !almostEqual(fv.FlightMean, 70) || !almostEqual(fv.FlightStd, 0) {
		t.Errorf("flight mean/std = %v/%v, want 70/0", fv.FlightMean, fv.FlightStd)
	}
}

func TestExtract_unmatchedPressDropped(t *testing.T) {
	// "b" is pressed but never released: it must not contribute a dwell.
	events := []models.KeyEvent{
		{Kind: models.KindPress, Key: "a", Timestamp: 0},
		{Kind: models.KindRelease, Key: "a", Timestamp: 60},
		{Kind: models.KindPress, Key: "b", Timestamp: 100},
	}
	fv := Extract(events, "ab")
	if len(fv.RawDwellTimes) != 1 || !almostEqual(fv.RawDwellTimes[0], 60) {
		t.Errorf("RawDwellTimes = %v, want [60]", fv.RawDwellTimes)
	}
	if !almostEqual(fv.DwellMean, 60) {
		t.Errorf("DwellMean = %v, want 60", fv.DwellMean)
	}
}

func TestExtract_negativeFlightsDiscarded(t *testing.T) {
	// Rollover: "b" is pressed before "a" is released, so release(a)->press(b)
	// is negative and must be dropped rather than kept as noise.
	events := []models.KeyEvent{
		{Kind: models.KindPress, Key: "a", Timestamp: 0},
		{Kind: models.KindPress, Key: "b", Timestamp: 50},
		{Kind: models.KindRelease, Key: "a", Timestamp: 80},
		{Kind: models.KindRelease, Key: "b", Timestamp: 130},
	}
	fv := Extract(events, "ab")
	if fv.FlightMean != 0 || fv.FlightStd != 0 || fv.FlightMedian != 0 {
		t.Errorf("flight stats = %v/%v/%v, want all 0 (negative flight discarded)",
			fv.FlightMean, fv.FlightStd, fv.FlightMedian)
	}
}

func TestDigraphLatencies_runningAverage(t *testing.T) {
	// First occurrence keeps the raw latency unmodified.
	once := []models.KeyEvent{
		{Kind: models.KindPress, Key: "a", Timestamp: 0},
		{Kind: models.KindPress, Key: "b", Timestamp: 100},
	}
	got := digraphLatencies(once)
	if !almostEqual(got["ab"], 100) {
		t.Errorf("first occurrence: ab = %v, want 100", got["ab"])
	}

	// Second occurrence replaces with (first + second) / 2.
	twice := []models.KeyEvent{
		{Kind: models.KindPress, Key: "a", Timestamp: 0},
		{Kind: models.KindPress, Key: "b", Timestamp: 100},
		{Kind: models.KindPress, Key: "a", Timestamp: 200},
		{Kind: models.KindPress, Key: "b", Timestamp: 350},
	}
	got = digraphLatencies(twice)
	if !almostEqual(got["ab"], 125) {
		t.Errorf("second occurrence: ab = %v, want (100+150)/2 = 125", got["ab"])
	}
	if !almostEqual(got["ba"], 100) {
		t.Errorf("ba = %v, want 100", got["ba"])
	}
}

func TestDigraphLatencies_multiCharKeysSkipped(t *testing.T) {
	events := []models.KeyEvent{
		{Kind: models.KindPress, Key: "a", Timestamp: 0},
		{Kind: models.KindPress, Key: "Shift", Timestamp: 100},
		{Kind: models.KindPress, Key: "b", Timestamp: 200},
	}
	got := digraphLatencies(events)
	if len(got) != 0 {
		t.Errorf("digraphs = %v, want none (symbol codes are not single characters)", got)
	}
}

func TestExtract_rawArraysCapped(t *testing.T) {
	keys := make([]string, 60)
	for i := range keys {
		keys[i] = string(rune('a' + i%26))
	}
	fv := Extract(typed(keys, 0, 100, 50), "x")
	if len(fv.RawDwellTimes) != models.MaxRawSamples {
		t.Errorf("RawDwellTimes length = %d, want %d", len(fv.RawDwellTimes), models.MaxRawSamples)
	}
	if len(fv.RawLatencies) != models.MaxRawSamples {
		t.Errorf("RawLatencies length = %d, want %d", len(fv.RawLatencies), models.MaxRawSamples)
	}
}

func TestExtract_typingSpeedCountsCharacters(t *testing.T) {
	// "привет" is 6 characters but 12 bytes; 6 chars over 0.6s = 600 cpm.
	events := []models.KeyEvent{
		{Kind: models.KindPress, Key: "a", Timestamp: 0},
		{Kind: models.KindPress, Key: "b", Timestamp: 600},
	}
	fv := Extract(events, "привет")
	if !almostEqual(fv.TypingSpeed, 600) {
		t.Errorf("TypingSpeed = %v, want 600 (character count, not byte count)", fv.TypingSpeed)
	}
}

func TestExtract_zeroElapsedTypingSpeed(t *testing.T) {
	events := []models.KeyEvent{
		{Kind: models.KindPress, Key: "a", Timestamp: 100},
		{Kind: models.KindPress, Key: "b", Timestamp: 100},
	}
	fv := Extract(events, "ab")
	if fv.TypingSpeed != 0 {
		t.Errorf("TypingSpeed = %v, want 0 for zero elapsed time", fv.TypingSpeed)
	}
}

func TestStats(t *testing.T) {
	tests := []struct {
		name   string
		in     []float64
		mean   float64
		std    float64
		median float64
		min    float64
		max    float64
	}{
		{"empty", nil, 0, 0, 0, 0, 0},
		{"single", []float64{4}, 4, 0, 4, 4, 4},
		{"odd length", []float64{3, 1, 2}, 2, math.Sqrt(2.0 / 3.0), 2, 1, 3},
		{"even length", []float64{1, 2, 3, 4}, 2.5, math.Sqrt(1.25), 2.5, 1, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mean(tt.in); !almostEqual(got, tt.mean) {
				t.Errorf("mean = %v, want %v", got, tt.mean)
			}
			if got := stddev(tt.in); !almostEqual(got, tt.std) {
				t.Errorf("stddev = %v, want %v", got, tt.std)
			}
			if got := median(tt.in); !almostEqual(got, tt.median) {
				t.Errorf("median = %v, want %v", got, tt.median)
			}
			lo, hi := minMax(tt.in)
			if !almostEqual(lo, tt.min) || !almostEqual(hi, tt.max) {
				t.Errorf("minMax = %v/%v, want %v/%v", lo, hi, tt.min, tt.max)
			}
		})
	}
}
