package biometric

import (
	"math"

	"github.com/typegait/typegait/internal/models"
)

// Metric weights for the combined score. Raw temporal cadence is the most
// discriminating behavioral signal, so the timing term is weighted highest.
const (
	euclideanWeight = 0.25
	manhattanWeight = 0.25
	cosineWeight    = 0.20
	timingWeight    = 0.30
)

// timingNeutralScore is reported when no timing field qualifies for comparison.
const timingNeutralScore = 50

// euclideanScore converts Euclidean distance between normalized vectors to a
// score in (0, 100]. A dimension mismatch is worst-case (infinite distance).
func euclideanScore(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return 100 / (1 + math.Sqrt(sum))
}

// manhattanScore converts Manhattan distance to a score in (0, 100].
func manhattanScore(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += math.Abs(a[i] - b[i])
	}
	return 100 / (1 + sum)
}

// cosineScore rescales cosine similarity from [-1, 1] to [0, 100]. Degenerate
// vectors (zero norm, mismatched lengths) degrade to zero similarity, never an
// error.
func cosineScore(a, b []float64) float64 {
	sim := 0.0
	if len(a) == len(b) {
		var dot, normA, normB float64
		for i := range a {
			dot += a[i] * b[i]
			normA += a[i] * a[i]
			normB += b[i] * b[i]
		}
		if normA > 0 && normB > 0 {
			sim = dot / (math.Sqrt(normA) * math.Sqrt(normB))
		}
	}
	return (sim + 1) * 50
}

// timingSimilarity compares the un-normalized dwell, latency, flight and
// typing-speed means of two samples. Each field with at least one non-zero
// value contributes its relative difference |a-b|/max(|a|,|b|,1); the average
// difference maps to a similarity in [0, 100]. With no qualifying field the
// score is neutral.
func timingSimilarity(query, sample *models.FeatureVector) float64 {
	pairs := [][2]float64{
		{query.DwellMean, sample.DwellMean},
		{query.LatencyMean, sample.LatencyMean},
		{query.FlightMean, sample.FlightMean},
		{query.TypingSpeed, sample.TypingSpeed},
	}

	var totalDiff float64
	count := 0
	for _, p := range pairs {
		a, b := p[0], p[1]
		if a == 0 && b == 0 {
			continue
		}
		scale := math.Max(math.Max(math.Abs(a), math.Abs(b)), 1)
		totalDiff += math.Abs(a-b) / scale
		count++
	}
	if count == 0 {
		return timingNeutralScore
	}
	avgDiff := totalDiff / float64(count)
	return 100 * (1 - math.Min(avgDiff, 1))
}

// combinedScore blends the four metric scores and clamps to [0, 100].
func combinedScore(euclidean, manhattan, cosine, timing float64) float64 {
	combined := euclideanWeight*euclidean +
		manhattanWeight*manhattan +
		cosineWeight*cosine +
		timingWeight*timing
	return math.Max(0, math.Min(100, combined))
}

// confidence is the inverse coefficient of variation of a user's per-sample
// scores, in [0, 100]. Low variance across a user's own history means the
// similarity number is a stable trait rather than noise. Fewer than 2 scores
// or a zero mean yields 0.
func confidence(scores []float64) float64 {
	if len(scores) < 2 {
		return 0
	}
	var sum float64
	for _, s := range scores {
		sum += s
	}
	m := sum / float64(len(scores))
	if m == 0 {
		return 0
	}
	var sq float64
	for _, s := range scores {
		d := s - m
		sq += d * d
	}
	std := math.Sqrt(sq / float64(len(scores)))
	return 100 / (1 + std/m)
}
