package biometric

import (
	"sort"
	"sync"

	"github.com/typegait/typegait/internal/models"
)

// DefaultTopK is the number of ranked matches returned when the caller does
// not ask for a specific count.
const DefaultTopK = 5

// Engine ranks enrolled users against a query feature vector. Its only state
// is the normalization scaler, guarded by a single exclusive lock so that a
// concurrent refit cannot invalidate a normalization mid-ranking.
type Engine struct {
	mu     sync.Mutex
	scaler *Scaler
}

// NewEngine returns an engine with no fitted normalization.
func NewEngine() *Engine {
	return &Engine{}
}

// Train refits the normalization scaler over every sample of every enrolled
// user. With fewer than 2 total samples the fit is skipped and prior state is
// left intact. Training twice with unchanged data yields identical parameters.
func (e *Engine) Train(users map[string]*models.UserRecord) {
	var vectors [][]float64
	for _, id := range sortedIDs(users) {
		for _, sample := range users[id].Samples {
			vectors = append(vectors, sample.Vector())
		}
	}
	fitted := FitScaler(models.FeatureNames, vectors)
	if fitted == nil {
		return
	}
	e.mu.Lock()
	e.scaler = fitted
	e.mu.Unlock()
}

// Fitted reports whether a normalization has been fitted or restored.
func (e *Engine) Fitted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.scaler != nil
}

// Identify ranks all enrolled users against the query by descending mean
// similarity and returns the top topK (DefaultTopK when topK <= 0). Enrollment
// state is never mutated; with no enrolled users the result is empty.
//
// If no normalization has ever been fitted, a one-shot scaler is fitted over
// the query plus all enrolled samples for this call only and not retained.
func (e *Engine) Identify(query *models.FeatureVector, users map[string]*models.UserRecord, topK int) []models.Match {
	if topK <= 0 {
		topK = DefaultTopK
	}
	if len(users) == 0 {
		return []models.Match{}
	}

	ids := sortedIDs(users)

	// Project the query and every sample in one batch so normalization is
	// applied consistently across both sides of the comparison.
	batch := [][]float64{query.Vector()}
	for _, id := range ids {
		for _, sample := range users[id].Samples {
			batch = append(batch, sample.Vector())
		}
	}

	// Load scaler, bootstrap-fit if absent, and transform under one lock
	// hold: fit-then-read races against a concurrent Train would otherwise
	// score the two phases against inconsistent parameters.
	e.mu.Lock()
	scaler := e.scaler
	if scaler == nil {
		scaler = FitScaler(models.FeatureNames, batch)
	}
	normalized := make([][]float64, len(batch))
	for i, v := range batch {
		if scaler != nil {
			normalized[i] = scaler.Transform(v)
		} else {
			normalized[i] = v
		}
	}
	e.mu.Unlock()

	queryNorm := normalized[0]
	matches := make([]models.Match, 0, len(ids))
	idx := 1
	for _, id := range ids {
		samples := users[id].Samples
		if len(samples) == 0 {
			continue
		}
		scores := make([]float64, 0, len(samples))
		for _, sample := range samples {
			sampleNorm := normalized[idx]
			idx++
			scores = append(scores, combinedScore(
				euclideanScore(queryNorm, sampleNorm),
				manhattanScore(queryNorm, sampleNorm),
				cosineScore(queryNorm, sampleNorm),
				timingSimilarity(query, sample),
			))
		}
		matches = append(matches, models.Match{
			UserID:        id,
			Similarity:    meanOf(scores),
			MaxSimilarity: maxOf(scores),
			MinSimilarity: minOf(scores),
			SamplesCount:  len(samples),
			Confidence:    confidence(scores),
		})
	}

	// Stable sort keeps the sorted-ID visit order for ties.
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > topK {
		matches = matches[:topK]
	}
	return matches
}

// ExportModel serializes the fitted scaler and its ordered dimension names as
// one opaque blob. ErrNotFitted when no normalization exists yet.
func (e *Engine) ExportModel() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.scaler == nil {
		return nil, ErrNotFitted
	}
	return e.scaler.Marshal()
}

// RestoreModel replaces the scaler from a blob produced by ExportModel. Blobs
// whose dimension-name list does not match the canonical schema are rejected.
func (e *Engine) RestoreModel(blob []byte) error {
	scaler, err := UnmarshalScaler(blob, models.FeatureNames)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.scaler = scaler
	e.mu.Unlock()
	return nil
}

// sortedIDs returns user IDs in lexical order; Go maps are unordered and the
// ranking contract needs a deterministic visit order.
func sortedIDs(users map[string]*models.UserRecord) []string {
	ids := make([]string, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func meanOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func maxOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x > m {
			m = x
		}
	}
	return m
}

func minOf(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := xs[0]
	for _, x := range xs[1:] {
		if x < m {
			m = x
		}
	}
	return m
}
