package models

// Match is one ranked identification candidate. Similarity and Confidence are
// bounded in [0, 100].
type Match struct {
	UserID        string  `json:"user_id"`
	Similarity    float64 `json:"similarity"`
	MaxSimilarity float64 `json:"max_similarity"`
	MinSimilarity float64 `json:"min_similarity"`
	SamplesCount  int     `json:"samples_count"`
	Confidence    float64 `json:"confidence"`
}

// EnrollRequest is the body of POST /api/v1/enroll.
type EnrollRequest struct {
	UserID string     `json:"user_id"`
	Events []KeyEvent `json:"events"`
	Text   string     `json:"text"`
}

// EnrollResponse acknowledges an accepted enrollment sample.
type EnrollResponse struct {
	UserID       string `json:"user_id"`
	SamplesCount int    `json:"samples_count"`
}

// IdentifyRequest is the body of POST /api/v1/identify.
type IdentifyRequest struct {
	Events []KeyEvent `json:"events"`
	Text   string     `json:"text"`
	TopK   int        `json:"top_k,omitempty"`
}

// IdentifyResponse is the ranked result of an identification query.
type IdentifyResponse struct {
	Matches   []Match `json:"matches"`
	Total     int     `json:"total"`
	QueryTime int64   `json:"query_time_ms"`
}
