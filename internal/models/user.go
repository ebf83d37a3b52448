package models

import "time"

// UserRecord is one enrolled identity and its append-only sample history.
// Samples are never deleted or reordered.
type UserRecord struct {
	ID        string           `json:"id"`
	Samples   []*FeatureVector `json:"samples"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// UserSummary is the list-view shape of an enrolled user.
type UserSummary struct {
	ID           string    `json:"id"`
	SamplesCount int       `json:"samples_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
