// Package storage defines the persistence interface for enrolled users,
// feature samples, and the normalization model blob.
package storage

import (
	"context"

	"github.com/typegait/typegait/internal/models"
)

// Storage defines user, sample, and model persistence operations. Samples are
// append-only: there is deliberately no way to delete or reorder them.
type Storage interface {
	// User operations
	GetUser(ctx context.Context, id string) (*models.UserRecord, error)
	ListUsers(ctx context.Context) ([]*models.UserSummary, error)
	AllUsers(ctx context.Context) (map[string]*models.UserRecord, error)

	// Sample operations
	AppendSample(ctx context.Context, userID string, fv *models.FeatureVector) (int, error)

	// Model blob
	SaveModel(ctx context.Context, blob []byte) error
	LoadModel(ctx context.Context) ([]byte, error)

	// Stats
	CountUsers(ctx context.Context) (int64, error)
	CountSamples(ctx context.Context) (int64, error)

	Close() error
}
