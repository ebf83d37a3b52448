// Package storage provides the SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/typegait/typegait/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes
// the schema. Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS samples (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		features TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_samples_user_id ON samples(user_id);

	CREATE TABLE IF NOT EXISTS model (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		blob BLOB NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	`
	_, err := db.Exec(schema)
	return err
}

// GetUser returns a user with all samples in append order.
func (s *SQLiteStorage) GetUser(ctx context.Context, id string) (*models.UserRecord, error) {
	var user models.UserRecord
	err := s.db.QueryRowContext(ctx,
		`SELECT id, created_at, updated_at FROM users WHERE id = ?`, id,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user not found: %s", id)
	}
	if err != nil {
		return nil, err
	}

	samples, err := s.userSamples(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Samples = samples
	return &user, nil
}

// ListUsers returns all enrolled users with their sample counts.
func (s *SQLiteStorage) ListUsers(ctx context.Context) ([]*models.UserSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT u.id, u.created_at, u.updated_at, COUNT(s.id)
		 FROM users u LEFT JOIN samples s ON s.user_id = u.id
		 GROUP BY u.id ORDER BY u.created_at`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*models.UserSummary
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt, &u.SamplesCount); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// AllUsers returns every enrolled user with full sample history, keyed by ID.
func (s *SQLiteStorage) AllUsers(ctx context.Context) (map[string]*models.UserRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, created_at, updated_at FROM users`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make(map[string]*models.UserRecord)
	for rows.Next() {
		var u models.UserRecord
		if err := rows.Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users[u.ID] = &u
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sampleRows, err := s.db.QueryContext(ctx,
		`SELECT user_id, features FROM samples ORDER BY user_id, rowid`)
	if err != nil {
		return nil, err
	}
	defer sampleRows.Close()

	for sampleRows.Next() {
		var userID, featuresJSON string
		if err := sampleRows.Scan(&userID, &featuresJSON); err != nil {
			return nil, err
		}
		user, ok := users[userID]
		if !ok {
			continue
		}
		var fv models.FeatureVector
		if err := json.Unmarshal([]byte(featuresJSON), &fv); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sample for %s: %w", userID, err)
		}
		user.Samples = append(user.Samples, &fv)
	}
	return users, sampleRows.Err()
}

// AppendSample stores one feature vector for userID, creating the user on
// first enrollment, and returns the user's new sample count.
func (s *SQLiteStorage) AppendSample(ctx context.Context, userID string, fv *models.FeatureVector) (int, error) {
	featuresJSON, err := json.Marshal(fv)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal features: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	now := time.Now()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO users (id, created_at, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET updated_at = excluded.updated_at`,
		userID, now, now,
	); err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO samples (id, user_id, features, created_at) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), userID, string(featuresJSON), now,
	); err != nil {
		return 0, err
	}

	var count int
	if err := tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM samples WHERE user_id = ?`, userID,
	).Scan(&count); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return count, nil
}

// SaveModel stores the normalization model blob, replacing any previous one.
func (s *SQLiteStorage) SaveModel(ctx context.Context, blob []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO model (id, blob, updated_at) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET blob = excluded.blob, updated_at = excluded.updated_at`,
		blob, time.Now(),
	)
	return err
}

// LoadModel returns the stored model blob, or nil when none has been saved.
func (s *SQLiteStorage) LoadModel(ctx context.Context) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx, `SELECT blob FROM model WHERE id = 1`).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return blob, nil
}

// CountUsers returns the total number of enrolled users.
func (s *SQLiteStorage) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}

// CountSamples returns the total number of stored samples.
func (s *SQLiteStorage) CountSamples(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM samples`).Scan(&count)
	return count, err
}

func (s *SQLiteStorage) userSamples(ctx context.Context, userID string) ([]*models.FeatureVector, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT features FROM samples WHERE user_id = ? ORDER BY rowid`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []*models.FeatureVector
	for rows.Next() {
		var featuresJSON string
		if err := rows.Scan(&featuresJSON); err != nil {
			return nil, err
		}
		var fv models.FeatureVector
		if err := json.Unmarshal([]byte(featuresJSON), &fv); err != nil {
			return nil, fmt.Errorf("failed to unmarshal sample: %w", err)
		}
		samples = append(samples, &fv)
	}
	return samples, rows.Err()
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
