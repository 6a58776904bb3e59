// Package history keeps an append-only log of verification checks in
// PostgreSQL. Queries are stored as a hash of the cache key, never as the
// raw personal data that went into them.
package history

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Record is one completed verification check.
type Record struct {
	ID            uuid.UUID
	Portal        string
	QueryHash     string
	Source        string
	Positive      bool
	LowConfidence bool
	Attempts      int
	Message       string
	CheckedAt     time.Time
}

// Store appends and lists check records.
type Store interface {
	Append(ctx context.Context, record Record) error
	ListRecent(ctx context.Context, portal string, limit int) ([]Record, error)
}

// HashQuery derives the stored query identifier from a cache key.
func HashQuery(cacheKey string) string {
	sum := sha256.Sum256([]byte(cacheKey))
	return hex.EncodeToString(sum[:])
}

// PostgresStore persists check records in the verification_checks table.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres creates a PostgreSQL-backed history store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Append writes one record. A zero ID gets a fresh UUID; a zero CheckedAt
// gets the current time.
func (s *PostgresStore) Append(ctx context.Context, record Record) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CheckedAt.IsZero() {
		record.CheckedAt = time.Now()
	}

	query := `
		INSERT INTO verification_checks (
			id, portal, query_hash, source, positive,
			low_confidence, attempts, message, checked_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		record.ID,
		record.Portal,
		record.QueryHash,
		record.Source,
		record.Positive,
		record.LowConfidence,
		record.Attempts,
		record.Message,
		record.CheckedAt,
	)
	if err != nil {
		return fmt.Errorf("insert verification check: %w", err)
	}
	return nil
}

// ListRecent returns the most recent checks for a portal, newest first.
func (s *PostgresStore) ListRecent(ctx context.Context, portal string, limit int) ([]Record, error) {
	query := `
		SELECT id, portal, query_hash, source, positive,
			   low_confidence, attempts, message, checked_at
		FROM verification_checks
		WHERE portal = $1
		ORDER BY checked_at DESC
		LIMIT $2
	`
	rows, err := s.db.QueryContext(ctx, query, portal, limit)
	if err != nil {
		return nil, fmt.Errorf("query verification checks: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var record Record
		err := rows.Scan(
			&record.ID,
			&record.Portal,
			&record.QueryHash,
			&record.Source,
			&record.Positive,
			&record.LowConfidence,
			&record.Attempts,
			&record.Message,
			&record.CheckedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan verification check: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate verification checks: %w", err)
	}
	return records, nil
}

// NopStore discards records. Used when PostgreSQL is not configured.
type NopStore struct{}

// NewNop creates a history store that keeps nothing.
func NewNop() *NopStore {
	return &NopStore{}
}

func (*NopStore) Append(ctx context.Context, record Record) error {
	return nil
}

func (*NopStore) ListRecent(ctx context.Context, portal string, limit int) ([]Record, error) {
	return nil, nil
}
