// Package history keeps previously computed sky charts so they can be
// fetched again by ID.
package history

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no chart has the requested ID.
var ErrNotFound = errors.New("chart not found")

// Record is one stored chart. Payload holds the chart response as JSON.
type Record struct {
	ID           string          `json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	ObserverName string          `json:"observer_name"`
	Lat          float64         `json:"lat"`
	Lon          float64         `json:"lon"`
	Instant      time.Time       `json:"instant"`
	Payload      json.RawMessage `json:"payload"`
}

// Store persists chart records.
type Store interface {
	// Save assigns an ID and creation time when missing and stores the record.
	Save(ctx context.Context, rec Record) (Record, error)
	// Get returns the record with id or ErrNotFound.
	Get(ctx context.Context, id string) (Record, error)
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]Record, error)
}

func prepare(rec Record, now func() time.Time) Record {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now().UTC()
	}
	rec.Instant = rec.Instant.UTC()
	return rec
}

// validID rejects IDs that are not UUIDs before they reach a query.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
