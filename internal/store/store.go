// Package store persists one schedule document per community.
//
// Stores are atomic per call: a document is always read and written as a
// whole, and the last writer wins. No store retries on failure.
package store

import (
	"context"
	"errors"

	"raidsched/internal/model"
)

// DefaultTimezoneID is the display zone of a schedule that was never saved.
const DefaultTimezoneID = "CET"

// ErrUnavailable wraps every backend failure (I/O, network, decoding).
var ErrUnavailable = errors.New("store: unavailable")

// Store is the persistence boundary of the scheduling engine.
type Store interface {
	// GetSchedule returns the stored schedule, or an empty one when the
	// community has no document yet.
	GetSchedule(ctx context.Context, communityID string) (model.Schedule, error)
	// UpdateSchedule replaces the whole document of the community.
	UpdateSchedule(ctx context.Context, communityID string, s model.Schedule) error
}

func defaultZone(id string) string {
	if id == "" {
		return DefaultTimezoneID
	}
	return id
}
