// Package history defines the swipe-history store interface and errors.
package history

import (
	"context"

	"github.com/echosift/echosift/internal/domain/model"
)

// Swipe directions.
const (
	DirectionLike   = "like"
	DirectionReject = "reject"
)

// Stats summarizes the stored history.
type Stats struct {
	Users   int `json:"users"`
	Likes   int `json:"likes"`
	Rejects int `json:"rejects"`
}

// Store provides read/write access to per-user swipe history.
type Store interface {
	// RecordSwipe stores one swipe. Swiping the same track again moves it
	// between the liked and rejected sets.
	RecordSwipe(ctx context.Context, userID, direction string, track model.TrackSummary) error

	// ExclusionsFor returns a snapshot of the user's exclusion sets. Unknown
	// users get empty exclusions.
	ExclusionsFor(ctx context.Context, userID string) model.Exclusions

	// Reset clears the user's history.
	Reset(ctx context.Context, userID string)

	// Stats returns aggregate history counts.
	Stats(ctx context.Context) Stats
}
