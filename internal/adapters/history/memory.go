package history

import (
	"context"
	"sync"

	"github.com/echosift/echosift/internal/domain/model"
	"github.com/echosift/echosift/pkg/metrics"
)

// userHistory holds one user's swipe sets. Keys are normalized name|artist
// pairs so a liked track stays excluded when it reappears under a different
// catalog id.
type userHistory struct {
	liked     map[string]struct{}
	likedKeys map[string]struct{}
	rejected  map[string]struct{}
}

func newUserHistory() *userHistory {
	return &userHistory{
		liked:     make(map[string]struct{}),
		likedKeys: make(map[string]struct{}),
		rejected:  make(map[string]struct{}),
	}
}

// MemoryStore is an in-memory Store keyed by user id.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*userHistory
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]*userHistory),
	}
}

// RecordSwipe implements Store.
func (s *MemoryStore) RecordSwipe(_ context.Context, userID, direction string, track model.TrackSummary) error {
	if direction != DirectionLike && direction != DirectionReject {
		return ErrUnknownDirection
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		u = newUserHistory()
		s.users[userID] = u
	}

	key := model.SongKey(track.Name, track.Artist)
	if direction == DirectionLike {
		delete(u.rejected, track.ID)
		u.liked[track.ID] = struct{}{}
		u.likedKeys[key] = struct{}{}
	} else {
		delete(u.liked, track.ID)
		delete(u.likedKeys, key)
		u.rejected[track.ID] = struct{}{}
	}

	metrics.RecordSwipe(direction)
	metrics.UpdateTrackedUsers(len(s.users))
	return nil
}

// ExclusionsFor implements Store. The returned sets are copies; callers may
// hold them across a whole recommendation pass without locking.
func (s *MemoryStore) ExclusionsFor(_ context.Context, userID string) model.Exclusions {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return model.EmptyExclusions()
	}

	excl := model.Exclusions{
		RejectedIDs: make(map[string]struct{}, len(u.rejected)),
		LikedIDs:    make(map[string]struct{}, len(u.liked)),
		LikedKeys:   make(map[string]struct{}, len(u.likedKeys)),
	}
	for id := range u.rejected {
		excl.RejectedIDs[id] = struct{}{}
	}
	for id := range u.liked {
		excl.LikedIDs[id] = struct{}{}
	}
	for key := range u.likedKeys {
		excl.LikedKeys[key] = struct{}{}
	}
	return excl
}

// Reset implements Store.
func (s *MemoryStore) Reset(_ context.Context, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, userID)
	metrics.UpdateTrackedUsers(len(s.users))
}

// Stats implements Store.
func (s *MemoryStore) Stats(_ context.Context) Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Stats{Users: len(s.users)}
	for _, u := range s.users {
		st.Likes += len(u.liked)
		st.Rejects += len(u.rejected)
	}
	return st
}
