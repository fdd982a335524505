package model

// Exclusions is the read-only view of a user's swipe history used for
// filtering. Liked tracks are always excluded from recommendations; rejected
// tracks may be re-admitted by escalation rounds.
type Exclusions struct {
	RejectedIDs map[string]struct{}
	LikedIDs    map[string]struct{}
	LikedKeys   map[string]struct{} // normalized name|artist keys
}

// EmptyExclusions returns an Exclusions with no entries, used for anonymous
// requests.
func EmptyExclusions() Exclusions {
	return Exclusions{
		RejectedIDs: map[string]struct{}{},
		LikedIDs:    map[string]struct{}{},
		LikedKeys:   map[string]struct{}{},
	}
}

// Rejected reports whether the track id was previously swiped left.
func (e Exclusions) Rejected(id string) bool {
	_, ok := e.RejectedIDs[id]
	return ok
}

// Liked reports whether the track id was previously swiped right.
func (e Exclusions) Liked(id string) bool {
	_, ok := e.LikedIDs[id]
	return ok
}

// LikedKey reports whether the normalized name|artist key was previously
// liked under a different track id.
func (e Exclusions) LikedKey(key string) bool {
	_, ok := e.LikedKeys[key]
	return ok
}
