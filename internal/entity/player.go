package entity

// DefaultRating is assigned to new users and assumed for unresolved refs.
const DefaultRating = 1200

// PlayerRef is the tagged player reference a session stores: either a bare
// identifier pending enrichment or a full user snapshot. Sessions keep
// whichever they were given and never re-fetch; normalization happens once at
// the transport boundary.
type PlayerRef struct {
	ID       string `json:"id"`
	Username string `json:"username,omitempty"`
	Rating   int    `json:"rating,omitempty"`
	Resolved bool   `json:"resolved"`
}

// UnresolvedPlayer wraps a bare identifier.
func UnresolvedPlayer(id string) *PlayerRef {
	return &PlayerRef{ID: id}
}

// ResolvedPlayer snapshots a user into a reference.
func ResolvedPlayer(user *User) *PlayerRef {
	return &PlayerRef{
		ID:       user.ID,
		Username: user.Username,
		Rating:   user.Rating,
		Resolved: true,
	}
}

// RatingOrDefault returns the snapshot rating, or the baseline when the ref
// was never enriched.
func (that *PlayerRef) RatingOrDefault() int {
	if that == nil || !that.Resolved {
		return DefaultRating
	}
	return that.Rating
}

func (that *PlayerRef) Clone() *PlayerRef {
	if that == nil {
		return nil
	}
	clone := *that
	return &clone
}
