package model

// EntityType tags the kind of entity a snapshot or vote refers to.
type EntityType string

const (
	EntityBook  EntityType = "book"
	EntityImage EntityType = "image"
)

// VoteTarget is the capability set the vote ledger needs from an entity:
// its identity, its kind and a mutable score.
type VoteTarget interface {
	TargetID() string
	TargetType() EntityType
	// AddScore offsets the score by delta and returns the new score.
	AddScore(delta float64) float64
}

// Actor is the identity causing a change, as supplied by the claims provider.
// The zero value is the system actor.
type Actor struct {
	UserID       string
	Reputation   float64
	IsRestricted bool
	// Reason is an optional free-text justification recorded on snapshots.
	Reason string
}

// IsSystem reports whether the change is not attributed to a user.
func (a Actor) IsSystem() bool { return a.UserID == "" }
