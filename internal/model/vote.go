package model

import (
	"fmt"
	"time"
)

// VoteType is the direction of a vote.
type VoteType string

const (
	VoteUp   VoteType = "up"
	VoteDown VoteType = "down"
)

// Valid reports whether t is a known vote direction.
func (t VoteType) Valid() bool { return t == VoteUp || t == VoteDown }

// Vote is the single vote a user holds on an entity. Weight is the exact
// amount the vote contributed to the entity score.
type Vote struct {
	UserID     string     `json:"user_id"`
	EntityType EntityType `json:"entity_type"`
	EntityID   string     `json:"entity_id"`
	Type       VoteType   `json:"type"`
	Weight     float64    `json:"weight"`
	Time       time.Time  `json:"time"`
}

func (v Vote) String() string {
	return fmt.Sprintf("%s %s ~ %+.2f", v.EntityType, v.EntityID, v.Weight)
}
