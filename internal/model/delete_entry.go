package model

import "time"

// DeleteEntry is an asset pending physical deletion. It becomes eligible for
// purge once SoftDeleteTime is older than the grace window.
type DeleteEntry struct {
	Filename       string
	SoftDeleteTime time.Time
}
