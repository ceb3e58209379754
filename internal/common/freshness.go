// Package common provides shared utilities for Moneta
package common

import "time"

// Freshness TTLs and connectivity timings for the local data layer
const (
	FreshnessCache     = 5 * time.Minute  // collection cache read-through TTL
	StalenessThreshold = 10 * time.Minute // offline data considered stale past this
	ProbeTimeout       = 5 * time.Second  // connectivity liveness probe
	ProbeInterval      = 30 * time.Second // background connectivity poll
)

// IsFresh returns true if the given timestamp is within the TTL
func IsFresh(updated time.Time, ttl time.Duration) bool {
	if updated.IsZero() {
		return false
	}
	return time.Since(updated) < ttl
}
