// File: utils/constants.go
package utils

import "time"

// PriceCachePrefix is the prefix used for Redis rate cache keys.
const PriceCachePrefix = "rate:"

// MinutesPerDay bounds slot and time-of-day values.
const MinutesPerDay = 24 * 60

// DefaultPageSize and MaxPageSize bound booking listings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// RepoTimeout is applied to every single store round trip.
const RepoTimeout = 5 * time.Second
