package entities

import "time"

// Quota is a point-in-time reading of an API's remaining request budget
type Quota struct {
	Remaining int // -1 when unknown
	ResetAt   time.Time
	Known     bool
}

// RateLimitState is the process-scoped view of the quota. Only the rate
// limit guard writes it.
type RateLimitState struct {
	Remaining int
	ResetAt   time.Time
	CheckedAt time.Time
	Waits     int // Number of times the guard suspended the run
}
