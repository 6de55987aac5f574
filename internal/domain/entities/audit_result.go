package entities

import "time"

// AuditResult contains everything a completed audit run produced
type AuditResult struct {
	RunID      string
	Profile    string
	Scope      string
	Columns    []string
	Rows       []ReportRow
	ItemsFound int
	Probes     ProbeStats
	Skipped    []SkippedCategory
	Summary    Summary
	RateLimit  RateLimitState
	StartedAt  time.Time
	Duration   time.Duration
}

// ProbeStats counts probe outcomes
type ProbeStats struct {
	Enabled       int
	Disabled      int
	Indeterminate int
}

// SkippedCategory records an enrichment category that could not be read
type SkippedCategory struct {
	Name   string
	Reason string
}

// Summary is the per-tier reduction of a report
type Summary struct {
	Counts    map[RiskTier]int
	Total     int
	Narrative []GuidanceBlock
}

// GuidanceBlock is static remediation text for one tier
type GuidanceBlock struct {
	Tier  RiskTier
	Count int
	Lines []string
}

// Count returns the number of rows in tier t
func (s Summary) Count(t RiskTier) int {
	return s.Counts[t]
}
