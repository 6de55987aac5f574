// Package services defines interfaces for domain service contracts.
package services

import (
	"github.com/ochairo/aiaudit/internal/domain/entities"
)

// RiskService contains the pure business rules of an audit
type RiskService interface {
	// Classify maps sensitivity and probe outcome to a risk tier
	Classify(sensitive bool, probe entities.FeatureProbeResult) entities.RiskTier

	// BuildRow turns a classified item into a report row
	BuildRow(profile *entities.Profile, item entities.CollectionItem, probe entities.FeatureProbeResult) entities.ReportRow

	// BuildEnrichmentRow turns an enrichment item into a fixed-tier report row
	BuildEnrichmentRow(spec entities.EnrichmentSpec, item entities.CollectionItem) entities.ReportRow

	// Summarize reduces rows to per-tier counts and guidance
	Summarize(profile *entities.Profile, rows []entities.ReportRow) entities.Summary

	// FilterRows returns rows at or above a minimum tier
	FilterRows(rows []entities.ReportRow, minTier entities.RiskTier) []entities.ReportRow
}

// ProgressReporter receives console-facing progress events
type ProgressReporter interface {
	CollectionFetched(noun string, page, count int)
	CollectionComplete(noun string, total int)
	ItemChecked(index, total int, item entities.CollectionItem, row *entities.ReportRow)
	RateLimitWait(wait string)
	EnrichmentSkipped(name, reason string)
	EnrichmentFound(name string, count int)
}

// AuditMetrics records run statistics
type AuditMetrics interface {
	ItemsFetched(profile string, n int)
	ProbeObserved(profile string, result entities.FeatureProbeResult)
	RowRecorded(profile string, tier entities.RiskTier)
	RateLimitWaited(profile string, seconds float64)
	EnrichmentSkipped(profile, category string)
}
