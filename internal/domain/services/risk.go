// Package services implements domain business logic and use cases.
package services

import (
	"github.com/ochairo/aiaudit/internal/domain/entities"
	"github.com/ochairo/aiaudit/internal/domain/interfaces/services"
)

// defaultGuidance is used for tiers a profile does not describe
var defaultGuidance = map[entities.RiskTier][]string{
	entities.TierCritical: {
		"AI features are processing content on publicly exposed assets.",
		"Disable the feature on public assets or move sensitive content to private ones.",
	},
	entities.TierHigh: {
		"AI features are enabled on private or internal assets.",
		"Review these assets for potential IP or data leakage.",
	},
}

// riskService implements RiskService with pure business logic
type riskService struct{}

// NewRiskService creates a new risk service
func NewRiskService() services.RiskService {
	return &riskService{}
}

// Classify maps (sensitivity, probe) to a tier. Anything not confirmed
// enabled is Low: an indeterminate probe is not reported as a finding.
func (s *riskService) Classify(sensitive bool, probe entities.FeatureProbeResult) entities.RiskTier {
	if probe != entities.ProbeEnabled {
		return entities.TierLow
	}
	if sensitive {
		return entities.TierHigh
	}
	return entities.TierCritical
}

// BuildRow creates a classified report row for a primary collection item
func (s *riskService) BuildRow(profile *entities.Profile, item entities.CollectionItem, probe entities.FeatureProbeResult) entities.ReportRow {
	row := baseRow(profile.Collection.RowType, item)
	row.HasSensitivity = true
	row.Sensitive = item.Sensitive
	row.HasFeature = true
	row.Feature = probe
	row.FeatureLabel = profile.Labels.Label(probe)
	row.Tier = s.Classify(item.Sensitive, probe)
	return row
}

// BuildEnrichmentRow creates a fixed-tier row for an enrichment item
func (s *riskService) BuildEnrichmentRow(spec entities.EnrichmentSpec, item entities.CollectionItem) entities.ReportRow {
	row := baseRow(spec.RowType, item)
	row.Tier = spec.Tier
	if row.Tier == 0 {
		row.Tier = entities.TierMedium
	}
	return row
}

func baseRow(rowType string, item entities.CollectionItem) entities.ReportRow {
	row := entities.ReportRow{
		Type:       rowType,
		Identifier: item.Identifier,
		Name:       item.Name(),
		URL:        item.ExternalURL,
		Key:        item.Metadata.Key,
		Vendor:     item.Metadata.Vendor,
		Email:      item.Metadata.Email,
		Status:     item.Metadata.Status,
		CreatedAt:  item.Metadata.CreatedAt,
		UpdatedAt:  item.Metadata.UpdatedAt,
	}
	if item.Metadata.LicenseCount != nil {
		n := *item.Metadata.LicenseCount
		row.LicenseCount = &n
	}
	return row
}

// Summarize counts rows per tier. Guidance is only attached for Critical
// and High, and only when their count is non-zero.
func (s *riskService) Summarize(profile *entities.Profile, rows []entities.ReportRow) entities.Summary {
	summary := entities.Summary{
		Counts: make(map[entities.RiskTier]int, len(entities.TiersBySeverity)),
		Total:  len(rows),
	}
	for _, tier := range entities.TiersBySeverity {
		summary.Counts[tier] = 0
	}
	for _, row := range rows {
		summary.Counts[row.Tier]++
	}

	for _, tier := range []entities.RiskTier{entities.TierCritical, entities.TierHigh} {
		count := summary.Counts[tier]
		if count == 0 {
			continue
		}
		lines := defaultGuidance[tier]
		if profile != nil {
			if custom, ok := profile.Guidance[tier]; ok && len(custom) > 0 {
				lines = custom
			}
		}
		summary.Narrative = append(summary.Narrative, entities.GuidanceBlock{
			Tier:  tier,
			Count: count,
			Lines: lines,
		})
	}

	return summary
}

// FilterRows returns rows whose tier is at least minTier, preserving order
func (s *riskService) FilterRows(rows []entities.ReportRow, minTier entities.RiskTier) []entities.ReportRow {
	filtered := make([]entities.ReportRow, 0, len(rows))
	for _, row := range rows {
		if row.Tier >= minTier {
			filtered = append(filtered, row)
		}
	}
	return filtered
}
