package entities

import (
	"fmt"
	"strings"
)

// FeatureProbeResult is the tri-state outcome of a per-item feature probe
type FeatureProbeResult int

const (
	// ProbeIndeterminate means the probe failed or returned an unexpected status
	ProbeIndeterminate FeatureProbeResult = iota
	// ProbeDisabled means the feature is confirmed off (or absent)
	ProbeDisabled
	// ProbeEnabled means the feature is confirmed on
	ProbeEnabled
)

// String returns the default report label (Yes/No/Error)
func (r FeatureProbeResult) String() string {
	switch r {
	case ProbeEnabled:
		return "Yes"
	case ProbeDisabled:
		return "No"
	default:
		return "Error"
	}
}

// RiskTier is a coarse risk classification
type RiskTier int

// Tiers are ordered by severity; a higher value is more severe.
const (
	TierLow RiskTier = iota + 1
	TierMedium
	TierHigh
	TierCritical
)

// TiersBySeverity lists every tier from most to least severe
var TiersBySeverity = []RiskTier{TierCritical, TierHigh, TierMedium, TierLow}

// String returns the upper-case tier name used in reports
func (t RiskTier) String() string {
	switch t {
	case TierCritical:
		return "CRITICAL"
	case TierHigh:
		return "HIGH"
	case TierMedium:
		return "MEDIUM"
	case TierLow:
		return "LOW"
	default:
		return "UNKNOWN"
	}
}

// ParseRiskTier parses a tier name (case-insensitive)
func ParseRiskTier(s string) (RiskTier, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CRITICAL":
		return TierCritical, nil
	case "HIGH":
		return TierHigh, nil
	case "MEDIUM":
		return TierMedium, nil
	case "LOW":
		return TierLow, nil
	default:
		return 0, fmt.Errorf("unknown risk tier: %q", s)
	}
}
