package entities

import (
	"strconv"
	"time"
)

// ReportRow is one denormalized report record. Rows are values; once
// appended to a report they are never modified.
type ReportRow struct {
	Type         string // Row kind, e.g. "Repository", "User", "SharePoint Site"
	Identifier   string
	Name         string
	URL          string
	Key          string
	Vendor       string
	Email        string
	Status       string
	LicenseCount *int
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Sensitivity is only rendered for rows produced by the classifier
	HasSensitivity bool
	Sensitive      bool

	// Feature is only rendered for rows produced by the classifier
	HasFeature   bool
	Feature      FeatureProbeResult
	FeatureLabel string

	Tier RiskTier
}

// Value returns the rendered value of a report column. The boolean is
// false when the row carries no value for that column; callers serialize
// such columns as empty fields.
func (r ReportRow) Value(column string) (string, bool) {
	switch column {
	case "type":
		return r.Type, r.Type != ""
	case "id", "repo_name":
		return r.Identifier, r.Identifier != ""
	case "name":
		return r.Name, r.Name != ""
	case "url":
		return r.URL, r.URL != ""
	case "key":
		return r.Key, r.Key != ""
	case "vendor":
		return r.Vendor, r.Vendor != ""
	case "email":
		return r.Email, r.Email != ""
	case "status":
		return r.Status, r.Status != ""
	case "license_count":
		if r.LicenseCount == nil {
			return "", false
		}
		return strconv.Itoa(*r.LicenseCount), true
	case "created_at":
		return formatTime(r.CreatedAt)
	case "updated_at":
		return formatTime(r.UpdatedAt)
	case "is_private":
		if !r.HasSensitivity {
			return "", false
		}
		return yesNo(r.Sensitive), true
	case "feature", "copilot_enabled", "copilot_licensed", "ai_related":
		if !r.HasFeature {
			return "", false
		}
		if r.FeatureLabel != "" {
			return r.FeatureLabel, true
		}
		return r.Feature.String(), true
	case "risk_level":
		return r.Tier.String(), r.Tier != 0
	default:
		return "", false
	}
}

func formatTime(t time.Time) (string, bool) {
	if t.IsZero() {
		return "", false
	}
	return t.UTC().Format(time.RFC3339), true
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
