package gateways

import (
	"context"
	"strings"
	"unicode"

	"github.com/ochairo/aiaudit/internal/domain/entities"
	"github.com/ochairo/aiaudit/internal/domain/interfaces/gateways"
)

// shortKeywordLen is the length at or below which a keyword must match a
// whole word; "ai" would otherwise match "email" and "maintenance"
const shortKeywordLen = 2

// KeywordProber flags items whose display name mentions an AI keyword.
// It performs no network calls.
type KeywordProber struct {
	keywords []string
}

var _ gateways.FeatureProber = (*KeywordProber)(nil)

// NewKeywordProber creates a prober over a keyword list
func NewKeywordProber(keywords []string) *KeywordProber {
	normalized := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			normalized = append(normalized, k)
		}
	}
	return &KeywordProber{keywords: normalized}
}

// Probe reports Enabled when the name matches any keyword
func (p *KeywordProber) Probe(_ context.Context, item entities.CollectionItem) (entities.FeatureProbeResult, error) {
	name := strings.ToLower(item.Name())
	words := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	for _, keyword := range p.keywords {
		if len(keyword) > shortKeywordLen {
			if strings.Contains(name, keyword) {
				return entities.ProbeEnabled, nil
			}
			continue
		}
		for _, word := range words {
			if word == keyword {
				return entities.ProbeEnabled, nil
			}
		}
	}
	return entities.ProbeDisabled, nil
}

// LicenseSKUProber flags items holding any of a set of license SKUs
type LicenseSKUProber struct {
	skus map[string]struct{}
}

var _ gateways.FeatureProber = (*LicenseSKUProber)(nil)

// NewLicenseSKUProber creates a prober over SKU ids. With no SKUs every
// item is indeterminate.
func NewLicenseSKUProber(skus []string) *LicenseSKUProber {
	set := make(map[string]struct{}, len(skus))
	for _, sku := range skus {
		if sku = strings.ToLower(strings.TrimSpace(sku)); sku != "" {
			set[sku] = struct{}{}
		}
	}
	return &LicenseSKUProber{skus: set}
}

// Configured reports whether any SKU is known
func (p *LicenseSKUProber) Configured() bool {
	return len(p.skus) > 0
}

// Probe reports Enabled when the item holds a listed SKU
func (p *LicenseSKUProber) Probe(_ context.Context, item entities.CollectionItem) (entities.FeatureProbeResult, error) {
	if !p.Configured() || item.Metadata.LicenseCount == nil {
		return entities.ProbeIndeterminate, nil
	}
	for _, sku := range item.Metadata.LicenseSKUs {
		if _, ok := p.skus[strings.ToLower(sku)]; ok {
			return entities.ProbeEnabled, nil
		}
	}
	return entities.ProbeDisabled, nil
}

// NoopProber marks every item indeterminate
type NoopProber struct{}

// Probe always returns ProbeIndeterminate
func (NoopProber) Probe(_ context.Context, _ entities.CollectionItem) (entities.FeatureProbeResult, error) {
	return entities.ProbeIndeterminate, nil
}

// SelectProber returns the prober for a probe spec. remote serves http
// probes.
func SelectProber(spec entities.ProbeSpec, remote gateways.FeatureProber) gateways.FeatureProber {
	switch spec.Kind {
	case entities.ProbeKeywords:
		return NewKeywordProber(spec.Keywords)
	case entities.ProbeLicenseSKU:
		return NewLicenseSKUProber(spec.SKUs)
	case entities.ProbeHTTP:
		if remote != nil {
			return remote
		}
	}
	return NoopProber{}
}
