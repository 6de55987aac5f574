// Package gateways defines interfaces for external service adapters.
package gateways

import (
	"context"

	"github.com/ochairo/aiaudit/internal/domain/entities"
)

// PageRequest identifies one page of a collection. Page is 1-based and
// only meaningful for page-numbered APIs; Cursor is only meaningful for
// cursor-paginated APIs (empty on the first request).
type PageRequest struct {
	Page     int
	PageSize int
	Cursor   string
}

// Page is one decoded page of a collection
type Page struct {
	Items      []entities.CollectionItem
	NextCursor string // Empty when there is no next page
}

// CollectionGateway fetches pages of the audited collection
type CollectionGateway interface {
	// FetchPage returns one page. Errors are *entities.APIError values.
	FetchPage(ctx context.Context, req PageRequest) (*Page, error)

	// Pagination reports how the collection is walked
	Pagination() entities.Pagination
}

// QuotaGateway reports the remaining API request budget
type QuotaGateway interface {
	Quota(ctx context.Context) (entities.Quota, error)
}

// FeatureProber determines whether the audited feature is enabled for
// one item. A non-nil error always comes with ProbeIndeterminate and is
// recoverable.
type FeatureProber interface {
	Probe(ctx context.Context, item entities.CollectionItem) (entities.FeatureProbeResult, error)
}

// EnrichmentGateway reads an optional secondary category
type EnrichmentGateway interface {
	Enrich(ctx context.Context, spec entities.EnrichmentSpec) ([]entities.CollectionItem, error)
}
