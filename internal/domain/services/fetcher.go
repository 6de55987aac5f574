package services

import (
	"context"
	"errors"
	"iter"

	"github.com/ochairo/aiaudit/internal/domain/entities"
	"github.com/ochairo/aiaudit/internal/domain/interfaces/gateways"
)

// DefaultPageSize is used when a profile does not set one
const DefaultPageSize = 100

// CollectionFetcher walks every page of a collection in order
type CollectionFetcher struct {
	gateway  gateways.CollectionGateway
	guard    *RateLimitGuard
	pageSize int
	maxItems int
	onPage   func(page, count int)
}

// NewCollectionFetcher creates a fetcher. maxItems <= 0 means no cap.
func NewCollectionFetcher(gateway gateways.CollectionGateway, guard *RateLimitGuard, pageSize, maxItems int) *CollectionFetcher {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &CollectionFetcher{
		gateway:  gateway,
		guard:    guard,
		pageSize: pageSize,
		maxItems: maxItems,
	}
}

// OnPage registers a callback invoked after each decoded page
func (f *CollectionFetcher) OnPage(fn func(page, count int)) {
	f.onPage = fn
}

// Items returns a lazy sequence over the collection. Pages are requested
// only as the sequence is consumed. The sequence ends after the first
// error, which is yielded with a zero item.
//
// Termination: an empty page always ends the walk. Page-numbered
// collections also end on a short page; cursor collections end when the
// next cursor is absent; single collections end after one request.
func (f *CollectionFetcher) Items(ctx context.Context) iter.Seq2[entities.CollectionItem, error] {
	return func(yield func(entities.CollectionItem, error) bool) {
		req := gateways.PageRequest{Page: 1, PageSize: f.pageSize}
		emitted := 0

		for {
			if err := f.guard.Wait(ctx); err != nil {
				yield(entities.CollectionItem{}, err)
				return
			}

			page, err := f.gateway.FetchPage(ctx, req)
			if err != nil {
				yield(entities.CollectionItem{}, laterPageError(req.Page, err))
				return
			}

			if f.onPage != nil {
				f.onPage(req.Page, len(page.Items))
			}

			for _, item := range page.Items {
				if f.maxItems > 0 && emitted >= f.maxItems {
					return
				}
				if !yield(item, nil) {
					return
				}
				emitted++
			}

			if f.maxItems > 0 && emitted >= f.maxItems {
				return
			}
			if len(page.Items) == 0 {
				return
			}

			switch f.gateway.Pagination() {
			case entities.PaginationSingle:
				return
			case entities.PaginationCursor:
				if page.NextCursor == "" {
					return
				}
				req.Cursor = page.NextCursor
			default:
				if len(page.Items) < f.pageSize {
					return
				}
			}
			req.Page++
		}
	}
}

// FetchAll drains the collection into a slice. On error no partial result
// is returned.
func (f *CollectionFetcher) FetchAll(ctx context.Context) ([]entities.CollectionItem, error) {
	items := make([]entities.CollectionItem, 0, f.pageSize)
	for item, err := range f.Items(ctx) {
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// laterPageError demotes a 404 past the first page to a plain status error:
// only a missing first page means the target does not exist.
func laterPageError(page int, err error) error {
	if page <= 1 {
		return err
	}
	var apiErr *entities.APIError
	if errors.As(err, &apiErr) && apiErr.Kind == entities.APIErrorNotFound {
		demoted := *apiErr
		demoted.Kind = entities.APIErrorStatus
		return &demoted
	}
	return err
}
