package gateways

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/ochairo/aiaudit/internal/domain/entities"
	"github.com/ochairo/aiaudit/internal/domain/interfaces/gateways"
)

// maxErrorBody bounds how much of a failed response is read for its message
const maxErrorBody = 4096

// RESTGateway reads a JSON REST API described by a profile. It serves the
// primary collection, the enrichment categories and HTTP probes, and
// derives the remaining quota from response headers.
type RESTGateway struct {
	client  *http.Client
	baseURL *url.URL
	profile *entities.Profile

	quota entities.Quota
	now   func() time.Time
}

var (
	_ gateways.CollectionGateway = (*RESTGateway)(nil)
	_ gateways.QuotaGateway      = (*RESTGateway)(nil)
	_ gateways.EnrichmentGateway = (*RESTGateway)(nil)
	_ gateways.FeatureProber     = (*RESTGateway)(nil)
)

// NewRESTGateway creates a gateway rooted at baseURL. httpClient carries
// the credentials (basic auth or an OAuth2 token source).
func NewRESTGateway(httpClient *http.Client, baseURL string, profile *entities.Profile) (*RESTGateway, error) {
	if profile == nil {
		return nil, fmt.Errorf("profile is required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &RESTGateway{
		client:  httpClient,
		baseURL: u,
		profile: profile,
		now:     time.Now,
	}, nil
}

// Pagination reports the profile's pagination style
func (g *RESTGateway) Pagination() entities.Pagination {
	if g.profile.Collection.Pagination == "" {
		return entities.PaginationSingle
	}
	return g.profile.Collection.Pagination
}

// FetchPage reads one page of the primary collection
func (g *RESTGateway) FetchPage(ctx context.Context, req gateways.PageRequest) (*gateways.Page, error) {
	spec := g.profile.Collection

	target, err := g.pageURL(spec, req)
	if err != nil {
		return nil, err
	}

	var body any
	if err := g.getJSON(ctx, "list "+g.noun(), target, &body); err != nil {
		return nil, err
	}

	objects, err := listFromBody(body, spec.ListKey)
	if err != nil {
		return nil, entities.NewTransportError("list "+g.noun(), err)
	}

	page := &gateways.Page{Items: make([]entities.CollectionItem, 0, len(objects))}
	for _, obj := range objects {
		page.Items = append(page.Items, decodeItem(obj, spec.Fields, spec.Sensitive))
	}

	if spec.CursorKey != "" {
		if m, ok := body.(map[string]any); ok {
			if next, ok := lookup(m, spec.CursorKey); ok {
				page.NextCursor = stringValue(next)
			}
		}
	}
	return page, nil
}

// Enrich reads one enrichment category. Singleton categories produce one
// fixed row when the endpoint answers successfully.
func (g *RESTGateway) Enrich(ctx context.Context, spec entities.EnrichmentSpec) ([]entities.CollectionItem, error) {
	target, err := g.resolve(spec.Path, spec.Query)
	if err != nil {
		return nil, err
	}

	var body any
	if err := g.getJSON(ctx, "read "+spec.Name, target, &body); err != nil {
		return nil, err
	}

	if spec.Singleton != nil {
		return []entities.CollectionItem{{
			Identifier:  spec.Name,
			DisplayName: spec.Singleton.Name,
			Metadata:    entities.ItemMetadata{Status: spec.Singleton.Status},
		}}, nil
	}

	objects, err := listFromBody(body, spec.ListKey)
	if err != nil {
		return nil, entities.NewTransportError("read "+spec.Name, err)
	}
	if spec.Limit > 0 && len(objects) > spec.Limit {
		objects = objects[:spec.Limit]
	}

	items := make([]entities.CollectionItem, 0, len(objects))
	for _, obj := range objects {
		items = append(items, decodeItem(obj, spec.Fields, entities.SensitivitySpec{}))
	}
	return items, nil
}

// Probe queries the item-scoped endpoint of an http probe. 404 means the
// feature is not enabled; other non-2xx statuses are indeterminate.
func (g *RESTGateway) Probe(ctx context.Context, item entities.CollectionItem) (entities.FeatureProbeResult, error) {
	path := strings.ReplaceAll(g.profile.Probe.Path, "{id}", url.PathEscape(item.Identifier))
	target, err := g.resolve(path, nil)
	if err != nil {
		return entities.ProbeIndeterminate, err
	}

	var body map[string]any
	if err := g.getJSON(ctx, "probe "+item.Identifier, target, &body); err != nil {
		if entities.StatusCode(err) == http.StatusNotFound {
			return entities.ProbeDisabled, nil
		}
		return entities.ProbeIndeterminate, err
	}

	return enabledFromBody(body, g.profile.Probe.EnabledKeys), nil
}

// Quota returns the quota observed on the most recent response
func (g *RESTGateway) Quota(_ context.Context) (entities.Quota, error) {
	return g.quota, nil
}

func (g *RESTGateway) noun() string {
	if g.profile.Noun != "" {
		return g.profile.Noun
	}
	return "items"
}

// pageURL builds the request URL for one page. Cursors are absolute or
// base-relative links taken verbatim from the previous page.
func (g *RESTGateway) pageURL(spec entities.CollectionSpec, req gateways.PageRequest) (string, error) {
	if req.Cursor != "" {
		next, err := url.Parse(req.Cursor)
		if err != nil {
			return "", fmt.Errorf("invalid next page link %q: %w", req.Cursor, err)
		}
		return g.baseURL.ResolveReference(next).String(), nil
	}

	query := make(map[string]string, len(spec.Query)+2)
	for k, v := range spec.Query {
		query[k] = v
	}
	if spec.SizeParam != "" && req.PageSize > 0 {
		query[spec.SizeParam] = strconv.Itoa(req.PageSize)
	}
	if g.Pagination() == entities.PaginationPage && spec.PageParam != "" {
		query[spec.PageParam] = strconv.Itoa(req.Page)
	}
	return g.resolve(spec.Path, query)
}

// resolve joins an already escaped path onto the base URL and appends
// query parameters in a stable order
func (g *RESTGateway) resolve(path string, query map[string]string) (string, error) {
	u := *g.baseURL
	escaped := strings.TrimRight(u.EscapedPath(), "/") + "/" + strings.TrimLeft(path, "/")
	unescaped, err := url.PathUnescape(escaped)
	if err != nil {
		return "", fmt.Errorf("invalid path %q: %w", path, err)
	}
	u.Path = unescaped
	u.RawPath = escaped

	if len(query) > 0 {
		keys := make([]string, 0, len(query))
		for k := range query {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			// OData system options keep their literal "$" prefix
			parts = append(parts, strings.ReplaceAll(url.QueryEscape(k), "%24", "$")+"="+url.QueryEscape(query[k]))
		}
		u.RawQuery = strings.Join(parts, "&")
	}
	return u.String(), nil
}

// getJSON performs a GET and decodes a 2xx body into out. Non-2xx
// statuses become *entities.APIError values.
func (g *RESTGateway) getJSON(ctx context.Context, op, target string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return transportError(ctx, op, err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	g.observeQuota(resp.Header)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return entities.NewStatusError(op, resp.StatusCode, apiMessage(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return entities.NewTransportError(op, fmt.Errorf("failed to parse response: %w", err))
	}
	return nil
}

// observeQuota records the quota headers named by the profile
func (g *RESTGateway) observeQuota(h http.Header) {
	spec := g.profile.RateLimit
	if spec.RemainingHeader == "" {
		return
	}

	remaining, err := strconv.Atoi(strings.TrimSpace(h.Get(spec.RemainingHeader)))
	if err != nil {
		return
	}

	quota := entities.Quota{Remaining: remaining, Known: true}
	if raw := strings.TrimSpace(h.Get(spec.ResetHeader)); raw != "" {
		quota.ResetAt = parseReset(raw, spec.ResetFormat, g.now())
	}
	g.quota = quota
}

func parseReset(raw, format string, now time.Time) time.Time {
	switch format {
	case "rfc3339":
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return t
		}
	case "seconds":
		if n, err := strconv.ParseFloat(raw, 64); err == nil {
			return now.Add(time.Duration(n * float64(time.Second)))
		}
	default:
		if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return time.Unix(n, 0)
		}
	}
	return time.Time{}
}

// listFromBody returns the objects under listKey, or the body itself when
// listKey is empty. An empty body or a missing key is an empty list.
func listFromBody(body any, listKey string) ([]map[string]any, error) {
	if body == nil {
		return nil, nil
	}
	raw := body
	if listKey != "" {
		m, ok := body.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected a JSON object with %q", listKey)
		}
		v, ok := lookup(m, listKey)
		if !ok || v == nil {
			return nil, nil
		}
		raw = v
	}

	if raw == nil {
		return nil, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON array")
	}

	objects := make([]map[string]any, 0, len(list))
	for _, v := range list {
		if obj, ok := v.(map[string]any); ok {
			objects = append(objects, obj)
		}
	}
	return objects, nil
}

// decodeItem maps one JSON object onto a collection item
func decodeItem(obj map[string]any, fields entities.FieldMap, sens entities.SensitivitySpec) entities.CollectionItem {
	item := entities.CollectionItem{
		Identifier:  field(obj, fields.ID),
		DisplayName: field(obj, fields.Name),
		ExternalURL: field(obj, fields.URL),
		Sensitive:   sens.Default,
		Metadata: entities.ItemMetadata{
			Key:       field(obj, fields.Key),
			Vendor:    field(obj, fields.Vendor),
			Email:     field(obj, fields.Email),
			Status:    field(obj, fields.Status),
			CreatedAt: timeField(obj, fields.CreatedAt),
			UpdatedAt: timeField(obj, fields.UpdatedAt),
		},
	}
	if item.Identifier == "" {
		item.Identifier = item.Metadata.Key
	}

	if fields.Licenses != "" {
		var licenses []any
		if v, ok := lookup(obj, fields.Licenses); ok {
			licenses, _ = v.([]any)
		}
		count := len(licenses)
		item.Metadata.LicenseCount = &count
		for _, l := range licenses {
			if m, ok := l.(map[string]any); ok {
				if sku := stringValue(m["skuId"]); sku != "" {
					item.Metadata.LicenseSKUs = append(item.Metadata.LicenseSKUs, sku)
				}
			}
		}
	}

	if sens.Field != "" {
		if v, ok := lookup(obj, sens.Field); ok {
			if b, ok := v.(bool); ok {
				item.Sensitive = b != sens.Invert
			}
		}
	}
	return item
}

// lookup resolves a key in obj. An exact key wins, which keeps keys like
// "@odata.nextLink" addressable; otherwise the key is a dot path.
func lookup(obj map[string]any, path string) (any, bool) {
	if path == "" {
		return nil, false
	}
	if v, ok := obj[path]; ok {
		return v, true
	}

	var current any = obj
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		if current, ok = m[part]; !ok {
			return nil, false
		}
	}
	return current, true
}

func field(obj map[string]any, path string) string {
	v, ok := lookup(obj, path)
	if !ok {
		return ""
	}
	return stringValue(v)
}

func timeField(obj map[string]any, path string) time.Time {
	s := field(obj, path)
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
