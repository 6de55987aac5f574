package entities

// Profile describes how to audit one SaaS provider: where its collection
// lives, how to decode it, how to probe each item and how to lay out the
// report. Profiles are data; the pipeline that runs them is shared.
type Profile struct {
	Name        string
	Description string
	Tool        string // Default report filename prefix, e.g. "github_copilot_audit"
	Gateway     string // "github" or "rest"
	BaseURL     string // May contain the {scope} placeholder
	Noun        string // Plural item noun used in console and guidance text
	Collection  CollectionSpec
	Probe       ProbeSpec
	Enrichments []EnrichmentSpec
	Columns     []string
	Labels      FeatureLabels
	RateLimit   RateLimitSpec
	Guidance    map[RiskTier][]string
}

// Gateway kinds
const (
	GatewayGitHub = "github"
	GatewayREST   = "rest"
)

// Pagination selects how the fetcher walks a collection
type Pagination string

// Pagination styles
const (
	PaginationPage   Pagination = "page"
	PaginationCursor Pagination = "cursor"
	PaginationSingle Pagination = "single"
)

// CollectionSpec describes the primary list resource
type CollectionSpec struct {
	RowType    string
	Path       string
	Query      map[string]string
	ListKey    string // Empty when the response body is the list itself
	Pagination Pagination
	PageParam  string
	SizeParam  string
	PageSize   int
	CursorKey  string
	MaxItems   int // 0 means no cap
	Fields     FieldMap
	Sensitive  SensitivitySpec
}

// FieldMap names the JSON keys (dot paths) holding item attributes
type FieldMap struct {
	ID        string
	Name      string
	URL       string
	Key       string
	Vendor    string
	Email     string
	Status    string
	Licenses  string // Array of license objects carrying a "skuId"
	CreatedAt string
	UpdatedAt string
}

// SensitivitySpec decides whether an item is private/internal
type SensitivitySpec struct {
	Field   string // Boolean JSON key; empty means always Default
	Default bool
	Invert  bool // Field is true for public items
}

// ProbeKind selects the per-item probe strategy
type ProbeKind string

// Probe strategies
const (
	ProbeHTTP       ProbeKind = "http"
	ProbeKeywords   ProbeKind = "keywords"
	ProbeLicenseSKU ProbeKind = "license_sku"
	ProbeNone       ProbeKind = "none"
)

// ProbeSpec configures the per-item feature probe
type ProbeSpec struct {
	Kind              ProbeKind
	Path              string   // Item-scoped endpoint; {id} is replaced by the item identifier
	EnabledKeys       []string // Boolean keys; any true means Enabled
	Keywords          []string
	SKUs              []string
	ReportOnlyEnabled bool // Skip rows whose probe is not Enabled
}

// EnrichmentSpec describes an optional secondary category. Enrichment rows
// carry a fixed tier and are skipped as a whole when the endpoint fails.
type EnrichmentSpec struct {
	Name      string
	RowType   string
	Path      string
	Query     map[string]string
	ListKey   string
	Limit     int
	Tier      RiskTier
	Fields    FieldMap
	Singleton *StaticRow // Emit one fixed row when the endpoint answers 200
}

// StaticRow is the content of a singleton enrichment row
type StaticRow struct {
	Name   string
	Status string
}

// FeatureLabels renders probe results in report columns
type FeatureLabels struct {
	Enabled       string
	Disabled      string
	Indeterminate string
}

// Label returns the configured label for r, falling back to Yes/No/Error
func (l FeatureLabels) Label(r FeatureProbeResult) string {
	switch r {
	case ProbeEnabled:
		if l.Enabled != "" {
			return l.Enabled
		}
	case ProbeDisabled:
		if l.Disabled != "" {
			return l.Disabled
		}
	default:
		if l.Indeterminate != "" {
			return l.Indeterminate
		}
	}
	return r.String()
}

// RateLimitSpec names the response headers carrying quota information
// for REST gateways
type RateLimitSpec struct {
	RemainingHeader string
	ResetHeader     string
	ResetFormat     string // "unix", "rfc3339" or "seconds"
	Threshold       int    // Guard threshold; 0 means the default
}
