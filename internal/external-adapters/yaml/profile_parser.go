// Package yaml provides YAML-based provider profile parsing and repository implementations.
package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ochairo/aiaudit/internal/domain/entities"
)

// yamlProfile represents the raw YAML structure
type yamlProfile struct {
	Name        string              `yaml:"name"`
	Description string              `yaml:"description"`
	Tool        string              `yaml:"tool"`
	Gateway     string              `yaml:"gateway"`
	BaseURL     string              `yaml:"base_url"`
	Noun        string              `yaml:"noun"`
	Collection  yamlCollection      `yaml:"collection"`
	Probe       yamlProbe           `yaml:"probe"`
	Enrichments []yamlEnrichment    `yaml:"enrichments"`
	Columns     []string            `yaml:"columns"`
	Labels      yamlLabels          `yaml:"labels"`
	RateLimit   yamlRateLimit       `yaml:"rate_limit"`
	Guidance    map[string][]string `yaml:"guidance"`
}

type yamlCollection struct {
	RowType    string            `yaml:"row_type"`
	Path       string            `yaml:"path"`
	Query      map[string]string `yaml:"query"`
	ListKey    string            `yaml:"list_key"`
	Pagination string            `yaml:"pagination"`
	PageParam  string            `yaml:"page_param"`
	SizeParam  string            `yaml:"size_param"`
	PageSize   int               `yaml:"page_size"`
	CursorKey  string            `yaml:"cursor_key"`
	MaxItems   int               `yaml:"max_items"`
	Fields     yamlFields        `yaml:"fields"`
	Sensitive  yamlSensitive     `yaml:"sensitive"`
}

type yamlFields struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	URL       string `yaml:"url"`
	Key       string `yaml:"key"`
	Vendor    string `yaml:"vendor"`
	Email     string `yaml:"email"`
	Status    string `yaml:"status"`
	Licenses  string `yaml:"licenses"`
	CreatedAt string `yaml:"created_at"`
	UpdatedAt string `yaml:"updated_at"`
}

type yamlSensitive struct {
	Field   string `yaml:"field"`
	Default bool   `yaml:"default"`
	Invert  bool   `yaml:"invert"`
}

type yamlProbe struct {
	Kind              string   `yaml:"kind"`
	Path              string   `yaml:"path"`
	EnabledKeys       []string `yaml:"enabled_keys"`
	Keywords          []string `yaml:"keywords"`
	SKUs              []string `yaml:"skus"`
	ReportOnlyEnabled bool     `yaml:"report_only_enabled"`
}

type yamlEnrichment struct {
	Name      string            `yaml:"name"`
	RowType   string            `yaml:"row_type"`
	Path      string            `yaml:"path"`
	Query     map[string]string `yaml:"query"`
	ListKey   string            `yaml:"list_key"`
	Limit     int               `yaml:"limit"`
	Tier      string            `yaml:"tier"`
	Fields    yamlFields        `yaml:"fields"`
	Singleton *yamlStaticRow    `yaml:"singleton"`
}

type yamlStaticRow struct {
	Name   string `yaml:"name"`
	Status string `yaml:"status"`
}

type yamlLabels struct {
	Enabled       string `yaml:"enabled"`
	Disabled      string `yaml:"disabled"`
	Indeterminate string `yaml:"indeterminate"`
}

type yamlRateLimit struct {
	RemainingHeader string `yaml:"remaining_header"`
	ResetHeader     string `yaml:"reset_header"`
	ResetFormat     string `yaml:"reset_format"`
	Threshold       int    `yaml:"threshold"`
}

// ProfileParser parses YAML provider profiles
type ProfileParser struct{}

// NewProfileParser creates a new YAML parser
func NewProfileParser() *ProfileParser {
	return &ProfileParser{}
}

// ParseFile parses every profile document in a YAML file
func (p *ProfileParser) ParseFile(filePath string) ([]*entities.Profile, error) {
	//nolint:gosec // G304: filePath is a user-supplied profile file
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	profiles, err := p.ParseAll(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return profiles, nil
}

// ParseAll parses a stream of "---"-separated profile documents
func (p *ProfileParser) ParseAll(data []byte) ([]*entities.Profile, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))

	var profiles []*entities.Profile
	for {
		var raw yamlProfile
		err := decoder.Decode(&raw)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}

		profile, err := convertProfile(raw)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}

	if len(profiles) == 0 {
		return nil, fmt.Errorf("no profiles found")
	}
	return profiles, nil
}

// Parse parses a single profile document
func (p *ProfileParser) Parse(data []byte) (*entities.Profile, error) {
	var raw yamlProfile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return convertProfile(raw)
}

func convertProfile(raw yamlProfile) (*entities.Profile, error) {
	// Validate required fields
	if raw.Name == "" {
		return nil, fmt.Errorf("profile must have a name")
	}
	if len(raw.Columns) == 0 {
		return nil, fmt.Errorf("profile %s must declare report columns", raw.Name)
	}

	gateway := raw.Gateway
	if gateway == "" {
		gateway = entities.GatewayREST
	}
	if gateway != entities.GatewayGitHub && gateway != entities.GatewayREST {
		return nil, fmt.Errorf("profile %s: unknown gateway %q", raw.Name, gateway)
	}

	pagination, err := convertPagination(raw.Collection.Pagination)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", raw.Name, err)
	}
	if pagination == entities.PaginationCursor && raw.Collection.CursorKey == "" {
		return nil, fmt.Errorf("profile %s: cursor pagination requires cursor_key", raw.Name)
	}

	probe, err := convertProbe(raw.Probe)
	if err != nil {
		return nil, fmt.Errorf("profile %s: %w", raw.Name, err)
	}

	enrichments := make([]entities.EnrichmentSpec, 0, len(raw.Enrichments))
	for _, e := range raw.Enrichments {
		spec, err := convertEnrichment(e)
		if err != nil {
			return nil, fmt.Errorf("profile %s: %w", raw.Name, err)
		}
		enrichments = append(enrichments, spec)
	}

	guidance := make(map[entities.RiskTier][]string, len(raw.Guidance))
	for name, lines := range raw.Guidance {
		tier, err := entities.ParseRiskTier(name)
		if err != nil {
			return nil, fmt.Errorf("profile %s: guidance: %w", raw.Name, err)
		}
		guidance[tier] = lines
	}

	tool := raw.Tool
	if tool == "" {
		tool = raw.Name
	}

	return &entities.Profile{
		Name:        raw.Name,
		Description: raw.Description,
		Tool:        tool,
		Gateway:     gateway,
		BaseURL:     raw.BaseURL,
		Noun:        raw.Noun,
		Collection: entities.CollectionSpec{
			RowType:    raw.Collection.RowType,
			Path:       raw.Collection.Path,
			Query:      raw.Collection.Query,
			ListKey:    raw.Collection.ListKey,
			Pagination: pagination,
			PageParam:  raw.Collection.PageParam,
			SizeParam:  raw.Collection.SizeParam,
			PageSize:   raw.Collection.PageSize,
			CursorKey:  raw.Collection.CursorKey,
			MaxItems:   raw.Collection.MaxItems,
			Fields:     convertFields(raw.Collection.Fields),
			Sensitive: entities.SensitivitySpec{
				Field:   raw.Collection.Sensitive.Field,
				Default: raw.Collection.Sensitive.Default,
				Invert:  raw.Collection.Sensitive.Invert,
			},
		},
		Probe:       probe,
		Enrichments: enrichments,
		Columns:     raw.Columns,
		Labels: entities.FeatureLabels{
			Enabled:       raw.Labels.Enabled,
			Disabled:      raw.Labels.Disabled,
			Indeterminate: raw.Labels.Indeterminate,
		},
		RateLimit: entities.RateLimitSpec{
			RemainingHeader: raw.RateLimit.RemainingHeader,
			ResetHeader:     raw.RateLimit.ResetHeader,
			ResetFormat:     raw.RateLimit.ResetFormat,
			Threshold:       raw.RateLimit.Threshold,
		},
		Guidance: guidance,
	}, nil
}

func convertPagination(s string) (entities.Pagination, error) {
	switch p := entities.Pagination(strings.ToLower(s)); p {
	case "":
		return entities.PaginationSingle, nil
	case entities.PaginationPage, entities.PaginationCursor, entities.PaginationSingle:
		return p, nil
	default:
		return "", fmt.Errorf("unknown pagination %q", s)
	}
}

func convertProbe(yp yamlProbe) (entities.ProbeSpec, error) {
	kind := entities.ProbeKind(strings.ToLower(yp.Kind))
	switch kind {
	case "":
		kind = entities.ProbeNone
	case entities.ProbeHTTP:
		if yp.Path == "" {
			return entities.ProbeSpec{}, fmt.Errorf("http probe requires a path")
		}
	case entities.ProbeKeywords:
		if len(yp.Keywords) == 0 {
			return entities.ProbeSpec{}, fmt.Errorf("keyword probe requires keywords")
		}
	case entities.ProbeLicenseSKU, entities.ProbeNone:
	default:
		return entities.ProbeSpec{}, fmt.Errorf("unknown probe kind %q", yp.Kind)
	}

	return entities.ProbeSpec{
		Kind:              kind,
		Path:              yp.Path,
		EnabledKeys:       yp.EnabledKeys,
		Keywords:          yp.Keywords,
		SKUs:              yp.SKUs,
		ReportOnlyEnabled: yp.ReportOnlyEnabled,
	}, nil
}

func convertEnrichment(ye yamlEnrichment) (entities.EnrichmentSpec, error) {
	if ye.Name == "" || ye.Path == "" {
		return entities.EnrichmentSpec{}, fmt.Errorf("enrichment must have a name and a path")
	}

	tier := entities.TierMedium
	if ye.Tier != "" {
		parsed, err := entities.ParseRiskTier(ye.Tier)
		if err != nil {
			return entities.EnrichmentSpec{}, fmt.Errorf("enrichment %s: %w", ye.Name, err)
		}
		tier = parsed
	}

	spec := entities.EnrichmentSpec{
		Name:    ye.Name,
		RowType: ye.RowType,
		Path:    ye.Path,
		Query:   ye.Query,
		ListKey: ye.ListKey,
		Limit:   ye.Limit,
		Tier:    tier,
		Fields:  convertFields(ye.Fields),
	}
	if ye.Singleton != nil {
		spec.Singleton = &entities.StaticRow{Name: ye.Singleton.Name, Status: ye.Singleton.Status}
	}
	return spec, nil
}

func convertFields(yf yamlFields) entities.FieldMap {
	return entities.FieldMap{
		ID:        yf.ID,
		Name:      yf.Name,
		URL:       yf.URL,
		Key:       yf.Key,
		Vendor:    yf.Vendor,
		Email:     yf.Email,
		Status:    yf.Status,
		Licenses:  yf.Licenses,
		CreatedAt: yf.CreatedAt,
		UpdatedAt: yf.UpdatedAt,
	}
}
