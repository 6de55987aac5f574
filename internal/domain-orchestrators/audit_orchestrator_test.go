package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/ochairo/aiaudit/internal/domain/entities"
	"github.com/ochairo/aiaudit/internal/domain/interfaces/gateways"
	domainservices "github.com/ochairo/aiaudit/internal/domain/services"
)

// Mock implementations for testing
type mockCollection struct {
	items []entities.CollectionItem
	err   error
	calls int
}

func (m *mockCollection) FetchPage(_ context.Context, _ gateways.PageRequest) (*gateways.Page, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return &gateways.Page{Items: m.items}, nil
}

func (m *mockCollection) Pagination() entities.Pagination {
	return entities.PaginationSingle
}

type mockProber struct {
	results map[string]entities.FeatureProbeResult
	errs    map[string]error
	seen    []string
}

func (m *mockProber) Probe(_ context.Context, item entities.CollectionItem) (entities.FeatureProbeResult, error) {
	m.seen = append(m.seen, item.Identifier)
	if err := m.errs[item.Identifier]; err != nil {
		return entities.ProbeIndeterminate, err
	}
	return m.results[item.Identifier], nil
}

type mockEnrichment struct {
	items map[string][]entities.CollectionItem
	errs  map[string]error
}

func (m *mockEnrichment) Enrich(_ context.Context, spec entities.EnrichmentSpec) ([]entities.CollectionItem, error) {
	if err := m.errs[spec.Name]; err != nil {
		return nil, err
	}
	return m.items[spec.Name], nil
}

type mockQuota struct {
	quota entities.Quota
}

func (m *mockQuota) Quota(_ context.Context) (entities.Quota, error) {
	return m.quota, nil
}

type recordingProgress struct {
	total    int
	checked  []int
	skipped  []string
	found    map[string]int
	waits    []string
	rowsSeen int
}

func (r *recordingProgress) CollectionFetched(_ string, _, _ int) {}

func (r *recordingProgress) CollectionComplete(_ string, total int) {
	r.total = total
}

func (r *recordingProgress) ItemChecked(index, _ int, _ entities.CollectionItem, row *entities.ReportRow) {
	r.checked = append(r.checked, index)
	if row != nil {
		r.rowsSeen++
	}
}

func (r *recordingProgress) RateLimitWait(wait string) {
	r.waits = append(r.waits, wait)
}

func (r *recordingProgress) EnrichmentSkipped(name, _ string) {
	r.skipped = append(r.skipped, name)
}

func (r *recordingProgress) EnrichmentFound(name string, count int) {
	if r.found == nil {
		r.found = map[string]int{}
	}
	r.found[name] = count
}

func repoProfile() *entities.Profile {
	return &entities.Profile{
		Name:       "github",
		Noun:       "repositories",
		Collection: entities.CollectionSpec{RowType: "Repository", PageSize: 100},
		Probe:      entities.ProbeSpec{Kind: entities.ProbeHTTP},
		Columns:    []string{"repo_name", "is_private", "copilot_enabled", "risk_level"},
	}
}

func newTestOrchestrator(progress *recordingProgress) *AuditOrchestrator {
	config := AuditOrchestratorConfig{ProbeInterval: time.Millisecond}
	if progress != nil {
		config.Progress = progress
	}
	return NewAuditOrchestrator(domainservices.NewRiskService(), config)
}

func TestAuditOrchestrator_Run_Scenario(t *testing.T) {
	collection := &mockCollection{items: []entities.CollectionItem{
		{Identifier: "org/pub", Sensitive: false},
		{Identifier: "org/priv", Sensitive: true},
		{Identifier: "org/off", Sensitive: true},
	}}
	prober := &mockProber{results: map[string]entities.FeatureProbeResult{
		"org/pub":  entities.ProbeEnabled,
		"org/priv": entities.ProbeEnabled,
		"org/off":  entities.ProbeDisabled,
	}}
	progress := &recordingProgress{}

	result, err := newTestOrchestrator(progress).Run(context.Background(), AuditRequest{
		Profile:    repoProfile(),
		Scope:      "org",
		Collection: collection,
		Prober:     prober,
	})

	require.NoError(t, err)
	require.Len(t, result.Rows, 3)
	assert.Equal(t, []string{"org/pub", "org/priv", "org/off"}, prober.seen)
	assert.Equal(t, entities.TierCritical, result.Rows[0].Tier)
	assert.Equal(t, entities.TierHigh, result.Rows[1].Tier)
	assert.Equal(t, entities.TierLow, result.Rows[2].Tier)

	assert.Equal(t, 1, result.Summary.Count(entities.TierCritical))
	assert.Equal(t, 1, result.Summary.Count(entities.TierHigh))
	assert.Equal(t, 0, result.Summary.Count(entities.TierMedium))
	assert.Equal(t, 1, result.Summary.Count(entities.TierLow))

	assert.Equal(t, entities.ProbeStats{Enabled: 2, Disabled: 1}, result.Probes)
	assert.Equal(t, 3, result.ItemsFound)
	assert.Equal(t, "org", result.Scope)
	assert.NotEmpty(t, result.RunID)
	assert.Equal(t, 3, progress.total)
	assert.Equal(t, []int{1, 2, 3}, progress.checked)
}

func TestAuditOrchestrator_Run_FatalFetch(t *testing.T) {
	collection := &mockCollection{err: entities.NewStatusError("list repositories", 401, nil)}

	result, err := newTestOrchestrator(nil).Run(context.Background(), AuditRequest{
		Profile:    repoProfile(),
		Collection: collection,
		Prober:     &mockProber{},
	})

	assert.Nil(t, result)
	assert.ErrorIs(t, err, entities.ErrUnauthorized)
}

func TestAuditOrchestrator_Run_ProbeFailureIsIndeterminate(t *testing.T) {
	collection := &mockCollection{items: []entities.CollectionItem{{Identifier: "org/a"}}}
	prober := &mockProber{errs: map[string]error{
		"org/a": entities.NewStatusError("probe org/a", 500, nil),
	}}

	result, err := newTestOrchestrator(nil).Run(context.Background(), AuditRequest{
		Profile:    repoProfile(),
		Collection: collection,
		Prober:     prober,
	})

	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, entities.ProbeIndeterminate, result.Rows[0].Feature)
	assert.Equal(t, "Error", result.Rows[0].FeatureLabel)
	assert.Equal(t, entities.TierLow, result.Rows[0].Tier)
	assert.Equal(t, 1, result.Probes.Indeterminate)
}

func TestAuditOrchestrator_Run_EmptyCollection(t *testing.T) {
	result, err := newTestOrchestrator(nil).Run(context.Background(), AuditRequest{
		Profile:    repoProfile(),
		Collection: &mockCollection{},
		Prober:     &mockProber{},
	})

	require.NoError(t, err)
	assert.Empty(t, result.Rows)
	assert.Equal(t, 0, result.Summary.Total)
	assert.Empty(t, result.Summary.Narrative)
}

func TestAuditOrchestrator_Run_Enrichment(t *testing.T) {
	profile := &entities.Profile{
		Name:       "m365",
		Collection: entities.CollectionSpec{RowType: "User"},
		Probe:      entities.ProbeSpec{Kind: entities.ProbeLicenseSKU},
		Enrichments: []entities.EnrichmentSpec{
			{Name: "sites", RowType: "SharePoint Site", Tier: entities.TierMedium},
			{Name: "teams", RowType: "Teams"},
		},
	}
	enrichment := &mockEnrichment{
		items: map[string][]entities.CollectionItem{
			"sites": {{Identifier: "s1"}, {Identifier: "s2"}},
		},
		errs: map[string]error{
			"teams": entities.NewStatusError("read teams", 403, nil),
		},
	}
	progress := &recordingProgress{}

	result, err := newTestOrchestrator(progress).Run(context.Background(), AuditRequest{
		Profile:    profile,
		Collection: &mockCollection{items: []entities.CollectionItem{{Identifier: "u1", Sensitive: true}}},
		Prober: &mockProber{results: map[string]entities.FeatureProbeResult{
			"u1": entities.ProbeEnabled,
		}},
		Enrichment: enrichment,
	})

	require.NoError(t, err)
	require.Len(t, result.Rows, 3)
	assert.Equal(t, "User", result.Rows[0].Type)
	assert.Equal(t, entities.TierHigh, result.Rows[0].Tier)
	assert.Equal(t, "SharePoint Site", result.Rows[1].Type)
	assert.Equal(t, entities.TierMedium, result.Rows[2].Tier)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "teams", result.Skipped[0].Name)
	assert.Equal(t, []string{"teams"}, progress.skipped)
	assert.Equal(t, 2, progress.found["sites"])
	assert.Equal(t, 2, result.Summary.Count(entities.TierMedium))
}

func TestAuditOrchestrator_Run_ReportOnlyEnabled(t *testing.T) {
	profile := &entities.Profile{
		Name:       "atlassian",
		Collection: entities.CollectionSpec{RowType: "Jira Add-on"},
		Probe:      entities.ProbeSpec{Kind: entities.ProbeKeywords, ReportOnlyEnabled: true},
	}
	progress := &recordingProgress{}

	result, err := newTestOrchestrator(progress).Run(context.Background(), AuditRequest{
		Profile: profile,
		Collection: &mockCollection{items: []entities.CollectionItem{
			{Identifier: "ai-helper", Sensitive: true},
			{Identifier: "calendar", Sensitive: true},
		}},
		Prober: &mockProber{results: map[string]entities.FeatureProbeResult{
			"ai-helper": entities.ProbeEnabled,
			"calendar":  entities.ProbeDisabled,
		}},
	})

	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "ai-helper", result.Rows[0].Identifier)
	assert.Equal(t, []int{1, 2}, progress.checked)
	assert.Equal(t, 1, progress.rowsSeen)
}

func TestAuditOrchestrator_Run_PresetItems(t *testing.T) {
	collection := &mockCollection{}

	result, err := newTestOrchestrator(nil).Run(context.Background(), AuditRequest{
		Profile:    repoProfile(),
		Collection: collection,
		Items:      []entities.CollectionItem{{Identifier: "org/solo"}},
		Prober:     &mockProber{results: map[string]entities.FeatureProbeResult{"org/solo": entities.ProbeEnabled}},
	})

	require.NoError(t, err)
	assert.Zero(t, collection.calls)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, entities.TierCritical, result.Rows[0].Tier)
}

func TestAuditOrchestrator_Run_MinTier(t *testing.T) {
	result, err := newTestOrchestrator(nil).Run(context.Background(), AuditRequest{
		Profile: repoProfile(),
		Collection: &mockCollection{items: []entities.CollectionItem{
			{Identifier: "org/pub"}, {Identifier: "org/off"},
		}},
		Prober:  &mockProber{results: map[string]entities.FeatureProbeResult{"org/pub": entities.ProbeEnabled}},
		MinTier: entities.TierHigh,
	})

	require.NoError(t, err)
	require.Len(t, result.Rows, 1)
	assert.Equal(t, "org/pub", result.Rows[0].Identifier)
	assert.Equal(t, 2, result.ItemsFound)
}

func TestAuditOrchestrator_Run_RateLimitWait(t *testing.T) {
	progress := &recordingProgress{}
	orch := newTestOrchestrator(progress)
	now := time.Unix(1_700_000_000, 0)
	orch.guardOpts = []domainservices.GuardOption{
		domainservices.WithClock(
			func() time.Time { return now },
			func(_ context.Context, _ time.Duration) error { return nil },
		),
	}

	_, err := orch.Run(context.Background(), AuditRequest{
		Profile:    repoProfile(),
		Collection: &mockCollection{items: []entities.CollectionItem{{Identifier: "org/a"}}},
		Quota:      &mockQuota{quota: entities.Quota{Remaining: 1, ResetAt: now.Add(4 * time.Second), Known: true}},
		Prober:     &mockProber{},
	})

	require.NoError(t, err)
	// One wait before the page fetch, one before the probe
	assert.Equal(t, []string{"5s", "5s"}, progress.waits)
}

func TestAuditOrchestrator_Run_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := newTestOrchestrator(nil).Run(ctx, AuditRequest{
		Profile: repoProfile(),
		Items:   []entities.CollectionItem{{Identifier: "org/a"}},
		Prober:  &mockProber{},
	})

	assert.Nil(t, result)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestAuditOrchestrator_Run_MissingProfile(t *testing.T) {
	_, err := newTestOrchestrator(nil).Run(context.Background(), AuditRequest{})
	assert.Error(t, err)
}

func TestProbeLimiter(t *testing.T) {
	assert.Nil(t, probeLimiter(0))
	assert.Nil(t, probeLimiter(-time.Second))

	limiter := probeLimiter(DefaultProbeInterval)
	require.NotNil(t, limiter)
	assert.Equal(t, rate.Every(DefaultProbeInterval), limiter.Limit())
	assert.Equal(t, 1, limiter.Burst())
}

func TestAuditOrchestrator_Run_ZeroIntervalDisablesPacing(t *testing.T) {
	items := make([]entities.CollectionItem, 20)
	for i := range items {
		items[i] = entities.CollectionItem{Identifier: fmt.Sprintf("org/repo-%d", i)}
	}
	prober := &mockProber{results: map[string]entities.FeatureProbeResult{}}
	orch := NewAuditOrchestrator(domainservices.NewRiskService(), AuditOrchestratorConfig{})

	start := time.Now()
	result, err := orch.Run(context.Background(), AuditRequest{
		Profile:    repoProfile(),
		Scope:      "org",
		Collection: &mockCollection{items: items},
		Prober:     prober,
	})

	require.NoError(t, err)
	assert.Len(t, prober.seen, 20)
	assert.Len(t, result.Rows, 20)
	// 19 paced gaps at the default interval would take almost two seconds
	assert.Less(t, time.Since(start), time.Second)
}
