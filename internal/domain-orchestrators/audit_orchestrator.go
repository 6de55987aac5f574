// Package orchestrators coordinates complex workflows across multiple domain services.
package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/ochairo/aiaudit/internal/domain/entities"
	"github.com/ochairo/aiaudit/internal/domain/interfaces"
	"github.com/ochairo/aiaudit/internal/domain/interfaces/gateways"
	"github.com/ochairo/aiaudit/internal/domain/interfaces/services"
	domainservices "github.com/ochairo/aiaudit/internal/domain/services"
)

// DefaultProbeInterval is the courtesy spacing between remote probe calls
const DefaultProbeInterval = 100 * time.Millisecond

// AuditOrchestratorConfig holds configuration for the orchestrator
type AuditOrchestratorConfig struct {
	// ProbeInterval spaces remote probe calls; zero disables pacing
	ProbeInterval time.Duration
	Logger        interfaces.Logger
	Progress      services.ProgressReporter
	Metrics       services.AuditMetrics
}

// AuditOrchestrator runs the fetch, probe, classify and aggregate pipeline
// for one provider profile
type AuditOrchestrator struct {
	risk          services.RiskService
	logger        interfaces.Logger
	progress      services.ProgressReporter
	metrics       services.AuditMetrics
	probeInterval time.Duration
	guardOpts     []domainservices.GuardOption
	now           func() time.Time
}

// NewAuditOrchestrator creates a new audit orchestrator
func NewAuditOrchestrator(risk services.RiskService, config AuditOrchestratorConfig) *AuditOrchestrator {
	o := &AuditOrchestrator{
		risk:          risk,
		logger:        config.Logger,
		progress:      config.Progress,
		metrics:       config.Metrics,
		probeInterval: config.ProbeInterval,
		now:           time.Now,
	}
	if o.logger == nil {
		o.logger = &interfaces.NoOpLogger{}
	}
	if o.progress == nil {
		o.progress = noopProgress{}
	}
	if o.metrics == nil {
		o.metrics = noopMetrics{}
	}
	if o.probeInterval < 0 {
		o.probeInterval = 0
	}
	return o
}

// AuditRequest describes one run
type AuditRequest struct {
	Profile *entities.Profile
	Scope   string

	Collection gateways.CollectionGateway
	Quota      gateways.QuotaGateway
	Prober     gateways.FeatureProber
	Enrichment gateways.EnrichmentGateway

	// Items replaces the collection fetch when non-nil (single item checks)
	Items []entities.CollectionItem

	// MinTier drops rows below this tier from the result; zero keeps all
	MinTier entities.RiskTier
}

// Run executes the audit. Fatal API errors abort the run with no result;
// probe failures and unavailable enrichment categories do not.
func (o *AuditOrchestrator) Run(ctx context.Context, req AuditRequest) (*entities.AuditResult, error) {
	profile := req.Profile
	if profile == nil {
		return nil, errors.New("audit profile is required")
	}
	if req.Items == nil && req.Collection == nil {
		return nil, errors.New("no collection source configured")
	}

	startTime := o.now()
	result := &entities.AuditResult{
		RunID:     uuid.NewString(),
		Profile:   profile.Name,
		Scope:     req.Scope,
		Columns:   profile.Columns,
		StartedAt: startTime,
	}

	guard := domainservices.NewRateLimitGuard(req.Quota, o.logger, o.guardOptions(profile)...)

	// Step 1: Collect items
	items, err := o.collect(ctx, req, guard)
	if err != nil {
		return nil, err
	}
	result.ItemsFound = len(items)
	o.metrics.ItemsFetched(profile.Name, len(items))
	o.progress.CollectionComplete(noun(profile), len(items))
	o.logger.Info("collection complete",
		interfaces.F("profile", profile.Name),
		interfaces.F("scope", req.Scope),
		interfaces.F("items", len(items)))

	// Step 2: Probe and classify each item in discovery order
	aggregator := domainservices.NewReportAggregator(profile.Columns)
	if err := o.probeItems(ctx, req, guard, items, aggregator, result); err != nil {
		return nil, err
	}

	// Step 3: Optional enrichment categories
	if err := o.enrich(ctx, req, guard, aggregator, result); err != nil {
		return nil, err
	}

	rows := aggregator.Rows()
	if req.MinTier > 0 {
		rows = o.risk.FilterRows(rows, req.MinTier)
	}
	for _, row := range rows {
		o.metrics.RowRecorded(profile.Name, row.Tier)
	}

	result.Rows = rows
	result.Summary = o.risk.Summarize(profile, rows)
	result.RateLimit = guard.State()
	result.Duration = o.now().Sub(startTime)
	return result, nil
}

func (o *AuditOrchestrator) guardOptions(profile *entities.Profile) []domainservices.GuardOption {
	opts := []domainservices.GuardOption{
		domainservices.WithThreshold(profile.RateLimit.Threshold),
		domainservices.WithWaitHook(func(d time.Duration) {
			o.progress.RateLimitWait(d.Round(time.Second).String())
			o.metrics.RateLimitWaited(profile.Name, d.Seconds())
		}),
	}
	return append(opts, o.guardOpts...)
}

func (o *AuditOrchestrator) collect(ctx context.Context, req AuditRequest, guard *domainservices.RateLimitGuard) ([]entities.CollectionItem, error) {
	if req.Items != nil {
		return req.Items, nil
	}

	spec := req.Profile.Collection
	fetcher := domainservices.NewCollectionFetcher(req.Collection, guard, spec.PageSize, spec.MaxItems)
	fetcher.OnPage(func(page, count int) {
		o.progress.CollectionFetched(noun(req.Profile), page, count)
	})

	items, err := fetcher.FetchAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", noun(req.Profile), err)
	}
	return items, nil
}

func (o *AuditOrchestrator) probeItems(
	ctx context.Context,
	req AuditRequest,
	guard *domainservices.RateLimitGuard,
	items []entities.CollectionItem,
	aggregator *domainservices.ReportAggregator,
	result *entities.AuditResult,
) error {
	profile := req.Profile
	prober := req.Prober
	if prober == nil {
		prober = indeterminateProber{}
	}

	remote := profile.Probe.Kind == entities.ProbeHTTP
	limiter := probeLimiter(o.probeInterval)

	for i, item := range items {
		if remote {
			if err := guard.Wait(ctx); err != nil {
				return err
			}
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					return err
				}
			}
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		probe, err := prober.Probe(ctx, item)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			o.logger.Warn("feature check failed",
				interfaces.F("item", item.Identifier),
				interfaces.F("status", entities.StatusCode(err)),
				interfaces.F("error", err))
			probe = entities.ProbeIndeterminate
		}

		switch probe {
		case entities.ProbeEnabled:
			result.Probes.Enabled++
		case entities.ProbeDisabled:
			result.Probes.Disabled++
		default:
			result.Probes.Indeterminate++
		}
		o.metrics.ProbeObserved(profile.Name, probe)

		if profile.Probe.ReportOnlyEnabled && probe != entities.ProbeEnabled {
			o.progress.ItemChecked(i+1, len(items), item, nil)
			continue
		}

		row := o.risk.BuildRow(profile, item, probe)
		aggregator.Add(row)
		o.progress.ItemChecked(i+1, len(items), item, &row)
	}
	return nil
}

// probeLimiter returns nil when pacing is disabled
func probeLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}

func (o *AuditOrchestrator) enrich(
	ctx context.Context,
	req AuditRequest,
	guard *domainservices.RateLimitGuard,
	aggregator *domainservices.ReportAggregator,
	result *entities.AuditResult,
) error {
	if req.Enrichment == nil {
		return nil
	}

	for _, spec := range req.Profile.Enrichments {
		if err := guard.Wait(ctx); err != nil {
			return err
		}

		items, err := req.Enrichment.Enrich(ctx, spec)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			reason := err.Error()
			o.logger.Warn("enrichment category unavailable, skipping",
				interfaces.F("category", spec.Name),
				interfaces.F("status", entities.StatusCode(err)),
				interfaces.F("error", err))
			result.Skipped = append(result.Skipped, entities.SkippedCategory{Name: spec.Name, Reason: reason})
			o.metrics.EnrichmentSkipped(req.Profile.Name, spec.Name)
			o.progress.EnrichmentSkipped(spec.Name, reason)
			continue
		}

		for _, item := range items {
			aggregator.Add(o.risk.BuildEnrichmentRow(spec, item))
		}
		o.progress.EnrichmentFound(spec.Name, len(items))
	}
	return nil
}

func noun(profile *entities.Profile) string {
	if profile.Noun != "" {
		return profile.Noun
	}
	return "items"
}

type indeterminateProber struct{}

func (indeterminateProber) Probe(_ context.Context, _ entities.CollectionItem) (entities.FeatureProbeResult, error) {
	return entities.ProbeIndeterminate, nil
}

type noopProgress struct{}

func (noopProgress) CollectionFetched(_ string, _, _ int) {}
func (noopProgress) CollectionComplete(_ string, _ int) {}
func (noopProgress) ItemChecked(_, _ int, _ entities.CollectionItem, _ *entities.ReportRow) {}
func (noopProgress) RateLimitWait(_ string) {}
func (noopProgress) EnrichmentSkipped(_, _ string) {}
func (noopProgress) EnrichmentFound(_ string, _ int) {}

type noopMetrics struct{}

func (noopMetrics) ItemsFetched(_ string, _ int) {}
func (noopMetrics) ProbeObserved(_ string, _ entities.FeatureProbeResult) {}
func (noopMetrics) RowRecorded(_ string, _ entities.RiskTier) {}
func (noopMetrics) RateLimitWaited(_ string, _ float64) {}
func (noopMetrics) EnrichmentSkipped(_, _ string) {}
