package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ochairo/aiaudit/internal/config"
	orchestrators "github.com/ochairo/aiaudit/internal/domain-orchestrators"
	"github.com/ochairo/aiaudit/internal/domain/entities"
	"github.com/ochairo/aiaudit/internal/domain/interfaces"
	"github.com/ochairo/aiaudit/internal/domain/interfaces/gateways"
	"github.com/ochairo/aiaudit/internal/domain/services"
	"github.com/ochairo/aiaudit/internal/external-adapters/gpg"
	"github.com/ochairo/aiaudit/internal/external-adapters/logging"
	"github.com/ochairo/aiaudit/internal/external-adapters/metrics"
	"github.com/ochairo/aiaudit/internal/external-adapters/report"
	"github.com/ochairo/aiaudit/internal/external-adapters/yaml"
)

// auditTarget describes one audit command invocation
type auditTarget struct {
	profile string
	scope   string
	// reportScope names the report file when it differs from scope
	reportScope string
	apiURL      string
	customize   func(*entities.Profile)
	connect     func(ctx context.Context, env *runEnv) (*providerSources, error)
}

// runEnv is what a provider needs to build its gateways
type runEnv struct {
	profile    *entities.Profile
	scope      string
	baseURL    string
	httpClient *http.Client
	logger     interfaces.Logger
}

// providerSources are the gateways feeding one run
type providerSources struct {
	collection gateways.CollectionGateway
	quota      gateways.QuotaGateway
	prober     gateways.FeatureProber
	enrichment gateways.EnrichmentGateway
	items      []entities.CollectionItem
}

func (o *rootOptions) runConfig(target auditTarget) config.Run {
	return config.Run{
		Profile:       target.profile,
		Scope:         target.scope,
		Output:        o.output,
		APIURL:        target.apiURL,
		MinRisk:       o.minRisk,
		MetricsFile:   o.metricsFile,
		SignKey:       o.signKey,
		MaxItems:      o.maxItems,
		ProbeInterval: o.probeInterval,
		Timeout:       o.timeout,
		LogLevel:      o.logLevel,
		LogFormat:     o.logFormat,
	}
}

func (o *rootOptions) newLogger(cmd *cobra.Command) (*logging.Logger, error) {
	level, err := logging.ParseLevel(o.logLevel)
	if err != nil {
		return nil, err
	}
	return logging.New(logging.Config{
		Level:  level,
		JSON:   o.logFormat == "json",
		Output: cmd.ErrOrStderr(),
	}), nil
}

// runAudit executes the shared pipeline: load profile, connect, audit,
// then write, sign and summarize the report
func (o *rootOptions) runAudit(cmd *cobra.Command, target auditTarget) error {
	ctx := cmd.Context()
	run := o.runConfig(target)
	if err := run.Validate(); err != nil {
		return err
	}

	logger, err := o.newLogger(cmd)
	if err != nil {
		return err
	}

	signer, err := loadSigner(run.SignKey)
	if err != nil {
		return err
	}

	repo, err := yaml.NewProfileRepository(o.profilesPath)
	if err != nil {
		return fmt.Errorf("failed to load profiles: %w", err)
	}
	stored, err := repo.GetProfile(ctx, target.profile)
	if err != nil {
		return err
	}
	profile := *stored
	if target.customize != nil {
		target.customize(&profile)
	}
	if run.MaxItems > 0 {
		profile.Collection.MaxItems = run.MaxItems
	}

	var minTier entities.RiskTier
	if run.MinRisk != "" {
		if minTier, err = entities.ParseRiskTier(run.MinRisk); err != nil {
			return err
		}
	}

	baseURL, err := config.ResolveBaseURL(profile.BaseURL, target.scope, target.apiURL)
	if err != nil {
		return err
	}

	recorder := metrics.NewRecorder()
	started := time.Now()
	finish := func(runErr error) error {
		recorder.RunFinished(profile.Name, time.Since(started), runErr)
		if run.MetricsFile != "" {
			if err := recorder.WriteTextfile(run.MetricsFile); err != nil {
				logger.Warn("failed to write metrics file", interfaces.F("path", run.MetricsFile), interfaces.F("error", err))
			}
		}
		return runErr
	}

	out := newPrinter(cmd.OutOrStdout(), o.noColor)
	out.Banner(profile.Description, target.scope)

	sources, err := target.connect(ctx, &runEnv{
		profile:    &profile,
		scope:      target.scope,
		baseURL:    baseURL,
		httpClient: recorder.InstrumentClient(&http.Client{Timeout: run.HTTPTimeout()}),
		logger:     logger,
	})
	if err != nil {
		return finish(err)
	}

	orch := orchestrators.NewAuditOrchestrator(services.NewRiskService(), orchestrators.AuditOrchestratorConfig{
		ProbeInterval: run.ProbeInterval,
		Logger:        logger,
		Progress:      out,
		Metrics:       recorder,
	})

	result, err := orch.Run(ctx, orchestrators.AuditRequest{
		Profile:    &profile,
		Scope:      target.scope,
		Collection: sources.collection,
		Quota:      sources.quota,
		Prober:     sources.prober,
		Enrichment: sources.enrichment,
		Items:      sources.items,
		MinTier:    minTier,
	})
	if err != nil {
		return finish(err)
	}
	logger = logger.With(interfaces.F("run_id", result.RunID))

	path := run.ReportPath(profile.Tool, target.reportScope, time.Now())

	written, err := report.WriteCSV(path, result.Columns, result.Rows)
	if err != nil {
		return finish(fmt.Errorf("failed to write report: %w", err))
	}
	logger.Info("report written",
		interfaces.F("path", written.Path),
		interfaces.F("rows", written.Rows),
		interfaces.F("sha256", written.SHA256))
	if written.Rows == 0 {
		logger.Warn("report has no rows", interfaces.F("path", written.Path))
	}

	signature, err := signReport(signer, written.Path)
	if err != nil {
		return finish(err)
	}

	out.Summary(result, written, signature)

	if ok, err := report.AppendStepSummary(result, written); err != nil {
		logger.Warn("failed to write step summary", interfaces.F("error", err))
	} else if ok {
		logger.Debug("step summary written")
	}

	return finish(nil)
}

// loadSigner reads the signing key before any API call so a bad key
// fails the run up front. No key path means no signing.
func loadSigner(keyPath string) (*gpg.Signer, error) {
	if keyPath == "" {
		return nil, nil
	}
	signer, err := gpg.NewSignerFromFile(keyPath, []byte(os.Getenv(config.EnvSigningPassphrase)))
	if err != nil {
		return nil, fmt.Errorf("failed to load signing key: %w", err)
	}
	return signer, nil
}

// signReport writes an armored detached signature next to the report
func signReport(signer *gpg.Signer, reportPath string) (string, error) {
	if signer == nil {
		return "", nil
	}
	sigPath := reportPath + gpg.SignatureSuffix
	if err := signer.SignFile(reportPath, sigPath); err != nil {
		return "", fmt.Errorf("failed to sign report: %w", err)
	}
	return fmt.Sprintf("%s (key %s)", sigPath, signer.Fingerprint()), nil
}
