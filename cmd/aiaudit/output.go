package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/ochairo/aiaudit/internal/domain/entities"
	"github.com/ochairo/aiaudit/internal/domain/interfaces/services"
	"github.com/ochairo/aiaudit/internal/external-adapters/report"
)

// printer renders console progress and the run summary. Colors are only
// used on a terminal.
type printer struct {
	out    io.Writer
	title  lipgloss.Style
	ok     lipgloss.Style
	warn   lipgloss.Style
	dim    lipgloss.Style
	tiers  map[entities.RiskTier]lipgloss.Style
	banner string
}

var _ services.ProgressReporter = (*printer)(nil)

func newPrinter(out io.Writer, noColor bool) *printer {
	p := &printer{
		out:    out,
		banner: strings.Repeat("=", 60),
		tiers:  make(map[entities.RiskTier]lipgloss.Style),
	}
	if noColor || !isTerminal(out) || os.Getenv("NO_COLOR") != "" {
		return p
	}

	r := lipgloss.NewRenderer(out)
	p.title = r.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	p.ok = r.NewStyle().Foreground(lipgloss.Color("#00AF00"))
	p.warn = r.NewStyle().Foreground(lipgloss.Color("#FFA500"))
	p.dim = r.NewStyle().Foreground(lipgloss.Color("240"))
	p.tiers[entities.TierCritical] = r.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF0000"))
	p.tiers[entities.TierHigh] = r.NewStyle().Foreground(lipgloss.Color("#FF5F00"))
	p.tiers[entities.TierMedium] = r.NewStyle().Foreground(lipgloss.Color("#FFAF00"))
	p.tiers[entities.TierLow] = r.NewStyle().Foreground(lipgloss.Color("#00AF00"))
	return p
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (p *printer) printf(format string, args ...any) {
	fmt.Fprintf(p.out, format, args...)
}

func (p *printer) tier(t entities.RiskTier) string {
	return p.tiers[t].Render(t.String())
}

// Banner prints the run header
func (p *printer) Banner(title, scope string) {
	p.printf("%s\n%s\n%s\n\n", p.banner, p.title.Render(title), p.banner)
	p.printf("Target: %s\n", scope)
}

// CollectionFetched reports one fetched page
func (p *printer) CollectionFetched(noun string, page, count int) {
	p.printf("   Found %d %s (page %d)...\n", count, noun, page)
}

// CollectionComplete reports the collection size
func (p *printer) CollectionComplete(noun string, total int) {
	p.printf("%s\n", p.ok.Render(fmt.Sprintf("Total %s found: %d", noun, total)))
	if total > 0 {
		p.printf("\nAuditing %d %s...\n", total, noun)
	}
}

// ItemChecked reports one probed item
func (p *printer) ItemChecked(index, total int, item entities.CollectionItem, row *entities.ReportRow) {
	if row == nil {
		p.printf("   [%d/%d] %s %s\n", index, total, item.Name(), p.dim.Render("not reported"))
		return
	}
	p.printf("   [%d/%d] %s Risk: %s\n", index, total, item.Name(), p.tier(row.Tier))
}

// RateLimitWait reports a quota wait
func (p *printer) RateLimitWait(wait string) {
	p.printf("%s\n", p.warn.Render("Rate limit approaching. Waiting "+wait+"..."))
}

// EnrichmentSkipped reports an unavailable category
func (p *printer) EnrichmentSkipped(name, reason string) {
	p.printf("%s\n", p.warn.Render(fmt.Sprintf("Could not read %s, skipping: %s", name, reason)))
}

// EnrichmentFound reports an enrichment category
func (p *printer) EnrichmentFound(name string, count int) {
	p.printf("   Found %d %s\n", count, name)
}

// Summary prints the report location and per-tier counts, followed by
// guidance for Critical and High findings
func (p *printer) Summary(result *entities.AuditResult, written *report.Written, signature string) {
	p.printf("\n%s\n", p.ok.Render("Report generated: "+written.Path))
	p.printf("   Rows written: %d\n", written.Rows)
	p.printf("   SHA-256: %s\n", written.SHA256)
	if signature != "" {
		p.printf("   Signature: %s\n", signature)
	}
	if result.RateLimit.Waits > 0 {
		p.printf("   Rate limit waits: %d\n", result.RateLimit.Waits)
	}

	p.printf("\nRisk Summary:\n")
	for _, t := range entities.TiersBySeverity {
		p.printf("   %s: %d\n", p.tier(t), result.Summary.Count(t))
	}

	if len(result.Skipped) > 0 {
		p.printf("\nSkipped:\n")
		for _, s := range result.Skipped {
			p.printf("   %s (%s)\n", s.Name, s.Reason)
		}
	}

	if len(result.Summary.Narrative) == 0 {
		return
	}
	p.printf("\n%s\n", p.warn.Render("IMPORTANT:"))
	for _, block := range result.Summary.Narrative {
		for _, line := range block.Lines {
			p.printf("   %s\n", report.ExpandGuidance(line, block.Count))
		}
	}
}
