package report

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ochairo/aiaudit/internal/domain/entities"
)

// StepSummaryEnv names the file GitHub Actions renders as the job summary
const StepSummaryEnv = "GITHUB_STEP_SUMMARY"

// RenderMarkdown renders a run summary as Markdown
func RenderMarkdown(result *entities.AuditResult, written *Written) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "## AI feature audit: %s (%s)\n\n", result.Profile, result.Scope)
	fmt.Fprintf(&sb, "Items scanned: **%d**, report rows: **%d**\n\n", result.ItemsFound, result.Summary.Total)

	sb.WriteString("| Risk | Count |\n|---|---:|\n")
	for _, tier := range entities.TiersBySeverity {
		fmt.Fprintf(&sb, "| %s | %d |\n", tier, result.Summary.Count(tier))
	}

	if len(result.Skipped) > 0 {
		sb.WriteString("\n**Skipped categories:**\n")
		for _, s := range result.Skipped {
			fmt.Fprintf(&sb, "- %s: %s\n", s.Name, s.Reason)
		}
	}

	for _, block := range result.Summary.Narrative {
		fmt.Fprintf(&sb, "\n> **%s:** %d findings\n", block.Tier, block.Count)
		for _, line := range block.Lines {
			fmt.Fprintf(&sb, "> %s\n", ExpandGuidance(line, block.Count))
		}
	}

	if written != nil {
		fmt.Fprintf(&sb, "\nReport `%s` (sha256 `%s`)\n", written.Path, written.SHA256)
	}
	fmt.Fprintf(&sb, "\n_Run %s_\n", result.RunID)

	return sb.String()
}

// ExpandGuidance substitutes the {count} placeholder
func ExpandGuidance(line string, count int) string {
	return strings.ReplaceAll(line, "{count}", fmt.Sprint(count))
}

// AppendStepSummary appends the Markdown summary to the file named by
// GITHUB_STEP_SUMMARY. It reports false when the variable is unset.
func AppendStepSummary(result *entities.AuditResult, written *Written) (bool, error) {
	path := os.Getenv(StepSummaryEnv)
	if path == "" {
		return false, nil
	}

	//nolint:gosec // G304: path is provided by the CI runner
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return false, fmt.Errorf("failed to open step summary file: %w", err)
	}
	defer f.Close()

	if _, err := io.WriteString(f, RenderMarkdown(result, written)); err != nil {
		return false, fmt.Errorf("failed to write to step summary file: %w", err)
	}
	return true, nil
}
