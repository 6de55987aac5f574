package main

import (
	"time"

	"github.com/spf13/cobra"

	orchestrators "github.com/ochairo/aiaudit/internal/domain-orchestrators"
)

// rootOptions holds flags shared by every audit command
type rootOptions struct {
	logLevel      string
	logFormat     string
	profilesPath  string
	output        string
	metricsFile   string
	signKey       string
	minRisk       string
	maxItems      int
	probeInterval time.Duration
	timeout       time.Duration
	noColor       bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "aiaudit",
		Short: "Audit AI feature exposure in GitHub, Atlassian and Microsoft 365",
		Long: `aiaudit inventories where AI features are enabled in a SaaS tenant and
classifies each finding by risk, writing a CSV report.

  CRITICAL  AI feature enabled on a public asset
  HIGH      AI feature enabled on a private or internal asset
  MEDIUM    Data exposure point (sites, spaces, teams, license rows)
  LOW       AI feature disabled or not determinable

Exit Codes:
  0   = Audit completed (also with zero findings)
  1   = Fatal error (authentication, permissions, target not found)
  130 = Interrupted`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "text", "Log format: text, json")
	flags.StringVar(&opts.profilesPath, "profiles", "", "YAML file or directory overriding the built-in provider profiles")
	flags.StringVarP(&opts.output, "output", "o", "", "Report path (default <tool>_<scope>_<timestamp>.csv)")
	flags.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")
	flags.StringVar(&opts.signKey, "sign-key", "", "Armored OpenPGP private key; writes <report>.asc")
	flags.StringVar(&opts.minRisk, "min-risk", "", "Only report rows at or above: low, medium, high, critical")
	flags.IntVar(&opts.maxItems, "max-items", 0, "Stop after this many items (0 = all)")
	flags.DurationVar(&opts.probeInterval, "probe-interval", orchestrators.DefaultProbeInterval, "Minimum spacing between feature probe requests")
	flags.DurationVar(&opts.timeout, "timeout", 30*time.Second, "HTTP request timeout")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	cmd.AddCommand(
		newGitHubCmd(opts),
		newGitHubRepoCmd(opts),
		newAtlassianCmd(opts),
		newM365Cmd(opts),
		newProfilesCmd(opts),
		newVerifyCmd(),
	)
	return cmd
}
