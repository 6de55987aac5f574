package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/ochairo/aiaudit/internal/domain/entities"
	"github.com/ochairo/aiaudit/internal/external-adapters/yaml"
)

func newProfilesCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles [name]",
		Short: "List provider profiles or show one in detail",
		Long: `Provider profiles describe how each SaaS API is audited: endpoints,
pagination, feature probe, report columns and guidance. The built-in
profiles can be overridden or extended with --profiles.

Examples:
  aiaudit profiles
  aiaudit profiles m365
  aiaudit profiles --profiles ./my-profiles/`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			repo, err := yaml.NewProfileRepository(opts.profilesPath)
			if err != nil {
				return fmt.Errorf("failed to load profiles: %w", err)
			}

			if len(args) == 1 {
				profile, err := repo.GetProfile(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printProfile(cmd.OutOrStdout(), profile)
				return nil
			}

			profiles, err := repo.ListProfiles(cmd.Context())
			if err != nil {
				return err
			}
			t := table.New().Headers("NAME", "GATEWAY", "PROBE", "DESCRIPTION")
			for _, p := range profiles {
				t.Row(p.Name, p.Gateway, string(p.Probe.Kind), p.Description)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
	return cmd
}

func printProfile(w io.Writer, p *entities.Profile) {
	fmt.Fprintf(w, "Name:        %s\n", p.Name)
	fmt.Fprintf(w, "Description: %s\n", p.Description)
	fmt.Fprintf(w, "Report:      %s_<scope>_<timestamp>.csv\n", p.Tool)
	fmt.Fprintf(w, "Base URL:    %s\n", p.BaseURL)
	fmt.Fprintf(w, "Collection:  %s (%s pagination)\n", p.Collection.Path, p.Collection.Pagination)
	fmt.Fprintf(w, "Probe:       %s\n", probeDescription(p.Probe))
	fmt.Fprintf(w, "Columns:     %s\n", strings.Join(p.Columns, ","))
	for _, e := range p.Enrichments {
		fmt.Fprintf(w, "Enrichment:  %s %s (tier %s", e.Name, e.Path, e.Tier)
		if e.Limit > 0 {
			fmt.Fprintf(w, ", first %d", e.Limit)
		}
		fmt.Fprintln(w, ")")
	}
}

func probeDescription(spec entities.ProbeSpec) string {
	switch spec.Kind {
	case entities.ProbeHTTP:
		return fmt.Sprintf("http %s keys=%s", spec.Path, strings.Join(spec.EnabledKeys, ","))
	case entities.ProbeKeywords:
		return fmt.Sprintf("keywords (%d)", len(spec.Keywords))
	case entities.ProbeLicenseSKU:
		if len(spec.SKUs) == 0 {
			return "license_sku (no SKU configured)"
		}
		return "license_sku " + strings.Join(spec.SKUs, ",")
	default:
		return string(spec.Kind)
	}
}
