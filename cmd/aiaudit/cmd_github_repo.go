package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ochairo/aiaudit/internal/config"
	"github.com/ochairo/aiaudit/internal/domain-adapters/gateways"
	"github.com/ochairo/aiaudit/internal/domain/entities"
)

func newGitHubRepoCmd(opts *rootOptions) *cobra.Command {
	var token, apiURL string

	cmd := &cobra.Command{
		Use:   "github-repo <owner/repo>",
		Short: "Check Copilot exposure of a single repository",
		Long: `Fetch one repository, check its Copilot endpoint and classify it. Useful
to confirm a finding or to check a repository outside an organization audit.

Examples:
  aiaudit github-repo acme/website
  aiaudit github-repo acme/website --output website.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.ValidateRepoName(args[0]); err != nil {
				return err
			}
			owner, name, _ := strings.Cut(args[0], "/")

			creds := config.GitHubCredentials{Token: config.Env(token, config.EnvGitHubToken)}
			if err := creds.Validate(); err != nil {
				return err
			}
			return opts.runAudit(cmd, auditTarget{
				profile:     "github",
				scope:       owner,
				reportScope: owner + "_" + name,
				apiURL:      apiURL,
				connect: func(ctx context.Context, env *runEnv) (*providerSources, error) {
					gw, err := connectGitHub(ctx, env, creds)
					if err != nil {
						return nil, err
					}
					repo, err := gw.GetRepository(ctx, owner, name)
					if err != nil {
						return nil, err
					}
					return &providerSources{
						quota:  gw,
						prober: gateways.SelectProber(env.profile.Probe, gw),
						items:  []entities.CollectionItem{repo},
					}, nil
				},
			})
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "GitHub token (default $GITHUB_TOKEN)")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "API root for GitHub Enterprise Server")
	return cmd
}
