package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ochairo/aiaudit/internal/config"
	"github.com/ochairo/aiaudit/internal/domain-adapters/gateways"
	"github.com/ochairo/aiaudit/internal/external-adapters/auth"
)

func newGitHubCmd(opts *rootOptions) *cobra.Command {
	var token, apiURL string

	cmd := &cobra.Command{
		Use:   "github <org>",
		Short: "Audit GitHub Copilot exposure across an organization's repositories",
		Long: `List every repository of an organization (public, private and internal),
check whether Copilot is enabled for each one and classify the exposure.

The token needs read access to the organization's repositories. It is read
from --token or GITHUB_TOKEN.

Examples:
  aiaudit github acme
  aiaudit github acme --output acme.csv --min-risk high
  aiaudit github acme --api-url https://ghe.example.com/api/v3/
  GITHUB_TOKEN=ghp_xxx aiaudit github acme --sign-key audit-key.asc`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			creds := config.GitHubCredentials{Token: config.Env(token, config.EnvGitHubToken)}
			if err := creds.Validate(); err != nil {
				return err
			}
			return opts.runAudit(cmd, auditTarget{
				profile: "github",
				scope:   args[0],
				apiURL:  apiURL,
				connect: func(ctx context.Context, env *runEnv) (*providerSources, error) {
					gw, err := connectGitHub(ctx, env, creds)
					if err != nil {
						return nil, err
					}
					return &providerSources{
						collection: gw,
						quota:      gw,
						prober:     gateways.SelectProber(env.profile.Probe, gw),
					}, nil
				},
			})
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "GitHub token (default $GITHUB_TOKEN)")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "API root for GitHub Enterprise Server")
	return cmd
}

func connectGitHub(ctx context.Context, env *runEnv, creds config.GitHubCredentials) (*gateways.GitHubGateway, error) {
	client, err := auth.TokenClient(ctx, creds.Token, env.httpClient)
	if err != nil {
		return nil, err
	}
	return gateways.NewGitHubGateway(client, env.baseURL, env.scope, env.profile.Probe)
}
