package main

import (
	"context"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/ochairo/aiaudit/internal/config"
	"github.com/ochairo/aiaudit/internal/domain-adapters/gateways"
	"github.com/ochairo/aiaudit/internal/external-adapters/auth"
)

func newAtlassianCmd(opts *rootOptions) *cobra.Command {
	var email, apiToken, apiURL string

	cmd := &cobra.Command{
		Use:   "atlassian <site>",
		Short: "Scan a Jira and Confluence site for AI add-ons and Atlassian Intelligence",
		Long: `List the apps installed on an Atlassian Cloud site, flag AI-related ones by
keyword and record Confluence spaces and Atlassian Intelligence licensing
as data exposure points. Only AI-related apps are reported.

Credentials are an account email and API token, read from --email and
--api-token or ATLASSIAN_EMAIL and ATLASSIAN_API_TOKEN.

Examples:
  aiaudit atlassian acme.atlassian.net
  aiaudit atlassian https://acme.atlassian.net --output acme-ai.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			creds := config.AtlassianCredentials{
				Email:    config.Env(email, config.EnvAtlassianEmail),
				APIToken: config.Env(apiToken, config.EnvAtlassianAPIToken),
			}
			if err := creds.Validate(); err != nil {
				return err
			}
			return opts.runAudit(cmd, auditTarget{
				profile: "atlassian",
				scope:   config.NormalizeScope(args[0]),
				apiURL:  apiURL,
				connect: func(_ context.Context, env *runEnv) (*providerSources, error) {
					client, err := auth.BasicAuthClient(creds.Email, creds.APIToken, env.httpClient)
					if err != nil {
						return nil, err
					}
					return restSources(client, env)
				},
			})
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Atlassian account email (default $ATLASSIAN_EMAIL)")
	cmd.Flags().StringVar(&apiToken, "api-token", "", "Atlassian API token (default $ATLASSIAN_API_TOKEN)")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "Override the site URL")
	return cmd
}

// restSources wires a profile-driven REST gateway as every source
func restSources(client *http.Client, env *runEnv) (*providerSources, error) {
	gw, err := gateways.NewRESTGateway(client, env.baseURL, env.profile)
	if err != nil {
		return nil, err
	}
	return &providerSources{
		collection: gw,
		quota:      gw,
		prober:     gateways.SelectProber(env.profile.Probe, gw),
		enrichment: gw,
	}, nil
}
