package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ochairo/aiaudit/internal/config"
	"github.com/ochairo/aiaudit/internal/domain/entities"
	"github.com/ochairo/aiaudit/internal/external-adapters/auth"
)

func newM365Cmd(opts *rootOptions) *cobra.Command {
	var (
		clientID     string
		clientSecret string
		authorityURL string
		apiURL       string
		skus         []string
	)

	cmd := &cobra.Command{
		Use:   "m365 <tenant-id>",
		Short: "Check Microsoft 365 Copilot licensing and exposure points in a tenant",
		Long: `List the tenant's users and check each one for a Copilot license, then
record SharePoint sites and Teams as data exposure points. Categories the
app registration cannot read are skipped with a warning.

The app registration needs User.Read.All (and Sites.Read.All,
Team.ReadBasic.All for the exposure points) with admin consent. Credentials
are read from flags or AZURE_TENANT_ID, AZURE_CLIENT_ID, AZURE_CLIENT_SECRET.

Examples:
  aiaudit m365 00000000-0000-0000-0000-000000000000
  aiaudit m365 contoso.onmicrosoft.com --copilot-sku 639dec6b-bb19-468b-871c-c5c441c4b0cb`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tenant := ""
			if len(args) == 1 {
				tenant = args[0]
			}
			creds := config.M365Credentials{
				TenantID:     config.Env(tenant, config.EnvAzureTenantID),
				ClientID:     config.Env(clientID, config.EnvAzureClientID),
				ClientSecret: config.Env(clientSecret, config.EnvAzureClientSecret),
			}
			if err := creds.Validate(); err != nil {
				return err
			}
			if len(skus) == 0 {
				skus = splitList(config.Env("", config.EnvCopilotSKU))
			}

			return opts.runAudit(cmd, auditTarget{
				profile: "m365",
				scope:   creds.TenantID,
				apiURL:  apiURL,
				customize: func(p *entities.Profile) {
					if len(skus) > 0 {
						p.Probe.SKUs = append([]string(nil), skus...)
					}
				},
				connect: func(ctx context.Context, env *runEnv) (*providerSources, error) {
					client, err := auth.GraphClient(ctx, auth.GraphCredentials{
						TenantID:     creds.TenantID,
						ClientID:     creds.ClientID,
						ClientSecret: creds.ClientSecret,
						AuthorityURL: authorityURL,
					}, env.httpClient)
					if err != nil {
						return nil, err
					}
					return restSources(client, env)
				},
			})
		},
	}

	cmd.Flags().StringVar(&clientID, "client-id", "", "App registration client id (default $AZURE_CLIENT_ID)")
	cmd.Flags().StringVar(&clientSecret, "client-secret", "", "App registration secret (default $AZURE_CLIENT_SECRET)")
	cmd.Flags().StringSliceVar(&skus, "copilot-sku", nil, "Copilot license SKU ids (default from profile or $AIAUDIT_COPILOT_SKU)")
	cmd.Flags().StringVar(&authorityURL, "authority-url", "", "Login authority for national clouds")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "Override the Microsoft Graph root")
	return cmd
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
