package gateways

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/go-github/v53/github"

	"github.com/ochairo/aiaudit/internal/domain/entities"
	"github.com/ochairo/aiaudit/internal/domain/interfaces/gateways"
)

// defaultCopilotProbePath is the repository-scoped Copilot endpoint
const defaultCopilotProbePath = "repos/{id}/copilot"

// GitHubGateway audits the repositories of one organization. It lists
// repositories, reports the core rate limit and probes each repository's
// Copilot endpoint.
type GitHubGateway struct {
	client      *github.Client
	org         string
	probePath   string
	enabledKeys []string
}

var (
	_ gateways.CollectionGateway = (*GitHubGateway)(nil)
	_ gateways.QuotaGateway      = (*GitHubGateway)(nil)
	_ gateways.FeatureProber     = (*GitHubGateway)(nil)
)

// NewGitHubGateway creates a gateway for org. httpClient carries the
// credentials (see oauth2.NewClient); baseURL overrides the public API
// root for GitHub Enterprise Server.
func NewGitHubGateway(httpClient *http.Client, baseURL, org string, probe entities.ProbeSpec) (*GitHubGateway, error) {
	client := github.NewClient(httpClient)
	client.UserAgent = userAgent

	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("invalid GitHub API URL %q: %w", baseURL, err)
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		client.BaseURL = u
	}

	probePath := strings.TrimPrefix(probe.Path, "/")
	if probePath == "" {
		probePath = defaultCopilotProbePath
	}

	return &GitHubGateway{
		client:      client,
		org:         org,
		probePath:   probePath,
		enabledKeys: probe.EnabledKeys,
	}, nil
}

// Pagination reports page-numbered listing
func (g *GitHubGateway) Pagination() entities.Pagination {
	return entities.PaginationPage
}

// FetchPage lists one page of the organization's repositories, including
// private and internal ones the token can see
func (g *GitHubGateway) FetchPage(ctx context.Context, req gateways.PageRequest) (*gateways.Page, error) {
	opts := &github.RepositoryListByOrgOptions{
		Type: "all",
		ListOptions: github.ListOptions{
			Page:    req.Page,
			PerPage: req.PageSize,
		},
	}

	repos, _, err := g.client.Repositories.ListByOrg(ctx, g.org, opts)
	if err != nil {
		return nil, gitHubError(ctx, "list repositories", err)
	}

	items := make([]entities.CollectionItem, 0, len(repos))
	for _, repo := range repos {
		items = append(items, repositoryItem(repo))
	}
	return &gateways.Page{Items: items}, nil
}

// GetRepository fetches a single repository
func (g *GitHubGateway) GetRepository(ctx context.Context, owner, repo string) (entities.CollectionItem, error) {
	r, _, err := g.client.Repositories.Get(ctx, owner, repo)
	if err != nil {
		return entities.CollectionItem{}, gitHubError(ctx, "get repository", err)
	}
	return repositoryItem(r), nil
}

// Quota returns the core REST rate limit
func (g *GitHubGateway) Quota(ctx context.Context) (entities.Quota, error) {
	limits, _, err := g.client.RateLimits(ctx)
	if err != nil {
		return entities.Quota{}, gitHubError(ctx, "check rate limit", err)
	}
	if limits == nil || limits.Core == nil {
		return entities.Quota{}, nil
	}
	return entities.Quota{
		Remaining: limits.Core.Remaining,
		ResetAt:   limits.Core.Reset.Time,
		Known:     true,
	}, nil
}

// Probe queries the repository's Copilot endpoint. 404 means the feature
// is not enabled; any other failure is indeterminate.
func (g *GitHubGateway) Probe(ctx context.Context, item entities.CollectionItem) (entities.FeatureProbeResult, error) {
	path := strings.ReplaceAll(g.probePath, "{id}", item.Identifier)

	req, err := g.client.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return entities.ProbeIndeterminate, fmt.Errorf("failed to create request: %w", err)
	}

	var body map[string]any
	if _, err := g.client.Do(ctx, req, &body); err != nil {
		if gitHubStatus(err) == http.StatusNotFound {
			return entities.ProbeDisabled, nil
		}
		return entities.ProbeIndeterminate, gitHubError(ctx, "probe "+item.Identifier, err)
	}

	return enabledFromBody(body, g.enabledKeys), nil
}

func repositoryItem(repo *github.Repository) entities.CollectionItem {
	return entities.CollectionItem{
		Identifier:  repo.GetFullName(),
		DisplayName: repo.GetFullName(),
		Sensitive:   repo.GetPrivate() || repo.GetVisibility() == "internal",
		ExternalURL: repo.GetHTMLURL(),
		Metadata: entities.ItemMetadata{
			CreatedAt: repo.GetCreatedAt().Time,
			UpdatedAt: repo.GetUpdatedAt().Time,
		},
	}
}

// enabledFromBody reports Enabled when any of keys holds boolean true.
// Without configured keys, any true top-level boolean counts.
func enabledFromBody(body map[string]any, keys []string) entities.FeatureProbeResult {
	if len(keys) == 0 {
		for _, v := range body {
			if b, ok := v.(bool); ok && b {
				return entities.ProbeEnabled
			}
		}
		return entities.ProbeDisabled
	}

	for _, key := range keys {
		v, ok := lookup(body, key)
		if !ok {
			continue
		}
		if b, ok := v.(bool); ok && b {
			return entities.ProbeEnabled
		}
	}
	return entities.ProbeDisabled
}
