// Package auth builds authenticated HTTP clients for the audited APIs.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// Microsoft identity platform defaults
const (
	DefaultAuthorityURL = "https://login.microsoftonline.com"
	GraphScope          = "https://graph.microsoft.com/.default"
)

// ErrMissingCredentials is returned when a required secret is empty
var ErrMissingCredentials = errors.New("missing credentials")

// TokenClient returns a client that sends token as a bearer token.
// base carries the transport (timeouts, instrumentation); nil means
// http.DefaultClient.
func TokenClient(ctx context.Context, token string, base *http.Client) (*http.Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.Join(ErrMissingCredentials, errors.New("token is required"))
	}

	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
	return withTimeout(oauth2.NewClient(withBase(ctx, base), ts), base), nil
}

// GraphCredentials identifies an Entra ID app registration
type GraphCredentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
	// AuthorityURL overrides the login host, e.g. for national clouds
	AuthorityURL string
	Scopes       []string
}

// TokenURL returns the v2.0 token endpoint for the tenant
func (c GraphCredentials) TokenURL() string {
	authority := c.AuthorityURL
	if authority == "" {
		authority = DefaultAuthorityURL
	}
	return strings.TrimRight(authority, "/") + "/" + c.TenantID + "/oauth2/v2.0/token"
}

// GraphClient returns a client that acquires app-only tokens with the
// client-credentials grant. Tokens are fetched lazily and reused until
// they expire; a failed exchange surfaces as *oauth2.RetrieveError on the
// first request.
func GraphClient(ctx context.Context, creds GraphCredentials, base *http.Client) (*http.Client, error) {
	var missing []error
	if creds.TenantID == "" {
		missing = append(missing, errors.New("tenant id is required"))
	}
	if creds.ClientID == "" {
		missing = append(missing, errors.New("client id is required"))
	}
	if creds.ClientSecret == "" {
		missing = append(missing, errors.New("client secret is required"))
	}
	if len(missing) > 0 {
		return nil, errors.Join(append([]error{ErrMissingCredentials}, missing...)...)
	}

	scopes := creds.Scopes
	if len(scopes) == 0 {
		scopes = []string{GraphScope}
	}

	cfg := clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     creds.TokenURL(),
		Scopes:       scopes,
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	return withTimeout(cfg.Client(withBase(ctx, base)), base), nil
}

// BasicAuthClient returns a client that sends email and API token as HTTP
// basic credentials, as Atlassian Cloud expects.
func BasicAuthClient(email, apiToken string, base *http.Client) (*http.Client, error) {
	if email == "" || apiToken == "" {
		return nil, errors.Join(ErrMissingCredentials, errors.New("email and api token are required"))
	}

	client := &http.Client{}
	var next http.RoundTripper
	if base != nil {
		*client = *base
		next = base.Transport
	}
	if next == nil {
		next = http.DefaultTransport
	}
	client.Transport = &basicAuthTransport{username: email, password: apiToken, next: next}
	return client, nil
}

type basicAuthTransport struct {
	username string
	password string
	next     http.RoundTripper
}

// RoundTrip clones the request before adding credentials
func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.SetBasicAuth(t.username, t.password)
	return t.next.RoundTrip(clone)
}

func withBase(ctx context.Context, base *http.Client) context.Context {
	if base == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, base)
}

func withTimeout(client *http.Client, base *http.Client) *http.Client {
	if base != nil {
		client.Timeout = base.Timeout
	}
	return client
}
