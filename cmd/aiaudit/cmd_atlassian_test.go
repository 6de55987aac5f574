package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeAtlassian(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/rest/api/3/app/metadata", func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "me@acme.com", user)
		assert.Equal(t, "api-token", pass)
		_, _ = fmt.Fprint(w, `{"installedApps": [
		  {"key": "ai-helper", "name": "AI Helper", "vendor": {"name": "Acme"}, "status": "ENABLED"},
		  {"key": "cal", "name": "Team Calendar", "vendor": {"name": "Cal Inc"}, "status": "ENABLED"},
		  {"key": "mail", "name": "Email This Issue", "vendor": {"name": "Mail Co"}, "status": "DISABLED"}
		]}`)
	})
	mux.HandleFunc("/wiki/rest/api/space", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		_, _ = fmt.Fprint(w, `{"results": [{"key": "ENG", "name": "Engineering"}]}`)
	})
	mux.HandleFunc("/rest/api/3/instance/license", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `{"applications": []}`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestAtlassianCmd_ReportsAIAddOns(t *testing.T) {
	isolateEnv(t)
	server := fakeAtlassian(t)
	output := outputPath(t, "atlassian.csv")

	stdout, stderr, code := runCLI(t, context.Background(),
		"atlassian", "https://acme.atlassian.net/",
		"--email", "me@acme.com",
		"--api-token", "api-token",
		"--api-url", server.URL,
		"--output", output)
	require.Equal(t, exitOK, code, stderr)

	assert.Equal(t, strings.Join([]string{
		"type,name,key,vendor,ai_related,status,risk_level",
		"Jira Add-on,AI Helper,ai-helper,Acme,Yes,ENABLED,HIGH",
		"Confluence Space,Engineering,ENG,,,,MEDIUM",
		"Atlassian Intelligence,Built-in AI Features,,,,Unknown,MEDIUM",
		"",
	}, "\n"), readFile(t, output))

	assert.Contains(t, stdout, "Target: acme.atlassian.net")
	assert.Contains(t, stdout, "[2/3] Team Calendar not reported")
	assert.Contains(t, stdout, "1 AI-related add-ons installed")
}

func TestAtlassianCmd_CredentialsFromEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv("ATLASSIAN_EMAIL", "me@acme.com")
	t.Setenv("ATLASSIAN_API_TOKEN", "api-token")
	server := fakeAtlassian(t)
	output := outputPath(t, "atlassian.csv")

	_, stderr, code := runCLI(t, context.Background(),
		"atlassian", "acme.atlassian.net", "--api-url", server.URL, "--output", output)
	require.Equal(t, exitOK, code, stderr)
}

func TestAtlassianCmd_InvalidEmail(t *testing.T) {
	isolateEnv(t)

	_, stderr, code := runCLI(t, context.Background(),
		"atlassian", "acme.atlassian.net", "--email", "nobody", "--api-token", "x")

	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "Email must be an email address")
}
