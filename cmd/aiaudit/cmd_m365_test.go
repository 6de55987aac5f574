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

const copilotSKU = "639dec6b-bb19-468b-871c-c5c441c4b0cb"

// fakeGraph serves the token endpoint and a two-page user listing. Teams
// answers 403 as it does without Team.ReadBasic.All.
func fakeGraph(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	var server *httptest.Server

	mux.HandleFunc("/tenant-1/oauth2/v2.0/token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprint(w, `{"access_token": "graph-token", "token_type": "Bearer", "expires_in": 3600}`)
	})
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer graph-token", r.Header.Get("Authorization"))
		if r.URL.Query().Get("$skiptoken") == "page2" {
			_, _ = fmt.Fprint(w, `{"value": [
			  {"id": "u2", "displayName": "Bob", "userPrincipalName": "bob@contoso.com", "assignedLicenses": []}
			]}`)
			return
		}
		assert.Equal(t, "999", r.URL.Query().Get("$top"))
		_, _ = fmt.Fprintf(w, `{"value": [
		  {"id": "u1", "displayName": "Ada", "userPrincipalName": "ada@contoso.com",
		   "assignedLicenses": [{"skuId": %q}, {"skuId": "other"}]}
		], "@odata.nextLink": "%s/users?$skiptoken=page2"}`, copilotSKU, server.URL)
	})
	mux.HandleFunc("/sites", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `{"value": [
		  {"id": "s1", "displayName": "Finance", "webUrl": "https://contoso.sharepoint.com/sites/finance"}
		]}`)
	})
	mux.HandleFunc("/teams", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = fmt.Fprint(w, `{"error": {"code": "Authorization_RequestDenied", "message": "Insufficient privileges"}}`)
	})

	server = httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func m365Args(server *httptest.Server, output string, extra ...string) []string {
	args := []string{
		"m365", "tenant-1",
		"--client-id", "app-id",
		"--client-secret", "app-secret",
		"--authority-url", server.URL,
		"--api-url", server.URL,
		"--output", output,
	}
	return append(args, extra...)
}

func TestM365Cmd_LicensesAndExposurePoints(t *testing.T) {
	isolateEnv(t)
	server := fakeGraph(t)
	output := outputPath(t, "m365.csv")

	stdout, stderr, code := runCLI(t, context.Background(), m365Args(server, output)...)
	require.Equal(t, exitOK, code, stderr)

	assert.Equal(t, strings.Join([]string{
		"type,name,email,copilot_licensed,license_count,url,id,risk_level",
		"User,Ada,ada@contoso.com,Yes,2,,u1,HIGH",
		"User,Bob,bob@contoso.com,No,0,,u2,LOW",
		"SharePoint Site,Finance,,,,https://contoso.sharepoint.com/sites/finance,s1,MEDIUM",
		"",
	}, "\n"), readFile(t, output))

	assert.Contains(t, stdout, "Found 1 users (page 1)")
	assert.Contains(t, stdout, "Found 1 users (page 2)")
	assert.Contains(t, stdout, "Could not read teams, skipping")
	assert.Contains(t, stdout, "1 users hold a Microsoft 365 Copilot license")
	assert.Contains(t, stdout, "MEDIUM: 1")
}

func TestM365Cmd_UnknownSKU(t *testing.T) {
	isolateEnv(t)
	server := fakeGraph(t)
	output := outputPath(t, "m365.csv")

	_, stderr, code := runCLI(t, context.Background(), m365Args(server, output, "--copilot-sku", "not-a-copilot-sku")...)
	require.Equal(t, exitOK, code, stderr)

	assert.Contains(t, readFile(t, output), "User,Ada,ada@contoso.com,No,2,,u1,LOW")
}

func TestM365Cmd_TokenFailure(t *testing.T) {
	isolateEnv(t)
	mux := http.NewServeMux()
	mux.HandleFunc("/tenant-1/oauth2/v2.0/token", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = fmt.Fprint(w, `{"error": "invalid_client"}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	output := outputPath(t, "m365.csv")

	_, stderr, code := runCLI(t, context.Background(), m365Args(server, output)...)

	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "Authentication failed")
}

func TestM365Cmd_MissingCredentials(t *testing.T) {
	isolateEnv(t)

	_, stderr, code := runCLI(t, context.Background(), "m365", "tenant-1")

	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "ClientID is required (flag or AZURE_CLIENT_ID)")
}
