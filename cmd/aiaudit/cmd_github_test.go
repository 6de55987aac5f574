package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const threeRepos = `[
  {"full_name": "acme/pub", "private": false, "html_url": "https://github.com/acme/pub",
   "created_at": "2024-01-02T03:04:05Z", "updated_at": "2024-01-02T03:04:05Z"},
  {"full_name": "acme/priv", "private": true, "html_url": "https://github.com/acme/priv"},
  {"full_name": "acme/off", "private": false, "html_url": "https://github.com/acme/off"}
]`

// fakeGitHub serves an organization's repositories and their Copilot
// endpoints. Repositories missing from copilot answer 404.
func fakeGitHub(t *testing.T, reposStatus int, repos string, copilot map[string]string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/rate_limit", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, `{"resources": {"core": {"limit": 5000, "remaining": 4999, "reset": 1893456000}}}`)
	})
	mux.HandleFunc("/orgs/acme/repos", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "all", r.URL.Query().Get("type"))
		w.WriteHeader(reposStatus)
		_, _ = fmt.Fprint(w, repos)
	})
	mux.HandleFunc("/repos/", func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, "/repos/")
		if name, ok := strings.CutSuffix(path, "/copilot"); ok {
			if body, found := copilot[name]; found {
				_, _ = fmt.Fprint(w, body)
				return
			}
			w.WriteHeader(http.StatusNotFound)
			_, _ = fmt.Fprint(w, `{"message": "Not Found"}`)
			return
		}
		if path == "acme/pub" {
			_, _ = fmt.Fprint(w, `{"full_name": "acme/pub", "private": false, "html_url": "https://github.com/acme/pub"}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
		_, _ = fmt.Fprint(w, `{"message": "Not Found"}`)
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func gitHubArgs(server *httptest.Server, output string, extra ...string) []string {
	args := []string{
		"github", "acme",
		"--token", "test-token",
		"--api-url", server.URL + "/",
		"--output", output,
		"--probe-interval", "1ms",
	}
	return append(args, extra...)
}

func TestGitHubCmd_ClassifiesRepositories(t *testing.T) {
	isolateEnv(t)
	server := fakeGitHub(t, http.StatusOK, threeRepos, map[string]string{
		"acme/pub":  `{"enabled_for_org": true}`,
		"acme/priv": `{"enabled_for_org": false, "enabled_for_repo": true}`,
	})
	output := outputPath(t, "audit.csv")
	metricsFile := outputPath(t, "aiaudit.prom")

	stdout, stderr, code := runCLI(t, context.Background(), gitHubArgs(server, output, "--metrics-file", metricsFile)...)
	require.Equal(t, exitOK, code, stderr)

	assert.Equal(t, strings.Join([]string{
		"repo_name,is_private,copilot_enabled,risk_level,url,created_at,updated_at",
		"acme/pub,No,Yes,CRITICAL,https://github.com/acme/pub,2024-01-02T03:04:05Z,2024-01-02T03:04:05Z",
		"acme/priv,Yes,Yes,HIGH,https://github.com/acme/priv,,",
		"acme/off,No,No,LOW,https://github.com/acme/off,,",
		"",
	}, "\n"), readFile(t, output))

	assert.Contains(t, stdout, "Total repositories found: 3")
	assert.Contains(t, stdout, "[1/3] acme/pub Risk: CRITICAL")
	assert.Contains(t, stdout, "CRITICAL: 1")
	assert.Contains(t, stdout, "HIGH: 1")
	assert.Contains(t, stdout, "MEDIUM: 0")
	assert.Contains(t, stdout, "LOW: 1")
	assert.Contains(t, stdout, "IMPORTANT:")
	assert.Contains(t, stdout, "1 CRITICAL risk repositories found (Copilot enabled on PUBLIC repos)")
	assert.Contains(t, stdout, "1 HIGH risk repositories found (Copilot enabled on PRIVATE repos)")
	assert.Contains(t, stdout, "SHA-256: ")

	metrics := readFile(t, metricsFile)
	assert.Contains(t, metrics, `aiaudit_probes_total{profile="github",result="enabled"} 2`)
	assert.Contains(t, metrics, `aiaudit_report_rows_total{profile="github",tier="critical"} 1`)
	assert.Contains(t, metrics, `aiaudit_api_requests_total{code="200",method="get"}`)
	assert.Contains(t, metrics, `aiaudit_last_run_timestamp_seconds{profile="github",status="success"}`)
}

func TestGitHubCmd_EmptyOrganization(t *testing.T) {
	isolateEnv(t)
	server := fakeGitHub(t, http.StatusOK, `[]`, nil)
	output := outputPath(t, "empty.csv")

	stdout, stderr, code := runCLI(t, context.Background(), gitHubArgs(server, output)...)
	require.Equal(t, exitOK, code, stderr)

	assert.Equal(t, "repo_name,is_private,copilot_enabled,risk_level,url,created_at,updated_at\n", readFile(t, output))
	assert.Contains(t, stdout, "Total repositories found: 0")
	assert.Contains(t, stdout, "CRITICAL: 0")
	assert.NotContains(t, stdout, "IMPORTANT:")
	assert.Contains(t, stderr, "report has no rows")
}

func TestGitHubCmd_UnauthorizedWritesNoReport(t *testing.T) {
	isolateEnv(t)
	server := fakeGitHub(t, http.StatusUnauthorized, `{"message": "Bad credentials"}`, nil)
	output := outputPath(t, "audit.csv")

	_, stderr, code := runCLI(t, context.Background(), gitHubArgs(server, output)...)

	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "Bad credentials")
	assert.Contains(t, stderr, "Authentication failed")
	_, err := os.Stat(output)
	assert.True(t, os.IsNotExist(err), "no report may be written after a fatal error")
}

func TestGitHubCmd_OrganizationNotFound(t *testing.T) {
	isolateEnv(t)
	server := fakeGitHub(t, http.StatusNotFound, `{"message": "Not Found"}`, nil)
	output := outputPath(t, "audit.csv")

	_, stderr, code := runCLI(t, context.Background(), gitHubArgs(server, output)...)

	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "Check the organization, site or tenant name")
	_, err := os.Stat(output)
	assert.True(t, os.IsNotExist(err))
}

func TestGitHubCmd_MinRisk(t *testing.T) {
	isolateEnv(t)
	server := fakeGitHub(t, http.StatusOK, threeRepos, map[string]string{
		"acme/pub":  `{"enabled_for_org": true}`,
		"acme/priv": `{"enabled_for_repo": true}`,
	})
	output := outputPath(t, "critical.csv")

	_, stderr, code := runCLI(t, context.Background(), gitHubArgs(server, output, "--min-risk", "critical")...)
	require.Equal(t, exitOK, code, stderr)

	lines := strings.Split(strings.TrimSpace(readFile(t, output)), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "acme/pub,"))
}

func TestGitHubCmd_MissingToken(t *testing.T) {
	isolateEnv(t)

	_, stderr, code := runCLI(t, context.Background(), "github", "acme")

	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "Token is required (flag or GITHUB_TOKEN)")
}

func TestGitHubCmd_TokenFromEnv(t *testing.T) {
	isolateEnv(t)
	t.Setenv("GITHUB_TOKEN", "test-token")
	server := fakeGitHub(t, http.StatusOK, `[]`, nil)
	output := outputPath(t, "env.csv")

	_, stderr, code := runCLI(t, context.Background(),
		"github", "acme", "--api-url", server.URL+"/", "--output", output)
	require.Equal(t, exitOK, code, stderr)
}

func TestGitHubCmd_Interrupted(t *testing.T) {
	isolateEnv(t)
	server := fakeGitHub(t, http.StatusOK, threeRepos, nil)
	output := outputPath(t, "audit.csv")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, stderr, code := runCLI(t, ctx, gitHubArgs(server, output)...)

	assert.Equal(t, exitInterrupted, code)
	assert.Contains(t, stderr, "interrupted")
	_, err := os.Stat(output)
	assert.True(t, os.IsNotExist(err))
}

func TestGitHubRepoCmd(t *testing.T) {
	isolateEnv(t)
	server := fakeGitHub(t, http.StatusOK, `[]`, map[string]string{
		"acme/pub": `{"enabled_for_org": true}`,
	})
	output := outputPath(t, "repo.csv")

	stdout, stderr, code := runCLI(t, context.Background(),
		"github-repo", "acme/pub",
		"--token", "test-token",
		"--api-url", server.URL+"/",
		"--output", output,
		"--probe-interval", "1ms")
	require.Equal(t, exitOK, code, stderr)

	assert.Contains(t, readFile(t, output), "acme/pub,No,Yes,CRITICAL,https://github.com/acme/pub,,")
	assert.Contains(t, stdout, "[1/1] acme/pub Risk: CRITICAL")
}

func TestGitHubRepoCmd_DefaultReportName(t *testing.T) {
	isolateEnv(t)
	server := fakeGitHub(t, http.StatusOK, `[]`, nil)
	dir := t.TempDir()
	t.Chdir(dir)

	_, stderr, code := runCLI(t, context.Background(),
		"github-repo", "acme/pub",
		"--token", "test-token",
		"--api-url", server.URL+"/",
		"--probe-interval", "0")
	require.Equal(t, exitOK, code, stderr)

	matches, err := filepath.Glob(filepath.Join(dir, "github_copilot_audit_acme_pub_*.csv"))
	require.NoError(t, err)
	assert.Len(t, matches, 1)
}

func TestGitHubRepoCmd_InvalidName(t *testing.T) {
	isolateEnv(t)

	_, stderr, code := runCLI(t, context.Background(), "github-repo", "not-a-repo", "--token", "x")

	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "expected owner/name")
}

func TestGitHubRepoCmd_NotFound(t *testing.T) {
	isolateEnv(t)
	server := fakeGitHub(t, http.StatusOK, `[]`, nil)
	output := outputPath(t, "repo.csv")

	_, _, code := runCLI(t, context.Background(),
		"github-repo", "acme/missing",
		"--token", "test-token",
		"--api-url", server.URL+"/",
		"--output", output)

	assert.Equal(t, exitError, code)
	_, err := os.Stat(output)
	assert.True(t, os.IsNotExist(err))
}
