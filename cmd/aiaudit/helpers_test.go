package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ochairo/aiaudit/internal/config"
	"github.com/ochairo/aiaudit/internal/external-adapters/report"
)

// isolateEnv clears credential and CI variables so tests never pick up
// the developer's environment
func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		config.EnvGitHubToken,
		config.EnvAtlassianEmail,
		config.EnvAtlassianAPIToken,
		config.EnvAzureTenantID,
		config.EnvAzureClientID,
		config.EnvAzureClientSecret,
		config.EnvSigningPassphrase,
		config.EnvCopilotSKU,
		report.StepSummaryEnv,
	} {
		t.Setenv(key, "")
	}
}

// runCLI executes the CLI with args and returns stdout, stderr and the
// exit code
func runCLI(t *testing.T, ctx context.Context, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := execute(ctx, args, &stdout, &stderr)
	return stdout.String(), stderr.String(), code
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func outputPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), name)
}
