package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ochairo/aiaudit/internal/domain/entities"
)

func TestReportError(t *testing.T) {
	canceled, cancel := context.WithCancel(context.Background())
	cancel()

	tests := []struct {
		name     string
		ctx      context.Context
		err      error
		wantCode int
		wantText string
	}{
		{"success", context.Background(), nil, exitOK, ""},
		{"unauthorized", context.Background(),
			fmt.Errorf("failed to fetch: %w", entities.NewStatusError("list", 401, errors.New("Bad credentials"))),
			exitError, "Authentication failed"},
		{"forbidden", context.Background(), entities.NewStatusError("list", 403, nil), exitError, "Access forbidden"},
		{"not found", context.Background(), entities.NewStatusError("list", 404, nil), exitError, "Not found"},
		{"other", context.Background(), errors.New("boom"), exitError, "Error: boom"},
		{"interrupted", canceled, fmt.Errorf("probe: %w", context.Canceled), exitInterrupted, "interrupted"},
		{"canceled without signal", context.Background(), context.Canceled, exitError, "Error: context canceled"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			code := reportError(tt.ctx, &buf, tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Contains(t, buf.String(), tt.wantText)
		})
	}
}
