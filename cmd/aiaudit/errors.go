package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/ochairo/aiaudit/internal/domain/entities"
)

// Process exit codes
const (
	exitOK          = 0
	exitError       = 1
	exitInterrupted = 130
)

// reportError prints err for the user and returns the exit code
func reportError(ctx context.Context, w io.Writer, err error) int {
	if err == nil {
		return exitOK
	}

	if interrupted(ctx, err) {
		fmt.Fprintln(w, "\nAudit interrupted. No report was written.")
		return exitInterrupted
	}

	fmt.Fprintf(w, "Error: %v\n", err)
	if hint := errorHint(err); hint != "" {
		fmt.Fprintf(w, "  %s\n", hint)
	}
	return exitError
}

func interrupted(ctx context.Context, err error) bool {
	return ctx.Err() != nil && errors.Is(err, context.Canceled)
}

// errorHint suggests a fix for fatal API errors
func errorHint(err error) string {
	switch {
	case errors.Is(err, entities.ErrUnauthorized):
		return "Authentication failed. Check the token, API token or client secret."
	case errors.Is(err, entities.ErrForbidden):
		return "Access forbidden. Check token permissions, admin consent and rate limits."
	case errors.Is(err, entities.ErrNotFound):
		return "Not found. Check the organization, site or tenant name."
	default:
		return ""
	}
}
