package gateways

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/go-github/v53/github"
	"golang.org/x/oauth2"

	"github.com/ochairo/aiaudit/internal/domain/entities"
)

const userAgent = "aiaudit/1.0"

// transportError converts a failed round trip into a domain error. A
// canceled context is returned unchanged so callers can tell interrupts
// from failures; failed token exchanges count as authentication errors.
func transportError(ctx context.Context, op string, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		status := 401
		if retrieveErr.Response != nil && retrieveErr.Response.StatusCode == 403 {
			status = 403
		}
		return entities.NewStatusError(op, status, err)
	}

	return entities.NewTransportError(op, err)
}

// gitHubError converts a go-github error into a domain error
func gitHubError(ctx context.Context, op string, err error) error {
	if status := gitHubStatus(err); status > 0 {
		return entities.NewStatusError(op, status, errors.New(gitHubMessage(err)))
	}
	return transportError(ctx, op, err)
}

// gitHubStatus extracts the HTTP status carried by a go-github error
func gitHubStatus(err error) int {
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) && rateErr.Response != nil {
		return rateErr.Response.StatusCode
	}

	var abuseErr *github.AbuseRateLimitError
	if errors.As(err, &abuseErr) && abuseErr.Response != nil {
		return abuseErr.Response.StatusCode
	}

	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		return respErr.Response.StatusCode
	}

	return 0
}

func gitHubMessage(err error) string {
	var respErr *github.ErrorResponse
	if errors.As(err, &respErr) && respErr.Message != "" {
		return respErr.Message
	}
	var rateErr *github.RateLimitError
	if errors.As(err, &rateErr) && rateErr.Message != "" {
		return rateErr.Message
	}
	return err.Error()
}

// apiMessage extracts a human-readable message from an error body.
// GitHub and Jira use {"message": ...}; Graph uses {"error": {"message": ...}}.
func apiMessage(body []byte) error {
	var payload struct {
		Message string `json:"message"`
		Error   *struct {
			Message string `json:"message"`
		} `json:"error"`
		ErrorMessages []string `json:"errorMessages"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Message != "":
			return errors.New(payload.Message)
		case payload.Error != nil && payload.Error.Message != "":
			return errors.New(payload.Error.Message)
		case len(payload.ErrorMessages) > 0:
			return errors.New(strings.Join(payload.ErrorMessages, "; "))
		}
	}

	text := strings.TrimSpace(string(body))
	if text == "" {
		return nil
	}
	return errors.New(text)
}
