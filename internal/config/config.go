// Package config holds validated run settings and credential lookup.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Environment variables read when the matching flag is empty
const (
	EnvGitHubToken       = "GITHUB_TOKEN"
	EnvAtlassianEmail    = "ATLASSIAN_EMAIL"
	EnvAtlassianAPIToken = "ATLASSIAN_API_TOKEN"
	EnvAzureTenantID     = "AZURE_TENANT_ID"
	EnvAzureClientID     = "AZURE_CLIENT_ID"
	EnvAzureClientSecret = "AZURE_CLIENT_SECRET"
	EnvSigningPassphrase = "AIAUDIT_SIGNING_PASSPHRASE"
	EnvCopilotSKU        = "AIAUDIT_COPILOT_SKU"
)

// DefaultTimeout bounds every HTTP request
const DefaultTimeout = 30 * time.Second

const reportTimestampFormat = "20060102_150405"

var (
	validate = newValidator()

	scopePattern    = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)
	filenameUnsafe  = regexp.MustCompile(`[^A-Za-z0-9_-]+`)
	repoNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("scope", func(fl validator.FieldLevel) bool {
		return scopePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("reponame", func(fl validator.FieldLevel) bool {
		return repoNamePattern.MatchString(fl.Field().String())
	})
	return v
}

// Run holds the settings shared by every audit command
type Run struct {
	Profile       string        `validate:"required"`
	Scope         string        `validate:"required,scope"`
	Output        string        `validate:"omitempty"`
	APIURL        string        `validate:"omitempty,url"`
	MinRisk       string        `validate:"omitempty,oneof=low medium high critical LOW MEDIUM HIGH CRITICAL"`
	MetricsFile   string        `validate:"omitempty"`
	SignKey       string        `validate:"omitempty,file"`
	MaxItems      int           `validate:"gte=0"`
	ProbeInterval time.Duration `validate:"gte=0"`
	Timeout       time.Duration `validate:"gte=0"`
	LogLevel      string        `validate:"omitempty,oneof=debug info warn warning error"`
	LogFormat     string        `validate:"omitempty,oneof=text json"`
}

// Validate checks the run settings
func (r *Run) Validate() error {
	return validationError(validate.Struct(r))
}

// ReportPath returns the configured output path or the default name
// <tool>_<scope>_<YYYYMMDD_HHMMSS>.csv in the working directory. An empty
// scope falls back to the run scope.
func (r *Run) ReportPath(tool, scope string, now time.Time) string {
	if r.Output != "" {
		return r.Output
	}
	if scope == "" {
		scope = r.Scope
	}
	return DefaultReportName(tool, scope, now)
}

// HTTPTimeout returns the request timeout, defaulting to DefaultTimeout
func (r *Run) HTTPTimeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return DefaultTimeout
}

// DefaultReportName builds a report filename. Characters other than
// letters, digits, '-' and '_' in the scope become '_'.
func DefaultReportName(tool, scope string, now time.Time) string {
	safe := filenameUnsafe.ReplaceAllString(scope, "_")
	return filepath.Clean(fmt.Sprintf("%s_%s_%s.csv", tool, safe, now.Format(reportTimestampFormat)))
}

// NormalizeScope trims whitespace, a URL scheme and trailing slashes, so
// "https://acme.atlassian.net/" and "acme.atlassian.net" are the same site
func NormalizeScope(scope string) string {
	scope = strings.TrimSpace(scope)
	scope = strings.TrimPrefix(scope, "https://")
	scope = strings.TrimPrefix(scope, "http://")
	return strings.TrimRight(scope, "/")
}

// ResolveBaseURL substitutes {scope} in a profile base URL. A non-empty
// override wins, e.g. a GitHub Enterprise Server API root.
func ResolveBaseURL(profileURL, scope, override string) (string, error) {
	base := profileURL
	if override != "" {
		base = override
	}
	base = strings.ReplaceAll(base, "{scope}", scope)
	if base == "" {
		return "", errors.New("no API base URL configured")
	}
	return base, nil
}

// Env returns value when set, otherwise the named environment variable
func Env(value, key string) string {
	if value != "" {
		return value
	}
	return os.Getenv(key)
}

// GitHubCredentials authenticate against the GitHub REST API
type GitHubCredentials struct {
	Token string `validate:"required"`
}

// Validate checks the credentials
func (c GitHubCredentials) Validate() error {
	return validationError(validate.Struct(c))
}

// AtlassianCredentials authenticate against Atlassian Cloud
type AtlassianCredentials struct {
	Email    string `validate:"required,email"`
	APIToken string `validate:"required"`
}

// Validate checks the credentials
func (c AtlassianCredentials) Validate() error {
	return validationError(validate.Struct(c))
}

// M365Credentials identify an Entra ID app registration
type M365Credentials struct {
	TenantID     string `validate:"required"`
	ClientID     string `validate:"required"`
	ClientSecret string `validate:"required"`
}

// Validate checks the credentials
func (c M365Credentials) Validate() error {
	return validationError(validate.Struct(c))
}

// ValidateRepoName checks an owner/name repository reference
func ValidateRepoName(name string) error {
	if err := validate.Var(name, "required,reponame"); err != nil {
		return fmt.Errorf("invalid repository %q: expected owner/name", name)
	}
	return nil
}

// validationError turns validator output into one readable error naming
// each failing field
func validationError(err error) error {
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fieldMessage(fe))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, "; "))
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		if hint, ok := envHints[fe.StructNamespace()]; ok {
			return fmt.Sprintf("%s is required (flag or %s)", field, hint)
		}
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, fe.Param())
	case "email":
		return field + " must be an email address"
	case "url":
		return field + " must be an absolute URL"
	case "file":
		return fmt.Sprintf("%s %q does not exist", field, fe.Value())
	case "scope":
		return fmt.Sprintf("%s %q is not a valid identifier", field, fe.Value())
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

var envHints = map[string]string{
	"GitHubCredentials.Token":       EnvGitHubToken,
	"AtlassianCredentials.Email":    EnvAtlassianEmail,
	"AtlassianCredentials.APIToken": EnvAtlassianAPIToken,
	"M365Credentials.TenantID":      EnvAzureTenantID,
	"M365Credentials.ClientID":      EnvAzureClientID,
	"M365Credentials.ClientSecret":  EnvAzureClientSecret,
}
