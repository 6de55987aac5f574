// Package repositories defines interfaces for data access layers.
package repositories

import (
	"context"

	"github.com/ochairo/aiaudit/internal/domain/entities"
)

// ProfileRepository defines the interface for accessing provider profiles
type ProfileRepository interface {
	// GetProfile retrieves a provider profile by name
	GetProfile(ctx context.Context, name string) (*entities.Profile, error)

	// ListProfiles returns all available provider profiles sorted by name
	ListProfiles(ctx context.Context) ([]*entities.Profile, error)
}
