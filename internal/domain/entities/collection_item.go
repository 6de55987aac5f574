// Package entities defines core domain models and data structures.
package entities

import "time"

// CollectionItem represents one unit under audit: a repository, a user,
// an installed app or a collaboration site
type CollectionItem struct {
	Identifier  string // Unique within the collection (e.g., "org/repo", user id, app key)
	DisplayName string
	Sensitive   bool   // Private or internal asset
	ExternalURL string // Optional
	Metadata    ItemMetadata
}

// ItemMetadata carries item-type-specific optional attributes
type ItemMetadata struct {
	Key          string
	Vendor       string
	Email        string
	Status       string
	LicenseCount *int     // nil when the source does not expose licenses
	LicenseSKUs  []string // SKU ids of assigned licenses, in source order
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Name returns the display name, falling back to the identifier
func (i CollectionItem) Name() string {
	if i.DisplayName != "" {
		return i.DisplayName
	}
	return i.Identifier
}
