package providerRepo

import "slotbook/models"

// ProviderRepository defines read access to provider records.
// The booking core never mutates providers.
type ProviderRepository interface {
	// GetByID retrieves a provider by its unique ID. Returns (nil, nil) when
	// no provider exists with that ID.
	GetByID(id string) (*models.Provider, error)
	// GetByIDs retrieves the providers matching the given IDs, skipping any
	// that do not exist.
	GetByIDs(ids []string) ([]models.Provider, error)
}
