package serviceRepo

import "slotbook/models"

// ServiceRepository defines read access to the service catalogue.
// The booking core never mutates services.
type ServiceRepository interface {
	// GetByID retrieves a service by its unique ID. Returns (nil, nil) when
	// no service exists with that ID.
	GetByID(id string) (*models.Service, error)
	// GetActive retrieves all active services.
	GetActive() ([]models.Service, error)
}
