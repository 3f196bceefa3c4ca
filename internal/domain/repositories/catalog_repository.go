package repositories

import (
	"context"

	"github.com/labcita/scheduling/internal/domain/entities"
)

// ServiceRepository defines read access to the service catalog. Create exists
// only for the explicit auto-provisioning opt-in of the slot generator.
type ServiceRepository interface {
	// GetByID retrieves a service by ID
	GetByID(ctx context.Context, id string) (*entities.Service, error)

	// Create inserts a minimal service record
	Create(ctx context.Context, service *entities.Service) error
}

// LocationRepository defines read access to the location catalog
type LocationRepository interface {
	// GetByID retrieves a location by ID
	GetByID(ctx context.Context, id string) (*entities.Location, error)

	// Create inserts a minimal location record
	Create(ctx context.Context, location *entities.Location) error
}
