package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/labcita/scheduling/internal/domain/entities"
	"github.com/labcita/scheduling/internal/domain/repositories"
	"github.com/labcita/scheduling/internal/infrastructure/clients/postgres"
	apperrors "github.com/labcita/scheduling/pkg/errors"
)

// ServiceAdapter implements the ServiceRepository interface
type ServiceAdapter struct {
	client  *postgres.Client
	dialect goqu.DialectWrapper
}

// NewServiceAdapter creates a new service catalog adapter
func NewServiceAdapter(client *postgres.Client) repositories.ServiceRepository {
	return &ServiceAdapter{
		client:  client,
		dialect: goqu.Dialect("postgres"),
	}
}

// GetByID retrieves a service by ID
func (a *ServiceAdapter) GetByID(ctx context.Context, id string) (*entities.Service, error) {
	query, args, err := a.dialect.From("services").
		Select("id", "name", "default_step_minutes", "created_at", "updated_at").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	service := &entities.Service{}
	row := postgres.RunnerFrom(ctx, a.client.DB()).QueryRowContext(ctx, query, args...)
	err = row.Scan(
		&service.ID,
		&service.Name,
		&service.DefaultStepMinutes,
		&service.CreatedAt,
		&service.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("service with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get service", err)
	}
	return service, nil
}

// Create inserts a minimal service record
func (a *ServiceAdapter) Create(ctx context.Context, service *entities.Service) error {
	query, args, err := a.dialect.Insert("services").
		Rows(goqu.Record{
			"id":                   service.ID,
			"name":                 service.Name,
			"default_step_minutes": service.DefaultStepMinutes,
			"created_at":           service.CreatedAt,
			"updated_at":           service.UpdatedAt,
		}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = postgres.RunnerFrom(ctx, a.client.DB()).ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create service", err)
	}
	return nil
}

// LocationAdapter implements the LocationRepository interface
type LocationAdapter struct {
	client  *postgres.Client
	dialect goqu.DialectWrapper
}

// NewLocationAdapter creates a new location catalog adapter
func NewLocationAdapter(client *postgres.Client) repositories.LocationRepository {
	return &LocationAdapter{
		client:  client,
		dialect: goqu.Dialect("postgres"),
	}
}

// GetByID retrieves a location by ID
func (a *LocationAdapter) GetByID(ctx context.Context, id string) (*entities.Location, error) {
	query, args, err := a.dialect.From("locations").
		Select("id", "name", "created_at", "updated_at").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	location := &entities.Location{}
	row := postgres.RunnerFrom(ctx, a.client.DB()).QueryRowContext(ctx, query, args...)
	err = row.Scan(
		&location.ID,
		&location.Name,
		&location.CreatedAt,
		&location.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("location with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get location", err)
	}
	return location, nil
}

// Create inserts a minimal location record
func (a *LocationAdapter) Create(ctx context.Context, location *entities.Location) error {
	query, args, err := a.dialect.Insert("locations").
		Rows(goqu.Record{
			"id":         location.ID,
			"name":       location.Name,
			"created_at": location.CreatedAt,
			"updated_at": location.UpdatedAt,
		}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = postgres.RunnerFrom(ctx, a.client.DB()).ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create location", err)
	}
	return nil
}
