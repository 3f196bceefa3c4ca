package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/labcita/scheduling/internal/domain/entities"
	"github.com/labcita/scheduling/internal/domain/providers"
	"github.com/labcita/scheduling/internal/domain/repositories"
)

// Cache TTLs (in seconds). Catalog rows change through admin tooling only, so
// a few minutes of staleness is acceptable for display metadata. Reserved
// counts are never cached.
const catalogTTL = 300

func serviceCacheKey(id string) string {
	return fmt.Sprintf("service:%s", id)
}

func locationCacheKey(id string) string {
	return fmt.Sprintf("location:%s", id)
}

// CachedServiceAdapter wraps a ServiceRepository with caching
type CachedServiceAdapter struct {
	adapter repositories.ServiceRepository
	cache   providers.CacheProvider
}

// NewCachedServiceAdapter creates a new cached service adapter
func NewCachedServiceAdapter(adapter repositories.ServiceRepository, cache providers.CacheProvider) repositories.ServiceRepository {
	return &CachedServiceAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

// GetByID retrieves a service by ID with caching
func (a *CachedServiceAdapter) GetByID(ctx context.Context, id string) (*entities.Service, error) {
	cacheKey := serviceCacheKey(id)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var service entities.Service
		if err := json.Unmarshal(cached, &service); err == nil {
			return &service, nil
		}
		log.Printf("Failed to unmarshal cached service %s: %v", id, err)
	}

	service, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Update cache asynchronously to avoid blocking the response
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(service); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, catalogTTL); err != nil {
				log.Printf("Failed to cache service %s: %v", id, err)
			}
		}
	}()

	return service, nil
}

// Create inserts a service and invalidates its cache entry
func (a *CachedServiceAdapter) Create(ctx context.Context, service *entities.Service) error {
	if err := a.adapter.Create(ctx, service); err != nil {
		return err
	}
	if err := a.cache.Delete(ctx, serviceCacheKey(service.ID)); err != nil {
		log.Printf("Failed to invalidate cached service %s: %v", service.ID, err)
	}
	return nil
}

// CachedLocationAdapter wraps a LocationRepository with caching
type CachedLocationAdapter struct {
	adapter repositories.LocationRepository
	cache   providers.CacheProvider
}

// NewCachedLocationAdapter creates a new cached location adapter
func NewCachedLocationAdapter(adapter repositories.LocationRepository, cache providers.CacheProvider) repositories.LocationRepository {
	return &CachedLocationAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

// GetByID retrieves a location by ID with caching
func (a *CachedLocationAdapter) GetByID(ctx context.Context, id string) (*entities.Location, error) {
	cacheKey := locationCacheKey(id)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var location entities.Location
		if err := json.Unmarshal(cached, &location); err == nil {
			return &location, nil
		}
		log.Printf("Failed to unmarshal cached location %s: %v", id, err)
	}

	location, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(location); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, catalogTTL); err != nil {
				log.Printf("Failed to cache location %s: %v", id, err)
			}
		}
	}()

	return location, nil
}

// Create inserts a location and invalidates its cache entry
func (a *CachedLocationAdapter) Create(ctx context.Context, location *entities.Location) error {
	if err := a.adapter.Create(ctx, location); err != nil {
		return err
	}
	if err := a.cache.Delete(ctx, locationCacheKey(location.ID)); err != nil {
		log.Printf("Failed to invalidate cached location %s: %v", location.ID, err)
	}
	return nil
}
