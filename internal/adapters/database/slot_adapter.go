package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/labcita/scheduling/internal/domain/entities"
	"github.com/labcita/scheduling/internal/domain/repositories"
	"github.com/labcita/scheduling/internal/infrastructure/clients/postgres"
	apperrors "github.com/labcita/scheduling/pkg/errors"
)

var slotColumns = []any{
	"id", "service_id", "location_id", "start_time", "end_time",
	"capacity", "reserved", "active", "created_at", "updated_at",
}

// SlotAdapter implements the SlotRepository interface
type SlotAdapter struct {
	client  *postgres.Client
	dialect goqu.DialectWrapper
}

// NewSlotAdapter creates a new slot adapter
func NewSlotAdapter(client *postgres.Client) repositories.SlotRepository {
	return &SlotAdapter{
		client:  client,
		dialect: goqu.Dialect("postgres"),
	}
}

// InsertNew inserts slots, skipping rows whose natural key already exists.
// The ON CONFLICT DO NOTHING targets the UNIQUE (service_id, location_id,
// start_time, end_time) constraint declared in scripts/schema.sql, keeping
// generation idempotent: existing rows keep their reserved counts and active
// flags, so re-running generation never resets reservations nor resurrects
// deactivated slots.
func (a *SlotAdapter) InsertNew(ctx context.Context, slots []*entities.Slot) (int, error) {
	if len(slots) == 0 {
		return 0, nil
	}

	records := make([]any, 0, len(slots))
	for _, slot := range slots {
		records = append(records, goqu.Record{
			"id":          slot.ID,
			"service_id":  slot.ServiceID,
			"location_id": slot.LocationID,
			"start_time":  slot.StartTime,
			"end_time":    slot.EndTime,
			"capacity":    slot.Capacity,
			"reserved":    slot.Reserved,
			"active":      slot.Active,
			"created_at":  slot.CreatedAt,
			"updated_at":  slot.UpdatedAt,
		})
	}

	query, args, err := a.dialect.Insert("slots").
		Rows(records...).
		OnConflict(goqu.DoNothing()).
		ToSQL()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to build insert query", err)
	}

	result, err := postgres.RunnerFrom(ctx, a.client.DB()).ExecContext(ctx, query, args...)
	if err != nil {
		return 0, apperrors.NewInternalError("failed to insert slots", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return 0, apperrors.NewInternalError("failed to get rows affected", err)
	}
	return int(inserted), nil
}

// GetByID retrieves a slot by ID
func (a *SlotAdapter) GetByID(ctx context.Context, id string) (*entities.Slot, error) {
	query, args, err := a.dialect.From("slots").
		Select(slotColumns...).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	slot := &entities.Slot{}
	row := postgres.RunnerFrom(ctx, a.client.DB()).QueryRowContext(ctx, query, args...)
	err = row.Scan(
		&slot.ID,
		&slot.ServiceID,
		&slot.LocationID,
		&slot.StartTime,
		&slot.EndTime,
		&slot.Capacity,
		&slot.Reserved,
		&slot.Active,
		&slot.CreatedAt,
		&slot.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("slot with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get slot", err)
	}
	return slot, nil
}

// List retrieves slots matching the filter, ordered by start time
func (a *SlotAdapter) List(ctx context.Context, filter repositories.SlotFilter) ([]*entities.Slot, error) {
	ds := a.dialect.From("slots").Select(slotColumns...)

	if filter.ServiceID != "" {
		ds = ds.Where(goqu.Ex{"service_id": filter.ServiceID})
	}
	if filter.LocationID != "" {
		ds = ds.Where(goqu.Ex{"location_id": filter.LocationID})
	}
	if filter.From != nil {
		ds = ds.Where(goqu.C("start_time").Gte(*filter.From))
	}
	if filter.To != nil {
		ds = ds.Where(goqu.C("start_time").Lt(*filter.To))
	}
	if filter.OnlyAvailable {
		ds = ds.Where(
			goqu.C("active").IsTrue(),
			goqu.C("start_time").Gt(time.Now()),
			goqu.L(`"reserved" < "capacity"`),
		)
	}

	ds = ds.Order(goqu.I("start_time").Asc())

	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}
	if filter.Offset > 0 {
		ds = ds.Offset(uint(filter.Offset))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := postgres.RunnerFrom(ctx, a.client.DB()).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list slots", err)
	}
	defer rows.Close()

	var slots []*entities.Slot
	for rows.Next() {
		slot := &entities.Slot{}
		err := rows.Scan(
			&slot.ID,
			&slot.ServiceID,
			&slot.LocationID,
			&slot.StartTime,
			&slot.EndTime,
			&slot.Capacity,
			&slot.Reserved,
			&slot.Active,
			&slot.CreatedAt,
			&slot.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan slot", err)
		}
		slots = append(slots, slot)
	}

	return slots, nil
}

// Reserve atomically takes one seat. The check-and-increment happens in a
// single conditional UPDATE so concurrent requests can never oversell the
// slot; the database, not an application lock, arbitrates the last seat.
func (a *SlotAdapter) Reserve(ctx context.Context, id string, now time.Time) (bool, error) {
	query, args, err := a.dialect.Update("slots").
		Set(goqu.Record{
			"reserved":   goqu.L(`"reserved" + 1`),
			"updated_at": now,
		}).
		Where(
			goqu.C("id").Eq(id),
			goqu.C("active").IsTrue(),
			goqu.C("start_time").Gt(now),
			goqu.L(`"reserved" < "capacity"`),
		).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build reserve query", err)
	}

	result, err := postgres.RunnerFrom(ctx, a.client.DB()).ExecContext(ctx, query, args...)
	if err != nil {
		return false, apperrors.NewInternalError("failed to reserve slot", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.NewInternalError("failed to get rows affected", err)
	}
	return rowsAffected == 1, nil
}

// Release gives one seat back, floored at zero so a double release can never
// drive the count negative
func (a *SlotAdapter) Release(ctx context.Context, id string) error {
	query, args, err := a.dialect.Update("slots").
		Set(goqu.Record{
			"reserved":   goqu.L(`GREATEST("reserved" - 1, 0)`),
			"updated_at": time.Now(),
		}).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build release query", err)
	}

	result, err := postgres.RunnerFrom(ctx, a.client.DB()).ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to release slot", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("slot with id %s not found", id))
	}
	return nil
}

// Deactivate soft-deletes a slot
func (a *SlotAdapter) Deactivate(ctx context.Context, id string) error {
	query, args, err := a.dialect.Update("slots").
		Set(goqu.Record{
			"active":     false,
			"updated_at": time.Now(),
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build deactivate query", err)
	}

	result, err := postgres.RunnerFrom(ctx, a.client.DB()).ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to deactivate slot", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("slot with id %s not found", id))
	}
	return nil
}

// Delete hard-deletes a slot
func (a *SlotAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.dialect.Delete("slots").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := postgres.RunnerFrom(ctx, a.client.DB()).ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete slot", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("slot with id %s not found", id))
	}
	return nil
}

// HasBookings reports whether any booking references the slot
func (a *SlotAdapter) HasBookings(ctx context.Context, id string) (bool, error) {
	query, args, err := a.dialect.From("bookings").
		Select(goqu.COUNT("*")).
		Where(goqu.Ex{"slot_id": id}).
		ToSQL()
	if err != nil {
		return false, apperrors.NewInternalError("failed to build query", err)
	}

	var count int
	row := postgres.RunnerFrom(ctx, a.client.DB()).QueryRowContext(ctx, query, args...)
	if err := row.Scan(&count); err != nil {
		return false, apperrors.NewInternalError("failed to count bookings", err)
	}
	return count > 0, nil
}
