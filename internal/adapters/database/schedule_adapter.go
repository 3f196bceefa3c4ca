package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/labcita/scheduling/internal/domain/entities"
	"github.com/labcita/scheduling/internal/domain/repositories"
	"github.com/labcita/scheduling/internal/infrastructure/clients/postgres"
	apperrors "github.com/labcita/scheduling/pkg/errors"
)

// ScheduleAdapter implements the ScheduleRepository interface. Weekly
// templates are stored as one JSON document per service/location pair; the
// pair with empty IDs holds the global default template.
type ScheduleAdapter struct {
	client  *postgres.Client
	dialect goqu.DialectWrapper
}

// NewScheduleAdapter creates a new schedule adapter
func NewScheduleAdapter(client *postgres.Client) repositories.ScheduleRepository {
	return &ScheduleAdapter{
		client:  client,
		dialect: goqu.Dialect("postgres"),
	}
}

// SaveWeeklyTemplate upserts the template for a service/location pair
func (a *ScheduleAdapter) SaveWeeklyTemplate(ctx context.Context, serviceID, locationID string, template *entities.WeeklyTemplate) error {
	payload, err := json.Marshal(template)
	if err != nil {
		return apperrors.NewInternalError("failed to marshal template", err)
	}

	now := time.Now()
	query, args, err := a.dialect.Insert("weekly_templates").
		Rows(goqu.Record{
			"service_id":  serviceID,
			"location_id": locationID,
			"template":    string(payload),
			"created_at":  now,
			"updated_at":  now,
		}).
		OnConflict(goqu.DoUpdate(
			"service_id, location_id",
			goqu.Record{
				"template":   string(payload),
				"updated_at": now,
			},
		)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	_, err = postgres.RunnerFrom(ctx, a.client.DB()).ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to save weekly template", err)
	}
	return nil
}

// GetWeeklyTemplate retrieves the template for a service/location pair, or
// nil when none is persisted
func (a *ScheduleAdapter) GetWeeklyTemplate(ctx context.Context, serviceID, locationID string) (*entities.WeeklyTemplate, error) {
	query, args, err := a.dialect.From("weekly_templates").
		Select("template").
		Where(goqu.Ex{
			"service_id":  serviceID,
			"location_id": locationID,
		}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	var payload string
	row := postgres.RunnerFrom(ctx, a.client.DB()).QueryRowContext(ctx, query, args...)
	err = row.Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get weekly template", err)
	}

	template := &entities.WeeklyTemplate{}
	if err := json.Unmarshal([]byte(payload), template); err != nil {
		return nil, apperrors.NewInternalError("failed to unmarshal template", err)
	}
	return template, nil
}

// UpsertHoliday inserts or updates a holiday entry by date
func (a *ScheduleAdapter) UpsertHoliday(ctx context.Context, entry *entities.HolidayEntry) error {
	now := time.Now()
	query, args, err := a.dialect.Insert("holidays").
		Rows(goqu.Record{
			"date":       entry.Date,
			"label":      entry.Label,
			"scope":      entry.Scope,
			"created_at": now,
			"updated_at": now,
		}).
		OnConflict(goqu.DoUpdate(
			"date",
			goqu.Record{
				"label":      entry.Label,
				"scope":      entry.Scope,
				"updated_at": now,
			},
		)).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	_, err = postgres.RunnerFrom(ctx, a.client.DB()).ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to upsert holiday", err)
	}
	return nil
}

// ListHolidays retrieves holiday entries with dates in [from, to]
func (a *ScheduleAdapter) ListHolidays(ctx context.Context, from, to string) ([]*entities.HolidayEntry, error) {
	query, args, err := a.dialect.From("holidays").
		Select("date", "label", "scope", "created_at", "updated_at").
		Where(
			goqu.C("date").Gte(from),
			goqu.C("date").Lte(to),
		).
		Order(goqu.I("date").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := postgres.RunnerFrom(ctx, a.client.DB()).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list holidays", err)
	}
	defer rows.Close()

	var entries []*entities.HolidayEntry
	for rows.Next() {
		entry := &entities.HolidayEntry{}
		err := rows.Scan(
			&entry.Date,
			&entry.Label,
			&entry.Scope,
			&entry.CreatedAt,
			&entry.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan holiday", err)
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
