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

var bookingColumns = []any{
	"id", "slot_id", "patient_id", "status", "notes", "cancel_reason",
	"created_at", "updated_at",
}

// BookingAdapter implements the BookingRepository interface
type BookingAdapter struct {
	client  *postgres.Client
	dialect goqu.DialectWrapper
}

// NewBookingAdapter creates a new booking adapter
func NewBookingAdapter(client *postgres.Client) repositories.BookingRepository {
	return &BookingAdapter{
		client:  client,
		dialect: goqu.Dialect("postgres"),
	}
}

// Create inserts a new booking
func (a *BookingAdapter) Create(ctx context.Context, booking *entities.Booking) error {
	record := goqu.Record{
		"id":            booking.ID,
		"slot_id":       booking.SlotID,
		"patient_id":    booking.PatientID,
		"status":        booking.Status,
		"notes":         booking.Notes,
		"cancel_reason": booking.CancelReason,
		"created_at":    booking.CreatedAt,
		"updated_at":    booking.UpdatedAt,
	}

	query, args, err := a.dialect.Insert("bookings").Rows(record).ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build insert query", err)
	}

	_, err = postgres.RunnerFrom(ctx, a.client.DB()).ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to create booking", err)
	}
	return nil
}

// GetByID retrieves a booking by ID
func (a *BookingAdapter) GetByID(ctx context.Context, id string) (*entities.Booking, error) {
	query, args, err := a.dialect.From("bookings").
		Select(bookingColumns...).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	row := postgres.RunnerFrom(ctx, a.client.DB()).QueryRowContext(ctx, query, args...)
	booking, err := scanBooking(row.Scan)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("booking with id %s not found", id))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get booking", err)
	}
	return booking, nil
}

// UpdateStatus sets the booking status and optional cancellation reason
func (a *BookingAdapter) UpdateStatus(ctx context.Context, id string, status entities.BookingStatus, cancelReason *string) error {
	record := goqu.Record{
		"status":     status,
		"updated_at": time.Now(),
	}
	if cancelReason != nil {
		record["cancel_reason"] = *cancelReason
	}

	query, args, err := a.dialect.Update("bookings").
		Set(record).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := postgres.RunnerFrom(ctx, a.client.DB()).ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update booking status", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("booking with id %s not found", id))
	}
	return nil
}

// UpdateSlot moves the booking to a different slot
func (a *BookingAdapter) UpdateSlot(ctx context.Context, id string, slotID string) error {
	query, args, err := a.dialect.Update("bookings").
		Set(goqu.Record{
			"slot_id":    slotID,
			"updated_at": time.Now(),
		}).
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build update query", err)
	}

	result, err := postgres.RunnerFrom(ctx, a.client.DB()).ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to update booking slot", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}
	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("booking with id %s not found", id))
	}
	return nil
}

// FindOverlapping returns the first non-cancelled booking of the patient
// whose slot overlaps [start, end) on the same calendar date. The day bounds
// are civil-calendar bounds in the slot's own time zone.
func (a *BookingAdapter) FindOverlapping(ctx context.Context, patientID string, start, end time.Time, excludeBookingID string) (*repositories.BookingConflict, error) {
	dayStart := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	ds := a.dialect.From(goqu.T("bookings").As("b")).
		Join(
			goqu.T("slots").As("s"),
			goqu.On(goqu.I("s.id").Eq(goqu.I("b.slot_id"))),
		).
		LeftJoin(
			goqu.T("services").As("sv"),
			goqu.On(goqu.I("sv.id").Eq(goqu.I("s.service_id"))),
		).
		Select(
			goqu.I("b.id"),
			goqu.I("b.slot_id"),
			goqu.I("sv.name"),
			goqu.I("s.start_time"),
			goqu.I("s.end_time"),
		).
		Where(
			goqu.I("b.patient_id").Eq(patientID),
			goqu.I("b.status").Neq(entities.BookingStatusCancelled),
			goqu.I("s.start_time").Lt(end),
			goqu.I("s.end_time").Gt(start),
			goqu.I("s.start_time").Gte(dayStart),
			goqu.I("s.start_time").Lt(dayEnd),
		).
		Order(goqu.I("s.start_time").Asc()).
		Limit(1)

	if excludeBookingID != "" {
		ds = ds.Where(goqu.I("b.id").Neq(excludeBookingID))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build overlap query", err)
	}

	conflict := &repositories.BookingConflict{}
	var serviceName sql.NullString
	row := postgres.RunnerFrom(ctx, a.client.DB()).QueryRowContext(ctx, query, args...)
	err = row.Scan(
		&conflict.BookingID,
		&conflict.SlotID,
		&serviceName,
		&conflict.StartTime,
		&conflict.EndTime,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to find overlapping bookings", err)
	}
	conflict.ServiceName = serviceName.String

	return conflict, nil
}

// ListByPatient retrieves bookings for a patient
func (a *BookingAdapter) ListByPatient(ctx context.Context, patientID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	ds := a.dialect.From("bookings").
		Select(bookingColumns...).
		Where(goqu.Ex{"patient_id": patientID})

	if filter.Status != "" {
		ds = ds.Where(goqu.Ex{"status": filter.Status})
	}
	if filter.From != nil {
		ds = ds.Where(goqu.C("created_at").Gte(*filter.From))
	}
	if filter.To != nil {
		ds = ds.Where(goqu.C("created_at").Lte(*filter.To))
	}

	ds = ds.Order(goqu.I("created_at").Desc())

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
		return nil, apperrors.NewInternalError("failed to list bookings", err)
	}
	defer rows.Close()

	var bookings []*entities.Booking
	for rows.Next() {
		booking, err := scanBooking(rows.Scan)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan booking", err)
		}
		bookings = append(bookings, booking)
	}

	return bookings, nil
}

func scanBooking(scan func(dest ...any) error) (*entities.Booking, error) {
	booking := &entities.Booking{}
	var notes, cancelReason sql.NullString

	err := scan(
		&booking.ID,
		&booking.SlotID,
		&booking.PatientID,
		&booking.Status,
		&notes,
		&cancelReason,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	booking.Notes = notes.String
	if cancelReason.Valid {
		booking.CancelReason = &cancelReason.String
	}
	return booking, nil
}
