package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/labcita/scheduling/internal/domain/entities"
	"github.com/labcita/scheduling/internal/domain/providers"
	"github.com/labcita/scheduling/internal/domain/repositories"
	"github.com/labcita/scheduling/internal/infrastructure/observability"
	"github.com/labcita/scheduling/pkg/config"
	apperrors "github.com/labcita/scheduling/pkg/errors"
	"github.com/labcita/scheduling/pkg/retry"
)

// CreateBookingRequest describes a booking attempt against one slot
type CreateBookingRequest struct {
	SlotID    string
	PatientID string
	Notes     string
}

// BookingService runs every booking mutation inside a serializable
// transaction so the slot's capacity ledger and the booking rows can never
// disagree. Domain events are published after commit, best-effort.
type BookingService struct {
	bookingRepo repositories.BookingRepository
	slotRepo    repositories.SlotRepository
	txManager   repositories.TxManager
	eventBus    providers.EventBus
	metrics     *observability.Metrics
	cfg         config.SchedulingConfig
}

// NewBookingService creates a new booking service. eventBus and metrics may
// be nil; events and metrics are then skipped.
func NewBookingService(
	bookingRepo repositories.BookingRepository,
	slotRepo repositories.SlotRepository,
	txManager repositories.TxManager,
	eventBus providers.EventBus,
	metrics *observability.Metrics,
	cfg config.SchedulingConfig,
) *BookingService {
	return &BookingService{
		bookingRepo: bookingRepo,
		slotRepo:    slotRepo,
		txManager:   txManager,
		eventBus:    eventBus,
		metrics:     metrics,
		cfg:         cfg,
	}
}

// Create books a seat on a slot for a patient. The seat is taken with a
// conditional increment on the slot row, so two concurrent requests for the
// last seat cannot both succeed. Serialization aborts are retried a bounded
// number of times; every other failure is returned as-is.
func (s *BookingService) Create(ctx context.Context, req CreateBookingRequest) (*entities.Booking, error) {
	if req.SlotID == "" {
		return nil, apperrors.NewValidationError("slot_id is required")
	}
	if req.PatientID == "" {
		return nil, apperrors.NewValidationError("patient_id is required")
	}

	var booking *entities.Booking
	attempt := func() error {
		return s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
			b, err := s.createInTx(txCtx, req)
			if err != nil {
				return err
			}
			booking = b
			return nil
		})
	}

	retryCfg := retry.Config{
		MaxAttempts:   s.cfg.CreateRetryAttempts,
		InitialDelay:  10 * time.Millisecond,
		MaxDelay:      100 * time.Millisecond,
		BackoffFactor: 2.0,
	}
	if err := retry.DoIf(ctx, retryCfg, attempt, apperrors.IsTransient); err != nil {
		return nil, err
	}

	s.recordOp(ctx, "create")
	s.publish(ctx, entities.NewBookingEvent(entities.BookingEventTypeCreated, booking.ID, booking.SlotID, booking.PatientID))
	return booking, nil
}

func (s *BookingService) createInTx(ctx context.Context, req CreateBookingRequest) (*entities.Booking, error) {
	slot, err := s.slotRepo.GetByID(ctx, req.SlotID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if !slot.Active {
		return nil, apperrors.NewSchedulingError(apperrors.ErrorTypeSlotInactive,
			fmt.Sprintf("slot %s is no longer offered", slot.ID))
	}
	if !slot.StartTime.After(now) {
		return nil, apperrors.NewSchedulingError(apperrors.ErrorTypeSlotInPast,
			fmt.Sprintf("slot %s already started", slot.ID))
	}

	if err := s.checkConflict(ctx, req.PatientID, slot, ""); err != nil {
		return nil, err
	}

	reserved, err := s.slotRepo.Reserve(ctx, slot.ID, now)
	if err != nil {
		return nil, err
	}
	if !reserved {
		return nil, apperrors.NewSchedulingError(apperrors.ErrorTypeSlotFull,
			fmt.Sprintf("slot %s has no remaining capacity", slot.ID))
	}

	booking := &entities.Booking{
		ID:        uuid.New().String(),
		SlotID:    slot.ID,
		PatientID: req.PatientID,
		Status:    entities.BookingStatusScheduled,
		Notes:     req.Notes,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.bookingRepo.Create(ctx, booking); err != nil {
		return nil, err
	}
	return booking, nil
}

// Cancel cancels a booking and returns its seat to the slot. actor is who
// requested the cancellation; it is logged for the audit trail.
func (s *BookingService) Cancel(ctx context.Context, bookingID, reason, actor string) (*entities.Booking, error) {
	var booking *entities.Booking
	err := s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		b, err := s.bookingRepo.GetByID(txCtx, bookingID)
		if err != nil {
			return err
		}
		if b.IsTerminal() {
			return apperrors.NewSchedulingError(apperrors.ErrorTypeAlreadyCancelled,
				fmt.Sprintf("booking %s is already %s", b.ID, b.Status))
		}

		slot, err := s.slotRepo.GetByID(txCtx, b.SlotID)
		if err != nil {
			return err
		}
		if !slot.StartTime.After(time.Now()) {
			return apperrors.NewSchedulingError(apperrors.ErrorTypeBookingInPast,
				fmt.Sprintf("booking %s already started, it cannot be cancelled", b.ID))
		}

		var cancelReason *string
		if reason != "" {
			cancelReason = &reason
		}
		if err := s.bookingRepo.UpdateStatus(txCtx, b.ID, entities.BookingStatusCancelled, cancelReason); err != nil {
			return err
		}
		if err := s.slotRepo.Release(txCtx, b.SlotID); err != nil {
			return err
		}

		b.Status = entities.BookingStatusCancelled
		b.CancelReason = cancelReason
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	observability.LoggerFromContext(ctx).Info().
		Str("booking_id", booking.ID).
		Str("actor", actor).
		Str("reason", reason).
		Msg("Booking cancelled")

	s.recordOp(ctx, "cancel")
	s.publish(ctx, entities.NewBookingEvent(entities.BookingEventTypeCancelled, booking.ID, booking.SlotID, booking.PatientID))
	return booking, nil
}

// Reschedule moves a booking to a different slot. The new seat is taken
// before the old one is released, inside one transaction, so the patient
// never loses both.
func (s *BookingService) Reschedule(ctx context.Context, bookingID, newSlotID string) (*entities.Booking, error) {
	if newSlotID == "" {
		return nil, apperrors.NewValidationError("new_slot_id is required")
	}

	var booking *entities.Booking
	err := s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		b, err := s.bookingRepo.GetByID(txCtx, bookingID)
		if err != nil {
			return err
		}
		if b.IsTerminal() {
			return apperrors.NewSchedulingError(apperrors.ErrorTypeAlreadyCancelled,
				fmt.Sprintf("booking %s is already %s", b.ID, b.Status))
		}
		if b.SlotID == newSlotID {
			return apperrors.NewValidationError("booking already holds that slot")
		}

		newSlot, err := s.slotRepo.GetByID(txCtx, newSlotID)
		if err != nil {
			return err
		}

		now := time.Now()
		if !newSlot.Active {
			return apperrors.NewSchedulingError(apperrors.ErrorTypeSlotInactive,
				fmt.Sprintf("slot %s is no longer offered", newSlot.ID))
		}
		if !newSlot.StartTime.After(now) {
			return apperrors.NewSchedulingError(apperrors.ErrorTypeSlotInPast,
				fmt.Sprintf("slot %s already started", newSlot.ID))
		}

		if err := s.checkConflict(txCtx, b.PatientID, newSlot, b.ID); err != nil {
			return err
		}

		reserved, err := s.slotRepo.Reserve(txCtx, newSlot.ID, now)
		if err != nil {
			return err
		}
		if !reserved {
			return apperrors.NewSchedulingError(apperrors.ErrorTypeSlotFull,
				fmt.Sprintf("slot %s has no remaining capacity", newSlot.ID))
		}

		oldSlotID := b.SlotID
		if err := s.bookingRepo.UpdateSlot(txCtx, b.ID, newSlot.ID); err != nil {
			return err
		}
		if err := s.slotRepo.Release(txCtx, oldSlotID); err != nil {
			return err
		}

		b.SlotID = newSlot.ID
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordOp(ctx, "reschedule")
	s.publish(ctx, entities.NewBookingEvent(entities.BookingEventTypeRescheduled, booking.ID, booking.SlotID, booking.PatientID))
	return booking, nil
}

// Confirm moves a scheduled booking to confirmed
func (s *BookingService) Confirm(ctx context.Context, bookingID string) (*entities.Booking, error) {
	var booking *entities.Booking
	err := s.txManager.WithinTx(ctx, func(txCtx context.Context) error {
		b, err := s.bookingRepo.GetByID(txCtx, bookingID)
		if err != nil {
			return err
		}
		if !b.CanTransitionTo(entities.BookingStatusConfirmed) {
			if b.IsTerminal() {
				return apperrors.NewSchedulingError(apperrors.ErrorTypeAlreadyCancelled,
					fmt.Sprintf("booking %s is already %s", b.ID, b.Status))
			}
			return apperrors.NewConflictError(
				fmt.Sprintf("booking %s cannot move from %s to %s", b.ID, b.Status, entities.BookingStatusConfirmed))
		}
		if err := s.bookingRepo.UpdateStatus(txCtx, b.ID, entities.BookingStatusConfirmed, nil); err != nil {
			return err
		}

		b.Status = entities.BookingStatusConfirmed
		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordOp(ctx, "confirm")
	s.publish(ctx, entities.NewBookingEvent(entities.BookingEventTypeConfirmed, booking.ID, booking.SlotID, booking.PatientID))
	return booking, nil
}

// GetBooking retrieves a booking by ID
func (s *BookingService) GetBooking(ctx context.Context, id string) (*entities.Booking, error) {
	return s.bookingRepo.GetByID(ctx, id)
}

// ListPatientBookings retrieves a patient's bookings
func (s *BookingService) ListPatientBookings(ctx context.Context, patientID string, filter repositories.BookingFilter) ([]*entities.Booking, error) {
	if patientID == "" {
		return nil, apperrors.NewValidationError("patient_id is required")
	}
	return s.bookingRepo.ListByPatient(ctx, patientID, filter)
}

// checkConflict rejects the slot when the patient already holds an
// overlapping booking on the same calendar date
func (s *BookingService) checkConflict(ctx context.Context, patientID string, slot *entities.Slot, excludeBookingID string) error {
	conflict, err := s.bookingRepo.FindOverlapping(ctx, patientID, slot.StartTime, slot.EndTime, excludeBookingID)
	if err != nil {
		return err
	}
	if conflict != nil {
		label := conflict.ServiceName
		if label == "" {
			label = "another service"
		}
		return apperrors.NewSchedulingError(apperrors.ErrorTypeScheduleConflict,
			fmt.Sprintf("patient already has a booking for %s from %s to %s",
				label,
				conflict.StartTime.Format("15:04"),
				conflict.EndTime.Format("15:04")))
	}
	return nil
}

func (s *BookingService) recordOp(ctx context.Context, operation string) {
	if s.metrics == nil {
		return
	}
	observability.RecordBookingOp(ctx, s.metrics, operation, "success")
}

// publish emits a booking event to the global and patient channels. Failures
// are logged, never returned; events are not part of the transaction.
func (s *BookingService) publish(ctx context.Context, event *entities.BookingEvent) {
	if s.eventBus == nil {
		return
	}

	log := observability.LoggerFromContext(ctx)
	if err := s.eventBus.Publish(ctx, providers.EventChannelBookingUpdates, event); err != nil {
		log.Warn().Err(err).Str("event_type", string(event.EventType)).Msg("Failed to publish booking event")
	}
	if err := s.eventBus.Publish(ctx, providers.GetPatientChannel(event.PatientID), event); err != nil {
		log.Warn().Err(err).Str("event_type", string(event.EventType)).Msg("Failed to publish patient event")
	}
}
