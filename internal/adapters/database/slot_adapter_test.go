package database_test

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/labcita/scheduling/internal/adapters/database"
	"github.com/labcita/scheduling/internal/domain/entities"
	"github.com/labcita/scheduling/internal/domain/repositories"
	"github.com/labcita/scheduling/internal/infrastructure/clients/postgres"
	apperrors "github.com/labcita/scheduling/pkg/errors"
)

func setupSlotAdapter(t *testing.T) (repositories.SlotRepository, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })

	client := postgres.NewClientFromDB(mockDB, 10*time.Second)
	return database.NewSlotAdapter(client), mock
}

func TestSlotAdapter_Reserve(t *testing.T) {
	t.Run("takes the seat when the conditional update matches", func(t *testing.T) {
		adapter, mock := setupSlotAdapter(t)

		mock.ExpectExec(`UPDATE "slots" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		reserved, err := adapter.Reserve(context.Background(), "slot-1", time.Now())

		assert.NoError(t, err)
		assert.True(t, reserved)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports false when no row qualifies", func(t *testing.T) {
		adapter, mock := setupSlotAdapter(t)

		mock.ExpectExec(`UPDATE "slots" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		reserved, err := adapter.Reserve(context.Background(), "slot-1", time.Now())

		assert.NoError(t, err)
		assert.False(t, reserved)
	})
}

func TestSlotAdapter_Release(t *testing.T) {
	t.Run("gives the seat back", func(t *testing.T) {
		adapter, mock := setupSlotAdapter(t)

		mock.ExpectExec(`UPDATE "slots" SET`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := adapter.Release(context.Background(), "slot-1")

		assert.NoError(t, err)
	})

	t.Run("returns not found for an unknown slot", func(t *testing.T) {
		adapter, mock := setupSlotAdapter(t)

		mock.ExpectExec(`UPDATE "slots" SET`).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := adapter.Release(context.Background(), "ghost")

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})
}

func TestSlotAdapter_InsertNew(t *testing.T) {
	newSlot := func(id string, start time.Time) *entities.Slot {
		return &entities.Slot{
			ID:         id,
			ServiceID:  "svc-1",
			LocationID: "loc-1",
			StartTime:  start,
			EndTime:    start.Add(30 * time.Minute),
			Capacity:   2,
			Active:     true,
			CreatedAt:  time.Now(),
			UpdatedAt:  time.Now(),
		}
	}

	t.Run("reports only the rows actually inserted", func(t *testing.T) {
		adapter, mock := setupSlotAdapter(t)

		// Two candidates, one collides with an existing natural key and
		// is skipped by ON CONFLICT DO NOTHING.
		mock.ExpectExec(`INSERT INTO "slots".*ON CONFLICT DO NOTHING`).
			WillReturnResult(sqlmock.NewResult(0, 1))

		start := time.Now().Add(24 * time.Hour)
		inserted, err := adapter.InsertNew(context.Background(), []*entities.Slot{
			newSlot("slot-1", start),
			newSlot("slot-2", start.Add(30*time.Minute)),
		})

		assert.NoError(t, err)
		assert.Equal(t, 1, inserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("skips the round trip for an empty batch", func(t *testing.T) {
		adapter, mock := setupSlotAdapter(t)

		inserted, err := adapter.InsertNew(context.Background(), nil)

		assert.NoError(t, err)
		assert.Equal(t, 0, inserted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSlotAdapter_GetByID(t *testing.T) {
	t.Run("scans a full slot row", func(t *testing.T) {
		adapter, mock := setupSlotAdapter(t)

		now := time.Now()
		mock.ExpectQuery(`SELECT .+ FROM "slots"`).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "service_id", "location_id", "start_time", "end_time",
				"capacity", "reserved", "active", "created_at", "updated_at",
			}).AddRow("slot-1", "svc-1", "loc-1", now, now.Add(30*time.Minute), 3, 1, true, now, now))

		slot, err := adapter.GetByID(context.Background(), "slot-1")

		require.NoError(t, err)
		assert.Equal(t, "slot-1", slot.ID)
		assert.Equal(t, 2, slot.Available())
	})

	t.Run("returns not found for an unknown id", func(t *testing.T) {
		adapter, mock := setupSlotAdapter(t)

		mock.ExpectQuery(`SELECT .+ FROM "slots"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := adapter.GetByID(context.Background(), "ghost")

		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotFound))
	})
}

func TestSlotAdapter_HasBookings(t *testing.T) {
	adapter, mock := setupSlotAdapter(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	has, err := adapter.HasBookings(context.Background(), "slot-1")

	assert.NoError(t, err)
	assert.True(t, has)
}
