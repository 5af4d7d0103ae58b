package repository

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/parcel-shipping/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newShipment(tracking, userID string) *model.Shipment {
	return &model.Shipment{
		TrackingNumber:        tracking,
		UserID:                userID,
		Origin:                "Nairobi",
		Destination:           "Mombasa",
		Sender:                model.Contact{Name: "Amina", Email: "amina@example.com", Phone: "+254700000001"},
		Recipient:             model.Contact{Name: "Otieno", Email: "otieno@example.com", Phone: "+254700000002"},
		PackagingType:         model.PackagingBoxSmall,
		PackageCount:          1,
		Weight:                2,
		WeightUnit:            "kg",
		ShippingOption:        "standard",
		ShippingCost:          900,
		TaxCost:               144,
		TotalCost:             1044,
		PaymentMethod:         model.PaymentMpesa,
		PickupDate:            model.NewDate(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)),
		EstimatedDeliveryDate: model.NewDate(time.Date(2024, time.January, 4, 0, 0, 0, 0, time.UTC)),
		Status:                model.StatusPending,
	}
}

func TestShipmentRepository_Create(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewShipmentRepository(db)
	ctx := context.Background()

	t.Run("create shipment successfully", func(t *testing.T) {
		created, err := repo.Create(ctx, newShipment("ANT-AAAAAA", "user-1"))
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, created.ID)
		assert.Equal(t, "ANT-AAAAAA", created.TrackingNumber)
		assert.Equal(t, model.StatusPending, created.Status)
		assert.NotZero(t, created.CreatedAt)
	})

	t.Run("duplicate tracking number", func(t *testing.T) {
		_, err := repo.Create(ctx, newShipment("ANT-BBBBBB", "user-1"))
		require.NoError(t, err)

		_, err = repo.Create(ctx, newShipment("ANT-BBBBBB", "user-2"))
		assert.ErrorIs(t, err, ErrDuplicateTrackingNumber)
	})
}

func TestShipmentRepository_FindByTrackingNumber(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewShipmentRepository(db)
	ctx := context.Background()

	_, err := repo.Create(ctx, newShipment("ANT-C0FFEE", "user-1"))
	require.NoError(t, err)

	t.Run("found", func(t *testing.T) {
		s, err := repo.FindByTrackingNumber(ctx, "ANT-C0FFEE")
		require.NoError(t, err)
		assert.Equal(t, "Nairobi", s.Origin)
		assert.Equal(t, "otieno@example.com", s.Recipient.Email)
		assert.Equal(t, model.PackagingBoxSmall, s.PackagingType)
		assert.Equal(t, 1044.0, s.TotalCost)
		assert.Equal(t, "2024-01-04", s.EstimatedDeliveryDate.String())
	})

	t.Run("not found", func(t *testing.T) {
		s, err := repo.FindByTrackingNumber(ctx, "ANT-NOPE00")
		assert.ErrorIs(t, err, ErrNotFound)
		assert.Nil(t, s)
	})

	t.Run("lookup is exact", func(t *testing.T) {
		_, err := repo.FindByTrackingNumber(ctx, "ant-c0ffee")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestShipmentRepository_List(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewShipmentRepository(db)
	ctx := context.Background()

	for i, tn := range []string{"ANT-000001", "ANT-000002", "ANT-000003"} {
		s := newShipment(tn, "user-1")
		s.CreatedAt = time.Now().Add(time.Duration(i) * time.Minute)
		_, err := repo.Create(ctx, s)
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, newShipment("ANT-000004", "user-2"))
	require.NoError(t, err)

	t.Run("only the user's shipments newest first", func(t *testing.T) {
		items, total, err := repo.List(ctx, model.ShipmentFilter{UserID: "user-1"})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, items, 3)
		assert.Equal(t, "ANT-000003", items[0].TrackingNumber)
		assert.Equal(t, "ANT-000001", items[2].TrackingNumber)
	})

	t.Run("with pagination", func(t *testing.T) {
		items, total, err := repo.List(ctx, model.ShipmentFilter{UserID: "user-1", Limit: 2, Offset: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, items, 1)
	})

	t.Run("by status", func(t *testing.T) {
		items, total, err := repo.List(ctx, model.ShipmentFilter{Statuses: []model.ShipmentStatus{model.StatusDelivered}})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, items)
	})
}

func TestShipmentRepository_UpdateStatus(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewShipmentRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newShipment("ANT-UPDATE", "user-1"))
	require.NoError(t, err)

	require.NoError(t, repo.UpdateStatus(ctx, created.ID, model.StatusPending, model.StatusPickedUp))

	s, err := repo.FindByTrackingNumber(ctx, "ANT-UPDATE")
	require.NoError(t, err)
	assert.Equal(t, model.StatusPickedUp, s.Status)

	// a location scan keeps the status
	require.NoError(t, repo.UpdateStatus(ctx, created.ID, model.StatusPickedUp, model.StatusPickedUp))

	err = repo.UpdateStatus(ctx, uuid.New(), model.StatusPending, model.StatusPickedUp)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestShipmentRepository_UpdateStatus_StaleStatus(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewShipmentRepository(db)
	ctx := context.Background()

	created, err := repo.Create(ctx, newShipment("ANT-RACE01", "user-1"))
	require.NoError(t, err)

	// both writers read pending, only the first may apply
	require.NoError(t, repo.UpdateStatus(ctx, created.ID, model.StatusPending, model.StatusDelivered))
	err = repo.UpdateStatus(ctx, created.ID, model.StatusPending, model.StatusCancelled)
	assert.ErrorIs(t, err, ErrStatusChanged)

	s, err := repo.FindByTrackingNumber(ctx, "ANT-RACE01")
	require.NoError(t, err)
	assert.Equal(t, model.StatusDelivered, s.Status)
}

func TestShipmentRepository_CountByStatus(t *testing.T) {
	db := setupTestDB(t).DB
	repo := NewShipmentRepository(db)
	ctx := context.Background()

	for i, st := range []model.ShipmentStatus{model.StatusPending, model.StatusPending, model.StatusInTransit, model.StatusDelivered} {
		sh := newShipment(fmt.Sprintf("ANT-CNT%03d", i), "user-1")
		sh.Status = st
		_, err := repo.Create(ctx, sh)
		require.NoError(t, err)
	}
	_, err := repo.Create(ctx, newShipment("ANT-OTHER1", "user-2"))
	require.NoError(t, err)

	counts, err := repo.CountByStatus(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, map[model.ShipmentStatus]int64{
		model.StatusPending:   2,
		model.StatusInTransit: 1,
		model.StatusDelivered: 1,
	}, counts)

	counts, err = repo.CountByStatus(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, counts)
}

func TestShipmentRepository_WithinTransaction(t *testing.T) {
	db := setupTestDB(t).DB
	shipments := NewShipmentRepository(db)
	history := NewStatusHistoryRepository(db)
	ctx := context.Background()

	t.Run("rollback removes both rows", func(t *testing.T) {
		boom := errors.New("boom")
		err := shipments.WithinTransaction(ctx, func(ctx context.Context) error {
			s, err := shipments.Create(ctx, newShipment("ANT-ROLLBK", "user-1"))
			if err != nil {
				return err
			}
			if _, err := history.Create(ctx, &model.StatusHistoryEntry{ShipmentID: s.ID, Status: model.StatusPending, Location: "Nairobi"}); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = shipments.FindByTrackingNumber(ctx, "ANT-ROLLBK")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("commit keeps both rows", func(t *testing.T) {
		var id uuid.UUID
		err := shipments.WithinTransaction(ctx, func(ctx context.Context) error {
			s, err := shipments.Create(ctx, newShipment("ANT-COMMIT", "user-1"))
			if err != nil {
				return err
			}
			id = s.ID
			_, err = history.Create(ctx, &model.StatusHistoryEntry{ShipmentID: s.ID, Status: model.StatusPending, Location: "Nairobi"})
			return err
		})
		require.NoError(t, err)

		entries, err := history.ListByShipment(ctx, id)
		require.NoError(t, err)
		assert.Len(t, entries, 1)
	})
}
