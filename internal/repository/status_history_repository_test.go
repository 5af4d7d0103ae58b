package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/parcel-shipping/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusHistoryRepository_ListByShipment(t *testing.T) {
	db := setupTestDB(t).DB
	shipments := NewShipmentRepository(db)
	repo := NewStatusHistoryRepository(db)
	ctx := context.Background()

	s, err := shipments.Create(ctx, newShipment("ANT-HISTRY", "user-1"))
	require.NoError(t, err)

	base := time.Now().Add(-time.Hour)
	note := "Shipment booked, awaiting pickup"
	steps := []struct {
		status   model.ShipmentStatus
		location string
		notes    *string
	}{
		{model.StatusPending, "Nairobi", &note},
		{model.StatusPickedUp, "Nairobi Hub", nil},
		{model.StatusInTransit, "Voi", nil},
	}
	for i, st := range steps {
		_, err := repo.Create(ctx, &model.StatusHistoryEntry{
			ShipmentID: s.ID,
			Status:     st.status,
			Location:   st.location,
			Notes:      st.notes,
			CreatedAt:  base.Add(time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	t.Run("newest first", func(t *testing.T) {
		entries, err := repo.ListByShipment(ctx, s.ID)
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.Equal(t, model.StatusInTransit, entries[0].Status)
		assert.Equal(t, "Voi", entries[0].Location)
		assert.Nil(t, entries[0].Notes)
		assert.Equal(t, model.StatusPending, entries[2].Status)
		require.NotNil(t, entries[2].Notes)
		assert.Equal(t, note, *entries[2].Notes)
	})

	t.Run("unknown shipment has empty history", func(t *testing.T) {
		entries, err := repo.ListByShipment(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}
