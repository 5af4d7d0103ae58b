package e2e

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nimasrn/parcel-shipping/internal/model"
	"github.com/nimasrn/parcel-shipping/internal/rates"
	"github.com/nimasrn/parcel-shipping/internal/repository"
	"github.com/nimasrn/parcel-shipping/internal/services"
	"github.com/nimasrn/parcel-shipping/test/fixtures"
	"github.com/nimasrn/parcel-shipping/test/helpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestE2E_ConcurrentTerminalScansOnlyOneWins(t *testing.T) {
	db := helpers.SetupTestDB(t)
	svc := services.NewShipmentService(
		repository.NewShipmentRepository(db),
		repository.NewStatusHistoryRepository(db),
		nil,
		rates.NewEngine(rates.Bounds{}),
		"ANT",
	)
	ctx := context.Background()

	for round := 0; round < 10; round++ {
		booked, err := svc.Book(ctx, &fixtures.TestUser1, model.ShipmentCreateRequest{
			Origin:         "Nairobi",
			Destination:    "Mombasa",
			Sender:         model.Contact{Name: "Amina Wanjiru", Phone: "+254700000001"},
			Recipient:      model.Contact{Name: "Otieno Odhiambo", Phone: "+254700000002"},
			Weight:         2,
			ShippingOption: rates.OptionStandard,
			PickupDate:     model.Date{Time: time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)},
		})
		require.NoError(t, err)
		require.Equal(t, model.StatusPending, booked.Status)

		start := make(chan struct{})
		var wg sync.WaitGroup
		results := make(map[model.ShipmentStatus]error)
		var mu sync.Mutex
		for _, status := range []model.ShipmentStatus{model.StatusDelivered, model.StatusCancelled} {
			wg.Add(1)
			go func(status model.ShipmentStatus) {
				defer wg.Done()
				<-start
				_, err := svc.AppendStatus(ctx, model.StatusUpdateRequest{
					TrackingNumber: booked.TrackingNumber,
					Status:         status,
					Location:       "Mombasa",
				})
				mu.Lock()
				results[status] = err
				mu.Unlock()
			}(status)
		}
		close(start)
		wg.Wait()

		var winner model.ShipmentStatus
		for status, err := range results {
			if err == nil {
				require.Empty(t, winner, "both terminal scans were accepted")
				winner = status
				continue
			}
			assert.ErrorIs(t, err, services.ErrInvalidTransition)
		}
		require.NotEmpty(t, winner)

		tracking, err := svc.Track(ctx, booked.TrackingNumber)
		require.NoError(t, err)
		assert.Equal(t, winner, tracking.Shipment.Status)
		require.Len(t, tracking.History, 2)
		statuses := []model.ShipmentStatus{tracking.History[0].Status, tracking.History[1].Status}
		assert.ElementsMatch(t, []model.ShipmentStatus{model.StatusPending, winner}, statuses)
	}
}
