package processor

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/nimasrn/parcel-shipping/internal/model"
	"github.com/nimasrn/parcel-shipping/internal/notifier"
	"github.com/nimasrn/parcel-shipping/internal/queue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, n model.Notification) (*notifier.SendResponse, error) {
	args := m.Called(ctx, n)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notifier.SendResponse), args.Error(1)
}

func bookedEvent(id string) model.ShipmentEvent {
	return model.ShipmentEvent{
		ID:             id,
		Type:           model.EventShipmentBooked,
		TrackingNumber: "ANT-ABC123",
		Status:         model.StatusPending,
		Origin:         "Nairobi",
		Destination:    "Mombasa",
		SenderEmail:    "amina@example.com",
		RecipientEmail: "otieno@example.com",
		TotalCost:      1044,
	}
}

func eventMessage(t *testing.T, ev model.ShipmentEvent) *queue.Message {
	data, err := json.Marshal(ev)
	require.NoError(t, err)
	return &queue.Message{ID: "1-0", Data: data}
}

func TestNotificationProcessor_SendsOnce(t *testing.T) {
	_, adapter := setupRedis(t)
	n := new(MockNotifier)
	p := NewNotificationProcessor(n, NewIdempotencyService(adapter, DefaultIdempotencyConfig()))
	ctx := context.Background()

	n.On("Send", ctx, mock.MatchedBy(func(got model.Notification) bool {
		return got.ID == "evt-1" && got.To == "amina@example.com"
	})).Return(&notifier.SendResponse{Status: notifier.StatusAccepted}, nil).Once()

	msg := eventMessage(t, bookedEvent("evt-1"))
	require.NoError(t, p.Process(ctx, msg))
	// redelivery of the same event is acked without a second email
	require.NoError(t, p.Process(ctx, msg))

	n.AssertExpectations(t)
}

func TestNotificationProcessor_FailureIsRetried(t *testing.T) {
	_, adapter := setupRedis(t)
	n := new(MockNotifier)
	idem := NewIdempotencyService(adapter, DefaultIdempotencyConfig())
	p := NewNotificationProcessor(n, idem)
	ctx := context.Background()

	n.On("Send", ctx, mock.Anything).Return(nil, assert.AnError).Once()
	n.On("Send", ctx, mock.Anything).Return(&notifier.SendResponse{Status: notifier.StatusAccepted}, nil).Once()

	msg := eventMessage(t, bookedEvent("evt-2"))
	assert.ErrorIs(t, p.Process(ctx, msg), assert.AnError)

	count, err := idem.GetRetryCount(ctx, "evt-2")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, p.Process(ctx, msg))
	n.AssertExpectations(t)
}

func TestNotificationProcessor_RejectedIsFailure(t *testing.T) {
	_, adapter := setupRedis(t)
	n := new(MockNotifier)
	p := NewNotificationProcessor(n, NewIdempotencyService(adapter, DefaultIdempotencyConfig()))
	ctx := context.Background()

	n.On("Send", ctx, mock.Anything).Return(&notifier.SendResponse{Status: notifier.StatusRejected, ErrorMsg: "bounced"}, nil)

	err := p.Process(ctx, eventMessage(t, bookedEvent("evt-3")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bounced")
}

func TestNotificationProcessor_GivesUpAfterMaxRetries(t *testing.T) {
	_, adapter := setupRedis(t)
	n := new(MockNotifier)
	cfg := DefaultIdempotencyConfig()
	cfg.MaxRetries = 1
	p := NewNotificationProcessor(n, NewIdempotencyService(adapter, cfg))
	ctx := context.Background()

	n.On("Send", ctx, mock.Anything).Return(nil, assert.AnError).Once()

	msg := eventMessage(t, bookedEvent("evt-4"))
	assert.Error(t, p.Process(ctx, msg))
	assert.NoError(t, p.Process(ctx, msg))
	n.AssertExpectations(t)
}

func TestNotificationProcessor_InvalidPayloadIsAcked(t *testing.T) {
	_, adapter := setupRedis(t)
	n := new(MockNotifier)
	p := NewNotificationProcessor(n, NewIdempotencyService(adapter, DefaultIdempotencyConfig()))

	err := p.Process(context.Background(), &queue.Message{ID: "1-0", Data: []byte("not json")})
	assert.NoError(t, err)
	n.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestBuildNotification(t *testing.T) {
	t.Run("booking goes to sender", func(t *testing.T) {
		n, ok := BuildNotification(bookedEvent("evt-1"))
		require.True(t, ok)
		assert.Equal(t, "amina@example.com", n.To)
		assert.Equal(t, "Shipment ANT-ABC123 booked", n.Subject)
		assert.Contains(t, n.Body, "Nairobi to Mombasa")
		assert.Contains(t, n.Body, "1044.00")
	})

	t.Run("status change goes to recipient", func(t *testing.T) {
		ev := bookedEvent("evt-2")
		ev.Type = model.EventShipmentStatusChanged
		ev.Status = model.StatusOutForDelivery
		ev.Location = "Mombasa Depot"

		n, ok := BuildNotification(ev)
		require.True(t, ok)
		assert.Equal(t, "otieno@example.com", n.To)
		assert.Equal(t, "Shipment ANT-ABC123 is now Out for Delivery at Mombasa Depot.", n.Body)
	})

	t.Run("no address no notification", func(t *testing.T) {
		ev := bookedEvent("evt-3")
		ev.SenderEmail = " "
		_, ok := BuildNotification(ev)
		assert.False(t, ok)
	})

	t.Run("unknown type", func(t *testing.T) {
		ev := bookedEvent("evt-4")
		ev.Type = "shipment.deleted"
		_, ok := BuildNotification(ev)
		assert.False(t, ok)
	})
}
