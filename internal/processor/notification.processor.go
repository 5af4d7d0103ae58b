package processor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/nimasrn/parcel-shipping/internal/model"
	"github.com/nimasrn/parcel-shipping/internal/notifier"
	"github.com/nimasrn/parcel-shipping/internal/queue"
	"github.com/nimasrn/parcel-shipping/pkg/logger"
	"github.com/nimasrn/parcel-shipping/pkg/prom"
)

type Notifier interface {
	Send(ctx context.Context, n model.Notification) (*notifier.SendResponse, error)
}

// NotificationProcessor turns shipment events into customer emails.
type NotificationProcessor struct {
	notifier    Notifier
	idempotency *IdempotencyService
}

func NewNotificationProcessor(n Notifier, idempotency *IdempotencyService) *NotificationProcessor {
	return &NotificationProcessor{
		notifier:    n,
		idempotency: idempotency,
	}
}

func (p *NotificationProcessor) GetType() string {
	return "notification"
}

func (p *NotificationProcessor) Process(ctx context.Context, msg *queue.Message) error {
	ev, err := msg.Event()
	if err != nil {
		// a malformed event never gets better, ack it
		logger.Error("dropping undecodable event", "id", msg.ID, "error", err)
		prom.IncNotification("unknown", "invalid")
		return nil
	}

	n, ok := BuildNotification(ev)
	if !ok {
		logger.Debug("event has no recipient, skipping", "event_id", ev.ID, "type", ev.Type)
		prom.IncNotification(string(ev.Type), "skipped")
		return nil
	}

	pc, err := p.idempotency.AcquireProcessingLock(ctx, ev.ID)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyProcessed):
			return nil
		case errors.Is(err, ErrMaxRetriesExceeded):
			logger.Error("giving up on notification", "event_id", ev.ID, "tracking_number", ev.TrackingNumber)
			prom.IncNotification(string(ev.Type), "abandoned")
			return nil
		default:
			return err
		}
	}
	defer func() {
		if err := p.idempotency.ReleaseLock(ctx, pc); err != nil {
			logger.Warn("failed to release lock", "event_id", ev.ID, "error", err)
		}
	}()

	res, err := p.notifier.Send(ctx, n)
	if err == nil && res.Status != notifier.StatusAccepted {
		err = fmt.Errorf("provider rejected notification: %s", res.ErrorMsg)
	}
	if err != nil {
		prom.IncNotification(string(ev.Type), "failed")
		if markErr := p.idempotency.MarkFailure(ctx, pc, err); markErr != nil {
			logger.Error("failed to mark failure", "event_id", ev.ID, "error", markErr)
		}
		return err
	}

	logger.Info("notification sent",
		"event_id", ev.ID,
		"tracking_number", ev.TrackingNumber,
		"type", ev.Type,
		"provider_ref", res.ProviderRef,
		"retry_count", pc.RetryCount)
	prom.IncNotification(string(ev.Type), "sent")

	if err := p.idempotency.MarkSuccess(ctx, pc); err != nil {
		logger.Error("failed to mark success", "event_id", ev.ID, "error", err)
	}
	return nil
}

// BuildNotification renders the email for an event. Booking
// confirmations go to the sender, status updates to the recipient.
func BuildNotification(ev model.ShipmentEvent) (model.Notification, bool) {
	var n model.Notification
	switch ev.Type {
	case model.EventShipmentBooked:
		n = model.Notification{
			To:      ev.SenderEmail,
			Subject: fmt.Sprintf("Shipment %s booked", ev.TrackingNumber),
			Body: fmt.Sprintf("Your shipment from %s to %s is booked. Estimated delivery %s. Total %.2f.",
				ev.Origin, ev.Destination, ev.EstimatedDate, ev.TotalCost),
		}
	case model.EventShipmentStatusChanged:
		var b strings.Builder
		fmt.Fprintf(&b, "Shipment %s is now %s", ev.TrackingNumber, ev.Status.Label())
		if ev.Location != "" {
			fmt.Fprintf(&b, " at %s", ev.Location)
		}
		b.WriteString(".")
		n = model.Notification{
			To:      ev.RecipientEmail,
			Subject: fmt.Sprintf("Shipment %s: %s", ev.TrackingNumber, ev.Status.Label()),
			Body:    b.String(),
		}
	default:
		return n, false
	}
	if strings.TrimSpace(n.To) == "" {
		return n, false
	}
	n.ID = ev.ID
	return n, true
}
