package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/parcel-shipping/internal/model"
	"github.com/nimasrn/parcel-shipping/internal/rates"
	"github.com/nimasrn/parcel-shipping/internal/repository"
	"github.com/nimasrn/parcel-shipping/pkg/logger"
	"github.com/nimasrn/parcel-shipping/pkg/prom"
)

const (
	bookingNote = "Shipment booked, awaiting pickup"

	// collisions on six alphanumerics are rare, a couple of retries is plenty
	maxTrackingAttempts = 3
)

type ShipmentRepository interface {
	Create(ctx context.Context, s *model.Shipment) (*model.Shipment, error)
	FindByTrackingNumber(ctx context.Context, trackingNumber string) (*model.Shipment, error)
	List(ctx context.Context, f model.ShipmentFilter) ([]*model.Shipment, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.ShipmentStatus) error
	CountByStatus(ctx context.Context, userID string) (map[model.ShipmentStatus]int64, error)
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type StatusHistoryRepository interface {
	Create(ctx context.Context, h *model.StatusHistoryEntry) (*model.StatusHistoryEntry, error)
	ListByShipment(ctx context.Context, shipmentID uuid.UUID) ([]*model.StatusHistoryEntry, error)
}

type EventPublisher interface {
	PublishEvent(ctx context.Context, ev model.ShipmentEvent) (string, error)
}

type ShipmentService struct {
	shipmentRepo   ShipmentRepository
	historyRepo    StatusHistoryRepository
	events         EventPublisher
	engine         *rates.Engine
	trackingPrefix string
	newTracking    func(prefix string) (string, error)
	now            func() time.Time
}

// NewShipmentService wires the lifecycle. events may be nil, then no
// notifications are produced.
func NewShipmentService(shipmentRepo ShipmentRepository, historyRepo StatusHistoryRepository, events EventPublisher, engine *rates.Engine, trackingPrefix string) *ShipmentService {
	if engine == nil {
		engine = rates.NewEngine(rates.Bounds{})
	}
	if trackingPrefix == "" {
		trackingPrefix = "ANT"
	}
	return &ShipmentService{
		shipmentRepo:   shipmentRepo,
		historyRepo:    historyRepo,
		events:         events,
		engine:         engine,
		trackingPrefix: trackingPrefix,
		newTracking:    NewTrackingNumber,
		now:            time.Now,
	}
}

// Quote prices a shipment without storing anything.
func (s *ShipmentService) Quote(_ context.Context, in rates.Input) (*rates.Quote, error) {
	q, err := s.engine.Quote(in)
	if err != nil {
		label := in.Option
		if _, ok := rates.Lookup(in.Option); !ok {
			label = "unknown"
		}
		prom.IncQuote(label, "invalid")
		return nil, err
	}
	prom.IncQuote(q.Option.ID, "ok")
	return q, nil
}

func rateInput(req model.ShipmentCreateRequest) rates.Input {
	return rates.Input{
		Origin:       req.Origin,
		Destination:  req.Destination,
		Option:       req.ShippingOption,
		Weight:       req.Weight,
		WeightUnit:   req.WeightUnit,
		PackageCount: req.PackageCount,
		Insured:      req.HasInsurance,
		PickupDate:   req.PickupDate.Time,
	}
}

func (s *ShipmentService) validateBooking(req *model.ShipmentCreateRequest) error {
	req.Origin = strings.TrimSpace(req.Origin)
	req.Destination = strings.TrimSpace(req.Destination)
	if req.WeightUnit == "" {
		req.WeightUnit = rates.UnitKg
	}
	if req.PackagingType == "" {
		req.PackagingType = model.PackagingOwn
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = model.PaymentPaypal
	}
	if req.PackageCount <= 0 {
		req.PackageCount = 1
	}

	v := s.engine.Validate(rateInput(*req))
	if req.PickupDate.IsZero() {
		v.Add("pickup_date", "pickup date is required")
	}
	if !req.PackagingType.Valid() {
		v.Add("packaging_type", "unknown packaging type "+string(req.PackagingType))
	}
	if !req.PaymentMethod.Valid() {
		v.Add("payment_method", "payment method must be paypal, card or mpesa")
	}
	return v.Err()
}

// Book stores a new shipment and its first history row in one
// transaction. Validation failures never reach the store.
func (s *ShipmentService) Book(ctx context.Context, user *model.User, req model.ShipmentCreateRequest) (*model.Shipment, error) {
	if user == nil || user.ID == "" {
		return nil, ErrUnauthenticated
	}
	if err := s.validateBooking(&req); err != nil {
		prom.IncBooking("invalid")
		return nil, err
	}
	if req.Sender.Email == "" {
		req.Sender.Email = user.Email
	}

	q, err := s.engine.Quote(rateInput(req))
	if err != nil {
		prom.IncBooking("invalid")
		return nil, err
	}

	shipment := &model.Shipment{
		UserID:                user.ID,
		Origin:                req.Origin,
		Destination:           req.Destination,
		Sender:                req.Sender,
		Recipient:             req.Recipient,
		PackagingType:         req.PackagingType,
		PackageCount:          q.PackageCount,
		Weight:                req.Weight,
		WeightUnit:            req.WeightUnit,
		ShippingOption:        q.Option.ID,
		ShippingCost:          q.ShippingCost,
		InsuranceCost:         q.InsuranceCost,
		TaxCost:               q.Tax,
		TotalCost:             q.Total,
		PaymentMethod:         req.PaymentMethod,
		HasInsurance:          req.HasInsurance,
		PickupDate:            model.NewDate(q.PickupDate),
		EstimatedDeliveryDate: model.NewDate(q.EstimatedDelivery),
		Status:                model.StatusPending,
	}

	var created *model.Shipment
	for attempt := 1; ; attempt++ {
		created, err = s.createWithHistory(ctx, shipment)
		if !errors.Is(err, repository.ErrDuplicateTrackingNumber) || attempt == maxTrackingAttempts {
			break
		}
		logger.Warn("tracking number collision, regenerating", "tracking_number", shipment.TrackingNumber)
	}
	if err != nil {
		prom.IncBooking("failed")
		logger.Error("booking failed", "user_id", user.ID, "error", err)
		return nil, submissionError("book shipment", err)
	}

	prom.IncBooking("ok")
	logger.Info("shipment booked", "tracking_number", created.TrackingNumber, "user_id", user.ID, "option", created.ShippingOption)

	s.publish(ctx, model.ShipmentEvent{
		Type:           model.EventShipmentBooked,
		TrackingNumber: created.TrackingNumber,
		Status:         created.Status,
		Location:       created.Origin,
		Origin:         created.Origin,
		Destination:    created.Destination,
		SenderEmail:    created.Sender.Email,
		RecipientEmail: created.Recipient.Email,
		EstimatedDate:  created.EstimatedDeliveryDate,
		TotalCost:      created.TotalCost,
	})
	return created, nil
}

func (s *ShipmentService) createWithHistory(ctx context.Context, shipment *model.Shipment) (*model.Shipment, error) {
	tn, err := s.newTracking(s.trackingPrefix)
	if err != nil {
		return nil, err
	}
	shipment.TrackingNumber = tn

	var created *model.Shipment
	err = s.shipmentRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		created, err = s.shipmentRepo.Create(ctx, shipment)
		if err != nil {
			return err
		}
		note := bookingNote
		_, err = s.historyRepo.Create(ctx, &model.StatusHistoryEntry{
			ShipmentID: created.ID,
			Status:     model.StatusPending,
			Location:   created.Origin,
			Notes:      &note,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *ShipmentService) find(ctx context.Context, op, raw string) (*model.Shipment, error) {
	tn := NormalizeTrackingNumber(raw)
	if tn == "" {
		v := &ValidationError{}
		v.Add("tracking_number", "tracking number is required")
		return nil, v
	}
	shipment, err := s.shipmentRepo.FindByTrackingNumber(ctx, tn)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, submissionError(op, err)
	}
	return shipment, nil
}

// Track looks a shipment up by tracking number and returns its history
// newest first with the derived progress.
func (s *ShipmentService) Track(ctx context.Context, trackingNumber string) (*model.Tracking, error) {
	shipment, err := s.find(ctx, "track shipment", trackingNumber)
	if err != nil {
		prom.IncTrackingLookup(lookupOutcome(err))
		return nil, err
	}

	history, err := s.historyRepo.ListByShipment(ctx, shipment.ID)
	if err != nil {
		prom.IncTrackingLookup("failed")
		return nil, submissionError("track shipment", err)
	}
	if history == nil {
		history = []*model.StatusHistoryEntry{}
	}

	prom.IncTrackingLookup("found")
	return &model.Tracking{
		Shipment: shipment,
		History:  history,
		Progress: shipment.Status.Progress(),
	}, nil
}

func lookupOutcome(err error) string {
	var v *ValidationError
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.As(err, &v):
		return "invalid"
	default:
		return "failed"
	}
}

// Receipt returns the stored shipment for the confirmation page.
func (s *ShipmentService) Receipt(ctx context.Context, trackingNumber string) (*model.Shipment, error) {
	return s.find(ctx, "load receipt", trackingNumber)
}

// Dashboard lists the user's shipments newest first with counters.
func (s *ShipmentService) Dashboard(ctx context.Context, user *model.User) (*model.Dashboard, error) {
	if user == nil || user.ID == "" {
		return nil, ErrUnauthenticated
	}
	items, _, err := s.shipmentRepo.List(ctx, model.ShipmentFilter{UserID: user.ID, Limit: 1000})
	if err != nil {
		return nil, submissionError("load dashboard", err)
	}
	if items == nil {
		items = []*model.Shipment{}
	}
	counts, err := s.shipmentRepo.CountByStatus(ctx, user.ID)
	if err != nil {
		return nil, submissionError("load dashboard", err)
	}
	return &model.Dashboard{
		User:      *user,
		Shipments: items,
		Stats:     model.StatsFromCounts(counts),
	}, nil
}

// AppendStatus records a carrier scan. The history row and the shipment
// status change together or not at all.
func (s *ShipmentService) AppendStatus(ctx context.Context, req model.StatusUpdateRequest) (*model.StatusHistoryEntry, error) {
	v := &ValidationError{}
	if !req.Status.Valid() {
		v.Add("status", "unknown status "+string(req.Status))
	}
	req.Location = strings.TrimSpace(req.Location)
	if req.Location == "" {
		v.Add("location", "location is required")
	}
	if NormalizeTrackingNumber(req.TrackingNumber) == "" {
		v.Add("tracking_number", "tracking number is required")
	}
	if err := v.Err(); err != nil {
		return nil, err
	}

	shipment, err := s.find(ctx, "append status", req.TrackingNumber)
	if err != nil {
		return nil, err
	}
	if !shipment.Status.CanTransition(req.Status) {
		return nil, fmt.Errorf("%w: %s to %s", ErrInvalidTransition, shipment.Status, req.Status)
	}

	var notes *string
	if n := strings.TrimSpace(req.Notes); n != "" {
		notes = &n
	}

	var entry *model.StatusHistoryEntry
	err = s.shipmentRepo.WithinTransaction(ctx, func(ctx context.Context) error {
		// fails when another scan moved the shipment after find
		if err := s.shipmentRepo.UpdateStatus(ctx, shipment.ID, shipment.Status, req.Status); err != nil {
			return err
		}
		var err error
		entry, err = s.historyRepo.Create(ctx, &model.StatusHistoryEntry{
			ShipmentID: shipment.ID,
			Status:     req.Status,
			Location:   req.Location,
			Notes:      notes,
		})
		return err
	})
	if errors.Is(err, repository.ErrStatusChanged) {
		return nil, fmt.Errorf("%w: %s changed before %s was applied", ErrInvalidTransition, shipment.TrackingNumber, req.Status)
	}
	if err != nil {
		return nil, submissionError("append status", err)
	}

	prom.IncStatusTransition(string(req.Status))
	if req.Status == model.StatusDelivered && !shipment.CreatedAt.IsZero() {
		prom.AddDeliveryDuration(s.now().Sub(shipment.CreatedAt).Seconds(), shipment.ShippingOption)
	}
	logger.Info("shipment status changed",
		"tracking_number", shipment.TrackingNumber,
		"from", shipment.Status,
		"to", req.Status,
		"location", req.Location)

	s.publish(ctx, model.ShipmentEvent{
		Type:           model.EventShipmentStatusChanged,
		TrackingNumber: shipment.TrackingNumber,
		Status:         req.Status,
		Location:       req.Location,
		Origin:         shipment.Origin,
		Destination:    shipment.Destination,
		SenderEmail:    shipment.Sender.Email,
		RecipientEmail: shipment.Recipient.Email,
		EstimatedDate:  shipment.EstimatedDeliveryDate,
		TotalCost:      shipment.TotalCost,
	})
	return entry, nil
}

// publish runs after commit. The write already succeeded, so a failure
// here is only logged.
func (s *ShipmentService) publish(ctx context.Context, ev model.ShipmentEvent) {
	if s.events == nil {
		return
	}
	ev.ID = uuid.NewString()
	ev.OccurredAt = s.now().UTC()
	if _, err := s.events.PublishEvent(ctx, ev); err != nil {
		logger.Error("failed to publish shipment event", "type", ev.Type, "tracking_number", ev.TrackingNumber, "error", err)
	}
}
