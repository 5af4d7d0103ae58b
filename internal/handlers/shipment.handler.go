package handlers

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/fasthttp/router"
	"github.com/nimasrn/parcel-shipping/internal/model"
	"github.com/nimasrn/parcel-shipping/internal/rates"
	xhttp "github.com/nimasrn/parcel-shipping/pkg/http"
)

const HeaderOperatorKey = "X-Operator-Key"

type ShipmentService interface {
	Book(ctx context.Context, user *model.User, req model.ShipmentCreateRequest) (*model.Shipment, error)
	Dashboard(ctx context.Context, user *model.User) (*model.Dashboard, error)
	Receipt(ctx context.Context, trackingNumber string) (*model.Shipment, error)
	Track(ctx context.Context, trackingNumber string) (*model.Tracking, error)
	AppendStatus(ctx context.Context, req model.StatusUpdateRequest) (*model.StatusHistoryEntry, error)
}

type ShipmentHandler struct {
	svc         ShipmentService
	sessions    SessionProvider
	operatorKey string
}

func RegisterShipmentRoutes(e *router.Group, h *ShipmentHandler) {
	e.POST("/shipments", h.Book)
	e.GET("/shipments", h.Dashboard)
	e.GET("/shipments/receipt/{tracking}", h.Receipt)
	e.GET("/track/{tracking}", h.Track)
	e.POST("/shipments/{tracking}/status", h.AppendStatus)
}

// NewShipmentHandler builds the handler. An empty operatorKey disables
// the status endpoint.
func NewShipmentHandler(svc ShipmentService, sessions SessionProvider, operatorKey string) *ShipmentHandler {
	return &ShipmentHandler{
		svc:         svc,
		sessions:    sessions,
		operatorKey: operatorKey,
	}
}

type bookRequest struct {
	Origin         string     `json:"origin"`
	Destination    string     `json:"destination"`
	SenderName     string     `json:"sender_name"`
	SenderEmail    string     `json:"sender_email"`
	SenderPhone    string     `json:"sender_phone"`
	RecipientName  string     `json:"recipient_name"`
	RecipientEmail string     `json:"recipient_email"`
	RecipientPhone string     `json:"recipient_phone"`
	PackagingType  string     `json:"packaging_type"`
	PackageCount   flexValue  `json:"package_count"`
	PackageWeight  flexValue  `json:"package_weight"`
	WeightUnit     string     `json:"weight_unit"`
	ShippingOption string     `json:"shipping_option"`
	PaymentMethod  string     `json:"payment_method"`
	HasInsurance   bool       `json:"has_insurance"`
	PickupDate     model.Date `json:"pickup_date"`
}

type statusRequest struct {
	Status   string `json:"status"`
	Location string `json:"location"`
	Notes    string `json:"notes"`
}

func (r bookRequest) toModel() model.ShipmentCreateRequest {
	return model.ShipmentCreateRequest{
		Origin:      r.Origin,
		Destination: r.Destination,
		Sender: model.Contact{
			Name:  strings.TrimSpace(r.SenderName),
			Email: strings.TrimSpace(r.SenderEmail),
			Phone: strings.TrimSpace(r.SenderPhone),
		},
		Recipient: model.Contact{
			Name:  strings.TrimSpace(r.RecipientName),
			Email: strings.TrimSpace(r.RecipientEmail),
			Phone: strings.TrimSpace(r.RecipientPhone),
		},
		PackagingType:  model.PackagingType(r.PackagingType),
		PackageCount:   rates.ParseCount(string(r.PackageCount)),
		Weight:         rates.ParseWeight(string(r.PackageWeight)),
		WeightUnit:     r.WeightUnit,
		ShippingOption: strings.TrimSpace(r.ShippingOption),
		PaymentMethod:  model.PaymentMethod(r.PaymentMethod),
		HasInsurance:   r.HasInsurance,
		PickupDate:     r.PickupDate,
	}
}

/* --------------------------------- Routes ----------------------------------- */

func (h *ShipmentHandler) Book(ctx *xhttp.RequestCtx) {
	user, _, ok := requireUser(ctx, h.sessions)
	if !ok {
		return
	}
	var req bookRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	shipment, err := h.svc.Book(ctx, user, req.toModel())
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, shipment)
}

func (h *ShipmentHandler) Dashboard(ctx *xhttp.RequestCtx) {
	user, _, ok := requireUser(ctx, h.sessions)
	if !ok {
		return
	}
	d, err := h.svc.Dashboard(ctx, user)
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, d)
}

func (h *ShipmentHandler) Receipt(ctx *xhttp.RequestCtx) {
	shipment, err := h.svc.Receipt(ctx, pathParam(ctx, "tracking"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, shipment)
}

func (h *ShipmentHandler) Track(ctx *xhttp.RequestCtx) {
	tr, err := h.svc.Track(ctx, pathParam(ctx, "tracking"))
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, tr)
}

func (h *ShipmentHandler) AppendStatus(ctx *xhttp.RequestCtx) {
	if !h.operatorAllowed(ctx) {
		writeError(ctx, xhttp.StatusForbidden, "operator key required")
		return
	}
	var req statusRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	entry, err := h.svc.AppendStatus(ctx, model.StatusUpdateRequest{
		TrackingNumber: pathParam(ctx, "tracking"),
		Status:         model.ShipmentStatus(strings.TrimSpace(req.Status)),
		Location:       req.Location,
		Notes:          req.Notes,
	})
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusCreated, entry)
}

func (h *ShipmentHandler) operatorAllowed(ctx *xhttp.RequestCtx) bool {
	if h.operatorKey == "" {
		return false
	}
	got := ctx.Request.Header.Peek(HeaderOperatorKey)
	return subtle.ConstantTimeCompare(got, []byte(h.operatorKey)) == 1
}
