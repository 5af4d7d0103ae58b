package handlers

import (
	"context"
	"strings"

	"github.com/fasthttp/router"
	"github.com/nimasrn/parcel-shipping/internal/model"
	"github.com/nimasrn/parcel-shipping/internal/rates"
	xhttp "github.com/nimasrn/parcel-shipping/pkg/http"
)

type RateService interface {
	Quote(ctx context.Context, in rates.Input) (*rates.Quote, error)
}

type RateHandler struct {
	svc RateService
}

func RegisterRateRoutes(e *router.Group, h *RateHandler) {
	e.GET("/rates/options", h.ListOptions)
	e.POST("/rates/quote", h.Quote)
}

func NewRateHandler(svc RateService) *RateHandler {
	return &RateHandler{svc: svc}
}

type quoteRequest struct {
	Origin         string     `json:"origin"`
	Destination    string     `json:"destination"`
	ShippingOption string     `json:"shipping_option"`
	PackageWeight  flexValue  `json:"package_weight"`
	WeightUnit     string     `json:"weight_unit"`
	PackageCount   flexValue  `json:"package_count"`
	HasInsurance   bool       `json:"has_insurance"`
	PickupDate     model.Date `json:"pickup_date"`
}

type amounts struct {
	ShippingCost  float64 `json:"shipping_cost"`
	InsuranceCost float64 `json:"insurance_cost"`
	Tax           float64 `json:"tax"`
	Total         float64 `json:"total"`
}

type quoteResponse struct {
	*rates.Quote
	Display               amounts    `json:"display"`
	PickupDate            model.Date `json:"pickup_date"`
	EstimatedDeliveryDate model.Date `json:"estimated_delivery_date"`
}

type optionsResponse struct {
	Items []rates.Option `json:"items"`
}

func (r quoteRequest) input() rates.Input {
	return rates.Input{
		Origin:       r.Origin,
		Destination:  r.Destination,
		Option:       strings.TrimSpace(r.ShippingOption),
		Weight:       rates.ParseWeight(string(r.PackageWeight)),
		WeightUnit:   r.WeightUnit,
		PackageCount: rates.ParseCount(string(r.PackageCount)),
		Insured:      r.HasInsurance,
		PickupDate:   r.PickupDate.Time,
	}
}

func newQuoteResponse(q *rates.Quote) quoteResponse {
	resp := quoteResponse{
		Quote: q,
		Display: amounts{
			ShippingCost:  rates.RoundCents(q.ShippingCost),
			InsuranceCost: rates.RoundCents(q.InsuranceCost),
			Tax:           rates.RoundCents(q.Tax),
			Total:         rates.RoundCents(q.Total),
		},
	}
	if !q.PickupDate.IsZero() {
		resp.PickupDate = model.NewDate(q.PickupDate)
		resp.EstimatedDeliveryDate = model.NewDate(q.EstimatedDelivery)
	}
	return resp
}

/* --------------------------------- Routes ----------------------------------- */

func (h *RateHandler) ListOptions(ctx *xhttp.RequestCtx) {
	writeJSON(ctx, xhttp.StatusOK, optionsResponse{Items: rates.Options()})
}

func (h *RateHandler) Quote(ctx *xhttp.RequestCtx) {
	var req quoteRequest
	if err := readJSON(ctx, &req); err != nil {
		writeError(ctx, xhttp.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	q, err := h.svc.Quote(ctx, req.input())
	if err != nil {
		writeServiceError(ctx, err)
		return
	}
	writeJSON(ctx, xhttp.StatusOK, newQuoteResponse(q))
}
