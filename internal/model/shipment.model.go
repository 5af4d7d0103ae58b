package model

import (
	"time"

	"github.com/google/uuid"
)

type PackagingType string

const (
	PackagingOwn       PackagingType = "own"
	PackagingBoxSmall  PackagingType = "box_small"
	PackagingBoxMedium PackagingType = "box_medium"
	PackagingBoxLarge  PackagingType = "box_large"
	PackagingEnvelope  PackagingType = "envelope"
)

func (p PackagingType) Valid() bool {
	switch p {
	case PackagingOwn, PackagingBoxSmall, PackagingBoxMedium, PackagingBoxLarge, PackagingEnvelope:
		return true
	}
	return false
}

type PaymentMethod string

const (
	PaymentPaypal PaymentMethod = "paypal"
	PaymentCard   PaymentMethod = "card"
	PaymentMpesa  PaymentMethod = "mpesa"
)

func (p PaymentMethod) Valid() bool {
	return p == PaymentPaypal || p == PaymentCard || p == PaymentMpesa
}

type Contact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

type Shipment struct {
	ID                    uuid.UUID      `json:"id"`
	TrackingNumber        string         `json:"tracking_number"`
	UserID                string         `json:"user_id"`
	Origin                string         `json:"origin"`
	Destination           string         `json:"destination"`
	Sender                Contact        `json:"sender"`
	Recipient             Contact        `json:"recipient"`
	PackagingType         PackagingType  `json:"packaging_type"`
	PackageCount          int            `json:"package_count"`
	Weight                float64        `json:"weight"`
	WeightUnit            string         `json:"weight_unit"`
	ShippingOption        string         `json:"shipping_option"`
	ShippingCost          float64        `json:"shipping_cost"`
	InsuranceCost         float64        `json:"insurance_cost"`
	TaxCost               float64        `json:"tax_cost"`
	TotalCost             float64        `json:"total_cost"`
	PaymentMethod         PaymentMethod  `json:"payment_method"`
	HasInsurance          bool           `json:"has_insurance"`
	PickupDate            Date           `json:"pickup_date"`
	EstimatedDeliveryDate Date           `json:"estimated_delivery_date"`
	Status                ShipmentStatus `json:"status"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
}

// ShipmentCreateRequest is what the booking form submits. Numeric fields
// are already parsed, weight 0 means missing or unparseable.
type ShipmentCreateRequest struct {
	Origin         string
	Destination    string
	Sender         Contact
	Recipient      Contact
	PackagingType  PackagingType
	PackageCount   int
	Weight         float64
	WeightUnit     string
	ShippingOption string
	PaymentMethod  PaymentMethod
	HasInsurance   bool
	PickupDate     Date
}

// ShipmentFilter controls List queries.
type ShipmentFilter struct {
	UserID   string
	Statuses []ShipmentStatus
	Limit    int // default 50
	Offset   int
}

type ShipmentStats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	InTransit int `json:"in_transit"`
	Delivered int `json:"delivered"`
}

// StatsFromCounts folds per status shipment counts into the dashboard
// counters.
func StatsFromCounts(counts map[ShipmentStatus]int64) ShipmentStats {
	var s ShipmentStats
	for status, n := range counts {
		c := int(n)
		s.Total += c
		switch {
		case status == StatusPending:
			s.Pending += c
		case status.InTransit():
			s.InTransit += c
		case status == StatusDelivered:
			s.Delivered += c
		}
	}
	return s
}

type Dashboard struct {
	User      User          `json:"user"`
	Shipments []*Shipment   `json:"shipments"`
	Stats     ShipmentStats `json:"stats"`
}

// Tracking is the read model of the tracking page.
type Tracking struct {
	Shipment *Shipment             `json:"shipment"`
	History  []*StatusHistoryEntry `json:"history"`
	Progress int                   `json:"progress"`
}
