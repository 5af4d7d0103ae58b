package repository

import (
	"time"

	"github.com/nimasrn/parcel-shipping/internal/model"
	"github.com/nimasrn/parcel-shipping/pkg/pg"
)

type ShipmentEntity struct {
	pg.Model
	TrackingNumber        string    `gorm:"column:tracking_number;not null;uniqueIndex"`
	UserID                string    `gorm:"column:user_id;not null;index"`
	Origin                string    `gorm:"column:origin;not null"`
	Destination           string    `gorm:"column:destination;not null"`
	SenderName            string    `gorm:"column:sender_name"`
	SenderEmail           string    `gorm:"column:sender_email"`
	SenderPhone           string    `gorm:"column:sender_phone"`
	RecipientName         string    `gorm:"column:recipient_name"`
	RecipientEmail        string    `gorm:"column:recipient_email"`
	RecipientPhone        string    `gorm:"column:recipient_phone"`
	PackagingType         string    `gorm:"column:packaging_type;not null"`
	PackageCount          int       `gorm:"column:package_count;not null;default:1"`
	Weight                float64   `gorm:"column:weight;not null"`
	WeightUnit            string    `gorm:"column:weight_unit;not null"`
	ShippingOption        string    `gorm:"column:shipping_option;not null"`
	ShippingCost          float64   `gorm:"column:shipping_cost;not null"`
	InsuranceCost         float64   `gorm:"column:insurance_cost;not null;default:0"`
	TaxCost               float64   `gorm:"column:tax_cost;not null"`
	TotalCost             float64   `gorm:"column:total_cost;not null"`
	PaymentMethod         string    `gorm:"column:payment_method;not null"`
	HasInsurance          bool      `gorm:"column:has_insurance;not null;default:false"`
	PickupDate            time.Time `gorm:"column:pickup_date;type:date;not null"`
	EstimatedDeliveryDate time.Time `gorm:"column:estimated_delivery_date;type:date;not null"`
	Status                string    `gorm:"column:status;not null;index"`

	History []*StatusHistoryEntity `gorm:"foreignKey:ShipmentID;constraint:OnDelete:CASCADE"`
}

func (ShipmentEntity) TableName() string {
	return "shipments"
}

func toShipmentEntity(s *model.Shipment) *ShipmentEntity {
	if s == nil {
		return nil
	}
	e := &ShipmentEntity{
		TrackingNumber:        s.TrackingNumber,
		UserID:                s.UserID,
		Origin:                s.Origin,
		Destination:           s.Destination,
		SenderName:            s.Sender.Name,
		SenderEmail:           s.Sender.Email,
		SenderPhone:           s.Sender.Phone,
		RecipientName:         s.Recipient.Name,
		RecipientEmail:        s.Recipient.Email,
		RecipientPhone:        s.Recipient.Phone,
		PackagingType:         string(s.PackagingType),
		PackageCount:          s.PackageCount,
		Weight:                s.Weight,
		WeightUnit:            s.WeightUnit,
		ShippingOption:        s.ShippingOption,
		ShippingCost:          s.ShippingCost,
		InsuranceCost:         s.InsuranceCost,
		TaxCost:               s.TaxCost,
		TotalCost:             s.TotalCost,
		PaymentMethod:         string(s.PaymentMethod),
		HasInsurance:          s.HasInsurance,
		PickupDate:            s.PickupDate.Time,
		EstimatedDeliveryDate: s.EstimatedDeliveryDate.Time,
		Status:                string(s.Status),
	}
	e.ID = s.ID
	e.CreatedAt = s.CreatedAt
	e.UpdatedAt = s.UpdatedAt
	return e
}

func toShipmentModel(e *ShipmentEntity) *model.Shipment {
	if e == nil {
		return nil
	}
	return &model.Shipment{
		ID:                    e.ID,
		TrackingNumber:        e.TrackingNumber,
		UserID:                e.UserID,
		Origin:                e.Origin,
		Destination:           e.Destination,
		Sender:                model.Contact{Name: e.SenderName, Email: e.SenderEmail, Phone: e.SenderPhone},
		Recipient:             model.Contact{Name: e.RecipientName, Email: e.RecipientEmail, Phone: e.RecipientPhone},
		PackagingType:         model.PackagingType(e.PackagingType),
		PackageCount:          e.PackageCount,
		Weight:                e.Weight,
		WeightUnit:            e.WeightUnit,
		ShippingOption:        e.ShippingOption,
		ShippingCost:          e.ShippingCost,
		InsuranceCost:         e.InsuranceCost,
		TaxCost:               e.TaxCost,
		TotalCost:             e.TotalCost,
		PaymentMethod:         model.PaymentMethod(e.PaymentMethod),
		HasInsurance:          e.HasInsurance,
		PickupDate:            model.NewDate(e.PickupDate),
		EstimatedDeliveryDate: model.NewDate(e.EstimatedDeliveryDate),
		Status:                model.ShipmentStatus(e.Status),
		CreatedAt:             e.CreatedAt,
		UpdatedAt:             e.UpdatedAt,
	}
}

func toShipmentModels(entities []*ShipmentEntity) []*model.Shipment {
	if entities == nil {
		return nil
	}
	models := make([]*model.Shipment, len(entities))
	for i, e := range entities {
		models[i] = toShipmentModel(e)
	}
	return models
}
