package model

import "time"

type EventType string

const (
	EventShipmentBooked        EventType = "shipment.booked"
	EventShipmentStatusChanged EventType = "shipment.status_changed"
)

// ShipmentEvent is published on the event stream after a change commits.
type ShipmentEvent struct {
	ID             string         `json:"id"`
	Type           EventType      `json:"type"`
	TrackingNumber string         `json:"tracking_number"`
	Status         ShipmentStatus `json:"status"`
	Location       string         `json:"location,omitempty"`
	Origin         string         `json:"origin"`
	Destination    string         `json:"destination"`
	SenderEmail    string         `json:"sender_email"`
	RecipientEmail string         `json:"recipient_email"`
	EstimatedDate  Date           `json:"estimated_delivery_date"`
	TotalCost      float64        `json:"total_cost"`
	OccurredAt     time.Time      `json:"occurred_at"`
}

// Notification is what the notifier hands to the provider.
type Notification struct {
	ID      string `json:"id"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}
