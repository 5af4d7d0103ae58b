package model

import (
	"time"

	"github.com/google/uuid"
)

// StatusHistoryEntry is one append only row of a shipment's timeline.
type StatusHistoryEntry struct {
	ID         uuid.UUID      `json:"id"`
	ShipmentID uuid.UUID      `json:"shipment_id"`
	Status     ShipmentStatus `json:"status"`
	Location   string         `json:"location"`
	Notes      *string        `json:"notes"`
	CreatedAt  time.Time      `json:"created_at"`
}

type StatusUpdateRequest struct {
	TrackingNumber string
	Status         ShipmentStatus
	Location       string
	Notes          string
}
