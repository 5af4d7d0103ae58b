package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/nimasrn/parcel-shipping/internal/model"
)

// StatusHistoryEntity rows are never updated, so there is no updated_at.
type StatusHistoryEntity struct {
	ID         uuid.UUID `gorm:"primaryKey;type:uuid"`
	ShipmentID uuid.UUID `gorm:"column:shipment_id;type:uuid;not null;index"`
	Status     string    `gorm:"column:status;not null"`
	Location   string    `gorm:"column:location;not null"`
	Notes      *string   `gorm:"column:notes"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime;index"`
}

func (StatusHistoryEntity) TableName() string {
	return "shipment_status_history"
}

func toStatusHistoryEntity(h *model.StatusHistoryEntry) *StatusHistoryEntity {
	if h == nil {
		return nil
	}
	id := h.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	return &StatusHistoryEntity{
		ID:         id,
		ShipmentID: h.ShipmentID,
		Status:     string(h.Status),
		Location:   h.Location,
		Notes:      h.Notes,
		CreatedAt:  h.CreatedAt,
	}
}

func toStatusHistoryModel(e *StatusHistoryEntity) *model.StatusHistoryEntry {
	if e == nil {
		return nil
	}
	return &model.StatusHistoryEntry{
		ID:         e.ID,
		ShipmentID: e.ShipmentID,
		Status:     model.ShipmentStatus(e.Status),
		Location:   e.Location,
		Notes:      e.Notes,
		CreatedAt:  e.CreatedAt,
	}
}

func toStatusHistoryModels(entities []*StatusHistoryEntity) []*model.StatusHistoryEntry {
	if entities == nil {
		return nil
	}
	models := make([]*model.StatusHistoryEntry, len(entities))
	for i, e := range entities {
		models[i] = toStatusHistoryModel(e)
	}
	return models
}
