package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/nimasrn/parcel-shipping/internal/model"
	"github.com/nimasrn/parcel-shipping/pkg/pg"
)

type StatusHistoryRepository struct {
	*pg.DB
}

func NewStatusHistoryRepository(db *pg.DB) *StatusHistoryRepository {
	return &StatusHistoryRepository{
		db,
	}
}

func (r *StatusHistoryRepository) Create(ctx context.Context, h *model.StatusHistoryEntry) (*model.StatusHistoryEntry, error) {
	entity := toStatusHistoryEntity(h)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		return nil, err
	}

	return toStatusHistoryModel(entity), nil
}

// ListByShipment returns the timeline newest first. Rows sharing a
// created_at come back in no particular order.
func (r *StatusHistoryRepository) ListByShipment(ctx context.Context, shipmentID uuid.UUID) ([]*model.StatusHistoryEntry, error) {
	var entities []*StatusHistoryEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("shipment_id = ?", shipmentID).
		Order("created_at DESC").
		Find(&entities).Error
	if err != nil {
		return nil, err
	}
	return toStatusHistoryModels(entities), nil
}
