package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/nimasrn/parcel-shipping/internal/model"
	"github.com/nimasrn/parcel-shipping/pkg/pg"
	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a shipment does not exist.
	ErrNotFound = errors.New("shipment not found")
	// ErrDuplicateTrackingNumber is returned when a generated tracking
	// number collides with an existing one.
	ErrDuplicateTrackingNumber = errors.New("tracking number already exists")
	// ErrStatusChanged is returned when the shipment no longer has the
	// status the caller based its update on.
	ErrStatusChanged = errors.New("shipment status changed")
)

type ShipmentRepository struct {
	*pg.DB
}

func NewShipmentRepository(db *pg.DB) *ShipmentRepository {
	return &ShipmentRepository{
		db,
	}
}

func (r *ShipmentRepository) Create(ctx context.Context, s *model.Shipment) (*model.Shipment, error) {
	entity := toShipmentEntity(s)

	if err := r.Write(ctx).WithContext(ctx).Create(entity).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrDuplicateTrackingNumber
		}
		return nil, err
	}

	return toShipmentModel(entity), nil
}

func (r *ShipmentRepository) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*model.Shipment, error) {
	var entity ShipmentEntity
	err := r.Read(ctx).WithContext(ctx).
		Where("tracking_number = ?", trackingNumber).
		First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return toShipmentModel(&entity), nil
}

// List returns shipments newest first.
func (r *ShipmentRepository) List(ctx context.Context, f model.ShipmentFilter) ([]*model.Shipment, int64, error) {
	q := r.Read(ctx).WithContext(ctx).Model(&ShipmentEntity{})

	if f.UserID != "" {
		q = q.Where("user_id = ?", f.UserID)
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		q = q.Where("status IN ?", statuses)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var entities []*ShipmentEntity
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&entities).Error; err != nil {
		return nil, 0, err
	}

	return toShipmentModels(entities), total, nil
}

// UpdateStatus moves a shipment from one status to another. The update
// only applies while the row still has status from, so two writers that
// read the same status cannot both win. Callers pair it with a history
// insert inside one transaction.
func (r *ShipmentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to model.ShipmentStatus) error {
	res := r.Write(ctx).WithContext(ctx).
		Model(&ShipmentEntity{}).
		Where("id = ? AND status = ?", id, string(from)).
		Update("status", string(to))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	var n int64
	if err := r.Write(ctx).WithContext(ctx).Model(&ShipmentEntity{}).Where("id = ?", id).Count(&n).Error; err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return ErrStatusChanged
}

type statusCount struct {
	Status string
	Count  int64
}

// CountByStatus returns how many shipments the user has per status.
func (r *ShipmentRepository) CountByStatus(ctx context.Context, userID string) (map[model.ShipmentStatus]int64, error) {
	var rows []statusCount
	err := r.Read(ctx).WithContext(ctx).
		Model(&ShipmentEntity{}).
		Select("status, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[model.ShipmentStatus]int64, len(rows))
	for _, row := range rows {
		out[model.ShipmentStatus(row.Status)] = row.Count
	}
	return out, nil
}

// isDuplicateKey relies on TranslateError, the message check covers
// drivers that do not translate.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}
