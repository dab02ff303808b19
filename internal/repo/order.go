package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db(ctx).Create(order).Error
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("sku ASC") }).
		Preload("Reviews").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *GormRepo) ListOrdersByUser(ctx context.Context, userID uuid.UUID, offset, limit int) (int64, []models.Order, error) {
	q := r.db(ctx).Model(&models.Order{}).Where("user_id = ?", userID)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Order
	if err := q.Preload("Items").Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) ListOrders(ctx context.Context, status models.OrderStatus, offset, limit int) (int64, []models.Order, error) {
	q := r.db(ctx).Model(&models.Order{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Order
	if err := q.Preload("Items").Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// TransitionStatus moves the order from one status to another only if it is
// still in the expected status. extra columns are written in the same update.
func (r *GormRepo) TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.OrderStatus, extra map[string]any) (bool, error) {
	fields := map[string]any{"status": to, "updated_at": time.Now()}
	for k, v := range extra {
		fields[k] = v
	}
	res := r.db(ctx).Model(&models.Order{}).Where("id = ? AND status = ?", id, from).Updates(fields)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepo) TransitionPayment(ctx context.Context, id uuid.UUID, from, to models.PaymentStatus) (bool, error) {
	res := r.db(ctx).Model(&models.Order{}).
		Where("id = ? AND payment_status = ?", id, from).
		Updates(map[string]any{"payment_status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
