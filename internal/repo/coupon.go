package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) CreateCoupon(ctx context.Context, c *models.Coupon) error {
	if err := r.db(ctx).Create(c).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: coupon %s", ErrDuplicate, c.Code)
		}
		return err
	}
	return nil
}

func (r *GormRepo) GetCouponByCode(ctx context.Context, code string) (*models.Coupon, error) {
	var c models.Coupon
	if err := r.db(ctx).Where("code = ?", code).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) GetCoupon(ctx context.Context, id uuid.UUID) (*models.Coupon, error) {
	var c models.Coupon
	if err := r.db(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	var items []models.Coupon
	if err := r.db(ctx).Order("created_at DESC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) UpdateCoupon(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	return notFoundIfNoRows(r.db(ctx).Model(&models.Coupon{}).Where("id = ?", id).Updates(fields))
}

func (r *GormRepo) DeleteCoupon(ctx context.Context, id uuid.UUID) error {
	return notFoundIfNoRows(r.db(ctx).Where("id = ?", id).Delete(&models.Coupon{}))
}
