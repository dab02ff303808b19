package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) CreateReview(ctx context.Context, rev *models.Review) error {
	if err := r.db(ctx).Create(rev).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: review already exists", ErrDuplicate)
		}
		return err
	}
	return nil
}

func (r *GormRepo) ListReviews(ctx context.Context, productID *uuid.UUID, includeHidden bool, offset, limit int) (int64, []models.Review, error) {
	q := r.db(ctx).Model(&models.Review{})
	if productID != nil {
		q = q.Where("product_id = ?", *productID)
	}
	if !includeHidden {
		q = q.Where("hidden = ?", false)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}
	var items []models.Review
	if err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) SetReviewHidden(ctx context.Context, id uuid.UUID, hidden bool) error {
	return notFoundIfNoRows(r.db(ctx).Model(&models.Review{}).Where("id = ?", id).Update("hidden", hidden))
}
