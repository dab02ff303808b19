package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type ReviewService struct {
	Repo *repo.GormRepo
}

// Create records a review for a product of one of the user's delivered orders.
func (s *ReviewService) Create(ctx context.Context, userID, orderID uuid.UUID, req transport.CreateReviewRequest) (*models.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}

	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, orderID)
		}
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("%w: order belongs to another user", ErrForbidden)
	}
	if order.Status != models.StatusDelivered {
		return nil, ErrReviewNotAllowed
	}

	found := false
	for _, it := range order.Items {
		if it.ProductID == req.ProductID {
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: product is not part of this order", ErrValidation)
	}

	rev := &models.Review{
		OrderID:   orderID,
		ProductID: req.ProductID,
		UserID:    userID,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
	}
	if err := s.Repo.CreateReview(ctx, rev); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, fmt.Errorf("%w: product already reviewed for this order", ErrConflict)
		}
		return nil, err
	}
	return rev, nil
}

func (s *ReviewService) List(ctx context.Context, productID *uuid.UUID, includeHidden bool, offset, limit int) (int64, []models.Review, error) {
	return s.Repo.ListReviews(ctx, productID, includeHidden, offset, limit)
}

func (s *ReviewService) SetHidden(ctx context.Context, id uuid.UUID, hidden bool) error {
	if err := s.Repo.SetReviewHidden(ctx, id, hidden); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: review %s", ErrNotFound, id)
		}
		return err
	}
	return nil
}
