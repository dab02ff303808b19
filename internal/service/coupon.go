package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
)

var (
	ErrCouponNotFound      = fmt.Errorf("%w: coupon not found", ErrNotFound)
	ErrCouponInactive      = fmt.Errorf("%w: coupon is not active", ErrValidation)
	ErrCouponExpired       = fmt.Errorf("%w: coupon has expired", ErrValidation)
	ErrCouponMinimumNotMet = fmt.Errorf("%w: order total below coupon minimum", ErrValidation)
)

var vnd = message.NewPrinter(language.Vietnamese)

// FormatVND renders an amount in dong, e.g. "100.000 ₫".
func FormatVND(amount int64) string {
	return vnd.Sprintf("%d ₫", amount)
}

type MinimumNotMetError struct {
	Minimum  int64
	Subtotal int64
}

func (e *MinimumNotMetError) Error() string {
	return fmt.Sprintf("order must be at least %s to use this coupon", FormatVND(e.Minimum))
}

func (e *MinimumNotMetError) Unwrap() error { return ErrCouponMinimumNotMet }

// Evaluate returns the discount a coupon grants on subtotal at time now.
// The result is rounded to whole units and never exceeds subtotal.
func Evaluate(c *models.Coupon, subtotal int64, now time.Time) (int64, error) {
	if !c.Active {
		return 0, ErrCouponInactive
	}
	if now.After(c.ExpiresAt) {
		return 0, ErrCouponExpired
	}
	if subtotal < c.MinOrderValue {
		return 0, &MinimumNotMetError{Minimum: c.MinOrderValue, Subtotal: subtotal}
	}

	var discount int64
	switch c.Type {
	case models.CouponPercentage:
		discount = int64(math.Round(float64(subtotal) * c.Value / 100))
	case models.CouponFixed:
		discount = int64(math.Round(c.Value))
	default:
		return 0, fmt.Errorf("%w: unknown coupon type %q", ErrValidation, c.Type)
	}

	if discount < 0 {
		discount = 0
	}
	if discount > subtotal {
		discount = subtotal
	}
	return discount, nil
}

func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

type CouponService struct {
	Repo *repo.GormRepo
	Now  func() time.Time
}

func (s *CouponService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// apply looks the code up and evaluates it. r lets checkout evaluate inside
// its own transaction.
func (s *CouponService) apply(ctx context.Context, r *repo.GormRepo, code string, subtotal int64) (*models.Coupon, int64, error) {
	code = NormalizeCouponCode(code)
	if code == "" {
		return nil, 0, fmt.Errorf("%w: coupon code required", ErrValidation)
	}

	c, err := r.GetCouponByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, ErrCouponNotFound
		}
		return nil, 0, err
	}

	discount, err := Evaluate(c, subtotal, s.now())
	if err != nil {
		return nil, 0, err
	}
	return c, discount, nil
}

func (s *CouponService) Validate(ctx context.Context, code string, subtotal int64) (*transport.ValidateCouponResponse, error) {
	if subtotal < 0 {
		return nil, fmt.Errorf("%w: subtotal must be >= 0", ErrValidation)
	}
	c, discount, err := s.apply(ctx, s.Repo, code, subtotal)
	if err != nil {
		return nil, err
	}
	return &transport.ValidateCouponResponse{CouponCode: c.Code, DiscountAmount: discount}, nil
}

func (s *CouponService) Create(ctx context.Context, req transport.CreateCouponRequest) (*models.Coupon, error) {
	code := NormalizeCouponCode(req.Code)
	if code == "" {
		return nil, fmt.Errorf("%w: code required", ErrValidation)
	}
	switch req.Type {
	case models.CouponPercentage:
		if req.Value <= 0 || req.Value > 100 {
			return nil, fmt.Errorf("%w: percentage must be in (0, 100]", ErrValidation)
		}
	case models.CouponFixed:
		if req.Value <= 0 {
			return nil, fmt.Errorf("%w: fixed value must be > 0", ErrValidation)
		}
	default:
		return nil, fmt.Errorf("%w: type must be percentage or fixed", ErrValidation)
	}
	if req.MinOrderValue < 0 {
		return nil, fmt.Errorf("%w: min_order_value must be >= 0", ErrValidation)
	}
	if req.ExpiresAt.IsZero() {
		return nil, fmt.Errorf("%w: expires_at required", ErrValidation)
	}

	c := &models.Coupon{
		Code:          code,
		Type:          req.Type,
		Value:         req.Value,
		MinOrderValue: req.MinOrderValue,
		ExpiresAt:     req.ExpiresAt,
		Active:        req.Active == nil || *req.Active,
	}
	if err := s.Repo.CreateCoupon(ctx, c); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, fmt.Errorf("%w: coupon %s already exists", ErrConflict, code)
		}
		return nil, err
	}
	// gorm skips zero values on insert, so a false Active falls back to the column default.
	if !c.Active {
		if err := s.Repo.UpdateCoupon(ctx, c.ID, map[string]any{"active": false}); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (s *CouponService) List(ctx context.Context) ([]models.Coupon, error) {
	return s.Repo.ListCoupons(ctx)
}

func (s *CouponService) Patch(ctx context.Context, id uuid.UUID, req transport.PatchCouponRequest) (*models.Coupon, error) {
	fields := map[string]any{}
	if req.Active != nil {
		fields["active"] = *req.Active
	}
	if req.ExpiresAt != nil {
		fields["expires_at"] = *req.ExpiresAt
	}
	if req.MinOrderValue != nil {
		if *req.MinOrderValue < 0 {
			return nil, fmt.Errorf("%w: min_order_value must be >= 0", ErrValidation)
		}
		fields["min_order_value"] = *req.MinOrderValue
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: nothing to update", ErrValidation)
	}

	if err := s.Repo.UpdateCoupon(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	return s.Repo.GetCoupon(ctx, id)
}

func (s *CouponService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteCoupon(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCouponNotFound
		}
		return err
	}
	return nil
}
