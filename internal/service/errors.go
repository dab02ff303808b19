package service

import (
	"errors"
	"fmt"
)

var (
	ErrValidation   = errors.New("validation")   // 400
	ErrUnauthorized = errors.New("unauthorized") // 401
	ErrForbidden    = errors.New("forbidden")    // 403
	ErrNotFound     = errors.New("not found")    // 404
	ErrConflict     = errors.New("conflict")     // 409
)

var (
	ErrEmptyCart          = fmt.Errorf("%w: cart is empty", ErrValidation)
	ErrInvalidTransition  = fmt.Errorf("%w: status transition not allowed", ErrValidation)
	ErrInvalidState       = fmt.Errorf("%w: order can only be cancelled while pending", ErrValidation)
	ErrReviewNotAllowed   = fmt.Errorf("%w: only delivered orders can be reviewed", ErrConflict)
	ErrIdempotencyPending = fmt.Errorf("%w: a request with this idempotency key is in progress", ErrConflict)
)

// InsufficientStockError names the variant that could not be reserved.
type InsufficientStockError struct {
	SKU       string
	Location  string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("insufficient stock for %s at %s: requested %d, available %d", e.SKU, e.Location, e.Requested, e.Available)
	}
	return fmt.Sprintf("insufficient stock for %s: requested %d, available %d", e.SKU, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return ErrValidation }
