package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

// Cancel moves a pending order to cancelled and puts every line's quantity
// back into the stock slot it was taken from. Customers may only cancel their
// own orders; asAdmin lifts that restriction.
func (s *OrderService) Cancel(ctx context.Context, id, actorID uuid.UUID, asAdmin bool) (*models.Order, error) {
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !asAdmin && order.UserID != actorID {
		return nil, fmt.Errorf("%w: order belongs to another user", ErrForbidden)
	}
	if order.Status != models.StatusPending {
		return nil, ErrInvalidState
	}

	l := logging.FromContext(ctx)
	err = s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		ok, err := tx.TransitionStatus(ctx, id, models.StatusPending, models.StatusCancelled, nil)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidState
		}
		if _, err := tx.TransitionPayment(ctx, id, models.PaymentPaid, models.PaymentRefunded); err != nil {
			return err
		}

		for _, item := range order.Items {
			if err := restoreStock(ctx, tx, l, item); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.Events, events.TopicOrders, id.String(), events.Event{
		"type":           "order_cancelled",
		"order_id":       id,
		"user_id":        updated.UserID,
		"by_admin":       asAdmin,
		"payment_status": updated.PaymentStatus,
	})
	return updated, nil
}

// restoreStock falls back to the item's first slot when the original one is
// gone, and skips lines whose variant was deleted.
func restoreStock(ctx context.Context, tx *repo.GormRepo, l *slog.Logger, item models.OrderItem) error {
	ok, err := tx.IncrementStock(ctx, item.StockEntryID, item.Quantity)
	if err != nil || ok {
		return err
	}

	entry, err := tx.FirstStockEntry(ctx, item.InventoryItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			l.Warn("stock_restore_skipped", "sku", item.SKU, "inventory_item_id", item.InventoryItemID, "quantity", item.Quantity)
			return nil
		}
		return err
	}
	_, err = tx.IncrementStock(ctx, entry.ID, item.Quantity)
	return err
}

// AdvanceStatus applies an administrative fulfillment change. Moves go forward
// only; cancelled is routed through Cancel so stock is restored.
func (s *OrderService) AdvanceStatus(ctx context.Context, id uuid.UUID, next models.OrderStatus) (*models.Order, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, next)
	}
	if next == models.StatusCancelled {
		return s.Cancel(ctx, id, uuid.Nil, true)
	}

	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, order.Status, next)
	}

	err = s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		ok, err := tx.TransitionStatus(ctx, id, order.Status, next, nil)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: order changed concurrently", ErrInvalidTransition)
		}
		if next == models.StatusDelivered && order.PaymentMethod == models.PaymentCOD {
			if _, err := tx.TransitionPayment(ctx, id, models.PaymentUnpaid, models.PaymentPaid); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	updated, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.Events, events.TopicOrders, id.String(), events.Event{
		"type":     "order_status_changed",
		"order_id": id,
		"user_id":  updated.UserID,
		"from":     order.Status,
		"to":       next,
	})
	return updated, nil
}

// SetPaymentStatus records a payment outcome reported by an admin or a
// payment callback.
func (s *OrderService) SetPaymentStatus(ctx context.Context, id uuid.UUID, next models.PaymentStatus) (*models.Order, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown payment status %q", ErrValidation, next)
	}

	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.PaymentStatus.CanTransition(next) {
		return nil, fmt.Errorf("%w: payment %s -> %s", ErrInvalidTransition, order.PaymentStatus, next)
	}
	if order.Status == models.StatusCancelled && next == models.PaymentPaid {
		return nil, fmt.Errorf("%w: order is cancelled", ErrInvalidTransition)
	}

	ok, err := s.Repo.TransitionPayment(ctx, id, order.PaymentStatus, next)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: payment changed concurrently", ErrInvalidTransition)
	}

	updated, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.Events, events.TopicOrders, id.String(), events.Event{
		"type":     "order_payment_changed",
		"order_id": id,
		"user_id":  updated.UserID,
		"from":     order.PaymentStatus,
		"to":       next,
	})
	return updated, nil
}
