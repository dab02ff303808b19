package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/idempotency"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const DefaultShippingFee int64 = 30000

type OrderService struct {
	Repo        *repo.GormRepo
	Coupons     *CouponService
	Events      events.Publisher
	Idempotency idempotency.Store
	ShippingFee int64
	Now         func() time.Time
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *OrderService) coupons() *CouponService {
	if s.Coupons != nil {
		return s.Coupons
	}
	return &CouponService{Repo: s.Repo, Now: s.Now}
}

func validatePlaceOrder(req *transport.PlaceOrderRequest) error {
	addr := &req.ShippingAddress
	addr.FullName = strings.TrimSpace(addr.FullName)
	addr.Phone = strings.TrimSpace(addr.Phone)
	addr.Address = strings.TrimSpace(addr.Address)
	addr.City = strings.TrimSpace(addr.City)

	switch {
	case addr.FullName == "":
		return fmt.Errorf("%w: shipping_address.full_name required", ErrValidation)
	case addr.Phone == "":
		return fmt.Errorf("%w: shipping_address.phone required", ErrValidation)
	case addr.Address == "":
		return fmt.Errorf("%w: shipping_address.address required", ErrValidation)
	case addr.City == "":
		return fmt.Errorf("%w: shipping_address.city required", ErrValidation)
	}
	if !req.PaymentMethod.Valid() {
		return fmt.Errorf("%w: payment_method must be cod, card or bank_transfer", ErrValidation)
	}
	req.Location = strings.TrimSpace(req.Location)
	return nil
}

// PickStockEntry chooses the slot a line is fulfilled from. A named location
// must cover qty on its own. Otherwise the fullest slot that covers qty wins,
// ties going to the smallest location name.
func PickStockEntry(item *models.InventoryItem, qty int, location string) (*models.StockEntry, error) {
	if location != "" {
		for i := range item.Stock {
			e := &item.Stock[i]
			if e.Location != location {
				continue
			}
			if e.Quantity < qty {
				return nil, &InsufficientStockError{SKU: item.SKU, Location: location, Requested: qty, Available: e.Quantity}
			}
			return e, nil
		}
		return nil, &InsufficientStockError{SKU: item.SKU, Location: location, Requested: qty}
	}

	var best *models.StockEntry
	most := 0
	for i := range item.Stock {
		e := &item.Stock[i]
		if e.Quantity > most {
			most = e.Quantity
		}
		if e.Quantity < qty {
			continue
		}
		if best == nil || e.Quantity > best.Quantity || (e.Quantity == best.Quantity && e.Location < best.Location) {
			best = e
		}
	}
	if best == nil {
		return nil, &InsufficientStockError{SKU: item.SKU, Requested: qty, Available: most}
	}
	return best, nil
}

// PlaceOrder turns the user's cart into an order. When idemKey is set, a repeat
// call with the same key returns the order created by the first call and
// replayed is true.
func (s *OrderService) PlaceOrder(ctx context.Context, userID uuid.UUID, req transport.PlaceOrderRequest, idemKey string) (order *models.Order, replayed bool, err error) {
	if err := validatePlaceOrder(&req); err != nil {
		return nil, false, err
	}

	idemKey = strings.TrimSpace(idemKey)
	if idemKey == "" || s.Idempotency == nil {
		order, err = s.placeOrder(ctx, userID, req)
		return order, false, err
	}

	key := userID.String() + ":" + idemKey
	prev, err := s.Idempotency.Reserve(ctx, key)
	if err != nil {
		if errors.Is(err, idempotency.ErrInFlight) {
			return nil, false, ErrIdempotencyPending
		}
		return nil, false, err
	}
	if prev != "" {
		id, err := uuid.Parse(prev)
		if err != nil {
			return nil, false, fmt.Errorf("idempotency: stored result %q: %w", prev, err)
		}
		order, err := s.Repo.GetOrder(ctx, id)
		if err != nil {
			return nil, false, err
		}
		return order, true, nil
	}

	order, err = s.placeOrder(ctx, userID, req)
	if err != nil {
		if rerr := s.Idempotency.Release(ctx, key); rerr != nil {
			logging.FromContext(ctx).Warn("idempotency_release_error", "key", idemKey, "error", rerr)
		}
		return nil, false, err
	}
	if cerr := s.Idempotency.Complete(ctx, key, order.ID.String()); cerr != nil {
		logging.FromContext(ctx).Warn("idempotency_complete_error", "key", idemKey, "error", cerr)
	}
	return order, false, nil
}

type plannedLine struct {
	cart  models.CartItem
	entry *models.StockEntry
}

func (s *OrderService) placeOrder(ctx context.Context, userID uuid.UUID, req transport.PlaceOrderRequest) (*models.Order, error) {
	shippingFee := s.ShippingFee
	if shippingFee < 0 {
		shippingFee = 0
	}

	var order *models.Order
	err := s.Repo.WithTx(ctx, func(tx *repo.GormRepo) error {
		cart, err := tx.GetCart(ctx, userID)
		if err != nil {
			return err
		}
		if len(cart) == 0 {
			return ErrEmptyCart
		}

		var subtotal int64
		plan := make([]plannedLine, 0, len(cart))
		for _, line := range cart {
			inv := line.InventoryItem
			if inv == nil {
				return fmt.Errorf("%w: inventory item %s no longer exists", ErrValidation, line.InventoryItemID)
			}
			entry, err := PickStockEntry(inv, line.Quantity, req.Location)
			if err != nil {
				return err
			}
			subtotal += inv.Price * int64(line.Quantity)
			plan = append(plan, plannedLine{cart: line, entry: entry})
		}

		var (
			discount   int64
			couponCode string
		)
		if strings.TrimSpace(req.CouponCode) != "" {
			c, d, err := s.coupons().apply(ctx, tx, req.CouponCode, subtotal)
			if err != nil {
				return err
			}
			discount, couponCode = d, c.Code
		}

		items := make([]models.OrderItem, 0, len(plan))
		for _, p := range plan {
			inv := p.cart.InventoryItem
			ok, err := tx.DecrementStock(ctx, p.entry.ID, p.cart.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				available := 0
				if current, err := tx.GetStockEntry(ctx, p.entry.ID); err == nil {
					available = current.Quantity
				}
				return &InsufficientStockError{SKU: inv.SKU, Location: p.entry.Location, Requested: p.cart.Quantity, Available: available}
			}

			item := models.OrderItem{
				ProductID:       inv.ProductID,
				InventoryItemID: inv.ID,
				StockEntryID:    p.entry.ID,
				SKU:             inv.SKU,
				Color:           inv.Color,
				Size:            inv.Size,
				Price:           inv.Price,
				Quantity:        p.cart.Quantity,
			}
			if inv.Product != nil {
				item.Name = inv.Product.Name
				item.Image = inv.Product.Image
			}
			items = append(items, item)
		}

		order = &models.Order{
			UserID:          userID,
			Items:           items,
			ShippingAddress: req.ShippingAddress,
			PaymentMethod:   req.PaymentMethod,
			PaymentStatus:   models.PaymentUnpaid,
			CouponCode:      couponCode,
			Subtotal:        subtotal,
			ShippingFee:     shippingFee,
			DiscountAmount:  discount,
			TotalPrice:      subtotal + shippingFee - discount,
			Status:          models.StatusPending,
		}
		if err := tx.CreateOrder(ctx, order); err != nil {
			return err
		}
		return tx.ClearCart(ctx, userID)
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.TopicOrders, order.ID.String(), events.Event{
		"type":        "order_created",
		"order_id":    order.ID,
		"user_id":     userID,
		"total_price": order.TotalPrice,
		"items":       len(order.Items),
		"coupon_code": order.CouponCode,
	})
	return order, nil
}

func (s *OrderService) Get(ctx context.Context, id, userID uuid.UUID) (*models.Order, error) {
	order, err := s.getOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("%w: order belongs to another user", ErrForbidden)
	}
	return order, nil
}

func (s *OrderService) getOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %s", ErrNotFound, id)
		}
		return nil, err
	}
	return order, nil
}

func (s *OrderService) ListMine(ctx context.Context, userID uuid.UUID, offset, limit int) (int64, []models.Order, error) {
	return s.Repo.ListOrdersByUser(ctx, userID, offset, limit)
}

func (s *OrderService) ListAll(ctx context.Context, status models.OrderStatus, offset, limit int) (int64, []models.Order, error) {
	if status != "" && !status.Valid() {
		return 0, nil, fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return s.Repo.ListOrders(ctx, status, offset, limit)
}
