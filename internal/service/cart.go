package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/events"
)

type CartService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

func (s *CartService) Get(ctx context.Context, userID uuid.UUID) (*transport.CartResponse, error) {
	items, err := s.Repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return cartResponse(items), nil
}

func cartResponse(items []models.CartItem) *transport.CartResponse {
	resp := &transport.CartResponse{Items: make([]transport.CartLine, 0, len(items))}
	for _, it := range items {
		line := transport.CartLine{
			InventoryItemID: it.InventoryItemID,
			Quantity:        it.Quantity,
		}
		if inv := it.InventoryItem; inv != nil {
			line.ProductID = inv.ProductID
			line.SKU = inv.SKU
			line.Color = inv.Color
			line.Size = inv.Size
			line.Price = inv.Price
			line.Available = inv.TotalStock()
			line.LineTotal = inv.Price * int64(it.Quantity)
			if inv.Product != nil {
				line.Name = inv.Product.Name
				line.Image = inv.Product.Image
			}
		}
		resp.Subtotal += line.LineTotal
		resp.Items = append(resp.Items, line)
	}
	return resp
}

func (s *CartService) Add(ctx context.Context, userID uuid.UUID, req transport.AddToCartRequest) (*transport.CartResponse, error) {
	if req.InventoryItemID == uuid.Nil {
		return nil, fmt.Errorf("%w: inventory_item_id required", ErrValidation)
	}
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}

	if _, err := s.Repo.GetInventoryItem(ctx, req.InventoryItemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: inventory item %s", ErrNotFound, req.InventoryItemID)
		}
		return nil, err
	}

	item := &models.CartItem{UserID: userID, InventoryItemID: req.InventoryItemID, Quantity: req.Quantity}
	if err := s.Repo.AddToCart(ctx, item); err != nil {
		return nil, err
	}

	publish(ctx, s.Events, events.TopicCart, userID.String(), events.Event{
		"type":              "cart_item_added",
		"user_id":           userID,
		"inventory_item_id": req.InventoryItemID,
		"quantity":          item.Quantity,
	})
	return s.Get(ctx, userID)
}

func (s *CartService) SetQuantity(ctx context.Context, userID, inventoryItemID uuid.UUID, qty int) (*transport.CartResponse, error) {
	if qty <= 0 {
		return nil, fmt.Errorf("%w: quantity must be > 0", ErrValidation)
	}
	if err := s.Repo.SetCartQuantity(ctx, userID, inventoryItemID, qty); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: item not in cart", ErrNotFound)
		}
		return nil, err
	}
	return s.Get(ctx, userID)
}

func (s *CartService) Remove(ctx context.Context, userID, inventoryItemID uuid.UUID) (*transport.CartResponse, error) {
	if err := s.Repo.RemoveFromCart(ctx, userID, inventoryItemID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: item not in cart", ErrNotFound)
		}
		return nil, err
	}

	publish(ctx, s.Events, events.TopicCart, userID.String(), events.Event{
		"type":              "cart_item_removed",
		"user_id":           userID,
		"inventory_item_id": inventoryItemID,
	})
	return s.Get(ctx, userID)
}

func (s *CartService) Clear(ctx context.Context, userID uuid.UUID) error {
	if err := s.Repo.ClearCart(ctx, userID); err != nil {
		return err
	}
	publish(ctx, s.Events, events.TopicCart, userID.String(), events.Event{
		"type":    "cart_cleared",
		"user_id": userID,
	})
	return nil
}
