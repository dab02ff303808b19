package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) GetCart(ctx context.Context, userID uuid.UUID) ([]models.CartItem, error) {
	var items []models.CartItem
	err := r.db(ctx).
		Preload("InventoryItem.Product").
		Preload("InventoryItem.Stock", func(db *gorm.DB) *gorm.DB { return db.Order("location ASC") }).
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// AddToCart increments the quantity of an existing entry or creates a new one.
func (r *GormRepo) AddToCart(ctx context.Context, item *models.CartItem) error {
	return r.db(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.CartItem{}).
			Where("user_id = ? AND inventory_item_id = ?", item.UserID, item.InventoryItemID).
			Update("quantity", gorm.Expr("quantity + ?", item.Quantity))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return tx.Where("user_id = ? AND inventory_item_id = ?", item.UserID, item.InventoryItemID).First(item).Error
		}
		return tx.Create(item).Error
	})
}

func (r *GormRepo) SetCartQuantity(ctx context.Context, userID, inventoryItemID uuid.UUID, qty int) error {
	return notFoundIfNoRows(r.db(ctx).Model(&models.CartItem{}).
		Where("user_id = ? AND inventory_item_id = ?", userID, inventoryItemID).
		Update("quantity", qty))
}

func (r *GormRepo) RemoveFromCart(ctx context.Context, userID, inventoryItemID uuid.UUID) error {
	return notFoundIfNoRows(r.db(ctx).
		Where("user_id = ? AND inventory_item_id = ?", userID, inventoryItemID).
		Delete(&models.CartItem{}))
}

func (r *GormRepo) ClearCart(ctx context.Context, userID uuid.UUID) error {
	return r.db(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}
