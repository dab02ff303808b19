package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/models"
)

func (r *GormRepo) GetInventoryItem(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := r.db(ctx).
		Preload("Product").
		Preload("Stock", func(db *gorm.DB) *gorm.DB { return db.Order("location ASC") }).
		Where("id = ?", id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) GetStockEntry(ctx context.Context, id uuid.UUID) (*models.StockEntry, error) {
	var entry models.StockEntry
	if err := r.db(ctx).Where("id = ?", id).First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// FirstStockEntry returns the slot with the smallest location name for an item.
func (r *GormRepo) FirstStockEntry(ctx context.Context, itemID uuid.UUID) (*models.StockEntry, error) {
	var entry models.StockEntry
	if err := r.db(ctx).Where("inventory_item_id = ?", itemID).Order("location ASC").First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// SetStock writes an absolute quantity for (item, location), creating the slot
// when it does not exist yet.
func (r *GormRepo) SetStock(ctx context.Context, itemID uuid.UUID, location string, quantity int) (*models.StockEntry, error) {
	entry := models.StockEntry{InventoryItemID: itemID, Location: location, Quantity: quantity}
	err := r.db(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "inventory_item_id"}, {Name: "location"}},
		DoUpdates: clause.AssignmentColumns([]string{"quantity"}),
	}).Create(&entry).Error
	if err != nil {
		return nil, err
	}

	var stored models.StockEntry
	if err := r.db(ctx).Where("inventory_item_id = ? AND location = ?", itemID, location).First(&stored).Error; err != nil {
		return nil, err
	}
	return &stored, nil
}

// DecrementStock takes qty units from the slot only if enough remain.
// It reports false when the slot holds fewer than qty units.
func (r *GormRepo) DecrementStock(ctx context.Context, entryID uuid.UUID, qty int) (bool, error) {
	res := r.db(ctx).Model(&models.StockEntry{}).
		Where("id = ? AND quantity >= ?", entryID, qty).
		Update("quantity", gorm.Expr("quantity - ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepo) IncrementStock(ctx context.Context, entryID uuid.UUID, qty int) (bool, error) {
	res := r.db(ctx).Model(&models.StockEntry{}).
		Where("id = ?", entryID).
		Update("quantity", gorm.Expr("quantity + ?", qty))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *GormRepo) DeleteInventoryItem(ctx context.Context, id uuid.UUID) error {
	return r.WithTx(ctx, func(tx *GormRepo) error {
		if err := tx.db(ctx).Where("inventory_item_id = ?", id).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.db(ctx).Where("inventory_item_id = ?", id).Delete(&models.StockEntry{}).Error; err != nil {
			return err
		}
		return notFoundIfNoRows(tx.db(ctx).Where("id = ?", id).Delete(&models.InventoryItem{}))
	})
}
