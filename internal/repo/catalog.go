package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

func preloadVariants(db *gorm.DB) *gorm.DB {
	return db.Preload("Variants", func(db *gorm.DB) *gorm.DB {
		return db.Order("sku ASC")
	}).Preload("Variants.Stock", func(db *gorm.DB) *gorm.DB {
		return db.Order("location ASC")
	})
}

// CreateProduct inserts the product together with its variants and stock entries.
func (r *GormRepo) CreateProduct(ctx context.Context, prod *models.Product) error {
	if err := r.db(ctx).Create(prod).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: sku", ErrDuplicate)
		}
		return err
	}
	return nil
}

func (r *GormRepo) SKUsExist(ctx context.Context, skus []string) ([]string, error) {
	if len(skus) == 0 {
		return nil, nil
	}
	var found []string
	if err := r.db(ctx).Model(&models.InventoryItem{}).Where("sku IN ?", skus).Pluck("sku", &found).Error; err != nil {
		return nil, err
	}
	return found, nil
}

func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := preloadVariants(r.db(ctx)).Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *GormRepo) GetProducts(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []models.Product
	if err := preloadVariants(r.db(ctx)).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) ListProducts(ctx context.Context, categoryID *uuid.UUID, offset, limit int) (int64, []models.Product, error) {
	q := r.db(ctx).Model(&models.Product{})
	if categoryID != nil {
		q = q.Where("category_id = ?", *categoryID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	if err := preloadVariants(q).Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// SearchProducts is the database fallback used when no search index is configured.
func (r *GormRepo) SearchProducts(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error) {
	like := "%" + strings.ToLower(strings.TrimSpace(query)) + "%"
	q := r.db(ctx).Model(&models.Product{}).Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Product
	if err := preloadVariants(q).Order("name ASC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) UpdateProduct(ctx context.Context, id uuid.UUID, fields map[string]any) error {
	if len(fields) == 0 {
		var n int64
		if err := r.db(ctx).Model(&models.Product{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	}
	return notFoundIfNoRows(r.db(ctx).Model(&models.Product{}).Where("id = ?", id).Updates(fields))
}

// DeleteProduct removes the product, its variants, their stock and any cart
// entries pointing at them. Order snapshots are untouched.
func (r *GormRepo) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	return r.WithTx(ctx, func(tx *GormRepo) error {
		variants := func() *gorm.DB {
			return tx.db(ctx).Model(&models.InventoryItem{}).Select("id").Where("product_id = ?", id)
		}

		if err := tx.db(ctx).Where("inventory_item_id IN (?)", variants()).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		if err := tx.db(ctx).Where("inventory_item_id IN (?)", variants()).Delete(&models.StockEntry{}).Error; err != nil {
			return err
		}
		if err := tx.db(ctx).Where("product_id = ?", id).Delete(&models.InventoryItem{}).Error; err != nil {
			return err
		}
		return notFoundIfNoRows(tx.db(ctx).Where("id = ?", id).Delete(&models.Product{}))
	})
}

func (r *GormRepo) CreateCategory(ctx context.Context, c *models.Category) error {
	if err := r.db(ctx).Create(c).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: category %s", ErrDuplicate, c.Name)
		}
		return err
	}
	return nil
}

func (r *GormRepo) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var c models.Category
	if err := r.db(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	var items []models.Category
	if err := r.db(ctx).Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	return r.WithTx(ctx, func(tx *GormRepo) error {
		if err := tx.db(ctx).Model(&models.Product{}).Where("category_id = ?", id).Update("category_id", nil).Error; err != nil {
			return err
		}
		return notFoundIfNoRows(tx.db(ctx).Where("id = ?", id).Delete(&models.Category{}))
	})
}
