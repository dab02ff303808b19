package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

// ProductIndex mirrors products into a full-text search engine.
type ProductIndex interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, from, size int) (int64, []uuid.UUID, error)
}

type CatalogService struct {
	Repo   *repo.GormRepo
	Index  ProductIndex
	Events events.Publisher
}

func (s *CatalogService) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return nil, err
	}
	return p, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, categoryID *uuid.UUID, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.ListProducts(ctx, categoryID, offset, limit)
}

// Search queries the index when one is configured and falls back to a
// database match when it is absent or failing.
func (s *CatalogService) Search(ctx context.Context, query string, offset, limit int) (int64, []models.Product, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return 0, nil, fmt.Errorf("%w: q required", ErrValidation)
	}

	if s.Index != nil {
		total, ids, err := s.Index.Search(ctx, query, offset, limit)
		if err == nil {
			products, err := s.Repo.GetProducts(ctx, ids)
			if err != nil {
				return 0, nil, err
			}
			return total, orderByIDs(products, ids), nil
		}
		logging.FromContext(ctx).Warn("search_index_error", "error", err)
	}
	return s.Repo.SearchProducts(ctx, query, offset, limit)
}

func orderByIDs(products []models.Product, ids []uuid.UUID) []models.Product {
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	out := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out
}

func (s *CatalogService) CreateProduct(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	if len(req.Variants) == 0 {
		return nil, fmt.Errorf("%w: at least one variant required", ErrValidation)
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(req.Variants))
	skus := make([]string, 0, len(req.Variants))
	variants := make([]models.InventoryItem, 0, len(req.Variants))
	for _, v := range req.Variants {
		sku := strings.TrimSpace(v.SKU)
		if sku == "" {
			return nil, fmt.Errorf("%w: sku required", ErrValidation)
		}
		if seen[sku] {
			return nil, fmt.Errorf("%w: duplicate sku %s", ErrValidation, sku)
		}
		seen[sku] = true
		if v.Price < 0 {
			return nil, fmt.Errorf("%w: price must be >= 0", ErrValidation)
		}

		locations := make(map[string]bool, len(v.Stock))
		stock := make([]models.StockEntry, 0, len(v.Stock))
		for _, st := range v.Stock {
			loc := strings.TrimSpace(st.Location)
			if loc == "" {
				return nil, fmt.Errorf("%w: stock location required", ErrValidation)
			}
			if locations[loc] {
				return nil, fmt.Errorf("%w: duplicate location %s for %s", ErrValidation, loc, sku)
			}
			locations[loc] = true
			if st.Quantity < 0 {
				return nil, fmt.Errorf("%w: stock quantity must be >= 0", ErrValidation)
			}
			stock = append(stock, models.StockEntry{Location: loc, Quantity: st.Quantity})
		}

		skus = append(skus, sku)
		variants = append(variants, models.InventoryItem{
			SKU:   sku,
			Price: v.Price,
			Color: strings.TrimSpace(v.Color),
			Size:  strings.TrimSpace(v.Size),
			Stock: stock,
		})
	}

	taken, err := s.Repo.SKUsExist(ctx, skus)
	if err != nil {
		return nil, err
	}
	if len(taken) > 0 {
		return nil, fmt.Errorf("%w: sku %s already exists", ErrConflict, strings.Join(taken, ", "))
	}

	prod := &models.Product{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Image:       strings.TrimSpace(req.Image),
		CategoryID:  req.CategoryID,
		Variants:    variants,
	}
	if err := s.Repo.CreateProduct(ctx, prod); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, fmt.Errorf("%w: sku already exists", ErrConflict)
		}
		return nil, err
	}

	created, err := s.GetProduct(ctx, prod.ID)
	if err != nil {
		return nil, err
	}
	s.productChanged(ctx, "product_created", created)
	return created, nil
}

func (s *CatalogService) checkCategory(ctx context.Context, id *uuid.UUID) error {
	if id == nil {
		return nil
	}
	if _, err := s.Repo.GetCategory(ctx, *id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: category %s", ErrNotFound, *id)
		}
		return err
	}
	return nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, id uuid.UUID, req transport.PatchProductRequest) (*models.Product, error) {
	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", ErrValidation)
		}
		fields["name"] = name
	}
	if req.Description != nil {
		fields["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Image != nil {
		fields["image"] = strings.TrimSpace(*req.Image)
	}
	if req.CategoryID != nil {
		if err := s.checkCategory(ctx, req.CategoryID); err != nil {
			return nil, err
		}
		fields["category_id"] = *req.CategoryID
	}

	if err := s.Repo.UpdateProduct(ctx, id, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return nil, err
	}

	prod, err := s.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	s.productChanged(ctx, "product_updated", prod)
	return prod, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: product %s", ErrNotFound, id)
		}
		return err
	}

	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_unindex_error", "product_id", id, "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicProducts, id.String(), events.Event{
		"type":       "product_deleted",
		"product_id": id,
	})
	return nil
}

// SetStock writes the absolute quantity held at one location.
func (s *CatalogService) SetStock(ctx context.Context, itemID uuid.UUID, req transport.SetStockRequest) (*models.InventoryItem, error) {
	loc := strings.TrimSpace(req.Location)
	if loc == "" {
		return nil, fmt.Errorf("%w: location required", ErrValidation)
	}
	if req.Quantity < 0 {
		return nil, fmt.Errorf("%w: quantity must be >= 0", ErrValidation)
	}

	item, err := s.Repo.GetInventoryItem(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: inventory item %s", ErrNotFound, itemID)
		}
		return nil, err
	}
	if _, err := s.Repo.SetStock(ctx, item.ID, loc, req.Quantity); err != nil {
		return nil, err
	}

	item, err = s.Repo.GetInventoryItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	publish(ctx, s.Events, events.TopicProducts, item.ProductID.String(), events.Event{
		"type":              "stock_updated",
		"product_id":        item.ProductID,
		"inventory_item_id": item.ID,
		"location":          loc,
		"quantity":          req.Quantity,
	})
	return item, nil
}

func (s *CatalogService) DeleteInventoryItem(ctx context.Context, id uuid.UUID) error {
	item, err := s.Repo.GetInventoryItem(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: inventory item %s", ErrNotFound, id)
		}
		return err
	}
	if err := s.Repo.DeleteInventoryItem(ctx, id); err != nil {
		return err
	}

	if prod, err := s.Repo.GetProduct(ctx, item.ProductID); err == nil {
		s.productChanged(ctx, "product_updated", prod)
	}
	return nil
}

func (s *CatalogService) productChanged(ctx context.Context, kind string, p *models.Product) {
	if s.Index != nil {
		if err := s.Index.IndexProduct(ctx, p); err != nil {
			logging.FromContext(ctx).Warn("search_index_error", "product_id", p.ID, "error", err)
		}
	}
	publish(ctx, s.Events, events.TopicProducts, p.ID.String(), events.Event{
		"type":       kind,
		"product_id": p.ID,
		"name":       p.Name,
	})
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

func Slugify(s string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func (s *CatalogService) CreateCategory(ctx context.Context, req transport.CreateCategoryRequest) (*models.Category, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name required", ErrValidation)
	}
	slug := Slugify(req.Slug)
	if slug == "" {
		slug = Slugify(name)
	}
	if slug == "" {
		return nil, fmt.Errorf("%w: slug required", ErrValidation)
	}

	c := &models.Category{Name: name, Slug: slug}
	if err := s.Repo.CreateCategory(ctx, c); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, fmt.Errorf("%w: category already exists", ErrConflict)
		}
		return nil, err
	}
	return c, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.Repo.ListCategories(ctx)
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id uuid.UUID) error {
	if err := s.Repo.DeleteCategory(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: category %s", ErrNotFound, id)
		}
		return err
	}
	return nil
}
