package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/testutil"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type fakeIndex struct {
	mu        sync.Mutex
	indexed   map[uuid.UUID]string
	deleted   []uuid.UUID
	hits      []uuid.UUID
	searchErr error
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{indexed: map[uuid.UUID]string{}}
}

func (f *fakeIndex) IndexProduct(_ context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed[p.ID] = p.Name
	return nil
}

func (f *fakeIndex) DeleteProduct(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeIndex) Search(context.Context, string, int, int) (int64, []uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.searchErr != nil {
		return 0, nil, f.searchErr
	}
	return int64(len(f.hits)), f.hits, nil
}

func newCatalog(t *testing.T) (*CatalogService, *fakeIndex, *recordingPublisher) {
	t.Helper()
	idx := newFakeIndex()
	pub := &recordingPublisher{}
	return &CatalogService{Repo: repo.New(testutil.NewDB(t)), Index: idx, Events: pub}, idx, pub
}

func shirtRequest(sku string) transport.CreateProductRequest {
	return transport.CreateProductRequest{
		Name:        "Linen shirt",
		Description: "Breathable summer shirt",
		Image:       "https://img.example/linen.jpg",
		Variants: []transport.VariantInput{{
			SKU: sku, Price: 350000, Color: "white", Size: "M",
			Stock: []transport.StockInput{{Location: "HN", Quantity: 4}, {Location: "HCM", Quantity: 6}},
		}},
	}
}

func TestCatalog_CreateProduct(t *testing.T) {
	t.Parallel()
	svc, idx, pub := newCatalog(t)
	ctx := context.Background()

	cat, err := svc.CreateCategory(ctx, transport.CreateCategoryRequest{Name: "Áo Sơ Mi Nam"})
	require.NoError(t, err)
	assert.NotEmpty(t, cat.Slug)

	req := shirtRequest("LS-M")
	req.CategoryID = &cat.ID
	p, err := svc.CreateProduct(ctx, req)
	require.NoError(t, err)
	require.Len(t, p.Variants, 1)
	assert.Equal(t, 10, p.Variants[0].TotalStock())
	assert.Equal(t, "Linen shirt", idx.indexed[p.ID])
	assert.Equal(t, []string{"product_created"}, pub.types())

	_, err = svc.CreateProduct(ctx, shirtRequest("LS-M"))
	assert.ErrorIs(t, err, ErrConflict)

	total, items, err := svc.ListProducts(ctx, &cat.ID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, p.ID, items[0].ID)
}

func TestCatalog_CreateProductValidation(t *testing.T) {
	t.Parallel()
	svc, _, _ := newCatalog(t)
	ctx := context.Background()

	missingCategory := shirtRequest("A")
	id := uuid.New()
	missingCategory.CategoryID = &id

	negativePrice := shirtRequest("B")
	negativePrice.Variants[0].Price = -1

	negativeStock := shirtRequest("C")
	negativeStock.Variants[0].Stock[0].Quantity = -5

	dupLocation := shirtRequest("D")
	dupLocation.Variants[0].Stock[1].Location = "HN"

	dupSKU := shirtRequest("E")
	dupSKU.Variants = append(dupSKU.Variants, dupSKU.Variants[0])

	tests := []struct {
		name    string
		req     transport.CreateProductRequest
		wantErr error
	}{
		{"no name", transport.CreateProductRequest{Variants: shirtRequest("X").Variants}, ErrValidation},
		{"no variants", transport.CreateProductRequest{Name: "x"}, ErrValidation},
		{"unknown category", missingCategory, ErrNotFound},
		{"negative price", negativePrice, ErrValidation},
		{"negative stock", negativeStock, ErrValidation},
		{"duplicate location", dupLocation, ErrValidation},
		{"duplicate sku in request", dupSKU, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateProduct(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCatalog_PatchDeleteAndStock(t *testing.T) {
	t.Parallel()
	svc, idx, pub := newCatalog(t)
	ctx := context.Background()

	p, err := svc.CreateProduct(ctx, shirtRequest("LS-M"))
	require.NoError(t, err)

	name := "Linen shirt v2"
	patched, err := svc.PatchProduct(ctx, p.ID, transport.PatchProductRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, patched.Name)
	assert.Equal(t, name, idx.indexed[p.ID])

	empty := " "
	_, err = svc.PatchProduct(ctx, p.ID, transport.PatchProductRequest{Name: &empty})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.PatchProduct(ctx, uuid.New(), transport.PatchProductRequest{Name: &name})
	assert.ErrorIs(t, err, ErrNotFound)

	item, err := svc.SetStock(ctx, p.Variants[0].ID, transport.SetStockRequest{Location: "DN", Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, 13, item.TotalStock())

	_, err = svc.SetStock(ctx, p.Variants[0].ID, transport.SetStockRequest{Location: "DN", Quantity: -1})
	assert.ErrorIs(t, err, ErrValidation)
	_, err = svc.SetStock(ctx, uuid.New(), transport.SetStockRequest{Location: "DN", Quantity: 1})
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.DeleteProduct(ctx, p.ID))
	assert.Equal(t, []uuid.UUID{p.ID}, idx.deleted)
	assert.ErrorIs(t, svc.DeleteProduct(ctx, p.ID), ErrNotFound)

	assert.Equal(t, []string{"product_created", "product_updated", "stock_updated", "product_deleted"}, pub.types())
}

func TestCatalog_DeleteInventoryItem(t *testing.T) {
	t.Parallel()
	svc, _, _ := newCatalog(t)
	ctx := context.Background()

	req := shirtRequest("LS-M")
	req.Variants = append(req.Variants, transport.VariantInput{SKU: "LS-L", Price: 360000})
	p, err := svc.CreateProduct(ctx, req)
	require.NoError(t, err)
	require.Len(t, p.Variants, 2)

	require.NoError(t, svc.DeleteInventoryItem(ctx, p.Variants[0].ID))
	got, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Len(t, got.Variants, 1)

	assert.ErrorIs(t, svc.DeleteInventoryItem(ctx, p.Variants[0].ID), ErrNotFound)
}

func TestCatalog_Search(t *testing.T) {
	t.Parallel()
	svc, idx, _ := newCatalog(t)
	ctx := context.Background()

	a, err := svc.CreateProduct(ctx, shirtRequest("A-1"))
	require.NoError(t, err)
	other := shirtRequest("B-1")
	other.Name = "Wool scarf"
	other.Description = "Warm"
	b, err := svc.CreateProduct(ctx, other)
	require.NoError(t, err)

	idx.hits = []uuid.UUID{b.ID, a.ID}
	total, items, err := svc.Search(ctx, "anything", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, b.ID, items[0].ID)

	idx.searchErr = errors.New("cluster down")
	total, items, err = svc.Search(ctx, "SCARF", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, b.ID, items[0].ID)

	_, _, err = svc.Search(ctx, "  ", 0, 10)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCatalog_Categories(t *testing.T) {
	t.Parallel()
	svc, _, _ := newCatalog(t)
	ctx := context.Background()

	c, err := svc.CreateCategory(ctx, transport.CreateCategoryRequest{Name: "Shoes", Slug: "Shoes & Boots"})
	require.NoError(t, err)
	assert.Equal(t, "shoes-boots", c.Slug)

	_, err = svc.CreateCategory(ctx, transport.CreateCategoryRequest{Name: "Shoes"})
	assert.ErrorIs(t, err, ErrConflict)

	req := shirtRequest("S-1")
	req.CategoryID = &c.ID
	p, err := svc.CreateProduct(ctx, req)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteCategory(ctx, c.ID))
	got, err := svc.GetProduct(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got.CategoryID)

	cats, err := svc.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, cats)
	assert.ErrorIs(t, svc.DeleteCategory(ctx, c.ID), ErrNotFound)
}
