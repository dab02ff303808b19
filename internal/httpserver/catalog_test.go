package httpserver

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/testutil"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type pagedProducts struct {
	Data []models.Product `json:"data"`
	Meta struct {
		Total int64 `json:"total"`
	} `json:"meta"`
}

func TestCatalogBrowse(t *testing.T) {
	env := newTestEnv(t)
	admin := testutil.SeedUser(t, env.DB, "admin@example.com", models.RoleAdmin)
	adminTok := env.token(t, admin)

	rec := env.do(t, http.MethodPost, "/admin/categories", transport.CreateCategoryRequest{Name: "Ao So Mi"}, adminTok)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	cat := decode[models.Category](t, rec)

	rec = env.do(t, http.MethodPost, "/admin/products", transport.CreateProductRequest{
		Name:        "Linen shirt",
		Description: "Breathable summer shirt",
		CategoryID:  &cat.ID,
		Variants:    []transport.VariantInput{{SKU: "LS-M", Price: 250000}},
	}, adminTok)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	testutil.SeedProduct(t, env.DB, "Cotton tee", "CT-M", 100000, "HN", 2)

	rec = env.do(t, http.MethodGet, "/products", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode[pagedProducts](t, rec).Meta.Total)

	rec = env.do(t, http.MethodGet, "/products?category="+cat.ID.String(), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[pagedProducts](t, rec)
	require.Len(t, list.Data, 1)
	assert.Equal(t, "Linen shirt", list.Data[0].Name)

	rec = env.do(t, http.MethodGet, "/products/search?q=summer", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	found := decode[pagedProducts](t, rec)
	require.Len(t, found.Data, 1)
	assert.Equal(t, "Linen shirt", found.Data[0].Name)

	rec = env.do(t, http.MethodGet, "/products/"+list.Data[0].ID.String(), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[models.Product](t, rec).Variants, 1)

	rec = env.do(t, http.MethodGet, "/products/not-a-uuid", nil, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodGet, "/categories", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	cats := decode[[]models.Category](t, rec)
	require.Len(t, cats, 1)
	assert.Equal(t, "ao-so-mi", cats[0].Slug)
}
