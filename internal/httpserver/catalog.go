package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CatalogHTTP struct {
	Svc *service.CatalogService
}

func (h *CatalogHTTP) GetProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_products")

	var categoryID *uuid.UUID
	if raw := c.QueryParam("category"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(l, "get_products_error", "invalid category id", err)
		}
		categoryID = &id
	}

	p := pageParams(c)
	total, items, err := h.Svc.ListProducts(ctx, categoryID, p.Offset, p.Limit)
	if err != nil {
		return serviceError(l, "get_products_error", err)
	}
	return c.JSON(http.StatusOK, paged(p, total, items))
}

func (h *CatalogHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.get_product")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "get_product_error", "invalid product id", err)
	}

	product, err := h.Svc.GetProduct(ctx, id)
	if err != nil {
		return serviceError(l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) Search(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "product.search")

	p := pageParams(c)
	total, items, err := h.Svc.Search(ctx, c.QueryParam("q"), p.Offset, p.Limit)
	if err != nil {
		return serviceError(l, "search_error", err)
	}
	return c.JSON(http.StatusOK, paged(p, total, items))
}

func (h *CatalogHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.create_product")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "product_create_error", "invalid body", err)
	}

	product, err := h.Svc.CreateProduct(ctx, req)
	if err != nil {
		return serviceError(l, "product_create_error", err)
	}

	l.Info("create_product_success", "product_id", product.ID)
	return c.JSON(http.StatusCreated, product)
}

func (h *CatalogHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.patch_product")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "product_patch_error", "invalid product id", err)
	}

	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "product_patch_error", "invalid body", err)
	}

	product, err := h.Svc.PatchProduct(ctx, id, req)
	if err != nil {
		return serviceError(l, "product_patch_error", err)
	}

	l.Info("patch_product_success", "product_id", id)
	return c.JSON(http.StatusOK, product)
}

func (h *CatalogHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_product")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "product_delete_error", "invalid product id", err)
	}
	if err := h.Svc.DeleteProduct(ctx, id); err != nil {
		return serviceError(l, "product_delete_error", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) SetStock(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.set_stock")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "set_stock_error", "invalid inventory id", err)
	}

	var req transport.SetStockRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "set_stock_error", "invalid body", err)
	}

	item, err := h.Svc.SetStock(ctx, id, req)
	if err != nil {
		return serviceError(l, "set_stock_error", err)
	}

	l.Info("set_stock_success", "inventory_item_id", id, "location", req.Location, "quantity", req.Quantity)
	return c.JSON(http.StatusOK, item)
}

func (h *CatalogHTTP) DeleteInventoryItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_inventory_item")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "delete_inventory_item_error", "invalid inventory id", err)
	}
	if err := h.Svc.DeleteInventoryItem(ctx, id); err != nil {
		return serviceError(l, "delete_inventory_item_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CatalogHTTP) GetCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "category.list")

	items, err := h.Svc.ListCategories(ctx)
	if err != nil {
		return serviceError(l, "list_categories_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CatalogHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.create_category")

	var req transport.CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_category_error", "invalid body", err)
	}

	cat, err := h.Svc.CreateCategory(ctx, req)
	if err != nil {
		return serviceError(l, "create_category_error", err)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *CatalogHTTP) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_category")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "delete_category_error", "invalid category id", err)
	}
	if err := h.Svc.DeleteCategory(ctx, id); err != nil {
		return serviceError(l, "delete_category_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}
