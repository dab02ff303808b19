package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get_cart")

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	cart, err := h.Svc.Get(ctx, userID)
	if err != nil {
		return serviceError(l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req transport.AddToCartRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_to_cart_error", "invalid body", err)
	}

	cart, err := h.Svc.Add(ctx, userID, req)
	if err != nil {
		return serviceError(l, "add_to_cart_error", err)
	}

	l.Info("add_to_cart_success", "inventory_item_id", req.InventoryItemID)
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) SetQuantity(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.set_quantity")

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	itemID, err := paramID(c, "inventoryId")
	if err != nil {
		return badRequest(l, "set_quantity_error", "invalid inventory id", err)
	}

	var req transport.SetCartQuantityRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "set_quantity_error", "invalid body", err)
	}

	cart, err := h.Svc.SetQuantity(ctx, userID, itemID, req.Quantity)
	if err != nil {
		return serviceError(l, "set_quantity_error", err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	itemID, err := paramID(c, "inventoryId")
	if err != nil {
		return badRequest(l, "remove_item_error", "invalid inventory id", err)
	}

	cart, err := h.Svc.Remove(ctx, userID, itemID)
	if err != nil {
		return serviceError(l, "remove_item_error", err)
	}

	l.Info("remove_item_success", "inventory_item_id", itemID)
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	if err := h.Svc.Clear(ctx, userID); err != nil {
		return serviceError(l, "clear_cart_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}
