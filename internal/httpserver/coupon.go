package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CouponHTTP struct {
	Svc *service.CouponService
}

func (h *CouponHTTP) Validate(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "coupon.validate")

	var req transport.ValidateCouponRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "validate_coupon_error", "invalid body", err)
	}

	res, err := h.Svc.Validate(ctx, req.Code, req.OrderTotal)
	if err != nil {
		return serviceError(l, "validate_coupon_error", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *CouponHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_coupons")

	items, err := h.Svc.List(ctx)
	if err != nil {
		return serviceError(l, "list_coupons_error", err)
	}
	return c.JSON(http.StatusOK, items)
}

func (h *CouponHTTP) Create(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.create_coupon")

	var req transport.CreateCouponRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_coupon_error", "invalid body", err)
	}

	coupon, err := h.Svc.Create(ctx, req)
	if err != nil {
		return serviceError(l, "create_coupon_error", err)
	}

	l.Info("create_coupon_success", "code", coupon.Code)
	return c.JSON(http.StatusCreated, coupon)
}

func (h *CouponHTTP) Patch(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.patch_coupon")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "patch_coupon_error", "invalid coupon id", err)
	}

	var req transport.PatchCouponRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "patch_coupon_error", "invalid body", err)
	}

	coupon, err := h.Svc.Patch(ctx, id, req)
	if err != nil {
		return serviceError(l, "patch_coupon_error", err)
	}
	return c.JSON(http.StatusOK, coupon)
}

func (h *CouponHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_coupon")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "delete_coupon_error", "invalid coupon id", err)
	}
	if err := h.Svc.Delete(ctx, id); err != nil {
		return serviceError(l, "delete_coupon_error", err)
	}

	l.Info("delete_coupon_success", "coupon_id", id)
	return c.NoContent(http.StatusNoContent)
}
