package httpserver

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type AdminHTTP struct {
	Svc     *service.AdminService
	Reviews *service.ReviewService
}

func (h *AdminHTTP) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.stats")

	sum, err := h.Svc.Stats(ctx)
	if err != nil {
		return serviceError(l, "stats_error", err)
	}
	return c.JSON(http.StatusOK, sum)
}

func (h *AdminHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_users")

	p := pageParams(c)
	total, users, err := h.Svc.ListUsers(ctx, p.Offset, p.Limit)
	if err != nil {
		return serviceError(l, "list_users_error", err)
	}
	return c.JSON(http.StatusOK, paged(p, total, users))
}

func (h *AdminHTTP) ListReviews(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_reviews")

	var productID *uuid.UUID
	if raw := c.QueryParam("product"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return badRequest(l, "list_reviews_error", "invalid product id", err)
		}
		productID = &id
	}

	p := pageParams(c)
	total, items, err := h.Reviews.List(ctx, productID, true, p.Offset, p.Limit)
	if err != nil {
		return serviceError(l, "list_reviews_error", err)
	}
	return c.JSON(http.StatusOK, paged(p, total, items))
}

func (h *AdminHTTP) PatchReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.patch_review")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "patch_review_error", "invalid review id", err)
	}

	var req transport.PatchReviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "patch_review_error", "invalid body", err)
	}
	if err := h.Reviews.SetHidden(ctx, id, req.Hidden); err != nil {
		return serviceError(l, "patch_review_error", err)
	}

	l.Info("patch_review_success", "review_id", id, "hidden", req.Hidden)
	return c.NoContent(http.StatusNoContent)
}
