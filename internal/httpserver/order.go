package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type OrderHTTP struct {
	Svc     *service.OrderService
	Reviews *service.ReviewService
}

func (h *OrderHTTP) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.place_order")

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	var req transport.PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "place_order_error", "invalid body", err)
	}

	order, replayed, err := h.Svc.PlaceOrder(ctx, userID, req, c.Request().Header.Get(HeaderIdempotencyKey))
	if err != nil {
		return serviceError(l, "place_order_error", err)
	}

	if replayed {
		l.Info("place_order_replayed", "order_id", order.ID)
		return c.JSON(http.StatusOK, order)
	}
	l.Info("place_order_success", "order_id", order.ID, "total_price", order.TotalPrice)
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) MyOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.my_orders")

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}

	p := pageParams(c)
	total, items, err := h.Svc.ListMine(ctx, userID, p.Offset, p.Limit)
	if err != nil {
		return serviceError(l, "my_orders_error", err)
	}
	return c.JSON(http.StatusOK, paged(p, total, items))
}

func (h *OrderHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get_order")

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "get_order_error", "invalid order id", err)
	}

	order, err := h.Svc.Get(ctx, id, userID)
	if err != nil {
		return serviceError(l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) CancelOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.cancel_order")

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "cancel_order_error", "invalid order id", err)
	}

	order, err := h.Svc.Cancel(ctx, id, userID, false)
	if err != nil {
		return serviceError(l, "cancel_order_error", err)
	}

	l.Info("cancel_order_success", "order_id", id)
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) CreateReview(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.create_review")

	userID, err := currentUserID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "create_review_error", "invalid order id", err)
	}

	var req transport.CreateReviewRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_review_error", "invalid body", err)
	}

	rev, err := h.Reviews.Create(ctx, userID, id, req)
	if err != nil {
		return serviceError(l, "create_review_error", err)
	}

	l.Info("create_review_success", "review_id", rev.ID)
	return c.JSON(http.StatusCreated, rev)
}

func (h *OrderHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_orders")

	p := pageParams(c)
	total, items, err := h.Svc.ListAll(ctx, models.OrderStatus(c.QueryParam("status")), p.Offset, p.Limit)
	if err != nil {
		return serviceError(l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, paged(p, total, items))
}

func (h *OrderHTTP) UpdateStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_status")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "update_status_error", "invalid order id", err)
	}

	var req transport.UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_status_error", "invalid body", err)
	}

	order, err := h.Svc.AdvanceStatus(ctx, id, req.Status)
	if err != nil {
		return serviceError(l, "update_status_error", err)
	}

	l.Info("update_status_success", "order_id", id, "status", order.Status)
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) UpdatePayment(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_payment")

	id, err := paramID(c, "id")
	if err != nil {
		return badRequest(l, "update_payment_error", "invalid order id", err)
	}

	var req transport.UpdatePaymentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_payment_error", "invalid body", err)
	}

	order, err := h.Svc.SetPaymentStatus(ctx, id, req.PaymentStatus)
	if err != nil {
		return serviceError(l, "update_payment_error", err)
	}

	l.Info("update_payment_success", "order_id", id, "payment_status", order.PaymentStatus)
	return c.JSON(http.StatusOK, order)
}
