package transport

import (
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
)

type RegisterRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	User        *models.User `json:"user"`
}

type AddToCartRequest struct {
	InventoryItemID uuid.UUID `json:"inventory_item_id"`
	Quantity        int       `json:"quantity"`
}

type SetCartQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type CartLine struct {
	InventoryItemID uuid.UUID `json:"inventory_item_id"`
	ProductID       uuid.UUID `json:"product_id"`
	Name            string    `json:"name"`
	Image           string    `json:"image"`
	SKU             string    `json:"sku"`
	Color           string    `json:"color"`
	Size            string    `json:"size"`
	Price           int64     `json:"price"`
	Quantity        int       `json:"quantity"`
	Available       int       `json:"available"`
	LineTotal       int64     `json:"line_total"`
}

type CartResponse struct {
	Items    []CartLine `json:"items"`
	Subtotal int64      `json:"subtotal"`
}

type PlaceOrderRequest struct {
	ShippingAddress models.ShippingAddress `json:"shipping_address"`
	PaymentMethod   models.PaymentMethod   `json:"payment_method"`
	CouponCode      string                 `json:"coupon_code"`
	Location        string                 `json:"location"`
}

type ValidateCouponRequest struct {
	Code       string `json:"code"`
	OrderTotal int64  `json:"order_total"`
}

type ValidateCouponResponse struct {
	CouponCode     string `json:"coupon_code"`
	DiscountAmount int64  `json:"discount_amount"`
}

type CreateCouponRequest struct {
	Code          string            `json:"code"`
	Type          models.CouponType `json:"type"`
	Value         float64           `json:"value"`
	MinOrderValue int64             `json:"min_order_value"`
	ExpiresAt     time.Time         `json:"expires_at"`
	Active        *bool             `json:"active"`
}

type PatchCouponRequest struct {
	Active        *bool      `json:"active"`
	ExpiresAt     *time.Time `json:"expires_at"`
	MinOrderValue *int64     `json:"min_order_value"`
}

type UpdateStatusRequest struct {
	Status models.OrderStatus `json:"status"`
}

type UpdatePaymentRequest struct {
	PaymentStatus models.PaymentStatus `json:"payment_status"`
}

type StockInput struct {
	Location string `json:"location"`
	Quantity int    `json:"quantity"`
}

type VariantInput struct {
	SKU   string       `json:"sku"`
	Price int64        `json:"price"`
	Color string       `json:"color"`
	Size  string       `json:"size"`
	Stock []StockInput `json:"stock"`
}

type CreateProductRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Image       string         `json:"image"`
	CategoryID  *uuid.UUID     `json:"category_id"`
	Variants    []VariantInput `json:"variants"`
}

type PatchProductRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Image       *string    `json:"image"`
	CategoryID  *uuid.UUID `json:"category_id"`
}

type SetStockRequest struct {
	Location string `json:"location"`
	Quantity int    `json:"quantity"`
}

type CreateCategoryRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type CreateReviewRequest struct {
	ProductID uuid.UUID `json:"product_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
}

type PatchReviewRequest struct {
	Hidden bool `json:"hidden"`
}
