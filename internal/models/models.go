package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"       json:"id"`
	Email        string    `gorm:"uniqueIndex;not null"       json:"email"`
	Name         string    `gorm:"not null"                   json:"name"`
	PasswordHash string    `gorm:"not null"                   json:"-"`
	Role         string    `gorm:"not null;default:user"      json:"role"`
	CreatedAt    time.Time `                                  json:"created_at"`
}

type Category struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"  json:"id"`
	Name string    `gorm:"uniqueIndex;not null"  json:"name"`
	Slug string    `gorm:"uniqueIndex;not null"  json:"slug"`
}

type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"     json:"id"`
	Name        string          `gorm:"not null"                 json:"name"`
	Description string          `                                json:"description"`
	Image       string          `                                json:"image"`
	CategoryID  *uuid.UUID      `gorm:"type:uuid;index"          json:"category_id,omitempty"`
	Variants    []InventoryItem `gorm:"foreignKey:ProductID"     json:"variants,omitempty"`
	CreatedAt   time.Time       `                                json:"created_at"`
	UpdatedAt   time.Time       `                                json:"updated_at"`
}

// InventoryItem is one purchasable variant (SKU) of a product.
type InventoryItem struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey"          json:"id"`
	ProductID uuid.UUID    `gorm:"type:uuid;index;not null"      json:"product_id"`
	Product   *Product     `gorm:"foreignKey:ProductID"          json:"product,omitempty"`
	SKU       string       `gorm:"uniqueIndex;not null"          json:"sku"`
	Price     int64        `gorm:"not null;check:price >= 0"     json:"price"`
	Color     string       `                                     json:"color"`
	Size      string       `                                     json:"size"`
	Stock     []StockEntry `gorm:"foreignKey:InventoryItemID"    json:"stock"`
}

// TotalStock sums the quantity over every location.
func (i *InventoryItem) TotalStock() int {
	total := 0
	for _, s := range i.Stock {
		total += s.Quantity
	}
	return total
}

type StockEntry struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"                                json:"id"`
	InventoryItemID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_stock_item_location;not null" json:"inventory_item_id"`
	Location        string    `gorm:"uniqueIndex:idx_stock_item_location;not null"        json:"location"`
	Quantity        int       `gorm:"not null;default:0;check:quantity >= 0"              json:"quantity"`
}

type CartItem struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey"                             json:"id"`
	UserID          uuid.UUID      `gorm:"type:uuid;uniqueIndex:idx_cart_user_item;not null" json:"user_id"`
	InventoryItemID uuid.UUID      `gorm:"type:uuid;uniqueIndex:idx_cart_user_item;not null" json:"inventory_item_id"`
	InventoryItem   *InventoryItem `gorm:"foreignKey:InventoryItemID"                       json:"inventory_item,omitempty"`
	Quantity        int            `gorm:"not null;check:quantity > 0"                      json:"quantity"`
	CreatedAt       time.Time      `                                                        json:"created_at"`
}

func (CartItem) TableName() string {
	return "cart_items"
}

type CouponType string

const (
	CouponPercentage CouponType = "percentage"
	CouponFixed      CouponType = "fixed"
)

type Coupon struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"     json:"id"`
	Code          string     `gorm:"uniqueIndex;not null"     json:"code"`
	Type          CouponType `gorm:"type:varchar(16);not null" json:"type"`
	Value         float64    `gorm:"not null"                 json:"value"`
	MinOrderValue int64      `gorm:"not null;default:0"       json:"min_order_value"`
	ExpiresAt     time.Time  `gorm:"not null"                 json:"expires_at"`
	Active        bool       `gorm:"not null;default:true"    json:"active"`
	CreatedAt     time.Time  `                                json:"created_at"`
}

type ShippingAddress struct {
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
	City     string `json:"city"`
}

type Order struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"                json:"id"`
	UserID          uuid.UUID       `gorm:"type:uuid;index;not null"            json:"user_id"`
	Items           []OrderItem     `gorm:"foreignKey:OrderID"                  json:"items"`
	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:ship_"       json:"shipping_address"`
	PaymentMethod   PaymentMethod   `gorm:"type:varchar(32);not null"           json:"payment_method"`
	PaymentStatus   PaymentStatus   `gorm:"type:varchar(16);not null"           json:"payment_status"`
	CouponCode      string          `                                           json:"coupon_code,omitempty"`
	Subtotal        int64           `gorm:"not null"                            json:"subtotal"`
	ShippingFee     int64           `gorm:"not null"                            json:"shipping_fee"`
	DiscountAmount  int64           `gorm:"not null;default:0"                  json:"discount_amount"`
	TotalPrice      int64           `gorm:"not null"                            json:"total_price"`
	Status          OrderStatus     `gorm:"type:varchar(16);index;not null"     json:"status"`
	Reviews         []Review        `gorm:"foreignKey:OrderID"                  json:"reviews,omitempty"`
	CreatedAt       time.Time       `gorm:"index"                               json:"created_at"`
	UpdatedAt       time.Time       `                                           json:"updated_at"`
}

// OrderItem is a snapshot of the purchased variant; it keeps no foreign key to
// the inventory so later catalog edits or deletions never alter history.
type OrderItem struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"        json:"id"`
	OrderID         uuid.UUID `gorm:"type:uuid;index;not null"    json:"order_id"`
	ProductID       uuid.UUID `gorm:"type:uuid;not null"          json:"product_id"`
	InventoryItemID uuid.UUID `gorm:"type:uuid;not null"          json:"inventory_item_id"`
	StockEntryID    uuid.UUID `gorm:"type:uuid;not null"          json:"stock_entry_id"`
	SKU             string    `gorm:"not null"                    json:"sku"`
	Name            string    `gorm:"not null"                    json:"name"`
	Image           string    `                                   json:"image"`
	Color           string    `                                   json:"color"`
	Size            string    `                                   json:"size"`
	Price           int64     `gorm:"not null"                    json:"price"`
	Quantity        int       `gorm:"not null"                    json:"quantity"`
}

type Review struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"                                json:"id"`
	OrderID   uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_review_order_product;not null" json:"order_id"`
	ProductID uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_review_order_product;not null" json:"product_id"`
	UserID    uuid.UUID `gorm:"type:uuid;index;not null"                            json:"user_id"`
	Rating    int       `gorm:"not null;check:rating >= 1 AND rating <= 5"          json:"rating"`
	Comment   string    `                                                           json:"comment"`
	Hidden    bool      `gorm:"not null;default:false"                              json:"hidden"`
	CreatedAt time.Time `                                                           json:"created_at"`
}

func newID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (u *User) BeforeCreate(*gorm.DB) error          { newID(&u.ID); return nil }
func (c *Category) BeforeCreate(*gorm.DB) error      { newID(&c.ID); return nil }
func (p *Product) BeforeCreate(*gorm.DB) error       { newID(&p.ID); return nil }
func (i *InventoryItem) BeforeCreate(*gorm.DB) error { newID(&i.ID); return nil }
func (s *StockEntry) BeforeCreate(*gorm.DB) error    { newID(&s.ID); return nil }
func (c *CartItem) BeforeCreate(*gorm.DB) error      { newID(&c.ID); return nil }
func (c *Coupon) BeforeCreate(*gorm.DB) error        { newID(&c.ID); return nil }
func (o *Order) BeforeCreate(*gorm.DB) error         { newID(&o.ID); return nil }
func (i *OrderItem) BeforeCreate(*gorm.DB) error     { newID(&i.ID); return nil }
func (r *Review) BeforeCreate(*gorm.DB) error        { newID(&r.ID); return nil }

// All lists every model for AutoMigrate, parents first.
func All() []any {
	return []any{
		&User{}, &Category{}, &Product{}, &InventoryItem{}, &StockEntry{},
		&CartItem{}, &Coupon{}, &Order{}, &OrderItem{}, &Review{},
	}
}
