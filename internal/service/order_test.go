package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/testutil"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/pkg/events"
	"github.com/Skotchmaster/storefront/pkg/idempotency"
)

type published struct {
	Topic string
	Event events.Event
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) Publish(_ context.Context, topic, _ string, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{Topic: topic, Event: ev})
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Event["type"].(string))
	}
	return out
}

type orderEnv struct {
	db     *gorm.DB
	repo   *repo.GormRepo
	svc    *OrderService
	events *recordingPublisher
	user   models.User
}

func newOrderEnv(t *testing.T) *orderEnv {
	t.Helper()
	gdb := testutil.NewDB(t)
	r := repo.New(gdb)
	pub := &recordingPublisher{}
	now := func() time.Time { return fixedNow }
	return &orderEnv{
		db:     gdb,
		repo:   r,
		events: pub,
		user:   testutil.SeedUser(t, gdb, "buyer@example.com", models.RoleUser),
		svc: &OrderService{
			Repo:        r,
			Coupons:     &CouponService{Repo: r, Now: now},
			Events:      pub,
			Idempotency: idempotency.NewMemoryStore(time.Hour),
			ShippingFee: DefaultShippingFee,
			Now:         now,
		},
	}
}

func (e *orderEnv) addToCart(t *testing.T, userID, itemID uuid.UUID, qty int) {
	t.Helper()
	require.NoError(t, e.repo.AddToCart(context.Background(), &models.CartItem{UserID: userID, InventoryItemID: itemID, Quantity: qty}))
}

func (e *orderEnv) stockOf(t *testing.T, entryID uuid.UUID) int {
	t.Helper()
	entry, err := e.repo.GetStockEntry(context.Background(), entryID)
	require.NoError(t, err)
	return entry.Quantity
}

func (e *orderEnv) orderCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, e.db.Model(&models.Order{}).Count(&n).Error)
	return n
}

func (e *orderEnv) coupon(t *testing.T, code string, typ models.CouponType, value float64, minimum int64, expires time.Time) {
	t.Helper()
	require.NoError(t, e.repo.CreateCoupon(context.Background(), &models.Coupon{
		Code: code, Type: typ, Value: value, MinOrderValue: minimum, ExpiresAt: expires, Active: true,
	}))
}

func checkoutRequest() transport.PlaceOrderRequest {
	return transport.PlaceOrderRequest{
		ShippingAddress: models.ShippingAddress{FullName: "Nguyen Van A", Phone: "0900000000", Address: "1 Le Loi", City: "Ha Noi"},
		PaymentMethod:   models.PaymentCOD,
	}
}

func assertTotals(t *testing.T, o *models.Order) {
	t.Helper()
	var sum int64
	for _, it := range o.Items {
		sum += it.Price * int64(it.Quantity)
	}
	assert.Equal(t, sum, o.Subtotal)
	assert.Equal(t, sum+o.ShippingFee-o.DiscountAmount, o.TotalPrice)
}

func TestPlaceOrder_NoCoupon(t *testing.T) {
	t.Parallel()
	env := newOrderEnv(t)
	ctx := context.Background()
	fx := testutil.SeedProduct(t, env.db, "Ao thun", "AT-M", 100000, "HN", 5)
	env.addToCart(t, env.user.ID, fx.Item.ID, 2)

	order, replayed, err := env.svc.PlaceOrder(ctx, env.user.ID, checkoutRequest(), "")
	require.NoError(t, err)
	assert.False(t, replayed)

	assert.EqualValues(t, 230000, order.TotalPrice)
	assert.EqualValues(t, 200000, order.Subtotal)
	assert.EqualValues(t, 30000, order.ShippingFee)
	assert.Zero(t, order.DiscountAmount)
	assert.Equal(t, models.StatusPending, order.Status)
	assert.Equal(t, models.PaymentUnpaid, order.PaymentStatus)
	assertTotals(t, order)

	require.Len(t, order.Items, 1)
	item := order.Items[0]
	assert.Equal(t, "Ao thun", item.Name)
	assert.Equal(t, "AT-M", item.SKU)
	assert.Equal(t, fx.Entry.ID, item.StockEntryID)
	assert.Equal(t, fx.Product.Image, item.Image)

	assert.Equal(t, 3, env.stockOf(t, fx.Entry.ID))
	cart, err := env.repo.GetCart(ctx, env.user.ID)
	require.NoError(t, err)
	assert.Empty(t, cart)
	assert.Equal(t, []string{"order_created"}, env.events.types())
}

func TestPlaceOrder_WithCoupons(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		typ       models.CouponType
		value     float64
		wantDisc  int64
		wantTotal int64
	}{
		{"percentage", models.CouponPercentage, 10, 20000, 210000},
		{"fixed clamped", models.CouponFixed, 300000, 200000, 30000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newOrderEnv(t)
			fx := testutil.SeedProduct(t, env.db, "Ao thun", "AT-M", 100000, "HN", 5)
			env.addToCart(t, env.user.ID, fx.Item.ID, 2)
			env.coupon(t, "PROMO", tt.typ, tt.value, 0, fixedNow.Add(time.Hour))

			req := checkoutRequest()
			req.CouponCode = "promo"
			order, _, err := env.svc.PlaceOrder(context.Background(), env.user.ID, req, "")
			require.NoError(t, err)

			assert.Equal(t, tt.wantDisc, order.DiscountAmount)
			assert.Equal(t, tt.wantTotal, order.TotalPrice)
			assert.Equal(t, "PROMO", order.CouponCode)
			assertTotals(t, order)
		})
	}
}

func TestPlaceOrder_InvalidCouponRejectsOrder(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		minimum int64
		expires time.Time
		code    string
		wantErr error
	}{
		{"expired", 0, fixedNow.Add(-time.Minute), "PROMO", ErrCouponExpired},
		{"below minimum", 1_000_000, fixedNow.Add(time.Hour), "PROMO", ErrCouponMinimumNotMet},
		{"unknown", 0, fixedNow.Add(time.Hour), "MISSING", ErrCouponNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newOrderEnv(t)
			fx := testutil.SeedProduct(t, env.db, "Ao thun", "AT-M", 100000, "HN", 5)
			env.addToCart(t, env.user.ID, fx.Item.ID, 2)
			env.coupon(t, "PROMO", models.CouponFixed, 10000, tt.minimum, tt.expires)

			req := checkoutRequest()
			req.CouponCode = tt.code
			_, _, err := env.svc.PlaceOrder(context.Background(), env.user.ID, req, "")
			require.ErrorIs(t, err, tt.wantErr)

			assert.Zero(t, env.orderCount(t))
			assert.Equal(t, 5, env.stockOf(t, fx.Entry.ID))
		})
	}
}

func TestPlaceOrder_EmptyCart(t *testing.T) {
	t.Parallel()
	env := newOrderEnv(t)

	_, _, err := env.svc.PlaceOrder(context.Background(), env.user.ID, checkoutRequest(), "")
	require.ErrorIs(t, err, ErrEmptyCart)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, env.orderCount(t))
}

func TestPlaceOrder_InsufficientStock(t *testing.T) {
	t.Parallel()
	env := newOrderEnv(t)
	ctx := context.Background()
	ok := testutil.SeedProduct(t, env.db, "Quan", "Q-L", 50000, "HN", 10)
	low := testutil.SeedProduct(t, env.db, "Ao thun", "AT-M", 100000, "HN", 1)
	env.addToCart(t, env.user.ID, ok.Item.ID, 1)
	env.addToCart(t, env.user.ID, low.Item.ID, 2)

	_, _, err := env.svc.PlaceOrder(ctx, env.user.ID, checkoutRequest(), "")
	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "AT-M", stockErr.SKU)
	assert.Equal(t, 2, stockErr.Requested)
	assert.Equal(t, 1, stockErr.Available)
	assert.ErrorIs(t, err, ErrValidation)

	assert.Zero(t, env.orderCount(t))
	assert.Equal(t, 1, env.stockOf(t, low.Entry.ID))
	assert.Equal(t, 10, env.stockOf(t, ok.Entry.ID))
	cart, err := env.repo.GetCart(ctx, env.user.ID)
	require.NoError(t, err)
	assert.Len(t, cart, 2)
}

func TestPlaceOrder_Validation(t *testing.T) {
	t.Parallel()
	env := newOrderEnv(t)

	noCity := checkoutRequest()
	noCity.ShippingAddress.City = "  "
	badMethod := checkoutRequest()
	badMethod.PaymentMethod = "bitcoin"

	for _, req := range []transport.PlaceOrderRequest{noCity, badMethod} {
		_, _, err := env.svc.PlaceOrder(context.Background(), env.user.ID, req, "")
		assert.ErrorIs(t, err, ErrValidation)
	}
}

func TestPlaceOrder_LocationPolicy(t *testing.T) {
	t.Parallel()
	env := newOrderEnv(t)
	ctx := context.Background()
	fx := testutil.SeedProduct(t, env.db, "Ao thun", "AT-M", 100000, "HN", 2)
	hcm, err := env.repo.SetStock(ctx, fx.Item.ID, "HCM", 8)
	require.NoError(t, err)
	dn, err := env.repo.SetStock(ctx, fx.Item.ID, "DN", 8)
	require.NoError(t, err)

	env.addToCart(t, env.user.ID, fx.Item.ID, 3)
	order, _, err := env.svc.PlaceOrder(ctx, env.user.ID, checkoutRequest(), "")
	require.NoError(t, err)
	// DN and HCM tie at 8; DN sorts first.
	assert.Equal(t, dn.ID, order.Items[0].StockEntryID)
	assert.Equal(t, 5, env.stockOf(t, dn.ID))

	env.addToCart(t, env.user.ID, fx.Item.ID, 2)
	req := checkoutRequest()
	req.Location = "HN"
	order, _, err = env.svc.PlaceOrder(ctx, env.user.ID, req, "")
	require.NoError(t, err)
	assert.Equal(t, fx.Entry.ID, order.Items[0].StockEntryID)
	assert.Equal(t, 0, env.stockOf(t, fx.Entry.ID))
	assert.Equal(t, 8, env.stockOf(t, hcm.ID))

	env.addToCart(t, env.user.ID, fx.Item.ID, 1)
	req.Location = "HN"
	_, _, err = env.svc.PlaceOrder(ctx, env.user.ID, req, "")
	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, "HN", stockErr.Location)
}

func TestPickStockEntry(t *testing.T) {
	t.Parallel()

	item := &models.InventoryItem{SKU: "X", Stock: []models.StockEntry{
		{Location: "A", Quantity: 2},
		{Location: "B", Quantity: 5},
		{Location: "C", Quantity: 5},
	}}

	e, err := PickStockEntry(item, 3, "")
	require.NoError(t, err)
	assert.Equal(t, "B", e.Location)

	e, err = PickStockEntry(item, 2, "A")
	require.NoError(t, err)
	assert.Equal(t, "A", e.Location)

	_, err = PickStockEntry(item, 6, "")
	var stockErr *InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 5, stockErr.Available)

	_, err = PickStockEntry(item, 1, "Z")
	require.True(t, errors.As(err, &stockErr))
	assert.Zero(t, stockErr.Available)
}

func TestPlaceOrder_ConcurrentCheckoutsDoNotOversell(t *testing.T) {
	t.Parallel()
	env := newOrderEnv(t)
	ctx := context.Background()
	fx := testutil.SeedProduct(t, env.db, "Ao thun", "AT-M", 100000, "HN", 3)

	const buyers = 8
	users := make([]models.User, buyers)
	for i := range users {
		users[i] = testutil.SeedUser(t, env.db, uuid.NewString()+"@example.com", models.RoleUser)
		env.addToCart(t, users[i].ID, fx.Item.ID, 1)
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		placed  int
		refused int
	)
	for _, u := range users {
		wg.Add(1)
		go func(userID uuid.UUID) {
			defer wg.Done()
			_, _, err := env.svc.PlaceOrder(ctx, userID, checkoutRequest(), "")
			mu.Lock()
			defer mu.Unlock()
			var stockErr *InsufficientStockError
			switch {
			case err == nil:
				placed++
			case errors.As(err, &stockErr):
				refused++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(u.ID)
	}
	wg.Wait()

	assert.Equal(t, 3, placed)
	assert.Equal(t, buyers-3, refused)
	assert.Equal(t, 0, env.stockOf(t, fx.Entry.ID))
	assert.EqualValues(t, 3, env.orderCount(t))
}

func TestPlaceOrder_IdempotencyKey(t *testing.T) {
	t.Parallel()
	env := newOrderEnv(t)
	ctx := context.Background()
	fx := testutil.SeedProduct(t, env.db, "Ao thun", "AT-M", 100000, "HN", 5)
	env.addToCart(t, env.user.ID, fx.Item.ID, 1)

	first, replayed, err := env.svc.PlaceOrder(ctx, env.user.ID, checkoutRequest(), "key-1")
	require.NoError(t, err)
	assert.False(t, replayed)

	second, replayed, err := env.svc.PlaceOrder(ctx, env.user.ID, checkoutRequest(), "key-1")
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, first.ID, second.ID)
	assert.EqualValues(t, 1, env.orderCount(t))
	assert.Equal(t, 4, env.stockOf(t, fx.Entry.ID))

	// A failed attempt releases its key so the client can retry.
	_, _, err = env.svc.PlaceOrder(ctx, env.user.ID, checkoutRequest(), "key-2")
	require.ErrorIs(t, err, ErrEmptyCart)
	env.addToCart(t, env.user.ID, fx.Item.ID, 1)
	_, replayed, err = env.svc.PlaceOrder(ctx, env.user.ID, checkoutRequest(), "key-2")
	require.NoError(t, err)
	assert.False(t, replayed)
}

func TestPlaceOrder_IdempotencyInFlight(t *testing.T) {
	t.Parallel()
	env := newOrderEnv(t)
	ctx := context.Background()

	_, err := env.svc.Idempotency.Reserve(ctx, env.user.ID.String()+":busy")
	require.NoError(t, err)

	_, _, err = env.svc.PlaceOrder(ctx, env.user.ID, checkoutRequest(), "busy")
	require.ErrorIs(t, err, ErrIdempotencyPending)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestGetOrder_OwnerOnly(t *testing.T) {
	t.Parallel()
	env := newOrderEnv(t)
	ctx := context.Background()
	fx := testutil.SeedProduct(t, env.db, "Ao thun", "AT-M", 100000, "HN", 5)
	env.addToCart(t, env.user.ID, fx.Item.ID, 1)
	order, _, err := env.svc.PlaceOrder(ctx, env.user.ID, checkoutRequest(), "")
	require.NoError(t, err)

	got, err := env.svc.Get(ctx, order.ID, env.user.ID)
	require.NoError(t, err)
	assert.Len(t, got.Items, 1)

	_, err = env.svc.Get(ctx, order.ID, uuid.New())
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = env.svc.Get(ctx, uuid.New(), env.user.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	total, mine, err := env.svc.ListMine(ctx, env.user.ID, 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, order.ID, mine[0].ID)

	_, _, err = env.svc.ListAll(ctx, "lost", 0, 10)
	assert.ErrorIs(t, err, ErrValidation)
}
