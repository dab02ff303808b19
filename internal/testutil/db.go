// Package testutil holds database fixtures shared by package tests.
package testutil

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/db"
)

// NewDB returns a migrated in-memory SQLite database closed at test cleanup.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	gdb, err := db.OpenSQLite(context.Background(), ":memory:")
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(gdb))

	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}

// NewPostgresDB connects to STOREFRONT_TEST_DATABASE_URL, skipping the test
// when it is unset. Tables are truncated before use.
func NewPostgresDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := os.Getenv("STOREFRONT_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("STOREFRONT_TEST_DATABASE_URL not set")
	}

	gdb, err := db.Open(context.Background(), os.Getenv("STOREFRONT_TEST_DB_DRIVER"), dsn)
	require.NoError(t, err)
	require.NoError(t, repo.Migrate(gdb))
	require.NoError(t, gdb.Exec(
		"TRUNCATE reviews, order_items, orders, coupons, cart_items, stock_entries, inventory_items, products, categories, users",
	).Error)

	t.Cleanup(func() { _ = db.Close(gdb) })
	return gdb
}

type ProductFixture struct {
	Product models.Product
	Item    models.InventoryItem
	Entry   models.StockEntry
}

// SeedProduct creates a product with one variant stocked at a single location.
func SeedProduct(t testing.TB, gdb *gorm.DB, name, sku string, price int64, location string, qty int) ProductFixture {
	t.Helper()

	p := models.Product{
		Name:  name,
		Image: "https://img.example/" + sku + ".jpg",
		Variants: []models.InventoryItem{{
			SKU:   sku,
			Price: price,
			Color: "black",
			Size:  "M",
			Stock: []models.StockEntry{{Location: location, Quantity: qty}},
		}},
	}
	require.NoError(t, gdb.Create(&p).Error)

	return ProductFixture{Product: p, Item: p.Variants[0], Entry: p.Variants[0].Stock[0]}
}

func SeedUser(t testing.TB, gdb *gorm.DB, email, role string) models.User {
	t.Helper()

	u := models.User{Email: email, Name: email, PasswordHash: "x", Role: role}
	require.NoError(t, gdb.Create(&u).Error)
	return u
}
