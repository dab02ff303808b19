package repo_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/internal/testutil"
)

func TestPostgres_ConcurrentDecrementNeverOversells(t *testing.T) {
	gdb := testutil.NewPostgresDB(t)
	r := repo.New(gdb)
	ctx := context.Background()
	fx := testutil.SeedProduct(t, gdb, "Tee", "TEE-M", 100000, "HN", 5)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := r.DecrementStock(ctx, fx.Entry.ID, 1)
			if err != nil || !ok {
				return
			}
			mu.Lock()
			success++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, success)
	entry, err := r.GetStockEntry(ctx, fx.Entry.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, entry.Quantity)
}
