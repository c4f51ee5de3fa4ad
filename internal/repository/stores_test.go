package repository

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"ringside/internal/domain"
)

func TestCartStore_FallbackOnCorruptBlob(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	carts := NewCartStore(kv, zaptest.NewLogger(t))

	require.NoError(t, kv.Put(ctx, cartKey("u1"), []byte("{not json")))
	items, err := carts.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, items)

	items, err = carts.Update(ctx, "u1", func(cur []domain.CartItem) ([]domain.CartItem, error) {
		return append(cur, domain.CartItem{ID: "p1", Quantity: 1, Price: "10"}), nil
	})
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, carts.Clear(ctx, "u1"))
	require.NoError(t, carts.Clear(ctx, "u1"), "clearing an empty cart is fine")
	items, _ = carts.Load(ctx, "u1")
	assert.Empty(t, items)
}

func TestCartStore_UpdateErrorLeavesStateAlone(t *testing.T) {
	ctx := context.Background()
	carts := NewCartStore(NewMemoryKV(), nil)
	_, err := carts.Update(ctx, "u", func(cur []domain.CartItem) ([]domain.CartItem, error) {
		return append(cur, domain.CartItem{ID: "a", Quantity: 1}), nil
	})
	require.NoError(t, err)
	_, err = carts.Update(ctx, "u", func([]domain.CartItem) ([]domain.CartItem, error) {
		return nil, ErrNotFound
	})
	assert.ErrorIs(t, err, ErrNotFound)
	items, err := carts.Load(ctx, "u")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func order(id, user string) domain.Order {
	return domain.Order{ID: id, UserID: user, Status: domain.OrderStatusPending, CreatedAt: time.Now().UTC()}
}

func TestOrderStore_ThreeViews(t *testing.T) {
	ctx := context.Background()
	orders := NewOrderStore(NewMemoryKV(), zaptest.NewLogger(t))

	_, err := orders.Latest(ctx, "u1")
	assert.ErrorIs(t, err, ErrNotFound)

	for _, o := range []domain.Order{order("o1", "u1"), order("o2", "u1"), order("o3", "u2")} {
		require.NoError(t, orders.AppendForUser(ctx, o))
		require.NoError(t, orders.SetLatest(ctx, o))
		require.NoError(t, orders.AppendAdmin(ctx, o))
	}

	mine, err := orders.ListForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "o2", mine[0].ID, "newest first")

	all, err := orders.ListAdmin(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	latest, err := orders.Latest(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "o2", latest.ID)
}

func TestOrderStore_UpdateStatusMirrors(t *testing.T) {
	ctx := context.Background()
	orders := NewOrderStore(NewMemoryKV(), nil)
	for _, o := range []domain.Order{order("o1", "u1"), order("o2", "u1")} {
		require.NoError(t, orders.AppendForUser(ctx, o))
		require.NoError(t, orders.SetLatest(ctx, o))
		require.NoError(t, orders.AppendAdmin(ctx, o))
	}

	got, err := orders.UpdateStatus(ctx, "o2", domain.OrderStatusShipped)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, got.Status)

	latest, _ := orders.Latest(ctx, "u1")
	assert.Equal(t, domain.OrderStatusShipped, latest.Status)

	_, err = orders.UpdateStatus(ctx, "o1", domain.OrderStatusCancelled)
	require.NoError(t, err)
	latest, _ = orders.Latest(ctx, "u1")
	assert.Equal(t, domain.OrderStatusShipped, latest.Status, "latest points at o2")

	mine, _ := orders.ListForUser(ctx, "u1")
	assert.Equal(t, domain.OrderStatusShipped, mine[0].Status)
	assert.Equal(t, domain.OrderStatusCancelled, mine[1].Status)

	_, err = orders.UpdateStatus(ctx, "nope", domain.OrderStatusShipped)
	assert.ErrorIs(t, err, ErrNotFound)
}

// hookKV runs onGet once, the first time key is read after armed is set.
type hookKV struct {
	*MemoryKV
	key   string
	armed atomic.Bool
	once  sync.Once
	onGet func()
}

func (h *hookKV) Get(ctx context.Context, key string) ([]byte, error) {
	raw, err := h.MemoryKV.Get(ctx, key)
	if key == h.key && h.armed.Load() {
		h.once.Do(h.onGet)
	}
	return raw, err
}

func TestOrderStore_UpdateStatusKeepsNewerLatest(t *testing.T) {
	ctx := context.Background()
	kv := &hookKV{MemoryKV: NewMemoryKV(), key: latestOrderKey("u1")}
	orders := NewOrderStore(kv, zaptest.NewLogger(t))

	first := order("o1", "u1")
	require.NoError(t, orders.AppendForUser(ctx, first))
	require.NoError(t, orders.SetLatest(ctx, first))
	require.NoError(t, orders.AppendAdmin(ctx, first))

	// A checkout for the same user lands between reading and rewriting the
	// latest pointer.
	var wg sync.WaitGroup
	var setErr error
	kv.onGet = func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			setErr = orders.SetLatest(ctx, order("o2", "u1"))
		}()
		time.Sleep(20 * time.Millisecond)
	}
	kv.armed.Store(true)

	_, err := orders.UpdateStatus(ctx, "o1", domain.OrderStatusShipped)
	require.NoError(t, err)
	wg.Wait()
	require.NoError(t, setErr)

	latest, err := orders.Latest(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "o2", latest.ID, "newer order stays latest")
	assert.Equal(t, domain.OrderStatusPending, latest.Status)

	mine, err := orders.ListForUser(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, mine[0].Status)
}

func TestOrderStore_ConcurrentAdminAppends(t *testing.T) {
	ctx := context.Background()
	orders := NewOrderStore(NewMemoryKV(), nil)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, orders.AppendAdmin(ctx, order(fmt.Sprintf("o%d", i), fmt.Sprintf("u%d", i%5))))
		}(i)
	}
	wg.Wait()

	all, err := orders.ListAdmin(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 50)
}

func TestProductStore_Defaults(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV()
	products := NewProductStore(kv, zaptest.NewLogger(t))

	list, err := products.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultProducts()), len(list))

	list, err = products.Update(ctx, func(cur []domain.Product) ([]domain.Product, error) {
		return cur[:1], nil
	})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, kv.Put(ctx, keyAdminProducts, []byte("[{]")))
	list, err = products.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, len(DefaultProducts()), len(list), "corrupt list falls back")
}
