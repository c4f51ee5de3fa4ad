package repository

import (
	"context"
	"errors"

	"ringside/internal/domain"
)

// ErrNotFound is returned when a key or entity does not exist.
var ErrNotFound = errors.New("not found")

// KV is the persisted state backend: plain JSON blobs under string keys.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close(ctx context.Context) error
}

// Keys used by the typed stores.
const (
	keyAdminProducts = "admin:products"
	keyAdminOrders   = "admin:orders"
)

func cartKey(userID string) string        { return "cart:" + userID }
func ordersKey(userID string) string      { return "orders:" + userID }
func latestOrderKey(userID string) string { return "latest_order:" + userID }

// CartRepository persists one item list per user.
type CartRepository interface {
	Load(ctx context.Context, userID string) ([]domain.CartItem, error)
	Update(ctx context.Context, userID string, fn func([]domain.CartItem) ([]domain.CartItem, error)) ([]domain.CartItem, error)
	Clear(ctx context.Context, userID string) error
}

// OrderRepository keeps the three order views: per-user history, the
// latest-order pointer and the global admin list.
type OrderRepository interface {
	AppendForUser(ctx context.Context, o domain.Order) error
	ListForUser(ctx context.Context, userID string) ([]domain.Order, error)
	SetLatest(ctx context.Context, o domain.Order) error
	Latest(ctx context.Context, userID string) (*domain.Order, error)
	AppendAdmin(ctx context.Context, o domain.Order) error
	ListAdmin(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error)
}

// ProductRepository persists the admin-managed product list.
type ProductRepository interface {
	List(ctx context.Context) ([]domain.Product, error)
	Update(ctx context.Context, fn func([]domain.Product) ([]domain.Product, error)) ([]domain.Product, error)
}
