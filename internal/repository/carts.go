package repository

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"ringside/internal/domain"
)

// CartStore keeps each user's cart under cart:<userID>.
type CartStore struct{ s *jsonStore }

func NewCartStore(kv KV, log *zap.Logger) *CartStore {
	return &CartStore{s: newJSONStore(kv, log)}
}

var _ CartRepository = (*CartStore)(nil)

func emptyCart() []domain.CartItem { return []domain.CartItem{} }

func (c *CartStore) Load(ctx context.Context, userID string) ([]domain.CartItem, error) {
	return readJSON(ctx, c.s, cartKey(userID), emptyCart)
}

func (c *CartStore) Update(ctx context.Context, userID string, fn func([]domain.CartItem) ([]domain.CartItem, error)) ([]domain.CartItem, error) {
	return updateJSON(ctx, c.s, cartKey(userID), emptyCart, fn)
}

func (c *CartStore) Clear(ctx context.Context, userID string) error {
	unlock := c.s.lock(cartKey(userID))
	defer unlock()
	if err := c.s.kv.Delete(ctx, cartKey(userID)); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return nil
}
