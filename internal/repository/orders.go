package repository

import (
	"context"

	"go.uber.org/zap"

	"ringside/internal/domain"
)

// OrderStore writes each order into three independent blobs: the owner's
// history, the owner's latest-order pointer and the global admin list.
// Lists are kept newest first.
type OrderStore struct{ s *jsonStore }

func NewOrderStore(kv KV, log *zap.Logger) *OrderStore {
	return &OrderStore{s: newJSONStore(kv, log)}
}

var _ OrderRepository = (*OrderStore)(nil)

func noOrders() []domain.Order { return []domain.Order{} }

func prepend(o domain.Order) func([]domain.Order) ([]domain.Order, error) {
	return func(list []domain.Order) ([]domain.Order, error) {
		return append([]domain.Order{o}, list...), nil
	}
}

func (r *OrderStore) AppendForUser(ctx context.Context, o domain.Order) error {
	_, err := updateJSON(ctx, r.s, ordersKey(o.UserID), noOrders, prepend(o))
	return err
}

func (r *OrderStore) ListForUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return readJSON(ctx, r.s, ordersKey(userID), noOrders)
}

func (r *OrderStore) SetLatest(ctx context.Context, o domain.Order) error {
	unlock := r.s.lock(latestOrderKey(o.UserID))
	defer unlock()
	return writeJSON(ctx, r.s, latestOrderKey(o.UserID), o)
}

func (r *OrderStore) Latest(ctx context.Context, userID string) (*domain.Order, error) {
	o, err := readJSON(ctx, r.s, latestOrderKey(userID), func() *domain.Order { return nil })
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, ErrNotFound
	}
	return o, nil
}

func (r *OrderStore) AppendAdmin(ctx context.Context, o domain.Order) error {
	_, err := updateJSON(ctx, r.s, keyAdminOrders, noOrders, prepend(o))
	return err
}

func (r *OrderStore) ListAdmin(ctx context.Context) ([]domain.Order, error) {
	return readJSON(ctx, r.s, keyAdminOrders, noOrders)
}

// UpdateStatus changes the status in the admin list and mirrors it into the
// owner's history and latest pointer when they hold the same order.
func (r *OrderStore) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	var updated *domain.Order
	_, err := updateJSON(ctx, r.s, keyAdminOrders, noOrders, func(list []domain.Order) ([]domain.Order, error) {
		for i := range list {
			if list[i].ID == id {
				list[i].Status = status
				o := list[i]
				updated = &o
				return list, nil
			}
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return nil, err
	}

	_, err = updateJSON(ctx, r.s, ordersKey(updated.UserID), noOrders, func(list []domain.Order) ([]domain.Order, error) {
		for i := range list {
			if list[i].ID == id {
				list[i].Status = status
			}
		}
		return list, nil
	})
	if err != nil {
		return nil, err
	}

	// The pointer is compared and rewritten under its own lock so a checkout
	// that moves it to a newer order in between is never rolled back.
	_, err = updateJSON(ctx, r.s, latestOrderKey(updated.UserID), func() *domain.Order { return nil },
		func(latest *domain.Order) (*domain.Order, error) {
			if latest == nil || latest.ID != id {
				return latest, errUnchanged
			}
			latest.Status = status
			return latest, nil
		})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
