package service

import (
	"context"

	"go.uber.org/zap"

	"ringside/internal/domain"
	"ringside/internal/repository"
)

// OrderService exposes placed orders to their owner and to the admin panel.
type OrderService struct {
	orders repository.OrderRepository
	log    *zap.Logger
}

func NewOrderService(orders repository.OrderRepository, log *zap.Logger) *OrderService {
	return &OrderService{orders: orders, log: log}
}

// Orders returns the user's history, newest first.
func (s *OrderService) Orders(ctx context.Context, userID string) ([]domain.Order, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.orders.ListForUser(ctx, userID)
}

// LatestOrder returns the last order the user placed or repository.ErrNotFound.
func (s *OrderService) LatestOrder(ctx context.Context, userID string) (*domain.Order, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.orders.Latest(ctx, userID)
}

// AllOrders returns every order, newest first.
func (s *OrderService) AllOrders(ctx context.Context) ([]domain.Order, error) {
	return s.orders.ListAdmin(ctx)
}

// GetOrder finds an order in the admin list.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	all, err := s.orders.ListAdmin(ctx)
	if err != nil {
		return nil, err
	}
	for i := range all {
		if all[i].ID == id {
			return &all[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

// UpdateStatus moves an order to status. Delivered and cancelled orders are
// final and return ErrInvalidState.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	if id == "" || !status.Valid() {
		return nil, ErrInvalidInput
	}
	cur, err := s.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.Status == status {
		return cur, nil
	}
	if cur.Status == domain.OrderStatusDelivered || cur.Status == domain.OrderStatusCancelled {
		return nil, ErrInvalidState
	}
	updated, err := s.orders.UpdateStatus(ctx, id, status)
	if err != nil {
		return nil, err
	}
	s.log.Info("order status changed",
		zap.String("order", id),
		zap.String("from", string(cur.Status)),
		zap.String("to", string(status)),
	)
	return updated, nil
}
