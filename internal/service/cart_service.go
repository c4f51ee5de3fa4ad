package service

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ringside/internal/domain"
	"ringside/internal/money"
	"ringside/internal/repository"
)

// CartService implements the per-user cart. Every mutation persists the
// whole item list.
type CartService struct {
	carts repository.CartRepository
	money money.Formatter
	log   *zap.Logger
}

func NewCartService(carts repository.CartRepository, f money.Formatter, log *zap.Logger) *CartService {
	return &CartService{carts: carts, money: f, log: log}
}

func (s *CartService) Items(ctx context.Context, userID string) ([]domain.CartItem, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	return s.carts.Load(ctx, userID)
}

// Add merges quantity into an existing (id, size) line or appends a new one.
// A zero quantity counts as one.
func (s *CartService) Add(ctx context.Context, userID string, item domain.CartItem) ([]domain.CartItem, error) {
	item.ID = strings.TrimSpace(item.ID)
	if userID == "" || item.ID == "" || strings.TrimSpace(item.Price) == "" || item.Quantity < 0 {
		return nil, ErrInvalidInput
	}
	if item.Quantity == 0 {
		item.Quantity = 1
	}
	return s.carts.Update(ctx, userID, func(items []domain.CartItem) ([]domain.CartItem, error) {
		for i := range items {
			if items[i].SameLine(item.ID, item.Size) {
				items[i].Quantity += item.Quantity
				return items, nil
			}
		}
		return append(items, item), nil
	})
}

// Remove drops the (id, size) line. Removing an absent line is a no-op.
func (s *CartService) Remove(ctx context.Context, userID, id, size string) ([]domain.CartItem, error) {
	if userID == "" || id == "" {
		return nil, ErrInvalidInput
	}
	return s.carts.Update(ctx, userID, func(items []domain.CartItem) ([]domain.CartItem, error) {
		out := items[:0]
		for _, it := range items {
			if !it.SameLine(id, size) {
				out = append(out, it)
			}
		}
		return out, nil
	})
}

// UpdateQuantity sets the quantity of a line. Quantities below one leave the
// cart untouched and return ErrInvalidQuantity alongside the current items.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, id, size string, qty int) ([]domain.CartItem, error) {
	if userID == "" || id == "" {
		return nil, ErrInvalidInput
	}
	if qty < 1 {
		items, err := s.carts.Load(ctx, userID)
		if err != nil {
			return nil, err
		}
		return items, ErrInvalidQuantity
	}
	return s.carts.Update(ctx, userID, func(items []domain.CartItem) ([]domain.CartItem, error) {
		for i := range items {
			if items[i].SameLine(id, size) {
				items[i].Quantity = qty
				return items, nil
			}
		}
		return nil, repository.ErrNotFound
	})
}

func (s *CartService) Clear(ctx context.Context, userID string) error {
	if userID == "" {
		return ErrInvalidInput
	}
	return s.carts.Clear(ctx, userID)
}

// Total returns the formatted sum of price x quantity over the user's cart.
func (s *CartService) Total(ctx context.Context, userID string) (string, error) {
	items, err := s.Items(ctx, userID)
	if err != nil {
		return "", err
	}
	return s.money.Format(s.Sum(items)), nil
}

// Sum adds up price x quantity. Lines whose price cannot be parsed are
// skipped and logged.
func (s *CartService) Sum(items []domain.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		p, err := money.Parse(it.Price)
		if err != nil {
			s.log.Warn("skipping cart line with unparsable price",
				zap.String("id", it.ID), zap.String("size", it.Size), zap.String("price", it.Price))
			continue
		}
		total = total.Add(p.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}
