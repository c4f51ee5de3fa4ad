package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"ringside/internal/delivery"
	"ringside/internal/domain"
	"ringside/internal/money"
	"ringside/internal/repository"
)

// OrderListener is told about every placed order. Implementations must not
// block the caller.
type OrderListener interface {
	OrderPlaced(ctx context.Context, o domain.Order)
}

// CheckoutService turns a cart plus a validated form into an order.
type CheckoutService struct {
	carts     repository.CartRepository
	orders    repository.OrderRepository
	codes     *delivery.CodeGenerator
	validator *Validator
	latency   time.Duration
	listeners []OrderListener
	log       *zap.Logger

	newOrderID func() string
	now        func() time.Time
}

func NewCheckoutService(
	carts repository.CartRepository,
	orders repository.OrderRepository,
	codes *delivery.CodeGenerator,
	validator *Validator,
	latency time.Duration,
	log *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		carts:      carts,
		orders:     orders,
		codes:      codes,
		validator:  validator,
		latency:    latency,
		log:        log,
		newOrderID: newOrderID,
		now:        time.Now,
	}
}

// Subscribe registers l for placed orders. Call it before serving traffic.
func (s *CheckoutService) Subscribe(l OrderListener) {
	s.listeners = append(s.listeners, l)
}

func newOrderID() string {
	return "ORD-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
}

// Checkout validates req, snapshots the user's cart into a pending order,
// persists it to the user history, the latest pointer and the admin list,
// then removes the ordered lines from the cart.
func (s *CheckoutService) Checkout(ctx context.Context, userID string, req CheckoutRequest) (*domain.Order, error) {
	if userID == "" {
		return nil, ErrInvalidInput
	}
	method, info, err := s.validator.Validate(req)
	if err != nil {
		return nil, err
	}

	cart, err := s.carts.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(cart) == 0 {
		return nil, ErrEmptyCart
	}

	items := make([]domain.OrderItem, 0, len(cart))
	subtotal := decimal.Zero
	for _, it := range cart {
		p, err := money.Parse(it.Price)
		if err != nil {
			return nil, fmt.Errorf("%w: price %q of %s", ErrInvalidInput, it.Price, it.ID)
		}
		subtotal = subtotal.Add(p.Mul(decimal.NewFromInt(int64(it.Quantity))))
		items = append(items, domain.OrderItem{
			ID:       it.ID,
			Name:     it.Name,
			Price:    money.Cents(p),
			Image:    it.Image,
			Quantity: it.Quantity,
			Size:     it.Size,
			Color:    it.Color,
		})
	}
	total := subtotal.Add(decimal.NewFromFloat(method.Price))

	o := domain.Order{
		ID:             s.newOrderID(),
		UserID:         userID,
		Items:          items,
		PersonalInfo:   req.PersonalInfo,
		DeliveryInfo:   info,
		DeliveryCode:   s.codes.Generate(),
		ShippingMethod: method,
		PaymentMethod:  req.PaymentMethod,
		TotalAmount:    money.Cents(total),
		Status:         domain.OrderStatusPending,
		CreatedAt:      s.now().UTC(),
	}

	if err := s.orders.AppendForUser(ctx, o); err != nil {
		return nil, fmt.Errorf("save order history: %w", err)
	}
	if err := s.orders.SetLatest(ctx, o); err != nil {
		return nil, fmt.Errorf("save latest order: %w", err)
	}
	if err := s.orders.AppendAdmin(ctx, o); err != nil {
		return nil, fmt.Errorf("save admin order: %w", err)
	}

	// The order is stored; a cancelled request must not leave the cart behind.
	ctx = s.wait(ctx)

	if _, err := s.carts.Update(ctx, userID, removeOrdered(cart)); err != nil {
		s.log.Error("clear cart after checkout", zap.String("user", userID), zap.String("order", o.ID), zap.Error(err))
	}
	s.log.Info("order placed",
		zap.String("order", o.ID),
		zap.String("user", userID),
		zap.Int("items", len(o.Items)),
		zap.Float64("total", o.TotalAmount),
	)
	for _, l := range s.listeners {
		l.OrderPlaced(ctx, o)
	}
	return &o, nil
}

// removeOrdered takes the quantities captured in ordered out of the current
// cart. Lines added or topped up after the snapshot stay.
func removeOrdered(ordered []domain.CartItem) func([]domain.CartItem) ([]domain.CartItem, error) {
	type lineKey struct{ id, size string }
	taken := make(map[lineKey]int, len(ordered))
	for _, it := range ordered {
		taken[lineKey{it.ID, it.Size}] += it.Quantity
	}
	return func(items []domain.CartItem) ([]domain.CartItem, error) {
		out := make([]domain.CartItem, 0, len(items))
		for _, it := range items {
			k := lineKey{it.ID, it.Size}
			if n := taken[k]; n > 0 {
				take := min(n, it.Quantity)
				taken[k] = n - take
				it.Quantity -= take
			}
			if it.Quantity > 0 {
				out = append(out, it)
			}
		}
		return out, nil
	}
}

// wait sleeps for the simulated processing latency. If ctx ends first it
// returns a context detached from the cancellation.
func (s *CheckoutService) wait(ctx context.Context) context.Context {
	if s.latency <= 0 {
		return ctx
	}
	t := time.NewTimer(s.latency)
	defer t.Stop()
	select {
	case <-t.C:
		return ctx
	case <-ctx.Done():
		s.log.Warn("checkout request ended during processing delay", zap.Error(ctx.Err()))
		return context.WithoutCancel(ctx)
	}
}
