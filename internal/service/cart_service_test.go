package service

import (
	"context"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ringside/internal/domain"
	"ringside/internal/money"
	"ringside/internal/repository"
)

func glove(size string, qty int) domain.CartItem {
	return domain.CartItem{ID: "gloves-pro-16", Name: "Pro Sparring Gloves", Price: "$89.99", Quantity: qty, Size: size}
}

func TestCart_AddMergesSameLine(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.cart.Add(ctx, "u1", glove("16oz", 1))
	require.NoError(t, err)
	items, err := f.cart.Add(ctx, "u1", glove("16oz", 2))
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, 3, items[0].Quantity)

	items, err = f.cart.Add(ctx, "u1", glove("14oz", 0))
	require.NoError(t, err)
	require.Len(t, items, 2, "different size is a separate line")
	assert.Equal(t, 1, items[1].Quantity, "zero quantity counts as one")

	stored, err := f.carts.Load(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, items, stored)
}

func TestCart_AddRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for name, tc := range map[string]struct {
		user string
		item domain.CartItem
	}{
		"no user":      {"", glove("M", 1)},
		"no id":        {"u", domain.CartItem{Price: "1", Quantity: 1}},
		"no price":     {"u", domain.CartItem{ID: "x", Quantity: 1}},
		"negative qty": {"u", glove("M", -1)},
	} {
		_, err := f.cart.Add(ctx, tc.user, tc.item)
		assert.ErrorIs(t, err, ErrInvalidInput, name)
	}
}

func TestCart_UpdateQuantity(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add(t, "u1", glove("16oz", 2))

	for _, q := range []int{0, -3} {
		items, err := f.cart.UpdateQuantity(ctx, "u1", "gloves-pro-16", "16oz", q)
		assert.ErrorIs(t, err, ErrInvalidQuantity)
		require.Len(t, items, 1)
		assert.Equal(t, 2, items[0].Quantity, "item unchanged")
	}

	items, err := f.cart.UpdateQuantity(ctx, "u1", "gloves-pro-16", "16oz", 5)
	require.NoError(t, err)
	assert.Equal(t, 5, items[0].Quantity)

	_, err = f.cart.UpdateQuantity(ctx, "u1", "gloves-pro-16", "12oz", 5)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCart_RemoveAndClear(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.add(t, "u1", glove("16oz", 1))
	f.add(t, "u1", glove("14oz", 1))

	items, err := f.cart.Remove(ctx, "u1", "gloves-pro-16", "16oz")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "14oz", items[0].Size)

	items, err = f.cart.Remove(ctx, "u1", "missing", "")
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, f.cart.Clear(ctx, "u1"))
	items, err = f.cart.Items(ctx, "u1")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCart_TotalAcrossFormats(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	for _, it := range []domain.CartItem{
		{ID: "a", Price: "$1,299.99", Quantity: 1},
		{ID: "b", Price: "49,50 zł", Quantity: 2},
		{ID: "c", Price: "1.000,00 €", Quantity: 1},
		{ID: "d", Price: "12", Quantity: 3},
		{ID: "e", Price: "call us", Quantity: 4},
	} {
		_, err := f.cart.Add(ctx, "u1", it)
		require.NoError(t, err)
	}

	items, _ := f.cart.Items(ctx, "u1")
	sum := f.cart.Sum(items)
	assert.True(t, sum.Equal(decimal.RequireFromString("2434.99")), "sum %s", sum)

	total, err := f.cart.Total(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(total, "$"), total)
	back, err := money.Parse(total)
	require.NoError(t, err)
	assert.True(t, back.Equal(sum), "%s parses back to %s", total, back)

	empty, err := f.cart.Total(ctx, "nobody")
	require.NoError(t, err)
	assert.Equal(t, "$0.00", empty)
}
