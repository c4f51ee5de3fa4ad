package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"ringside/internal/domain"
	"ringside/internal/repository"
)

type stubSource struct {
	products []domain.Product
	err      error
	calls    atomic.Int32
}

func (s *stubSource) Products(context.Context) ([]domain.Product, error) {
	s.calls.Add(1)
	return s.products, s.err
}

func (s *stubSource) Categories(context.Context) ([]domain.Category, error) {
	return []domain.Category{{ID: "gloves", Title: "Gloves", Slug: "gloves"}}, nil
}

func ptr(v float64) *float64 { return &v }

func names(ps []domain.Product) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.ID)
	}
	return out
}

func TestApplyFilter(t *testing.T) {
	products := repository.DefaultProducts()

	assert.Len(t, ApplyFilter(products, Filter{}), len(products))

	got := ApplyFilter(products, Filter{Search: "GLOVES"})
	assert.Equal(t, []string{"gloves-pro-16", "gloves-bag-12"}, names(got))

	got = ApplyFilter(products, Filter{Search: "protect"})
	for _, p := range got {
		assert.Equal(t, "Protection", p.Category, "search matches category")
	}
	assert.NotEmpty(t, got)

	got = ApplyFilter(products, Filter{Categories: []string{"Gloves", "Accessories"}, Colors: []string{"White"}})
	assert.Equal(t, []string{"gloves-bag-12", "wraps-180"}, names(got))

	got = ApplyFilter(products, Filter{MinPrice: ptr(49.99), MaxPrice: ptr(89.99)})
	for _, p := range got {
		assert.True(t, p.Price >= 49.99 && p.Price <= 89.99, p.ID)
	}
	assert.Contains(t, names(got), "gloves-bag-12", "bounds are inclusive")
	assert.Contains(t, names(got), "gloves-pro-16", "bounds are inclusive")

	got = ApplyFilter(products, Filter{OnSale: true})
	assert.ElementsMatch(t, []string{"gloves-pro-16", "mouthguard-gel"}, names(got))

	got = ApplyFilter(products, Filter{Search: "gloves", OnSale: true, Colors: []string{"Red"}})
	assert.Equal(t, []string{"gloves-pro-16"}, names(got))
}

func TestBuildFacets(t *testing.T) {
	f := BuildFacets([]domain.Product{
		{Category: "Gloves", Colors: []string{"Red", "Black"}, Price: 50},
		{Category: "Bags", Colors: []string{"Black"}, Price: 300},
		{Category: "Gloves", Price: 20},
	})
	assert.Equal(t, []string{"Bags", "Gloves"}, f.Categories)
	assert.Equal(t, []string{"Black", "Red"}, f.Colors)
	assert.Equal(t, 20.0, f.MinPrice)
	assert.Equal(t, 300.0, f.MaxPrice)

	empty := BuildFacets(nil)
	assert.Empty(t, empty.Categories)
	assert.Zero(t, empty.MaxPrice)
}

func TestCatalog_CachesForTTL(t *testing.T) {
	ctx := context.Background()
	src := &stubSource{products: repository.DefaultProducts()}
	svc := NewCatalogService(src, time.Minute, zaptest.NewLogger(t))
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.List(ctx, Filter{})
	require.NoError(t, err)
	_, err = svc.Facets(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, src.calls.Load())

	now = now.Add(2 * time.Minute)
	_, err = svc.Categories(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, src.calls.Load())

	svc.Invalidate()
	_, err = svc.List(ctx, Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, src.calls.Load())
}

func TestCatalog_ProductLookup(t *testing.T) {
	ctx := context.Background()
	svc := NewCatalogService(&stubSource{products: repository.DefaultProducts()}, 0, zaptest.NewLogger(t))

	p, err := svc.Product(ctx, "gloves-pro-16")
	require.NoError(t, err)
	assert.Equal(t, "gloves-pro-16", p.ID)

	p, err = svc.Product(ctx, "open-face-headgear")
	require.NoError(t, err)
	assert.Equal(t, "headgear-open", p.ID)

	_, err = svc.Product(ctx, "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCatalog_SourceError(t *testing.T) {
	boom := errors.New("boom")
	svc := NewCatalogService(&stubSource{err: boom}, time.Minute, zaptest.NewLogger(t))
	_, err := svc.List(context.Background(), Filter{})
	assert.ErrorIs(t, err, boom)
}

func TestLocalSource_Categories(t *testing.T) {
	f := newFixture(t)
	cats, err := NewLocalSource(f.products).Categories(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, cats)
	for _, c := range cats {
		assert.Equal(t, Slugify(c.Title), c.Slug)
	}
}
