package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ringside/internal/domain"
	"ringside/internal/repository"
)

// ProductSource supplies the raw catalog.
type ProductSource interface {
	Products(ctx context.Context) ([]domain.Product, error)
	Categories(ctx context.Context) ([]domain.Category, error)
}

// LocalSource serves the admin product list as the catalog. Categories are
// derived from the products.
type LocalSource struct {
	repo repository.ProductRepository
}

func NewLocalSource(repo repository.ProductRepository) *LocalSource {
	return &LocalSource{repo: repo}
}

func (l *LocalSource) Products(ctx context.Context) ([]domain.Product, error) {
	return l.repo.List(ctx)
}

func (l *LocalSource) Categories(ctx context.Context) ([]domain.Category, error) {
	products, err := l.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Category
	for _, name := range uniqueSorted(products, func(p domain.Product) []string { return []string{p.Category} }) {
		slug := Slugify(name)
		out = append(out, domain.Category{ID: slug, Title: name, Slug: slug})
	}
	return out, nil
}

// Filter narrows a product list. Zero values disable a criterion.
type Filter struct {
	Search     string
	Categories []string
	Colors     []string
	MinPrice   *float64
	MaxPrice   *float64
	OnSale     bool
}

// Facets are the filter choices offered for a product list.
type Facets struct {
	Categories []string `json:"categories"`
	Colors     []string `json:"colors"`
	MinPrice   float64  `json:"minPrice"`
	MaxPrice   float64  `json:"maxPrice"`
}

// ApplyFilter runs search, category, color, price and on-sale filters in
// that order and returns the matching products in their original order.
func ApplyFilter(products []domain.Product, f Filter) []domain.Product {
	search := strings.ToLower(strings.TrimSpace(f.Search))
	categories := toSet(f.Categories)
	colors := toSet(f.Colors)

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if search != "" &&
			!strings.Contains(strings.ToLower(p.Name), search) &&
			!strings.Contains(strings.ToLower(p.Category), search) {
			continue
		}
		if len(categories) > 0 {
			if _, ok := categories[p.Category]; !ok {
				continue
			}
		}
		if len(colors) > 0 && !anyIn(p.Colors, colors) {
			continue
		}
		if f.MinPrice != nil && p.Price < *f.MinPrice {
			continue
		}
		if f.MaxPrice != nil && p.Price > *f.MaxPrice {
			continue
		}
		if f.OnSale && !p.OnSale() {
			continue
		}
		out = append(out, p)
	}
	return out
}

// BuildFacets collects the sorted category and color sets and the price span.
func BuildFacets(products []domain.Product) Facets {
	f := Facets{
		Categories: uniqueSorted(products, func(p domain.Product) []string { return []string{p.Category} }),
		Colors:     uniqueSorted(products, func(p domain.Product) []string { return p.Colors }),
	}
	for i, p := range products {
		if i == 0 || p.Price < f.MinPrice {
			f.MinPrice = p.Price
		}
		if p.Price > f.MaxPrice {
			f.MaxPrice = p.Price
		}
	}
	return f
}

func toSet(vals []string) map[string]struct{} {
	set := make(map[string]struct{}, len(vals))
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

func anyIn(vals []string, set map[string]struct{}) bool {
	for _, v := range vals {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}

func uniqueSorted(products []domain.Product, pick func(domain.Product) []string) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, p := range products {
		for _, v := range pick(p) {
			if v == "" {
				continue
			}
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

type catalogSnapshot struct {
	products   []domain.Product
	categories []domain.Category
	fetchedAt  time.Time
}

// CatalogService answers catalog queries from a cached snapshot of the source.
type CatalogService struct {
	source ProductSource
	ttl    time.Duration
	log    *zap.Logger
	now    func() time.Time

	mu   sync.Mutex
	snap *catalogSnapshot
}

func NewCatalogService(source ProductSource, ttl time.Duration, log *zap.Logger) *CatalogService {
	return &CatalogService{source: source, ttl: ttl, log: log, now: time.Now}
}

// Invalidate drops the cached snapshot.
func (s *CatalogService) Invalidate() {
	s.mu.Lock()
	s.snap = nil
	s.mu.Unlock()
}

func (s *CatalogService) snapshot(ctx context.Context) (*catalogSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap != nil && s.ttl > 0 && s.now().Sub(s.snap.fetchedAt) < s.ttl {
		return s.snap, nil
	}

	var snap catalogSnapshot
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		snap.products, err = s.source.Products(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		snap.categories, err = s.source.Categories(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error("fetch catalog", zap.Error(err))
		return nil, err
	}
	snap.fetchedAt = s.now()
	s.snap = &snap
	s.log.Debug("catalog refreshed",
		zap.Int("products", len(snap.products)),
		zap.Int("categories", len(snap.categories)),
	)
	return s.snap, nil
}

// List returns products matching f.
func (s *CatalogService) List(ctx context.Context, f Filter) ([]domain.Product, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return ApplyFilter(snap.products, f), nil
}

func (s *CatalogService) Categories(ctx context.Context) ([]domain.Category, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return append([]domain.Category(nil), snap.categories...), nil
}

func (s *CatalogService) Facets(ctx context.Context) (Facets, error) {
	snap, err := s.snapshot(ctx)
	if err != nil {
		return Facets{}, err
	}
	return BuildFacets(snap.products), nil
}

// Product looks a product up by id, then by slug.
func (s *CatalogService) Product(ctx context.Context, idOrSlug string) (*domain.Product, error) {
	if idOrSlug == "" {
		return nil, ErrInvalidInput
	}
	snap, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	for i := range snap.products {
		if snap.products[i].ID == idOrSlug {
			p := snap.products[i]
			return &p, nil
		}
	}
	for i := range snap.products {
		if snap.products[i].Slug == idOrSlug {
			p := snap.products[i]
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}
