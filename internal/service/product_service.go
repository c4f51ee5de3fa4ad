package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"ringside/internal/domain"
	"ringside/internal/repository"
)

// ProductService manages the admin product list.
type ProductService struct {
	repo    repository.ProductRepository
	changed []func()
}

func NewProductService(repo repository.ProductRepository) *ProductService {
	return &ProductService{repo: repo}
}

// OnChange registers fn to run after every successful write.
func (s *ProductService) OnChange(fn func()) {
	s.changed = append(s.changed, fn)
}

func (s *ProductService) notify() {
	for _, fn := range s.changed {
		fn()
	}
}

func validProduct(p domain.Product) bool {
	if strings.TrimSpace(p.Name) == "" || p.Price < 0 {
		return false
	}
	return p.OriginalPrice == nil || *p.OriginalPrice >= 0
}

// Create appends p. A missing id gets a uuid and a missing slug is derived
// from the name. Ids and slugs must be unique.
func (s *ProductService) Create(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if !validProduct(p) {
		return nil, ErrInvalidInput
	}
	cp := p
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if cp.Slug == "" {
		cp.Slug = Slugify(cp.Name)
	}
	_, err := s.repo.Update(ctx, func(list []domain.Product) ([]domain.Product, error) {
		for _, existing := range list {
			if existing.ID == cp.ID || existing.Slug == cp.Slug {
				return nil, ErrInvalidState
			}
		}
		return append(list, cp), nil
	})
	if err != nil {
		return nil, err
	}
	s.notify()
	return &cp, nil
}

func (s *ProductService) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if id == "" {
		return nil, ErrInvalidInput
	}
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i].ID == id {
			return &list[i], nil
		}
	}
	return nil, repository.ErrNotFound
}

// Update replaces the product with p.ID. Its slug must not belong to another product.
func (s *ProductService) Update(ctx context.Context, p domain.Product) (*domain.Product, error) {
	if p.ID == "" || !validProduct(p) {
		return nil, ErrInvalidInput
	}
	cp := p
	if cp.Slug == "" {
		cp.Slug = Slugify(cp.Name)
	}
	_, err := s.repo.Update(ctx, func(list []domain.Product) ([]domain.Product, error) {
		idx := -1
		for i := range list {
			switch {
			case list[i].ID == cp.ID:
				idx = i
			case list[i].Slug == cp.Slug:
				return nil, ErrInvalidState
			}
		}
		if idx < 0 {
			return nil, repository.ErrNotFound
		}
		list[idx] = cp
		return list, nil
	})
	if err != nil {
		return nil, err
	}
	s.notify()
	return &cp, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidInput
	}
	_, err := s.repo.Update(ctx, func(list []domain.Product) ([]domain.Product, error) {
		for i := range list {
			if list[i].ID == id {
				return append(list[:i], list[i+1:]...), nil
			}
		}
		return nil, repository.ErrNotFound
	})
	if err != nil {
		return err
	}
	s.notify()
	return nil
}

func (s *ProductService) List(ctx context.Context) ([]domain.Product, error) {
	return s.repo.List(ctx)
}

// Slugify lowercases name and joins its alphanumeric runs with dashes.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
