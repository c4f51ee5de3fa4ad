package repository

import (
	"context"

	"go.uber.org/zap"

	"ringside/internal/domain"
)

// ProductStore keeps the admin-managed product list under admin:products.
// When nothing usable is stored it serves DefaultProducts.
type ProductStore struct{ s *jsonStore }

func NewProductStore(kv KV, log *zap.Logger) *ProductStore {
	return &ProductStore{s: newJSONStore(kv, log)}
}

var _ ProductRepository = (*ProductStore)(nil)

func (p *ProductStore) List(ctx context.Context) ([]domain.Product, error) {
	return readJSON(ctx, p.s, keyAdminProducts, DefaultProducts)
}

func (p *ProductStore) Update(ctx context.Context, fn func([]domain.Product) ([]domain.Product, error)) ([]domain.Product, error) {
	return updateJSON(ctx, p.s, keyAdminProducts, DefaultProducts, fn)
}

func price(v float64) *float64 { return &v }

// DefaultProducts is the built-in catalog.
func DefaultProducts() []domain.Product {
	return []domain.Product{
		{
			ID: "gloves-pro-16", Name: "Pro Sparring Gloves 16oz", Slug: "pro-sparring-gloves-16oz",
			Description: "Layered foam sparring gloves with a hook-and-loop closure.",
			Category:    "Gloves", Price: 89.99, OriginalPrice: price(109.99),
			Image:  "/images/products/gloves-pro-16.jpg",
			Colors: []string{"Black", "Red", "Blue"}, Sizes: []string{"12oz", "14oz", "16oz"},
			Customizable: true, InStock: true,
		},
		{
			ID: "gloves-bag-12", Name: "Bag Gloves 12oz", Slug: "bag-gloves-12oz",
			Description: "Compact gloves for heavy-bag and pad work.",
			Category:    "Gloves", Price: 49.99,
			Image:  "/images/products/gloves-bag-12.jpg",
			Colors: []string{"Black", "White"}, Sizes: []string{"10oz", "12oz"},
			Customizable: true, InStock: true,
		},
		{
			ID: "wraps-180", Name: "Hand Wraps 180\"", Slug: "hand-wraps-180",
			Description: "Semi-elastic cotton wraps with thumb loop.",
			Category:    "Accessories", Price: 12.99,
			Image:  "/images/products/wraps-180.jpg",
			Colors: []string{"Black", "Red", "White"}, Sizes: []string{"One size"},
			InStock: true,
		},
		{
			ID: "headgear-open", Name: "Open Face Headgear", Slug: "open-face-headgear",
			Description: "Sparring headgear with cheek protection.",
			Category:    "Protection", Price: 74.5,
			Image:  "/images/products/headgear-open.jpg",
			Colors: []string{"Black", "Red"}, Sizes: []string{"S", "M", "L"},
			InStock: true,
		},
		{
			ID: "mouthguard-gel", Name: "Gel Mouthguard", Slug: "gel-mouthguard",
			Description: "Boil-and-bite mouthguard with case.",
			Category:    "Protection", Price: 14.99, OriginalPrice: price(19.99),
			Image:  "/images/products/mouthguard-gel.jpg",
			Colors: []string{"Clear", "Black"}, Sizes: []string{"Junior", "Adult"},
			InStock: true,
		},
		{
			ID: "heavy-bag-120", Name: "Heavy Bag 120cm", Slug: "heavy-bag-120cm",
			Description: "Filled synthetic-leather heavy bag, 35kg.",
			Category:    "Training", Price: 189,
			Image:  "/images/products/heavy-bag-120.jpg",
			Colors: []string{"Black"}, Sizes: []string{"120cm"},
			InStock: false,
		},
		{
			ID: "shorts-satin", Name: "Satin Boxing Shorts", Slug: "satin-boxing-shorts",
			Description: "Lightweight satin trunks with wide waistband.",
			Category:    "Apparel", Price: 39.99,
			Image:  "/images/products/shorts-satin.jpg",
			Colors: []string{"Red", "Blue", "Gold"}, Sizes: []string{"S", "M", "L", "XL"},
			Customizable: true, InStock: true,
		},
	}
}
