package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"ringside/internal/domain"
	"ringside/internal/money"
)

// Material is a customizer finish with a price surcharge.
type Material struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Surcharge float64 `json:"surcharge"`
}

// CustomizerOptions lists the choices the customizer form offers.
type CustomizerOptions struct {
	Colors    []string   `json:"colors"`
	Materials []Material `json:"materials"`
	Sizes     []string   `json:"sizes"`
}

// Customization is one submitted customizer form.
type Customization struct {
	ProductID string `json:"productId"`
	Color     string `json:"color"`
	Material  string `json:"material"`
	Size      string `json:"size"`
	Quantity  int    `json:"quantity"`
}

var defaultOptions = CustomizerOptions{
	Colors: []string{"Black", "White", "Red", "Blue", "Gold", "Green"},
	Materials: []Material{
		{ID: "synthetic", Name: "Synthetic Leather", Surcharge: 0},
		{ID: "leather", Name: "Genuine Leather", Surcharge: 40},
		{ID: "premium", Name: "Premium Leather", Surcharge: 80},
	},
	Sizes: []string{"10oz", "12oz", "14oz", "16oz"},
}

// CustomizerService turns customizer selections into cart lines.
type CustomizerService struct {
	catalog *CatalogService
	carts   *CartService
	money   money.Formatter
	options CustomizerOptions
}

func NewCustomizerService(catalog *CatalogService, carts *CartService, f money.Formatter) *CustomizerService {
	return &CustomizerService{catalog: catalog, carts: carts, money: f, options: defaultOptions}
}

// Options returns a copy of the option catalog.
func (s *CustomizerService) Options() CustomizerOptions {
	return CustomizerOptions{
		Colors:    append([]string(nil), s.options.Colors...),
		Materials: append([]Material(nil), s.options.Materials...),
		Sizes:     append([]string(nil), s.options.Sizes...),
	}
}

// Compose validates c against the product and the option catalog and
// builds the resulting cart line.
func (s *CustomizerService) Compose(ctx context.Context, c Customization) (domain.CartItem, error) {
	if c.ProductID == "" || c.Quantity < 0 {
		return domain.CartItem{}, ErrInvalidInput
	}
	p, err := s.catalog.Product(ctx, c.ProductID)
	if err != nil {
		return domain.CartItem{}, err
	}
	if !p.Customizable {
		return domain.CartItem{}, fmt.Errorf("%w: %s is not customizable", ErrInvalidInput, p.ID)
	}

	fields := map[string]string{}
	if !contains(s.options.Colors, c.Color) {
		fields["color"] = "unknown color"
	}
	mat, ok := s.material(c.Material)
	if !ok {
		fields["material"] = "unknown material"
	}
	sizes := p.Sizes
	if len(sizes) == 0 {
		sizes = s.options.Sizes
	}
	if !contains(sizes, c.Size) {
		fields["size"] = "size not offered for this product"
	}
	if len(fields) > 0 {
		return domain.CartItem{}, &ValidationError{Fields: fields}
	}

	price := decimal.NewFromFloat(p.Price).Add(decimal.NewFromFloat(mat.Surcharge))
	qty := c.Quantity
	if qty == 0 {
		qty = 1
	}
	return domain.CartItem{
		ID:       fmt.Sprintf("%s-custom-%s-%s", p.ID, mat.ID, strings.ToLower(c.Color)),
		Name:     fmt.Sprintf("%s (Custom, %s)", p.Name, mat.Name),
		Price:    s.money.Format(price),
		Image:    p.Image,
		Quantity: qty,
		Size:     c.Size,
		Color:    c.Color,
	}, nil
}

// AddToCart composes c and adds it to the user's cart.
func (s *CustomizerService) AddToCart(ctx context.Context, userID string, c Customization) ([]domain.CartItem, error) {
	item, err := s.Compose(ctx, c)
	if err != nil {
		return nil, err
	}
	return s.carts.Add(ctx, userID, item)
}

func (s *CustomizerService) material(id string) (Material, bool) {
	for _, m := range s.options.Materials {
		if m.ID == id {
			return m, true
		}
	}
	return Material{}, false
}

func contains(vals []string, v string) bool {
	for _, x := range vals {
		if x == v {
			return true
		}
	}
	return false
}
