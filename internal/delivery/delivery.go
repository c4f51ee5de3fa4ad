// Package delivery holds the static shipping catalog and the pickup code
// generator.
package delivery

import (
	"math/rand/v2"
	"sync"
	"time"

	"ringside/internal/domain"
)

const (
	CodeLength = 6
	codeDigits = 2
	letters    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits     = "0123456789"
)

// CodeGenerator produces human-readable pickup codes. Codes are cosmetic:
// the source is not cryptographic and uniqueness is not checked.
type CodeGenerator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewCodeGenerator seeds from the clock.
func NewCodeGenerator() *CodeGenerator {
	seed := uint64(time.Now().UnixNano())
	return NewCodeGeneratorWithSource(rand.NewPCG(seed, seed>>1|1))
}

// NewCodeGeneratorWithSource is used by tests that need a fixed sequence.
func NewCodeGeneratorWithSource(src rand.Source) *CodeGenerator {
	return &CodeGenerator{rnd: rand.New(src)}
}

// Generate returns six uppercase letters with two distinct positions
// overwritten by digits.
func (g *CodeGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	code := make([]byte, CodeLength)
	for i := range code {
		code[i] = letters[g.rnd.IntN(len(letters))]
	}
	for _, pos := range g.rnd.Perm(CodeLength)[:codeDigits] {
		code[pos] = digits[g.rnd.IntN(len(digits))]
	}
	return string(code)
}

var shippingMethods = []domain.ShippingMethod{
	{ID: "pickup-point", Name: "Pickup point", Price: 9.99, EstimatedDays: "1-2"},
	{ID: "courier", Name: "Courier", Price: 14.99, EstimatedDays: "1-3", RequiresAddress: true},
	{ID: "express", Name: "Express courier", Price: 24.99, EstimatedDays: "1", RequiresAddress: true},
	{ID: "test", Name: "Test delivery", Price: 0, EstimatedDays: "0", IsTest: true},
}

var deliveryPoints = []domain.DeliveryPoint{
	{ID: "dp-centrum", Name: "Ringside Centrum", Address: "Marszałkowska 104, Warszawa", Lat: 52.2319, Lng: 21.0067},
	{ID: "dp-mokotow", Name: "Ringside Mokotów", Address: "Puławska 145, Warszawa", Lat: 52.1925, Lng: 21.0226},
	{ID: "dp-krakow", Name: "Ringside Kraków", Address: "Długa 12, Kraków", Lat: 50.0694, Lng: 19.9403},
	{ID: "dp-gdansk", Name: "Ringside Gdańsk", Address: "Grunwaldzka 82, Gdańsk", Lat: 54.3801, Lng: 18.6050},
}

// ShippingMethods returns a copy of the shipping catalog.
func ShippingMethods() []domain.ShippingMethod {
	return append([]domain.ShippingMethod(nil), shippingMethods...)
}

// ShippingMethod looks a method up by id.
func ShippingMethod(id string) (domain.ShippingMethod, bool) {
	for _, m := range shippingMethods {
		if m.ID == id {
			return m, true
		}
	}
	return domain.ShippingMethod{}, false
}

// DeliveryPoints returns a copy of the pickup points.
func DeliveryPoints() []domain.DeliveryPoint {
	return append([]domain.DeliveryPoint(nil), deliveryPoints...)
}

// DeliveryPoint looks a pickup point up by id.
func DeliveryPoint(id string) (domain.DeliveryPoint, bool) {
	for _, p := range deliveryPoints {
		if p.ID == id {
			return p, true
		}
	}
	return domain.DeliveryPoint{}, false
}
