package delivery

import (
	"math/rand/v2"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Shape(t *testing.T) {
	g := NewCodeGenerator()
	for i := 0; i < 2000; i++ {
		code := g.Generate()
		require.Len(t, code, CodeLength)
		var nDigits, nLetters int
		for _, r := range code {
			switch {
			case unicode.IsDigit(r):
				nDigits++
			case unicode.IsUpper(r):
				nLetters++
			default:
				require.Failf(t, "unexpected rune", "%q in %s", r, code)
			}
		}
		assert.Equal(t, 2, nDigits, code)
		assert.Equal(t, 4, nLetters, code)
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a := NewCodeGeneratorWithSource(rand.NewPCG(7, 11))
	b := NewCodeGeneratorWithSource(rand.NewPCG(7, 11))
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Generate(), b.Generate())
	}
}

func TestCatalogLookups(t *testing.T) {
	m, ok := ShippingMethod("courier")
	require.True(t, ok)
	assert.True(t, m.RequiresAddress)

	m, ok = ShippingMethod("test")
	require.True(t, ok)
	assert.True(t, m.IsTest)

	_, ok = ShippingMethod("drone")
	assert.False(t, ok)

	p, ok := DeliveryPoint("dp-krakow")
	require.True(t, ok)
	assert.NotZero(t, p.Lat)

	methods := ShippingMethods()
	methods[0].Price = -1
	again, _ := ShippingMethod(methods[0].ID)
	assert.NotEqual(t, -1.0, again.Price, "catalog must be copied")
	assert.Len(t, DeliveryPoints(), 4)
}
