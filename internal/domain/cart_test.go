package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCart() Cart {
	return Cart{
		{ID: 1, Title: "Tênis de Caminhada Leve Confortável", Price: 179.9, Amount: 2},
		{ID: 2, Title: "Tênis VR Caminhada Confortável Detalhes Couro Masculino", Price: 139.9, Amount: 1},
		{ID: 3, Title: "Tênis Adidas Duramo Lite 2.0", Price: 219.9, Amount: 3},
	}
}

// ============================================================================
// Lookup Tests
// ============================================================================

func TestIndexOf(t *testing.T) {
	c := sampleCart()
	assert.Equal(t, 0, c.IndexOf(1))
	assert.Equal(t, 2, c.IndexOf(3))
	assert.Equal(t, -1, c.IndexOf(99))
	assert.Equal(t, -1, Cart(nil).IndexOf(1))
}

func TestFind(t *testing.T) {
	p, ok := sampleCart().Find(2)
	require.True(t, ok)
	assert.Equal(t, 139.9, p.Price)

	_, ok = sampleCart().Find(42)
	assert.False(t, ok)
}

func TestContains(t *testing.T) {
	assert.True(t, sampleCart().Contains(3))
	assert.False(t, sampleCart().Contains(4))
}

// ============================================================================
// Copy-on-write Tests
// ============================================================================

func TestWithProduct_AppendsWithoutTouchingReceiver(t *testing.T) {
	c := sampleCart()
	got := c.WithProduct(Product{ID: 4, Amount: 1})

	assert.Len(t, c, 3)
	require.Len(t, got, 4)
	assert.Equal(t, 4, got[3].ID)
}

func TestWithProduct_DoesNotShareBackingArray(t *testing.T) {
	base := make(Cart, 1, 4)
	base[0] = Product{ID: 1, Amount: 1}

	a := base.WithProduct(Product{ID: 2, Amount: 1})
	b := base.WithProduct(Product{ID: 3, Amount: 1})

	assert.Equal(t, 2, a[1].ID)
	assert.Equal(t, 3, b[1].ID)
}

func TestWithAmount_IsPositionStable(t *testing.T) {
	c := sampleCart()
	got := c.WithAmount(2, 5)

	assert.Equal(t, []int{1, 2, 3}, ids(got))
	assert.Equal(t, 5, got[1].Amount)
	assert.Equal(t, 1, c[1].Amount)
	assert.Equal(t, c[0], got[0])
	assert.Equal(t, c[2], got[2])
}

func TestWithAmount_MissingID(t *testing.T) {
	c := sampleCart()
	assert.Equal(t, c, c.WithAmount(99, 5))
}

func TestWithout(t *testing.T) {
	c := sampleCart()
	got := c.Without(2)

	assert.Equal(t, []int{1, 3}, ids(got))
	assert.Len(t, c, 3)
	assert.Equal(t, ids(c), ids(c.Without(99)))
}

func TestClone_Nil(t *testing.T) {
	got := Cart(nil).Clone()
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

// ============================================================================
// Aggregate Tests
// ============================================================================

func TestTotal(t *testing.T) {
	// 2*179.9 + 1*139.9 + 3*219.9
	assert.InDelta(t, 1159.4, sampleCart().Total(), 1e-9)
	assert.Zero(t, Cart{}.Total())
}

func TestItemCount(t *testing.T) {
	assert.Equal(t, 6, sampleCart().ItemCount())
	assert.Zero(t, Cart(nil).ItemCount())
}

func TestSubtotal(t *testing.T) {
	assert.InDelta(t, 659.7, Product{Price: 219.9, Amount: 3}.Subtotal(), 1e-9)
}

func ids(c Cart) []int {
	out := make([]int, len(c))
	for i, p := range c {
		out[i] = p.ID
	}
	return out
}
