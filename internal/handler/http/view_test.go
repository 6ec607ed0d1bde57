package http

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/rocketshoes/internal/domain"
)

func TestNewCartView(t *testing.T) {
	cart := domain.Cart{
		{ID: 1, Title: "Tênis de Caminhada Leve Confortável", Price: 179.9, Image: "tenis1.jpg", Amount: 3},
		{ID: 2, Title: "Tênis VR Caminhada Confortável Detalhes Couro Masculino", Price: 139.9, Image: "tenis2.jpg", Amount: 1},
	}

	view := NewCartView(cart)

	require.Len(t, view.Items, 2)
	assert.InDelta(t, 539.7, view.Items[0].Subtotal, 1e-9)
	assert.True(t, view.Items[0].CanDecrement)
	assert.InDelta(t, 139.9, view.Items[1].Subtotal, 1e-9)
	assert.False(t, view.Items[1].CanDecrement)
	assert.Equal(t, 4, view.ItemCount)

	var sum float64
	for _, item := range view.Items {
		sum += item.Price * float64(item.Amount)
	}
	assert.InDelta(t, sum, view.Total, 1e-9)
}

func TestNewCartView_EmptyItemsEncodeAsList(t *testing.T) {
	data, err := json.Marshal(NewCartView(nil))
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"item_count":0,"total":0}`, string(data))
}
