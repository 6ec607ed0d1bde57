package http

import "github.com/utafrali/rocketshoes/internal/domain"

// ItemView is one cart row as the storefront renders it.
type ItemView struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Price        float64 `json:"price"`
	Image        string  `json:"image"`
	Amount       int     `json:"amount"`
	Subtotal     float64 `json:"subtotal"`
	CanDecrement bool    `json:"can_decrement"`
}

// CartView is the cart page: rows in cart order plus totals.
type CartView struct {
	Items     []ItemView `json:"items"`
	ItemCount int        `json:"item_count"`
	Total     float64    `json:"total"`
}

// NewCartView derives the page model from a cart. The decrement control is
// disabled at amount 1.
func NewCartView(cart domain.Cart) CartView {
	items := make([]ItemView, len(cart))
	for i, p := range cart {
		items[i] = ItemView{
			ID:           p.ID,
			Title:        p.Title,
			Price:        p.Price,
			Image:        p.Image,
			Amount:       p.Amount,
			Subtotal:     p.Subtotal(),
			CanDecrement: p.Amount > 1,
		}
	}
	return CartView{
		Items:     items,
		ItemCount: cart.ItemCount(),
		Total:     cart.Total(),
	}
}
