package domain

// Product is a catalog item. Inside a Cart it is a line item and Amount is
// the quantity, at least 1 while present.
type Product struct {
	ID     int     `json:"id"`
	Title  string  `json:"title"`
	Price  float64 `json:"price"`
	Image  string  `json:"image"`
	Amount int     `json:"amount"`
}

// Subtotal returns Price * Amount.
func (p Product) Subtotal() float64 {
	return p.Price * float64(p.Amount)
}

// Stock is the available quantity of a product at lookup time.
type Stock struct {
	ID     int `json:"id"`
	Amount int `json:"amount"`
}
