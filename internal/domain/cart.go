package domain

import "slices"

// Cart is an ordered list of line items with at most one entry per product
// id. Methods never modify the receiver, so a published Cart stays valid
// after later mutations.
type Cart []Product

// IndexOf returns the position of the line item for id, or -1.
func (c Cart) IndexOf(id int) int {
	return slices.IndexFunc(c, func(p Product) bool { return p.ID == id })
}

// Find returns the line item for id.
func (c Cart) Find(id int) (Product, bool) {
	i := c.IndexOf(id)
	if i < 0 {
		return Product{}, false
	}
	return c[i], true
}

// Contains reports whether the cart has a line item for id.
func (c Cart) Contains(id int) bool {
	return c.IndexOf(id) >= 0
}

// WithProduct returns a copy with p appended.
func (c Cart) WithProduct(p Product) Cart {
	out := make(Cart, len(c), len(c)+1)
	copy(out, c)
	return append(out, p)
}

// WithAmount returns a copy in which the line item for id has the given
// amount, in the same position. The copy equals c if id is absent.
func (c Cart) WithAmount(id, amount int) Cart {
	out := c.Clone()
	if i := out.IndexOf(id); i >= 0 {
		out[i].Amount = amount
	}
	return out
}

// Without returns a copy with the line item for id removed.
func (c Cart) Without(id int) Cart {
	out := make(Cart, 0, len(c))
	for _, p := range c {
		if p.ID != id {
			out = append(out, p)
		}
	}
	return out
}

// Clone returns a copy of the cart. A nil cart clones to an empty one.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

// Total returns the sum of price * amount over all line items.
func (c Cart) Total() float64 {
	var total float64
	for _, p := range c {
		total += p.Subtotal()
	}
	return total
}

// ItemCount returns the sum of amounts.
func (c Cart) ItemCount() int {
	var n int
	for _, p := range c {
		n += p.Amount
	}
	return n
}
