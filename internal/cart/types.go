// Package cart defines the canonical client-side cart model and the
// normalization layer that converts the backend's inconsistent JSON shapes
// into it. The storefront API returns carts and catalog listings in several
// shapes (missing items, alternate id field names, absent quantities);
// everything downstream of this package sees exactly one shape.
package cart

// Product is one catalog entry as listed by the storefront.
type Product struct {
	ID     int64   `json:"id"`
	Name   string  `json:"name"`
	Price  float64 `json:"price"`
	Status string  `json:"status"`
}

// Available reports whether the product can currently be added to a cart.
func (p Product) Available() bool {
	return p.Status == "available"
}

// Line is one product line within a cart.
type Line struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
}

// Subtotal is the line total (price times quantity).
func (l Line) Subtotal() float64 {
	return l.Price * float64(l.Quantity)
}

// Cart is the canonical cart for the current shopper. ID is the
// server-assigned cart identifier, or 0 when no cart exists yet.
// Lines is never nil.
type Cart struct {
	ID    int64  `json:"id"`
	Lines []Line `json:"items"`
}

// Empty returns a well-formed cart with no server identity and no lines.
func Empty() Cart {
	return Cart{ID: 0, Lines: []Line{}}
}

// Units is the total number of units across all lines.
func (c Cart) Units() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// Subtotal sums the line subtotals.
func (c Cart) Subtotal() float64 {
	sum := 0.0
	for _, l := range c.Lines {
		sum += l.Subtotal()
	}
	return sum
}

// Quantity returns the quantity of the given product in the cart, 0 if the
// product is not present.
func (c Cart) Quantity(productID int64) int {
	for _, l := range c.Lines {
		if l.ID == productID {
			return l.Quantity
		}
	}
	return 0
}
