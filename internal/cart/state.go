package cart

import (
	"github.com/shopspring/decimal"
)

// Product is a catalog item as the cart consumes it. Identity is ID;
// the cart never fetches products itself.
type Product struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Description  string          `json:"description,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Category     string          `json:"category,omitempty"`
	ImageURL     string          `json:"image_url,omitempty"`
	RestaurantID string          `json:"restaurant_id"`
}

// Line is a product plus a strictly positive quantity.
type Line struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

// LineTotal returns price times quantity for this line.
func (l Line) LineTotal() decimal.Decimal {
	return l.Product.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Discount records the outcome of an external promo verification. The cart
// applies it verbatim and never second-guesses validity.
type Discount struct {
	Code   string          `json:"code"`
	Amount decimal.Decimal `json:"amount"`
}

// State is the cart aggregate. Lines preserve insertion order, all lines
// share one restaurant, and the restaurant binding is derived rather than
// stored.
type State struct {
	Lines       []Line          `json:"lines"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	Discount    *Discount       `json:"discount,omitempty"`
}

// RestaurantID returns the restaurant every line belongs to, or the empty
// string for an empty cart.
func (s State) RestaurantID() string {
	if len(s.Lines) == 0 {
		return ""
	}
	return s.Lines[0].Product.RestaurantID
}

// IsEmpty reports whether the cart holds no lines.
func (s State) IsEmpty() bool {
	return len(s.Lines) == 0
}

// Subtotal sums price times quantity over all lines.
func (s State) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, line := range s.Lines {
		sum = sum.Add(line.LineTotal())
	}
	return sum
}

// DiscountAmount returns the applied discount amount, or zero when none is set.
func (s State) DiscountAmount() decimal.Decimal {
	if s.Discount == nil {
		return decimal.Zero
	}
	return s.Discount.Amount
}

// Total computes subtotal plus delivery fee minus discount. An over-large
// discount floors the result at zero rather than going negative.
func (s State) Total() decimal.Decimal {
	total := s.Subtotal().Add(s.DeliveryFee).Sub(s.DiscountAmount())
	if total.IsNegative() {
		return decimal.Zero
	}
	return total
}

// ItemCount sums quantities across all lines.
func (s State) ItemCount() int {
	count := 0
	for _, line := range s.Lines {
		count += line.Quantity
	}
	return count
}

func (s State) clone() State {
	out := State{
		DeliveryFee: s.DeliveryFee,
	}
	if len(s.Lines) > 0 {
		out.Lines = make([]Line, len(s.Lines))
		copy(out.Lines, s.Lines)
	}
	if s.Discount != nil {
		d := *s.Discount
		out.Discount = &d
	}
	return out
}

func (s State) lineIndex(productID string) int {
	for i, line := range s.Lines {
		if line.Product.ID == productID {
			return i
		}
	}
	return -1
}
