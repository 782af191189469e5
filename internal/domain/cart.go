package domain

import (
	"encoding/json"
	"fmt"
)

// Cart is the ordered list of line items, unique by product id.
type Cart []Product

// Find returns the index of the line item for productID, or -1.
func (c Cart) Find(productID int64) int {
	for i, p := range c {
		if p.ID == productID {
			return i
		}
	}
	return -1
}

// AmountOf returns the requested amount of productID, 0 when absent.
func (c Cart) AmountOf(productID int64) int {
	if i := c.Find(productID); i >= 0 {
		return c[i].Amount
	}
	return 0
}

// Clone returns a copy that shares nothing with c.
func (c Cart) Clone() Cart {
	out := make(Cart, len(c))
	copy(out, c)
	return out
}

func (c Cart) Total() float64 {
	var total float64
	for _, p := range c {
		total += p.Subtotal()
	}
	return total
}

// ItemCount is the number of distinct products, as shown in the header badge.
func (c Cart) ItemCount() int {
	return len(c)
}

func (c Cart) Marshal() (string, error) {
	if c == nil {
		c = Cart{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal cart failed: %w", err)
	}
	return string(data), nil
}

// UnmarshalCart parses a stored cart. Line items with a non-positive amount
// or a duplicated id make the whole payload invalid.
func UnmarshalCart(data string) (Cart, error) {
	var cart Cart
	if err := json.Unmarshal([]byte(data), &cart); err != nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", err)
	}
	if cart == nil {
		return nil, fmt.Errorf("unmarshal cart failed: %w", ErrInvalidCart)
	}
	seen := make(map[int64]struct{}, len(cart))
	for _, p := range cart {
		if p.Amount < 1 {
			return nil, fmt.Errorf("product %d: %w", p.ID, ErrInvalidCart)
		}
		if _, dup := seen[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product %d: %w", p.ID, ErrInvalidCart)
		}
		seen[p.ID] = struct{}{}
	}
	return cart, nil
}
