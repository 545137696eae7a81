// Package cart implements the in-memory cart state machine for a single
// terminal. Stock checks happen here against the product snapshot handed in
// by the caller; persistence stays in the service layer.
package cart

import (
	"tillpoint/internal/domain"
	"tillpoint/internal/store"
)

// Cart holds the ordered lines of one terminal's active sale. It is not
// safe for concurrent use; the service serializes access.
type Cart struct {
	lines []domain.CartLine
}

func New() *Cart {
	return &Cart{}
}

// Scan adds one unit of the product. The first scan freezes the product's
// price and cost into a new line; later scans increment until the line
// reaches the product's stock.
func (c *Cart) Scan(p domain.Product) error {
	if p.Stock == 0 {
		return store.ErrOutOfStock
	}
	for i := range c.lines {
		if c.lines[i].Barcode != p.Barcode {
			continue
		}
		if c.lines[i].Quantity >= p.Stock {
			return store.ErrInsufficientStock
		}
		c.lines[i].Quantity++
		return nil
	}
	c.lines = append(c.lines, domain.CartLine{
		Barcode:    p.Barcode,
		Name:       p.Name,
		Category:   p.Category,
		PriceCents: p.PriceCents,
		CostCents:  p.CostCents,
		Quantity:   1,
	})
	return nil
}

// ChangeQuantity applies a delta to an existing line. A missing line is a
// silent no-op. A resulting quantity of zero or less removes the line; one
// above the product's stock leaves the cart unchanged.
func (c *Cart) ChangeQuantity(barcode string, delta int, stock int) error {
	for i := range c.lines {
		if c.lines[i].Barcode != barcode {
			continue
		}
		next := c.lines[i].Quantity + delta
		if next <= 0 {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return nil
		}
		if next > stock {
			return store.ErrInsufficientStock
		}
		c.lines[i].Quantity = next
		return nil
	}
	return nil
}

func (c *Cart) Remove(barcode string) {
	for i := range c.lines {
		if c.lines[i].Barcode == barcode {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return
		}
	}
}

func (c *Cart) Clear() {
	c.lines = nil
}

func (c *Cart) Empty() bool {
	return len(c.lines) == 0
}

func (c *Cart) HasLine(barcode string) bool {
	for _, line := range c.lines {
		if line.Barcode == barcode {
			return true
		}
	}
	return false
}

// Lines returns a copy so callers cannot mutate cart state.
func (c *Cart) Lines() []domain.CartLine {
	out := make([]domain.CartLine, len(c.lines))
	copy(out, c.lines)
	return out
}
