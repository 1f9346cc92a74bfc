package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	UserID     string          `json:"user_id"`
	Items      []CartItem      `json:"items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Version    int64           `json:"version"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// CartItem is a line in a cart. Name, Price and Image are copied from the product
// when the line is created and are not refreshed afterwards.
type CartItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     string          `json:"image,omitempty"`
	Quantity  int             `json:"quantity"`
	AddedAt   time.Time       `json:"added_at"`
}

// EmptyCart is the shape returned for a user who has no cart record.
func EmptyCart(userID string) *Cart {
	return &Cart{
		UserID:     userID,
		Items:      []CartItem{},
		TotalPrice: decimal.Zero,
	}
}

func (i CartItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func (c *Cart) indexOf(productID string) int {
	for i := range c.Items {
		if c.Items[i].ProductID == productID {
			return i
		}
	}
	return -1
}

// QuantityOf returns how many units of productID are already in the cart.
func (c *Cart) QuantityOf(productID string) int {
	if i := c.indexOf(productID); i >= 0 {
		return c.Items[i].Quantity
	}
	return 0
}

// AddItem increments an existing line or appends a new one priced at the
// product's effective price. The total is updated incrementally using the
// line's snapshot price.
func (c *Cart) AddItem(p Product, quantity int, now time.Time) {
	var unit decimal.Decimal
	if i := c.indexOf(p.ID); i >= 0 {
		c.Items[i].Quantity += quantity
		unit = c.Items[i].Price
	} else {
		unit = p.EffectivePrice()
		c.Items = append(c.Items, CartItem{
			ProductID: p.ID,
			Name:      p.Name,
			Price:     unit,
			Image:     p.PrimaryImage(),
			Quantity:  quantity,
			AddedAt:   now,
		})
	}
	c.TotalPrice = c.TotalPrice.Add(unit.Mul(decimal.NewFromInt(int64(quantity))))
	c.UpdatedAt = now
}

// RemoveItem drops the line for productID, if any, and recomputes the total
// from the remaining lines. It reports whether a line was removed.
func (c *Cart) RemoveItem(productID string, now time.Time) bool {
	kept := make([]CartItem, 0, len(c.Items))
	removed := false
	for _, item := range c.Items {
		if item.ProductID == productID {
			removed = true
			continue
		}
		kept = append(kept, item)
	}
	c.Items = kept
	c.Recalculate()
	c.UpdatedAt = now
	return removed
}

// Recalculate sets TotalPrice to the sum of all line subtotals.
func (c *Cart) Recalculate() {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Subtotal())
	}
	c.TotalPrice = total
}

// Clone returns a deep copy so retries can start from an untouched aggregate.
func (c *Cart) Clone() *Cart {
	cp := *c
	cp.Items = make([]CartItem, len(c.Items))
	copy(cp.Items, c.Items)
	return &cp
}
