// Package cart holds the shopping cart state container. A Cart is a plain
// value owned by its caller; it does no locking and no I/O.
package cart

import (
	"majoe-store/internal/domain"

	"github.com/shopspring/decimal"
)

// MaxLineQuantity caps the quantity of a single cart line
const MaxLineQuantity = 99

// Cart is the set of lines of one shopping session plus the drawer flag
type Cart struct {
	items  []domain.CartItem
	isOpen bool
}

// State is the serializable form of a Cart
type State struct {
	Items  []domain.CartItem `json:"items"`
	IsOpen bool              `json:"isOpen"`
}

// New returns an empty, closed cart
func New() *Cart {
	return &Cart{items: []domain.CartItem{}}
}

// FromState rebuilds a cart from its serialized form. Lines with a
// non-positive quantity are dropped, duplicate keys are merged and every
// line is capped at MaxLineQuantity.
func FromState(s State) *Cart {
	c := New()
	c.isOpen = s.IsOpen
	for _, item := range s.Items {
		if item.Quantity <= 0 {
			continue
		}
		if i := c.indexOf(item.Key()); i >= 0 {
			c.items[i].Quantity = addCapped(c.items[i].Quantity, item.Quantity)
			continue
		}
		item.Quantity = addCapped(0, item.Quantity)
		item.Product = item.Product.Clone()
		c.items = append(c.items, item)
	}
	return c
}

// State returns a copy of the cart suitable for serialization
func (c *Cart) State() State {
	return State{Items: c.Items(), IsOpen: c.isOpen}
}

// AddItem adds quantity units of the product variant. An existing line
// with the same (product id, size, color) is incremented; otherwise a new
// line holding a snapshot of product is appended. Quantities below 1 are
// treated as 1; a line never exceeds MaxLineQuantity.
func (c *Cart) AddItem(product domain.Product, size, color string, quantity int) {
	if quantity < 1 {
		quantity = 1
	}

	key := domain.LineKey{ProductID: product.ID, Size: size, Color: color}
	if i := c.indexOf(key); i >= 0 {
		c.items[i].Quantity = addCapped(c.items[i].Quantity, quantity)
		return
	}

	c.items = append(c.items, domain.CartItem{
		Product:  product.Clone(),
		Size:     size,
		Color:    color,
		Quantity: addCapped(0, quantity),
	})
}

// RemoveItem deletes the matching line; absent lines are ignored
func (c *Cart) RemoveItem(productID, size, color string) {
	key := domain.LineKey{ProductID: productID, Size: size, Color: color}
	if i := c.indexOf(key); i >= 0 {
		c.items = append(c.items[:i], c.items[i+1:]...)
	}
}

// UpdateQuantity sets the quantity of the matching line, capped at
// MaxLineQuantity. A quantity of zero or less removes the line.
func (c *Cart) UpdateQuantity(productID, size, color string, quantity int) {
	if quantity <= 0 {
		c.RemoveItem(productID, size, color)
		return
	}

	key := domain.LineKey{ProductID: productID, Size: size, Color: color}
	if i := c.indexOf(key); i >= 0 {
		c.items[i].Quantity = addCapped(0, quantity)
	}
}

// Clear removes every line
func (c *Cart) Clear() {
	c.items = []domain.CartItem{}
}

// Toggle flips the drawer flag and returns the new value
func (c *Cart) Toggle() bool {
	c.isOpen = !c.isOpen
	return c.isOpen
}

func (c *Cart) IsOpen() bool {
	return c.isOpen
}

// Items returns a copy of the cart lines in insertion order
func (c *Cart) Items() []domain.CartItem {
	out := make([]domain.CartItem, len(c.items))
	for i, item := range c.items {
		item.Product = item.Product.Clone()
		out[i] = item
	}
	return out
}

// Line returns a copy of the line with the given key
func (c *Cart) Line(productID, size, color string) (domain.CartItem, bool) {
	i := c.indexOf(domain.LineKey{ProductID: productID, Size: size, Color: color})
	if i < 0 {
		return domain.CartItem{}, false
	}
	item := c.items[i]
	item.Product = item.Product.Clone()
	return item, true
}

// QuantityOf sums the quantity of every line of the given product
func (c *Cart) QuantityOf(productID string) int {
	total := 0
	for _, item := range c.items {
		if item.Product.ID == productID {
			total += item.Quantity
		}
	}
	return total
}

// TotalItems sums the quantity of every line
func (c *Cart) TotalItems() int {
	total := 0
	for _, item := range c.items {
		total += item.Quantity
	}
	return total
}

// TotalPrice sums price * quantity over every line using the price
// snapshot stored on the line.
func (c *Cart) TotalPrice() float64 {
	total := decimal.Zero
	for _, item := range c.items {
		line := decimal.NewFromFloat(item.Product.Price).Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	return total.InexactFloat64()
}

// addCapped adds two non-negative quantities without exceeding
// MaxLineQuantity
func addCapped(current, quantity int) int {
	if quantity > MaxLineQuantity-current {
		return MaxLineQuantity
	}
	return current + quantity
}

func (c *Cart) indexOf(key domain.LineKey) int {
	for i, item := range c.items {
		if item.Key() == key {
			return i
		}
	}
	return -1
}
