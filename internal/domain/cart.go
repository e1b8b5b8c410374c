package domain

// LineKey identifies a cart line: one product in one size and color
type LineKey struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// CartItem is one line of a shopping cart. Product is a snapshot taken
// when the line was first added and is never refreshed from the catalog.
type CartItem struct {
	Product  Product `json:"product"`
	Size     string  `json:"size"`
	Color    string  `json:"color"`
	Quantity int     `json:"quantity"`
}

// Key returns the identity of the line
func (i CartItem) Key() LineKey {
	return LineKey{ProductID: i.Product.ID, Size: i.Size, Color: i.Color}
}
