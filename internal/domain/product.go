package domain

import (
	"time"
)

// Category is one of the fixed catalog sections
type Category string

const (
	CategoryMen       Category = "men"
	CategoryWomen     Category = "women"
	CategoryKidsBoys  Category = "kids-boys"
	CategoryKidsGirls Category = "kids-girls"
)

// Categories lists every valid category in display order
var Categories = []Category{CategoryMen, CategoryWomen, CategoryKidsBoys, CategoryKidsGirls}

// Valid reports whether c belongs to the fixed category set
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Size is a selectable size option of a product
type Size struct {
	Name      string `json:"name" validate:"required"`
	Value     string `json:"value" validate:"required"`
	Available bool   `json:"available"`
}

// Color is a selectable color option of a product
type Color struct {
	Name      string `json:"name" validate:"required"`
	Value     string `json:"value" validate:"required"`
	Available bool   `json:"available"`
}

// Product represents a product in the catalog
type Product struct {
	ID            string    `json:"id" validate:"required"`
	Name          string    `json:"name" validate:"required"`
	Description   string    `json:"description"`
	Price         float64   `json:"price" validate:"gte=0"`
	OriginalPrice *float64  `json:"originalPrice,omitempty" validate:"omitempty,gte=0"`
	Category      Category  `json:"category" validate:"required,oneof=men women kids-boys kids-girls"`
	Subcategory   string    `json:"subcategory"`
	Images        []string  `json:"images"`
	Sizes         []Size    `json:"sizes" validate:"dive"`
	Colors        []Color   `json:"colors" validate:"dive"`
	Stock         int       `json:"stock" validate:"gte=0"`
	Featured      bool      `json:"featured"`
	NewProduct    bool      `json:"newProduct"`
	OnSale        bool      `json:"onSale"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Clone returns a deep copy that shares no slices or pointers with p
func (p Product) Clone() Product {
	out := p
	if p.OriginalPrice != nil {
		v := *p.OriginalPrice
		out.OriginalPrice = &v
	}
	out.Images = append([]string{}, p.Images...)
	out.Sizes = append([]Size{}, p.Sizes...)
	out.Colors = append([]Color{}, p.Colors...)
	return out
}

// FindSize returns the size option with the given value
func (p Product) FindSize(value string) (Size, bool) {
	for _, s := range p.Sizes {
		if s.Value == value {
			return s, true
		}
	}
	return Size{}, false
}

// FindColor returns the color option with the given value
func (p Product) FindColor(value string) (Color, bool) {
	for _, c := range p.Colors {
		if c.Value == value {
			return c, true
		}
	}
	return Color{}, false
}
