// Package cart implements the cart aggregate: a list of selected variants plus derived
// pricing fields that are recomputed after every action.
package cart

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/catalog"
)

// ProductRef is the part of a catalog product a cart line keeps.
type ProductRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category,omitempty"`
	Image    string `json:"image,omitempty"`
}

func RefOf(p catalog.Product) ProductRef {
	return ProductRef{ID: p.ID, Name: p.Name, Category: p.Category, Image: p.Image}
}

type Line struct {
	ID       string          `json:"id"`
	Product  ProductRef      `json:"product"`
	Variant  catalog.Variant `json:"variant"`
	Quantity int             `json:"quantity"`
	AddedAt  time.Time       `json:"added_at"`
}

type Cart struct {
	Lines          []Line          `json:"lines"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DeliveryCharge decimal.Decimal `json:"delivery_charge"`
	Total          decimal.Decimal `json:"total"`
	ItemCount      int             `json:"item_count"`
}

// Empty returns the cart value every session starts from.
func Empty() Cart {
	return Cart{Lines: []Line{}}
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Find returns the index of the line for the given product and variant, or -1.
func (c Cart) Find(productID, variantID string) int {
	for i, l := range c.Lines {
		if l.Product.ID == productID && l.Variant.ID == variantID {
			return i
		}
	}
	return -1
}

func (c Cart) lineIndex(lineID string) int {
	for i, l := range c.Lines {
		if l.ID == lineID {
			return i
		}
	}
	return -1
}

func (c Cart) clone() Cart {
	out := c
	out.Lines = make([]Line, len(c.Lines))
	copy(out.Lines, c.Lines)
	return out
}
