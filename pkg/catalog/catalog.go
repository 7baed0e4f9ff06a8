// Package catalog holds the read-only product records consumed by the cart and checkout.
package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("variant not found")
)

type Variant struct {
	ID              string           `json:"id"`
	Size            string           `json:"size"`
	Unit            string           `json:"unit"`
	Price           decimal.Decimal  `json:"price"`
	DiscountedPrice *decimal.Decimal `json:"discounted_price,omitempty"`
	StockQuantity   int              `json:"stock_quantity"`
	Available       bool             `json:"available"`
}

type Product struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Category string    `json:"category"`
	Image    string    `json:"image"`
	Variants []Variant `json:"variants"`
}

func (p Product) Variant(id string) (Variant, bool) {
	for _, v := range p.Variants {
		if v.ID == id {
			return v, true
		}
	}
	return Variant{}, false
}

// Reader is the catalog surface this module depends on.
type Reader interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
}

// Resolve fetches a product and one of its variants.
func Resolve(ctx context.Context, r Reader, productID, variantID string) (*Product, Variant, error) {
	product, err := r.GetProduct(ctx, productID)
	if err != nil {
		return nil, Variant{}, err
	}
	variant, ok := product.Variant(variantID)
	if !ok {
		return nil, Variant{}, ErrVariantNotFound
	}
	return product, variant, nil
}
