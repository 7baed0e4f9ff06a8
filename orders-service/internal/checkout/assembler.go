package checkout

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/yashturmbekar/atyourdoorstep-sub001/orders-service/internal/domain"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/cart"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/catalog"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/pricing"
)

// Assembly is the priced content of an order before customer details are attached.
type Assembly struct {
	Items          []domain.OrderItem
	Subtotal       decimal.Decimal
	DeliveryCharge decimal.Decimal
	Total          decimal.Decimal
}

func (a Assembly) ItemCount() int {
	n := 0
	for _, item := range a.Items {
		n += item.Quantity
	}
	return n
}

// Assembler prices checkouts with the same delivery tiers the cart uses.
type Assembler struct {
	pricing pricing.Config
}

func NewAssembler(cfg pricing.Config) *Assembler {
	return &Assembler{pricing: cfg}
}

func (a *Assembler) AssembleBuyNow(product catalog.Product, variant catalog.Variant, quantity int) (Assembly, error) {
	if quantity < 1 {
		return Assembly{}, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidSelection)
	}
	item, err := orderItem(cart.RefOf(product), variant, quantity)
	if err != nil {
		return Assembly{}, err
	}
	return a.price([]domain.OrderItem{item}), nil
}

// AssembleCart reprices the cart lines; the snapshot's own totals are ignored.
func (a *Assembler) AssembleCart(c cart.Cart) (Assembly, error) {
	items := make([]domain.OrderItem, 0, len(c.Lines))
	for _, line := range c.Lines {
		if line.Quantity < 1 {
			continue
		}
		item, err := orderItem(line.Product, line.Variant, line.Quantity)
		if err != nil {
			return Assembly{}, err
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return Assembly{}, ErrEmptyCart
	}
	return a.price(items), nil
}

func (a *Assembler) price(items []domain.OrderItem) Assembly {
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(item.Total)
	}
	delivery, total := a.pricing.Quote(subtotal)
	return Assembly{
		Items:          items,
		Subtotal:       subtotal,
		DeliveryCharge: delivery,
		Total:          total,
	}
}

func orderItem(product cart.ProductRef, variant catalog.Variant, quantity int) (domain.OrderItem, error) {
	if !variant.Available {
		return domain.OrderItem{}, fmt.Errorf("%w: %s (%s) is unavailable", ErrInvalidSelection, product.Name, variant.Size)
	}
	price := pricing.Clamp(variant.Price)
	return domain.OrderItem{
		ProductID:   product.ID,
		ProductName: product.Name,
		VariantID:   variant.ID,
		VariantSize: variant.Size,
		Price:       price,
		Quantity:    quantity,
		Total:       pricing.LineTotal(price, quantity),
	}, nil
}
