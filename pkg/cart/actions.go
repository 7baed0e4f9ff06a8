package cart

import "github.com/yashturmbekar/atyourdoorstep-sub001/pkg/catalog"

// Action is one of AddItem, RemoveItem, UpdateQuantity or Clear.
type Action interface {
	action()
}

// AddItem sets the quantity of the (product, variant) line, appending it when absent.
// Re-adding a variant replaces its quantity; it does not accumulate.
type AddItem struct {
	Product  catalog.Product
	Variant  catalog.Variant
	Quantity int
}

type RemoveItem struct {
	LineID string
}

// UpdateQuantity removes the line when Quantity <= 0.
type UpdateQuantity struct {
	LineID   string
	Quantity int
}

type Clear struct{}

func (AddItem) action()        {}
func (RemoveItem) action()     {}
func (UpdateQuantity) action() {}
func (Clear) action()          {}
