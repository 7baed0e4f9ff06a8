package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/pricing"
)

type Reducer struct {
	pricing pricing.Config
	now     func() time.Time
	newID   func() string
}

type Option func(*Reducer)

func WithClock(now func() time.Time) Option {
	return func(r *Reducer) { r.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(r *Reducer) { r.newID = newID }
}

func NewReducer(cfg pricing.Config, opts ...Option) *Reducer {
	r := &Reducer{
		pricing: cfg,
		now:     time.Now,
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Reduce applies a to c and returns the new cart. c is never modified.
func (r *Reducer) Reduce(c Cart, a Action) Cart {
	next := r.Normalize(c)

	switch a := a.(type) {
	case AddItem:
		if a.Quantity < 1 {
			return next
		}
		if i := next.Find(a.Product.ID, a.Variant.ID); i >= 0 {
			next.Lines[i].Quantity = a.Quantity
		} else {
			next.Lines = append(next.Lines, Line{
				ID:       r.newID(),
				Product:  RefOf(a.Product),
				Variant:  a.Variant,
				Quantity: a.Quantity,
				AddedAt:  r.now(),
			})
		}
	case RemoveItem:
		next.Lines = removeLine(next.Lines, a.LineID)
	case UpdateQuantity:
		i := next.lineIndex(a.LineID)
		if i < 0 {
			return next
		}
		if a.Quantity <= 0 {
			next.Lines = removeLine(next.Lines, a.LineID)
		} else {
			next.Lines[i].Quantity = a.Quantity
		}
	case Clear:
		return Empty()
	default:
		return next
	}

	return r.recompute(next)
}

// Normalize rebuilds the derived fields from the line list. It tolerates carts stored
// before the derived fields existed: lines with a non-positive quantity are dropped and
// duplicate (product, variant) lines collapse into the first one, keeping the latest quantity.
func (r *Reducer) Normalize(c Cart) Cart {
	out := Cart{Lines: make([]Line, 0, len(c.Lines))}
	for _, l := range c.Lines {
		if l.Quantity <= 0 {
			continue
		}
		if i := out.Find(l.Product.ID, l.Variant.ID); i >= 0 {
			out.Lines[i].Quantity = l.Quantity
			continue
		}
		out.Lines = append(out.Lines, l)
	}
	return r.recompute(out)
}

func (r *Reducer) recompute(c Cart) Cart {
	if len(c.Lines) == 0 {
		return Empty()
	}

	subtotal := decimal.Zero
	count := 0
	for _, l := range c.Lines {
		subtotal = subtotal.Add(pricing.LineTotal(l.Variant.Price, l.Quantity))
		count += l.Quantity
	}

	c.Subtotal = subtotal
	c.DeliveryCharge, c.Total = r.pricing.Quote(subtotal)
	c.ItemCount = count
	return c
}

func removeLine(lines []Line, lineID string) []Line {
	out := make([]Line, 0, len(lines))
	for _, l := range lines {
		if l.ID != lineID {
			out = append(out, l)
		}
	}
	return out
}
