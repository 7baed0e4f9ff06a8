package repository

import (
	"context"

	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/cart"
)

// CartRepository defines the interface for cart data operations
// Consumers define this interface, not the MongoDB implementation
type CartRepository interface {
	GetCart(ctx context.Context, userID string) (*cart.Cart, error)
	SaveCart(ctx context.Context, userID string, c cart.Cart) error
	DeleteCart(ctx context.Context, userID string) error
}
