package cache

import (
	"context"
	"errors"

	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/cart"
)

// CartCache is a read-through cache with a per-user version. Delete advances the
// version, and Set only writes when the version is still the one read before the
// cart was loaded, so a fill can never resurrect a cart older than an invalidation.
type CartCache interface {
	Get(ctx context.Context, userID string) (*cart.Cart, error)
	Version(ctx context.Context, userID string) (int64, error)
	Set(ctx context.Context, userID string, c *cart.Cart, version int64) error
	Delete(ctx context.Context, userID string) error
}

var (
	ErrCacheMiss    = errors.New("cache miss")
	ErrStaleVersion = errors.New("cache version changed")
)
