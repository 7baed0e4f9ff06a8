package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yashturmbekar/atyourdoorstep-sub001/cart-service/internal/cache"
	"github.com/yashturmbekar/atyourdoorstep-sub001/cart-service/internal/repository"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/cart"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/catalog"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/contracts"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/logger"
)

// CartService loads a user's cart, applies one action through a cart.Store and persists
// the result. The cart value itself is never modified outside the store.
type CartService struct {
	repo    repository.CartRepository
	cache   cache.CartCache
	catalog catalog.Reader
	reducer *cart.Reducer
	log     *zap.Logger
	sfg     singleflight.Group // Prevents cache stampede
}

func NewCartService(
	repo repository.CartRepository,
	cache cache.CartCache,
	catalog catalog.Reader,
	reducer *cart.Reducer,
	log *zap.Logger) *CartService {

	return &CartService{
		repo:    repo,
		cache:   cache,
		catalog: catalog,
		reducer: reducer,
		log:     log,
	}
}

func (s *CartService) GetCart(ctx context.Context, userID string) (*cart.Cart, error) {
	// Use singleflight to prevent multiple concurrent cache misses for same key
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		c, err := s.cache.Get(ctx, userID)
		if err == nil {
			normalized := s.reducer.Normalize(*c)
			return &normalized, nil
		}

		if !errors.Is(err, cache.ErrCacheMiss) {
			logger.FromContext(ctx, s.log).Warn("cache get error", zap.String("user_id", userID), zap.Error(err))
		}

		// the version is taken before the repo read; an invalidation in between turns the fill into a no-op
		version, verr := s.cache.Version(ctx, userID)

		c, err = s.load(ctx, userID)
		if err != nil {
			return nil, err
		}

		if verr != nil {
			logger.FromContext(ctx, s.log).Warn("cache version error", zap.String("user_id", userID), zap.Error(verr))
		} else if err := s.cache.Set(ctx, userID, c, version); err != nil && !errors.Is(err, cache.ErrStaleVersion) {
			logger.FromContext(ctx, s.log).Warn("cache set error", zap.String("user_id", userID), zap.Error(err))
		}

		return c, nil
	})

	if err != nil {
		return nil, err
	}

	return v.(*cart.Cart), nil
}

// LoadCart reads the stored cart without going through the cache. Checkout uses it
// so an order is never priced from a cached copy.
func (s *CartService) LoadCart(ctx context.Context, userID string) (*cart.Cart, error) {
	return s.load(ctx, userID)
}

// AddItem resolves the variant from the catalog and sets its quantity in the cart.
func (s *CartService) AddItem(ctx context.Context, userID, productID, variantID string, quantity int) (*cart.Cart, error) {
	if quantity < 1 || quantity > MaxQuantity {
		return nil, ErrInvalidQuantity
	}

	product, variant, err := catalog.Resolve(ctx, s.catalog, productID, variantID)
	if err != nil {
		return nil, err
	}
	if !variant.Available {
		return nil, ErrVariantUnavailable
	}

	return s.apply(ctx, userID, cart.AddItem{Product: *product, Variant: variant, Quantity: quantity})
}

// UpdateQuantity removes the line when quantity is zero or negative.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, lineID string, quantity int) (*cart.Cart, error) {
	if quantity > MaxQuantity {
		return nil, ErrInvalidQuantity
	}
	return s.apply(ctx, userID, cart.UpdateQuantity{LineID: lineID, Quantity: quantity})
}

func (s *CartService) RemoveItem(ctx context.Context, userID, lineID string) (*cart.Cart, error) {
	return s.apply(ctx, userID, cart.RemoveItem{LineID: lineID})
}

func (s *CartService) ClearCart(ctx context.Context, userID string) (*cart.Cart, error) {
	return s.apply(ctx, userID, cart.Clear{})
}

// RemoveOrdered drops the lines an order placed at placedAt was built from. Lines added
// after placedAt, or whose quantity no longer matches the ordered one, are kept. With no
// items every line added up to placedAt is dropped.
func (s *CartService) RemoveOrdered(ctx context.Context, userID string, placedAt time.Time, items []contracts.OrderedItem) (*cart.Cart, error) {
	return s.applyPlanned(ctx, userID, func(current cart.Cart) []cart.Action {
		var actions []cart.Action
		for _, l := range current.Lines {
			if l.AddedAt.After(placedAt) {
				continue
			}
			if len(items) > 0 && !ordered(items, l) {
				continue
			}
			actions = append(actions, cart.RemoveItem{LineID: l.ID})
		}
		return actions
	})
}

func ordered(items []contracts.OrderedItem, l cart.Line) bool {
	for _, it := range items {
		if it.ProductID == l.Product.ID && it.VariantID == l.Variant.ID {
			return it.Quantity == 0 || it.Quantity == l.Quantity
		}
	}
	return false
}

func (s *CartService) apply(ctx context.Context, userID string, action cart.Action) (*cart.Cart, error) {
	return s.applyPlanned(ctx, userID, func(cart.Cart) []cart.Action { return []cart.Action{action} })
}

// applyPlanned dispatches the actions plan derives from the current cart. An empty plan
// leaves the stored cart and the cache alone.
func (s *CartService) applyPlanned(ctx context.Context, userID string, plan func(cart.Cart) []cart.Action) (*cart.Cart, error) {
	current, err := s.load(ctx, userID)
	if err != nil {
		return nil, err
	}

	actions := plan(*current)
	if len(actions) == 0 {
		return current, nil
	}

	store := cart.NewStore(s.reducer, *current)
	var next cart.Cart
	for _, a := range actions {
		next = store.Dispatch(a)
	}

	if next.IsEmpty() {
		err = s.repo.DeleteCart(ctx, userID)
		if errors.Is(err, repository.ErrCartNotFound) {
			err = nil
		}
	} else {
		err = s.repo.SaveCart(ctx, userID, next)
	}
	if err != nil {
		logger.FromContext(ctx, s.log).Error("repo save cart error", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to save cart: %w", err)
	}

	s.invalidateCache(userID)
	return &next, nil
}

// load reads the stored cart, normalized. A missing cart is the empty cart.
func (s *CartService) load(ctx context.Context, userID string) (*cart.Cart, error) {
	stored, err := s.repo.GetCart(ctx, userID)
	if errors.Is(err, repository.ErrCartNotFound) {
		empty := cart.Empty()
		return &empty, nil
	}
	if err != nil {
		return nil, err
	}

	normalized := s.reducer.Normalize(*stored)
	return &normalized, nil
}

func (s *CartService) invalidateCache(userID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.log.Warn("cache invalidate error", zap.String("user_id", userID), zap.Error(err))
	}
}
