package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/yashturmbekar/atyourdoorstep-sub001/orders-service/internal/domain"
	"github.com/yashturmbekar/atyourdoorstep-sub001/orders-service/internal/repository"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/cart"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/catalog"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/contracts"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/inflight"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/logger"
)

const defaultSubmitTimeout = 15 * time.Second

type OrderStore interface {
	CreateOrder(ctx context.Context, order *domain.Order, event repository.OutboxEvent) error
	GetOrderByIdempotencyKey(ctx context.Context, userID, key string) (*domain.Order, error)
}

// CartSource returns the user's current cart.
type CartSource interface {
	GetCart(ctx context.Context, userID string) (*cart.Cart, error)
}

// Request is one checkout attempt. ProductID, VariantID and Quantity are only
// read for buy-now checkouts.
type Request struct {
	UserID         string
	IdempotencyKey string
	Source         domain.Source
	Customer       domain.CustomerInfo
	PaymentMethod  string
	Notes          string

	ProductID string
	VariantID string
	Quantity  int
}

type Submitter struct {
	store     OrderStore
	carts     CartSource
	catalog   catalog.Reader
	assembler *Assembler
	guard     *inflight.Guard
	estimate  DeliveryEstimator
	now       func() time.Time
	timeout   time.Duration
	log       *zap.Logger
}

type SubmitterOption func(*Submitter)

func WithEstimator(e DeliveryEstimator) SubmitterOption {
	return func(s *Submitter) { s.estimate = e }
}

func WithClock(now func() time.Time) SubmitterOption {
	return func(s *Submitter) { s.now = now }
}

func WithTimeout(d time.Duration) SubmitterOption {
	return func(s *Submitter) { s.timeout = d }
}

func NewSubmitter(
	store OrderStore,
	carts CartSource,
	reader catalog.Reader,
	assembler *Assembler,
	log *zap.Logger,
	opts ...SubmitterOption) *Submitter {

	s := &Submitter{
		store:     store,
		carts:     carts,
		catalog:   reader,
		assembler: assembler,
		guard:     inflight.NewGuard(),
		estimate:  RandomWindow(DefaultEstimatedDeliveryMinDays, DefaultEstimatedDeliveryMaxDays),
		now:       func() time.Time { return time.Now().UTC() },
		timeout:   defaultSubmitTimeout,
		log:       log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit materializes req into a confirmed order. Only one submission per user
// runs at a time; it is not cancelled when ctx is, and is bounded by the
// submitter's timeout instead.
func (s *Submitter) Submit(ctx context.Context, req Request) (*domain.Order, error) {

	var order *domain.Order
	err := s.guard.Do(func() error {
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		var err error
		order, err = s.submit(runCtx, req)
		return err
	}, submissionKeys(req)...)

	if errors.Is(err, inflight.ErrInFlight) {
		return nil, ErrSubmissionInProgress
	}
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *Submitter) submit(ctx context.Context, req Request) (*domain.Order, error) {
	log := logger.FromContext(ctx, s.log).With(zap.String("user_id", req.UserID), zap.String("source", string(req.Source)))

	if err := ValidateCustomer(req.Customer); err != nil {
		return nil, err
	}

	if req.IdempotencyKey != "" {
		existing, err := s.store.GetOrderByIdempotencyKey(ctx, req.UserID, req.IdempotencyKey)
		if err == nil {
			log.Info("duplicate checkout request", zap.String("order_id", existing.ID.String()))
			return existing, nil
		}
		if !errors.Is(err, repository.ErrOrderNotFound) {
			return nil, submissionFailed(fmt.Errorf("failed to check idempotency: %w", err))
		}
	}

	assembly, err := s.assemble(ctx, req)
	if err != nil {
		return nil, err
	}

	order := s.buildOrder(req, assembly)
	event, err := placedEvent(order)
	if err != nil {
		return nil, submissionFailed(err)
	}

	if err := s.store.CreateOrder(ctx, order, event); err != nil {
		if errors.Is(err, repository.ErrDuplicateOrder) {
			existing, getErr := s.store.GetOrderByIdempotencyKey(ctx, req.UserID, req.IdempotencyKey)
			if getErr == nil {
				return existing, nil
			}
		}
		log.Error("failed to persist order", zap.Error(err))
		return nil, submissionFailed(err)
	}

	log.Info("order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("total", order.Total.String()),
		zap.Int("item_count", order.ItemCount()))
	return order, nil
}

func (s *Submitter) assemble(ctx context.Context, req Request) (Assembly, error) {
	switch req.Source {
	case domain.SourceBuyNow:
		if req.Quantity < 1 {
			return Assembly{}, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidSelection)
		}
		product, variant, err := catalog.Resolve(ctx, s.catalog, req.ProductID, req.VariantID)
		if errors.Is(err, catalog.ErrProductNotFound) || errors.Is(err, catalog.ErrVariantNotFound) {
			return Assembly{}, fmt.Errorf("%w: %v", ErrInvalidSelection, err)
		}
		if err != nil {
			return Assembly{}, submissionFailed(err)
		}
		return s.assembler.AssembleBuyNow(*product, variant, req.Quantity)

	case domain.SourceCart:
		c, err := s.carts.GetCart(ctx, req.UserID)
		if err != nil {
			return Assembly{}, submissionFailed(fmt.Errorf("failed to fetch cart: %w", err))
		}
		if c == nil {
			return Assembly{}, ErrEmptyCart
		}
		return s.assembler.AssembleCart(*c)
	}
	return Assembly{}, fmt.Errorf("%w: unknown checkout source %q", ErrInvalidSelection, req.Source)
}

func (s *Submitter) buildOrder(req Request, a Assembly) *domain.Order {
	now := s.now()
	eta := s.estimate(now)

	method := strings.TrimSpace(req.PaymentMethod)
	if method == "" {
		method = domain.PaymentMethodCOD
	}

	return &domain.Order{
		ID:                uuid.New(),
		UserID:            req.UserID,
		IdempotencyKey:    req.IdempotencyKey,
		Source:            req.Source,
		Customer:          trimCustomer(req.Customer),
		Items:             a.Items,
		Subtotal:          a.Subtotal,
		DeliveryCharge:    a.DeliveryCharge,
		Total:             a.Total,
		Status:            domain.OrderStatusConfirmed,
		PaymentStatus:     domain.PaymentStatusPending,
		PaymentMethod:     method,
		OrderDate:         now,
		EstimatedDelivery: &eta,
		Notes:             strings.TrimSpace(req.Notes),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func placedEvent(order *domain.Order) (repository.OutboxEvent, error) {
	items := make([]contracts.OrderedItem, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, contracts.OrderedItem{ProductID: it.ProductID, VariantID: it.VariantID, Quantity: it.Quantity})
	}

	payload, err := json.Marshal(contracts.OrderPlaced{
		OrderID:   order.ID.String(),
		UserID:    order.UserID,
		Source:    string(order.Source),
		Total:     order.Total.String(),
		ItemCount: order.ItemCount(),
		Items:     items,
		PlacedAt:  order.OrderDate,
	})
	if err != nil {
		return repository.OutboxEvent{}, fmt.Errorf("failed to marshal order placed event: %w", err)
	}
	return repository.OutboxEvent{
		AggregateID: order.ID.String(),
		EventType:   contracts.EventOrderPlaced,
		Payload:     payload,
		CreatedAt:   order.CreatedAt,
	}, nil
}

// submissionKeys always include the bare user id, so a user has at most one
// submission running whatever Idempotency-Key each attempt carries.
func submissionKeys(req Request) []string {
	if req.IdempotencyKey != "" {
		return []string{req.UserID, req.UserID + ":" + req.IdempotencyKey}
	}
	return []string{req.UserID}
}

func trimCustomer(c domain.CustomerInfo) domain.CustomerInfo {
	return domain.CustomerInfo{
		Name:    strings.TrimSpace(c.Name),
		Phone:   strings.TrimSpace(c.Phone),
		Email:   strings.TrimSpace(c.Email),
		Address: strings.TrimSpace(c.Address),
		City:    strings.TrimSpace(c.City),
		Pincode: strings.TrimSpace(c.Pincode),
	}
}
