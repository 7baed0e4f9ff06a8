package service

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
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/contracts"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/inflight"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/logger"
)

const maxNotesLength = 2000

type OrderStore interface {
	GetOrderByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListOrdersByUserID(ctx context.Context, userID string) ([]*domain.Order, error)
	ListOrdersByStatus(ctx context.Context, status domain.OrderStatus, limit int) ([]*domain.Order, error)
	UpdateOrders(ctx context.Context, orders []*domain.Order, events []repository.OutboxEvent) error
}

type StatusUpdate struct {
	OrderID        string
	Status         domain.OrderStatus
	TrackingNumber string
}

type BulkStatusUpdate struct {
	OrderIDs []string
	Status   domain.OrderStatus
}

// OrderService applies administrative changes to placed orders. Status and
// payment status move independently and no transition table is enforced.
type OrderService struct {
	store OrderStore
	guard *inflight.Guard
	now   func() time.Time
	log   *zap.Logger
}

func NewOrderService(store OrderStore, log *zap.Logger) *OrderService {
	return &OrderService{
		store: store,
		guard: inflight.NewGuard(),
		now:   func() time.Time { return time.Now().UTC() },
		log:   log,
	}
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	id, err := parseOrderID(orderID)
	if err != nil {
		return nil, err
	}
	return s.store.GetOrderByID(ctx, id)
}

func (s *OrderService) ListOrders(ctx context.Context, userID string) ([]*domain.Order, error) {
	return s.store.ListOrdersByUserID(ctx, userID)
}

// ListOrdersByStatus backs the admin dashboard; an empty status lists every order.
func (s *OrderService) ListOrdersByStatus(ctx context.Context, status domain.OrderStatus, limit int) ([]*domain.Order, error) {
	if status != "" && !status.Valid() {
		return nil, domain.NewValidationError("status", fmt.Sprintf("unknown order status %q", status))
	}
	return s.store.ListOrdersByStatus(ctx, status, limit)
}

func (s *OrderService) UpdateStatus(ctx context.Context, req StatusUpdate) (*domain.Order, error) {
	if !req.Status.Valid() {
		return nil, domain.NewValidationError("status", fmt.Sprintf("unknown order status %q", req.Status))
	}
	id, err := parseOrderID(req.OrderID)
	if err != nil {
		return nil, err
	}

	var updated *domain.Order
	err = s.exclusive(func() error {
		order, err := s.store.GetOrderByID(ctx, id)
		if err != nil {
			return err
		}

		previous := order.Status
		if err := s.applyStatus(order, req.Status, strings.TrimSpace(req.TrackingNumber)); err != nil {
			return err
		}

		event, err := statusChangedEvent(order, previous)
		if err != nil {
			return err
		}
		if err := s.store.UpdateOrders(ctx, []*domain.Order{order}, []repository.OutboxEvent{event}); err != nil {
			return err
		}

		logger.FromContext(ctx, s.log).Info("order status updated",
			zap.String("order_id", order.ID.String()),
			zap.String("from", string(previous)),
			zap.String("to", string(order.Status)))
		updated = order
		return nil
	}, id)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// BulkUpdateStatus sets one status on many orders. Every order is loaded and
// checked before anything is written; any failure rejects the whole batch
// with ErrBulkUpdateFailed.
func (s *OrderService) BulkUpdateStatus(ctx context.Context, req BulkStatusUpdate) ([]*domain.Order, error) {
	log := logger.FromContext(ctx, s.log)

	if !req.Status.Valid() {
		return nil, domain.NewValidationError("status", fmt.Sprintf("unknown order status %q", req.Status))
	}

	ids, err := uniqueOrderIDs(req.OrderIDs)
	if err != nil {
		log.Warn("bulk status update rejected", zap.Error(err))
		return nil, ErrBulkUpdateFailed
	}

	var updated []*domain.Order
	err = s.exclusive(func() error {
		orders := make([]*domain.Order, 0, len(ids))
		events := make([]repository.OutboxEvent, 0, len(ids))
		for _, id := range ids {
			order, err := s.store.GetOrderByID(ctx, id)
			if err != nil {
				return fmt.Errorf("load order %s: %w", id, err)
			}
			previous := order.Status
			if err := s.applyStatus(order, req.Status, ""); err != nil {
				return fmt.Errorf("order %s: %w", id, err)
			}
			event, err := statusChangedEvent(order, previous)
			if err != nil {
				return err
			}
			orders = append(orders, order)
			events = append(events, event)
		}

		if err := s.store.UpdateOrders(ctx, orders, events); err != nil {
			return err
		}
		updated = orders
		return nil
	}, ids...)

	if errors.Is(err, ErrUpdateInProgress) {
		return nil, ErrUpdateInProgress
	}
	if err != nil {
		log.Warn("bulk status update rejected", zap.Int("orders", len(ids)), zap.Error(err))
		return nil, ErrBulkUpdateFailed
	}

	log.Info("bulk status update applied", zap.Int("orders", len(updated)), zap.String("status", string(req.Status)))
	return updated, nil
}

func (s *OrderService) UpdatePaymentStatus(ctx context.Context, orderID string, status domain.PaymentStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, domain.NewValidationError("payment_status", fmt.Sprintf("unknown payment status %q", status))
	}
	id, err := parseOrderID(orderID)
	if err != nil {
		return nil, err
	}

	var updated *domain.Order
	err = s.exclusive(func() error {
		order, err := s.store.GetOrderByID(ctx, id)
		if err != nil {
			return err
		}
		previous := order.PaymentStatus
		order.PaymentStatus = status
		order.UpdatedAt = s.now()

		event, err := paymentChangedEvent(order, previous)
		if err != nil {
			return err
		}
		if err := s.store.UpdateOrders(ctx, []*domain.Order{order}, []repository.OutboxEvent{event}); err != nil {
			return err
		}
		updated = order
		return nil
	}, id)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *OrderService) UpdateNotes(ctx context.Context, orderID, notes string) (*domain.Order, error) {
	notes = strings.TrimSpace(notes)
	if len(notes) > maxNotesLength {
		return nil, domain.NewValidationError("notes", fmt.Sprintf("notes must be at most %d characters", maxNotesLength))
	}
	id, err := parseOrderID(orderID)
	if err != nil {
		return nil, err
	}

	var updated *domain.Order
	err = s.exclusive(func() error {
		order, err := s.store.GetOrderByID(ctx, id)
		if err != nil {
			return err
		}
		order.Notes = notes
		order.UpdatedAt = s.now()
		if err := s.store.UpdateOrders(ctx, []*domain.Order{order}, nil); err != nil {
			return err
		}
		updated = order
		return nil
	}, id)
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *OrderService) applyStatus(order *domain.Order, status domain.OrderStatus, trackingNumber string) error {
	if trackingNumber != "" {
		order.TrackingNumber = trackingNumber
	}
	if status == domain.OrderStatusShipped && order.TrackingNumber == "" {
		return newTrackingNumberRequired()
	}

	now := s.now()
	order.Status = status
	order.UpdatedAt = now
	if status == domain.OrderStatusDelivered && order.ActualDelivery == nil {
		order.ActualDelivery = &now
	}
	return nil
}

// exclusive runs fn while no other update touches the same orders.
func (s *OrderService) exclusive(fn func() error, ids ...uuid.UUID) error {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	err := s.guard.Do(fn, keys...)
	if errors.Is(err, inflight.ErrInFlight) {
		return ErrUpdateInProgress
	}
	return err
}

func parseOrderID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", ErrInvalidOrderID, raw)
	}
	return id, nil
}

func uniqueOrderIDs(raw []string) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, errors.New("no order ids given")
	}
	seen := make(map[uuid.UUID]struct{}, len(raw))
	ids := make([]uuid.UUID, 0, len(raw))
	for _, r := range raw {
		id, err := parseOrderID(r)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}

func statusChangedEvent(order *domain.Order, previous domain.OrderStatus) (repository.OutboxEvent, error) {
	payload, err := json.Marshal(contracts.OrderStatusChanged{
		OrderID:        order.ID.String(),
		Status:         string(order.Status),
		PreviousStatus: string(previous),
		TrackingNumber: order.TrackingNumber,
		ChangedAt:      order.UpdatedAt,
	})
	if err != nil {
		return repository.OutboxEvent{}, fmt.Errorf("failed to marshal status changed event: %w", err)
	}
	return repository.OutboxEvent{
		AggregateID: order.ID.String(),
		EventType:   contracts.EventOrderStatusChanged,
		Payload:     payload,
		CreatedAt:   order.UpdatedAt,
	}, nil
}

func paymentChangedEvent(order *domain.Order, previous domain.PaymentStatus) (repository.OutboxEvent, error) {
	payload, err := json.Marshal(contracts.PaymentStatusChanged{
		OrderID:        order.ID.String(),
		PaymentStatus:  string(order.PaymentStatus),
		PreviousStatus: string(previous),
		ChangedAt:      order.UpdatedAt,
	})
	if err != nil {
		return repository.OutboxEvent{}, fmt.Errorf("failed to marshal payment changed event: %w", err)
	}
	return repository.OutboxEvent{
		AggregateID: order.ID.String(),
		EventType:   contracts.EventPaymentChanged,
		Payload:     payload,
		CreatedAt:   order.UpdatedAt,
	}, nil
}
