package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yashturmbekar/atyourdoorstep-sub001/orders-service/internal/domain"
	"github.com/yashturmbekar/atyourdoorstep-sub001/orders-service/internal/repository"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/contracts"
)

type storeMock struct {
	mu        sync.Mutex
	orders    map[uuid.UUID]domain.Order
	events    []repository.OutboxEvent
	updates   int
	updateErr error
	block     chan struct{}
	entered   chan struct{}
}

func newStoreMock(orders ...domain.Order) *storeMock {
	m := &storeMock{orders: make(map[uuid.UUID]domain.Order)}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *storeMock) GetOrderByID(_ context.Context, id uuid.UUID) (*domain.Order, error) {
	if m.entered != nil {
		m.entered <- struct{}{}
	}
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return &o, nil
}

func (m *storeMock) ListOrdersByUserID(_ context.Context, userID string) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Order
	for _, o := range m.orders {
		if o.UserID == userID {
			o := o
			out = append(out, &o)
		}
	}
	return out, nil
}

func (m *storeMock) ListOrdersByStatus(_ context.Context, status domain.OrderStatus, _ int) ([]*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*domain.Order
	for _, o := range m.orders {
		if status == "" || o.Status == status {
			o := o
			out = append(out, &o)
		}
	}
	return out, nil
}

func (m *storeMock) UpdateOrders(_ context.Context, orders []*domain.Order, events []repository.OutboxEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updates++
	for _, o := range orders {
		m.orders[o.ID] = *o
	}
	m.events = append(m.events, events...)
	return nil
}

func (m *storeMock) get(id uuid.UUID) domain.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id]
}

var fixedNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(store OrderStore) *OrderService {
	s := NewOrderService(store, zap.NewNop())
	s.now = func() time.Time { return fixedNow }
	return s
}

func newOrder(userID string, status domain.OrderStatus) domain.Order {
	created := fixedNow.Add(-48 * time.Hour)
	return domain.Order{
		ID:            uuid.New(),
		UserID:        userID,
		Status:        status,
		PaymentStatus: domain.PaymentStatusPending,
		PaymentMethod: domain.PaymentMethodCOD,
		OrderDate:     created,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
}

func TestUpdateStatus_ShippedRequiresTrackingNumber(t *testing.T) {
	order := newOrder("user-1", domain.OrderStatusConfirmed)
	store := newStoreMock(order)
	s := newTestService(store)

	_, err := s.UpdateStatus(context.Background(), StatusUpdate{OrderID: order.ID.String(), Status: domain.OrderStatusShipped})
	require.ErrorIs(t, err, ErrTrackingNumberRequired)

	var v *domain.ValidationError
	require.True(t, errors.As(err, &v))
	assert.Equal(t, "tracking_number", v.First())
	assert.Equal(t, domain.OrderStatusConfirmed, store.get(order.ID).Status)
	assert.Zero(t, store.updates)

	updated, err := s.UpdateStatus(context.Background(), StatusUpdate{
		OrderID: order.ID.String(), Status: domain.OrderStatusShipped, TrackingNumber: " TRK-42 ",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, updated.Status)
	assert.Equal(t, "TRK-42", updated.TrackingNumber)
	assert.Equal(t, fixedNow, updated.UpdatedAt)
	assert.Equal(t, "TRK-42", store.get(order.ID).TrackingNumber)
}

func TestUpdateStatus_ShippedWithExistingTrackingNumber(t *testing.T) {
	order := newOrder("user-1", domain.OrderStatusProcessing)
	order.TrackingNumber = "TRK-1"
	store := newStoreMock(order)

	updated, err := newTestService(store).UpdateStatus(context.Background(), StatusUpdate{OrderID: order.ID.String(), Status: domain.OrderStatusShipped})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusShipped, updated.Status)
	assert.Equal(t, "TRK-1", updated.TrackingNumber)
}

func TestUpdateStatus_AllowsOutOfOrderJumps(t *testing.T) {
	order := newOrder("user-1", domain.OrderStatusPending)
	order.PaymentStatus = domain.PaymentStatusPaid
	store := newStoreMock(order)
	s := newTestService(store)

	updated, err := s.UpdateStatus(context.Background(), StatusUpdate{OrderID: order.ID.String(), Status: domain.OrderStatusDelivered})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusDelivered, updated.Status)
	require.NotNil(t, updated.ActualDelivery)
	assert.Equal(t, fixedNow, *updated.ActualDelivery)

	// leaving a terminal state is not blocked, and payment is left alone
	updated, err = s.UpdateStatus(context.Background(), StatusUpdate{OrderID: order.ID.String(), Status: domain.OrderStatusCancelled})
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusCancelled, updated.Status)
	assert.Equal(t, domain.PaymentStatusPaid, updated.PaymentStatus)

	require.Len(t, store.events, 2)
	assert.Equal(t, contracts.EventOrderStatusChanged, store.events[1].EventType)
	assert.Contains(t, string(store.events[1].Payload), `"previous_status":"delivered"`)
}

func TestUpdateStatus_Errors(t *testing.T) {
	s := newTestService(newStoreMock())

	_, err := s.UpdateStatus(context.Background(), StatusUpdate{OrderID: uuid.NewString(), Status: "returned"})
	var v *domain.ValidationError
	require.True(t, errors.As(err, &v))
	assert.Equal(t, "status", v.First())

	_, err = s.UpdateStatus(context.Background(), StatusUpdate{OrderID: "not-a-uuid", Status: domain.OrderStatusProcessing})
	assert.ErrorIs(t, err, ErrInvalidOrderID)

	_, err = s.UpdateStatus(context.Background(), StatusUpdate{OrderID: uuid.NewString(), Status: domain.OrderStatusProcessing})
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}

func TestUpdateStatus_RejectsConcurrentUpdate(t *testing.T) {
	order := newOrder("user-1", domain.OrderStatusConfirmed)
	store := newStoreMock(order)
	store.block = make(chan struct{})
	store.entered = make(chan struct{}, 1)
	s := newTestService(store)

	done := make(chan error, 1)
	go func() {
		_, err := s.UpdateStatus(context.Background(), StatusUpdate{OrderID: order.ID.String(), Status: domain.OrderStatusProcessing})
		done <- err
	}()
	<-store.entered

	_, err := s.UpdateStatus(context.Background(), StatusUpdate{OrderID: order.ID.String(), Status: domain.OrderStatusCancelled})
	assert.ErrorIs(t, err, ErrUpdateInProgress)

	_, err = s.BulkUpdateStatus(context.Background(), BulkStatusUpdate{OrderIDs: []string{order.ID.String()}, Status: domain.OrderStatusCancelled})
	assert.ErrorIs(t, err, ErrUpdateInProgress)

	close(store.block)
	require.NoError(t, <-done)
	assert.Equal(t, domain.OrderStatusProcessing, store.get(order.ID).Status)
}

func TestBulkUpdateStatus_AllOrNothing(t *testing.T) {
	withTracking := newOrder("user-1", domain.OrderStatusProcessing)
	withTracking.TrackingNumber = "TRK-1"
	withoutTracking := newOrder("user-2", domain.OrderStatusProcessing)
	store := newStoreMock(withTracking, withoutTracking)
	s := newTestService(store)

	_, err := s.BulkUpdateStatus(context.Background(), BulkStatusUpdate{
		OrderIDs: []string{withTracking.ID.String(), withoutTracking.ID.String()},
		Status:   domain.OrderStatusShipped,
	})
	require.ErrorIs(t, err, ErrBulkUpdateFailed)
	assert.NotErrorIs(t, err, ErrTrackingNumberRequired)
	assert.Equal(t, "bulk status update failed", err.Error())

	assert.Zero(t, store.updates)
	assert.Equal(t, domain.OrderStatusProcessing, store.get(withTracking.ID).Status)
	assert.Equal(t, domain.OrderStatusProcessing, store.get(withoutTracking.ID).Status)
}

func TestBulkUpdateStatus_MissingOrderRejectsBatch(t *testing.T) {
	order := newOrder("user-1", domain.OrderStatusConfirmed)
	store := newStoreMock(order)
	s := newTestService(store)

	_, err := s.BulkUpdateStatus(context.Background(), BulkStatusUpdate{
		OrderIDs: []string{order.ID.String(), uuid.NewString()},
		Status:   domain.OrderStatusProcessing,
	})
	assert.ErrorIs(t, err, ErrBulkUpdateFailed)
	assert.Equal(t, domain.OrderStatusConfirmed, store.get(order.ID).Status)

	_, err = s.BulkUpdateStatus(context.Background(), BulkStatusUpdate{Status: domain.OrderStatusProcessing})
	assert.ErrorIs(t, err, ErrBulkUpdateFailed)

	_, err = s.BulkUpdateStatus(context.Background(), BulkStatusUpdate{OrderIDs: []string{"bogus"}, Status: domain.OrderStatusProcessing})
	assert.ErrorIs(t, err, ErrBulkUpdateFailed)
}

func TestBulkUpdateStatus_StoreFailure(t *testing.T) {
	order := newOrder("user-1", domain.OrderStatusConfirmed)
	store := newStoreMock(order)
	store.updateErr = errors.New("deadlock detected")

	_, err := newTestService(store).BulkUpdateStatus(context.Background(), BulkStatusUpdate{
		OrderIDs: []string{order.ID.String()},
		Status:   domain.OrderStatusProcessing,
	})
	assert.ErrorIs(t, err, ErrBulkUpdateFailed)
}

func TestBulkUpdateStatus_Success(t *testing.T) {
	a := newOrder("user-1", domain.OrderStatusConfirmed)
	b := newOrder("user-2", domain.OrderStatusPending)
	store := newStoreMock(a, b)
	s := newTestService(store)

	updated, err := s.BulkUpdateStatus(context.Background(), BulkStatusUpdate{
		OrderIDs: []string{a.ID.String(), b.ID.String(), a.ID.String()},
		Status:   domain.OrderStatusProcessing,
	})
	require.NoError(t, err)
	assert.Len(t, updated, 2)
	assert.Equal(t, 1, store.updates)
	assert.Len(t, store.events, 2)
	for _, o := range []domain.Order{store.get(a.ID), store.get(b.ID)} {
		assert.Equal(t, domain.OrderStatusProcessing, o.Status)
		assert.Equal(t, fixedNow, o.UpdatedAt)
	}
}

func TestUpdatePaymentStatus_IndependentOfOrderStatus(t *testing.T) {
	order := newOrder("user-1", domain.OrderStatusCancelled)
	store := newStoreMock(order)
	s := newTestService(store)

	updated, err := s.UpdatePaymentStatus(context.Background(), order.ID.String(), domain.PaymentStatusPaid)
	require.NoError(t, err)
	assert.Equal(t, domain.PaymentStatusPaid, updated.PaymentStatus)
	assert.Equal(t, domain.OrderStatusCancelled, updated.Status)
	require.Len(t, store.events, 1)
	assert.Equal(t, contracts.EventPaymentChanged, store.events[0].EventType)

	_, err = s.UpdatePaymentStatus(context.Background(), order.ID.String(), "chargeback")
	var v *domain.ValidationError
	require.True(t, errors.As(err, &v))
	assert.Equal(t, "payment_status", v.First())
}

func TestUpdateNotes(t *testing.T) {
	order := newOrder("user-1", domain.OrderStatusConfirmed)
	store := newStoreMock(order)
	s := newTestService(store)

	updated, err := s.UpdateNotes(context.Background(), order.ID.String(), "  leave at the gate ")
	require.NoError(t, err)
	assert.Equal(t, "leave at the gate", updated.Notes)
	assert.Empty(t, store.events)
}

func TestListOrders(t *testing.T) {
	a := newOrder("user-1", domain.OrderStatusConfirmed)
	b := newOrder("user-1", domain.OrderStatusShipped)
	c := newOrder("user-2", domain.OrderStatusShipped)
	s := newTestService(newStoreMock(a, b, c))

	mine, err := s.ListOrders(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	shipped, err := s.ListOrdersByStatus(context.Background(), domain.OrderStatusShipped, 50)
	require.NoError(t, err)
	assert.Len(t, shipped, 2)

	all, err := s.ListOrdersByStatus(context.Background(), "", 50)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	_, err = s.ListOrdersByStatus(context.Background(), "lost", 50)
	assert.Error(t, err)

	got, err := s.GetOrder(context.Background(), c.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "user-2", got.UserID)
}
