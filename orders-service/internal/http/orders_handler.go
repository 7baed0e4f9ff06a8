package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yashturmbekar/atyourdoorstep-sub001/orders-service/internal/domain"
	"github.com/yashturmbekar/atyourdoorstep-sub001/orders-service/internal/repository"
	"github.com/yashturmbekar/atyourdoorstep-sub001/orders-service/internal/service"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/httpx"
)

type OrderService interface {
	GetOrder(ctx context.Context, orderID string) (*domain.Order, error)
	ListOrders(ctx context.Context, userID string) ([]*domain.Order, error)
	ListOrdersByStatus(ctx context.Context, status domain.OrderStatus, limit int) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, req service.StatusUpdate) (*domain.Order, error)
	BulkUpdateStatus(ctx context.Context, req service.BulkStatusUpdate) ([]*domain.Order, error)
	UpdatePaymentStatus(ctx context.Context, orderID string, status domain.PaymentStatus) (*domain.Order, error)
	UpdateNotes(ctx context.Context, orderID, notes string) (*domain.Order, error)
}

type OrdersHandler struct {
	service OrderService
	log     *zap.Logger
}

func NewOrdersHandler(service OrderService, log *zap.Logger) *OrdersHandler {
	return &OrdersHandler{service: service, log: log}
}

type OrderListResponseDTO struct {
	Orders []*domain.Order `json:"orders"`
	Count  int             `json:"count"`
}

type UpdateStatusRequestDTO struct {
	Status         string `json:"status"`
	TrackingNumber string `json:"tracking_number"`
}

type BulkUpdateStatusRequestDTO struct {
	OrderIDs []string `json:"order_ids"`
	Status   string   `json:"status"`
}

type UpdatePaymentRequestDTO struct {
	PaymentStatus string `json:"payment_status"`
}

type UpdateNotesRequestDTO struct {
	Notes string `json:"notes"`
}

// Routes mounts the customer-facing order endpoints.
func (h *OrdersHandler) Routes(r chi.Router) {
	r.Get("/orders", h.ListOrders)
	r.Get("/orders/{order_id}", h.GetOrder)
}

// AdminRoutes mounts the dashboard endpoints.
func (h *OrdersHandler) AdminRoutes(r chi.Router) {
	r.Route("/admin/orders", func(r chi.Router) {
		r.Get("/", h.ListOrdersByStatus)
		r.Patch("/bulk-status", h.BulkUpdateStatus)
		r.Get("/{order_id}", h.AdminGetOrder)
		r.Patch("/{order_id}/status", h.UpdateStatus)
		r.Patch("/{order_id}/payment", h.UpdatePaymentStatus)
		r.Patch("/{order_id}/notes", h.UpdateNotes)
	})
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.service.ListOrders(r.Context(), httpx.UserIDFromContext(r.Context()))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondOrders(w, orders)
}

// GET /api/v1/orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "order_id"))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	// other users' orders are reported as missing
	if order.UserID != httpx.UserIDFromContext(r.Context()) {
		handleError(w, r, h.log, repository.ErrOrderNotFound)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, order)
}

// GET /api/v1/admin/orders/{order_id}
func (h *OrdersHandler) AdminGetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetOrder(r.Context(), chi.URLParam(r, "order_id"))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, order)
}

// GET /api/v1/admin/orders?status=&limit=
func (h *OrdersHandler) ListOrdersByStatus(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httpx.RespondError(w, http.StatusBadRequest, "invalid_limit", "limit must be a positive integer")
			return
		}
		limit = n
	}

	orders, err := h.service.ListOrdersByStatus(r.Context(), domain.OrderStatus(r.URL.Query().Get("status")), limit)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondOrders(w, orders)
}

// PATCH /api/v1/admin/orders/{order_id}/status
func (h *OrdersHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequestDTO
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.service.UpdateStatus(r.Context(), service.StatusUpdate{
		OrderID:        chi.URLParam(r, "order_id"),
		Status:         domain.OrderStatus(req.Status),
		TrackingNumber: req.TrackingNumber,
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, order)
}

// PATCH /api/v1/admin/orders/bulk-status
func (h *OrdersHandler) BulkUpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req BulkUpdateStatusRequestDTO
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	orders, err := h.service.BulkUpdateStatus(r.Context(), service.BulkStatusUpdate{
		OrderIDs: req.OrderIDs,
		Status:   domain.OrderStatus(req.Status),
	})
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	respondOrders(w, orders)
}

// PATCH /api/v1/admin/orders/{order_id}/payment
func (h *OrdersHandler) UpdatePaymentStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdatePaymentRequestDTO
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.service.UpdatePaymentStatus(r.Context(), chi.URLParam(r, "order_id"), domain.PaymentStatus(req.PaymentStatus))
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, order)
}

// PATCH /api/v1/admin/orders/{order_id}/notes
func (h *OrdersHandler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	var req UpdateNotesRequestDTO
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	order, err := h.service.UpdateNotes(r.Context(), chi.URLParam(r, "order_id"), req.Notes)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, order)
}

func respondOrders(w http.ResponseWriter, orders []*domain.Order) {
	if orders == nil {
		orders = []*domain.Order{}
	}
	httpx.RespondJSON(w, http.StatusOK, OrderListResponseDTO{Orders: orders, Count: len(orders)})
}
