package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yashturmbekar/atyourdoorstep-sub001/cart-service/internal/service"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/cart"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/catalog"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/httpx"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/logger"
)

// CartService is the part of service.CartService the handlers call.
type CartService interface {
	GetCart(ctx context.Context, userID string) (*cart.Cart, error)
	LoadCart(ctx context.Context, userID string) (*cart.Cart, error)
	AddItem(ctx context.Context, userID, productID, variantID string, quantity int) (*cart.Cart, error)
	UpdateQuantity(ctx context.Context, userID, lineID string, quantity int) (*cart.Cart, error)
	RemoveItem(ctx context.Context, userID, lineID string) (*cart.Cart, error)
	ClearCart(ctx context.Context, userID string) (*cart.Cart, error)
}

type CartHandler struct {
	service CartService
	timeout time.Duration
	log     *zap.Logger
}

func NewCartHandler(service CartService, timeout time.Duration, log *zap.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		timeout: timeout,
		log:     log,
	}
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) Routes(r chi.Router) {
	r.Route("/cart", func(r chi.Router) {
		r.Get("/", h.GetCart)
		r.Delete("/", h.ClearCart)
		r.Post("/items", h.AddItem)
		r.Put("/items/{line_id}", h.UpdateQuantity)
		r.Delete("/items/{line_id}", h.RemoveItem)
	})
}

// GET /api/v1/cart
// Cache-Control: no-cache reads the stored cart, skipping the cache.
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	get := h.service.GetCart
	if strings.Contains(r.Header.Get("Cache-Control"), "no-cache") {
		get = h.service.LoadCart
	}

	c, err := get(ctx, httpx.UserIDFromContext(r.Context()))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, c)
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" || req.VariantID == "" {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_product_id", "product_id and variant_id are required")
		return
	}

	c, err := h.service.AddItem(ctx, httpx.UserIDFromContext(r.Context()), req.ProductID, req.VariantID, req.Quantity)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	httpx.RespondJSON(w, http.StatusCreated, c)
}

// PUT /api/v1/cart/items/{line_id}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	lineID := chi.URLParam(r, "line_id")
	if lineID == "" {
		httpx.RespondError(w, http.StatusBadRequest, "missing_line_id", "line_id is required")
		return
	}

	var req UpdateQuantityRequestDTO
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	c, err := h.service.UpdateQuantity(ctx, httpx.UserIDFromContext(r.Context()), lineID, req.Quantity)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, c)
}

// DELETE /api/v1/cart/items/{line_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	c, err := h.service.RemoveItem(ctx, httpx.UserIDFromContext(r.Context()), chi.URLParam(r, "line_id"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, c)
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	c, err := h.service.ClearCart(ctx, httpx.UserIDFromContext(r.Context()))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	httpx.RespondJSON(w, http.StatusOK, c)
}

func (h *CartHandler) handleError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidQuantity):
		httpx.RespondError(w, http.StatusBadRequest, "invalid_quantity", err.Error())
	case errors.Is(err, catalog.ErrProductNotFound), errors.Is(err, catalog.ErrVariantNotFound):
		httpx.RespondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrVariantUnavailable):
		httpx.RespondError(w, http.StatusConflict, "variant_unavailable", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		httpx.RespondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		logger.FromContext(r.Context(), h.log).Error("cart request failed", zap.Error(err))
		httpx.RespondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
