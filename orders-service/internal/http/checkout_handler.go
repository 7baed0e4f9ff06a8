package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/yashturmbekar/atyourdoorstep-sub001/orders-service/internal/checkout"
	"github.com/yashturmbekar/atyourdoorstep-sub001/orders-service/internal/domain"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/httpx"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type Submitter interface {
	Submit(ctx context.Context, req checkout.Request) (*domain.Order, error)
}

type CheckoutHandler struct {
	submitter Submitter
	limiter   *httpx.RateLimiter
	log       *zap.Logger
}

func NewCheckoutHandler(submitter Submitter, limiter *httpx.RateLimiter, log *zap.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		submitter: submitter,
		limiter:   limiter,
		log:       log,
	}
}

type CustomerDTO struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Address string `json:"address"`
	City    string `json:"city"`
	Pincode string `json:"pincode"`
}

type BuyNowRequestDTO struct {
	ProductID     string      `json:"product_id"`
	VariantID     string      `json:"variant_id"`
	Quantity      int         `json:"quantity"`
	Customer      CustomerDTO `json:"customer"`
	PaymentMethod string      `json:"payment_method"`
	Notes         string      `json:"notes"`
}

type CartCheckoutRequestDTO struct {
	Customer      CustomerDTO `json:"customer"`
	PaymentMethod string      `json:"payment_method"`
	Notes         string      `json:"notes"`
}

func (h *CheckoutHandler) Routes(r chi.Router) {
	r.Route("/checkout", func(r chi.Router) {
		if h.limiter != nil {
			r.Use(h.limiter.Middleware)
		}
		r.Post("/buy-now", h.BuyNow)
		r.Post("/cart", h.CartCheckout)
	})
}

// POST /api/v1/checkout/buy-now
func (h *CheckoutHandler) BuyNow(w http.ResponseWriter, r *http.Request) {
	var req BuyNowRequestDTO
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	h.submit(w, r, checkout.Request{
		Source:        domain.SourceBuyNow,
		Customer:      req.Customer.toDomain(),
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
		ProductID:     req.ProductID,
		VariantID:     req.VariantID,
		Quantity:      req.Quantity,
	})
}

// POST /api/v1/checkout/cart
func (h *CheckoutHandler) CartCheckout(w http.ResponseWriter, r *http.Request) {
	var req CartCheckoutRequestDTO
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.RespondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	h.submit(w, r, checkout.Request{
		Source:        domain.SourceCart,
		Customer:      req.Customer.toDomain(),
		PaymentMethod: req.PaymentMethod,
		Notes:         req.Notes,
	})
}

func (h *CheckoutHandler) submit(w http.ResponseWriter, r *http.Request, req checkout.Request) {
	req.UserID = httpx.UserIDFromContext(r.Context())
	req.IdempotencyKey = strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))

	order, err := h.submitter.Submit(r.Context(), req)
	if err != nil {
		handleError(w, r, h.log, err)
		return
	}
	httpx.RespondJSON(w, http.StatusCreated, order)
}

func (c CustomerDTO) toDomain() domain.CustomerInfo {
	return domain.CustomerInfo{
		Name:    c.Name,
		Phone:   c.Phone,
		Email:   c.Email,
		Address: c.Address,
		City:    c.City,
		Pincode: c.Pincode,
	}
}
