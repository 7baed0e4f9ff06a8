package http

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/yashturmbekar/atyourdoorstep-sub001/orders-service/internal/checkout"
	"github.com/yashturmbekar/atyourdoorstep-sub001/orders-service/internal/domain"
	"github.com/yashturmbekar/atyourdoorstep-sub001/orders-service/internal/repository"
	"github.com/yashturmbekar/atyourdoorstep-sub001/orders-service/internal/service"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/httpx"
	"github.com/yashturmbekar/atyourdoorstep-sub001/pkg/logger"
)

// ValidationErrorResponse carries per-field messages and the field to focus.
type ValidationErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields"`
	Focus  string            `json:"focus"`
}

func handleError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var validation *domain.ValidationError
	var submission *checkout.SubmissionError

	switch {
	case errors.As(err, &validation):
		httpx.RespondJSON(w, http.StatusUnprocessableEntity, ValidationErrorResponse{
			Error:  "some fields need attention",
			Code:   "validation_failed",
			Fields: validation.Map(),
			Focus:  validation.First(),
		})
	case errors.Is(err, checkout.ErrSubmissionInProgress), errors.Is(err, service.ErrUpdateInProgress):
		httpx.RespondError(w, http.StatusConflict, "in_progress", err.Error())
	case errors.Is(err, service.ErrBulkUpdateFailed):
		httpx.RespondError(w, http.StatusBadRequest, "bulk_update_failed", err.Error())
	case errors.Is(err, checkout.ErrEmptyCart):
		httpx.RespondError(w, http.StatusBadRequest, "empty_cart", err.Error())
	case errors.Is(err, checkout.ErrInvalidSelection):
		httpx.RespondError(w, http.StatusUnprocessableEntity, "invalid_selection", err.Error())
	case errors.Is(err, repository.ErrOrderNotFound), errors.Is(err, service.ErrInvalidOrderID):
		httpx.RespondError(w, http.StatusNotFound, "not_found", "order not found")
	case errors.As(err, &submission):
		logger.FromContext(r.Context(), log).Error("order submission failed", zap.Error(submission.Unwrap()))
		httpx.RespondError(w, http.StatusBadGateway, "submission_failed", submission.Error())
	case errors.Is(err, context.DeadlineExceeded):
		httpx.RespondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		logger.FromContext(r.Context(), log).Error("orders request failed", zap.Error(err))
		httpx.RespondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
