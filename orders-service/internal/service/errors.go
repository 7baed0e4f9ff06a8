package service

import (
	"errors"

	"github.com/yashturmbekar/atyourdoorstep-sub001/orders-service/internal/domain"
)

var (
	ErrUpdateInProgress       = errors.New("order update already in progress")
	ErrBulkUpdateFailed       = errors.New("bulk status update failed")
	ErrTrackingNumberRequired = errors.New("tracking number is required to mark an order shipped")
	ErrInvalidOrderID         = errors.New("invalid order id")
)

// trackingNumberRequired reports the shipped precondition the same way a checkout field error is reported.
type trackingNumberRequired struct {
	*domain.ValidationError
}

func (e trackingNumberRequired) Unwrap() []error {
	return []error{e.ValidationError, ErrTrackingNumberRequired}
}

func newTrackingNumberRequired() error {
	return trackingNumberRequired{domain.NewValidationError("tracking_number", ErrTrackingNumberRequired.Error())}
}
