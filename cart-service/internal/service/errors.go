package service

import "errors"

var (
	ErrVariantUnavailable = errors.New("variant is not available")
	ErrInvalidQuantity    = errors.New("quantity must be between 1 and 99")
)

const MaxQuantity = 99
