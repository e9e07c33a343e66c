package service

import "errors"

var (
	ErrInvalidQuantity        = errors.New("quantity must be a positive integer")
	ErrInsufficientStock      = errors.New("insufficient stock")
	ErrStockReservationFailed = errors.New("stock reservation failed")
	ErrInvalidTransition      = errors.New("illegal order status transition")
)
