package service

import "errors"

var (
	ErrInvalidAmount  = errors.New("payment amount must be positive")
	ErrPaymentExists  = errors.New("payment already processed for order")
	ErrNotRefundable  = errors.New("only successful payments can be refunded")
	ErrGatewayFailure = errors.New("settlement gateway failed")
)
