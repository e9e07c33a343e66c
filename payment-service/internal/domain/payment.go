package domain

import (
	"fmt"
	"time"
)

type PaymentStatus string

const (
	PaymentStatusSuccess  PaymentStatus = "SUCCESS"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// ParsePaymentStatus validates a status string coming from the API.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch PaymentStatus(s) {
	case PaymentStatusSuccess, PaymentStatusFailed, PaymentStatusRefunded:
		return PaymentStatus(s), nil
	}
	return "", fmt.Errorf("unknown payment status %q", s)
}

// Payment is the settlement record for one order. At most one exists per
// OrderID; that uniqueness is what makes replayed OrderPlaced deliveries
// harmless. TransactionID is empty for FAILED payments.
type Payment struct {
	ID            int64
	OrderID       int64
	Amount        float64
	Status        PaymentStatus
	TransactionID string
	PaymentMethod string
	Remarks       string
	CreatedAt     time.Time
}
