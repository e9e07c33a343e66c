package gateway

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/adarshpatil06123/ecommerce-backend/payment-service/internal/domain"
	"github.com/google/uuid"
)

// Result is the settlement outcome for one charge attempt.
type Result struct {
	Status        domain.PaymentStatus
	TransactionID string
	Remarks       string
}

// SettlementGateway decides whether a charge settles. Implementations are
// injected into the service so tests can force either outcome.
type SettlementGateway interface {
	Charge(ctx context.Context, orderID int64, amount float64) (Result, error)
}

// BernoulliGateway settles each charge independently with the configured
// success rate. It stands in for a real payment processor.
type BernoulliGateway struct {
	successRate float64
	randFloat   func() float64
}

func NewBernoulliGateway(successRate float64) *BernoulliGateway {
	return &BernoulliGateway{
		successRate: successRate,
		randFloat:   rand.Float64,
	}
}

// NewBernoulliGatewayWithRand takes the random source as a parameter so
// tests can pin the outcome.
func NewBernoulliGatewayWithRand(successRate float64, randFloat func() float64) *BernoulliGateway {
	return &BernoulliGateway{
		successRate: successRate,
		randFloat:   randFloat,
	}
}

func (g *BernoulliGateway) Charge(_ context.Context, orderID int64, amount float64) (Result, error) {
	if g.randFloat() < g.successRate {
		return Result{
			Status:        domain.PaymentStatusSuccess,
			TransactionID: "TXN-" + uuid.NewString(),
			Remarks:       "Payment processed successfully",
		}, nil
	}
	return Result{
		Status:  domain.PaymentStatusFailed,
		Remarks: fmt.Sprintf("Payment declined for order %d, amount %.2f", orderID, amount),
	}, nil
}
