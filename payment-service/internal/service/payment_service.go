package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/adarshpatil06123/ecommerce-backend/payment-service/internal/domain"
	"github.com/adarshpatil06123/ecommerce-backend/payment-service/internal/gateway"
	"github.com/adarshpatil06123/ecommerce-backend/payment-service/internal/repository"
	"github.com/adarshpatil06123/ecommerce-backend/pkg/events"
	"github.com/adarshpatil06123/ecommerce-backend/pkg/logger"
	"github.com/adarshpatil06123/ecommerce-backend/pkg/outbox"
)

const defaultPaymentMethod = "CARD"

type PaymentService struct {
	repo    repository.PaymentRepository
	gateway gateway.SettlementGateway
}

func NewPaymentService(repo repository.PaymentRepository, gw gateway.SettlementGateway) *PaymentService {
	return &PaymentService{
		repo:    repo,
		gateway: gw,
	}
}

// ProcessOrderPayment settles the payment for an OrderPlaced event. A
// replayed delivery is a no-op: the existing payment is looked up before
// the gateway is charged, so a redelivery never charges twice. The
// unique-constraint path in settle stays as the backstop for two
// deliveries racing past the lookup; that is the idempotency contract the
// at-least-once consumer depends on.
func (s *PaymentService) ProcessOrderPayment(ctx context.Context, ev events.OrderPlaced) error {
	_, err := s.repo.GetPaymentByOrderID(ctx, ev.OrderID)
	if err == nil {
		logger.Ctx(ctx).Info().Int64("order_id", ev.OrderID).
			Msg("payment already recorded, skipping duplicate delivery")
		return nil
	}
	if !errors.Is(err, repository.ErrPaymentNotFound) {
		return err
	}

	payment, err := s.settle(ctx, ev.OrderID, ev.Amount)
	if errors.Is(err, repository.ErrDuplicatePayment) {
		// Lost the insert race with a concurrent delivery; the winner's
		// payment stands.
		logger.Ctx(ctx).Info().Int64("order_id", ev.OrderID).
			Msg("payment already recorded, skipping duplicate delivery")
		return nil
	}
	if err != nil {
		return err
	}

	logger.Ctx(ctx).Info().Int64("order_id", ev.OrderID).Int64("payment_id", payment.ID).
		Str("status", string(payment.Status)).Float64("amount", payment.Amount).
		Msg("payment settled")
	return nil
}

// ProcessPayment is the direct API entry point. Unlike the event path, a
// duplicate here is an error the caller should see.
func (s *PaymentService) ProcessPayment(ctx context.Context, orderID int64, amount float64) (*domain.Payment, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	payment, err := s.settle(ctx, orderID, amount)
	if errors.Is(err, repository.ErrDuplicatePayment) {
		return nil, fmt.Errorf("%w %d", ErrPaymentExists, orderID)
	}
	return payment, err
}

// settle charges the gateway, then writes the payment and its
// PaymentSettled outbox row in one transaction.
func (s *PaymentService) settle(ctx context.Context, orderID int64, amount float64) (*domain.Payment, error) {
	res, err := s.gateway.Charge(ctx, orderID, amount)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayFailure, err)
	}

	payment := &domain.Payment{
		OrderID:       orderID,
		Amount:        amount,
		Status:        res.Status,
		TransactionID: res.TransactionID,
		PaymentMethod: defaultPaymentMethod,
		Remarks:       res.Remarks,
	}

	ev, err := paymentSettledEvent(orderID, res)
	if err != nil {
		return nil, err
	}

	id, err := s.repo.CreatePaymentWithOutbox(ctx, payment, ev)
	if err != nil {
		return nil, err
	}
	payment.ID = id
	return payment, nil
}

func paymentSettledEvent(orderID int64, res gateway.Result) (*outbox.Event, error) {
	var txnID *string
	if res.TransactionID != "" {
		txnID = &res.TransactionID
	}
	payload, err := json.Marshal(events.PaymentSettled{
		OrderID:       orderID,
		Status:        string(res.Status),
		TransactionID: txnID,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal PaymentSettled event: %w", err)
	}
	return &outbox.Event{
		Topic:   events.PaymentCompletedTopic,
		Key:     fmt.Sprint(orderID),
		Payload: payload,
	}, nil
}

func (s *PaymentService) GetPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	return s.repo.GetPaymentByID(ctx, id)
}

func (s *PaymentService) GetPaymentByOrder(ctx context.Context, orderID int64) (*domain.Payment, error) {
	return s.repo.GetPaymentByOrderID(ctx, orderID)
}

func (s *PaymentService) ListPayments(ctx context.Context) ([]*domain.Payment, error) {
	return s.repo.ListPayments(ctx)
}

func (s *PaymentService) ListPaymentsByStatus(ctx context.Context, status domain.PaymentStatus) ([]*domain.Payment, error) {
	return s.repo.ListPaymentsByStatus(ctx, status)
}

// RefundPayment flips a successful payment to REFUNDED. Failed and already
// refunded payments are not refundable.
func (s *PaymentService) RefundPayment(ctx context.Context, id int64) (*domain.Payment, error) {
	payment, err := s.repo.GetPaymentByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if payment.Status != domain.PaymentStatusSuccess {
		return nil, fmt.Errorf("%w: payment %d is %s", ErrNotRefundable, id, payment.Status)
	}

	if err := s.repo.UpdatePaymentStatus(ctx, id, domain.PaymentStatusRefunded, "Payment refunded"); err != nil {
		return nil, err
	}

	logger.Ctx(ctx).Info().Int64("payment_id", id).Int64("order_id", payment.OrderID).
		Msg("payment refunded")
	return s.repo.GetPaymentByID(ctx, id)
}
