package service

import (
	"context"

	"github.com/adarshpatil06123/ecommerce-backend/payment-service/internal/domain"
	"github.com/adarshpatil06123/ecommerce-backend/payment-service/internal/gateway"
	"github.com/adarshpatil06123/ecommerce-backend/payment-service/internal/repository"
	"github.com/adarshpatil06123/ecommerce-backend/pkg/outbox"
)

// MockRepository keeps payments in memory and enforces the one-payment-per-
// order rule the real table's unique index provides.
type MockRepository struct {
	Payments     map[int64]*domain.Payment
	OutboxEvents []*outbox.Event
	Err          error

	// ReadsMissing makes GetPaymentByOrderID report not-found regardless
	// of stored rows, simulating a lookup that raced a concurrent insert.
	ReadsMissing bool

	nextID  int64
	byOrder map[int64]int64
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		Payments: make(map[int64]*domain.Payment),
		byOrder:  make(map[int64]int64),
	}
}

func (m *MockRepository) Close() error                                { return nil }
func (m *MockRepository) RunMigrations(*repository.Credentials) error { return nil }

func (m *MockRepository) CreatePaymentWithOutbox(_ context.Context, payment *domain.Payment, ev *outbox.Event) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	if _, taken := m.byOrder[payment.OrderID]; taken {
		return 0, repository.ErrDuplicatePayment
	}

	m.nextID++
	stored := *payment
	stored.ID = m.nextID
	m.Payments[stored.ID] = &stored
	m.byOrder[stored.OrderID] = stored.ID
	m.OutboxEvents = append(m.OutboxEvents, ev)
	return stored.ID, nil
}

func (m *MockRepository) GetPaymentByID(_ context.Context, id int64) (*domain.Payment, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	payment, ok := m.Payments[id]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}
	copied := *payment
	return &copied, nil
}

func (m *MockRepository) GetPaymentByOrderID(_ context.Context, orderID int64) (*domain.Payment, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.ReadsMissing {
		return nil, repository.ErrPaymentNotFound
	}
	id, ok := m.byOrder[orderID]
	if !ok {
		return nil, repository.ErrPaymentNotFound
	}
	copied := *m.Payments[id]
	return &copied, nil
}

func (m *MockRepository) ListPayments(context.Context) ([]*domain.Payment, error) {
	out := make([]*domain.Payment, 0, len(m.Payments))
	for _, p := range m.Payments {
		out = append(out, p)
	}
	return out, m.Err
}

func (m *MockRepository) ListPaymentsByStatus(_ context.Context, status domain.PaymentStatus) ([]*domain.Payment, error) {
	var out []*domain.Payment
	for _, p := range m.Payments {
		if p.Status == status {
			out = append(out, p)
		}
	}
	return out, m.Err
}

func (m *MockRepository) UpdatePaymentStatus(_ context.Context, id int64, status domain.PaymentStatus, remarks string) error {
	if m.Err != nil {
		return m.Err
	}
	payment, ok := m.Payments[id]
	if !ok {
		return repository.ErrPaymentNotFound
	}
	payment.Status = status
	payment.Remarks = remarks
	return nil
}

func (m *MockRepository) GetUnpublishedEvents(context.Context, int) ([]*outbox.Event, error) {
	return nil, nil
}

func (m *MockRepository) MarkEventPublished(context.Context, int64) error { return nil }

// MockGateway returns a scripted result and counts charges.
type MockGateway struct {
	Result  gateway.Result
	Err     error
	Charges int
}

func (m *MockGateway) Charge(context.Context, int64, float64) (gateway.Result, error) {
	m.Charges++
	return m.Result, m.Err
}
