package service

import (
	"context"
	"time"

	"github.com/adarshpatil06123/ecommerce-backend/order-service/internal/clients"
	"github.com/adarshpatil06123/ecommerce-backend/order-service/internal/domain"
	"github.com/adarshpatil06123/ecommerce-backend/order-service/internal/repository"
	"github.com/adarshpatil06123/ecommerce-backend/pkg/outbox"
)

// MockRepository implements repository.OrderRepository for testing.
type MockRepository struct {
	Orders        map[int64]*domain.Order
	NextID        int64
	CreateErr     error
	ConfirmErr    error
	UpdateErr     error
	OutboxEvents  []*outbox.Event
	StatusWrites  []domain.OrderStatus
	ConfirmedIDs  []int64
	CancelledAged int64
}

func NewMockRepository() *MockRepository {
	return &MockRepository{Orders: map[int64]*domain.Order{}, NextID: 1}
}

func (m *MockRepository) Close() error                                { return nil }
func (m *MockRepository) RunMigrations(*repository.Credentials) error { return nil }

func (m *MockRepository) CreateOrder(_ context.Context, order *domain.Order) (int64, error) {
	if m.CreateErr != nil {
		return 0, m.CreateErr
	}
	id := m.NextID
	m.NextID++
	stored := *order
	stored.ID = id
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.Orders[id] = &stored
	return id, nil
}

func (m *MockRepository) GetOrderByID(_ context.Context, id int64) (*domain.Order, error) {
	order, ok := m.Orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (m *MockRepository) GetOrdersByUser(_ context.Context, userID int64) ([]*domain.Order, error) {
	var res []*domain.Order
	for _, o := range m.Orders {
		if o.UserID == userID {
			res = append(res, o)
		}
	}
	return res, nil
}

func (m *MockRepository) ListOrders(context.Context) ([]*domain.Order, error) {
	var res []*domain.Order
	for _, o := range m.Orders {
		res = append(res, o)
	}
	return res, nil
}

func (m *MockRepository) UpdateOrderStatus(_ context.Context, id int64, status domain.OrderStatus) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	order, ok := m.Orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	order.Status = status
	m.StatusWrites = append(m.StatusWrites, status)
	return nil
}

func (m *MockRepository) ConfirmOrder(_ context.Context, id int64, ev *outbox.Event) error {
	if m.ConfirmErr != nil {
		return m.ConfirmErr
	}
	order, ok := m.Orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	order.Status = domain.OrderStatusConfirmed
	m.ConfirmedIDs = append(m.ConfirmedIDs, id)
	m.OutboxEvents = append(m.OutboxEvents, ev)
	return nil
}

func (m *MockRepository) CancelStalePending(context.Context, time.Duration) (int64, error) {
	return m.CancelledAged, nil
}

func (m *MockRepository) GetUnpublishedEvents(context.Context, int) ([]*outbox.Event, error) {
	return m.OutboxEvents, nil
}

func (m *MockRepository) MarkEventPublished(context.Context, int64) error { return nil }

// MockAuthClient implements UserVerifier.
type MockAuthClient struct {
	Err error
}

func (m *MockAuthClient) VerifyUser(context.Context, int64) error { return m.Err }

// MockProductClient implements ProductGateway.
type MockProductClient struct {
	Product      *clients.Product
	GetErr       error
	Available    bool
	CheckErr     error
	ReduceErr    error
	ReducedBy    int32
	ReduceCalled bool
}

func (m *MockProductClient) GetProduct(context.Context, int64) (*clients.Product, error) {
	return m.Product, m.GetErr
}

func (m *MockProductClient) CheckStock(context.Context, int64, int32) (bool, error) {
	return m.Available, m.CheckErr
}

func (m *MockProductClient) ReduceStock(_ context.Context, _ int64, quantity int32) (*clients.Product, error) {
	m.ReduceCalled = true
	if m.ReduceErr != nil {
		return nil, m.ReduceErr
	}
	m.ReducedBy = quantity
	if m.Product != nil {
		m.Product.Stock -= quantity
	}
	return m.Product, nil
}
