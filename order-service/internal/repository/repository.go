package repository

import (
	"context"
	"errors"
	"time"

	"github.com/adarshpatil06123/ecommerce-backend/order-service/internal/domain"
	"github.com/adarshpatil06123/ecommerce-backend/pkg/outbox"
)

var ErrOrderNotFound = errors.New("order not found")

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type OrderRepository interface {
	Close() error
	RunMigrations(cred *Credentials) error

	CreateOrder(ctx context.Context, order *domain.Order) (int64, error)
	GetOrderByID(ctx context.Context, id int64) (*domain.Order, error)
	GetOrdersByUser(ctx context.Context, userID int64) ([]*domain.Order, error)
	ListOrders(ctx context.Context) ([]*domain.Order, error)
	UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) error

	// ConfirmOrder flips the order to CONFIRMED and stores the OrderPlaced
	// outbox row in the same transaction.
	ConfirmOrder(ctx context.Context, id int64, ev *outbox.Event) error

	// CancelStalePending cancels PENDING orders older than the given age.
	// These are orders whose stock reservation failed after the row was
	// written; nothing was reserved for them, so cancelling is safe.
	CancelStalePending(ctx context.Context, olderThan time.Duration) (int64, error)

	GetUnpublishedEvents(ctx context.Context, limit int) ([]*outbox.Event, error)
	MarkEventPublished(ctx context.Context, id int64) error
}
