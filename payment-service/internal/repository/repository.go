package repository

import (
	"context"
	"errors"

	"github.com/adarshpatil06123/ecommerce-backend/payment-service/internal/domain"
	"github.com/adarshpatil06123/ecommerce-backend/pkg/outbox"
)

var (
	ErrPaymentNotFound  = errors.New("payment not found")
	ErrDuplicatePayment = errors.New("payment already exists for order")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

type PaymentRepository interface {
	Close() error
	RunMigrations(cred *Credentials) error

	// CreatePaymentWithOutbox inserts the payment and its PaymentSettled
	// outbox row in one transaction. A unique violation on order_id
	// returns ErrDuplicatePayment with nothing written.
	CreatePaymentWithOutbox(ctx context.Context, payment *domain.Payment, ev *outbox.Event) (int64, error)

	GetPaymentByID(ctx context.Context, id int64) (*domain.Payment, error)
	GetPaymentByOrderID(ctx context.Context, orderID int64) (*domain.Payment, error)
	ListPayments(ctx context.Context) ([]*domain.Payment, error)
	ListPaymentsByStatus(ctx context.Context, status domain.PaymentStatus) ([]*domain.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus, remarks string) error

	GetUnpublishedEvents(ctx context.Context, limit int) ([]*outbox.Event, error)
	MarkEventPublished(ctx context.Context, id int64) error
}
