package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/adarshpatil06123/ecommerce-backend/payment-service/internal/domain"
	"github.com/adarshpatil06123/ecommerce-backend/pkg/outbox"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(100)
	db.SetMaxIdleConns(10)
	log.Info().Msg("connected to payments database")
	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "payments_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

// CreatePaymentWithOutbox relies on the unique index on order_id as the
// idempotency guard: a concurrent duplicate delivery loses the insert race,
// gets 23505 and maps to ErrDuplicatePayment.
func (r *Repository) CreatePaymentWithOutbox(ctx context.Context, payment *domain.Payment, ev *outbox.Event) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin payment tx: %w", err)
	}
	defer tx.Rollback()

	query := `INSERT INTO payments (order_id, amount, status, transaction_id, payment_method, remarks, created_at)
	          VALUES ($1, $2, $3, $4, $5, $6, NOW())
	          RETURNING id`

	var id int64
	err = tx.QueryRowContext(ctx, query,
		payment.OrderID,
		payment.Amount,
		payment.Status,
		nullableString(payment.TransactionID),
		payment.PaymentMethod,
		payment.Remarks,
	).Scan(&id)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return 0, ErrDuplicatePayment
		}
		return 0, fmt.Errorf("insert payment: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO payment_outbox (topic, key, payload) VALUES ($1, $2, $3)`,
		ev.Topic, ev.Key, ev.Payload)
	if err != nil {
		return 0, fmt.Errorf("insert outbox event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit payment tx: %w", err)
	}
	return id, nil
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

const paymentColumns = `id, order_id, amount, status, transaction_id, payment_method, remarks, created_at`

func scanPayment(row interface{ Scan(...any) error }) (*domain.Payment, error) {
	var p domain.Payment
	var txnID sql.NullString
	err := row.Scan(
		&p.ID,
		&p.OrderID,
		&p.Amount,
		&p.Status,
		&txnID,
		&p.PaymentMethod,
		&p.Remarks,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.TransactionID = txnID.String
	return &p, nil
}

func (r *Repository) GetPaymentByID(ctx context.Context, id int64) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	payment, err := scanPayment(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query payment by id: %w", err)
	}
	return payment, nil
}

func (r *Repository) GetPaymentByOrderID(ctx context.Context, orderID int64) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE order_id = $1`

	payment, err := scanPayment(r.db.QueryRowContext(ctx, query, orderID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query payment by order id: %w", err)
	}
	return payment, nil
}

func (r *Repository) ListPayments(ctx context.Context) ([]*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments ORDER BY created_at DESC`
	return r.queryPayments(ctx, query)
}

func (r *Repository) ListPaymentsByStatus(ctx context.Context, status domain.PaymentStatus) ([]*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE status = $1 ORDER BY created_at DESC`
	return r.queryPayments(ctx, query, status)
}

func (r *Repository) queryPayments(ctx context.Context, query string, args ...any) ([]*domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query payments: %w", err)
	}
	defer rows.Close()

	payments := make([]*domain.Payment, 0)
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

func (r *Repository) UpdatePaymentStatus(ctx context.Context, id int64, status domain.PaymentStatus, remarks string) error {
	query := `UPDATE payments SET status = $1, remarks = $2 WHERE id = $3`

	res, err := r.db.ExecContext(ctx, query, status, remarks, id)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if affected == 0 {
		return ErrPaymentNotFound
	}
	return nil
}

func (r *Repository) GetUnpublishedEvents(ctx context.Context, limit int) ([]*outbox.Event, error) {
	query := `SELECT id, topic, key, payload, published, created_at
	          FROM payment_outbox WHERE published = false ORDER BY id LIMIT $1`

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox events: %w", err)
	}
	defer rows.Close()

	var evs []*outbox.Event
	for rows.Next() {
		var ev outbox.Event
		if err := rows.Scan(&ev.ID, &ev.Topic, &ev.Key, &ev.Payload, &ev.Published, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox event: %w", err)
		}
		evs = append(evs, &ev)
	}
	return evs, rows.Err()
}

func (r *Repository) MarkEventPublished(ctx context.Context, id int64) error {
	_, err := r.db.ExecContext(ctx, `UPDATE payment_outbox SET published = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark outbox event published: %w", err)
	}
	return nil
}
