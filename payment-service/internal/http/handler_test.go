package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/adarshpatil06123/ecommerce-backend/payment-service/internal/domain"
	"github.com/adarshpatil06123/ecommerce-backend/payment-service/internal/repository"
	"github.com/adarshpatil06123/ecommerce-backend/payment-service/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockPaymentService implements PaymentService for handler tests.
type MockPaymentService struct {
	Payment    *domain.Payment
	Payments   []*domain.Payment
	Err        error
	RefundedID int64
	Status     domain.PaymentStatus
}

func (m *MockPaymentService) ProcessPayment(context.Context, int64, float64) (*domain.Payment, error) {
	return m.Payment, m.Err
}

func (m *MockPaymentService) GetPayment(context.Context, int64) (*domain.Payment, error) {
	return m.Payment, m.Err
}

func (m *MockPaymentService) GetPaymentByOrder(context.Context, int64) (*domain.Payment, error) {
	return m.Payment, m.Err
}

func (m *MockPaymentService) ListPayments(context.Context) ([]*domain.Payment, error) {
	return m.Payments, m.Err
}

func (m *MockPaymentService) ListPaymentsByStatus(_ context.Context, status domain.PaymentStatus) ([]*domain.Payment, error) {
	m.Status = status
	return m.Payments, m.Err
}

func (m *MockPaymentService) RefundPayment(_ context.Context, id int64) (*domain.Payment, error) {
	m.RefundedID = id
	return m.Payment, m.Err
}

func newTestRouter(svc PaymentService) *chi.Mux {
	r := chi.NewRouter()
	NewPaymentsHandler(svc, time.Second).Routes(r)
	return r
}

func settledPayment() *domain.Payment {
	return &domain.Payment{
		ID: 1, OrderID: 42, Amount: 75.00,
		Status: domain.PaymentStatusSuccess, TransactionID: "TXN-test",
		PaymentMethod: "CARD", Remarks: "Payment processed successfully",
		CreatedAt: time.Now(),
	}
}

func TestProcessPaymentHandler_Created(t *testing.T) {
	router := newTestRouter(&MockPaymentService{Payment: settledPayment()})

	req := httptest.NewRequest(http.MethodPost, "/payments",
		strings.NewReader(`{"orderId":42,"amount":75.00}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var dto PaymentResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, int64(42), dto.OrderID)
	assert.Equal(t, "SUCCESS", dto.Status)
	assert.Equal(t, "TXN-test", dto.TransactionID)
}

func TestProcessPaymentHandler_BadBody(t *testing.T) {
	router := newTestRouter(&MockPaymentService{})

	req := httptest.NewRequest(http.MethodPost, "/payments", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestProcessPaymentHandler_ErrorMapping(t *testing.T) {
	for _, tc := range []struct {
		name string
		err  error
		want int
	}{
		{"duplicate payment", service.ErrPaymentExists, http.StatusConflict},
		{"invalid amount", service.ErrInvalidAmount, http.StatusBadRequest},
		{"gateway failure", service.ErrGatewayFailure, http.StatusBadGateway},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout},
	} {
		t.Run(tc.name, func(t *testing.T) {
			router := newTestRouter(&MockPaymentService{Err: tc.err})

			req := httptest.NewRequest(http.MethodPost, "/payments",
				strings.NewReader(`{"orderId":42,"amount":75.00}`))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			assert.Equal(t, tc.want, rec.Code)
		})
	}
}

func TestGetPaymentHandler_NotFound(t *testing.T) {
	router := newTestRouter(&MockPaymentService{Err: repository.ErrPaymentNotFound})

	req := httptest.NewRequest(http.MethodGet, "/payments/7", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPaymentByOrderHandler(t *testing.T) {
	router := newTestRouter(&MockPaymentService{Payment: settledPayment()})

	req := httptest.NewRequest(http.MethodGet, "/payments/order/42", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var dto PaymentResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, int64(42), dto.OrderID)
}

func TestListPaymentsByStatusHandler(t *testing.T) {
	svc := &MockPaymentService{Payments: []*domain.Payment{settledPayment()}}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/payments/status/SUCCESS", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.PaymentStatusSuccess, svc.Status)
}

func TestListPaymentsByStatusHandler_InvalidStatus(t *testing.T) {
	router := newTestRouter(&MockPaymentService{})

	req := httptest.NewRequest(http.MethodGet, "/payments/status/NOPE", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRefundPaymentHandler(t *testing.T) {
	refunded := settledPayment()
	refunded.Status = domain.PaymentStatusRefunded
	svc := &MockPaymentService{Payment: refunded}
	router := newTestRouter(svc)

	req := httptest.NewRequest(http.MethodPost, "/payments/1/refund", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), svc.RefundedID)

	var dto PaymentResponseDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dto))
	assert.Equal(t, "REFUNDED", dto.Status)
}

func TestRefundPaymentHandler_NotRefundable(t *testing.T) {
	router := newTestRouter(&MockPaymentService{Err: service.ErrNotRefundable})

	req := httptest.NewRequest(http.MethodPost, "/payments/1/refund", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
