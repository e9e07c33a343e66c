package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/adarshpatil06123/ecommerce-backend/payment-service/internal/domain"
	"github.com/adarshpatil06123/ecommerce-backend/payment-service/internal/repository"
	"github.com/adarshpatil06123/ecommerce-backend/payment-service/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// PaymentService is the application surface the HTTP layer drives.
type PaymentService interface {
	ProcessPayment(ctx context.Context, orderID int64, amount float64) (*domain.Payment, error)
	GetPayment(ctx context.Context, id int64) (*domain.Payment, error)
	GetPaymentByOrder(ctx context.Context, orderID int64) (*domain.Payment, error)
	ListPayments(ctx context.Context) ([]*domain.Payment, error)
	ListPaymentsByStatus(ctx context.Context, status domain.PaymentStatus) ([]*domain.Payment, error)
	RefundPayment(ctx context.Context, id int64) (*domain.Payment, error)
}

type PaymentsHandler struct {
	svc     PaymentService
	timeout time.Duration
}

func NewPaymentsHandler(svc PaymentService, timeout time.Duration) *PaymentsHandler {
	return &PaymentsHandler{svc: svc, timeout: timeout}
}

func (h *PaymentsHandler) Routes(r chi.Router) {
	r.Post("/payments", h.ProcessPayment)
	r.Get("/payments", h.ListPayments)
	r.Get("/payments/{payment_id}", h.GetPayment)
	r.Get("/payments/order/{order_id}", h.GetPaymentByOrder)
	r.Get("/payments/status/{status}", h.ListPaymentsByStatus)
	r.Post("/payments/{payment_id}/refund", h.RefundPayment)
}

type ProcessPaymentRequest struct {
	OrderID int64   `json:"orderId"`
	Amount  float64 `json:"amount"`
}

type PaymentResponseDTO struct {
	ID            int64   `json:"id"`
	OrderID       int64   `json:"orderId"`
	Amount        float64 `json:"amount"`
	Status        string  `json:"status"`
	TransactionID string  `json:"transactionId,omitempty"`
	PaymentMethod string  `json:"paymentMethod"`
	Remarks       string  `json:"remarks"`
	CreatedAt     string  `json:"createdAt"`
}

func convertPayment(p *domain.Payment) PaymentResponseDTO {
	return PaymentResponseDTO{
		ID:            p.ID,
		OrderID:       p.OrderID,
		Amount:        p.Amount,
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		PaymentMethod: p.PaymentMethod,
		Remarks:       p.Remarks,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
	}
}

// POST /payments
func (h *PaymentsHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req ProcessPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	if req.OrderID <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_input", "orderId is required")
		return
	}

	payment, err := h.svc.ProcessPayment(ctx, req.OrderID, req.Amount)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, convertPayment(payment))
}

// GET /payments/{payment_id}
func (h *PaymentsHandler) GetPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := pathID(w, r, "payment_id")
	if !ok {
		return
	}

	payment, err := h.svc.GetPayment(ctx, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertPayment(payment))
}

// GET /payments/order/{order_id}
func (h *PaymentsHandler) GetPaymentByOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID, ok := pathID(w, r, "order_id")
	if !ok {
		return
	}

	payment, err := h.svc.GetPaymentByOrder(ctx, orderID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertPayment(payment))
}

// GET /payments
func (h *PaymentsHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	payments, err := h.svc.ListPayments(ctx)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertPayments(payments))
}

// GET /payments/status/{status}
func (h *PaymentsHandler) ListPaymentsByStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status, err := domain.ParsePaymentStatus(chi.URLParam(r, "status"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_status", err.Error())
		return
	}

	payments, err := h.svc.ListPaymentsByStatus(ctx, status)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertPayments(payments))
}

// POST /payments/{payment_id}/refund
func (h *PaymentsHandler) RefundPayment(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, ok := pathID(w, r, "payment_id")
	if !ok {
		return
	}

	payment, err := h.svc.RefundPayment(ctx, id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, convertPayment(payment))
}

func convertPayments(payments []*domain.Payment) []PaymentResponseDTO {
	dtos := make([]PaymentResponseDTO, 0, len(payments))
	for _, p := range payments {
		dtos = append(dtos, convertPayment(p))
	}
	return dtos
}

func pathID(w http.ResponseWriter, r *http.Request, param string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, param), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid_id", param+" must be a positive integer")
		return 0, false
	}
	return id, true
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{Error: message, Code: code})
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrPaymentNotFound):
		respondError(w, http.StatusNotFound, "payment_not_found", err.Error())
	case errors.Is(err, service.ErrPaymentExists):
		respondError(w, http.StatusConflict, "payment_exists", err.Error())
	case errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrNotRefundable):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, service.ErrGatewayFailure):
		respondError(w, http.StatusBadGateway, "gateway_failure", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "request timed out")
	default:
		log.Error().Err(err).Msg("unhandled service error")
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
