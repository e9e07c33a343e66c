package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/adarshpatil06123/ecommerce-backend/order-service/internal/clients"
	"github.com/adarshpatil06123/ecommerce-backend/order-service/internal/domain"
	"github.com/adarshpatil06123/ecommerce-backend/order-service/internal/repository"
	"github.com/adarshpatil06123/ecommerce-backend/pkg/events"
	"github.com/adarshpatil06123/ecommerce-backend/pkg/logger"
	"github.com/adarshpatil06123/ecommerce-backend/pkg/outbox"
)

// UserVerifier is the synchronous auth upstream.
type UserVerifier interface {
	VerifyUser(ctx context.Context, userID int64) error
}

// ProductGateway is the synchronous product/stock upstream.
type ProductGateway interface {
	GetProduct(ctx context.Context, productID int64) (*clients.Product, error)
	CheckStock(ctx context.Context, productID int64, quantity int32) (bool, error)
	ReduceStock(ctx context.Context, productID int64, quantity int32) (*clients.Product, error)
}

type OrderService struct {
	repo     repository.OrderRepository
	auth     UserVerifier
	products ProductGateway
}

func NewOrderService(repo repository.OrderRepository, auth UserVerifier, products ProductGateway) *OrderService {
	return &OrderService{
		repo:     repo,
		auth:     auth,
		products: products,
	}
}

// PlaceOrder runs the order saga's synchronous half:
//
//	verify user -> fetch product -> check stock -> persist PENDING ->
//	reserve stock -> CONFIRMED + OrderPlaced outbox row (one tx)
//
// The PENDING insert is the durability point: the order id exists from
// then on even if reservation fails. A failed reservation leaves the row
// PENDING; the publisher's background sweep cancels it later. The caller
// gets the order back as soon as CONFIRMED commits; publishing the event
// is the outbox relay's job.
func (s *OrderService) PlaceOrder(ctx context.Context, userID, productID int64, quantity int32) (*domain.Order, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}

	if err := s.auth.VerifyUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("verify user %d: %w", userID, err)
	}

	product, err := s.products.GetProduct(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("fetch product %d: %w", productID, err)
	}

	available, err := s.products.CheckStock(ctx, productID, quantity)
	if err != nil {
		return nil, fmt.Errorf("check stock for product %d: %w", productID, err)
	}
	if !available {
		return nil, fmt.Errorf("%w for product: %s", ErrInsufficientStock, product.Name)
	}

	totalAmount := roundCents(product.Price * float64(quantity))

	orderID, err := s.repo.CreateOrder(ctx, &domain.Order{
		UserID:      userID,
		ProductID:   productID,
		Quantity:    quantity,
		TotalAmount: totalAmount,
		Status:      domain.OrderStatusPending,
	})
	if err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}

	if _, err := s.products.ReduceStock(ctx, productID, quantity); err != nil {
		logger.Ctx(ctx).Error().Err(err).Int64("order_id", orderID).Int64("product_id", productID).
			Msg("stock reservation failed, order left PENDING")
		return nil, fmt.Errorf("%w: %v", ErrStockReservationFailed, err)
	}

	ev, err := orderPlacedEvent(orderID, userID, productID, totalAmount, quantity)
	if err != nil {
		return nil, err
	}
	if err := s.repo.ConfirmOrder(ctx, orderID, ev); err != nil {
		return nil, fmt.Errorf("confirm order %d: %w", orderID, err)
	}

	logger.Ctx(ctx).Info().Int64("order_id", orderID).Int64("user_id", userID).
		Float64("total_amount", totalAmount).Msg("order confirmed")

	return s.repo.GetOrderByID(ctx, orderID)
}

func orderPlacedEvent(orderID, userID, productID int64, amount float64, quantity int32) (*outbox.Event, error) {
	payload, err := json.Marshal(events.OrderPlaced{
		OrderID:   orderID,
		UserID:    userID,
		ProductID: productID,
		Amount:    amount,
		Quantity:  quantity,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal OrderPlaced event: %w", err)
	}
	return &outbox.Event{
		Topic:   events.OrderCreatedTopic,
		Key:     fmt.Sprint(orderID),
		Payload: payload,
	}, nil
}

func (s *OrderService) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	return s.repo.GetOrderByID(ctx, id)
}

func (s *OrderService) GetOrdersByUser(ctx context.Context, userID int64) ([]*domain.Order, error) {
	return s.repo.GetOrdersByUser(ctx, userID)
}

func (s *OrderService) ListOrders(ctx context.Context) ([]*domain.Order, error) {
	return s.repo.ListOrders(ctx)
}

// UpdateOrderStatus is the admin surface: it writes the status without
// consulting the transition rules.
func (s *OrderService) UpdateOrderStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error) {
	if err := s.repo.UpdateOrderStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.repo.GetOrderByID(ctx, id)
}

func (s *OrderService) CancelOrder(ctx context.Context, id int64) error {
	order, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return err
	}

	if !domain.CanTransitionTo(order.Status, domain.OrderStatusCancelled) {
		return fmt.Errorf("%w: cannot cancel order in %s status", ErrInvalidTransition, order.Status)
	}

	return s.repo.UpdateOrderStatus(ctx, id, domain.OrderStatusCancelled)
}

// roundCents truncates float noise from price*quantity down to currency
// precision.
func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
