// Package events holds the event schemas shared between the order and
// payment services. Field names are stable; both services unmarshal the
// other side's payloads, so renaming a json tag is a breaking change.
package events

const (
	// OrderCreatedTopic carries OrderPlaced events, keyed by order id so
	// that all events for one order land on the same partition.
	OrderCreatedTopic = "order-created-topic"

	// PaymentCompletedTopic carries PaymentSettled events. Nothing
	// consumes it yet; it exists for downstream services (notifications,
	// order status sync) that are not part of this repo.
	PaymentCompletedTopic = "payment-completed-topic"

	// PaymentDLQTopic receives OrderPlaced events that exhausted their
	// retry budget in the payment consumer.
	PaymentDLQTopic = "payment-dlq-topic"

	// PaymentGroupID is the consumer group of the payment service.
	PaymentGroupID = "ecommerce_payment_group"
)

// OrderPlaced is published once per confirmed order. It may be delivered
// more than once; consumers must be idempotent on OrderID.
type OrderPlaced struct {
	OrderID   int64   `json:"orderId"`
	UserID    int64   `json:"userId"`
	ProductID int64   `json:"productId"`
	Amount    float64 `json:"amount"`
	Quantity  int32   `json:"quantity"`
}

// PaymentSettled records the outcome of settling one order's payment.
// TransactionID is null when Status is FAILED; the field is always present
// in the payload.
type PaymentSettled struct {
	OrderID       int64   `json:"orderId"`
	Status        string  `json:"status"`
	TransactionID *string `json:"transactionId"`
}
