package outbox

import "github.com/google/uuid"

// OrderCreatedEvent is emitted when a pending order is persisted at checkout.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID `json:"orderId"`
	UserID        uuid.UUID `json:"userId"`
	SubtotalCents int       `json:"subtotalCents"`
	ShippingCents int       `json:"shippingCents"`
	TotalCents    int       `json:"totalCents"`
	ItemCount     int       `json:"itemCount"`
}

// OrderPaidEvent is emitted once per order when payment is confirmed.
type OrderPaidEvent struct {
	OrderID          uuid.UUID `json:"orderId"`
	UserID           uuid.UUID `json:"userId"`
	PaymentSessionID string    `json:"paymentSessionId"`
	TotalCents       int       `json:"totalCents"`
	Source           string    `json:"source"`
}

// OrderCancelledEvent is emitted when a pending order is abandoned.
type OrderCancelledEvent struct {
	OrderID uuid.UUID `json:"orderId"`
	UserID  uuid.UUID `json:"userId"`
	Reason  string    `json:"reason"`
}

// OrderStatusChangedEvent records fulfilment transitions made by admins.
type OrderStatusChangedEvent struct {
	OrderID uuid.UUID `json:"orderId"`
	From    string    `json:"from"`
	To      string    `json:"to"`
}

// OrderRefundRequiredEvent is emitted when the gateway captured a payment for
// an order that was no longer pending. Operations refund it out of band.
type OrderRefundRequiredEvent struct {
	OrderID          uuid.UUID `json:"orderId"`
	UserID           uuid.UUID `json:"userId"`
	PaymentSessionID string    `json:"paymentSessionId"`
	AmountCents      int       `json:"amountCents"`
	OrderStatus      string    `json:"orderStatus"`
	Source           string    `json:"source"`
}
