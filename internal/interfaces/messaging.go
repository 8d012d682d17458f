package interfaces

import (
	"context"
	"time"
)

// OrderConfirmedMessage is published when an order passes the stock check
// and is consumed by kitchen workers.
type OrderConfirmedMessage struct {
	OrderID     int64           `json:"order_id"`
	Reference   string          `json:"reference"`
	TotalAmount string          `json:"total_amount"`
	Lines       []ConfirmedLine `json:"lines"`
}

type ConfirmedLine struct {
	LineID   int64  `json:"line_id"`
	DishID   int64  `json:"dish_id"`
	DishName string `json:"dish_name"`
	Quantity int    `json:"quantity"`
}

// StatusUpdateMessage is fanned out on every order or dish line transition.
type StatusUpdateMessage struct {
	Reference string    `json:"reference"`
	Subject   string    `json:"subject"` // "order" or "dish_line"
	LineID    int64     `json:"line_id,omitempty"`
	OldStatus string    `json:"old_status"`
	NewStatus string    `json:"new_status"`
	ChangedBy string    `json:"changed_by"`
	Timestamp time.Time `json:"timestamp"`
}

type MessagePublisher interface {
	PublishConfirmed(ctx context.Context, msg OrderConfirmedMessage) error
	PublishStatusUpdate(ctx context.Context, msg StatusUpdateMessage) error
}

type MessageConsumer interface {
	ConsumeConfirmedOrders(ctx context.Context, handler ConfirmedOrderHandler) error
	ConsumeNotifications(ctx context.Context, handler NotificationHandler) error
}

type (
	ConfirmedOrderHandler func(ctx context.Context, body []byte) error
	NotificationHandler   func(ctx context.Context, body []byte) error
)
