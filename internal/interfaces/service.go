package interfaces

import (
	"context"
	"time"

	"github.com/azamat-kh/restostock/internal/domain"
)

// Commands accepted by the order service.
type CreateOrderCommand struct {
	Reference string
	Lines     []CreateOrderLine
}

type CreateOrderLine struct {
	DishID   int64
	Quantity int
}

type AddMovementsCommand struct {
	IngredientID int64
	Movements    []MovementInput
}

type MovementInput struct {
	Type     string
	Quantity string
	Unit     string
	At       time.Time
}

type AddPricesCommand struct {
	IngredientID int64
	Prices       []PriceInput
}

type PriceInput struct {
	Amount        string
	EffectiveDate time.Time
}

// OrderService owns the order lifecycle: creation, confirmation against
// ingredient stock, and per-line status changes with reconciliation.
type OrderService interface {
	CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error)
	AddDishLine(ctx context.Context, reference string, line CreateOrderLine) (*domain.Order, error)
	ConfirmOrder(ctx context.Context, reference string) (*domain.Order, error)
	AddLineStatus(ctx context.Context, reference string, lineID int64, status domain.DishStatus) (*domain.Order, error)
}

// KitchenService is the worker loop preparing confirmed orders.
type KitchenService interface {
	Start(ctx context.Context) error
	Shutdown(ctx context.Context) error
	ProcessOrder(ctx context.Context, msg OrderConfirmedMessage) error
}

// TrackingService is the read-only query surface.
type TrackingService interface {
	GetOrderStatus(ctx context.Context, reference string) (*OrderStatusResponse, error)
	GetOrderHistory(ctx context.Context, reference string) ([]domain.StatusEntry[domain.OrderStatus], error)
	GetDishInsights(ctx context.Context, dishID int64) (*DishInsights, error)
	GetWorkersStatus(ctx context.Context) ([]*WorkerStatusResponse, error)
}

// InventoryService appends stock movements and prices and answers balance
// queries.
type InventoryService interface {
	AddMovements(ctx context.Context, cmd AddMovementsCommand) error
	AddPrices(ctx context.Context, cmd AddPricesCommand) error
	GetIngredientStock(ctx context.Context, ingredientID int64, at time.Time) (*IngredientStockResponse, error)
}

type OrderStatusResponse struct {
	Reference     string
	CurrentStatus domain.OrderStatus
	TotalAmount   string
	Lines         []LineStatusResponse
}

type LineStatusResponse struct {
	LineID        int64
	DishName      string
	Quantity      int
	CurrentStatus domain.DishStatus
}

type DishInsights struct {
	DishID         int64
	Name           string
	Price          string
	IngredientCost string
	GrossMargin    string
	MaxProducible  int64
}

type WorkerStatusResponse struct {
	WorkerName     string
	Status         domain.WorkerStatus
	OrdersPrepared int
	LastSeen       time.Time
}

type IngredientStockResponse struct {
	IngredientID int64
	Name         string
	Balance      string
	LatestPrice  string
	AsOf         time.Time
}
