package interfaces

import (
	"context"

	"github.com/azamat-kh/restostock/internal/domain"
)

// OrderRepository loads fully hydrated order aggregates (lines, dishes,
// requirements, ingredients with their price and stock ledgers) and appends
// status rows. Entities are mutated in memory by the domain; the repository
// only persists the new ledger entries.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	// AddLine stores one line appended to an already persisted order,
	// together with the line's seed status entries.
	AddLine(ctx context.Context, order *domain.Order, line *domain.DishLine) error
	FindByID(ctx context.Context, id int64) (*domain.Order, error)
	FindByReference(ctx context.Context, reference string) (*domain.Order, error)
	GenerateReference(ctx context.Context) (string, error)
	// SaveStatuses stores every pending status entry of the aggregate
	// (order and lines) in one transaction.
	SaveStatuses(ctx context.Context, order *domain.Order) error
	StatusHistory(ctx context.Context, orderID int64) ([]domain.StatusEntry[domain.OrderStatus], error)
}

// CatalogRepository serves dishes and ingredients, hydrated with their
// ledgers, and appends price/stock rows in batches.
type CatalogRepository interface {
	FindDish(ctx context.Context, id int64) (*domain.Dish, error)
	ListDishes(ctx context.Context) ([]*domain.Dish, error)
	FindIngredient(ctx context.Context, id int64) (*domain.Ingredient, error)
	ListIngredients(ctx context.Context) ([]*domain.Ingredient, error)
	SaveMovements(ctx context.Context, ingredientID int64, movements []domain.StockMovement) error
	SavePrices(ctx context.Context, ingredientID int64, prices []domain.PriceEntry) error
}

// WorkerRepository tracks kitchen worker registration and heartbeats.
type WorkerRepository interface {
	Create(ctx context.Context, worker *domain.Worker) error
	FindByName(ctx context.Context, name string) (*domain.Worker, error)
	Update(ctx context.Context, worker *domain.Worker) error
	UpdateHeartbeat(ctx context.Context, name string) error
	ListAll(ctx context.Context) ([]*domain.Worker, error)
	IncrementOrdersPrepared(ctx context.Context, name string) error
}
