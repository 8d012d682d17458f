package order

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azamat-kh/restostock/internal/adapter/logger"
	"github.com/azamat-kh/restostock/internal/domain"
	"github.com/azamat-kh/restostock/internal/interfaces"
)

type fakeOrderRepo struct {
	orders     map[string]*domain.Order
	nextID     int64
	saveCalls  int
	refCounter int
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[string]*domain.Order)}
}

func (r *fakeOrderRepo) Create(_ context.Context, order *domain.Order) error {
	r.nextID++
	order.ID = r.nextID
	for i, line := range order.Lines {
		line.ID = r.nextID*100 + int64(i)
		line.OrderID = order.ID
	}
	order.MarkStatusesPersisted()
	r.orders[order.Reference] = order
	return nil
}

func (r *fakeOrderRepo) AddLine(_ context.Context, order *domain.Order, line *domain.DishLine) error {
	line.ID = order.ID*100 + int64(len(order.Lines))
	line.Statuses.MarkPersisted()
	return nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id int64) (*domain.Order, error) {
	for _, o := range r.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, errors.New("order not found")
}

func (r *fakeOrderRepo) FindByReference(_ context.Context, reference string) (*domain.Order, error) {
	o, ok := r.orders[reference]
	if !ok {
		return nil, errors.New("order not found")
	}
	return o, nil
}

func (r *fakeOrderRepo) GenerateReference(_ context.Context) (string, error) {
	r.refCounter++
	return fmt.Sprintf("ORD_TEST_%03d", r.refCounter), nil
}

func (r *fakeOrderRepo) SaveStatuses(_ context.Context, order *domain.Order) error {
	r.saveCalls++
	order.MarkStatusesPersisted()
	return nil
}

func (r *fakeOrderRepo) StatusHistory(_ context.Context, orderID int64) ([]domain.StatusEntry[domain.OrderStatus], error) {
	for _, o := range r.orders {
		if o.ID == orderID {
			return o.Statuses.Entries(), nil
		}
	}
	return nil, errors.New("order not found")
}

type fakeCatalog struct {
	dishes map[int64]*domain.Dish
}

func (c *fakeCatalog) FindDish(_ context.Context, id int64) (*domain.Dish, error) {
	dish, ok := c.dishes[id]
	if !ok {
		return nil, errors.New("dish not found")
	}
	return dish, nil
}

func (c *fakeCatalog) ListDishes(context.Context) ([]*domain.Dish, error) { return nil, nil }

func (c *fakeCatalog) FindIngredient(context.Context, int64) (*domain.Ingredient, error) {
	return nil, errors.New("not implemented")
}

func (c *fakeCatalog) ListIngredients(context.Context) ([]*domain.Ingredient, error) {
	return nil, nil
}

func (c *fakeCatalog) SaveMovements(context.Context, int64, []domain.StockMovement) error {
	return nil
}

func (c *fakeCatalog) SavePrices(context.Context, int64, []domain.PriceEntry) error { return nil }

type fakePublisher struct {
	confirmed []interfaces.OrderConfirmedMessage
	updates   []interfaces.StatusUpdateMessage
}

func (p *fakePublisher) PublishConfirmed(_ context.Context, msg interfaces.OrderConfirmedMessage) error {
	p.confirmed = append(p.confirmed, msg)
	return nil
}

func (p *fakePublisher) PublishStatusUpdate(_ context.Context, msg interfaces.StatusUpdateMessage) error {
	p.updates = append(p.updates, msg)
	return nil
}

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func hotDogDish(breadStock, sausageStock string, now time.Time) *domain.Dish {
	stocked := func(id int64, name, qty string) *domain.Ingredient {
		return &domain.Ingredient{
			ID:   id,
			Name: name,
			Movements: domain.NewInventoryLedger([]domain.StockMovement{
				{Type: domain.MovementIn, Quantity: dec(qty), Unit: domain.UnitPiece, At: now.Add(-time.Hour)},
			}),
		}
	}
	return &domain.Dish{
		ID:    1,
		Name:  "Hot Dog",
		Price: dec("5"),
		Requirements: []domain.DishRequirement{
			{Ingredient: stocked(1, "Bread", breadStock), Quantity: dec("1"), Unit: domain.UnitPiece},
			{Ingredient: stocked(2, "Sausage", sausageStock), Quantity: dec("1"), Unit: domain.UnitPiece},
		},
	}
}

func newTestService(dish *domain.Dish) (*Service, *fakeOrderRepo, *fakePublisher) {
	repo := newFakeOrderRepo()
	catalog := &fakeCatalog{dishes: map[int64]*domain.Dish{dish.ID: dish}}
	publisher := &fakePublisher{}
	lgr := logger.New("test", logger.LevelError)
	return NewService(repo, catalog, publisher, lgr), repo, publisher
}

func TestCreateOrder(t *testing.T) {
	now := time.Now()
	svc, repo, _ := newTestService(hotDogDish("3", "1", now))

	order, err := svc.CreateOrder(context.Background(), interfaces.CreateOrderCommand{
		Lines: []interfaces.CreateOrderLine{{DishID: 1, Quantity: 2}},
	})
	require.NoError(t, err)

	assert.Equal(t, "ORD_TEST_001", order.Reference)
	assert.Equal(t, domain.OrderCreated, order.CurrentStatus())
	require.Len(t, order.Lines, 1)
	assert.Equal(t, domain.DishCreated, order.Lines[0].CurrentStatus())
	assert.Contains(t, repo.orders, order.Reference)
}

func TestCreateOrder_Validation(t *testing.T) {
	now := time.Now()
	svc, _, _ := newTestService(hotDogDish("3", "1", now))
	ctx := context.Background()

	_, err := svc.CreateOrder(ctx, interfaces.CreateOrderCommand{})
	assert.Error(t, err, "empty line set is rejected")

	_, err = svc.CreateOrder(ctx, interfaces.CreateOrderCommand{
		Lines: []interfaces.CreateOrderLine{{DishID: 1, Quantity: 0}},
	})
	assert.Error(t, err, "non-positive quantity is rejected")

	_, err = svc.CreateOrder(ctx, interfaces.CreateOrderCommand{
		Lines: []interfaces.CreateOrderLine{{DishID: 42, Quantity: 1}},
	})
	assert.Error(t, err, "unknown dish is rejected")
}

func TestAddDishLine(t *testing.T) {
	now := time.Now()
	svc, _, _ := newTestService(hotDogDish("10", "10", now))
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, interfaces.CreateOrderCommand{
		Lines: []interfaces.CreateOrderLine{{DishID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	order, err := svc.AddDishLine(ctx, created.Reference, interfaces.CreateOrderLine{DishID: 1, Quantity: 2})
	require.NoError(t, err)
	require.Len(t, order.Lines, 2)
	assert.Equal(t, domain.DishCreated, order.Lines[1].CurrentStatus())

	// the line set locks once the order leaves CREATED
	_, err = svc.ConfirmOrder(ctx, created.Reference)
	require.NoError(t, err)
	_, err = svc.AddDishLine(ctx, created.Reference, interfaces.CreateOrderLine{DishID: 1, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrOrderLocked)
}

func TestConfirmOrder_Succeeds(t *testing.T) {
	now := time.Now()
	svc, repo, publisher := newTestService(hotDogDish("3", "1", now))
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, interfaces.CreateOrderCommand{
		Lines: []interfaces.CreateOrderLine{{DishID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	confirmed, err := svc.ConfirmOrder(ctx, created.Reference)
	require.NoError(t, err)

	assert.Equal(t, domain.OrderConfirmed, confirmed.CurrentStatus())
	assert.Equal(t, domain.DishConfirmed, confirmed.Lines[0].CurrentStatus())
	assert.Equal(t, 1, repo.saveCalls)
	require.Len(t, publisher.confirmed, 1)
	assert.Equal(t, created.Reference, publisher.confirmed[0].Reference)
	assert.Equal(t, "5", publisher.confirmed[0].TotalAmount)
}

func TestConfirmOrder_ShortageLeavesOrderUntouched(t *testing.T) {
	now := time.Now()
	svc, repo, publisher := newTestService(hotDogDish("3", "1", now))
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, interfaces.CreateOrderCommand{
		Lines: []interfaces.CreateOrderLine{{DishID: 1, Quantity: 2}},
	})
	require.NoError(t, err)

	_, err = svc.ConfirmOrder(ctx, created.Reference)
	var insufficient *domain.InsufficientIngredientsError
	require.True(t, errors.As(err, &insufficient))
	require.Len(t, insufficient.Shortages, 1)
	assert.Equal(t, "Sausage", insufficient.Shortages[0].IngredientName)

	assert.Equal(t, domain.OrderCreated, created.CurrentStatus())
	assert.Zero(t, repo.saveCalls, "nothing persisted on a blocked confirmation")
	assert.Empty(t, publisher.confirmed)
	assert.Empty(t, publisher.updates)
}

func TestAddLineStatus_ReconcilesOrder(t *testing.T) {
	now := time.Now()
	svc, _, publisher := newTestService(hotDogDish("10", "10", now))
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, interfaces.CreateOrderCommand{
		Lines: []interfaces.CreateOrderLine{{DishID: 1, Quantity: 1}},
	})
	require.NoError(t, err)
	_, err = svc.ConfirmOrder(ctx, created.Reference)
	require.NoError(t, err)

	lineID := created.Lines[0].ID

	// line moves into preparation; reconciliation pulls the order along
	order, err := svc.AddLineStatus(ctx, created.Reference, lineID, domain.DishInPreparation)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderInPreparation, order.CurrentStatus())

	order, err = svc.AddLineStatus(ctx, created.Reference, lineID, domain.DishFinished)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderFinished, order.CurrentStatus())

	order, err = svc.AddLineStatus(ctx, created.Reference, lineID, domain.DishServed)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderServed, order.CurrentStatus())

	// each line change published a dish_line update, the order followed
	var orderUpdates, lineUpdates int
	for _, u := range publisher.updates {
		switch u.Subject {
		case "order":
			orderUpdates++
		case "dish_line":
			lineUpdates++
		}
	}
	assert.Equal(t, 3, lineUpdates)
	assert.GreaterOrEqual(t, orderUpdates, 3)
}

func TestAddLineStatus_InvalidTransition(t *testing.T) {
	now := time.Now()
	svc, repo, _ := newTestService(hotDogDish("10", "10", now))
	ctx := context.Background()

	created, err := svc.CreateOrder(ctx, interfaces.CreateOrderCommand{
		Lines: []interfaces.CreateOrderLine{{DishID: 1, Quantity: 1}},
	})
	require.NoError(t, err)

	saves := repo.saveCalls
	_, err = svc.AddLineStatus(ctx, created.Reference, created.Lines[0].ID, domain.DishFinished)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Equal(t, saves, repo.saveCalls, "nothing persisted on a rejected transition")
}
