package inventory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/azamat-kh/restostock/internal/adapter/logger"
	"github.com/azamat-kh/restostock/internal/domain"
	"github.com/azamat-kh/restostock/internal/interfaces"
)

type fakeCatalog struct {
	ingredients map[int64]*domain.Ingredient
	movements   map[int64][]domain.StockMovement
	prices      map[int64][]domain.PriceEntry
}

func newFakeCatalog(ingredients ...*domain.Ingredient) *fakeCatalog {
	c := &fakeCatalog{
		ingredients: make(map[int64]*domain.Ingredient),
		movements:   make(map[int64][]domain.StockMovement),
		prices:      make(map[int64][]domain.PriceEntry),
	}
	for _, ing := range ingredients {
		c.ingredients[ing.ID] = ing
	}
	return c
}

func (c *fakeCatalog) FindDish(context.Context, int64) (*domain.Dish, error) {
	return nil, errors.New("not implemented")
}

func (c *fakeCatalog) ListDishes(context.Context) ([]*domain.Dish, error) { return nil, nil }

func (c *fakeCatalog) FindIngredient(_ context.Context, id int64) (*domain.Ingredient, error) {
	ing, ok := c.ingredients[id]
	if !ok {
		return nil, errors.New("ingredient not found")
	}
	return ing, nil
}

func (c *fakeCatalog) ListIngredients(context.Context) ([]*domain.Ingredient, error) {
	return nil, nil
}

func (c *fakeCatalog) SaveMovements(_ context.Context, id int64, movements []domain.StockMovement) error {
	c.movements[id] = append(c.movements[id], movements...)
	return nil
}

func (c *fakeCatalog) SavePrices(_ context.Context, id int64, prices []domain.PriceEntry) error {
	c.prices[id] = append(c.prices[id], prices...)
	return nil
}

func newTestService(catalog *fakeCatalog) *Service {
	return NewService(catalog, logger.New("test", logger.LevelError))
}

func TestAddMovements(t *testing.T) {
	catalog := newFakeCatalog(&domain.Ingredient{ID: 1, Name: "Flour"})
	svc := newTestService(catalog)
	ctx := context.Background()

	err := svc.AddMovements(ctx, interfaces.AddMovementsCommand{
		IngredientID: 1,
		Movements: []interfaces.MovementInput{
			{Type: "IN", Quantity: "500", Unit: "G"},
			{Type: "OUT", Quantity: "120.5", Unit: "G"},
		},
	})
	require.NoError(t, err)

	saved := catalog.movements[1]
	require.Len(t, saved, 2)
	assert.Equal(t, domain.MovementIn, saved[0].Type)
	assert.True(t, saved[0].Quantity.Equal(decimal.RequireFromString("500")))
	assert.Equal(t, domain.MovementOut, saved[1].Type)
	assert.False(t, saved[0].At.IsZero(), "missing timestamp defaults to now")
}

func TestAddMovements_Rejections(t *testing.T) {
	catalog := newFakeCatalog(&domain.Ingredient{ID: 1, Name: "Flour"})
	svc := newTestService(catalog)
	ctx := context.Background()

	tests := []struct {
		name string
		cmd  interfaces.AddMovementsCommand
	}{
		{
			name: "empty batch",
			cmd:  interfaces.AddMovementsCommand{IngredientID: 1},
		},
		{
			name: "unknown direction",
			cmd: interfaces.AddMovementsCommand{
				IngredientID: 1,
				Movements:    []interfaces.MovementInput{{Type: "TRANSFER", Quantity: "10", Unit: "G"}},
			},
		},
		{
			name: "non-positive quantity",
			cmd: interfaces.AddMovementsCommand{
				IngredientID: 1,
				Movements:    []interfaces.MovementInput{{Type: "IN", Quantity: "0", Unit: "G"}},
			},
		},
		{
			name: "unknown ingredient",
			cmd: interfaces.AddMovementsCommand{
				IngredientID: 42,
				Movements:    []interfaces.MovementInput{{Type: "IN", Quantity: "10", Unit: "G"}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.AddMovements(ctx, tt.cmd)
			assert.Error(t, err)
		})
	}
	assert.Empty(t, catalog.movements, "rejected batches are not persisted")
}

func TestAddPrices_NormalizesEffectiveDate(t *testing.T) {
	catalog := newFakeCatalog(&domain.Ingredient{ID: 1, Name: "Flour"})
	svc := newTestService(catalog)

	noon := time.Date(2025, 3, 10, 12, 45, 3, 0, time.UTC)
	err := svc.AddPrices(context.Background(), interfaces.AddPricesCommand{
		IngredientID: 1,
		Prices:       []interfaces.PriceInput{{Amount: "3.20", EffectiveDate: noon}},
	})
	require.NoError(t, err)

	saved := catalog.prices[1]
	require.Len(t, saved, 1)
	assert.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), saved[0].EffectiveDate)
	assert.True(t, saved[0].Amount.Equal(decimal.RequireFromString("3.20")))
}

func TestAddPrices_RejectsNegativeAmount(t *testing.T) {
	catalog := newFakeCatalog(&domain.Ingredient{ID: 1, Name: "Flour"})
	svc := newTestService(catalog)

	err := svc.AddPrices(context.Background(), interfaces.AddPricesCommand{
		IngredientID: 1,
		Prices:       []interfaces.PriceInput{{Amount: "-1"}},
	})
	assert.Error(t, err)
	assert.Empty(t, catalog.prices)
}

func TestGetIngredientStock(t *testing.T) {
	base := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	ingredient := &domain.Ingredient{
		ID:   1,
		Name: "Milk",
		Prices: domain.NewPriceLedger([]domain.PriceEntry{
			{Amount: decimal.RequireFromString("1.10"), EffectiveDate: domain.DateOf(base)},
		}),
		Movements: domain.NewInventoryLedger([]domain.StockMovement{
			{Type: domain.MovementIn, Quantity: decimal.RequireFromString("10"), Unit: domain.UnitLitre, At: base},
			{Type: domain.MovementOut, Quantity: decimal.RequireFromString("4"), Unit: domain.UnitLitre, At: base.Add(time.Hour)},
		}),
	}
	svc := newTestService(newFakeCatalog(ingredient))

	// between the two movements only the inbound counts
	resp, err := svc.GetIngredientStock(context.Background(), 1, base.Add(30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "10", resp.Balance)

	resp, err = svc.GetIngredientStock(context.Background(), 1, base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "6", resp.Balance)
	assert.Equal(t, "1.1", resp.LatestPrice)
}
