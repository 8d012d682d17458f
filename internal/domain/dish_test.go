package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func stockedIngredient(id int64, name, balance string, at time.Time) *Ingredient {
	return &Ingredient{
		ID:   id,
		Name: name,
		Movements: NewInventoryLedger([]StockMovement{
			{Type: MovementIn, Quantity: d(balance), Unit: UnitPiece, At: at.Add(-time.Hour)},
		}),
	}
}

func TestDish_TotalIngredientCost(t *testing.T) {
	march1 := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	flour := &Ingredient{ID: 1, Name: "Flour", Prices: NewPriceLedger([]PriceEntry{
		{Amount: d("0.02"), EffectiveDate: march1},
		{Amount: d("0.03"), EffectiveDate: march1.AddDate(0, 0, 10)},
	})}
	cheese := &Ingredient{ID: 2, Name: "Cheese", Prices: NewPriceLedger([]PriceEntry{
		{Amount: d("0.05"), EffectiveDate: march1},
	})}

	pizza := &Dish{
		Name:  "Margherita",
		Price: d("12"),
		Requirements: []DishRequirement{
			{Ingredient: flour, Quantity: d("200"), Unit: UnitGram},
			{Ingredient: cheese, Quantity: d("100"), Unit: UnitGram},
		},
	}

	// latest prices: 200*0.03 + 100*0.05 = 11
	assert.True(t, pizza.TotalIngredientCost().Equal(d("11")))
	assert.True(t, pizza.GrossMargin().Equal(d("1")))

	// as of march 1: 200*0.02 + 100*0.05 = 9
	assert.True(t, pizza.TotalIngredientCostAsOf(march1).Equal(d("9")))
	assert.True(t, pizza.GrossMarginAsOf(march1).Equal(d("3")))
}

func TestDish_CostWithUnpricedIngredientIsPartial(t *testing.T) {
	unpriced := &Ingredient{ID: 3, Name: "Basil"}
	dish := &Dish{Price: d("5"), Requirements: []DishRequirement{
		{Ingredient: unpriced, Quantity: d("10"), Unit: UnitGram},
	}}

	assert.True(t, dish.TotalIngredientCost().IsZero())
	assert.True(t, dish.GrossMargin().Equal(d("5")))
}

func TestDish_MaxProducible(t *testing.T) {
	now := time.Now()
	bread := stockedIngredient(1, "Bread", "7", now)
	sausage := stockedIngredient(2, "Sausage", "3", now)

	hotdog := &Dish{
		Name:  "Hot Dog",
		Price: d("5"),
		Requirements: []DishRequirement{
			{Ingredient: bread, Quantity: d("2"), Unit: UnitPiece},
			{Ingredient: sausage, Quantity: d("1"), Unit: UnitPiece},
		},
	}

	// bread limits: floor(7/2)=3, sausage allows 3 -> 3
	assert.Equal(t, int64(3), hotdog.MaxProducible(now))
}

func TestDish_MaxProducibleRoundsDown(t *testing.T) {
	now := time.Now()
	rice := stockedIngredient(1, "Rice", "250", now)
	dish := &Dish{Name: "Bowl", Requirements: []DishRequirement{
		{Ingredient: rice, Quantity: d("100"), Unit: UnitGram},
	}}

	// 2.5 portions of stock cannot produce a third bowl
	assert.Equal(t, int64(2), dish.MaxProducible(now))
}

func TestDish_MaxProducibleEdgeCases(t *testing.T) {
	now := time.Now()

	noRequirements := &Dish{Name: "Water"}
	assert.Equal(t, int64(0), noRequirements.MaxProducible(now))

	overdrawn := &Ingredient{ID: 1, Name: "Oil", Movements: NewInventoryLedger([]StockMovement{
		{Type: MovementOut, Quantity: d("5"), At: now.Add(-time.Minute)},
	})}
	negative := &Dish{Name: "Fries", Requirements: []DishRequirement{
		{Ingredient: overdrawn, Quantity: d("1"), Unit: UnitLitre},
	}}
	assert.Equal(t, int64(0), negative.MaxProducible(now), "negative balances never yield negative counts")
}
