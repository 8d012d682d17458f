package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DishRequirement is one ingredient a dish needs, with the quantity consumed
// per produced unit.
type DishRequirement struct {
	ID         int64
	Ingredient *Ingredient
	Quantity   decimal.Decimal
	Unit       Unit
}

// Dish is a menu entry: a sale price plus the ingredients required to
// produce one unit.
type Dish struct {
	ID           int64
	Name         string
	Price        decimal.Decimal
	Requirements []DishRequirement
}

// TotalIngredientCost is the cost of producing one unit, priced at each
// ingredient's latest price. Unpriced ingredients contribute zero.
func (d *Dish) TotalIngredientCost() decimal.Decimal {
	cost := decimal.Zero
	for _, req := range d.Requirements {
		cost = cost.Add(req.Ingredient.LatestPrice().Mul(req.Quantity))
	}
	return cost
}

// TotalIngredientCostAsOf prices each requirement at the given date.
func (d *Dish) TotalIngredientCostAsOf(date time.Time) decimal.Decimal {
	cost := decimal.Zero
	for _, req := range d.Requirements {
		cost = cost.Add(req.Ingredient.PriceAsOf(date).Mul(req.Quantity))
	}
	return cost
}

// GrossMargin is the sale price minus the current ingredient cost.
func (d *Dish) GrossMargin() decimal.Decimal {
	return d.Price.Sub(d.TotalIngredientCost())
}

// GrossMarginAsOf is the sale price minus the ingredient cost at the given
// date.
func (d *Dish) GrossMarginAsOf(date time.Time) decimal.Decimal {
	return d.Price.Sub(d.TotalIngredientCostAsOf(date))
}

// MaxProducible is the number of whole units of the dish the kitchen can
// produce from the stock available at the given instant: the minimum over
// all requirements of floor(balance / required quantity), never negative.
// A dish with no requirements cannot be produced at all.
func (d *Dish) MaxProducible(at time.Time) int64 {
	if len(d.Requirements) == 0 {
		return 0
	}

	var min int64
	for idx, req := range d.Requirements {
		if !req.Quantity.IsPositive() {
			return 0
		}
		possible := req.Ingredient.AvailableQuantity(at).Div(req.Quantity).Floor().IntPart()
		if idx == 0 || possible < min {
			min = possible
		}
	}
	if min < 0 {
		return 0
	}
	return min
}
