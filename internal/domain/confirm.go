package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Shortage is the deficit of one ingredient blocking an order confirmation.
// BlockedDish and BlockedUnits describe the downstream impact: how many
// additional units of the first dish line consuming this ingredient the
// shortage blocks.
type Shortage struct {
	IngredientID   int64
	IngredientName string
	Missing        decimal.Decimal
	BlockedDish    string
	BlockedUnits   int64
}

// InsufficientIngredientsError reports every ingredient whose aggregated
// demand exceeds the available balance. It is recoverable: the caller can
// restock, reduce quantities or retry later.
type InsufficientIngredientsError struct {
	OrderReference string
	Shortages      []Shortage
}

func (e *InsufficientIngredientsError) Error() string {
	parts := make([]string, len(e.Shortages))
	for i, s := range e.Shortages {
		parts[i] = fmt.Sprintf("%s %s missing to prepare %d more %s",
			s.Missing.String(), s.IngredientName, s.BlockedUnits, s.BlockedDish)
	}
	return fmt.Sprintf("insufficient ingredients for order %s: %s",
		e.OrderReference, strings.Join(parts, "; "))
}

// ingredientDemand is the pooled requirement of one ingredient across all
// lines of an order.
type ingredientDemand struct {
	ingredient *Ingredient
	required   decimal.Decimal
}

// Confirm checks that the kitchen holds enough stock for every ingredient
// the order needs, then transitions the order (and, by downward propagation,
// its lines) to CONFIRMED.
//
// Demand is aggregated across all lines first, so an ingredient shared by
// two dishes is checked once as a pooled quantity. On any shortage the
// method fails with *InsufficientIngredientsError and no status entry is
// appended anywhere — confirmation is atomic with respect to status. It
// checks stock only; nothing is reserved or deducted, so callers confirming
// concurrently against the same ingredients must serialize (see the order
// service).
func (o *Order) Confirm(now time.Time) ([]LineSkip, error) {
	if status := o.CurrentStatus(); status != OrderCreated {
		return nil, fmt.Errorf("%w: cannot confirm order in status %s", ErrInvalidTransition, status)
	}

	demands := o.aggregateDemand()

	var shortages []Shortage
	for _, d := range demands {
		available := d.ingredient.AvailableQuantity(now)
		if available.GreaterThanOrEqual(d.required) {
			continue
		}
		missing := d.required.Sub(available)
		shortages = append(shortages, o.shortageFor(d.ingredient, missing))
	}
	if len(shortages) > 0 {
		return nil, &InsufficientIngredientsError{OrderReference: o.Reference, Shortages: shortages}
	}

	return o.AddStatus(OrderConfirmed, now)
}

// aggregateDemand sums each ingredient's requirement across all lines,
// keeping first-seen order so shortage reports are deterministic.
func (o *Order) aggregateDemand() []ingredientDemand {
	index := make(map[int64]int)
	var demands []ingredientDemand
	for _, line := range o.Lines {
		qty := decimal.NewFromInt(int64(line.Quantity))
		for _, req := range line.Dish.Requirements {
			needed := req.Quantity.Mul(qty)
			if i, ok := index[req.Ingredient.ID]; ok {
				demands[i].required = demands[i].required.Add(needed)
				continue
			}
			index[req.Ingredient.ID] = len(demands)
			demands = append(demands, ingredientDemand{ingredient: req.Ingredient, required: needed})
		}
	}
	return demands
}

// shortageFor builds the shortage report for one ingredient. The blocked
// dish impact comes from the first line found that consumes the ingredient:
// ceil(missing / that dish's per-unit requirement) additional units.
func (o *Order) shortageFor(ingredient *Ingredient, missing decimal.Decimal) Shortage {
	shortage := Shortage{
		IngredientID:   ingredient.ID,
		IngredientName: ingredient.Name,
		Missing:        missing,
	}
	for _, line := range o.Lines {
		for _, req := range line.Dish.Requirements {
			if req.Ingredient.ID != ingredient.ID || !req.Quantity.IsPositive() {
				continue
			}
			shortage.BlockedDish = line.Dish.Name
			shortage.BlockedUnits = missing.Div(req.Quantity).Ceil().IntPart()
			return shortage
		}
	}
	return shortage
}
