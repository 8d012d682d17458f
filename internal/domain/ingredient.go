package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Unit is the unit of measure for ingredient quantities.
type Unit string

const (
	UnitGram  Unit = "G"
	UnitLitre Unit = "L"
	UnitPiece Unit = "U"
)

// MovementType is the direction of a stock movement.
type MovementType string

const (
	MovementIn  MovementType = "IN"
	MovementOut MovementType = "OUT"
)

// PriceEntry is one dated price for an ingredient.
type PriceEntry struct {
	ID            int64
	Amount        decimal.Decimal
	EffectiveDate time.Time
}

// PriceLedger is an append-only sequence of dated prices.
type PriceLedger struct {
	entries []PriceEntry
}

func NewPriceLedger(entries []PriceEntry) PriceLedger {
	return PriceLedger{entries: entries}
}

func (l *PriceLedger) Entries() []PriceEntry {
	out := make([]PriceEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

func (l *PriceLedger) Append(entries ...PriceEntry) {
	for _, e := range entries {
		e.EffectiveDate = DateOf(e.EffectiveDate)
		l.entries = append(l.entries, e)
	}
}

// PriceAsOf returns the amount of the entry whose effective date equals the
// given date exactly, or zero when there is none. Callers treat zero as
// "unpriced", not as an error.
func (l *PriceLedger) PriceAsOf(date time.Time) decimal.Decimal {
	d := DateOf(date)
	for _, e := range l.entries {
		if e.EffectiveDate.Equal(d) {
			return e.Amount
		}
	}
	return decimal.Zero
}

// LatestPrice returns the amount of the entry with the maximum effective
// date, or zero for an empty ledger.
func (l *PriceLedger) LatestPrice() decimal.Decimal {
	if len(l.entries) == 0 {
		return decimal.Zero
	}
	latest := l.entries[0]
	for _, e := range l.entries[1:] {
		if e.EffectiveDate.After(latest.EffectiveDate) {
			latest = e
		}
	}
	return latest.Amount
}

// DateOf truncates an instant to its civil date in UTC. Price effective
// dates are compared at day granularity.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// StockMovement is one IN or OUT movement of ingredient stock.
type StockMovement struct {
	ID       int64
	Type     MovementType
	Quantity decimal.Decimal
	Unit     Unit
	At       time.Time
}

// InventoryLedger is an append-only log of stock movements for one
// ingredient. Balances are derived by scanning, never by mutation.
type InventoryLedger struct {
	movements []StockMovement
}

func NewInventoryLedger(movements []StockMovement) InventoryLedger {
	return InventoryLedger{movements: movements}
}

func (l *InventoryLedger) Movements() []StockMovement {
	out := make([]StockMovement, len(l.movements))
	copy(out, l.movements)
	return out
}

func (l *InventoryLedger) Append(movements ...StockMovement) {
	l.movements = append(l.movements, movements...)
}

// BalanceAsOf returns the sum of IN quantities minus the sum of OUT
// quantities over all movements with timestamp <= instant. Movements with an
// unknown direction are ignored.
func (l *InventoryLedger) BalanceAsOf(instant time.Time) decimal.Decimal {
	balance := decimal.Zero
	for _, m := range l.movements {
		if m.At.After(instant) {
			continue
		}
		switch m.Type {
		case MovementIn:
			balance = balance.Add(m.Quantity)
		case MovementOut:
			balance = balance.Sub(m.Quantity)
		}
	}
	return balance
}

// Ingredient is a raw kitchen ingredient with its price and stock history.
type Ingredient struct {
	ID        int64
	Name      string
	Prices    PriceLedger
	Movements InventoryLedger
}

// AvailableQuantity is the stock balance of the ingredient at the given
// instant.
func (i *Ingredient) AvailableQuantity(at time.Time) decimal.Decimal {
	return i.Movements.BalanceAsOf(at)
}

// LatestPrice is the most recently dated price, zero if never priced.
func (i *Ingredient) LatestPrice() decimal.Decimal {
	return i.Prices.LatestPrice()
}

// PriceAsOf is the price with the exact effective date, zero if none.
func (i *Ingredient) PriceAsOf(date time.Time) decimal.Decimal {
	return i.Prices.PriceAsOf(date)
}
