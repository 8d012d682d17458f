package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

var (
	// ErrOrderLocked is returned when the line set of an order is mutated
	// after the order left CREATED.
	ErrOrderLocked = errors.New("order lines are locked after confirmation")

	// ErrLineNotFound is returned when a dish line id does not belong to the
	// order.
	ErrLineNotFound = errors.New("dish line not found in order")
)

// DishLine is one dish-and-quantity entry within an order. It carries its
// own independent status lifecycle.
type DishLine struct {
	ID       int64
	OrderID  int64
	Dish     *Dish
	Quantity int
	Statuses StatusLedger[DishStatus]
}

// NewDishLine creates a line seeded with a single CREATED entry.
func NewDishLine(dish *Dish, quantity int, now time.Time) *DishLine {
	line := &DishLine{
		Dish:     dish,
		Quantity: quantity,
		Statuses: NewStatusLedger(DishTransitions),
	}
	line.Statuses.Append(DishCreated, now)
	return line
}

// CurrentStatus is the line's status derived from its ledger.
func (l *DishLine) CurrentStatus() DishStatus {
	return l.Statuses.Current()
}

// AddStatus appends a status entry to the line's own ledger.
func (l *DishLine) AddStatus(status DishStatus, now time.Time) error {
	_, err := l.Statuses.Append(status, now)
	return err
}

// TotalPrice is the dish sale price times the ordered quantity.
func (l *DishLine) TotalPrice() decimal.Decimal {
	return l.Dish.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// LineSkip records a dish line that could not follow an order-level
// transition during downward propagation. Skips are reported to the caller
// for logging; they never abort the order-level transition.
type LineSkip struct {
	LineID int64
	Err    error
}

// Order is the aggregate root: an ordered sequence of dish lines plus the
// order-level status ledger. The order drives both its own ledger and its
// lines' ledgers, so status propagation in either direction happens
// synchronously inside the aggregate.
type Order struct {
	ID        int64
	Reference string
	CreatedAt time.Time
	Lines     []*DishLine
	Statuses  StatusLedger[OrderStatus]
}

// NewOrder creates an order seeded with a single CREATED entry.
func NewOrder(reference string, now time.Time) *Order {
	o := &Order{
		Reference: reference,
		CreatedAt: now,
		Statuses:  NewStatusLedger(OrderTransitions),
	}
	o.Statuses.Append(OrderCreated, now)
	return o
}

// CurrentStatus is the order's status derived from its ledger.
func (o *Order) CurrentStatus() OrderStatus {
	return o.Statuses.Current()
}

// TotalAmount is the sum of line totals; zero for an order with no lines.
func (o *Order) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.TotalPrice())
	}
	return total
}

// AddLine appends a dish line to the order. The line set is mutable only
// while the order is still CREATED.
func (o *Order) AddLine(line *DishLine) error {
	if status := o.CurrentStatus(); status != OrderCreated {
		return fmt.Errorf("%w: current status %s", ErrOrderLocked, status)
	}
	line.OrderID = o.ID
	o.Lines = append(o.Lines, line)
	return nil
}

// Line returns the dish line with the given id.
func (o *Order) Line(lineID int64) (*DishLine, error) {
	for _, line := range o.Lines {
		if line.ID == lineID {
			return line, nil
		}
	}
	return nil, fmt.Errorf("%w: id %d", ErrLineNotFound, lineID)
}

// AddStatus transitions the order to a new status and, for CONFIRMED and
// IN_PREPARATION only, pushes the analogous status down to every dish line.
// A line that cannot follow (already past that status, for instance) is
// skipped and reported; the order-level transition stands regardless.
func (o *Order) AddStatus(status OrderStatus, now time.Time) ([]LineSkip, error) {
	if _, err := o.Statuses.Append(status, now); err != nil {
		return nil, err
	}
	return o.propagateDown(status, now), nil
}

// propagateDown cascades CONFIRMED and IN_PREPARATION to dish lines.
// FINISHED and SERVED never cascade: lines finish and get served
// individually and the order follows them upward instead.
func (o *Order) propagateDown(status OrderStatus, now time.Time) []LineSkip {
	if status != OrderConfirmed && status != OrderInPreparation {
		return nil
	}
	var skips []LineSkip
	for _, line := range o.Lines {
		if err := line.AddStatus(DishStatus(status), now); err != nil {
			skips = append(skips, LineSkip{LineID: line.ID, Err: err})
		}
	}
	return skips
}

// AddLineStatus transitions a single dish line and then immediately
// reconciles the order-level status from its lines, so a caller cannot
// forget to reconcile after a line mutation.
func (o *Order) AddLineStatus(lineID int64, status DishStatus, now time.Time) ([]LineSkip, error) {
	line, err := o.Line(lineID)
	if err != nil {
		return nil, err
	}
	if err := line.AddStatus(status, now); err != nil {
		return nil, err
	}
	skips, _ := o.ReconcileFromLines(now)
	return skips, nil
}

// ReconcileFromLines derives the order's status from its lines, in priority
// order: all lines SERVED while the order is FINISHED promotes the order to
// SERVED; all lines FINISHED while the order is IN_PREPARATION promotes it
// to FINISHED; any line IN_PREPARATION pulls a lagging order up to
// IN_PREPARATION. Anything else is a no-op. The second return value reports
// whether the order status changed.
func (o *Order) ReconcileFromLines(now time.Time) ([]LineSkip, bool) {
	allFinished := true
	allServed := true
	anyInPreparation := false
	for _, line := range o.Lines {
		switch line.CurrentStatus() {
		case DishServed:
			allFinished = false
		case DishFinished:
			allServed = false
		case DishInPreparation:
			anyInPreparation = true
			allFinished = false
			allServed = false
		default:
			allFinished = false
			allServed = false
		}
	}

	current := o.CurrentStatus()
	switch {
	case allServed && current == OrderFinished:
		return o.applyReconciled(OrderServed, now)
	case allFinished && current == OrderInPreparation:
		return o.applyReconciled(OrderFinished, now)
	case anyInPreparation && current != OrderFinished && current != OrderServed && current != OrderInPreparation:
		return o.applyReconciled(OrderInPreparation, now)
	}
	return nil, false
}

func (o *Order) applyReconciled(status OrderStatus, now time.Time) ([]LineSkip, bool) {
	// Reconciliation has no error surface: a line combination the order's
	// own state machine cannot follow (for example a line IN_PREPARATION
	// while the order is still CREATED) simply leaves the order unchanged.
	skips, err := o.AddStatus(status, now)
	if err != nil {
		return nil, false
	}
	return skips, true
}

// PendingStatuses reports whether the aggregate holds status entries not yet
// persisted by a collaborator.
func (o *Order) PendingStatuses() bool {
	if len(o.Statuses.Pending()) > 0 {
		return true
	}
	for _, line := range o.Lines {
		if len(line.Statuses.Pending()) > 0 {
			return true
		}
	}
	return false
}

// MarkStatusesPersisted acknowledges persistence of every status entry in
// the aggregate, order and lines alike.
func (o *Order) MarkStatusesPersisted() {
	o.Statuses.MarkPersisted()
	for _, line := range o.Lines {
		line.Statuses.MarkPersisted()
	}
}
