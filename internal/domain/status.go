package domain

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// OrderStatus is the lifecycle status of an order.
type OrderStatus string

const (
	OrderCreated       OrderStatus = "CREATED"
	OrderConfirmed     OrderStatus = "CONFIRMED"
	OrderInPreparation OrderStatus = "IN_PREPARATION"
	OrderFinished      OrderStatus = "FINISHED"
	OrderServed        OrderStatus = "SERVED"
)

// DishStatus is the lifecycle status of a single dish line within an order.
type DishStatus string

const (
	DishCreated       DishStatus = "CREATED"
	DishConfirmed     DishStatus = "CONFIRMED"
	DishInPreparation DishStatus = "IN_PREPARATION"
	DishFinished      DishStatus = "FINISHED"
	DishServed        DishStatus = "SERVED"
)

// StatusValue is the constraint for status enums tracked by a StatusLedger.
type StatusValue interface {
	~string
}

// StatusEntry is one row of a subject's status history. Entries are
// append-only: they are never edited or removed. Seq is assigned on append
// and grows monotonically per subject, so "current status" is deterministic
// even when two entries share a timestamp.
type StatusEntry[S StatusValue] struct {
	Status S
	Seq    int
	At     time.Time
}

// TransitionTable lists the legal next statuses for one subject kind.
// Initial is the only status an empty history accepts.
type TransitionTable[S StatusValue] struct {
	Initial S
	Allowed map[S][]S
}

// IsLegal reports whether from -> to is permitted.
func (t TransitionTable[S]) IsLegal(from, to S) bool {
	for _, s := range t.Allowed[from] {
		if s == to {
			return true
		}
	}
	return false
}

// OrderTransitions is the order state machine: a strict forward chain with no
// skips, no backward moves and no self-loops.
var OrderTransitions = TransitionTable[OrderStatus]{
	Initial: OrderCreated,
	Allowed: map[OrderStatus][]OrderStatus{
		OrderCreated:       {OrderConfirmed},
		OrderConfirmed:     {OrderInPreparation},
		OrderInPreparation: {OrderFinished},
		OrderFinished:      {OrderServed},
		OrderServed:        {},
	},
}

// DishTransitions mirrors OrderTransitions for dish lines.
var DishTransitions = TransitionTable[DishStatus]{
	Initial: DishCreated,
	Allowed: map[DishStatus][]DishStatus{
		DishCreated:       {DishConfirmed},
		DishConfirmed:     {DishInPreparation},
		DishInPreparation: {DishFinished},
		DishFinished:      {DishServed},
		DishServed:        {},
	},
}

// StatusLedger is the append-only status history of a single subject.
// It assumes single-writer-at-a-time semantics: concurrent appends for the
// same subject must be serialized by the caller.
type StatusLedger[S StatusValue] struct {
	table     TransitionTable[S]
	entries   []StatusEntry[S]
	persisted int
}

// NewStatusLedger returns an empty ledger governed by table.
func NewStatusLedger[S StatusValue](table TransitionTable[S]) StatusLedger[S] {
	return StatusLedger[S]{table: table}
}

// RestoreStatusLedger rebuilds a ledger from entries already stored by a
// collaborator. Entries must be in append order.
func RestoreStatusLedger[S StatusValue](table TransitionTable[S], entries []StatusEntry[S]) StatusLedger[S] {
	return StatusLedger[S]{table: table, entries: entries, persisted: len(entries)}
}

// Current returns the status of the latest entry (highest Seq), or the
// table's initial status when the history is empty.
func (l *StatusLedger[S]) Current() S {
	if len(l.entries) == 0 {
		return l.table.Initial
	}
	latest := l.entries[0]
	for _, e := range l.entries[1:] {
		if e.Seq >= latest.Seq {
			latest = e
		}
	}
	return latest.Status
}

// Len returns the number of entries in the history.
func (l *StatusLedger[S]) Len() int {
	return len(l.entries)
}

// Entries returns a copy of the full history.
func (l *StatusLedger[S]) Entries() []StatusEntry[S] {
	out := make([]StatusEntry[S], len(l.entries))
	copy(out, l.entries)
	return out
}

// Append records a transition to status at the given time. An empty history
// only accepts the initial status; any other pair must be permitted by the
// transition table. On failure the history is left untouched.
func (l *StatusLedger[S]) Append(status S, now time.Time) (S, error) {
	if len(l.entries) == 0 {
		if status != l.table.Initial {
			return status, fmt.Errorf("%w: empty history only accepts %s, got %s",
				ErrInvalidTransition, l.table.Initial, status)
		}
	} else if current := l.Current(); !l.table.IsLegal(current, status) {
		return current, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, status)
	}

	seq := 0
	if n := len(l.entries); n > 0 {
		seq = l.entries[n-1].Seq + 1
	}
	l.entries = append(l.entries, StatusEntry[S]{Status: status, Seq: seq, At: now})
	return status, nil
}

// Pending returns the entries appended since the last MarkPersisted call,
// i.e. the rows a repository still has to store.
func (l *StatusLedger[S]) Pending() []StatusEntry[S] {
	out := make([]StatusEntry[S], len(l.entries)-l.persisted)
	copy(out, l.entries[l.persisted:])
	return out
}

// MarkPersisted acknowledges that all current entries have been stored.
func (l *StatusLedger[S]) MarkPersisted() {
	l.persisted = len(l.entries)
}
