package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderTransitions_Table(t *testing.T) {
	all := []OrderStatus{OrderCreated, OrderConfirmed, OrderInPreparation, OrderFinished, OrderServed}
	legal := map[[2]OrderStatus]bool{
		{OrderCreated, OrderConfirmed}:       true,
		{OrderConfirmed, OrderInPreparation}: true,
		{OrderInPreparation, OrderFinished}:  true,
		{OrderFinished, OrderServed}:         true,
	}

	// every pair not in the happy chain is illegal, including self-loops,
	// skips and backward moves
	for _, from := range all {
		for _, to := range all {
			want := legal[[2]OrderStatus{from, to}]
			assert.Equal(t, want, OrderTransitions.IsLegal(from, to), "%s -> %s", from, to)
		}
	}
}

func TestDishTransitions_Table(t *testing.T) {
	cases := []struct {
		from, to DishStatus
		want     bool
	}{
		{DishCreated, DishConfirmed, true},
		{DishConfirmed, DishInPreparation, true},
		{DishInPreparation, DishFinished, true},
		{DishFinished, DishServed, true},
		{DishCreated, DishInPreparation, false},
		{DishConfirmed, DishConfirmed, false},
		{DishServed, DishFinished, false},
		{DishServed, DishCreated, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DishTransitions.IsLegal(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestStatusLedger_EmptyDefaultsToCreated(t *testing.T) {
	ledger := NewStatusLedger(OrderTransitions)
	assert.Equal(t, OrderCreated, ledger.Current())
	assert.Equal(t, 0, ledger.Len())
}

func TestStatusLedger_EmptyOnlyAcceptsCreated(t *testing.T) {
	ledger := NewStatusLedger(OrderTransitions)
	now := time.Now()

	_, err := ledger.Append(OrderConfirmed, now)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 0, ledger.Len(), "failed append must leave the history untouched")

	_, err = ledger.Append(OrderCreated, now)
	require.NoError(t, err)
	assert.Equal(t, OrderCreated, ledger.Current())
}

func TestStatusLedger_AppendChain(t *testing.T) {
	ledger := NewStatusLedger(OrderTransitions)
	now := time.Now()

	for _, s := range []OrderStatus{OrderCreated, OrderConfirmed, OrderInPreparation, OrderFinished, OrderServed} {
		got, err := ledger.Append(s, now)
		require.NoError(t, err)
		assert.Equal(t, s, got)
		assert.Equal(t, s, ledger.Current())
	}
	assert.Equal(t, 5, ledger.Len())

	entries := ledger.Entries()
	for i, e := range entries {
		assert.Equal(t, i, e.Seq, "sequence numbers grow monotonically")
	}
}

func TestStatusLedger_IllegalAppendLeavesLedgerUnchanged(t *testing.T) {
	ledger := NewStatusLedger(OrderTransitions)
	now := time.Now()
	ledger.Append(OrderCreated, now)
	ledger.Append(OrderConfirmed, now)

	cases := []OrderStatus{OrderCreated, OrderConfirmed, OrderFinished, OrderServed}
	for _, s := range cases {
		_, err := ledger.Append(s, now)
		require.ErrorIs(t, err, ErrInvalidTransition, "CONFIRMED -> %s", s)
		assert.Equal(t, 2, ledger.Len())
		assert.Equal(t, OrderConfirmed, ledger.Current())
	}
}

func TestStatusLedger_CurrentUsesSequenceNotTimestamp(t *testing.T) {
	// two entries sharing one instant: the later append wins
	at := time.Date(2025, 4, 12, 10, 0, 0, 0, time.UTC)
	ledger := NewStatusLedger(OrderTransitions)
	ledger.Append(OrderCreated, at)
	ledger.Append(OrderConfirmed, at)

	assert.Equal(t, OrderConfirmed, ledger.Current())
}

func TestStatusLedger_Restore(t *testing.T) {
	entries := []StatusEntry[OrderStatus]{
		{Status: OrderCreated, Seq: 0, At: time.Now().Add(-time.Hour)},
		{Status: OrderConfirmed, Seq: 1, At: time.Now()},
	}
	ledger := RestoreStatusLedger(OrderTransitions, entries)

	assert.Equal(t, OrderConfirmed, ledger.Current())
	assert.Empty(t, ledger.Pending(), "restored entries are already persisted")

	_, err := ledger.Append(OrderInPreparation, time.Now())
	require.NoError(t, err)
	require.Len(t, ledger.Pending(), 1)
	assert.Equal(t, OrderInPreparation, ledger.Pending()[0].Status)
	assert.Equal(t, 2, ledger.Pending()[0].Seq)

	ledger.MarkPersisted()
	assert.Empty(t, ledger.Pending())
}
