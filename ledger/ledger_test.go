package ledger_test

import (
	"testing"

	"github.com/lattice-works/lattice/assert"
	"github.com/lattice-works/lattice/events"
	"github.com/lattice-works/lattice/ledger"
	"github.com/lattice-works/lattice/types"
)

type recordingSink struct {
	emitted []events.Event
}

func (s *recordingSink) Emit(ev events.Event) error {
	s.emitted = append(s.emitted, ev)
	return nil
}

func (s *recordingSink) countOf(kind events.Kind) int {
	count := 0
	for _, ev := range s.emitted {
		if ev.Kind() == kind {
			count++
		}
	}
	return count
}

func TestSubscribeIsIdempotent(t *testing.T) {
	sink := &recordingSink{}
	l := ledger.NewLedger(sink)
	subscriber := ledger.NewSubscriberID()

	assert.NilError(t, l.Subscribe(1, subscriber))
	assert.NilError(t, l.Subscribe(1, subscriber))

	assert.Len(t, l.Subscribers(1), 1)
	assert.DeepEqual(t, []types.EntityID{1}, l.WatchedEntities(subscriber))
	assert.Equal(t, 1, sink.countOf(events.KindSubscriptionAdded))
}

func TestUnsubscribeIsNoopWhenNotSubscribed(t *testing.T) {
	sink := &recordingSink{}
	l := ledger.NewLedger(sink)

	assert.NilError(t, l.Unsubscribe(1, ledger.NewSubscriberID()))
	assert.Len(t, sink.emitted, 0)
}

func TestUnsubscribeClearsBothSidesAndNotifies(t *testing.T) {
	sink := &recordingSink{}
	l := ledger.NewLedger(sink)
	subscriber := ledger.NewSubscriberID()

	assert.NilError(t, l.Subscribe(1, subscriber))
	assert.NilError(t, l.Subscribe(2, subscriber))
	assert.NilError(t, l.Unsubscribe(1, subscriber))

	assert.False(t, l.IsSubscribed(1, subscriber))
	assert.Len(t, l.Subscribers(1), 0)
	assert.DeepEqual(t, []types.EntityID{2}, l.WatchedEntities(subscriber))
	assert.Equal(t, 1, sink.countOf(events.KindSubscriptionRemoved))

	removed, ok := sink.emitted[len(sink.emitted)-1].(events.SubscriptionRemoved)
	assert.True(t, ok)
	assert.Equal(t, types.EntityID(1), removed.Entity)
	assert.Equal(t, string(subscriber), removed.Subscriber)
}

func TestEntityShutdownCascadeSuppressesNotifications(t *testing.T) {
	sink := &recordingSink{}
	l := ledger.NewLedger(sink)
	s1 := ledger.NewSubscriberID()
	s2 := ledger.NewSubscriberID()

	assert.NilError(t, l.Subscribe(1, s1))
	assert.NilError(t, l.Subscribe(1, s2))
	assert.NilError(t, l.Subscribe(2, s1))

	l.HandleEntityShutdown(1)

	// Both subscribers have their side of the bookkeeping cleared, without
	// any removal notification.
	assert.Len(t, l.Subscribers(1), 0)
	assert.DeepEqual(t, []types.EntityID{2}, l.WatchedEntities(s1))
	assert.Len(t, l.WatchedEntities(s2), 0)
	assert.Equal(t, 0, sink.countOf(events.KindSubscriptionRemoved))

	// Unrelated subscriptions survive the cascade.
	assert.True(t, l.IsSubscribed(2, s1))
}

func TestShutdownOfUnknownEntityIsNoop(t *testing.T) {
	sink := &recordingSink{}
	l := ledger.NewLedger(sink)
	l.HandleEntityShutdown(42)
	assert.Len(t, sink.emitted, 0)
}

func TestLedgerWorksWithoutSink(t *testing.T) {
	l := ledger.NewLedger(nil)
	subscriber := ledger.NewSubscriberID()
	assert.NilError(t, l.Subscribe(1, subscriber))
	assert.NilError(t, l.Unsubscribe(1, subscriber))
}
