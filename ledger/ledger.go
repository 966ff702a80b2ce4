// Package ledger tracks which external observers subscribe to which entities'
// perspectives. Bookkeeping is bidirectional: the entity side and the
// subscriber side are both plain identifier indexes, so either side can be
// torn down independently. The ledger never owns component or entity state.
package ledger

import (
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lattice-works/lattice/events"
	"github.com/lattice-works/lattice/types"
)

// SubscriberID identifies an external observer. It is opaque to the ledger.
type SubscriberID string

// NewSubscriberID mints a fresh unique subscriber identity.
func NewSubscriberID() SubscriberID {
	return SubscriberID(uuid.NewString())
}

// Ledger is the per-entity subscription ledger. Subscribe and Unsubscribe are
// idempotent; entity shutdown cascades over all subscribers of the entity
// without emitting removal notifications.
type Ledger struct {
	sink   events.Sink
	logger *zerolog.Logger

	// both sides of each (entity, subscriber) pair, mirrored
	entitySubscribers  map[types.EntityID]map[SubscriberID]struct{}
	subscriberEntities map[SubscriberID]map[types.EntityID]struct{}
}

// NewLedger creates an empty ledger. The sink may be nil, in which case
// subscription notifications are dropped.
func NewLedger(sink events.Sink) *Ledger {
	return &Ledger{
		sink:               sink,
		entitySubscribers:  make(map[types.EntityID]map[SubscriberID]struct{}),
		subscriberEntities: make(map[SubscriberID]map[types.EntityID]struct{}),
	}
}

// SetLogger replaces the logger used for subscription debug logs.
func (l *Ledger) SetLogger(logger *zerolog.Logger) {
	l.logger = logger
}

func (l *Ledger) log() *zerolog.Logger {
	if l.logger != nil {
		return l.logger
	}
	return &log.Logger
}

// Subscribe records that the subscriber tracks the entity and emits a
// SubscriptionAdded notification to the entity's listeners. Subscribing an
// already-subscribed pair is a no-op with no side effects.
func (l *Ledger) Subscribe(id types.EntityID, subscriber SubscriberID) error {
	if l.IsSubscribed(id, subscriber) {
		return nil
	}
	if l.entitySubscribers[id] == nil {
		l.entitySubscribers[id] = make(map[SubscriberID]struct{})
	}
	l.entitySubscribers[id][subscriber] = struct{}{}
	if l.subscriberEntities[subscriber] == nil {
		l.subscriberEntities[subscriber] = make(map[types.EntityID]struct{})
	}
	l.subscriberEntities[subscriber][id] = struct{}{}
	l.log().Debug().
		Uint64("entity_id", uint64(id)).
		Str("subscriber", string(subscriber)).
		Msg("subscription added")
	return l.emit(events.SubscriptionAdded{Entity: id, Subscriber: string(subscriber)})
}

// Unsubscribe removes both sides of the pair's bookkeeping and emits a
// SubscriptionRemoved notification. Unsubscribing a pair that is not
// subscribed is a no-op with no side effects.
func (l *Ledger) Unsubscribe(id types.EntityID, subscriber SubscriberID) error {
	if !l.IsSubscribed(id, subscriber) {
		return nil
	}
	l.removePair(id, subscriber)
	l.log().Debug().
		Uint64("entity_id", uint64(id)).
		Str("subscriber", string(subscriber)).
		Msg("subscription removed")
	return l.emit(events.SubscriptionRemoved{Entity: id, Subscriber: string(subscriber)})
}

// HandleEntityShutdown is the entity-destruction hook. Every subscriber of the
// entity has its subscriber-side bookkeeping cleared. No SubscriptionRemoved
// notifications are emitted for this cascade cleanup.
func (l *Ledger) HandleEntityShutdown(id types.EntityID) {
	// Snapshot before mutating: removePair edits the set being ranged over.
	subscribers := l.Subscribers(id)
	for _, subscriber := range subscribers {
		l.removePair(id, subscriber)
	}
	l.log().Debug().
		Uint64("entity_id", uint64(id)).
		Int("subscribers_cleared", len(subscribers)).
		Msg("subscriptions cleared on entity shutdown")
}

// IsSubscribed reports whether the pair is currently subscribed.
func (l *Ledger) IsSubscribed(id types.EntityID, subscriber SubscriberID) bool {
	subs, ok := l.entitySubscribers[id]
	if !ok {
		return false
	}
	_, ok = subs[subscriber]
	return ok
}

// Subscribers returns the subscribers currently tracking the entity, sorted.
func (l *Ledger) Subscribers(id types.EntityID) []SubscriberID {
	subs := make([]SubscriberID, 0, len(l.entitySubscribers[id]))
	for subscriber := range l.entitySubscribers[id] {
		subs = append(subs, subscriber)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i] < subs[j] })
	return subs
}

// WatchedEntities returns the entities the subscriber currently tracks,
// ascending.
func (l *Ledger) WatchedEntities(subscriber SubscriberID) []types.EntityID {
	ids := make([]types.EntityID, 0, len(l.subscriberEntities[subscriber]))
	for id := range l.subscriberEntities[subscriber] {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (l *Ledger) removePair(id types.EntityID, subscriber SubscriberID) {
	delete(l.entitySubscribers[id], subscriber)
	if len(l.entitySubscribers[id]) == 0 {
		delete(l.entitySubscribers, id)
	}
	delete(l.subscriberEntities[subscriber], id)
	if len(l.subscriberEntities[subscriber]) == 0 {
		delete(l.subscriberEntities, subscriber)
	}
}

func (l *Ledger) emit(ev events.Event) error {
	if l.sink == nil {
		return nil
	}
	return l.sink.Emit(ev)
}
