package events

import (
	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/lattice-works/lattice/types"
)

// Kind identifies the category of a notification emitted by the engine.
type Kind string

const (
	KindSubscriptionAdded   Kind = "subscription_added"
	KindSubscriptionRemoved Kind = "subscription_removed"
	KindComponentShutdown   Kind = "component_shutdown"
)

// Event is a notification addressed to the listeners of a specific entity.
// Delivery is synchronous and ordered: Emit returns only after every listener
// has run.
type Event interface {
	Kind() Kind
	EntityID() types.EntityID
}

// Sink accepts events emitted by the storage engine and the subscription
// ledger. Implementations must deliver synchronously.
type Sink interface {
	Emit(ev Event) error
}

// SubscriptionAdded is emitted when a subscriber starts tracking an entity.
type SubscriptionAdded struct {
	Entity     types.EntityID `json:"entity"`
	Subscriber string         `json:"subscriber"`
}

func (e SubscriptionAdded) Kind() Kind               { return KindSubscriptionAdded }
func (e SubscriptionAdded) EntityID() types.EntityID { return e.Entity }

// SubscriptionRemoved is emitted when a subscriber explicitly stops tracking
// an entity. It is never emitted for entity-shutdown cascade cleanup.
type SubscriptionRemoved struct {
	Entity     types.EntityID `json:"entity"`
	Subscriber string         `json:"subscriber"`
}

func (e SubscriptionRemoved) Kind() Kind               { return KindSubscriptionRemoved }
func (e SubscriptionRemoved) EntityID() types.EntityID { return e.Entity }

// ComponentShutdown is emitted when a component instance is finally detached
// from its entity, either at cull time or when an overwriting attach displaces
// it.
type ComponentShutdown struct {
	Entity    types.EntityID   `json:"entity"`
	Component string           `json:"component"`
	NetworkID *types.NetworkID `json:"network_id,omitempty"`
}

func (e ComponentShutdown) Kind() Kind               { return KindComponentShutdown }
func (e ComponentShutdown) EntityID() types.EntityID { return e.Entity }

// Listener is a callback registered for the events of one entity.
type Listener func(ev Event)

// Dispatcher is the default Sink. It keeps per-entity listener lists and an
// append-only log of everything emitted. Listeners for an event's entity run
// in registration order before Emit returns.
type Dispatcher struct {
	listeners map[types.EntityID][]Listener
	eventLog  *EventLog
}

var _ Sink = (*Dispatcher)(nil)

type DispatcherOption func(*Dispatcher)

// WithEventLogCapacity pre-sizes the dispatcher's event log buffer.
func WithEventLogCapacity(capacity int) DispatcherOption {
	return func(d *Dispatcher) {
		d.eventLog = NewEventLogWithCapacity(capacity)
	}
}

func NewDispatcher(opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		listeners: make(map[types.EntityID][]Listener),
		eventLog:  NewEventLog(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Listen registers a callback for all events addressed to the given entity.
func (d *Dispatcher) Listen(id types.EntityID, fn Listener) {
	d.listeners[id] = append(d.listeners[id], fn)
}

// Forget drops all listeners for the given entity.
func (d *Dispatcher) Forget(id types.EntityID) {
	delete(d.listeners, id)
}

// Emit records the event in the event log and delivers it, synchronously, to
// the listeners of the event's entity.
func (d *Dispatcher) Emit(ev Event) error {
	if ev == nil {
		return eris.New("cannot emit a nil event")
	}
	if err := d.eventLog.AddEvent(uuid.NewString(), ev); err != nil {
		return err
	}
	for _, fn := range d.listeners[ev.EntityID()] {
		fn(ev)
	}
	return nil
}

// EventLog returns the dispatcher's event log.
func (d *Dispatcher) EventLog() *EventLog {
	return d.eventLog
}
