// Package lattice is the entity-component storage and query engine underlying
// a simulation runtime. The Engine ties together the component registry, the
// component store with its deferred removal queue, the per-entity notification
// dispatcher, and the view-subscription ledger.
package lattice

import (
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/lattice-works/lattice/component"
	"github.com/lattice-works/lattice/events"
	"github.com/lattice-works/lattice/filter"
	"github.com/lattice-works/lattice/ledger"
	ecslog "github.com/lattice-works/lattice/log"
	"github.com/lattice-works/lattice/search"
	"github.com/lattice-works/lattice/state"
	"github.com/lattice-works/lattice/types"
)

// Engine owns all per-world storage state. It is single-threaded: every
// mutation is expected to run on one logical simulation goroutine per tick.
type Engine struct {
	cfg        Config
	logger     zerolog.Logger
	registry   *component.Manager
	store      *state.Store
	dispatcher *events.Dispatcher
	ledger     *ledger.Ledger
}

type Option func(*Engine)

// WithConfig overrides the environment-loaded config.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithLogger overrides the logger the engine and its sub-systems log through.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates an empty engine. Component types must be registered before
// entities can carry them.
func NewEngine(opts ...Option) (*Engine, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, eris.Wrap(err, "failed to load config from environment")
	}
	e := &Engine{
		cfg:    cfg,
		logger: zlog.Logger,
	}
	for _, opt := range opts {
		opt(e)
	}

	level, err := zerolog.ParseLevel(e.cfg.LatticeLogLevel)
	if err != nil {
		return nil, eris.Wrapf(err, "invalid log level %q", e.cfg.LatticeLogLevel)
	}
	e.logger = e.logger.Level(level)

	e.registry = component.NewManager(nil)
	e.dispatcher = events.NewDispatcher(
		events.WithEventLogCapacity(e.cfg.LatticeEventLogCapacity),
	)
	e.store = state.NewStore(e.registry, e.dispatcher)
	e.store.SetLogger(&e.logger)
	e.ledger = ledger.NewLedger(e.dispatcher)
	e.ledger.SetLogger(&e.logger)
	return e, nil
}

// RegisterComponent registers a component type with the engine's registry.
func (e *Engine) RegisterComponent(compMetadata types.ComponentMetadata) error {
	if err := e.registry.RegisterComponent(compMetadata); err != nil {
		return err
	}
	ecslog.Components(&e.logger, e, zerolog.DebugLevel)
	return nil
}

// RegisteredComponents returns the metadata of all registered component types.
func (e *Engine) RegisteredComponents() []types.ComponentMetadata {
	return e.registry.GetComponents()
}

// CreateEntity allocates a fresh entity carrying default-valued instances of
// the given component types.
func (e *Engine) CreateEntity(comps ...types.ComponentMetadata) (types.EntityID, error) {
	return e.store.CreateEntity(comps...)
}

// DestroyEntity runs the entity-shutdown hooks: subscription cascade cleanup
// first, then the purge of all component state, then listener teardown. All
// per-entity state is gone by the time it returns.
func (e *Engine) DestroyEntity(id types.EntityID) error {
	e.ledger.HandleEntityShutdown(id)
	if err := e.store.ReleaseEntity(id); err != nil {
		return err
	}
	e.dispatcher.Forget(id)
	return nil
}

// Cull finally detaches every component marked for removal since the last
// cull.
func (e *Engine) Cull() error {
	return e.store.Cull()
}

// Subscribe records that the subscriber tracks the entity's perspective.
func (e *Engine) Subscribe(id types.EntityID, subscriber ledger.SubscriberID) error {
	return e.ledger.Subscribe(id, subscriber)
}

// Unsubscribe stops the subscriber from tracking the entity's perspective.
func (e *Engine) Unsubscribe(id types.EntityID, subscriber ledger.SubscriberID) error {
	return e.ledger.Unsubscribe(id, subscriber)
}

// NewSearch creates a query over the engine's live components with the given
// filter.
func (e *Engine) NewSearch(componentFilter filter.ComponentFilter) *search.Search {
	return search.New(e.store.ToReadOnly(), componentFilter)
}

// Store exposes the underlying component store.
func (e *Engine) Store() *state.Store {
	return e.store
}

// StoreReader exposes the read-only view of the component store.
func (e *Engine) StoreReader() state.Reader {
	return e.store.ToReadOnly()
}

// Registry exposes the component registry.
func (e *Engine) Registry() *component.Manager {
	return e.registry
}

// Ledger exposes the subscription ledger.
func (e *Engine) Ledger() *ledger.Ledger {
	return e.ledger
}

// Events exposes the engine's notification dispatcher.
func (e *Engine) Events() *events.Dispatcher {
	return e.dispatcher
}

// Logger returns the engine's logger.
func (e *Engine) Logger() *zerolog.Logger {
	return &e.logger
}

// GetComponent returns component type T on the given entity.
func GetComponent[T types.Component](e *Engine, id types.EntityID) (comp T, err error) {
	var t T
	cType, err := e.registry.GetComponentByName(t.Name())
	if err != nil {
		return comp, err
	}
	value, err := e.store.GetComponentForEntity(cType, id)
	if err != nil {
		return comp, err
	}
	comp, ok := value.(T)
	if !ok {
		return comp, eris.Errorf("component %q has unexpected value type %T", t.Name(), value)
	}
	return comp, nil
}

// AddComponentTo attaches the given value of component type T to the entity.
// It fails with state.ErrComponentAlreadyOnEntity when a live T is already
// attached.
func AddComponentTo[T types.Component](e *Engine, id types.EntityID, value T) error {
	cType, err := e.registry.GetComponentByName(value.Name())
	if err != nil {
		return err
	}
	return e.store.AttachComponent(cType, id, value, false)
}

// SetComponent attaches the given value of component type T to the entity,
// displacing any live T already attached.
func SetComponent[T types.Component](e *Engine, id types.EntityID, value T) error {
	cType, err := e.registry.GetComponentByName(value.Name())
	if err != nil {
		return err
	}
	return e.store.AttachComponent(cType, id, value, true)
}

// RemoveComponentFrom marks component type T on the entity for removal at the
// next cull.
func RemoveComponentFrom[T types.Component](e *Engine, id types.EntityID) error {
	var t T
	cType, err := e.registry.GetComponentByName(t.Name())
	if err != nil {
		return err
	}
	return e.store.RemoveComponentFromEntity(cType, id)
}

// HasComponent reports whether a live component of type T is attached to the
// entity.
func HasComponent[T types.Component](e *Engine, id types.EntityID) (bool, error) {
	var t T
	cType, err := e.registry.GetComponentByName(t.Name())
	if err != nil {
		return false, err
	}
	return e.store.HasComponent(id, cType), nil
}
