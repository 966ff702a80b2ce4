package state

import (
	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lattice-works/lattice/events"
	ecslog "github.com/lattice-works/lattice/log"
	"github.com/lattice-works/lattice/types"
)

// Resolver is the view of the component registry the Store needs: name and
// network-id translation plus the capability tag index. The registry is
// assumed static once the Store is live.
type Resolver interface {
	GetComponentByName(name string) (types.ComponentMetadata, error)
	ResolveNetworkID(id types.ComponentID) (types.NetworkID, bool)
	ResolveType(id types.NetworkID) (types.ComponentMetadata, error)
	ComponentsWithCapability(capability types.Capability) []types.ComponentMetadata
}

// Store owns every component instance in the engine. It keeps the entity
// directory (entity -> attached component types, in attachment order), the
// component index (component type -> holding entities, in attachment order),
// and the removal queue for two-phase detachment. ComponentShutdown events go
// out through the sink at final detachment.
type Store struct {
	resolver Resolver
	sink     events.Sink
	logger   *zerolog.Logger

	records      VolatileStorage[compKey, *record]
	entityTypes  VolatileStorage[types.EntityID, *bucket[types.ComponentID]]
	typeEntities VolatileStorage[types.ComponentID, *bucket[types.EntityID]]
	removals     removalQueue

	nextEntityID uint64
}

// NewStore creates an empty store. The sink may be nil, in which case shutdown
// events are dropped.
func NewStore(resolver Resolver, sink events.Sink) *Store {
	return &Store{
		resolver:     resolver,
		sink:         sink,
		records:      NewMapStorage[compKey, *record](),
		entityTypes:  NewMapStorage[types.EntityID, *bucket[types.ComponentID]](),
		typeEntities: NewMapStorage[types.ComponentID, *bucket[types.EntityID]](),
	}
}

// SetLogger replaces the logger used for entity and component debug logs.
func (s *Store) SetLogger(logger *zerolog.Logger) {
	s.logger = logger
}

func (s *Store) log() *zerolog.Logger {
	if s.logger != nil {
		return s.logger
	}
	return &log.Logger
}

// CreateEntity allocates a fresh entity handle, registers it with the entity
// directory, and attaches a default-valued instance of each given component
// type.
func (s *Store) CreateEntity(comps ...types.ComponentMetadata) (types.EntityID, error) {
	id := types.EntityID(s.nextEntityID)
	s.nextEntityID++
	if err := s.entityTypes.Set(id, newBucket[types.ComponentID]()); err != nil {
		return 0, err
	}
	for _, comp := range comps {
		value, err := comp.New()
		if err != nil {
			return 0, err
		}
		if err := s.AttachComponent(comp, id, value, false); err != nil {
			return 0, err
		}
	}
	ecslog.Entity(s.log(), zerolog.DebugLevel, id, comps)
	return id, nil
}

// AttachComponent attaches the given component value to the given entity. If a
// live component of the same concrete type is already attached, the attach
// fails with ErrComponentAlreadyOnEntity unless overwrite is set, in which
// case the displaced instance is finally detached on the spot: it bypasses the
// removal queue, receives its shutdown notification, and a ComponentShutdown
// event is emitted for it.
//
// A nil value attaches the component type's default value.
func (s *Store) AttachComponent(
	cType types.ComponentMetadata,
	id types.EntityID,
	value types.Component,
	overwrite bool,
) error {
	entBucket, err := s.entityTypes.Get(id)
	if err != nil {
		return eris.Wrap(ErrEntityDoesNotExist, "")
	}
	if value == nil {
		value, err = cType.New()
		if err != nil {
			return err
		}
	}
	if value.Name() != cType.Name() {
		return eris.Wrap(ErrComponentMismatch, value.Name())
	}

	key := compKey{cType.ID(), id}
	fresh := &record{meta: cType, owner: id, value: value, phase: phaseAlive}

	if existing, getErr := s.records.Get(key); getErr == nil && existing.phase == phaseAlive {
		if !overwrite {
			return eris.Wrap(ErrComponentAlreadyOnEntity, cType.Name())
		}
		// The displaced instance is dropped immediately; its spot in the
		// entity and type buckets is inherited by the replacement.
		if err := s.finalizeRecord(existing); err != nil {
			return err
		}
		if err := s.records.Set(key, fresh); err != nil {
			return err
		}
		s.log().Debug().
			Int("component_id", int(cType.ID())).
			Str("component_name", cType.Name()).
			Uint64("entity_id", uint64(id)).
			Msg("component replaced")
		return nil
	}

	// A pending-removal instance of the same type may still be sitting in the
	// removal queue; it has already left both buckets and will be finalized at
	// the next cull, so the fresh instance simply takes over the record slot.
	if err := s.records.Set(key, fresh); err != nil {
		return err
	}
	entBucket.add(cType.ID())
	s.typeBucket(cType.ID()).add(id)
	s.log().Debug().
		Int("component_id", int(cType.ID())).
		Str("component_name", cType.Name()).
		Uint64("entity_id", uint64(id)).
		Msg("component attached")
	return nil
}

// GetComponentForEntity returns the live component of the given type on the
// given entity. Components that are pending removal are reported as not on the
// entity.
func (s *Store) GetComponentForEntity(
	cType types.ComponentMetadata, id types.EntityID,
) (types.Component, error) {
	if _, err := s.entityTypes.Get(id); err != nil {
		return nil, eris.Wrap(ErrEntityDoesNotExist, "")
	}
	rec, err := s.records.Get(compKey{cType.ID(), id})
	if err != nil || rec.phase != phaseAlive {
		return nil, eris.Wrap(ErrComponentNotOnEntity, cType.Name())
	}
	return rec.value, nil
}

// TryGetComponentForEntity is the non-failing variant of
// GetComponentForEntity.
func (s *Store) TryGetComponentForEntity(
	cType types.ComponentMetadata, id types.EntityID,
) (types.Component, bool) {
	rec, err := s.records.Get(compKey{cType.ID(), id})
	if err != nil || rec.phase != phaseAlive {
		return nil, false
	}
	return rec.value, true
}

// GetComponentByNetworkID resolves the network id to a component type and then
// behaves as GetComponentForEntity.
func (s *Store) GetComponentByNetworkID(
	id types.EntityID, networkID types.NetworkID,
) (types.Component, error) {
	cType, err := s.resolver.ResolveType(networkID)
	if err != nil {
		return nil, err
	}
	return s.GetComponentForEntity(cType, id)
}

// HasComponent returns true iff a live component of the given type is attached
// to the entity. Pending-removal components answer false.
func (s *Store) HasComponent(id types.EntityID, cType types.ComponentMetadata) bool {
	rec, err := s.records.Get(compKey{cType.ID(), id})
	return err == nil && rec.phase == phaseAlive
}

// HasComponentByNetworkID resolves the network id first and fails for an
// unregistered id; otherwise it behaves as HasComponent.
func (s *Store) HasComponentByNetworkID(
	id types.EntityID, networkID types.NetworkID,
) (bool, error) {
	cType, err := s.resolver.ResolveType(networkID)
	if err != nil {
		return false, err
	}
	return s.HasComponent(id, cType), nil
}

// ComponentsForEntity returns a restartable iterator over the entity's live
// components, in attachment order. Components marked for removal after the
// iterator is created are skipped.
func (s *Store) ComponentsForEntity(id types.EntityID) (*ComponentIterator, error) {
	entBucket, err := s.entityTypes.Get(id)
	if err != nil {
		return nil, eris.Wrap(ErrEntityDoesNotExist, "")
	}
	return &ComponentIterator{
		store:  s,
		entity: id,
		ids:    entBucket.snapshot(),
	}, nil
}

// ComponentsWithCapability filters ComponentsForEntity down to components
// whose type declared the given capability tag. A component type carrying
// several tags shows up once per queried tag.
func (s *Store) ComponentsWithCapability(
	id types.EntityID, capability types.Capability,
) (*ComponentIterator, error) {
	entBucket, err := s.entityTypes.Get(id)
	if err != nil {
		return nil, eris.Wrap(ErrEntityDoesNotExist, "")
	}
	return &ComponentIterator{
		store:    s,
		entity:   id,
		ids:      entBucket.snapshot(),
		allowed:  s.resolver.ComponentsWithCapability(capability),
		filtered: true,
	}, nil
}

// EntitiesWith returns an iterator over the entities holding a live component
// of the given type, in attachment order.
func (s *Store) EntitiesWith(cType types.ComponentMetadata) *EntityIterator {
	return &EntityIterator{
		store:  s,
		typeID: cType.ID(),
		ids:    s.typeBucket(cType.ID()).snapshot(),
	}
}

// ReleaseEntity is the entity-shutdown hook. All per-entity state, including
// components still waiting in the removal queue, is purged before it returns.
// Each purged instance receives its shutdown notification. Releasing an
// unknown entity is a no-op.
func (s *Store) ReleaseEntity(id types.EntityID) error {
	entBucket, err := s.entityTypes.Get(id)
	if err != nil {
		return nil
	}
	for _, typeID := range entBucket.snapshot() {
		rec, err := s.records.Get(compKey{typeID, id})
		if err != nil {
			continue
		}
		if err := s.typeBucket(typeID).remove(id); err != nil {
			return err
		}
		if err := s.finalizeRecord(rec); err != nil {
			return err
		}
	}
	// Components of this entity already marked for removal never reach the
	// next cull; finalize them now so the purge is complete on return.
	for _, rec := range s.removals.entries {
		if rec.owner == id && rec.phase == phasePendingRemoval {
			if err := s.finalizeRecord(rec); err != nil {
				return err
			}
		}
	}
	if err := s.entityTypes.Delete(id); err != nil {
		return err
	}
	s.log().Debug().Uint64("entity_id", uint64(id)).Msg("entity released")
	return nil
}

// finalizeRecord performs the final detachment of a component instance: the
// record slot is freed, the instance's shutdown callback runs, and a
// ComponentShutdown event is emitted. The phase guard guarantees all of this
// happens at most once per instance.
func (s *Store) finalizeRecord(rec *record) error {
	if rec.phase == phaseCulled {
		return nil
	}
	rec.phase = phaseCulled
	if current, err := s.records.Get(rec.key()); err == nil && current == rec {
		if err := s.records.Delete(rec.key()); err != nil {
			return err
		}
	}
	if notifiable, ok := rec.value.(types.ShutdownNotifiable); ok {
		notifiable.OnShutdown(rec.owner)
	}
	if s.sink != nil {
		ev := events.ComponentShutdown{
			Entity:    rec.owner,
			Component: rec.meta.Name(),
		}
		if nid, ok := s.resolver.ResolveNetworkID(rec.meta.ID()); ok {
			ev.NetworkID = &nid
		}
		if err := s.sink.Emit(ev); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) typeBucket(typeID types.ComponentID) *bucket[types.EntityID] {
	b, err := s.typeEntities.Get(typeID)
	if err != nil {
		b = newBucket[types.EntityID]()
		// MapStorage.Set cannot fail.
		_ = s.typeEntities.Set(typeID, b)
	}
	return b
}
