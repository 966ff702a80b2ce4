package state

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/lattice-works/lattice/types"
)

// Reader is the read-only view of the Store the query engine is built on.
type Reader interface {
	// EntityIDs returns every entity known to the directory, ascending.
	EntityIDs() []types.EntityID
	// ComponentTypesForEntity returns the types of the entity's live
	// components, in attachment order.
	ComponentTypesForEntity(id types.EntityID) ([]types.ComponentMetadata, error)
	GetComponentForEntity(cType types.ComponentMetadata, id types.EntityID) (types.Component, error)
	GetComponentByName(name string) (types.ComponentMetadata, error)
	EntitiesWith(cType types.ComponentMetadata) *EntityIterator
	// EntitiesWithPending returns live holders in attachment order followed by
	// the owners of pending-removal instances in removal order. Maintenance
	// paths only.
	EntitiesWithPending(cType types.ComponentMetadata) []types.EntityID
	// PendingComponentForEntity returns the pending-removal instance of the
	// given type on the given entity, if one is queued. Maintenance paths
	// only.
	PendingComponentForEntity(cType types.ComponentMetadata, id types.EntityID) (types.Component, bool)
}

var _ Reader = (*readOnlyStore)(nil)

type readOnlyStore struct {
	store *Store
}

// ToReadOnly returns a read-only view of the store for query code.
func (s *Store) ToReadOnly() Reader {
	return &readOnlyStore{store: s}
}

func (r *readOnlyStore) EntityIDs() []types.EntityID {
	ids, err := r.store.entityTypes.Keys()
	if err != nil {
		return nil
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (r *readOnlyStore) ComponentTypesForEntity(id types.EntityID) ([]types.ComponentMetadata, error) {
	entBucket, err := r.store.entityTypes.Get(id)
	if err != nil {
		return nil, eris.Wrap(ErrEntityDoesNotExist, "")
	}
	var comps []types.ComponentMetadata
	for _, typeID := range entBucket.snapshot() {
		rec, err := r.store.records.Get(compKey{typeID, id})
		if err != nil || rec.phase != phaseAlive {
			continue
		}
		comps = append(comps, rec.meta)
	}
	return comps, nil
}

func (r *readOnlyStore) GetComponentForEntity(
	cType types.ComponentMetadata, id types.EntityID,
) (types.Component, error) {
	return r.store.GetComponentForEntity(cType, id)
}

func (r *readOnlyStore) GetComponentByName(name string) (types.ComponentMetadata, error) {
	return r.store.resolver.GetComponentByName(name)
}

func (r *readOnlyStore) EntitiesWith(cType types.ComponentMetadata) *EntityIterator {
	return r.store.EntitiesWith(cType)
}

func (r *readOnlyStore) EntitiesWithPending(cType types.ComponentMetadata) []types.EntityID {
	ids := r.store.EntitiesWith(cType).Collect()
	for _, rec := range r.store.removals.entries {
		if rec.meta.ID() == cType.ID() && rec.phase == phasePendingRemoval {
			ids = append(ids, rec.owner)
		}
	}
	return ids
}

func (r *readOnlyStore) PendingComponentForEntity(
	cType types.ComponentMetadata, id types.EntityID,
) (types.Component, bool) {
	for _, rec := range r.store.removals.entries {
		if rec.meta.ID() == cType.ID() && rec.owner == id && rec.phase == phasePendingRemoval {
			return rec.value, true
		}
	}
	return nil, false
}
