package state

import (
	"github.com/rotisserie/eris"

	"github.com/lattice-works/lattice/types"
)

// phase tracks the liveness of a component instance. Transitions only move
// forward: alive -> pendingRemoval -> culled, or alive -> culled when an
// instance is displaced by an overwriting attach or purged by entity release.
type phase int

const (
	phaseAlive phase = iota
	phasePendingRemoval
	phaseCulled
)

// compKey is a tuple of a component ComponentID and an entity EntityID. It is
// used as a map key to keep track of component data in-memory.
type compKey struct {
	typeID   types.ComponentID
	entityID types.EntityID
}

// record is a component instance attached to an entity. The owner never
// changes after creation; only the phase and (via overwrite) the stored value
// do.
type record struct {
	meta  types.ComponentMetadata
	owner types.EntityID
	value types.Component
	phase phase
}

func (r *record) key() compKey {
	return compKey{typeID: r.meta.ID(), entityID: r.owner}
}

// bucket keeps a set of ids in insertion order.
type bucket[T comparable] struct {
	ids []T
}

func newBucket[T comparable]() *bucket[T] {
	return &bucket[T]{}
}

func (b *bucket[T]) add(id T) {
	b.ids = append(b.ids, id)
}

// remove splices the given id out of the bucket, preserving the order of the
// remaining ids.
func (b *bucket[T]) remove(idToRemove T) error {
	indexOfID := -1
	for i, id := range b.ids {
		if idToRemove == id {
			indexOfID = i
			break
		}
	}
	if indexOfID == -1 {
		return eris.Errorf("cannot find id %v", idToRemove)
	}
	b.ids = append(b.ids[:indexOfID], b.ids[indexOfID+1:]...)
	return nil
}

// snapshot returns a copy of the ids, safe to hold across mutations.
func (b *bucket[T]) snapshot() []T {
	out := make([]T, len(b.ids))
	copy(out, b.ids)
	return out
}

func (b *bucket[T]) len() int {
	return len(b.ids)
}
