package state

import (
	"github.com/lattice-works/lattice/types"
)

// removalQueue buffers component instances marked for removal until the next
// cull point. Entries keep their identity (pointer), so an instance that was
// finalized early, by an overwriting attach or an entity release, is silently
// skipped when the queue drains.
type removalQueue struct {
	entries []*record
}

func (q *removalQueue) enqueue(rec *record) {
	q.entries = append(q.entries, rec)
}

func (q *removalQueue) drain() []*record {
	drained := q.entries
	q.entries = nil
	return drained
}

func (q *removalQueue) len() int {
	return len(q.entries)
}

// RemoveComponentFromEntity marks the component of the given type on the given
// entity for removal. The component immediately stops being visible to Get and
// Has calls and to every query, but its final detachment is deferred until the
// next Cull. Removing an absent or already-pending component is a no-op.
func (s *Store) RemoveComponentFromEntity(cType types.ComponentMetadata, id types.EntityID) error {
	rec, err := s.records.Get(compKey{cType.ID(), id})
	if err != nil || rec.phase != phaseAlive {
		return nil
	}
	rec.phase = phasePendingRemoval
	entBucket, err := s.entityTypes.Get(id)
	if err == nil {
		if err := entBucket.remove(cType.ID()); err != nil {
			return err
		}
	}
	if err := s.typeBucket(cType.ID()).remove(id); err != nil {
		return err
	}
	s.removals.enqueue(rec)
	s.log().Debug().
		Int("component_id", int(cType.ID())).
		Str("component_name", cType.Name()).
		Uint64("entity_id", uint64(id)).
		Msg("component marked for removal")
	return nil
}

// Cull drains the removal queue: every queued instance still pending removal
// is finally detached, gets its one-shot shutdown notification, and a
// ComponentShutdown event is emitted for it. Calling Cull with an empty queue
// is a no-op, and queued entries finalized by an earlier path are skipped.
func (s *Store) Cull() error {
	for _, rec := range s.removals.drain() {
		if rec.phase != phasePendingRemoval {
			continue
		}
		if err := s.finalizeRecord(rec); err != nil {
			return err
		}
	}
	return nil
}

// PendingRemovalCount returns the number of entries currently waiting for the
// next cull.
func (s *Store) PendingRemovalCount() int {
	return s.removals.len()
}
