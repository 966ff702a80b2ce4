package state

import (
	"github.com/rotisserie/eris"

	"github.com/lattice-works/lattice/filter"
	"github.com/lattice-works/lattice/types"
)

var ErrIteratorExhausted = eris.New("iterator exhausted")

// ComponentIterator walks the live components of one entity in attachment
// order. It is lazy: liveness is checked at each step, so components marked
// for removal mid-iteration are skipped. Reset restarts it from the beginning.
type ComponentIterator struct {
	store    *Store
	entity   types.EntityID
	ids      []types.ComponentID
	allowed  []types.ComponentMetadata
	filtered bool
	current  int
}

func (it *ComponentIterator) Reset() {
	it.current = 0
}

// HasNext returns true if there are more live components to iterate over.
func (it *ComponentIterator) HasNext() bool {
	for it.current < len(it.ids) {
		if it.visible(it.ids[it.current]) {
			return true
		}
		it.current++
	}
	return false
}

// Next returns the next live component and its metadata.
func (it *ComponentIterator) Next() (types.ComponentMetadata, types.Component, error) {
	if !it.HasNext() {
		return nil, nil, eris.Wrap(ErrIteratorExhausted, "")
	}
	rec, err := it.store.records.Get(compKey{it.ids[it.current], it.entity})
	if err != nil {
		return nil, nil, err
	}
	it.current++
	return rec.meta, rec.value, nil
}

func (it *ComponentIterator) visible(typeID types.ComponentID) bool {
	rec, err := it.store.records.Get(compKey{typeID, it.entity})
	if err != nil || rec.phase != phaseAlive {
		return false
	}
	if it.filtered && !filter.MatchComponentMetadata(it.allowed, rec.meta) {
		return false
	}
	return true
}

// EntityIterator walks the entities holding a live component of one type, in
// attachment order. Entities whose component is marked for removal
// mid-iteration are skipped.
type EntityIterator struct {
	store   *Store
	typeID  types.ComponentID
	ids     []types.EntityID
	current int
}

func (it *EntityIterator) Reset() {
	it.current = 0
}

// HasNext returns true if there are more entities to iterate over.
func (it *EntityIterator) HasNext() bool {
	for it.current < len(it.ids) {
		rec, err := it.store.records.Get(compKey{it.typeID, it.ids[it.current]})
		if err == nil && rec.phase == phaseAlive {
			return true
		}
		it.current++
	}
	return false
}

// Next returns the next entity holding a live component of the type.
func (it *EntityIterator) Next() (types.EntityID, error) {
	if !it.HasNext() {
		return 0, eris.Wrap(ErrIteratorExhausted, "")
	}
	id := it.ids[it.current]
	it.current++
	return id, nil
}

// Collect drains the iterator into a slice.
func (it *EntityIterator) Collect() []types.EntityID {
	var out []types.EntityID
	for it.HasNext() {
		id, err := it.Next()
		if err != nil {
			break
		}
		out = append(out, id)
	}
	return out
}
