package search

import (
	"github.com/rotisserie/eris"

	"github.com/lattice-works/lattice/filter"
	"github.com/lattice-works/lattice/state"
	"github.com/lattice-works/lattice/types"
)

var ErrNoEntitiesFound = eris.New("no entities match the search")

type CallbackFn func(id types.EntityID) bool

// Search represents a search for entities. It is used to filter entities based
// on their live components; entities whose matching components are pending
// removal never surface. Search is read-only over a state.Reader.
type Search struct {
	filter filter.ComponentFilter
	reader state.Reader
}

// New creates a new search over the given read-only view with the given
// component filter.
func New(reader state.Reader, componentFilter filter.ComponentFilter) *Search {
	return &Search{
		filter: componentFilter,
		reader: reader,
	}
}

// Each iterates over all entities that match the search. If you would like to
// stop the iteration, return false from the callback. To continue iterating,
// return true.
func (s *Search) Each(callback CallbackFn) error {
	for _, id := range s.reader.EntityIDs() {
		match, err := s.matches(id)
		if err != nil {
			return err
		}
		if !match {
			continue
		}
		if !callback(id) {
			return nil
		}
	}
	return nil
}

// Count returns the number of entities that match the search.
func (s *Search) Count() (int, error) {
	count := 0
	err := s.Each(func(types.EntityID) bool {
		count++
		return true
	})
	return count, err
}

// First returns the first entity that matches the search.
func (s *Search) First() (types.EntityID, error) {
	found := false
	var first types.EntityID
	err := s.Each(func(id types.EntityID) bool {
		first = id
		found = true
		return false
	})
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, eris.Wrap(ErrNoEntitiesFound, "")
	}
	return first, nil
}

// MustFirst returns the first entity that matches the search, panicking when
// there is none.
func (s *Search) MustFirst() types.EntityID {
	id, err := s.First()
	if err != nil {
		panic("no entity matches the search")
	}
	return id
}

// Collect returns every matching entity, in ascending entity order.
func (s *Search) Collect() ([]types.EntityID, error) {
	var ids []types.EntityID
	err := s.Each(func(id types.EntityID) bool {
		ids = append(ids, id)
		return true
	})
	return ids, err
}

func (s *Search) matches(id types.EntityID) (bool, error) {
	comps, err := s.reader.ComponentTypesForEntity(id)
	if err != nil {
		return false, err
	}
	return s.filter.MatchesComponents(types.ConvertComponentMetadatasToComponents(comps)), nil
}
