package filter

import (
	"github.com/lattice-works/lattice/types"
)

type and struct {
	filters []ComponentFilter
}

// And matches entities that match all the given filters.
func And(filters ...ComponentFilter) ComponentFilter {
	return &and{filters: filters}
}

func (f *and) MatchesComponents(components []types.Component) bool {
	for _, filter := range f.filters {
		if !filter.MatchesComponents(components) {
			return false
		}
	}
	return true
}
