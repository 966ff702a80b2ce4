package filter

import (
	"github.com/lattice-works/lattice/types"
)

type not struct {
	filter ComponentFilter
}

// Not matches entities that do not match the given filter.
func Not(filter ComponentFilter) ComponentFilter {
	return &not{filter: filter}
}

func (f *not) MatchesComponents(components []types.Component) bool {
	return !f.filter.MatchesComponents(components)
}
