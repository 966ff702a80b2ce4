package filter

import (
	"github.com/lattice-works/lattice/types"
)

type all struct{}

// All matches all entities.
func All() ComponentFilter {
	return &all{}
}

func (f *all) MatchesComponents(_ []types.Component) bool {
	return true
}
