package filter

import (
	"github.com/lattice-works/lattice/types"
)

type exact struct {
	components []types.Component
}

// Exact matches entities that contain exactly the components specified,
// no more, no fewer.
func Exact(componentWrappers ...ComponentWrapper) ComponentFilter {
	components := make([]types.Component, len(componentWrappers))
	for i, wrapper := range componentWrappers {
		components[i] = wrapper.Component
	}
	return &exact{components: components}
}

func (f *exact) MatchesComponents(components []types.Component) bool {
	if len(components) != len(f.components) {
		return false
	}
	for _, componentType := range f.components {
		if !MatchComponent(components, componentType) {
			return false
		}
	}
	return true
}
