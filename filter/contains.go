package filter

import (
	"github.com/lattice-works/lattice/types"
)

type contains struct {
	components []types.Component
}

// Contains matches entities that contain all the components specified.
func Contains(componentWrappers ...ComponentWrapper) ComponentFilter {
	components := make([]types.Component, len(componentWrappers))
	for i, wrapper := range componentWrappers {
		components[i] = wrapper.Component
	}
	return &contains{components: components}
}

func (f *contains) MatchesComponents(components []types.Component) bool {
	for _, componentType := range f.components {
		if !MatchComponent(components, componentType) {
			return false
		}
	}
	return true
}
