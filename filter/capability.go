package filter

import (
	"github.com/lattice-works/lattice/types"
)

// CapabilityView resolves a capability tag to the component types that
// declared it. The component registry implements it.
type CapabilityView interface {
	ComponentsWithCapability(capability types.Capability) []types.ComponentMetadata
}

type hasCapability struct {
	names map[string]bool
}

// HasCapability matches entities holding at least one component whose type
// declared the given capability tag. The tag is resolved to concrete types
// once, when the filter is built, against the registration-time capability
// index.
func HasCapability(view CapabilityView, capability types.Capability) ComponentFilter {
	names := make(map[string]bool)
	for _, comp := range view.ComponentsWithCapability(capability) {
		names[comp.Name()] = true
	}
	return &hasCapability{names: names}
}

func (f *hasCapability) MatchesComponents(components []types.Component) bool {
	for _, c := range components {
		if f.names[c.Name()] {
			return true
		}
	}
	return false
}
