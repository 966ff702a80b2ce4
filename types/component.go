package types

import (
	"github.com/invopop/jsonschema"
	"github.com/rotisserie/eris"
)

// ComponentID is the in-process identifier for a component type. It is
// assigned sequentially at registration time and is not stable across
// processes; use NetworkID for cross-boundary addressing.
type ComponentID int

// NetworkID is the stable identifier for a networked component type. Not all
// component types are networked.
type NetworkID int

// Capability is a named trait a component type declares support for.
// Capability queries are resolved through an index built at registration time,
// never through runtime type inspection.
type Capability string

var ErrComponentSchemaMismatch = eris.New("component schema does not match target schema")

// Component is the interface that the user needs to implement to create a new
// component type.
type Component interface {
	// Name returns the name of the component.
	Name() string
}

// Networked is implemented by component types that carry a stable network
// identifier. The identifier is captured once, when the component type's
// metadata is built.
type Networked interface {
	Component
	NetworkID() NetworkID
}

// CapabilityHaver is implemented by component types that declare capability
// tags. The declared set is fixed at registration time.
type CapabilityHaver interface {
	Component
	Capabilities() []Capability
}

// ShutdownNotifiable is implemented by component values that want a
// notification when they are finally detached from their entity. OnShutdown is
// invoked exactly once per component instance, at cull time or when the
// instance is displaced by an overwriting attach.
type ShutdownNotifiable interface {
	OnShutdown(id EntityID)
}

// ComponentMetadata wraps the user-defined Component struct and provides
// functionality that is used internally in the engine.
type ComponentMetadata interface { //revive:disable-line:exported
	// SetID sets the ComponentID of this component. It must only be set once.
	SetID(ComponentID) error
	// ID returns the ComponentID of the component.
	ID() ComponentID
	// New returns a fresh instance of the component's default value.
	New() (Component, error)
	Encode(any) ([]byte, error)
	Decode([]byte) (Component, error)
	GetSchema() []byte
	ValidateAgainstSchema([]byte) error
	// NetworkID returns the stable network identifier declared for this
	// component type. ok is false for non-networked types.
	NetworkID() (id NetworkID, ok bool)
	// Capabilities returns the capability tags declared for this component
	// type. The returned slice must not be mutated.
	Capabilities() []Capability

	Component
}

// SerializeComponentSchema reflects the JSON schema of the given component
// value. Every component type's schema is derived through this function, once,
// when its metadata is built.
func SerializeComponentSchema(component Component) ([]byte, error) {
	componentSchema := jsonschema.Reflect(component)
	schema, err := componentSchema.MarshalJSON()
	if err != nil {
		return nil, eris.Wrap(err, "component must be json serializable")
	}
	return schema, nil
}

// ConvertComponentMetadatasToComponents casts a slice of ComponentMetadata
// into a slice of Component.
func ConvertComponentMetadatasToComponents(comps []ComponentMetadata) []Component {
	ret := make([]Component, len(comps))
	for i, comp := range comps {
		ret[i] = comp
	}
	return ret
}
