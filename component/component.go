package component

import (
	"reflect"

	"github.com/rotisserie/eris"
	"github.com/wI2L/jsondiff"

	"github.com/lattice-works/lattice/codec"
	"github.com/lattice-works/lattice/types"
)

// Interface guard
var _ types.ComponentMetadata = (*componentMetadata[types.Component])(nil)

// Option is a type that can be passed to NewComponentMetadata to augment the
// creation of the component type.
type Option[T types.Component] func(c *componentMetadata[T])

// componentMetadata represents a type of component. It is used to identify
// a component when getting or setting the component of an entity.
type componentMetadata[T types.Component] struct {
	isIDSet      bool
	id           types.ComponentID
	compType     reflect.Type
	name         string
	schema       []byte
	defaultVal   types.Component
	networkID    types.NetworkID
	isNetworked  bool
	capabilities []types.Capability
}

// NewComponentMetadata creates a new component type. If the component struct
// implements types.Networked or types.CapabilityHaver, the declared network id
// and capability tags are captured here; options may override or extend them.
func NewComponentMetadata[T types.Component](opts ...Option[T]) (
	types.ComponentMetadata, error,
) {
	var t T
	compType := reflect.TypeOf(t)

	schema, err := types.SerializeComponentSchema(t)
	if err != nil {
		return nil, err
	}

	compMetadata := &componentMetadata[T]{
		compType: compType,
		name:     t.Name(),
		schema:   schema,
	}
	if networked, ok := any(t).(types.Networked); ok {
		compMetadata.networkID = networked.NetworkID()
		compMetadata.isNetworked = true
	}
	if haver, ok := any(t).(types.CapabilityHaver); ok {
		compMetadata.capabilities = append(compMetadata.capabilities, haver.Capabilities()...)
	}
	for _, opt := range opts {
		opt(compMetadata)
	}

	return compMetadata, nil
}

// WithDefault sets the value new instances of this component are created with.
func WithDefault[T types.Component](defaultVal T) Option[T] {
	return func(c *componentMetadata[T]) {
		c.defaultVal = defaultVal
	}
}

// WithNetworkID declares the stable network identifier for this component
// type. It takes precedence over a types.Networked declaration on the struct.
func WithNetworkID[T types.Component](id types.NetworkID) Option[T] {
	return func(c *componentMetadata[T]) {
		c.networkID = id
		c.isNetworked = true
	}
}

// WithCapabilities adds capability tags on top of any declared by the struct
// itself.
func WithCapabilities[T types.Component](caps ...types.Capability) Option[T] {
	return func(c *componentMetadata[T]) {
		c.capabilities = append(c.capabilities, caps...)
	}
}

func (c *componentMetadata[T]) GetSchema() []byte {
	return c.schema
}

// SetID sets this component's ID. It must be unique across the engine.
func (c *componentMetadata[T]) SetID(id types.ComponentID) error {
	if c.isIDSet {
		// Components are initialized one time on startup. In tests, it's often
		// useful to use the same component in multiple engines, so
		// re-initialization is allowed as long as the ID doesn't change.
		if id == c.id {
			return nil
		}
		return eris.Errorf("id for component %v is already set to %v, cannot change to %v", c, c.id, id)
	}
	c.id = id
	c.isIDSet = true
	return nil
}

// String returns the component type name.
func (c *componentMetadata[T]) String() string {
	return c.name
}

// Name returns the component type name.
func (c *componentMetadata[T]) Name() string {
	return c.name
}

// ID returns the component type id.
func (c *componentMetadata[T]) ID() types.ComponentID {
	return c.id
}

func (c *componentMetadata[T]) NetworkID() (types.NetworkID, bool) {
	return c.networkID, c.isNetworked
}

func (c *componentMetadata[T]) Capabilities() []types.Capability {
	return c.capabilities
}

func (c *componentMetadata[T]) New() (types.Component, error) {
	if c.defaultVal != nil {
		bz, err := codec.Encode(c.defaultVal)
		if err != nil {
			return nil, err
		}
		return codec.Decode[T](bz)
	}
	var zero T
	return zero, nil
}

func (c *componentMetadata[T]) Encode(v any) ([]byte, error) {
	return codec.Encode(v)
}

func (c *componentMetadata[T]) Decode(bz []byte) (types.Component, error) {
	return codec.Decode[T](bz)
}

func (c *componentMetadata[T]) ValidateAgainstSchema(targetSchema []byte) error {
	diff, err := jsondiff.CompareJSON(c.schema, targetSchema)
	if err != nil {
		return eris.Wrap(err, "failed to compare component schema")
	}

	if diff.String() != "" {
		return eris.Wrap(types.ErrComponentSchemaMismatch, diff.String())
	}

	return nil
}
