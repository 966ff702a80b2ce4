package component

import (
	"fmt"
	"sort"

	"github.com/rotisserie/eris"

	"github.com/lattice-works/lattice/types"
)

var (
	ErrComponentNotRegistered = eris.New("component not registered")
	ErrUnknownNetworkID       = eris.New("unknown network id")
	ErrNoSchemaFound          = eris.New("no schema found")
)

// Manager is the component registry. It owns the name -> metadata mapping, the
// sequential assignment of component IDs, the bidirectional network-id <-> type
// translation for networked component types, and the capability tag index used
// by polymorphic queries. All of this is fixed once registration completes; the
// storage engine only reads from it.
type Manager struct {
	registeredComponents map[string]types.ComponentMetadata
	componentsByID       map[types.ComponentID]types.ComponentMetadata
	networkIDToComponent map[types.NetworkID]types.ComponentMetadata
	capabilityIndex      map[types.Capability][]types.ComponentMetadata
	nextComponentID      types.ComponentID
	schemaStorage        SchemaStorage
}

// NewManager creates a new component manager.
func NewManager(schemaStorage SchemaStorage) *Manager {
	if schemaStorage == nil {
		schemaStorage = NewMapSchemaStorage()
	}
	return &Manager{
		registeredComponents: make(map[string]types.ComponentMetadata),
		componentsByID:       make(map[types.ComponentID]types.ComponentMetadata),
		networkIDToComponent: make(map[types.NetworkID]types.ComponentMetadata),
		capabilityIndex:      make(map[types.Capability][]types.ComponentMetadata),
		nextComponentID:      1,
		schemaStorage:        schemaStorage,
	}
}

// RegisterComponent registers a component with the component manager.
// There can only be one component with a given name, which is declared by the
// user by implementing the Name() method. If there is a duplicate component
// name or a duplicate network id, an error will be returned and the component
// will not be registered.
func (m *Manager) RegisterComponent(compMetadata types.ComponentMetadata) error {
	if err := m.isComponentNameUnique(compMetadata); err != nil {
		return err
	}
	if nid, ok := compMetadata.NetworkID(); ok {
		if existing, taken := m.networkIDToComponent[nid]; taken {
			return eris.Errorf("network id %d is already assigned to component %q", nid, existing.Name())
		}
	}

	// Try getting the schema from storage.
	// If the error is simply the schema not existing yet in storage, we can
	// safely proceed. However, if it is a different error, we need to terminate
	// and return the error.
	storedSchema, err := m.schemaStorage.GetSchema(compMetadata.Name())
	if err != nil && !eris.Is(eris.Cause(err), ErrNoSchemaFound) {
		return err
	}

	if storedSchema != nil {
		// A schema was stored for this name before (e.g. a previous engine run
		// in the same process). The shape of the component must not drift.
		if err := compMetadata.ValidateAgainstSchema(storedSchema); err != nil {
			if eris.Is(eris.Cause(err), types.ErrComponentSchemaMismatch) {
				return eris.Wrap(err,
					fmt.Sprintf("component %q does not match the schema stored in storage", compMetadata.Name()),
				)
			}
			return eris.Wrap(err, "error when validating component schema against stored schema in storage")
		}
	} else {
		if err := m.schemaStorage.SetSchema(compMetadata.Name(), compMetadata.GetSchema()); err != nil {
			return err
		}
	}

	// Set the component ID and register the component. This happens after the
	// schema checks so a rejected component leaves no index entries behind.
	if err := compMetadata.SetID(m.nextComponentID); err != nil {
		return err
	}
	m.registeredComponents[compMetadata.Name()] = compMetadata
	m.componentsByID[compMetadata.ID()] = compMetadata
	if nid, ok := compMetadata.NetworkID(); ok {
		m.networkIDToComponent[nid] = compMetadata
	}
	for _, capability := range compMetadata.Capabilities() {
		m.capabilityIndex[capability] = append(m.capabilityIndex[capability], compMetadata)
	}
	m.nextComponentID++

	return nil
}

// GetComponents returns a list of all registered components, sorted by
// component ID.
func (m *Manager) GetComponents() []types.ComponentMetadata {
	registeredComponents := make([]types.ComponentMetadata, 0, len(m.registeredComponents))
	for _, comp := range m.registeredComponents {
		registeredComponents = append(registeredComponents, comp)
	}
	sort.Slice(registeredComponents, func(i, j int) bool {
		return registeredComponents[i].ID() < registeredComponents[j].ID()
	})
	return registeredComponents
}

// GetComponentByName returns the component metadata for the given component name.
func (m *Manager) GetComponentByName(name string) (types.ComponentMetadata, error) {
	c, ok := m.registeredComponents[name]
	if !ok {
		return nil, eris.Wrap(ErrComponentNotRegistered, fmt.Sprintf("component %q is not registered", name))
	}
	return c, nil
}

// GetComponentByID returns the component metadata for the given component ID.
func (m *Manager) GetComponentByID(id types.ComponentID) (types.ComponentMetadata, error) {
	c, ok := m.componentsByID[id]
	if !ok {
		return nil, eris.Wrap(ErrComponentNotRegistered, fmt.Sprintf("component id %d is not registered", id))
	}
	return c, nil
}

// ResolveNetworkID returns the network id assigned to the given component
// type. ok is false when the type is not networked or not registered.
func (m *Manager) ResolveNetworkID(id types.ComponentID) (types.NetworkID, bool) {
	c, ok := m.componentsByID[id]
	if !ok {
		return 0, false
	}
	return c.NetworkID()
}

// ResolveType returns the component type registered under the given network
// id. An ErrUnknownNetworkID error is returned for an unregistered id.
func (m *Manager) ResolveType(id types.NetworkID) (types.ComponentMetadata, error) {
	c, ok := m.networkIDToComponent[id]
	if !ok {
		return nil, eris.Wrap(ErrUnknownNetworkID, fmt.Sprintf("network id %d is not registered", id))
	}
	return c, nil
}

// ComponentsWithCapability returns the component types that declared the given
// capability tag, in registration order. The returned slice must not be
// mutated.
func (m *Manager) ComponentsWithCapability(capability types.Capability) []types.ComponentMetadata {
	return m.capabilityIndex[capability]
}

// isComponentNameUnique checks if the component name already exists in the
// component map.
func (m *Manager) isComponentNameUnique(compMetadata types.ComponentMetadata) error {
	_, ok := m.registeredComponents[compMetadata.Name()]
	if ok {
		return eris.Errorf("component %q is already registered", compMetadata.Name())
	}
	return nil
}
