package search

import (
	"github.com/rotisserie/eris"

	"github.com/lattice-works/lattice/state"
	"github.com/lattice-works/lattice/types"
)

// Result pairs an entity with its component of the queried type.
type Result[T types.Component] struct {
	EntityID  types.EntityID
	Component T
}

type queryConfig struct {
	includePending bool
}

type QueryOption func(*queryConfig)

// WithPendingRemovals makes the query additionally touch components that are
// marked for removal but not yet culled. Maintenance code only; simulation
// logic must never see pending-removal components.
func WithPendingRemovals() QueryOption {
	return func(cfg *queryConfig) {
		cfg.includePending = true
	}
}

// Query returns the (entity, component) pairs for every live component of
// type T, in per-type attachment order. Ordering is not stable across a
// removal and re-add of the same component.
func Query[T types.Component](reader state.Reader, opts ...QueryOption) ([]Result[T], error) {
	cfg := queryConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	var t T
	cType, err := reader.GetComponentByName(t.Name())
	if err != nil {
		return nil, err
	}

	var results []Result[T]
	iter := reader.EntitiesWith(cType)
	for iter.HasNext() {
		id, err := iter.Next()
		if err != nil {
			return nil, err
		}
		value, err := reader.GetComponentForEntity(cType, id)
		if err != nil {
			return nil, err
		}
		comp, err := castComponent[T](value)
		if err != nil {
			return nil, err
		}
		results = append(results, Result[T]{EntityID: id, Component: comp})
	}

	if cfg.includePending {
		live := len(results)
		for _, id := range reader.EntitiesWithPending(cType)[live:] {
			value, ok := reader.PendingComponentForEntity(cType, id)
			if !ok {
				continue
			}
			comp, err := castComponent[T](value)
			if err != nil {
				return nil, err
			}
			results = append(results, Result[T]{EntityID: id, Component: comp})
		}
	}
	return results, nil
}

func castComponent[T types.Component](value types.Component) (T, error) {
	comp, ok := value.(T)
	if !ok {
		if ptr, isPtr := any(value).(*T); isPtr {
			return *ptr, nil
		}
		var zero T
		return zero, eris.Errorf("component value %T is not of the queried type", value)
	}
	return comp, nil
}
