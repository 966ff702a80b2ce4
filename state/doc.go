// Package state implements the entity-component storage engine: which
// components are attached to which entities, indexed both by entity and by
// component type, with deferred two-phase removal.
//
// Component removal happens in two steps. RemoveComponentFromEntity marks the
// component as pending removal: it immediately disappears from Get/Has calls
// and from every query, but the instance itself stays around. Cull performs the
// final detachment, fires the shutdown notification for each instance exactly
// once, and discards the queue. This lets a system that is mid-way through a
// pass over a component set finish the pass against a stable set of instances
// while "is this removed" checks stay immediate and correct.
//
// The Store is single-threaded by design: all mutations are expected to run on
// one logical simulation goroutine per tick, and no internal locking is
// performed. Iterators tolerate mark-for-removal during iteration (visibility
// updates immediately); attaching or culling while iterating the same type
// bucket is a precondition violation.
package state
