package types

// EntityID is the opaque, stable handle for a simulation object. The engine
// never inspects it; allocation and reuse are the entity lifecycle source's
// concern.
type EntityID uint64
