package state_test

import (
	"testing"

	"github.com/lattice-works/lattice/assert"
	"github.com/lattice-works/lattice/component"
	"github.com/lattice-works/lattice/events"
	"github.com/lattice-works/lattice/state"
	"github.com/lattice-works/lattice/types"
)

type Foo struct {
	Value int
}

func (Foo) Name() string {
	return "foo"
}

type Bar struct {
	Value int
}

func (Bar) Name() string {
	return "bar"
}

type Energy struct {
	Amount  int
	tracker *shutdownTracker
}

func (Energy) Name() string {
	return "energy"
}

func (e Energy) OnShutdown(id types.EntityID) {
	if e.tracker != nil {
		e.tracker.calls = append(e.tracker.calls, id)
	}
}

type shutdownTracker struct {
	calls []types.EntityID
}

var (
	fooComp, errForFooCompGlobal = component.NewComponentMetadata[Foo]()
	barComp, errForBarCompGlobal = component.NewComponentMetadata[Bar](
		component.WithNetworkID[Bar](7),
	)
	energyComp, errForEnergyCompGlobal = component.NewComponentMetadata[Energy](
		component.WithCapabilities[Energy]("combustible", "serializable"),
	)
)

func TestGlobals(t *testing.T) {
	assert.NilError(t, errForFooCompGlobal)
	assert.NilError(t, errForBarCompGlobal)
	assert.NilError(t, errForEnergyCompGlobal)
}

func newStoreForTest(t *testing.T) (*state.Store, *events.Dispatcher) {
	manager := component.NewManager(nil)
	assert.NilError(t, manager.RegisterComponent(fooComp))
	assert.NilError(t, manager.RegisterComponent(barComp))
	assert.NilError(t, manager.RegisterComponent(energyComp))
	dispatcher := events.NewDispatcher()
	return state.NewStore(manager, dispatcher), dispatcher
}

func shutdownEventsFor(t *testing.T, dispatcher *events.Dispatcher, id types.EntityID) *[]events.Event {
	received := &[]events.Event{}
	dispatcher.Listen(id, func(ev events.Event) {
		if ev.Kind() == events.KindComponentShutdown {
			*received = append(*received, ev)
		}
	})
	return received
}

func TestCanCreateEntityAndGetComponent(t *testing.T) {
	store, _ := newStoreForTest(t)
	wantValue := Foo{99}

	id, err := store.CreateEntity(fooComp)
	assert.NilError(t, err)
	assert.NilError(t, store.AttachComponent(fooComp, id, wantValue, true))

	gotValue, err := store.GetComponentForEntity(fooComp, id)
	assert.NilError(t, err)
	assert.Equal(t, wantValue, gotValue)
	assert.True(t, store.HasComponent(id, fooComp))

	ids := store.EntitiesWith(fooComp).Collect()
	assert.DeepEqual(t, []types.EntityID{id}, ids)
}

func TestAttachWithoutOverwriteFailsWhenComponentExists(t *testing.T) {
	store, _ := newStoreForTest(t)
	original := Foo{1}

	id, err := store.CreateEntity()
	assert.NilError(t, err)
	assert.NilError(t, store.AttachComponent(fooComp, id, original, false))

	err = store.AttachComponent(fooComp, id, Foo{2}, false)
	assert.ErrorIs(t, err, state.ErrComponentAlreadyOnEntity)

	// The failed attach must not have corrupted state.
	gotValue, err := store.GetComponentForEntity(fooComp, id)
	assert.NilError(t, err)
	assert.Equal(t, original, gotValue)
}

func TestOverwriteDisplacesOldInstanceWithShutdown(t *testing.T) {
	store, dispatcher := newStoreForTest(t)
	tracker := &shutdownTracker{}

	id, err := store.CreateEntity()
	assert.NilError(t, err)
	received := shutdownEventsFor(t, dispatcher, id)
	assert.NilError(t, store.AttachComponent(energyComp, id, Energy{Amount: 1, tracker: tracker}, false))
	assert.NilError(t, store.AttachComponent(energyComp, id, Energy{Amount: 2, tracker: tracker}, true))

	// The displaced instance bypasses the removal queue entirely.
	assert.Equal(t, 0, store.PendingRemovalCount())
	assert.Len(t, tracker.calls, 1)
	assert.Len(t, *received, 1)

	gotValue, err := store.GetComponentForEntity(energyComp, id)
	assert.NilError(t, err)
	assert.Equal(t, 2, gotValue.(Energy).Amount)

	// A later cull must not touch the displaced instance again.
	assert.NilError(t, store.Cull())
	assert.Len(t, tracker.calls, 1)
}

func TestAttachToUnknownEntityFails(t *testing.T) {
	store, _ := newStoreForTest(t)
	err := store.AttachComponent(fooComp, 999, Foo{}, false)
	assert.ErrorIs(t, err, state.ErrEntityDoesNotExist)
}

func TestAttachRejectsMismatchedValue(t *testing.T) {
	store, _ := newStoreForTest(t)
	id, err := store.CreateEntity()
	assert.NilError(t, err)
	err = store.AttachComponent(fooComp, id, Bar{}, false)
	assert.ErrorIs(t, err, state.ErrComponentMismatch)
}

func TestMarkRemovedHidesComponentImmediately(t *testing.T) {
	store, _ := newStoreForTest(t)
	id, err := store.CreateEntity(fooComp)
	assert.NilError(t, err)

	assert.NilError(t, store.RemoveComponentFromEntity(fooComp, id))

	assert.False(t, store.HasComponent(id, fooComp))
	_, err = store.GetComponentForEntity(fooComp, id)
	assert.ErrorIs(t, err, state.ErrComponentNotOnEntity)
	_, ok := store.TryGetComponentForEntity(fooComp, id)
	assert.False(t, ok)
	assert.Len(t, store.EntitiesWith(fooComp).Collect(), 0)

	// But the instance is still queued, not yet detached.
	assert.Equal(t, 1, store.PendingRemovalCount())
}

func TestCullDetachesAndNotifiesExactlyOnce(t *testing.T) {
	store, dispatcher := newStoreForTest(t)
	tracker := &shutdownTracker{}

	id, err := store.CreateEntity()
	assert.NilError(t, err)
	received := shutdownEventsFor(t, dispatcher, id)
	assert.NilError(t, store.AttachComponent(energyComp, id, Energy{Amount: 5, tracker: tracker}, false))
	assert.NilError(t, store.RemoveComponentFromEntity(energyComp, id))

	assert.Len(t, tracker.calls, 0)
	assert.NilError(t, store.Cull())
	assert.Len(t, tracker.calls, 1)
	assert.Equal(t, id, tracker.calls[0])
	assert.Len(t, *received, 1)

	shutdown, castOK := (*received)[0].(events.ComponentShutdown)
	assert.True(t, castOK)
	assert.Equal(t, "energy", shutdown.Component)

	// Culling again with no new removals is a no-op.
	assert.NilError(t, store.Cull())
	assert.Len(t, tracker.calls, 1)
	assert.Len(t, *received, 1)
}

func TestRemoveIsNoopWhenAbsentOrAlreadyPending(t *testing.T) {
	store, _ := newStoreForTest(t)
	id, err := store.CreateEntity(fooComp)
	assert.NilError(t, err)

	// Absent type: nothing happens.
	assert.NilError(t, store.RemoveComponentFromEntity(barComp, id))
	assert.Equal(t, 0, store.PendingRemovalCount())

	// Marking twice must not enqueue twice.
	assert.NilError(t, store.RemoveComponentFromEntity(fooComp, id))
	assert.NilError(t, store.RemoveComponentFromEntity(fooComp, id))
	assert.Equal(t, 1, store.PendingRemovalCount())
}

func TestNetworkIDLookupsAgreeWithTypeLookups(t *testing.T) {
	store, _ := newStoreForTest(t)
	id, err := store.CreateEntity()
	assert.NilError(t, err)
	assert.NilError(t, store.AttachComponent(barComp, id, Bar{42}, false))

	gotByType, err := store.GetComponentForEntity(barComp, id)
	assert.NilError(t, err)
	gotByNetworkID, err := store.GetComponentByNetworkID(id, 7)
	assert.NilError(t, err)
	assert.Equal(t, gotByType, gotByNetworkID)

	has, err := store.HasComponentByNetworkID(id, 7)
	assert.NilError(t, err)
	assert.True(t, has)

	_, err = store.GetComponentByNetworkID(id, 1234)
	assert.ErrorIs(t, err, component.ErrUnknownNetworkID)
	_, err = store.HasComponentByNetworkID(id, 1234)
	assert.ErrorIs(t, err, component.ErrUnknownNetworkID)
}

func TestShutdownEventCarriesNetworkID(t *testing.T) {
	store, dispatcher := newStoreForTest(t)
	id, err := store.CreateEntity(fooComp, barComp)
	assert.NilError(t, err)
	received := shutdownEventsFor(t, dispatcher, id)

	assert.NilError(t, store.RemoveComponentFromEntity(barComp, id))
	assert.NilError(t, store.RemoveComponentFromEntity(fooComp, id))
	assert.NilError(t, store.Cull())
	assert.Len(t, *received, 2)

	// The networked type's id is resolved through the registry; the
	// non-networked type gets none.
	barShutdown, ok := (*received)[0].(events.ComponentShutdown)
	assert.True(t, ok)
	assert.NotNil(t, barShutdown.NetworkID)
	assert.Equal(t, types.NetworkID(7), *barShutdown.NetworkID)
	fooShutdown, ok := (*received)[1].(events.ComponentShutdown)
	assert.True(t, ok)
	assert.Nil(t, fooShutdown.NetworkID)
}

func TestAttachWhileSameTypePendingRemoval(t *testing.T) {
	store, _ := newStoreForTest(t)
	tracker := &shutdownTracker{}

	id, err := store.CreateEntity()
	assert.NilError(t, err)
	assert.NilError(t, store.AttachComponent(energyComp, id, Energy{Amount: 1, tracker: tracker}, false))
	assert.NilError(t, store.RemoveComponentFromEntity(energyComp, id))

	// A fresh instance of the same type may move in before the cull.
	assert.NilError(t, store.AttachComponent(energyComp, id, Energy{Amount: 2, tracker: tracker}, false))
	assert.True(t, store.HasComponent(id, energyComp))

	// The cull finalizes only the old instance; the new one stays attached.
	assert.NilError(t, store.Cull())
	assert.Len(t, tracker.calls, 1)
	gotValue, err := store.GetComponentForEntity(energyComp, id)
	assert.NilError(t, err)
	assert.Equal(t, 2, gotValue.(Energy).Amount)
}

func TestEntitiesWithFollowsAttachmentOrder(t *testing.T) {
	store, _ := newStoreForTest(t)
	var ids []types.EntityID
	for i := 0; i < 3; i++ {
		id, err := store.CreateEntity(fooComp)
		assert.NilError(t, err)
		ids = append(ids, id)
	}
	assert.DeepEqual(t, ids, store.EntitiesWith(fooComp).Collect())

	// Removing and re-adding moves the entity to the back of the bucket.
	assert.NilError(t, store.RemoveComponentFromEntity(fooComp, ids[1]))
	assert.NilError(t, store.Cull())
	assert.NilError(t, store.AttachComponent(fooComp, ids[1], Foo{}, false))
	assert.DeepEqual(t, []types.EntityID{ids[0], ids[2], ids[1]}, store.EntitiesWith(fooComp).Collect())
}

func TestIteratorSkipsComponentsMarkedMidIteration(t *testing.T) {
	store, _ := newStoreForTest(t)
	id, err := store.CreateEntity(fooComp, barComp)
	assert.NilError(t, err)

	iter, err := store.ComponentsForEntity(id)
	assert.NilError(t, err)
	assert.True(t, iter.HasNext())
	first, _, err := iter.Next()
	assert.NilError(t, err)
	assert.Equal(t, "foo", first.Name())

	// Marking bar removed mid-pass makes it invisible to the running
	// iterator.
	assert.NilError(t, store.RemoveComponentFromEntity(barComp, id))
	assert.False(t, iter.HasNext())

	// Restarting yields only the live component.
	iter.Reset()
	assert.True(t, iter.HasNext())
	meta, _, err := iter.Next()
	assert.NilError(t, err)
	assert.Equal(t, "foo", meta.Name())
	assert.False(t, iter.HasNext())
}

func TestComponentsWithCapability(t *testing.T) {
	store, _ := newStoreForTest(t)
	id, err := store.CreateEntity(fooComp, energyComp)
	assert.NilError(t, err)

	countFor := func(capability types.Capability) int {
		iter, err := store.ComponentsWithCapability(id, capability)
		assert.NilError(t, err)
		count := 0
		for iter.HasNext() {
			meta, _, err := iter.Next()
			assert.NilError(t, err)
			assert.Equal(t, "energy", meta.Name())
			count++
		}
		return count
	}

	// One hit per queried tag, regardless of how many tags the type carries.
	assert.Equal(t, 1, countFor("combustible"))
	assert.Equal(t, 1, countFor("serializable"))
	assert.Equal(t, 0, countFor("unheard-of"))
}

func TestReleaseEntityPurgesAllState(t *testing.T) {
	store, _ := newStoreForTest(t)
	tracker := &shutdownTracker{}

	id, err := store.CreateEntity(fooComp)
	assert.NilError(t, err)
	assert.NilError(t, store.AttachComponent(energyComp, id, Energy{Amount: 1, tracker: tracker}, false))

	// One component live, one already pending removal.
	assert.NilError(t, store.RemoveComponentFromEntity(energyComp, id))
	assert.NilError(t, store.ReleaseEntity(id))

	// The pending instance was finalized by the release, not left for cull.
	assert.Len(t, tracker.calls, 1)
	_, err = store.GetComponentForEntity(fooComp, id)
	assert.ErrorIs(t, err, state.ErrEntityDoesNotExist)
	assert.Len(t, store.EntitiesWith(fooComp).Collect(), 0)

	// A later cull sees nothing left to do for this entity.
	assert.NilError(t, store.Cull())
	assert.Len(t, tracker.calls, 1)

	// Releasing an unknown entity is a no-op.
	assert.NilError(t, store.ReleaseEntity(id))
}
