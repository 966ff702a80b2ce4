package search_test

import (
	"testing"

	"github.com/lattice-works/lattice/assert"
	"github.com/lattice-works/lattice/component"
	"github.com/lattice-works/lattice/filter"
	"github.com/lattice-works/lattice/search"
	"github.com/lattice-works/lattice/state"
	"github.com/lattice-works/lattice/types"
)

type Position struct {
	X, Y float64
}

func (Position) Name() string { return "position" }

type Velocity struct {
	DX, DY float64
}

func (Velocity) Name() string { return "velocity" }

type fixture struct {
	store  *state.Store
	reader state.Reader
	pos    types.ComponentMetadata
	vel    types.ComponentMetadata
}

func newFixture(t *testing.T) *fixture {
	manager := component.NewManager(nil)
	posComp, err := component.NewComponentMetadata[Position]()
	assert.NilError(t, err)
	velComp, err := component.NewComponentMetadata[Velocity]()
	assert.NilError(t, err)
	assert.NilError(t, manager.RegisterComponent(posComp))
	assert.NilError(t, manager.RegisterComponent(velComp))
	store := state.NewStore(manager, nil)
	return &fixture{
		store:  store,
		reader: store.ToReadOnly(),
		pos:    posComp,
		vel:    velComp,
	}
}

func TestSearchMatchesFilter(t *testing.T) {
	fix := newFixture(t)
	both, err := fix.store.CreateEntity(fix.pos, fix.vel)
	assert.NilError(t, err)
	posOnly, err := fix.store.CreateEntity(fix.pos)
	assert.NilError(t, err)

	count, err := search.New(fix.reader, filter.Contains(filter.Component[Position]())).Count()
	assert.NilError(t, err)
	assert.Equal(t, 2, count)

	ids, err := search.New(fix.reader, filter.Exact(filter.Component[Position]())).Collect()
	assert.NilError(t, err)
	assert.DeepEqual(t, []types.EntityID{posOnly}, ids)

	first, err := search.New(fix.reader, filter.Contains(filter.Component[Velocity]())).First()
	assert.NilError(t, err)
	assert.Equal(t, both, first)
}

func TestSearchEachCanStopEarly(t *testing.T) {
	fix := newFixture(t)
	for i := 0; i < 3; i++ {
		_, err := fix.store.CreateEntity(fix.pos)
		assert.NilError(t, err)
	}
	visited := 0
	err := search.New(fix.reader, filter.Contains(filter.Component[Position]())).
		Each(func(types.EntityID) bool {
			visited++
			return visited < 2
		})
	assert.NilError(t, err)
	assert.Equal(t, 2, visited)
}

func TestSearchFirstFailsWhenNothingMatches(t *testing.T) {
	fix := newFixture(t)
	_, err := search.New(fix.reader, filter.Contains(filter.Component[Velocity]())).First()
	assert.ErrorIs(t, err, search.ErrNoEntitiesFound)
}

func TestSearchExcludesPendingRemovals(t *testing.T) {
	fix := newFixture(t)
	id, err := fix.store.CreateEntity(fix.pos)
	assert.NilError(t, err)
	keep, err := fix.store.CreateEntity(fix.pos)
	assert.NilError(t, err)

	assert.NilError(t, fix.store.RemoveComponentFromEntity(fix.pos, id))

	// The marked entity disappears from results before the cull happens.
	ids, err := search.New(fix.reader, filter.Contains(filter.Component[Position]())).Collect()
	assert.NilError(t, err)
	assert.DeepEqual(t, []types.EntityID{keep}, ids)
}

func TestQueryReturnsComponentsInAttachmentOrder(t *testing.T) {
	fix := newFixture(t)
	var want []search.Result[Position]
	for i := 0; i < 3; i++ {
		id, err := fix.store.CreateEntity()
		assert.NilError(t, err)
		value := Position{X: float64(i)}
		assert.NilError(t, fix.store.AttachComponent(fix.pos, id, value, false))
		want = append(want, search.Result[Position]{EntityID: id, Component: value})
	}

	got, err := search.Query[Position](fix.reader)
	assert.NilError(t, err)
	assert.DeepEqual(t, want, got)
}

func TestQueryWithPendingRemovals(t *testing.T) {
	fix := newFixture(t)
	live, err := fix.store.CreateEntity(fix.pos)
	assert.NilError(t, err)
	marked, err := fix.store.CreateEntity(fix.pos)
	assert.NilError(t, err)
	assert.NilError(t, fix.store.RemoveComponentFromEntity(fix.pos, marked))

	got, err := search.Query[Position](fix.reader)
	assert.NilError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, live, got[0].EntityID)

	// Maintenance view: pending components come after the live ones.
	got, err = search.Query[Position](fix.reader, search.WithPendingRemovals())
	assert.NilError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, live, got[0].EntityID)
	assert.Equal(t, marked, got[1].EntityID)
}

func TestSearchWithCapabilityFilter(t *testing.T) {
	manager := component.NewManager(nil)
	posComp, err := component.NewComponentMetadata[Position](
		component.WithCapabilities[Position]("spatial"),
	)
	assert.NilError(t, err)
	velComp, err := component.NewComponentMetadata[Velocity]()
	assert.NilError(t, err)
	assert.NilError(t, manager.RegisterComponent(posComp))
	assert.NilError(t, manager.RegisterComponent(velComp))
	store := state.NewStore(manager, nil)

	spatial, err := store.CreateEntity(posComp)
	assert.NilError(t, err)
	_, err = store.CreateEntity(velComp)
	assert.NilError(t, err)

	ids, err := search.New(store.ToReadOnly(), filter.HasCapability(manager, "spatial")).Collect()
	assert.NilError(t, err)
	assert.DeepEqual(t, []types.EntityID{spatial}, ids)
}
