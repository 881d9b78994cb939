//nolint:funlen // ok for tests
package interaction

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/racing-lottery-go/pkg/race/course"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/entrant"
)

func newField(opts ...FieldOption) *Field {
	return NewField(course.Generate(course.DefaultParams()), opts...)
}

func placeAt(e *entrant.Entrant, item Item) {
	e.X, e.Y = item.Pos.X(), item.Pos.Y()
}

func TestSpawn(t *testing.T) {
	f := newField(WithSpawnDistance(1500))
	e := &entrant.Entrant{Name: "A", Lane: 1, Progress: 0.2}
	item, ok := f.Spawn(Hazard, e, 3)
	require.True(t, ok)
	assert.Equal(t, 1, item.ID)
	assert.Equal(t, "A", item.Owner)
	assert.Equal(t, 1, item.Lane)
	assert.InDelta(t, 0.3, item.Progress, 1e-12)
	pose := course.Generate(course.DefaultParams()).PositionAt(item.Progress, 1, 3)
	assert.InDelta(t, pose.X, item.Pos.X(), 1e-9)
	assert.InDelta(t, pose.Y, item.Pos.Y(), 1e-9)
	assert.Zero(t, item.BoostTicks)

	// never placed behind the finish line
	e.Progress = 0.98
	item, ok = f.Spawn(Pickup, e, 3)
	require.True(t, ok)
	assert.Equal(t, MaxSpawnProgress, item.Progress)
	assert.Equal(t, 90, item.BoostTicks)
	assert.Equal(t, 2, f.Len())
}

func TestSpawn_NoRoomBeforeFinish(t *testing.T) {
	f := newField(WithHalfSize(20))
	// items are capped at 0.99, which is at most 15 units ahead of these entrants
	for _, progress := range []float64{0.989, 0.99, 0.995} {
		e := &entrant.Entrant{Name: "A", Progress: progress}
		_, ok := f.Spawn(Hazard, e, 1)
		assert.False(t, ok, "progress %v", progress)
	}
	assert.Zero(t, f.Len())

	// just outside the hitbox
	e := &entrant.Entrant{Name: "A", Progress: 0.988}
	_, ok := f.Spawn(Hazard, e, 1)
	assert.True(t, ok)
}

func TestSpawn_OwnerDoesNotHitOwnItem(t *testing.T) {
	c := course.Generate(course.DefaultParams())
	f := NewField(c, WithHalfSize(20), WithSpawnDistance(800))
	for _, progress := range []float64{0.1, 0.9, 0.985, 0.988} {
		e := &entrant.Entrant{Name: "A", Progress: progress}
		pose := c.PositionAt(progress, 0, 1)
		e.X, e.Y = pose.X, pose.Y
		_, ok := f.Spawn(Hazard, e, 1)
		if progress < 0.95 {
			require.True(t, ok)
		}
		if ok {
			_, hit := f.Collide(e, 100)
			assert.False(t, hit, "progress %v", progress)
		}
		f.Clear()
	}
}

func TestSpawn_MaxItems(t *testing.T) {
	f := newField(WithMaxItems(2))
	e := &entrant.Entrant{Name: "A"}
	for range 3 {
		f.Spawn(Hazard, e, 1)
	}
	items := f.Items()
	require.Len(t, items, 2)
	assert.Equal(t, 2, items[0].ID, "oldest item dropped")
	assert.Equal(t, 3, items[1].ID)
}

func TestCollide_Hazard(t *testing.T) {
	f := newField()
	owner := &entrant.Entrant{Name: "A", Progress: 0.1}
	item, _ := f.Spawn(Hazard, owner, 1)

	victim := &entrant.Entrant{Name: "B", State: entrant.Boost, Timer: 5}
	placeAt(victim, item)
	victim.X += 19.5 // inside the hitbox
	got, ok := f.Collide(victim, 120)
	require.True(t, ok)
	assert.Equal(t, item.ID, got.ID)
	assert.Equal(t, entrant.Crashed, victim.State)
	assert.Equal(t, 120, victim.Timer)
	assert.Zero(t, f.Len())

	// consumed items cannot be hit twice
	other := &entrant.Entrant{Name: "C"}
	placeAt(other, item)
	_, ok = f.Collide(other, 120)
	assert.False(t, ok)
	assert.Equal(t, entrant.Normal, other.State)
}

func TestCollide_Pickup(t *testing.T) {
	f := newField(WithPickupBoostTicks(42))
	item, _ := f.Spawn(Pickup, &entrant.Entrant{Name: "A", Progress: 0.5}, 1)

	e := &entrant.Entrant{Name: "B", State: entrant.Stumble, Timer: 5}
	placeAt(e, item)
	got, ok := f.Collide(e, 120)
	require.True(t, ok)
	assert.Equal(t, Pickup, got.Kind)
	assert.Equal(t, entrant.Boost, e.State)
	assert.Equal(t, 42, e.Timer)
}

func TestCollide_Skipped(t *testing.T) {
	tests := []struct {
		name string
		e    *entrant.Entrant
	}{
		{"crashed", &entrant.Entrant{State: entrant.Crashed, Timer: 10}},
		{"finished", &entrant.Entrant{Progress: 1, Finished: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newField()
			item, _ := f.Spawn(Pickup, &entrant.Entrant{Name: "A"}, 1)
			placeAt(tt.e, item)
			_, ok := f.Collide(tt.e, 120)
			assert.False(t, ok)
			assert.Equal(t, 1, f.Len(), "item stays for other entrants")
		})
	}
}

func TestCollide_OnlyFirstHit(t *testing.T) {
	f := newField(WithSpawnDistance(0))
	owner := &entrant.Entrant{Name: "A", Progress: 0.4}
	first, _ := f.Spawn(Pickup, owner, 1)
	second, _ := f.Spawn(Hazard, owner, 1)
	require.Equal(t, first.Pos, second.Pos)

	e := &entrant.Entrant{Name: "B"}
	placeAt(e, first)
	got, ok := f.Collide(e, 120)
	require.True(t, ok)
	assert.Equal(t, first.ID, got.ID)
	assert.Equal(t, entrant.Boost, e.State)

	items := f.Items()
	require.Len(t, items, 1)
	assert.Equal(t, second.ID, items[0].ID)
}

func TestCollide_Miss(t *testing.T) {
	f := newField(WithHalfSize(10))
	item, _ := f.Spawn(Hazard, &entrant.Entrant{Name: "A", Progress: 0.3}, 1)
	e := &entrant.Entrant{Name: "B"}
	placeAt(e, item)
	e.Y += 10.5
	_, ok := f.Collide(e, 120)
	assert.False(t, ok)
	assert.Equal(t, entrant.Normal, e.State)
}

func TestPruneAndClear(t *testing.T) {
	f := newField(WithSpawnDistance(0))
	f.Spawn(Hazard, &entrant.Entrant{Name: "A", Progress: 0.1}, 1)
	f.Spawn(Hazard, &entrant.Entrant{Name: "B", Progress: 0.5}, 1)
	assert.Equal(t, 1, f.Prune(0.2))
	assert.Equal(t, 1, f.Len())

	items := f.Items()
	items[0].Owner = "changed"
	assert.Equal(t, "B", f.Items()[0].Owner, "Items returns a copy")

	f.Clear()
	assert.Zero(t, f.Len())
	item, _ := f.Spawn(Pickup, &entrant.Entrant{Name: "C"}, 1)
	assert.Equal(t, 1, item.ID)
}
