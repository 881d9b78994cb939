// Package interaction manages hazards and pickups placed on the course.
package interaction

import (
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/mpapenbr/racing-lottery-go/pkg/race/course"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/entrant"
)

type Kind int

const (
	Hazard Kind = iota
	Pickup
)

func (k Kind) String() string {
	if k == Pickup {
		return "pickup"
	}
	return "hazard"
}

// MaxSpawnProgress keeps items off the finish line
const MaxSpawnProgress = 0.99

// Item is a hazard or a pickup. The position is resolved once at placement.
type Item struct {
	ID         int
	Kind       Kind
	Owner      string // name of the requesting entrant
	Lane       int
	Progress   float64
	Pos        mgl64.Vec2
	BoostTicks int // pickups only
}

type Field struct {
	course        *course.Course
	items         []Item
	nextID        int
	halfSize      float64
	spawnDistance float64
	maxItems      int
	boostTicks    int
}

type FieldOption func(*Field)

// WithHalfSize sets the half edge of the square hitbox
func WithHalfSize(v float64) FieldOption {
	return func(f *Field) {
		f.halfSize = v
	}
}

// WithSpawnDistance sets the distance (world units) between requester and item
func WithSpawnDistance(v float64) FieldOption {
	return func(f *Field) {
		f.spawnDistance = v
	}
}

// WithMaxItems caps the number of active items, 0 means unlimited
func WithMaxItems(v int) FieldOption {
	return func(f *Field) {
		f.maxItems = v
	}
}

// WithPickupBoostTicks sets the boost a pickup grants
func WithPickupBoostTicks(v int) FieldOption {
	return func(f *Field) {
		f.boostTicks = v
	}
}

func NewField(c *course.Course, opts ...FieldOption) *Field {
	ret := &Field{
		course:        c,
		items:         []Item{},
		halfSize:      20,
		spawnDistance: 800,
		boostTicks:    90,
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// Spawn places a new item ahead of the requesting entrant.
// If the cap is reached the oldest item is dropped.
// No item is placed if the finish line leaves no room in front of the entrant's hitbox.
// e.X and e.Y must hold the entrant's current position.
func (f *Field) Spawn(kind Kind, e *entrant.Entrant, laneCount int) (Item, bool) {
	target := math.Min(MaxSpawnProgress, e.Progress+f.course.ProgressDistance(f.spawnDistance))
	if target-e.Progress <= f.course.ProgressDistance(f.halfSize) {
		return Item{}, false
	}
	pose := f.course.PositionAt(target, e.Lane, laneCount)
	if f.hit(mgl64.Vec2{pose.X, pose.Y}, mgl64.Vec2{e.X, e.Y}) {
		return Item{}, false
	}
	f.nextID++
	item := Item{
		ID:       f.nextID,
		Kind:     kind,
		Owner:    e.Name,
		Lane:     e.Lane,
		Progress: target,
		Pos:      mgl64.Vec2{pose.X, pose.Y},
	}
	if kind == Pickup {
		item.BoostTicks = f.boostTicks
	}
	if f.maxItems > 0 && len(f.items) >= f.maxItems {
		f.items = slices.Delete(f.items, 0, len(f.items)-f.maxItems+1)
	}
	f.items = append(f.items, item)
	return item, true
}

// Collide checks the entrant's world position against the active items.
// At most the first hit is consumed and applied to the entrant.
// Finished and crashed entrants are not checked.
func (f *Field) Collide(e *entrant.Entrant, crashTicks int) (Item, bool) {
	if e.Finished || e.State == entrant.Crashed {
		return Item{}, false
	}
	pos := mgl64.Vec2{e.X, e.Y}
	idx := slices.IndexFunc(f.items, func(item Item) bool {
		return f.hit(item.Pos, pos)
	})
	if idx < 0 {
		return Item{}, false
	}
	item := f.items[idx]
	f.items = slices.Delete(f.items, idx, idx+1)
	switch item.Kind {
	case Hazard:
		e.ForceCrash(crashTicks)
	case Pickup:
		e.ForceBoost(item.BoostTicks)
	}
	return item, true
}

// Prune removes items every unfinished entrant has already passed
func (f *Field) Prune(minProgress float64) int {
	before := len(f.items)
	f.items = slices.DeleteFunc(f.items, func(item Item) bool {
		return item.Progress < minProgress
	})
	return before - len(f.items)
}

// Items returns a copy of the active items
func (f *Field) Items() []Item {
	return slices.Clone(f.items)
}

func (f *Field) Len() int {
	return len(f.items)
}

func (f *Field) Clear() {
	f.items = []Item{}
	f.nextID = 0
}

func (f *Field) hit(a, b mgl64.Vec2) bool {
	d := a.Sub(b)
	return math.Abs(d.X()) <= f.halfSize && math.Abs(d.Y()) <= f.halfSize
}
