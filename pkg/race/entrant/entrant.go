// Package entrant contains the per-tick behavior of a single race participant.
package entrant

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mpapenbr/racing-lottery-go/pkg/race/random"
)

var ErrInvariant = errors.New("entrant invariant violated")

// Entrant is a single participant of a race.
// Progress is the normalized distance along the course in [0,1].
type Entrant struct {
	Name      string
	Lane      int
	Progress  float64
	Speed     float64 // progress per tick
	BaseSpeed float64
	State     State
	Timer     int // ticks left in State
	Finished  bool

	FinishRank int // 1-based, 0 while racing
	FinishTick int
	FinishTime time.Duration

	// set during Tick, consumed by the director
	WantsHazard bool
	WantsPickup bool

	// world pose, maintained by the director
	X, Y, Heading float64
}

// TickContext carries everything an entrant needs from outside for one tick
type TickContext struct {
	Rank           int     // 0 = leader, computed from the pre-tick snapshot
	LeaderProgress float64 // from the pre-tick snapshot
	Tuning         *Tuning
	Rand           random.Source
}

// Step describes what happened to an entrant during one tick
type Step struct {
	From     State
	To       State
	Cause    Cause
	Finished bool // the entrant crossed the finish line in this tick
}

func (s Step) Changed() bool {
	return s.From != s.To
}

// New creates an entrant in NORMAL state at the start line.
// The timer starts at 0, so the first tick rerolls the state.
func New(name string, lane int, rnd random.Source, t *Tuning) *Entrant {
	return &Entrant{
		Name:      name,
		Lane:      lane,
		BaseSpeed: rnd.Between(MinBaseSpeed, MaxBaseSpeed) / max(MinDurationMultiplier, t.DurationMultiplier),
		State:     Normal,
	}
}

// Tick advances the entrant by one simulation step.
// Finished entrants are not modified.
func (e *Entrant) Tick(c TickContext) Step {
	step := Step{From: e.State, To: e.State}
	if e.Finished {
		return step
	}
	t := c.Tuning
	e.WantsHazard = e.WantsHazard || c.Rand.Chance(t.HazardChance)
	e.WantsPickup = e.WantsPickup || c.Rand.Chance(t.PickupChance)

	if e.State == Crashed {
		e.Speed *= CrashDecay
		e.Timer--
		if e.Timer <= 0 {
			e.setState(Normal, RecoveryTicks)
			step.Cause = CauseRecovered
		}
		step.To = e.State
		step.Finished = e.advance()
		return step
	}

	if e.State.crashable() && c.Rand.Chance(t.CrashChance) {
		// the entrant keeps its momentum for this tick
		e.setState(Crashed, t.CrashCooldownTicks)
		step.To, step.Cause = Crashed, CauseCrashTrigger
		step.Finished = e.advance()
		return step
	}

	switch {
	case e.State == Normal && c.Rand.Chance(t.BoostChance):
		e.setState(Boost, t.BoostTicks)
		step.Cause = CauseBoostTrigger
	default:
		e.Timer--
		if e.Timer <= 0 {
			r := pickReroll(c.Rand.Float64())
			e.setState(r.state, c.Rand.IntBetween(r.minTicks, r.maxTicks))
			step.Cause = CauseTimer
		}
	}
	step.To = e.State

	gap := c.LeaderProgress - e.Progress
	target := e.BaseSpeed *
		t.stateMultiplier(e.State) *
		t.RubberBand(c.Rank, gap) *
		c.Rand.Between(MinJitter, MaxJitter)
	e.Speed += (target - e.Speed) * SmoothingFactor
	step.Finished = e.advance()
	return step
}

// ForceCrash puts the entrant into CRASHED (hazard hit).
// Returns false if the entrant is already crashed or finished.
func (e *Entrant) ForceCrash(ticks int) bool {
	if e.Finished || e.State == Crashed {
		return false
	}
	e.setState(Crashed, ticks)
	return true
}

// ForceBoost puts the entrant into BOOST (pickup collected).
// A running boost is refreshed. Crashed or finished entrants are not affected.
func (e *Entrant) ForceBoost(ticks int) bool {
	if e.Finished || e.State == Crashed {
		return false
	}
	e.setState(Boost, ticks)
	return true
}

// Validate checks the invariants which must hold after every tick
func (e *Entrant) Validate() error {
	switch {
	case math.IsNaN(e.Progress) || math.IsInf(e.Progress, 0):
		return fmt.Errorf("%w: %s progress is %v", ErrInvariant, e.Name, e.Progress)
	case e.Progress < 0 || e.Progress > 1:
		return fmt.Errorf("%w: %s progress %v out of range", ErrInvariant, e.Name, e.Progress)
	case math.IsNaN(e.Speed) || math.IsInf(e.Speed, 0):
		return fmt.Errorf("%w: %s speed is %v", ErrInvariant, e.Name, e.Speed)
	case e.Speed < 0:
		return fmt.Errorf("%w: %s speed %v is negative", ErrInvariant, e.Name, e.Speed)
	case !e.State.Valid():
		return fmt.Errorf("%w: %s has unknown state %d", ErrInvariant, e.Name, e.State)
	case e.Timer < 0:
		return fmt.Errorf("%w: %s timer %d is negative", ErrInvariant, e.Name, e.Timer)
	case e.Finished != (e.Progress >= 1):
		return fmt.Errorf("%w: %s finished=%v at progress %v", ErrInvariant, e.Name, e.Finished, e.Progress)
	}
	return nil
}

// Recover puts the entrant back into a consistent state after Validate failed.
// prevProgress is the progress before the failing tick.
func (e *Entrant) Recover(prevProgress float64) {
	if math.IsNaN(prevProgress) || prevProgress < 0 || prevProgress >= 1 {
		prevProgress = 0
	}
	e.Progress = prevProgress
	if math.IsNaN(e.Speed) || math.IsInf(e.Speed, 0) || e.Speed < 0 {
		e.Speed = 0
	}
	e.Finished = false
	e.setState(Normal, RecoveryTicks)
}

// Position returns the world position as computed by the director
func (e *Entrant) Position() (x, y float64) {
	return e.X, e.Y
}

func (e *Entrant) setState(s State, ticks int) {
	e.State = s
	e.Timer = max(ticks, 0)
}

// advance moves the entrant by its speed and reports whether it finished now
func (e *Entrant) advance() bool {
	e.Progress += e.Speed
	if e.Progress >= 1 {
		e.Progress = 1
		e.Finished = true
		return true
	}
	return false
}
