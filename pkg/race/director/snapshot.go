package director

import (
	"cmp"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/mpapenbr/racing-lottery-go/pkg/race/entrant"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/interaction"
)

// Standing is one line of the leaderboard
type Standing struct {
	Pos        int // 1-based
	Name       string
	Lane       int
	Progress   float64
	Gap        float64 // progress behind the leader
	State      entrant.State
	Finished   bool
	FinishRank int
	FinishTime time.Duration
}

// Snapshot is a deep copy of the race for read-only consumers
type Snapshot struct {
	RaceID    string
	State     State
	Tick      int
	RaceTime  time.Duration
	Countdown time.Duration // remaining countdown
	Entrants  []entrant.Entrant
	Items     []interaction.Item
	Standings []Standing
	Winner    string
}

func (d *Director) Snapshot() Snapshot {
	ret := Snapshot{
		RaceID:    d.raceID,
		State:     d.state,
		Tick:      d.tick,
		RaceTime:  d.raceTime,
		Countdown: d.countdownLeft,
		Entrants: lo.Map(d.entrants, func(e *entrant.Entrant, _ int) entrant.Entrant {
			return *e
		}),
		Items:     d.field.Items(),
		Standings: d.Standings(),
	}
	if w, ok := d.Winner(); ok {
		ret.Winner = w.Name
	}
	return ret
}

// Standings returns the live leaderboard: finished entrants by finish rank
// followed by the others ordered by progress (ties keep lane order).
func (d *Director) Standings() []Standing {
	order := slices.Clone(d.entrants)
	slices.SortStableFunc(order, func(a, b *entrant.Entrant) int {
		switch {
		case a.Finished && b.Finished:
			return cmp.Compare(a.FinishRank, b.FinishRank)
		case a.Finished:
			return -1
		case b.Finished:
			return 1
		default:
			return cmp.Compare(b.Progress, a.Progress)
		}
	})
	leader := 0.0
	if len(order) > 0 {
		leader = order[0].Progress
	}
	return lo.Map(order, func(e *entrant.Entrant, i int) Standing {
		return Standing{
			Pos:        i + 1,
			Name:       e.Name,
			Lane:       e.Lane,
			Progress:   e.Progress,
			Gap:        leader - e.Progress,
			State:      e.State,
			Finished:   e.Finished,
			FinishRank: e.FinishRank,
			FinishTime: e.FinishTime,
		}
	})
}

// Results returns the finishers in finish order
func (d *Director) Results() []Standing {
	return lo.Filter(d.Standings(), func(s Standing, _ int) bool {
		return s.Finished
	})
}
