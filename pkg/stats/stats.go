// Package stats simulates many races and aggregates their outcome.
package stats

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/mpapenbr/racing-lottery-go/log"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/director"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/entrant"
	"github.com/mpapenbr/racing-lottery-go/pkg/settings"
)

// Summary is the aggregate of a batch of races
type Summary struct {
	Races    int
	Wins     map[string]int
	MeanTick float64 // mean number of ticks until the race finished
	// mean speed / base speed of the leader after its tick (crashed ticks excluded)
	LeaderMultiplier float64
	// same for entrants more than the far gap behind the leader
	TrailerMultiplier float64
	Duration          time.Duration
}

// WinShare returns the contestants sorted by wins (descending, ties by name)
func (s Summary) WinShare() []lo.Entry[string, int] {
	ret := lo.Entries(s.Wins)
	slices.SortFunc(ret, func(a, b lo.Entry[string, int]) int {
		if a.Value != b.Value {
			return b.Value - a.Value
		}
		if a.Key < b.Key {
			return -1
		}
		if a.Key > b.Key {
			return 1
		}
		return 0
	})
	return ret
}

type Batch struct {
	races    int
	seed     int64
	settings settings.Settings
	shuffle  bool
	log      *log.Logger
}

type Option func(*Batch)

func WithRaces(n int) Option {
	return func(b *Batch) {
		b.races = n
	}
}

// WithSeed sets the seed of the first race, race i uses seed+i
func WithSeed(seed int64) Option {
	return func(b *Batch) {
		b.seed = seed
	}
}

func WithSettings(s settings.Settings) Option {
	return func(b *Batch) {
		b.settings = s
	}
}

func WithShuffle(shuffle bool) Option {
	return func(b *Batch) {
		b.shuffle = shuffle
	}
}

func WithLogger(l *log.Logger) Option {
	return func(b *Batch) {
		b.log = l
	}
}

func NewBatch(opts ...Option) *Batch {
	ret := &Batch{
		races:    100,
		seed:     1,
		settings: settings.Default(),
		log:      log.Default().Named("stats"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

type mean struct {
	sum float64
	n   int
}

func (m *mean) add(v float64) {
	m.sum += v
	m.n++
}

func (m *mean) value() float64 {
	if m.n == 0 {
		return 0
	}
	return m.sum / float64(m.n)
}

// Run simulates the races as fast as possible
func (b *Batch) Run(ctx context.Context, names []string) (*Summary, error) {
	start := time.Now()
	ret := &Summary{Races: b.races, Wins: map[string]int{}}
	var ticks, leader, trailer mean
	for i := range b.races {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		d := director.New(
			director.WithSettings(b.settings),
			director.WithSeed(b.seed+int64(i)),
			director.WithShuffle(b.shuffle),
			director.WithLogger(b.log.Named("race")),
		)
		if _, err := d.Start(names); err != nil {
			return nil, fmt.Errorf("race %d: %w", i, err)
		}
		tuning := d.Tuning()
		for d.State() != director.Finished {
			if d.State() != director.Racing {
				d.Step()
				continue
			}
			// the standings before a tick are the ranking the tick uses
			groups := map[int]*mean{}
			for _, s := range d.Standings() {
				switch {
				case s.Finished || s.State == entrant.Crashed:
				case s.Pos == 1:
					groups[s.Lane] = &leader
				case s.Gap > tuning.FarGap:
					groups[s.Lane] = &trailer
				}
			}
			d.Step()
			if len(groups) == 0 {
				continue
			}
			for _, e := range d.Snapshot().Entrants {
				if m, ok := groups[e.Lane]; ok && e.State != entrant.Crashed {
					m.add(e.Speed / e.BaseSpeed)
				}
			}
		}
		w, _ := d.Winner()
		ret.Wins[w.Name]++
		ticks.add(float64(d.Snapshot().Tick))
	}
	ret.MeanTick = ticks.value()
	ret.LeaderMultiplier = leader.value()
	ret.TrailerMultiplier = trailer.value()
	ret.Duration = time.Since(start)
	b.log.Info("batch done",
		log.Int("races", ret.Races),
		log.Float64("meanTicks", ret.MeanTick),
		log.Duration("duration", ret.Duration))
	return ret, nil
}
