// Package runner drives a race director at a fixed tick rate.
package runner

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/mpapenbr/racing-lottery-go/log"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/director"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/event"
)

// Result summarizes a completed race
type Result struct {
	RaceID    string
	Winner    string
	Standings []director.Standing
	Ticks     int
	RaceTime  time.Duration
	Wall      time.Duration
}

type Runner struct {
	director      *director.Director
	speed         float64
	events        chan<- event.Event
	snapshots     chan<- director.Snapshot
	snapshotEvery int
	log           *log.Logger
	tracer        trace.Tracer
	tickCounter   metric.Int64Counter
	eventCounter  metric.Int64Counter
	tickDuration  metric.Float64Histogram
}

type Option func(*Runner)

// WithSpeed sets the playback speed. 1 is real time, 0 means: go as fast as possible
func WithSpeed(speed float64) Option {
	return func(r *Runner) {
		r.speed = speed
	}
}

// WithEvents sends every race event to ch
func WithEvents(ch chan<- event.Event) Option {
	return func(r *Runner) {
		r.events = ch
	}
}

// WithSnapshots sends a snapshot to ch every n ticks and after the race finished
func WithSnapshots(ch chan<- director.Snapshot, n int) Option {
	return func(r *Runner) {
		r.snapshots = ch
		r.snapshotEvery = max(n, 1)
	}
}

func WithLogger(l *log.Logger) Option {
	return func(r *Runner) {
		r.log = l
	}
}

func New(d *director.Director, opts ...Option) *Runner {
	ret := &Runner{
		director: d,
		speed:    1,
		log:      log.Default().Named("race.runner"),
		tracer:   otel.Tracer("rly.runner"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	ret.setupMetrics()
	return ret
}

func (r *Runner) setupMetrics() {
	meter := otel.GetMeterProvider().Meter("rly.runner")
	var err error
	if r.tickCounter, err = meter.Int64Counter("rly.runner.ticks",
		metric.WithDescription("Number of simulated ticks"),
		metric.WithUnit("{count}")); err != nil {
		r.log.Error("failed to register metric", log.ErrorField(err))
	}
	if r.eventCounter, err = meter.Int64Counter("rly.runner.events",
		metric.WithDescription("Number of emitted race events"),
		metric.WithUnit("{count}")); err != nil {
		r.log.Error("failed to register metric", log.ErrorField(err))
	}
	if r.tickDuration, err = meter.Float64Histogram("rly.runner.tick.duration",
		metric.WithDescription("Time spent computing a tick"),
		metric.WithUnit("ms")); err != nil {
		r.log.Error("failed to register metric", log.ErrorField(err))
	}
}

// Run starts a race with names and drives it until it is FINISHED or ctx is done.
// The simulation always advances by the nominal tick interval, the speed only
// changes how long the runner waits between ticks.
//
//nolint:funlen // by design
func (r *Runner) Run(ctx context.Context, names []string) (*Result, error) {
	ctx, span := r.tracer.Start(ctx, "race")
	defer span.End()
	wallStart := time.Now()

	events, err := r.director.Start(names)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("could not start race: %w", err)
	}
	span.SetAttributes(
		attribute.String("race.id", r.director.RaceID()),
		attribute.Int("race.entrants", len(names)))
	if err := r.publish(ctx, events); err != nil {
		return nil, err
	}

	interval := r.director.Settings().TickInterval()
	var tick <-chan time.Time
	if r.speed > 0 {
		ticker := time.NewTicker(time.Duration(float64(interval) / r.speed))
		defer ticker.Stop()
		tick = ticker.C
	}
	for n := 1; r.director.State() != director.Finished; n++ {
		if tick != nil {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()
		events := r.director.Update(interval)
		if r.director.State() == director.Racing || r.director.State() == director.Finished {
			r.tickCounter.Add(ctx, 1)
			r.tickDuration.Record(ctx, float64(time.Since(start).Microseconds())/1000.0)
		}
		for _, ev := range events {
			if ev.Type == event.EntrantFinished || ev.Type == event.RaceStarted {
				span.AddEvent(ev.Type.String(), trace.WithAttributes(
					attribute.String("entrant", ev.Entrant),
					attribute.Int("rank", ev.Rank)))
			}
		}
		if err := r.publish(ctx, events); err != nil {
			return nil, err
		}
		if r.snapshots != nil && n%r.snapshotEvery == 0 {
			if err := r.sendSnapshot(ctx); err != nil {
				return nil, err
			}
		}
	}
	if r.snapshots != nil {
		if err := r.sendSnapshot(ctx); err != nil {
			return nil, err
		}
	}

	snap := r.director.Snapshot()
	ret := &Result{
		RaceID:    snap.RaceID,
		Winner:    snap.Winner,
		Standings: snap.Standings,
		Ticks:     snap.Tick,
		RaceTime:  snap.RaceTime,
		Wall:      time.Since(wallStart),
	}
	span.SetAttributes(attribute.String("race.winner", ret.Winner), attribute.Int("race.ticks", ret.Ticks))
	r.log.Info("race done",
		log.String("raceId", ret.RaceID),
		log.String("winner", ret.Winner),
		log.Int("ticks", ret.Ticks),
		log.Duration("raceTime", ret.RaceTime),
		log.Duration("wall", ret.Wall))
	return ret, nil
}

func (r *Runner) publish(ctx context.Context, events []event.Event) error {
	for _, ev := range events {
		r.eventCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("type", ev.Type.String())))
		r.log.Debug("race event",
			log.String("type", ev.Type.String()),
			log.String("entrant", ev.Entrant),
			log.Int("tick", ev.Tick))
		if r.events == nil {
			continue
		}
		select {
		case r.events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (r *Runner) sendSnapshot(ctx context.Context) error {
	select {
	case r.snapshots <- r.director.Snapshot():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
