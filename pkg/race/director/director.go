// Package director runs a single race: countdown, ticks, finish order and reset.
//
// A Director is not safe for concurrent use. It is owned by one goroutine,
// other parties only get copies via Snapshot or the returned events.
package director

import (
	"cmp"
	"errors"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/mpapenbr/racing-lottery-go/log"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/course"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/entrant"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/event"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/interaction"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/random"
	"github.com/mpapenbr/racing-lottery-go/pkg/settings"
)

type State int

const (
	PreRace State = iota
	Countdown
	Racing
	Finished
)

func (s State) String() string {
	switch s {
	case PreRace:
		return "PRE_RACE"
	case Countdown:
		return "COUNTDOWN"
	case Racing:
		return "RACING"
	case Finished:
		return "FINISHED"
	default:
		return "UNKNOWN"
	}
}

var (
	ErrInvalidState  = errors.New("operation not allowed in current race state")
	ErrNoContestants = errors.New("no contestants")
)

type Director struct {
	settings settings.Settings
	tuning   entrant.Tuning
	course   *course.Course
	field    *interaction.Field
	rnd      random.Source
	strict   bool
	shuffle  bool
	log      *log.Logger

	state         State
	raceID        string
	entrants      []*entrant.Entrant // lane order
	finishOrder   []*entrant.Entrant
	tick          int
	raceTime      time.Duration
	countdownLeft time.Duration
}

type Option func(*Director)

// WithSettings sets the race tunables. Defaults are used otherwise.
func WithSettings(s settings.Settings) Option {
	return func(d *Director) {
		d.settings = s
	}
}

// WithSource sets the random source used for every stochastic decision
func WithSource(src random.Source) Option {
	return func(d *Director) {
		d.rnd = src
	}
}

func WithSeed(seed int64) Option {
	return func(d *Director) {
		d.rnd = random.New(seed)
	}
}

// WithStrict makes invariant violations panic instead of recovering the entrant
func WithStrict(strict bool) Option {
	return func(d *Director) {
		d.strict = strict
	}
}

// WithShuffle assigns lanes in random order
func WithShuffle(shuffle bool) Option {
	return func(d *Director) {
		d.shuffle = shuffle
	}
}

func WithLogger(l *log.Logger) Option {
	return func(d *Director) {
		d.log = l
	}
}

func New(opts ...Option) *Director {
	ret := &Director{
		settings: settings.Default(),
		state:    PreRace,
	}
	for _, opt := range opts {
		opt(ret)
	}
	if ret.rnd == nil {
		ret.rnd, _ = random.NewTimeSeeded()
	}
	if ret.log == nil {
		ret.log = log.Default().Named("race.director")
	}
	ret.tuning = entrant.NewTuning(ret.settings)
	ret.course = course.Generate(courseParams(ret.settings))
	ret.field = interaction.NewField(ret.course,
		interaction.WithHalfSize(ret.settings.ItemSize),
		interaction.WithSpawnDistance(ret.settings.ItemSpawnDistance),
		interaction.WithMaxItems(ret.settings.MaxItems),
		interaction.WithPickupBoostTicks(ret.settings.PickupBoostTicks()),
	)
	return ret
}

func courseParams(s settings.Settings) course.Params {
	return course.Params{
		Length:        s.CourseLength,
		RampDistance:  s.CourseRamp,
		DrivableWidth: s.CourseWidth,
		Step:          s.CourseStep,
		Waves:         course.DefaultWaves(),
	}
}

func (d *Director) State() State {
	return d.state
}

func (d *Director) RaceID() string {
	return d.raceID
}

func (d *Director) Course() *course.Course {
	return d.course
}

func (d *Director) Settings() settings.Settings {
	return d.settings
}

// Strict reports whether invariant violations panic
func (d *Director) Strict() bool {
	return d.strict
}

func (d *Director) Tuning() entrant.Tuning {
	return d.tuning
}

// Start creates the entrants and begins the countdown.
// Only allowed in PRE_RACE.
func (d *Director) Start(names []string) ([]event.Event, error) {
	if d.state != PreRace {
		return nil, ErrInvalidState
	}
	if len(names) == 0 {
		return nil, ErrNoContestants
	}
	if limit := d.settings.MaxContestants; limit > 0 && len(names) > limit {
		d.log.Warn("capping contestants",
			log.Int("requested", len(names)), log.Int("max", limit))
		names = names[:limit]
	}
	lanes := make([]int, len(names))
	for i := range lanes {
		lanes[i] = i
	}
	if d.shuffle {
		lanes = d.rnd.Perm(len(names))
	}
	d.entrants = make([]*entrant.Entrant, len(names))
	for i, name := range names {
		e := entrant.New(name, lanes[i], d.rnd, &d.tuning)
		d.entrants[e.Lane] = e
	}
	for _, e := range d.entrants {
		d.place(e)
	}
	d.finishOrder = []*entrant.Entrant{}
	d.raceID = uuid.NewString()
	d.tick = 0
	d.raceTime = 0
	d.countdownLeft = d.settings.Countdown
	d.state = Countdown
	d.log.Info("race created",
		log.String("raceId", d.raceID),
		log.Int("entrants", len(d.entrants)),
		log.Duration("countdown", d.countdownLeft))
	return []event.Event{d.newEvent(event.CountdownStarted)}, nil
}

// Update advances the race by dt. During RACING every call is one simulation tick.
func (d *Director) Update(dt time.Duration) []event.Event {
	switch d.state {
	case Countdown:
		d.countdownLeft -= dt
		if d.countdownLeft <= 0 {
			d.countdownLeft = 0
			d.state = Racing
			d.log.Info("race started", log.String("raceId", d.raceID))
			return []event.Event{d.newEvent(event.RaceStarted)}
		}
		return nil
	case Racing:
		return d.raceTick(dt)
	default:
		return nil
	}
}

// Step advances the race by one nominal tick interval
func (d *Director) Step() []event.Event {
	return d.Update(d.settings.TickInterval())
}

// Reset discards all entrants and items and returns to PRE_RACE
func (d *Director) Reset() []event.Event {
	ev := d.newEvent(event.RaceReset)
	d.entrants = nil
	d.finishOrder = nil
	d.field.Clear()
	d.tick = 0
	d.raceTime = 0
	d.countdownLeft = 0
	d.raceID = ""
	d.state = PreRace
	return []event.Event{ev}
}

// Winner returns the first finisher once the race is FINISHED
func (d *Director) Winner() (entrant.Entrant, bool) {
	if d.state != Finished || len(d.finishOrder) == 0 {
		return entrant.Entrant{}, false
	}
	return *d.finishOrder[0], true
}

func (d *Director) raceTick(dt time.Duration) []event.Event {
	d.tick++
	d.raceTime += dt
	events := []event.Event{}

	ranks, leader := d.ranking()
	for i, e := range d.entrants {
		if e.Finished {
			continue
		}
		prev := e.Progress
		step := e.Tick(entrant.TickContext{
			Rank:           ranks[i],
			LeaderProgress: leader,
			Tuning:         &d.tuning,
			Rand:           d.rnd,
		})
		d.validate(e, prev)
		d.place(e)
		events = append(events, d.transitionEvents(e, step)...)
		if e.Finished {
			events = append(events, d.finish(e))
			continue
		}
		events = append(events, d.spawnItems(e)...)
		if item, ok := d.field.Collide(e, d.tuning.CrashCooldownTicks); ok {
			events = append(events, d.consumed(e, item)...)
		}
	}
	d.pruneItems()

	if len(d.finishOrder) == len(d.entrants) {
		d.state = Finished
		ev := d.newEvent(event.RaceFinished)
		ev.Entrant = d.finishOrder[0].Name
		ev.Lane = d.finishOrder[0].Lane
		ev.Rank = 1
		events = append(events, ev)
		d.log.Info("race finished",
			log.String("raceId", d.raceID),
			log.String("winner", ev.Entrant),
			log.Int("ticks", d.tick),
			log.Duration("raceTime", d.raceTime))
	}
	return events
}

// ranking computes the rank (0 = leader) per lane from the current progress.
// Ties keep lane order.
func (d *Director) ranking() (ranks []int, leader float64) {
	order := slices.Clone(d.entrants)
	slices.SortStableFunc(order, func(a, b *entrant.Entrant) int {
		return cmp.Compare(b.Progress, a.Progress)
	})
	ranks = make([]int, len(d.entrants))
	for rank, e := range order {
		ranks[e.Lane] = rank
	}
	return ranks, order[0].Progress
}

func (d *Director) validate(e *entrant.Entrant, prev float64) {
	err := e.Validate()
	if err == nil {
		return
	}
	if d.strict {
		panic(err)
	}
	d.log.Warn("recovering entrant", log.String("entrant", e.Name), log.ErrorField(err))
	e.Recover(prev)
}

func (d *Director) place(e *entrant.Entrant) {
	pose := d.course.PositionAt(e.Progress, e.Lane, len(d.entrants))
	e.X, e.Y, e.Heading = pose.X, pose.Y, pose.Heading
}

func (d *Director) finish(e *entrant.Entrant) event.Event {
	d.finishOrder = append(d.finishOrder, e)
	e.FinishRank = len(d.finishOrder)
	e.FinishTick = d.tick
	e.FinishTime = d.raceTime
	d.log.Debug("entrant finished",
		log.String("entrant", e.Name),
		log.Int("rank", e.FinishRank),
		log.Duration("time", e.FinishTime))
	ev := d.entrantEvent(event.EntrantFinished, e)
	ev.Rank = e.FinishRank
	return ev
}

func (d *Director) transitionEvents(e *entrant.Entrant, step entrant.Step) []event.Event {
	if !step.Changed() {
		return nil
	}
	switch {
	case step.To == entrant.Crashed:
		ev := d.entrantEvent(event.EntrantCrashed, e)
		ev.Cause = step.Cause.String()
		return []event.Event{ev}
	case step.To.Boosted() && !step.From.Boosted():
		ev := d.entrantEvent(event.EntrantBoosted, e)
		ev.Cause = step.Cause.String()
		return []event.Event{ev}
	}
	return nil
}

func (d *Director) spawnItems(e *entrant.Entrant) []event.Event {
	ret := []event.Event{}
	spawn := func(kind interaction.Kind) {
		if item, ok := d.field.Spawn(kind, e, len(d.entrants)); ok {
			ret = append(ret, d.itemEvent(event.ItemSpawned, e, item))
		}
	}
	if e.WantsHazard {
		e.WantsHazard = false
		spawn(interaction.Hazard)
	}
	if e.WantsPickup {
		e.WantsPickup = false
		spawn(interaction.Pickup)
	}
	return ret
}

func (d *Director) consumed(e *entrant.Entrant, item interaction.Item) []event.Event {
	ret := []event.Event{d.itemEvent(event.ItemConsumed, e, item)}
	switch item.Kind {
	case interaction.Hazard:
		ev := d.entrantEvent(event.EntrantCrashed, e)
		ev.Cause = entrant.CauseHazard.String()
		ret = append(ret, ev)
	case interaction.Pickup:
		ev := d.entrantEvent(event.EntrantBoosted, e)
		ev.Cause = entrant.CausePickup.String()
		ret = append(ret, ev)
	}
	return ret
}

// pruneItems drops items behind the last unfinished entrant
func (d *Director) pruneItems() {
	last := 1.0
	for _, e := range d.entrants {
		if !e.Finished {
			last = min(last, e.Progress)
		}
	}
	d.field.Prune(last)
}

func (d *Director) newEvent(t event.Type) event.Event {
	return event.Event{Type: t, RaceID: d.raceID, Tick: d.tick, Time: d.raceTime}
}

func (d *Director) entrantEvent(t event.Type, e *entrant.Entrant) event.Event {
	ev := d.newEvent(t)
	ev.Entrant = e.Name
	ev.Lane = e.Lane
	return ev
}

func (d *Director) itemEvent(t event.Type, e *entrant.Entrant, item interaction.Item) event.Event {
	ev := d.entrantEvent(t, e)
	ev.ItemID = item.ID
	ev.ItemKind = item.Kind.String()
	ev.X, ev.Y = item.Pos.X(), item.Pos.Y()
	return ev
}
