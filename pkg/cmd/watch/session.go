package watch

import (
	"github.com/mpapenbr/racing-lottery-go/log"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/director"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/event"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/random"
	"github.com/mpapenbr/racing-lottery-go/pkg/settings"
	"github.com/mpapenbr/racing-lottery-go/pkg/view"
)

// session owns the director shown in the terminal.
// A fresh director is created for every race so changed settings apply.
type session struct {
	names    []string
	settings func() settings.Settings
	src      random.Source
	strict   bool
	shuffle  bool
	onEvent  func(event.Event)
	director *director.Director
}

type sessionOption func(*session)

func withStrict(strict bool) sessionOption {
	return func(s *session) {
		s.strict = strict
	}
}

func withShuffle(shuffle bool) sessionOption {
	return func(s *session) {
		s.shuffle = shuffle
	}
}

// withEventHandler is called for every race event
func withEventHandler(cb func(event.Event)) sessionOption {
	return func(s *session) {
		s.onEvent = cb
	}
}

//nolint:whitespace // can't make both editor and linter happy
func newSession(
	names []string, current func() settings.Settings, src random.Source,
	opts ...sessionOption,
) *session {
	s := &session{
		names:    names,
		settings: current,
		src:      src,
		onEvent:  func(event.Event) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.director = s.newDirector()
	return s
}

func (s *session) newDirector() *director.Director {
	return director.New(
		director.WithSettings(s.settings()),
		director.WithSource(s.src),
		director.WithStrict(s.strict),
		director.WithShuffle(s.shuffle))
}

// handle applies a key action. It returns false if the session should end.
func (s *session) handle(a view.Action) bool {
	switch a {
	case view.ActionQuit:
		return false
	case view.ActionStart:
		switch s.director.State() {
		case director.PreRace:
		case director.Finished:
			s.director = s.newDirector()
		case director.Countdown, director.Racing:
			return true
		}
		evs, err := s.director.Start(s.names)
		if err != nil {
			log.Warn("could not start race", log.ErrorField(err))
			return true
		}
		s.emit(evs)
	case view.ActionReset:
		s.emit(s.director.Reset())
		s.director = s.newDirector()
	case view.ActionNone:
	}
	return true
}

func (s *session) step() {
	s.emit(s.director.Step())
}

func (s *session) emit(evs []event.Event) {
	for _, ev := range evs {
		log.Debug("race event", log.String("type", ev.Type.String()),
			log.String("entrant", ev.Entrant))
		s.onEvent(ev)
	}
}
