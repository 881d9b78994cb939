// Package sound plays short tones as reaction to race events.
package sound

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"

	"github.com/mpapenbr/racing-lottery-go/pkg/race/event"
)

const sampleRate = beep.SampleRate(44100)

// Tone is a sine tone of a fixed frequency
type Tone struct {
	Freq     float64
	Duration time.Duration
}

var cues = map[event.Type]Tone{
	event.CountdownStarted: {Freq: 440, Duration: 150 * time.Millisecond},
	event.RaceStarted:      {Freq: 880, Duration: 400 * time.Millisecond},
	event.EntrantCrashed:   {Freq: 110, Duration: 120 * time.Millisecond},
	event.EntrantBoosted:   {Freq: 660, Duration: 80 * time.Millisecond},
	event.EntrantFinished:  {Freq: 990, Duration: 100 * time.Millisecond},
	event.RaceFinished:     {Freq: 1320, Duration: 600 * time.Millisecond},
}

// CueFor returns the tone for an event type
func CueFor(t event.Type) (Tone, bool) {
	tone, ok := cues[t]
	return tone, ok
}

// Streamer creates a finite streamer for the tone
func (t Tone) Streamer() (beep.Streamer, error) {
	sine, err := generators.SineTone(sampleRate, t.Freq)
	if err != nil {
		return nil, err
	}
	return beep.Take(sampleRate.N(t.Duration), sine), nil
}

// Player plays event cues on the default audio device
type Player struct {
	mixer *beep.Mixer
}

// NewPlayer initializes the speaker. Returns an error if no audio device is available.
func NewPlayer() (*Player, error) {
	if err := speaker.Init(sampleRate, sampleRate.N(100*time.Millisecond)); err != nil {
		return nil, err
	}
	p := &Player{mixer: &beep.Mixer{}}
	speaker.Play(p.mixer)
	return p, nil
}

// Play queues the cue of ev, events without cue are ignored
func (p *Player) Play(ev event.Event) {
	tone, ok := CueFor(ev.Type)
	if !ok {
		return
	}
	s, err := tone.Streamer()
	if err != nil {
		return
	}
	speaker.Lock()
	p.mixer.Add(s)
	speaker.Unlock()
}

func (p *Player) Close() {
	speaker.Close()
}
