package sound

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/racing-lottery-go/pkg/race/event"
)

func TestCueFor(t *testing.T) {
	for _, typ := range []event.Type{
		event.CountdownStarted, event.RaceStarted, event.EntrantCrashed,
		event.EntrantBoosted, event.EntrantFinished, event.RaceFinished,
	} {
		_, ok := CueFor(typ)
		assert.True(t, ok, typ.String())
	}
	_, ok := CueFor(event.ItemSpawned)
	assert.False(t, ok)
}

func TestTone_Streamer(t *testing.T) {
	tone := Tone{Freq: 440, Duration: 10 * time.Millisecond}
	s, err := tone.Streamer()
	require.NoError(t, err)

	buf := make([][2]float64, 1024)
	total := 0
	for {
		n, ok := s.Stream(buf)
		total += n
		if !ok || n == 0 {
			break
		}
		for _, sample := range buf[:n] {
			assert.LessOrEqual(t, sample[0], 1.0)
			assert.GreaterOrEqual(t, sample[0], -1.0)
		}
	}
	assert.Equal(t, sampleRate.N(10*time.Millisecond), total)

	_, err = Tone{Freq: 30000, Duration: time.Millisecond}.Streamer()
	assert.Error(t, err, "frequency above nyquist")
}
