package runner

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/racing-lottery-go/log"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/director"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/event"
)

var names = []string{"Anna", "Bob", "Chris", "Dana"}

func quiet() *log.Logger {
	return log.New(io.Discard, log.InfoLevel)
}

func newDirector(seed int64) *director.Director {
	return director.New(director.WithSeed(seed), director.WithLogger(quiet()))
}

func TestRun_AsFastAsPossible(t *testing.T) {
	events := make(chan event.Event)
	snapshots := make(chan director.Snapshot)
	r := New(newDirector(1),
		WithSpeed(0),
		WithEvents(events),
		WithSnapshots(snapshots, 100),
		WithLogger(quiet()))

	var got []event.Event
	var snaps []director.Snapshot
	wg := sync.WaitGroup{}
	wg.Add(2)
	go func() {
		defer wg.Done()
		for ev := range events {
			got = append(got, ev)
		}
	}()
	go func() {
		defer wg.Done()
		for s := range snapshots {
			snaps = append(snaps, s)
		}
	}()

	res, err := r.Run(context.Background(), names)
	close(events)
	close(snapshots)
	wg.Wait()
	require.NoError(t, err)

	assert.NotEmpty(t, res.RaceID)
	assert.NotEmpty(t, res.Winner)
	assert.Len(t, res.Standings, len(names))
	assert.Equal(t, res.Winner, res.Standings[0].Name)
	assert.Positive(t, res.Ticks)

	require.NotEmpty(t, got)
	assert.Equal(t, event.CountdownStarted, got[0].Type)
	assert.Equal(t, event.RaceFinished, got[len(got)-1].Type)
	assert.Len(t, event.Filter(got, event.EntrantFinished), len(names))

	require.NotEmpty(t, snaps)
	last := snaps[len(snaps)-1]
	assert.Equal(t, director.Finished, last.State)
	assert.Equal(t, res.Winner, last.Winner)
}

func TestRun_SameSeedSameResult(t *testing.T) {
	run := func() []string {
		res, err := New(newDirector(99), WithSpeed(0), WithLogger(quiet())).
			Run(context.Background(), names)
		require.NoError(t, err)
		ret := []string{}
		for _, s := range res.Standings {
			ret = append(ret, s.Name)
		}
		return ret
	}
	assert.Equal(t, run(), run())
}

func TestRun_Cancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	d := newDirector(1)
	_, err := New(d, WithSpeed(1), WithLogger(quiet())).Run(ctx, names)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotEqual(t, director.Finished, d.State())
}

func TestRun_StartError(t *testing.T) {
	_, err := New(newDirector(1), WithSpeed(0), WithLogger(quiet())).Run(context.Background(), nil)
	require.ErrorIs(t, err, director.ErrNoContestants)
}
