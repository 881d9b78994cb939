package natspub

import (
	"context"
	"io"
	"sync"
	"testing"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpapenbr/racing-lottery-go/log"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/director"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/event"
)

type msg struct {
	subject string
	data    []byte
}

type recorder struct {
	mu      sync.Mutex
	msgs    []msg
	flushed int
}

func (r *recorder) Publish(subj string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg{subj, data})
	return nil
}

func (r *recorder) Flush() error {
	r.flushed++
	return nil
}

func TestSubjects(t *testing.T) {
	p := New(&recorder{}, WithPrefix("test"))
	assert.Equal(t, "test.abc.event.race-start",
		p.EventSubject(event.Event{Type: event.RaceStarted, RaceID: "abc"}))
	assert.Equal(t, "test.abc.snapshot", p.SnapshotSubject("abc"))
}

func TestForward(t *testing.T) {
	rec := &recorder{}
	p := New(rec, WithLogger(log.New(io.Discard, log.InfoLevel)))
	events := make(chan event.Event)
	snapshots := make(chan director.Snapshot)
	done := make(chan struct{})
	go func() {
		p.Forward(context.Background(), events, snapshots)
		close(done)
	}()
	events <- event.Event{Type: event.EntrantCrashed, RaceID: "r", Entrant: "Bob", Cause: "hazard"}
	snapshots <- director.Snapshot{RaceID: "r", State: director.Racing}
	close(events)
	close(snapshots)
	<-done

	require.Len(t, rec.msgs, 2)
	assert.Equal(t, "rly.race.r.event.entrant-crashed", rec.msgs[0].subject)
	obj, err := oj.Parse(rec.msgs[0].data)
	require.NoError(t, err)
	assert.Equal(t, "hazard", jp.C("cause").First(obj))

	assert.Equal(t, "rly.race.r.snapshot", rec.msgs[1].subject)
	assert.Equal(t, 1, rec.flushed)
}
