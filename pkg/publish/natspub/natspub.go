// Package natspub publishes race events and snapshots to NATS.
//
// Subjects:
//
//	<prefix>.<raceId>.event.<type>
//	<prefix>.<raceId>.snapshot
package natspub

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/mpapenbr/racing-lottery-go/log"
	"github.com/mpapenbr/racing-lottery-go/pkg/publish"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/director"
	"github.com/mpapenbr/racing-lottery-go/pkg/race/event"
)

// Conn is the part of *nats.Conn used by the publisher
type Conn interface {
	Publish(subj string, data []byte) error
	Flush() error
}

type Publisher struct {
	conn   Conn
	prefix string
	l      *log.Logger
}

type Option func(*Publisher)

func WithPrefix(prefix string) Option {
	return func(p *Publisher) {
		p.prefix = prefix
	}
}

func WithLogger(l *log.Logger) Option {
	return func(p *Publisher) {
		p.l = l
	}
}

// Connect dials the NATS server at url
func Connect(url string) (*nats.Conn, error) {
	conn, err := nats.Connect(url, nats.Name("rly"))
	if err != nil {
		return nil, fmt.Errorf("could not connect to nats at %s: %w", url, err)
	}
	return conn, nil
}

func New(conn Conn, opts ...Option) *Publisher {
	ret := &Publisher{
		conn:   conn,
		prefix: "rly.race",
		l:      log.Default().Named("nats"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (p *Publisher) EventSubject(ev event.Event) string {
	return fmt.Sprintf("%s.%s.event.%s", p.prefix, ev.RaceID, ev.Type)
}

func (p *Publisher) SnapshotSubject(raceID string) string {
	return fmt.Sprintf("%s.%s.snapshot", p.prefix, raceID)
}

func (p *Publisher) PublishEvent(ev event.Event) error {
	return p.conn.Publish(p.EventSubject(ev), publish.EventJSON(ev))
}

func (p *Publisher) PublishSnapshot(snap director.Snapshot) error {
	return p.conn.Publish(p.SnapshotSubject(snap.RaceID), publish.SnapshotJSON(snap))
}

// Forward publishes everything received on events and snapshots until both
// channels are closed or ctx is done. Either channel may be nil.
func (p *Publisher) Forward(
	ctx context.Context,
	events <-chan event.Event,
	snapshots <-chan director.Snapshot,
) {
	defer func() {
		if err := p.conn.Flush(); err != nil {
			p.l.Warn("flush failed", log.ErrorField(err))
		}
	}()
	for events != nil || snapshots != nil {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if err := p.PublishEvent(ev); err != nil {
				p.l.Error("could not publish event",
					log.String("type", ev.Type.String()), log.ErrorField(err))
			}
		case snap, ok := <-snapshots:
			if !ok {
				snapshots = nil
				continue
			}
			if err := p.PublishSnapshot(snap); err != nil {
				p.l.Error("could not publish snapshot", log.ErrorField(err))
			}
		}
	}
}
