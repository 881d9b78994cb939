// Package broadcast fans out race messages (events, snapshots) to any number of consumers.
package broadcast

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/mpapenbr/racing-lottery-go/log"
)

// Server distributes every message of a source channel to all subscribers.
// Slow subscribers never block the source: if a subscriber's buffer is full
// the message is skipped for that subscriber.
type Server[T any] interface {
	Subscribe() <-chan T
	Unsubscribe(<-chan T)
	Close()
	Stats() Stats
}

type Stats struct {
	Received  int64
	Sent      int64
	Skipped   int64
	Listeners int64
}

type server[T any] struct {
	name        string
	source      <-chan T
	bufferSize  int
	listeners   []chan T
	subscribe   chan chan T
	unsubscribe chan (<-chan T)
	ctx         context.Context
	cancel      context.CancelFunc
	done        chan struct{}
	numRcv      atomic.Int64
	numSnd      atomic.Int64
	numSkip     atomic.Int64
	numListener atomic.Int64
	telemetry   bool
	log         *log.Logger
}

type Option[T any] func(*server[T])

// WithTelemetry registers observable gauges for the counters
func WithTelemetry[T any]() Option[T] {
	return func(s *server[T]) {
		s.telemetry = true
	}
}

// WithBufferSize sets the channel buffer of each subscriber (default 64)
func WithBufferSize[T any](size int) Option[T] {
	return func(s *server[T]) {
		s.bufferSize = size
	}
}

// New starts a server reading from source. The server stops when source is
// closed or Close is called. All subscriber channels are closed afterwards.
func New[T any](name string, source <-chan T, opts ...Option[T]) Server[T] {
	ctx, cancel := context.WithCancel(context.Background())
	s := &server[T]{
		name:        name,
		source:      source,
		bufferSize:  64,
		subscribe:   make(chan chan T),
		unsubscribe: make(chan (<-chan T)),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
		log:         log.Default().Named("broadcast").With(log.String("name", name)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.telemetry {
		s.setupMetrics()
	}
	go s.serve()
	return s
}

// Subscribe returns a channel receiving all future messages.
// On a stopped server the returned channel is already closed.
func (s *server[T]) Subscribe() <-chan T {
	ch := make(chan T, s.bufferSize)
	select {
	case s.subscribe <- ch:
	case <-s.done:
		close(ch)
	}
	return ch
}

func (s *server[T]) Unsubscribe(ch <-chan T) {
	select {
	case s.unsubscribe <- ch:
	case <-s.done:
	}
}

func (s *server[T]) Close() {
	s.cancel()
	<-s.done
	s.log.Info("broadcast server closed",
		log.Int64("rcv", s.numRcv.Load()),
		log.Int64("snd", s.numSnd.Load()),
		log.Int64("skip", s.numSkip.Load()))
}

func (s *server[T]) Stats() Stats {
	return Stats{
		Received:  s.numRcv.Load(),
		Sent:      s.numSnd.Load(),
		Skipped:   s.numSkip.Load(),
		Listeners: s.numListener.Load(),
	}
}

func (s *server[T]) setupMetrics() {
	meter := otel.GetMeterProvider().Meter(fmt.Sprintf("rly.broadcast.%s", s.name))
	attrs := metric.WithAttributes(attribute.String("name", s.name))
	for _, d := range []struct {
		name  string
		desc  string
		value *atomic.Int64
	}{
		{"rly.broadcast.rcv", "Number of received messages", &s.numRcv},
		{"rly.broadcast.snd", "Number of sent messages", &s.numSnd},
		{"rly.broadcast.skip", "Number of skipped messages", &s.numSkip},
		{"rly.broadcast.listener", "Number of listeners", &s.numListener},
	} {
		value := d.value
		if _, err := meter.Int64ObservableGauge(d.name,
			metric.WithDescription(d.desc),
			metric.WithUnit("{count}"),
			metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
				o.Observe(value.Load(), attrs)
				return nil
			})); err != nil {
			s.log.Error("failed to register metric",
				log.String("metric", d.name), log.ErrorField(err))
		}
	}
}

//nolint:cyclop // by design
func (s *server[T]) serve() {
	defer func() {
		for _, l := range s.listeners {
			close(l)
		}
		s.listeners = nil
		s.numListener.Store(0)
		close(s.done)
	}()
	for {
		select {
		case <-s.ctx.Done():
			return
		case ch := <-s.subscribe:
			s.listeners = append(s.listeners, ch)
			s.numListener.Store(int64(len(s.listeners)))
		case ch := <-s.unsubscribe:
			idx := slices.IndexFunc(s.listeners, func(l chan T) bool { return l == ch })
			if idx >= 0 {
				close(s.listeners[idx])
				s.listeners = slices.Delete(s.listeners, idx, idx+1)
				s.numListener.Store(int64(len(s.listeners)))
			}
		case msg, ok := <-s.source:
			if !ok {
				s.log.Debug("source closed")
				return
			}
			s.numRcv.Add(1)
			for _, l := range s.listeners {
				select {
				case l <- msg:
					s.numSnd.Add(1)
				default:
					s.numSkip.Add(1)
				}
			}
		}
	}
}
