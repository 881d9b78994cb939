package broadcast

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(time.Second):
		require.FailNow(t, "timeout waiting for message")
	}
	var zero T
	return zero
}

func TestFanOut(t *testing.T) {
	source := make(chan int)
	s := New("test", source)
	defer s.Close()

	a := s.Subscribe()
	b := s.Subscribe()
	source <- 1
	source <- 2
	assert.Equal(t, 1, receive(t, a))
	assert.Equal(t, 2, receive(t, a))
	assert.Equal(t, 1, receive(t, b))
	assert.Equal(t, 2, receive(t, b))

	s.Unsubscribe(a)
	_, ok := <-a
	assert.False(t, ok, "unsubscribed channel is closed")

	source <- 3
	assert.Equal(t, 3, receive(t, b))
	assert.Eventually(t, func() bool {
		st := s.Stats()
		return st.Received == 3 && st.Sent == 5 && st.Listeners == 1
	}, time.Second, 10*time.Millisecond)
}

func TestSlowSubscriberIsSkipped(t *testing.T) {
	source := make(chan int)
	s := New("slow", source, WithBufferSize[int](1), WithTelemetry[int]())
	defer s.Close()

	slow := s.Subscribe()
	source <- 1
	source <- 2 // buffer full, skipped
	source <- 3
	assert.Equal(t, 1, receive(t, slow))
	assert.Eventually(t, func() bool { return s.Stats().Skipped == 2 },
		time.Second, 10*time.Millisecond)
}

func TestSourceClosed(t *testing.T) {
	source := make(chan string)
	s := New("closing", source)
	sub := s.Subscribe()
	close(source)

	select {
	case _, ok := <-sub:
		assert.False(t, ok)
	case <-time.After(time.Second):
		require.FailNow(t, "subscriber not closed")
	}
	_, ok := <-s.Subscribe()
	assert.False(t, ok, "subscribing to a stopped server returns a closed channel")
	s.Close()
}
