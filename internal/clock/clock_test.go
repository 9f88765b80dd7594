package clock

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) handle(ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

func TestManualEvents(t *testing.T) {
	m := NewManual(1.0)
	rec := &recorder{}
	m.Subscribe("rec", rec.handle)

	m.Ready()
	m.Play()
	m.Advance(0.5)
	m.Seek(0.25)
	m.Pause()
	m.Advance(2)

	assert.Equal(t, []EventType{
		EventReady, EventPlay, EventTimeUpdate, EventSeek, EventPause, EventTimeUpdate, EventFinish,
	}, rec.types())
	assert.Equal(t, 1.0, m.CurrentTime())
	assert.False(t, m.Playing())
}

func TestManualSeekClamps(t *testing.T) {
	m := NewManual(2)
	m.Seek(-3)
	assert.Equal(t, 0.0, m.CurrentTime())
	m.Seek(10)
	assert.Equal(t, 2.0, m.CurrentTime())
}

func TestSubscribeIsIdempotent(t *testing.T) {
	m := NewManual(1)
	first, second := &recorder{}, &recorder{}

	m.Subscribe("k", first.handle)
	m.Subscribe("k", second.handle)
	m.Ready()

	assert.Empty(t, first.types())
	assert.Len(t, second.types(), 1)

	m.Unsubscribe("k")
	m.Unsubscribe("k")
	m.Ready()
	assert.Len(t, second.types(), 1)
}

func TestPlayerRunsToFinish(t *testing.T) {
	p := NewPlayer(0.05, 5*time.Millisecond)
	defer p.Close()

	finished := make(chan Event, 1)
	p.Subscribe("finish", func(ev Event) {
		if ev.Type == EventFinish {
			finished <- ev
		}
	})

	p.Play()
	select {
	case ev := <-finished:
		assert.Equal(t, 0.05, ev.Time)
	case <-time.After(2 * time.Second):
		t.Fatal("player never finished")
	}
	p.Wait()
	assert.Equal(t, 0.05, p.CurrentTime())
}

func TestPlayerPauseHoldsPosition(t *testing.T) {
	p := NewPlayer(10, time.Millisecond)
	rec := &recorder{}
	p.Subscribe("rec", rec.handle)

	p.Play()
	time.Sleep(10 * time.Millisecond)
	p.Pause()
	held := p.CurrentTime()
	time.Sleep(10 * time.Millisecond)

	require.Greater(t, held, 0.0)
	assert.Equal(t, held, p.CurrentTime())

	types := rec.types()
	assert.Equal(t, EventPlay, types[0])
	assert.Equal(t, EventPause, types[len(types)-1])

	p.Stop()
	assert.Equal(t, 0.0, p.CurrentTime())
}
