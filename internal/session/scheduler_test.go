package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu   sync.Mutex
	ids  []string
	done chan string
}

func newRecorder() *recorder {
	return &recorder{done: make(chan string, 16)}
}

func (r *recorder) cleanup(_ context.Context, id string) error {
	r.mu.Lock()
	r.ids = append(r.ids, id)
	r.mu.Unlock()
	r.done <- id
	return nil
}

func (r *recorder) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ids...)
}

func TestScheduler_Fires(t *testing.T) {
	rec := newRecorder()
	s := NewScheduler(rec.cleanup, 5*time.Millisecond)
	defer s.Stop()

	s.Schedule("tok")
	select {
	case id := <-rec.done:
		assert.Equal(t, "tok", id)
	case <-time.After(time.Second):
		t.Fatal("cleanup did not fire")
	}
	assert.Equal(t, 0, s.Pending())
}

func TestScheduler_CancelPreventsCleanup(t *testing.T) {
	rec := newRecorder()
	s := NewScheduler(rec.cleanup, 20*time.Millisecond)
	defer s.Stop()

	s.Schedule("tok")
	assert.True(t, s.Cancel("tok"))
	assert.False(t, s.Cancel("tok"))

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, rec.calls())
}

func TestScheduler_RescheduleRearms(t *testing.T) {
	rec := newRecorder()
	s := NewScheduler(rec.cleanup, 30*time.Millisecond)
	defer s.Stop()

	s.Schedule("tok")
	s.Schedule("tok")
	assert.Equal(t, 1, s.Pending())

	select {
	case <-rec.done:
	case <-time.After(time.Second):
		t.Fatal("cleanup did not fire")
	}
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []string{"tok"}, rec.calls())
}

func TestScheduler_StopCancelsAll(t *testing.T) {
	rec := newRecorder()
	s := NewScheduler(rec.cleanup, 20*time.Millisecond)

	s.Schedule("a")
	s.Schedule("b")
	require.Equal(t, 2, s.Pending())

	s.Stop()
	assert.Equal(t, 0, s.Pending())

	s.Schedule("c")
	assert.Equal(t, 0, s.Pending())

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, rec.calls())
}

func TestScheduler_StopAbortsRunningCleanup(t *testing.T) {
	started := make(chan struct{})
	s := NewScheduler(func(ctx context.Context, _ string) error {
		close(started)
		<-ctx.Done()
		return ctx.Err()
	}, time.Millisecond)

	s.Schedule("tok")
	<-started
	s.Stop()
}

func TestScheduler_OnCleanupHook(t *testing.T) {
	type outcome struct {
		id  string
		err error
	}
	got := make(chan outcome, 1)
	boom := errors.New("backend gone")

	s := NewScheduler(func(context.Context, string) error { return boom }, time.Millisecond,
		WithCleanupTimeout(time.Second),
		WithOnCleanup(func(id string, err error) { got <- outcome{id, err} }),
	)
	defer s.Stop()

	s.Schedule("tok")
	select {
	case o := <-got:
		assert.Equal(t, "tok", o.id)
		assert.ErrorIs(t, o.err, boom)
	case <-time.After(time.Second):
		t.Fatal("hook not called")
	}
}

func TestNewScheduler_DefaultDelay(t *testing.T) {
	s := NewScheduler(func(context.Context, string) error { return nil }, 0)
	defer s.Stop()
	assert.Equal(t, DefaultCleanupAfter, s.after)
}
