package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewScheduler(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(newFakeStore(), &fakeMarket{}, &fakeNotifier{})
	s, err := NewScheduler(eng, 5*time.Minute, time.Hour, quietLogger())
	require.NoError(t, err)
	assert.Len(t, s.Entries(), 2)
}

func TestSchedulerStartStop(t *testing.T) {
	t.Parallel()

	eng := newTestEngine(newFakeStore(), &fakeMarket{}, &fakeNotifier{})
	s, err := NewScheduler(eng, time.Hour, time.Hour, quietLogger())
	require.NoError(t, err)

	s.Start()
	ctx := s.Stop()
	select {
	case <-ctx.Done():
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop in time")
	}
}

func TestRunLockedSkipsWhenHeldElsewhere(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	fs.locks["poll"] = "other-replica"

	eng := newTestEngine(fs, &fakeMarket{}, &fakeNotifier{})
	s, err := NewScheduler(eng, time.Minute, time.Hour, quietLogger())
	require.NoError(t, err)

	ran := false
	s.runLocked("poll", time.Minute, func(context.Context) error {
		ran = true
		return nil
	})
	assert.False(t, ran)
	assert.Equal(t, "other-replica", fs.locks["poll"], "lock is left untouched")
}

func TestRunLockedAcquiresAndReleases(t *testing.T) {
	t.Parallel()

	fs := newFakeStore()
	eng := newTestEngine(fs, &fakeMarket{}, &fakeNotifier{})
	s, err := NewScheduler(eng, time.Minute, time.Hour, quietLogger())
	require.NoError(t, err)

	ran := false
	s.runLocked("poll", time.Minute, func(context.Context) error {
		ran = true
		assert.Contains(t, fs.locks, "poll", "lock held during the job")
		return nil
	})
	assert.True(t, ran)
	assert.NotContains(t, fs.locks, "poll", "lock released after the job")
}
