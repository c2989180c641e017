package poll

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestCalculateBackoff(t *testing.T) {
	baseInterval := 2 * time.Second

	tests := []struct {
		name     string
		failures int
		want     time.Duration
	}{
		{"zero failures", 0, 2 * time.Second},
		{"negative failures", -1, 2 * time.Second},
		{"one failure", 1, 4 * time.Second},
		{"two failures", 2, 8 * time.Second},
		{"three failures", 3, 16 * time.Second},
		{"four failures capped", 4, 30 * time.Second}, // 32s before the cap
		{"many failures capped", 10, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calculateBackoff(tt.failures, baseInterval)
			if got != tt.want {
				t.Errorf("calculateBackoff(%d, %v) = %v, want %v", tt.failures, baseInterval, got, tt.want)
			}
		})
	}
}

func TestCalculateBackoff_MaxCap(t *testing.T) {
	baseInterval := 16 * time.Millisecond
	for failures := 0; failures <= 64; failures++ {
		got := calculateBackoff(failures, baseInterval)
		if got > maxBackoff {
			t.Errorf("calculateBackoff(%d, %v) = %v, exceeds maxBackoff %v", failures, baseInterval, got, maxBackoff)
		}
	}
}

func newClock() *FakeClock {
	return NewFakeClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
}

func TestTaskRunsOncePerInterval(t *testing.T) {
	clock := newClock()
	runs := 0
	task := NewTask("frame", 16*time.Millisecond, func() error { runs++; return nil }, WithClock(clock))

	task.Start()
	require.Zero(t, runs, "start must not run the step synchronously")

	clock.Advance(15 * time.Millisecond)
	require.Zero(t, runs)
	clock.Advance(time.Millisecond)
	require.Equal(t, 1, runs)
	clock.Advance(160 * time.Millisecond)
	require.Equal(t, 11, runs)
}

func TestTaskStopCancelsPendingStep(t *testing.T) {
	clock := newClock()
	runs := 0
	task := NewTask("frame", time.Second, func() error { runs++; return nil }, WithClock(clock))

	task.Start()
	task.Start()
	require.Equal(t, 1, clock.Pending())

	clock.Advance(time.Second)
	task.Stop()
	require.False(t, task.Running())
	require.Zero(t, clock.Pending())

	clock.Advance(10 * time.Second)
	require.Equal(t, 1, runs)
}

func TestTaskErrStopEndsTaskAndNotifies(t *testing.T) {
	clock := newClock()
	runs, stops := 0, 0
	task := NewTask("frame", time.Second, func() error {
		runs++
		if runs == 3 {
			return ErrStop
		}
		return nil
	}, WithClock(clock), WithOnStop(func() { stops++ }))

	task.Start()
	clock.Advance(10 * time.Second)

	require.Equal(t, 3, runs)
	require.Equal(t, 1, stops)
	require.False(t, task.Running())
	require.Zero(t, clock.Pending())
}

func TestTaskWrappedErrStop(t *testing.T) {
	clock := newClock()
	task := NewTask("frame", time.Second, func() error {
		return errors.Wrap(ErrStop, "device gone")
	}, WithClock(clock))

	task.Start()
	clock.Advance(time.Second)
	require.False(t, task.Running())
}

func TestTaskBacksOffOnFailure(t *testing.T) {
	clock := newClock()
	var at []time.Duration
	start := clock.Now()
	fail := true
	task := NewTask("rescan", time.Second, func() error {
		at = append(at, clock.Now().Sub(start))
		if fail {
			return errors.New("no device")
		}
		return nil
	}, WithClock(clock))

	task.Start()
	clock.Advance(1 * time.Second) // first attempt at 1s
	clock.Advance(2 * time.Second) // retry after 2s
	clock.Advance(4 * time.Second) // retry after 4s
	require.Equal(t, []time.Duration{time.Second, 3 * time.Second, 7 * time.Second}, at)
	require.Equal(t, 3, task.Failures())

	fail = false
	clock.Advance(8 * time.Second)
	require.Zero(t, task.Failures())
	clock.Advance(time.Second)
	require.Len(t, at, 5)
}

func TestTaskStepMayStopItself(t *testing.T) {
	clock := newClock()
	var task *Task
	runs := 0
	task = NewTask("self", time.Second, func() error {
		runs++
		task.Stop()
		return nil
	}, WithClock(clock))

	task.Start()
	clock.Advance(5 * time.Second)
	require.Equal(t, 1, runs)
	require.False(t, task.Running())
}

func TestFakeClockOrdersTimers(t *testing.T) {
	clock := newClock()
	var order []string
	clock.AfterFunc(2*time.Second, func() { order = append(order, "b") })
	clock.AfterFunc(time.Second, func() { order = append(order, "a") })
	stopped := clock.AfterFunc(time.Second, func() { order = append(order, "never") })
	clock.AfterFunc(2*time.Second, func() { order = append(order, "c") })

	require.True(t, stopped.Stop())
	require.False(t, stopped.Stop())
	clock.Advance(3 * time.Second)

	require.Equal(t, []string{"a", "b", "c"}, order)
	require.Equal(t, 3*time.Second, clock.Now().Sub(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
}
