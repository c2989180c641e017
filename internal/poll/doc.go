// Package poll provides a periodic task with exponential backoff, driven by a
// replaceable Clock.
//
// A Task never runs its step synchronously from Start; the first step runs one
// interval later on the clock's goroutine. Steps that fail are retried after
// calculateBackoff(failures, interval), capped at 30 seconds, and a step that
// returns ErrStop ends the task cleanly.
//
// Tests drive tasks with FakeClock, whose Advance runs due callbacks on the
// calling goroutine:
//
//	clock := poll.NewFakeClock(start)
//	task := poll.NewTask("frame", 16*time.Millisecond, step, poll.WithClock(clock))
//	task.Start()
//	clock.Advance(160 * time.Millisecond) // ten frames
package poll
