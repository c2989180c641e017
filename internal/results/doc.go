// Package results stores the lifecycle record of every stage action.
//
// # Overview
//
// There is one Store per stage group. Each action id maps to a StageResult
// that moves idle → running → success|error and is overwritten in place on
// every re-dispatch. Records are never removed.
//
// # Dispatch
//
// A dispatch is split in two so callers can render the running state before
// any I/O happens:
//
//	ticket := store.Begin(id)                       // running, synchronous
//	outcome := store.Complete(ctx, ticket, ep, lbl) // blocks on the call
//
// Dispatch does both. Complete never returns an error: transport failures,
// unparseable bodies, non-2xx statuses and 2xx bodies that report
// metrics_error all become StatusError with a message.
//
// # Generations
//
// Begin bumps a per-store counter and records it as the latest generation for
// the id. Every later write compares the ticket's generation with the latest
// one and is dropped when they differ, so a slow response from an earlier
// dispatch can never overwrite a newer record. Outcome.Stale tells the caller
// its result was discarded.
//
// # Concurrency
//
// A Store is safe for concurrent use. Change hooks run after the lock is
// released and must not assume they run on any particular goroutine.
package results
