// Package actions binds catalog entries to the stage client, their result
// store and the operator log.
//
// A BoundAction's Execute always resolves: failures are recorded in the
// StageResult and in a ❌ summary block. Composed runs (RunSequence,
// RunParallel) turn an error status back into a *FailureError so a chain can
// stop or report it. Operational actions are fire-and-log calls with no
// result tracking.
package actions
