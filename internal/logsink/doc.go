// Package logsink holds the operator log: an append-only buffer of
// timestamped, symbol-tagged lines shared by every dispatched action.
//
// Each call to Append, Block or Log is atomic with respect to other calls, so
// concurrent actions may interleave their lines but never split one call's
// output. Lines are optionally mirrored to a file for `stagehand tail`.
package logsink
