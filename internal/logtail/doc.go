// Package logtail reads the tail of the operator log mirror file.
//
// # Reading Log Files
//
// Read keeps a ring buffer of maxLines entries and scans the file once, so
// memory stays O(maxLines) regardless of file size. Lines come back in file
// order. A missing file yields no lines and no error; other I/O errors are
// returned wrapped.
//
//	lines, err := logtail.Read(cfg.OperatorLogPath(), 200)
//
// # Failure Filter
//
// Failures narrows a slice of operator log lines to the failure blocks: each
// timestamped entry carrying the failure glyph together with the detail lines
// appended beneath it, up to the next timestamped entry.
package logtail
