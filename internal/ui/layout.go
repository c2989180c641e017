package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the width below which chips show status glyphs
	// without labels.
	LayoutCompactWidth = 80
)

// Log display limits.
const (
	// LogBufferLimit is the number of operator log lines kept in the viewport.
	LogBufferLimit = 5000

	// minLogHeight keeps the log pane usable on short terminals.
	minLogHeight = 4
)

// DefaultUIInterval is the default refresh interval for elapsed timers.
const DefaultUIInterval = time.Second
