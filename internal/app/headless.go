package app

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/five82/stagehand/internal/actions"
	"github.com/five82/stagehand/internal/logtail"
)

// List writes the registry's stages, groups, actions and operations to w.
func List(w io.Writer, reg *actions.Registry) error {
	var sb strings.Builder
	for _, st := range reg.Stages() {
		fmt.Fprintf(&sb, "%s  %s\n", st.ID, st.Title)
		for _, g := range st.Groups {
			fmt.Fprintf(&sb, "  %s\n", g.Title)
			for _, b := range g.Actions {
				d := b.Descriptor()
				fmt.Fprintf(&sb, "    %-32s %-24s %s\n", d.ID, d.Label, d.Endpoint)
			}
		}
	}
	if ops := reg.Operations(); len(ops) > 0 {
		sb.WriteString("operations\n")
		for _, op := range ops {
			d := op.Operation()
			hotkey := "-"
			if d.Key != "" {
				hotkey = d.Key
			}
			fmt.Fprintf(&sb, "    %-12s %-4s %-20s %s\n", d.ID, hotkey, d.Label, d.Endpoint)
		}
	}
	_, err := io.WriteString(w, sb.String())
	return errors.Wrap(err, "write list")
}

// RunActions executes ids against the backend, in order or concurrently.
// A failed action is returned as *actions.FailureError.
func RunActions(ctx context.Context, reg *actions.Registry, ids []string, parallel bool) error {
	if parallel {
		return reg.RunParallel(ctx, ids...)
	}
	return reg.RunSequence(ctx, ids...)
}

// RunOperation executes the operational action id with optional operator text.
func RunOperation(ctx context.Context, reg *actions.Registry, id, text string) error {
	op, ok := reg.Operational(id)
	if !ok {
		return errors.Errorf("unknown operation %q", id)
	}
	return op.ExecuteWith(ctx, text)
}

// Tail writes the last n lines of the operator log at path to w. With
// failuresOnly, only failure blocks are kept, and n counts lines of those.
func Tail(w io.Writer, path string, n int, failuresOnly bool) error {
	limit := n
	if failuresOnly {
		limit = 0
	}
	lines, err := logtail.Read(path, limit)
	if err != nil {
		return err
	}
	if failuresOnly {
		lines = logtail.Failures(lines)
		if n > 0 && len(lines) > n {
			lines = lines[len(lines)-n:]
		}
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return errors.Wrap(err, "write tail")
		}
	}
	return nil
}
