package actions

import (
	"context"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// RunSequence executes ids in order and stops at the first failure, which is
// returned as *FailureError.
func (r *Registry) RunSequence(ctx context.Context, ids ...string) error {
	bound, err := r.lookup(ids)
	if err != nil {
		return err
	}
	for _, b := range bound {
		if err := ctx.Err(); err != nil {
			return errors.Wrap(err, "sequence interrupted")
		}
		if err := b.Run(ctx); err != nil {
			return err
		}
	}
	return nil
}

// RunParallel executes ids concurrently. Every action runs to completion; the
// first failure is returned.
func (r *Registry) RunParallel(ctx context.Context, ids ...string) error {
	bound, err := r.lookup(ids)
	if err != nil {
		return err
	}
	var g errgroup.Group
	for _, b := range bound {
		b := b
		g.Go(func() error { return b.Run(ctx) })
	}
	return g.Wait()
}

func (r *Registry) lookup(ids []string) ([]*BoundAction, error) {
	if len(ids) == 0 {
		return nil, errors.New("no actions given")
	}
	out := make([]*BoundAction, 0, len(ids))
	for _, id := range ids {
		b, ok := r.Action(id)
		if !ok {
			return nil, errors.Errorf("unknown action %q", id)
		}
		out = append(out, b)
	}
	return out, nil
}
