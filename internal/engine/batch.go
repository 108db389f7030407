package engine

import (
	"context"

	"golang.org/x/sync/errgroup"

	"credence/internal/rules"
)

// EvalSet runs Infer for every source against one shared knowledge
// base, concurrently. The KB is immutable so no locking is needed;
// results line up with sources by index. The first context error
// cancels the rest.
func EvalSet(ctx context.Context, kb *rules.KnowledgeBase, sources []Source, opts ...Option) ([]*Result, error) {
	results := make([]*Result, len(sources))
	g, ctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			res, err := Infer(ctx, kb, src, opts...)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
