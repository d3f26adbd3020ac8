package services

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"arkman.dev/cli/internal/core/fleet"
)

// DefaultConcurrency bounds how many servers are contacted at once.
const DefaultConcurrency = 4

// forEachServer runs fn for every server with at most limit calls in
// flight. fn records its own outcome at index i, so one server failing never
// stops the others.
func forEachServer(ctx context.Context, servers []fleet.Server, limit int, fn func(ctx context.Context, i int, server fleet.Server)) {
	var g errgroup.Group
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, server := range servers {
		g.Go(func() error {
			fn(ctx, i, server)
			return nil
		})
	}
	_ = g.Wait()
}

func newOperationID() string {
	return uuid.NewString()
}
