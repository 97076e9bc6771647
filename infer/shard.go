package infer

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/siegeai/siegeschema/merge"
	"github.com/siegeai/siegeschema/schema"
)

// InferSharded splits samples into at most shards contiguous runs, builds each run on its
// own goroutine and merges the products. Every sample must be a JSON object.
func InferSharded(ctx context.Context, samples [][]byte, shards int, cfg Config) (*schema.ObjectSchema, error) {
	if len(samples) == 0 {
		return schema.NewObject(), nil
	}
	shards = max(1, min(shards, len(samples)))
	size := (len(samples) + shards - 1) / shards

	products := make([]schema.Schema, 0, shards)
	for lo := 0; lo < len(samples); lo += size {
		products = append(products, nil)
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := range products {
		lo := i * size
		hi := min(lo+size, len(samples))
		g.Go(func() error {
			b := NewBuilder(cfg)
			for j := lo; j < hi; j++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := b.AddSampleBytes(samples[j]); err != nil {
					return fmt.Errorf("sample %d: %w", j, err)
				}
			}
			products[i] = b.Produce()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return merge.All(products...).AsObject(), nil
}
