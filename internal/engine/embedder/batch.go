package embedder

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// EmbedAll embeds texts in fixed-size batches, running up to workers batches
// at once. Each batch writes only its own slots of the result, so the output
// is identical to a sequential run.
func EmbedAll(ctx context.Context, emb Embedder, texts []string, batchSize, workers int) ([][]float32, error) {
	if batchSize <= 0 {
		batchSize = 32
	}
	if workers <= 0 {
		workers = 1
	}

	out := make([][]float32, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for start := 0; start < len(texts); start += batchSize {
		end := min(start+batchSize, len(texts))
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			vecs, err := emb.EmbedBatch(texts[start:end])
			if err != nil {
				return fmt.Errorf("embedder: batch [%d:%d]: %w", start, end, err)
			}
			if len(vecs) != end-start {
				return fmt.Errorf("embedder: batch [%d:%d] returned %d vectors", start, end, len(vecs))
			}
			for i, v := range vecs {
				if len(v) != emb.Dim() {
					return fmt.Errorf("embedder: vector %d has dim %d, want %d", start+i, len(v), emb.Dim())
				}
			}
			copy(out[start:end], vecs)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
