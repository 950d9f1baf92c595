package dataset

import (
	"context"
	"math/rand"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// SamplerOptions configures the multi-root sampler.
type SamplerOptions struct {
	Roots      map[string][]string
	Seed       int64
	NumWorkers int
	Decode     Decoder
}

// StartSampler launches one pass over every shard. Shards are visited in a
// seeded round-robin order across roots and opened by NumWorkers workers; the
// output preserves that order. Both channels close when the pass ends.
func StartSampler(parent context.Context, opts SamplerOptions) (<-chan Sample, <-chan error, error) {
	if len(opts.Roots) == 0 {
		return nil, nil, errors.New("sampler: no dataset roots provided")
	}
	total := 0
	for _, shards := range opts.Roots {
		total += len(shards)
	}
	if total == 0 {
		return nil, nil, errors.New("sampler: no shards discovered")
	}
	if opts.NumWorkers <= 0 {
		opts.NumWorkers = 1
	}

	ctx, cancel := context.WithCancel(parent)

	jobs := make(chan shardJob, opts.NumWorkers)
	cursors := make(chan shardCursor, opts.NumWorkers)
	out := make(chan Sample, opts.NumWorkers*2)
	errCh := make(chan error, opts.NumWorkers)

	rng := rand.New(rand.NewSource(opts.Seed))

	go produceJobs(ctx, jobs, buildRoundRobinOrder(opts.Roots, rng))

	var wg sync.WaitGroup
	for i := 0; i < opts.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			worker(ctx, jobs, cursors, opts.Decode)
		}()
	}

	go func() {
		wg.Wait()
		close(cursors)
	}()

	go func() {
		defer cancel()
		defer close(out)
		defer close(errCh)
		runAggregator(ctx, cursors, out, errCh)
	}()

	return out, errCh, nil
}

type shardJob struct {
	id   int64
	root string
	path string
}

type shardCursor struct {
	id      int64
	samples <-chan Sample
	errCh   <-chan error
}

func worker(ctx context.Context, jobs <-chan shardJob, cursors chan<- shardCursor, decode Decoder) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			samples, errCh := StreamShard(ctx, job.path, decode)
			cursor := shardCursor{id: job.id, samples: samples, errCh: errCh}
			select {
			case <-ctx.Done():
				return
			case cursors <- cursor:
			}
		}
	}
}

// runAggregator forwards shard streams in job order.
func runAggregator(ctx context.Context, cursors <-chan shardCursor, out chan<- Sample, errCh chan<- error) {
	pending := make(map[int64]shardCursor)
	var nextID int64
	for {
		cursor, ok := pending[nextID]
		if !ok {
			select {
			case <-ctx.Done():
				return
			case c, open := <-cursors:
				if !open {
					return
				}
				pending[c.id] = c
			}
			continue
		}

		if err := drainCursor(ctx, cursor, out); err != nil {
			if !errors.Is(err, context.Canceled) {
				errCh <- err
			}
			return
		}
		delete(pending, nextID)
		nextID++
	}
}

func drainCursor(ctx context.Context, cursor shardCursor, out chan<- Sample) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sample, ok := <-cursor.samples:
			if !ok {
				return <-cursor.errCh
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case out <- sample:
			}
		}
	}
}

func produceJobs(ctx context.Context, jobs chan<- shardJob, order []orderEntry) {
	defer close(jobs)
	for id, entry := range order {
		select {
		case <-ctx.Done():
			return
		case jobs <- shardJob{id: int64(id), root: entry.root, path: entry.path}:
		}
	}
}

type orderEntry struct {
	root string
	path string
}

func buildRoundRobinOrder(roots map[string][]string, rng *rand.Rand) []orderEntry {
	rootNames := make([]string, 0, len(roots))
	copied := make(map[string][]string, len(roots))
	for root, shards := range roots {
		if len(shards) == 0 {
			continue
		}
		rootNames = append(rootNames, root)
		copied[root] = append([]string(nil), shards...)
	}
	sort.Strings(rootNames)
	if rng != nil {
		for _, root := range rootNames {
			shards := copied[root]
			rng.Shuffle(len(shards), func(i, j int) {
				shards[i], shards[j] = shards[j], shards[i]
			})
		}
	}
	var order []orderEntry
	for {
		advanced := false
		for _, root := range rootNames {
			shards := copied[root]
			if len(shards) == 0 {
				continue
			}
			order = append(order, orderEntry{root: root, path: shards[0]})
			copied[root] = shards[1:]
			advanced = true
		}
		if !advanced {
			break
		}
	}
	return order
}
