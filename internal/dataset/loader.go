package dataset

import (
	"context"
	"math/rand"

	"github.com/pkg/errors"

	"scenegan/internal/tensor"
)

const defaultShuffleBuffer = 256

// LoaderOptions configures a Loader.
type LoaderOptions struct {
	Roots         map[string][]string
	BatchSize     int
	NumWorkers    int
	Seed          int64
	ImageSize     int
	Channels      int
	ShuffleBuffer int
}

// Loader yields shuffled [B, C, H, W] batches of real images, one pass per
// epoch. The final batch of a pass may be smaller than BatchSize.
type Loader struct {
	opts   LoaderOptions
	decode Decoder
	images int
}

// NewLoader validates opts and counts the images available.
func NewLoader(opts LoaderOptions) (*Loader, error) {
	if opts.BatchSize <= 0 {
		return nil, errors.Errorf("loader: batch size must be > 0 (got %d)", opts.BatchSize)
	}
	if opts.ShuffleBuffer <= 0 {
		opts.ShuffleBuffer = defaultShuffleBuffer
	}
	decode, err := NewImageDecoder(opts.ImageSize, opts.Channels)
	if err != nil {
		return nil, err
	}
	var shards []string
	for _, s := range opts.Roots {
		shards = append(shards, s...)
	}
	if len(shards) == 0 {
		return nil, errors.New("loader: no shards discovered")
	}
	n, err := CountImages(shards)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, errors.New("loader: shards contain no images")
	}
	return &Loader{opts: opts, decode: decode, images: n}, nil
}

// Len returns the number of images per pass. It is an estimate from image
// headers until the first complete pass, and exact afterwards.
func (l *Loader) Len() int {
	return l.images
}

// NumBatches returns the number of batches per pass.
func (l *Loader) NumBatches() int {
	return (l.images + l.opts.BatchSize - 1) / l.opts.BatchSize
}

// Iterate makes one pass over the data, calling fn for each batch in order.
// It stops at the first error from the sampler or from fn.
func (l *Loader) Iterate(ctx context.Context, epoch int, fn func(batch *tensor.Tensor) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	seed := l.opts.Seed + int64(epoch)
	samples, errs, err := StartSampler(ctx, SamplerOptions{
		Roots:      l.opts.Roots,
		Seed:       seed,
		NumWorkers: l.opts.NumWorkers,
		Decode:     l.decode,
	})
	if err != nil {
		return err
	}

	rng := rand.New(rand.NewSource(seed))
	shuffle := make([]*tensor.Tensor, 0, l.opts.ShuffleBuffer)
	batch := make([]*tensor.Tensor, 0, l.opts.BatchSize)
	emit := func(t *tensor.Tensor) error {
		batch = append(batch, t)
		if len(batch) < l.opts.BatchSize {
			return nil
		}
		err := fn(tensor.Stack(batch))
		batch = batch[:0]
		return err
	}

	yielded := 0
	errsOpen := true
	for done := false; !done; {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-errs:
			if !ok {
				errsOpen = false
				errs = nil
				continue
			}
			if err != nil {
				return err
			}
		case sample, ok := <-samples:
			if !ok {
				done = true
				continue
			}
			yielded++
			if len(shuffle) < cap(shuffle) {
				shuffle = append(shuffle, sample.Pixels)
				continue
			}
			i := rng.Intn(len(shuffle))
			next := shuffle[i]
			shuffle[i] = sample.Pixels
			if err := emit(next); err != nil {
				return err
			}
		}
	}
	if errsOpen {
		for err := range errs {
			if err != nil {
				return err
			}
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	l.images = yielded

	rng.Shuffle(len(shuffle), func(i, j int) { shuffle[i], shuffle[j] = shuffle[j], shuffle[i] })
	for _, t := range shuffle {
		if err := emit(t); err != nil {
			return err
		}
	}
	if len(batch) > 0 {
		return fn(tensor.Stack(batch))
	}
	return nil
}
