package trainer

import (
	"context"
	"math/rand"
	"os"
	"time"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"scenegan/internal/artifact"
	"scenegan/internal/autograd"
	"scenegan/internal/checkpoint"
	"scenegan/internal/metrics"
	"scenegan/internal/model"
	"scenegan/internal/objective"
	"scenegan/internal/optim"
	"scenegan/internal/sampling"
	"scenegan/internal/tensor"
)

const (
	generatorName     = "netG"
	discriminatorName = "netD"
)

// DataSource yields batches of real images in [-1, 1], shaped [B, C, H, W].
// Batch order is the source's concern.
type DataSource interface {
	NumBatches() int
	Iterate(ctx context.Context, epoch int, fn func(batch *tensor.Tensor) error) error
}

// RunConfig captures the knobs required by the training loop.
type RunConfig struct {
	Epochs        int
	LatentDim     int
	OutDir        string
	SnapshotEvery int
	Seed          int64
	RunID         string

	LRD   float64
	LRG   float64
	Beta1 float64
	Beta2 float64
}

// Trainer drives epochs over a data source, logging every batch, writing
// sample grids periodically and checkpoints after every epoch.
type Trainer struct {
	cfg        RunConfig
	source     DataSource
	step       *Step
	fixedNoise *tensor.Tensor
}

// New initializes both networks from cfg.Seed, draws the fixed noise and
// binds the optimizers. Misconfiguration is reported before any training.
func New(cfg RunConfig, gen, disc model.Network, obj objective.Objective, source DataSource) (*Trainer, error) {
	if cfg.Epochs <= 0 {
		return nil, errors.Errorf("trainer: epochs must be > 0 (got %d)", cfg.Epochs)
	}
	if cfg.LatentDim <= 0 {
		return nil, errors.Errorf("trainer: latent dimension must be > 0 (got %d)", cfg.LatentDim)
	}
	if source == nil {
		return nil, errors.New("trainer: data source is required")
	}
	if gen == nil || disc == nil || obj == nil {
		return nil, errors.New("trainer: generator, discriminator and objective are required")
	}
	if cfg.OutDir == "" {
		return nil, errors.New("trainer: output directory is required")
	}
	if cfg.SnapshotEvery <= 0 {
		cfg.SnapshotEvery = 100
	}
	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "trainer: create output directory")
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	gen.Init(rng)
	disc.Init(rng)

	optD, err := optim.NewAdam(disc.Parameters(), cfg.LRD, cfg.Beta1, cfg.Beta2)
	if err != nil {
		return nil, errors.Wrap(err, "trainer: discriminator optimizer")
	}
	optG, err := optim.NewAdam(gen.Parameters(), cfg.LRG, cfg.Beta1, cfg.Beta2)
	if err != nil {
		return nil, errors.Wrap(err, "trainer: generator optimizer")
	}

	noise := sampling.NewNoiseSource(rng.Int63())
	return &Trainer{
		cfg:        cfg,
		source:     source,
		fixedNoise: noise.Sample(sampling.FixedNoiseSize, cfg.LatentDim),
		step: &Step{
			Generator:     gen,
			Discriminator: disc,
			OptG:          optG,
			OptD:          optD,
			Objective:     obj,
			Noise:         noise,
			LatentDim:     cfg.LatentDim,
		},
	}, nil
}

// Run executes the training workload. Any error aborts the run; checkpoints
// of completed epochs stay on disk.
func (t *Trainer) Run(ctx context.Context) error {
	batches := t.source.NumBatches()
	for epoch := 0; epoch < t.cfg.Epochs; epoch++ {
		var window metrics.Window
		i := 0
		startData := time.Now()
		err := t.source.Iterate(ctx, epoch, func(real *tensor.Tensor) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			dataTime := time.Since(startData)

			startCompute := time.Now()
			m, err := t.step.Run(real)
			if err != nil {
				return errors.Wrapf(err, "epoch %d batch %d", epoch, i)
			}
			window.Record(real.Dim(0), dataTime, time.Since(startCompute), m)

			klog.InfoS("batch",
				"epoch", epoch,
				"epochs", t.cfg.Epochs,
				"batch", i,
				"batches", batches,
				"loss_d", m.LossD,
				"loss_g", m.LossG,
				"d_x", m.DX,
				"d_g_z1", m.DGZ1,
				"d_g_z2", m.DGZ2,
			)

			if i%t.cfg.SnapshotEvery == 0 {
				if err := t.snapshot(real, epoch); err != nil {
					return err
				}
			}
			i++
			startData = time.Now()
			return nil
		})
		if err != nil {
			return err
		}

		snap := window.Snapshot()
		klog.InfoS("epoch complete",
			"epoch", epoch,
			"steps", snap.Steps,
			"mean_loss_d", snap.MeanLossD,
			"mean_loss_g", snap.MeanLossG,
			"images_per_sec", snap.ImagesPerSec,
			"data_ms", snap.AvgDataMS,
			"compute_ms", snap.AvgComputeMS,
		)

		if err := t.checkpoint(epoch); err != nil {
			return err
		}
	}
	return nil
}

// FixedNoise returns a copy of the latents used for sample grids.
func (t *Trainer) FixedNoise() *tensor.Tensor {
	return t.fixedNoise.Clone()
}

func (t *Trainer) snapshot(real *tensor.Tensor, epoch int) error {
	if err := artifact.SaveGrid(artifact.RealSamplesPath(t.cfg.OutDir), real); err != nil {
		return errors.Wrap(err, "trainer: real samples")
	}
	fake := t.step.Generator.Forward(autograd.Constant(t.fixedNoise)).Primary
	if err := artifact.SaveGrid(artifact.FakeSamplesPath(t.cfg.OutDir, epoch), fake.Value); err != nil {
		return errors.Wrap(err, "trainer: fake samples")
	}
	return nil
}

func (t *Trainer) checkpoint(epoch int) error {
	for _, net := range []struct {
		name string
		m    model.Network
	}{
		{generatorName, t.step.Generator},
		{discriminatorName, t.step.Discriminator},
	} {
		path := artifact.CheckpointPath(t.cfg.OutDir, net.name, epoch)
		meta := checkpoint.Meta{RunID: t.cfg.RunID, Network: net.name, Epoch: epoch}
		if err := checkpoint.Save(path, meta, net.m.Parameters()); err != nil {
			return errors.Wrapf(err, "trainer: checkpoint %s", net.name)
		}
		klog.V(1).InfoS("checkpoint written", "network", net.name, "epoch", epoch, "path", path)
	}
	return nil
}
