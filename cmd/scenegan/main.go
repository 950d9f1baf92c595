package main

import (
	"context"
	"flag"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"k8s.io/klog/v2"

	"scenegan/internal/artifact"
	"scenegan/internal/config"
	"scenegan/internal/dataset"
	"scenegan/internal/device"
	"scenegan/internal/model"
	"scenegan/internal/objective"
	"scenegan/internal/trainer"
)

func main() {
	klog.InitFlags(nil)

	cfgPath := flag.String("config", "", "Path to YAML config (optional)")
	dataRoot := flag.String("dataroot", "", "Override data root (directory of WebDataset shards)")
	outDir := flag.String("outf", "", "Override output directory")
	latentDim := flag.Int("nz", 0, "Size of the latent vector")
	epochs := flag.Int("niter", 0, "Number of epochs")
	batchSize := flag.Int("batch-size", 0, "Batch size")
	numWorkers := flag.Int("workers", 0, "Number of data loader workers")
	seed := flag.Int64("seed", 0, "PRNG seed, 0 picks one at random")
	bigImage := flag.Bool("big-image", false, "Train on 256x256 images")
	sagan := flag.Bool("sagan", false, "Use the attention architecture")
	obj := flag.String("objective", "", "Adversarial objective (bce or hinge)")
	dev := flag.String("device", "", "Compute device (cpu; cuda, mps and gpu are rejected, tensors live on the host)")

	flag.Parse()
	defer klog.Flush()

	cfg := &config.Config{}
	if *cfgPath != "" {
		loaded, err := config.Load(*cfgPath)
		if err != nil {
			klog.Exitf("failed to load config: %v", err)
		}
		cfg = loaded
	}

	arch := ""
	if *sagan {
		arch = string(model.SAGAN)
	}
	cfg.ApplyOverrides(config.Overrides{
		DataRoot:   *dataRoot,
		OutDir:     *outDir,
		LatentDim:  *latentDim,
		Epochs:     *epochs,
		BatchSize:  *batchSize,
		NumWorkers: *numWorkers,
		Seed:       *seed,
		BigImage:   *bigImage,
		Arch:       arch,
		Objective:  *obj,
		Device:     *dev,
	})
	if err := cfg.Validate(time.Now()); err != nil {
		klog.Exitf("invalid config: %v", err)
	}

	if err := os.MkdirAll(cfg.OutDir, 0o755); err != nil {
		klog.Exitf("create output directory: %v", err)
	}
	for name, value := range map[string]string{
		"log_file":        artifact.LogPath(cfg.OutDir),
		"logtostderr":     "false",
		"alsologtostderr": "true",
	} {
		if err := flag.Set(name, value); err != nil {
			klog.Exitf("configure logging: %v", err)
		}
	}

	if cfg.Seed == 0 {
		cfg.Seed = rand.Int63n(10000) + 1
	}
	runID := uuid.NewString()
	klog.InfoS("starting run", "run_id", runID, "seed", cfg.Seed, "out_dir", cfg.OutDir)

	d, err := device.Select(cfg.Device)
	if err != nil {
		klog.Exitf("select device: %v", err)
	}
	if cfg.NumWorkers == 0 {
		cfg.NumWorkers = d.DefaultWorkers()
	}
	klog.InfoS("device", "device", d.String(), "cores", d.Cores, "threads", d.Threads, "workers", cfg.NumWorkers)
	klog.InfoS("config", "config", cfg)

	roots, err := dataset.DiscoverByRoot(cfg.DataRoots)
	if err != nil {
		klog.Exitf("discover shards: %v", err)
	}
	for root, shards := range roots {
		klog.InfoS("data root", "root", root, "shards", len(shards))
	}
	loader, err := dataset.NewLoader(dataset.LoaderOptions{
		Roots:         roots,
		BatchSize:     cfg.BatchSize,
		NumWorkers:    cfg.NumWorkers,
		Seed:          cfg.Seed,
		ImageSize:     cfg.ImageSize,
		Channels:      cfg.Channels,
		ShuffleBuffer: cfg.ShuffleBuffer,
	})
	if err != nil {
		klog.Exitf("build loader: %v", err)
	}
	klog.InfoS("dataset", "images", loader.Len(), "batches_per_epoch", loader.NumBatches())

	a, err := model.ParseArch(cfg.Arch)
	if err != nil {
		klog.Exitf("%v", err)
	}
	shape := model.ImageShape{Channels: cfg.Channels, Height: cfg.ImageSize, Width: cfg.ImageSize}
	gen, err := model.NewGenerator(a, cfg.LatentDim, cfg.Hidden, shape)
	if err != nil {
		klog.Exitf("build generator: %v", err)
	}
	disc, err := model.NewDiscriminator(a, cfg.Hidden, shape)
	if err != nil {
		klog.Exitf("build discriminator: %v", err)
	}
	lossFn, err := objective.New(cfg.Objective)
	if err != nil {
		klog.Exitf("%v", err)
	}
	klog.InfoS("networks", "arch", a, "objective", cfg.Objective,
		"generator_params", model.ParameterCount(gen),
		"discriminator_params", model.ParameterCount(disc))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	t, err := trainer.New(trainer.RunConfig{
		Epochs:        cfg.Epochs,
		LatentDim:     gen.LatentDim(),
		OutDir:        cfg.OutDir,
		SnapshotEvery: cfg.SnapshotEvery,
		Seed:          cfg.Seed,
		RunID:         runID,
		LRD:           cfg.LRD,
		LRG:           cfg.LRG,
		Beta1:         *cfg.Beta1,
		Beta2:         *cfg.Beta2,
	}, gen, disc, lossFn, loader)
	if err != nil {
		klog.Exitf("initialize trainer: %v", err)
	}
	if err := t.Run(ctx); err != nil {
		klog.Exitf("training failed: %v", err)
	}
	klog.InfoS("training complete", "run_id", runID)
}
