package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"scenegan/internal/model"
	"scenegan/internal/objective"
)

// Defaults mirror the reference training recipe.
const (
	DefaultLatentDim     = 100
	DefaultEpochs        = 100
	DefaultBatchSize     = 256
	DefaultImageSize     = 128
	BigImageSize         = 256
	DefaultChannels      = 3
	DefaultHidden        = 256
	DefaultLRD           = 4e-4
	DefaultLRG           = 1e-4
	DefaultBeta1         = 0.0
	DefaultBeta2         = 0.9
	DefaultSnapshotEvery = 100
	DefaultShuffleBuffer = 256
)

// Config captures the runtime knobs for a training run.
type Config struct {
	DataRoots     []string `yaml:"data_roots"`
	OutDir        string   `yaml:"out_dir"`
	LatentDim     int      `yaml:"latent_dim"`
	Epochs        int      `yaml:"epochs"`
	BatchSize     int      `yaml:"batch_size"`
	NumWorkers    int      `yaml:"num_workers"`
	ShuffleBuffer int      `yaml:"shuffle_buffer"`
	Seed          int64    `yaml:"seed"`
	ImageSize     int      `yaml:"image_size"`
	BigImage      bool     `yaml:"big_image"`
	Channels      int      `yaml:"channels"`
	Hidden        int      `yaml:"hidden"`
	Arch          string   `yaml:"arch"`
	Objective     string   `yaml:"objective"`
	Device        string   `yaml:"device"`
	SnapshotEvery int      `yaml:"snapshot_every"`

	// Optimizer settings. Betas are pointers so an explicit 0 survives defaulting.
	LRD   float64  `yaml:"lr_d"`
	LRG   float64  `yaml:"lr_g"`
	Beta1 *float64 `yaml:"beta1"`
	Beta2 *float64 `yaml:"beta2"`
}

// Overrides captures CLI supplied values.
type Overrides struct {
	DataRoot   string
	OutDir     string
	LatentDim  int
	Epochs     int
	BatchSize  int
	NumWorkers int
	Seed       int64
	BigImage   bool
	Arch       string
	Objective  string
	Device     string
}

// Load reads a Config from YAML. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "open config")
	}
	cfg, err := Parse(raw)
	if err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, nil
}

// Parse decodes YAML bytes into a Config.
func Parse(raw []byte) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}

// ApplyOverrides updates cfg using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.DataRoot != "" {
		c.DataRoots = []string{o.DataRoot}
	}
	if o.OutDir != "" {
		c.OutDir = o.OutDir
	}
	if o.LatentDim > 0 {
		c.LatentDim = o.LatentDim
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.BatchSize > 0 {
		c.BatchSize = o.BatchSize
	}
	if o.NumWorkers > 0 {
		c.NumWorkers = o.NumWorkers
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.BigImage {
		c.BigImage = true
	}
	if o.Arch != "" {
		c.Arch = o.Arch
	}
	if o.Objective != "" {
		c.Objective = o.Objective
	}
	if o.Device != "" {
		c.Device = o.Device
	}
}

// String renders every setting on one line for the run log.
func (c Config) String() string {
	beta := func(b *float64) string {
		if b == nil {
			return "unset"
		}
		return fmt.Sprint(*b)
	}
	return fmt.Sprintf("data_roots=%v out_dir=%s latent_dim=%d epochs=%d batch_size=%d num_workers=%d "+
		"shuffle_buffer=%d seed=%d image_size=%d big_image=%t channels=%d hidden=%d arch=%s objective=%s "+
		"device=%s snapshot_every=%d lr_d=%g lr_g=%g beta1=%s beta2=%s",
		c.DataRoots, c.OutDir, c.LatentDim, c.Epochs, c.BatchSize, c.NumWorkers,
		c.ShuffleBuffer, c.Seed, c.ImageSize, c.BigImage, c.Channels, c.Hidden, c.Arch, c.Objective,
		c.Device, c.SnapshotEvery, c.LRD, c.LRG, beta(c.Beta1), beta(c.Beta2))
}

// Validate fills defaults and verifies the config is runnable. now is used for
// the default output directory name.
func (c *Config) Validate(now time.Time) error {
	if c == nil {
		return errors.New("config is nil")
	}
	if len(c.DataRoots) == 0 {
		return errors.New("at least one data root must be set")
	}
	for _, r := range c.DataRoots {
		if r == "" {
			return errors.New("data roots must not be empty")
		}
	}
	if c.OutDir == "" {
		c.OutDir = filepath.Join("data", now.Format("2006-01-02-15-04"))
	}
	if c.LatentDim < 0 {
		return errors.Errorf("latent_dim must be > 0 (got %d)", c.LatentDim)
	}
	if c.LatentDim == 0 {
		c.LatentDim = DefaultLatentDim
	}
	if c.Epochs < 0 {
		return errors.Errorf("epochs must be > 0 (got %d)", c.Epochs)
	}
	if c.Epochs == 0 {
		c.Epochs = DefaultEpochs
	}
	if c.BatchSize < 0 {
		return errors.Errorf("batch_size must be > 0 (got %d)", c.BatchSize)
	}
	if c.BatchSize == 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.NumWorkers < 0 {
		return errors.Errorf("num_workers must be >= 0 (got %d)", c.NumWorkers)
	}
	if c.ShuffleBuffer <= 0 {
		c.ShuffleBuffer = DefaultShuffleBuffer
	}
	if c.ImageSize < 0 {
		return errors.Errorf("image_size must be > 0 (got %d)", c.ImageSize)
	}
	if c.ImageSize == 0 {
		c.ImageSize = DefaultImageSize
		if c.BigImage {
			c.ImageSize = BigImageSize
		}
	}
	if c.Channels == 0 {
		c.Channels = DefaultChannels
	}
	if c.Channels != 1 && c.Channels != 3 {
		return errors.Errorf("channels must be 1 or 3 (got %d)", c.Channels)
	}
	if c.Hidden < 0 {
		return errors.Errorf("hidden must be > 0 (got %d)", c.Hidden)
	}
	if c.Hidden == 0 {
		c.Hidden = DefaultHidden
	}
	if c.Arch == "" {
		c.Arch = string(model.DCGAN)
	}
	arch, err := model.ParseArch(c.Arch)
	if err != nil {
		return err
	}
	if c.Objective == "" {
		c.Objective = objective.NameCrossEntropy
		if arch == model.SAGAN {
			c.Objective = objective.NameHinge
		}
	}
	if _, err := objective.New(c.Objective); err != nil {
		return err
	}
	if c.Device == "" {
		c.Device = "cpu"
	}
	if c.SnapshotEvery <= 0 {
		c.SnapshotEvery = DefaultSnapshotEvery
	}
	if c.LRD < 0 || c.LRG < 0 {
		return errors.Errorf("learning rates must be > 0 (got lr_d=%g lr_g=%g)", c.LRD, c.LRG)
	}
	if c.LRD == 0 {
		c.LRD = DefaultLRD
	}
	if c.LRG == 0 {
		c.LRG = DefaultLRG
	}
	if c.Beta1 == nil {
		b := DefaultBeta1
		c.Beta1 = &b
	}
	if c.Beta2 == nil {
		b := DefaultBeta2
		c.Beta2 = &b
	}
	if *c.Beta1 < 0 || *c.Beta1 >= 1 || *c.Beta2 < 0 || *c.Beta2 >= 1 {
		return errors.Errorf("betas must be in [0, 1) (got %g, %g)", *c.Beta1, *c.Beta2)
	}
	return nil
}
