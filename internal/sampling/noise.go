package sampling

import (
	"math/rand"

	"scenegan/internal/tensor"
)

// FixedNoiseSize is the number of latents used for comparable sample grids.
const FixedNoiseSize = 64

// NoiseSource draws latent vectors from a standard normal distribution.
type NoiseSource struct {
	rng *rand.Rand
}

// NewNoiseSource returns a source seeded with seed.
func NewNoiseSource(seed int64) *NoiseSource {
	return &NoiseSource{rng: rand.New(rand.NewSource(seed))}
}

// Sample returns a [batchSize, latentDim, 1, 1] tensor of i.i.d. N(0,1) values.
func (s *NoiseSource) Sample(batchSize, latentDim int) *tensor.Tensor {
	t := tensor.New(batchSize, latentDim, 1, 1)
	for i := range t.Data {
		t.Data[i] = s.rng.NormFloat64()
	}
	return t
}
