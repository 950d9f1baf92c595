package trainer

import (
	"math"

	"github.com/pkg/errors"

	"scenegan/internal/autograd"
	"scenegan/internal/metrics"
	"scenegan/internal/model"
	"scenegan/internal/objective"
	"scenegan/internal/optim"
	"scenegan/internal/sampling"
	"scenegan/internal/tensor"
)

// ErrDiverged reports a non-finite loss. Training is not recoverable from it.
var ErrDiverged = errors.New("trainer: loss is not finite")

// Step performs one adversarial update per mini-batch:
//
//  1. discriminator on the real batch, gradients accumulated
//  2. discriminator on detached generator output, accumulated onto the same gradients
//  3. discriminator optimizer step
//  4. generator through the discriminator on the same, attached, output
//  5. generator optimizer step
//
// The discriminator therefore scores the fake batch twice. The gradients it
// receives in phase 4 are never applied.
type Step struct {
	Generator     model.Network
	Discriminator model.Network
	OptG          *optim.Adam
	OptD          *optim.Adam
	Objective     objective.Objective
	Noise         *sampling.NoiseSource
	LatentDim     int
}

// Run executes all phases on one real batch shaped [B, C, H, W].
func (s *Step) Run(real *tensor.Tensor) (metrics.Batch, error) {
	var m metrics.Batch
	var err error

	m.LossDReal, m.DX, err = s.discriminatorReal(real)
	if err != nil {
		return m, err
	}
	fake, lossFake, dgz1, err := s.discriminatorFake(real.Dim(0))
	if err != nil {
		return m, err
	}
	m.LossDFake, m.DGZ1 = lossFake, dgz1
	m.LossD = s.commitDiscriminator(m.LossDReal, m.LossDFake)

	m.LossG, m.DGZ2, err = s.generatorPhase(fake)
	if err != nil {
		return m, err
	}
	s.commitGenerator()
	return m, nil
}

func (s *Step) discriminatorReal(real *tensor.Tensor) (loss, acc float64, err error) {
	s.OptD.ZeroGrad()
	score := s.Discriminator.Forward(autograd.Constant(real)).Primary
	l := s.Objective.RealLoss(score)
	if err := checkFinite(l, "discriminator real"); err != nil {
		return 0, 0, err
	}
	autograd.Backward(l)
	return l.Scalar(), metrics.Accuracy(score.Value.Data), nil
}

// discriminatorFake returns the attached generator output for reuse in the
// generator phase.
func (s *Step) discriminatorFake(batchSize int) (*autograd.Node, float64, float64, error) {
	noise := autograd.Constant(s.Noise.Sample(batchSize, s.LatentDim))
	fake := s.Generator.Forward(noise).Primary
	score := s.Discriminator.Forward(autograd.Detach(fake)).Primary
	l := s.Objective.FakeLossForDiscriminator(score)
	if err := checkFinite(l, "discriminator fake"); err != nil {
		return nil, 0, 0, err
	}
	autograd.Backward(l)
	return fake, l.Scalar(), metrics.Accuracy(score.Value.Data), nil
}

func (s *Step) commitDiscriminator(lossReal, lossFake float64) float64 {
	s.OptD.Step()
	return lossReal + lossFake
}

func (s *Step) generatorPhase(fake *autograd.Node) (loss, acc float64, err error) {
	s.OptG.ZeroGrad()
	score := s.Discriminator.Forward(fake).Primary
	l := s.Objective.FakeLossForGenerator(score)
	if err := checkFinite(l, "generator"); err != nil {
		return 0, 0, err
	}
	autograd.Backward(l)
	return l.Scalar(), metrics.Accuracy(score.Value.Data), nil
}

func (s *Step) commitGenerator() {
	s.OptG.Step()
}

func checkFinite(loss *autograd.Node, phase string) error {
	v := loss.Scalar()
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return errors.Wrapf(ErrDiverged, "%s loss %v", phase, v)
	}
	return nil
}
