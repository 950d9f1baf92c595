package metrics

import "time"

// AccuracyThreshold is the score above which a sample counts as "real" for the
// accuracy proxy.
const AccuracyThreshold = 0.5

// Accuracy returns the fraction of scores strictly above AccuracyThreshold.
func Accuracy(scores []float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	hits := 0
	for _, s := range scores {
		if s > AccuracyThreshold {
			hits++
		}
	}
	return float64(hits) / float64(len(scores))
}

// Batch holds the observations of one training step.
type Batch struct {
	LossD     float64 // LossDReal + LossDFake
	LossDReal float64
	LossDFake float64
	LossG     float64
	DX        float64 // accuracy proxy on the real batch
	DGZ1      float64 // accuracy proxy on fakes before the generator update
	DGZ2      float64 // accuracy proxy on fakes during the generator update
}

// Window accumulates timing and loss stats across multiple steps.
type Window struct {
	samples int
	data    time.Duration
	compute time.Duration
	steps   int
	sumD    float64
	sumG    float64
	last    Batch
}

// Record adds a new measurement to the window.
func (w *Window) Record(batchSize int, dataTime, computeTime time.Duration, m Batch) {
	w.samples += batchSize
	w.data += dataTime
	w.compute += computeTime
	w.steps++
	w.sumD += m.LossD
	w.sumG += m.LossG
	w.last = m
}

// Snapshot returns aggregated metrics and resets the window.
func (w *Window) Snapshot() Snapshot {
	snap := Snapshot{Steps: w.steps, Last: w.last}
	total := w.data + w.compute
	if total > 0 {
		snap.ImagesPerSec = float64(w.samples) / total.Seconds()
	}
	if w.steps > 0 {
		snap.AvgDataMS = (w.data.Seconds() * 1000) / float64(w.steps)
		snap.AvgComputeMS = (w.compute.Seconds() * 1000) / float64(w.steps)
		snap.MeanLossD = w.sumD / float64(w.steps)
		snap.MeanLossG = w.sumG / float64(w.steps)
	}

	*w = Window{}
	return snap
}

// Snapshot represents loggable metrics.
type Snapshot struct {
	Steps        int
	ImagesPerSec float64
	AvgDataMS    float64
	AvgComputeMS float64
	MeanLossD    float64
	MeanLossG    float64
	Last         Batch
}
