// Package device decides once, at startup, where tensors live.
package device

import (
	"runtime"
	"strings"

	"github.com/klauspost/cpuid/v2"
	"github.com/pkg/errors"
)

// ErrUnavailable is returned when the requested device cannot be used.
var ErrUnavailable = errors.New("device: unavailable")

// Device describes the compute placement for a run.
type Device struct {
	Name     string
	Brand    string
	Cores    int
	Threads  int
	Features []string
}

// Select resolves a device name. "cpu" and "auto" resolve to the host CPU;
// accelerator names such as "cuda:0" are rejected because tensors are
// host-resident.
func Select(name string) (Device, error) {
	switch n := strings.ToLower(strings.TrimSpace(name)); {
	case n == "", n == "auto", n == "cpu":
		return hostCPU(), nil
	case n == "cuda", strings.HasPrefix(n, "cuda:"), n == "mps", n == "gpu":
		return Device{}, errors.Wrapf(ErrUnavailable, "%q is not supported, use cpu", name)
	default:
		return Device{}, errors.Errorf("device: unknown device %q", name)
	}
}

func hostCPU() Device {
	d := Device{
		Name:    "cpu",
		Brand:   cpuid.CPU.BrandName,
		Cores:   cpuid.CPU.PhysicalCores,
		Threads: cpuid.CPU.LogicalCores,
	}
	if d.Cores <= 0 {
		d.Cores = runtime.NumCPU()
	}
	if d.Threads <= 0 {
		d.Threads = runtime.NumCPU()
	}
	for _, f := range []cpuid.FeatureID{cpuid.AVX, cpuid.AVX2, cpuid.FMA3, cpuid.AVX512F, cpuid.ASIMD, cpuid.SVE} {
		if cpuid.CPU.Supports(f) {
			d.Features = append(d.Features, f.String())
		}
	}
	return d
}

// DefaultWorkers suggests a data loader worker count for d.
func (d Device) DefaultWorkers() int {
	if d.Cores > 1 {
		return d.Cores / 2
	}
	return 1
}

// String renders the device for logs.
func (d Device) String() string {
	var b strings.Builder
	b.WriteString(d.Name)
	if d.Brand != "" {
		b.WriteString(" (" + d.Brand + ")")
	}
	if len(d.Features) > 0 {
		b.WriteString(" [" + strings.Join(d.Features, ",") + "]")
	}
	return b.String()
}
