// Package artifact writes training outputs: image grids and the file names of
// every artifact a run produces.
package artifact

import (
	"fmt"
	"path/filepath"
)

// MaxGridImages caps how many images of a batch go into a grid.
const MaxGridImages = 64

// RealSamplesPath is overwritten on every snapshot.
func RealSamplesPath(dir string) string {
	return filepath.Join(dir, "real_samples.png")
}

// FakeSamplesPath is keyed by epoch; later snapshots in the same epoch overwrite it.
func FakeSamplesPath(dir string, epoch int) string {
	return filepath.Join(dir, fmt.Sprintf("fake_samples_epoch_%03d.png", epoch))
}

// CheckpointPath names the state of network (netG or netD) after epoch.
func CheckpointPath(dir, network string, epoch int) string {
	return filepath.Join(dir, fmt.Sprintf("%s_epoch_%d.ckpt", network, epoch))
}

// LogPath is where the run log is written.
func LogPath(dir string) string {
	return filepath.Join(dir, "stdout.log")
}
