package artifact

import (
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"scenegan/internal/tensor"
)

func TestGridLayout(t *testing.T) {
	batch := tensor.New(10, 1, 4, 4)
	for i := range batch.Data {
		batch.Data[i] = float64(i)/float64(len(batch.Data))*2 - 1
	}
	img, err := Grid(batch)
	if err != nil {
		t.Fatalf("Grid: %v", err)
	}
	b := img.Bounds()
	wantW := 8*(4+2) + 2
	wantH := 2*(4+2) + 2
	if b.Dx() != wantW || b.Dy() != wantH {
		t.Fatalf("grid %dx%d want %dx%d", b.Dx(), b.Dy(), wantW, wantH)
	}
}

func TestGridNormalizesToFullRange(t *testing.T) {
	batch := tensor.FromData([]float64{-0.5, 0.25, 0.25, 0.5}, 1, 1, 2, 2)
	img, err := Grid(batch)
	if err != nil {
		t.Fatalf("Grid: %v", err)
	}
	r, _, _, _ := img.At(gridPadding, gridPadding).RGBA()
	if r != 0 {
		t.Fatalf("min value should map to 0, got %d", r>>8)
	}
	r, _, _, _ = img.At(gridPadding+1, gridPadding+1).RGBA()
	if r>>8 != 255 {
		t.Fatalf("max value should map to 255, got %d", r>>8)
	}
}

func TestSaveGridCapsImages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "grid.png")
	if err := SaveGrid(path, tensor.New(100, 3, 2, 2)); err != nil {
		t.Fatalf("SaveGrid: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dy() != 8*(2+2)+2 {
		t.Fatalf("expected 8 rows for 64 images, height %d", img.Bounds().Dy())
	}
}

func TestGridRejectsBadShapes(t *testing.T) {
	if _, err := Grid(tensor.New(2, 2, 4, 4)); err == nil {
		t.Fatal("expected error for 2 channels")
	}
	if _, err := Grid(tensor.New(4, 4)); err == nil {
		t.Fatal("expected error for 2-D tensor")
	}
}

func TestPaths(t *testing.T) {
	if got := FakeSamplesPath("out", 7); got != filepath.Join("out", "fake_samples_epoch_007.png") {
		t.Fatalf("fake path %s", got)
	}
	if got := CheckpointPath("out", "netG", 12); got != filepath.Join("out", "netG_epoch_12.ckpt") {
		t.Fatalf("checkpoint path %s", got)
	}
}
