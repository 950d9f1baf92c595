package artifact

import (
	"image"
	"image/color"
	"image/png"
	"math"
	"os"

	"github.com/pkg/errors"

	"scenegan/internal/tensor"
)

const (
	gridPerRow  = 8
	gridPadding = 2
)

// Grid tiles a [N, C, H, W] batch into one image, 8 per row with 2 px padding.
// Values are min-max normalized over the whole batch. C must be 1 or 3.
func Grid(batch *tensor.Tensor) (image.Image, error) {
	if len(batch.Shape) != 4 {
		return nil, errors.Errorf("artifact: grid needs [N,C,H,W], got %v", batch.Shape)
	}
	n, c, h, w := batch.Shape[0], batch.Shape[1], batch.Shape[2], batch.Shape[3]
	if c != 1 && c != 3 {
		return nil, errors.Errorf("artifact: grid supports 1 or 3 channels, got %d", c)
	}
	if n == 0 {
		return nil, errors.New("artifact: empty batch")
	}

	cols := gridPerRow
	if n < cols {
		cols = n
	}
	rows := (n + cols - 1) / cols
	width := cols*(w+gridPadding) + gridPadding
	height := rows*(h+gridPadding) + gridPadding
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 255
	}

	lo, hi := batch.MinMax()
	scale := hi - lo
	if scale < 1e-5 {
		scale = 1e-5
	}
	toByte := func(v float64) uint8 {
		u := (v - lo) / scale
		return uint8(math.Round(math.Max(0, math.Min(1, u)) * 255))
	}

	plane := h * w
	for i := 0; i < n; i++ {
		ox := gridPadding + (i%cols)*(w+gridPadding)
		oy := gridPadding + (i/cols)*(h+gridPadding)
		base := i * c * plane
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				off := base + y*w + x
				r := toByte(batch.Data[off])
				g, b := r, r
				if c == 3 {
					g = toByte(batch.Data[off+plane])
					b = toByte(batch.Data[off+2*plane])
				}
				img.SetRGBA(ox+x, oy+y, color.RGBA{R: r, G: g, B: b, A: 255})
			}
		}
	}
	return img, nil
}

// SaveGrid writes the first MaxGridImages images of batch as a PNG grid.
func SaveGrid(path string, batch *tensor.Tensor) error {
	img, err := Grid(batch.Head(MaxGridImages))
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "artifact: create grid")
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return errors.Wrapf(err, "artifact: encode %s", path)
	}
	return errors.Wrapf(f.Close(), "artifact: close %s", path)
}
