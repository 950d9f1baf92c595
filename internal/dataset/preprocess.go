package dataset

import (
	"bytes"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"

	"github.com/pkg/errors"
	"golang.org/x/image/draw"

	"scenegan/internal/tensor"
)

// NewImageDecoder returns a Decoder that resizes the shorter side to size,
// center-crops to size×size and maps pixels to [-1, 1] in CHW order.
// channels must be 1 (luminance) or 3 (RGB).
func NewImageDecoder(size, channels int) (Decoder, error) {
	if size <= 0 {
		return nil, errors.Errorf("dataset: image size must be > 0 (got %d)", size)
	}
	if channels != 1 && channels != 3 {
		return nil, errors.Errorf("dataset: channels must be 1 or 3 (got %d)", channels)
	}
	return func(raw []byte) (*tensor.Tensor, error) {
		img, _, err := image.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		return toTensor(img, size, channels)
	}, nil
}

func toTensor(img image.Image, size, channels int) (*tensor.Tensor, error) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width == 0 || height == 0 {
		return nil, errors.New("empty image")
	}

	scale := float64(size) / float64(min(width, height))
	rw := max(size, int(math.Round(float64(width)*scale)))
	rh := max(size, int(math.Round(float64(height)*scale)))
	resized := image.NewRGBA(image.Rect(0, 0, rw, rh))
	draw.BiLinear.Scale(resized, resized.Bounds(), img, bounds, draw.Src, nil)

	x0 := (rw - size) / 2
	y0 := (rh - size) / 2
	out := tensor.New(channels, size, size)
	plane := size * size
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := resized.RGBAAt(x0+x, y0+y)
			r, g, b := float64(c.R)/255, float64(c.G)/255, float64(c.B)/255
			i := y*size + x
			if channels == 1 {
				out.Data[i] = normalize(0.299*r + 0.587*g + 0.114*b)
				continue
			}
			out.Data[i] = normalize(r)
			out.Data[plane+i] = normalize(g)
			out.Data[2*plane+i] = normalize(b)
		}
	}
	return out, nil
}

// normalize maps [0, 1] to [-1, 1] (mean 0.5, std 0.5).
func normalize(v float64) float64 {
	return (v - 0.5) / 0.5
}
