package dataset

import (
	"archive/tar"
	"bufio"
	"context"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"scenegan/internal/tensor"
)

// Sample is one image entry of a WebDataset shard. When the stream has a
// Decoder, Pixels is set and Image is dropped.
type Sample struct {
	Key    string
	Image  []byte
	Pixels *tensor.Tensor
}

// Decoder turns encoded image bytes into a CHW tensor.
type Decoder func(raw []byte) (*tensor.Tensor, error)

func isImage(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg", ".png":
		return true
	}
	return false
}

// StreamShard streams the image entries of the shard at path. Other entries
// (labels, metadata) are skipped. Images the decoder rejects are logged and
// skipped.
func StreamShard(ctx context.Context, path string, decode Decoder) (<-chan Sample, <-chan error) {
	out := make(chan Sample)
	errCh := make(chan error, 1)

	go func() {
		defer close(out)
		defer close(errCh)

		f, err := os.Open(path)
		if err != nil {
			errCh <- errors.Wrap(err, "open shard")
			return
		}
		defer f.Close()

		tr := tar.NewReader(bufio.NewReader(f))
		for {
			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			default:
			}

			hdr, err := tr.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				errCh <- errors.Wrap(err, "read tar")
				return
			}
			if hdr.FileInfo().IsDir() || !isImage(hdr.Name) {
				continue
			}
			name := filepath.Base(hdr.Name)
			data, err := io.ReadAll(tr)
			if err != nil {
				errCh <- errors.Wrapf(err, "read image %s", name)
				return
			}

			sample := Sample{Key: strings.TrimSuffix(name, filepath.Ext(name)), Image: data}
			if decode != nil {
				pixels, err := decode(data)
				if err != nil {
					klog.Warningf("skipping %s in %s: %v", name, path, err)
					continue
				}
				sample.Pixels = pixels
				sample.Image = nil
			}

			select {
			case <-ctx.Done():
				errCh <- ctx.Err()
				return
			case out <- sample:
			}
		}
	}()

	return out, errCh
}

// CountImages returns the number of image entries across shards whose header
// decodes. Entries with an unreadable image header are skipped by StreamShard
// too, so they are not counted.
func CountImages(shards []string) (int, error) {
	total := 0
	for _, path := range shards {
		n, err := countShard(path)
		if err != nil {
			return 0, err
		}
		total += n
	}
	return total, nil
}

func countShard(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "open shard")
	}
	defer f.Close()

	n := 0
	tr := tar.NewReader(bufio.NewReader(f))
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return 0, errors.Wrapf(err, "read tar %s", path)
		}
		if hdr.FileInfo().IsDir() || !isImage(hdr.Name) {
			continue
		}
		if _, _, err := image.DecodeConfig(tr); err == nil {
			n++
		}
	}
}
