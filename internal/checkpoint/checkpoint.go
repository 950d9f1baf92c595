// Package checkpoint persists the learnable parameters of a network.
//
// A checkpoint holds parameter values only; optimizer state is not saved.
package checkpoint

import (
	"bufio"
	"encoding/gob"
	"os"
	"slices"

	"github.com/pkg/errors"

	"scenegan/internal/autograd"
)

// Meta identifies what a checkpoint contains.
type Meta struct {
	RunID   string
	Network string
	Epoch   int
}

type record struct {
	Name  string
	Shape []int
	Data  []float64
}

type state struct {
	Meta    Meta
	Tensors []record
}

// Save writes params to path, replacing any existing file.
func Save(path string, meta Meta, params []*autograd.Node) error {
	st := state{Meta: meta, Tensors: make([]record, len(params))}
	for i, p := range params {
		st.Tensors[i] = record{Name: p.Name(), Shape: p.Shape(), Data: p.Value.Data}
	}

	tmp := path + ".tmp"
	if err := writeState(tmp, &st); err != nil {
		os.Remove(tmp)
		return errors.Wrapf(err, "checkpoint: write %s", path)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "checkpoint: rename")
	}
	return nil
}

func writeState(path string, st *state) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "create")
	}
	w := bufio.NewWriter(f)
	if err := gob.NewEncoder(w).Encode(st); err != nil {
		f.Close()
		return errors.Wrap(err, "encode")
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return errors.Wrap(err, "flush")
	}
	return errors.Wrap(f.Close(), "close")
}

// Load reads path into params. Names and shapes must match exactly.
func Load(path string, params []*autograd.Node) (Meta, error) {
	f, err := os.Open(path)
	if err != nil {
		return Meta{}, errors.Wrap(err, "checkpoint: open")
	}
	defer f.Close()

	var st state
	if err := gob.NewDecoder(bufio.NewReader(f)).Decode(&st); err != nil {
		return Meta{}, errors.Wrapf(err, "checkpoint: decode %s", path)
	}
	if len(st.Tensors) != len(params) {
		return Meta{}, errors.Errorf("checkpoint: %s has %d tensors, network has %d", path, len(st.Tensors), len(params))
	}
	for i, p := range params {
		rec := st.Tensors[i]
		if rec.Name != p.Name() {
			return Meta{}, errors.Errorf("checkpoint: tensor %d is %q, want %q", i, rec.Name, p.Name())
		}
		if !slices.Equal(rec.Shape, p.Shape()) || len(rec.Data) != p.Value.Numel() {
			return Meta{}, errors.Errorf("checkpoint: %s has shape %v, want %v", rec.Name, rec.Shape, p.Shape())
		}
	}
	for i, p := range params {
		copy(p.Value.Data, st.Tensors[i].Data)
	}
	return st.Meta, nil
}
