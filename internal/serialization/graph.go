package serialization

import (
	"io"

	"github.com/pkg/errors"

	"github.com/born-ml/dagrad/internal/autodiff"
)

// SaveGraph writes every parameter of g as a checkpoint. The pass generation
// is recorded in meta when meta is not nil.
func SaveGraph(w io.Writer, g *autodiff.Graph, meta *CheckpointMeta, metadata map[string]string) (Header, error) {
	if meta != nil {
		m := *meta
		m.Generation = g.Generation()
		meta = &m
	}
	return WriteCheckpoint(w, g.StateDict(), Header{Metadata: metadata, Checkpoint: meta})
}

// LoadGraph reads a checkpoint into the parameters of g. See autodiff.Graph.LoadStateDict
// for how unknown and missing names are treated.
func LoadGraph(r io.Reader, g *autodiff.Graph, opts ReaderOptions) (Header, error) {
	state, header, err := ReadCheckpoint(r, opts)
	if err != nil {
		return Header{}, err
	}
	if err := g.LoadStateDict(state); err != nil {
		return Header{}, errors.WithMessagef(err, "checkpoint %s", header.ID)
	}
	return header, nil
}
