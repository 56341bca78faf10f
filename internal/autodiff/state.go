package autodiff

import (
	"fmt"
	"sort"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/dagrad/internal/tensor"
)

// StateDict returns a deep copy of every parameter value keyed by name.
func (g *Graph) StateDict() map[string]*tensor.Tensor {
	out := make(map[string]*tensor.Tensor, len(g.params))
	for _, p := range g.params {
		out[p.name] = p.value.Clone()
	}
	return out
}

// LoadStateDict overwrites parameter values from state and begins a new pass.
//
// Every entry naming a parameter must match its shape; otherwise nothing is
// loaded. Entries naming no parameter are skipped with a warning, and
// parameters missing from state keep their values.
func (g *Graph) LoadStateDict(state map[string]*tensor.Tensor) error {
	names := make([]string, 0, len(state))
	for name := range state {
		names = append(names, name)
	}
	sort.Strings(names)

	var matched []string
	for _, name := range names {
		p, ok := g.paramByName[name]
		if !ok {
			klog.Warningf("autodiff: LoadStateDict: no parameter named %q, skipping", name)
			continue
		}
		t := state[name]
		if t == nil {
			return errors.Errorf("LoadStateDict: nil tensor for %q", name)
		}
		if !t.Shape().Equal(p.shape) {
			return errors.WithMessagef(
				tensor.NewShapeError("load_state_dict", fmt.Sprintf("parameter %q", name), p.shape, t.Shape()),
				"LoadStateDict")
		}
		matched = append(matched, name)
	}

	for _, name := range matched {
		if err := g.paramByName[name].value.CopyFrom(state[name]); err != nil {
			return err
		}
	}
	klog.V(1).Infof("autodiff: loaded %d of %d parameters", len(matched), len(g.params))
	g.BeginPass()
	return nil
}
