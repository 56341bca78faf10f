package autodiff

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Stats summarizes the state of a graph.
type Stats struct {
	Generation     uint64 // Current pass.
	Nodes          int    // Nodes created so far, leaves included.
	Parameters     int
	ParameterBytes int   // Memory held by parameter values.
	GradientBytes  int   // Memory held by parameter gradient buffers, dense and sparse.
	Evaluations    int64 // Forward computations performed by the graph.
}

// String renders the stats for logs, e.g.
// "pass 3: 1,204 nodes, 2 parameters (16 kB values, 16 kB gradients), 5,120 evaluations".
func (s Stats) String() string {
	return fmt.Sprintf("pass %d: %s nodes, %d parameters (%s values, %s gradients), %s evaluations",
		s.Generation, humanize.Comma(int64(s.Nodes)), s.Parameters,
		humanize.Bytes(uint64(s.ParameterBytes)), humanize.Bytes(uint64(s.GradientBytes)),
		humanize.Comma(s.Evaluations))
}

// Stats returns a snapshot of the graph's counters.
func (g *Graph) Stats() Stats {
	s := Stats{
		Generation:  g.generation,
		Nodes:       g.lastID,
		Parameters:  len(g.params),
		Evaluations: g.evaluations,
	}
	for _, p := range g.params {
		s.ParameterBytes += p.value.ByteSize()
		s.GradientBytes += p.grad.byteSize()
	}
	return s
}
