// Package parallel provides the fork-join execution context used by CPU kernels.
//
// A Pool is built explicitly from a Config and passed to whoever needs it; there
// is no process-wide scheduler. Work is split into contiguous index ranges, every
// range runs on its own goroutine (bounded by NumWorkers) and the call returns
// only after all ranges have finished. Callers must make ranges write to
// disjoint memory.
package parallel

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 1024, // Below this a goroutine costs more than the work.
	}
}

// Sequential returns a configuration that runs everything on the calling goroutine.
func Sequential() Config {
	return Config{Enabled: false, NumWorkers: 1, MinChunkSize: 1}
}

// Validate rejects negative or zero sizes on an enabled configuration.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.NumWorkers < 1 {
		return errors.Errorf("parallel: NumWorkers must be >= 1, got %d", c.NumWorkers)
	}
	if c.MinChunkSize < 1 {
		return errors.Errorf("parallel: MinChunkSize must be >= 1, got %d", c.MinChunkSize)
	}
	return nil
}

// Pool is a fixed-size fork-join worker pool.
type Pool struct {
	cfg Config
}

// NewPool creates a pool. An invalid configuration degrades to sequential execution.
func NewPool(cfg Config) *Pool {
	if cfg.Validate() != nil {
		cfg = Sequential()
	}
	return &Pool{cfg: cfg}
}

// Config returns the pool configuration.
func (p *Pool) Config() Config {
	return p.cfg
}

// Workers returns how many goroutines a call may use at most.
func (p *Pool) Workers() int {
	if !p.cfg.Enabled {
		return 1
	}
	return p.cfg.NumWorkers
}

// ForRange executes f(lo, hi) over contiguous sub-ranges covering [0, n).
// Falls back to a single f(0, n) call if parallelism is disabled or n is too small.
func (p *Pool) ForRange(n int, f func(lo, hi int)) {
	if n <= 0 {
		return
	}
	if !p.cfg.Enabled || p.cfg.NumWorkers < 2 || n < 2*p.cfg.MinChunkSize {
		// Sequential fallback.
		f(0, n)
		return
	}

	p.fork(n, max((n+p.cfg.NumWorkers-1)/p.cfg.NumWorkers, p.cfg.MinChunkSize), f)
}

// ForRows is ForRange for row-partitioned kernels: rowSize is the number of
// elements per row and is used to keep chunks above MinChunkSize elements.
func (p *Pool) ForRows(rows, rowSize int, f func(lo, hi int)) {
	if rows <= 0 {
		return
	}
	if rowSize < 1 {
		rowSize = 1
	}
	if !p.cfg.Enabled || p.cfg.NumWorkers < 2 || rows*rowSize < 2*p.cfg.MinChunkSize || rows < 2 {
		f(0, rows)
		return
	}

	minRows := max(1, p.cfg.MinChunkSize/rowSize)
	p.fork(rows, max((rows+p.cfg.NumWorkers-1)/p.cfg.NumWorkers, minRows), f)
}

// fork runs f over consecutive chunks of [0, n) and waits for all of them.
// The first panic raised by a chunk is re-raised on the calling goroutine.
func (p *Pool) fork(n, chunk int, f func(lo, hi int)) {
	var (
		g      errgroup.Group
		once   sync.Once
		caught any
	)
	g.SetLimit(p.cfg.NumWorkers)
	for start := 0; start < n; start += chunk {
		end := min(start+chunk, n)
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					once.Do(func() { caught = r })
				}
			}()
			f(start, end)
			return nil
		})
	}
	_ = g.Wait()
	if caught != nil {
		panic(caught)
	}
}

// For executes f(i) for i in [0, n) with optional parallelism.
func (p *Pool) For(n int, f func(i int)) {
	p.ForRange(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			f(i)
		}
	})
}
