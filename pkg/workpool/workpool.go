// Package workpool implements spec.md 5's concurrency model: a fixed
// number of workers, set once at construction, running a parallel-for
// over pixels (level 0) or tiles (level > 0) with no cooperative
// suspension points — a worker runs one unit of work to completion.
//
// Grounded on tracer/opencl/tracer.go's channel-plus-WaitGroup shape
// (a fixed pool of goroutines draining a request channel, synchronized
// on shutdown with sync.WaitGroup) and asset/compiler/bvh/bvh_builder.go's
// channel-based fan-out/fan-in for scoring split candidates, generalized
// from those two bespoke uses into a reusable bounded pool.
package workpool

import (
	"runtime"
	"sync"
)

// Pool runs units of work across a fixed number of long-lived worker
// goroutines. The worker count is fixed at construction, matching
// spec.md 5's "the number of workers is fixed at construction
// (num_threads)".
type Pool struct {
	numWorkers int
}

// New returns a Pool with numWorkers workers; numWorkers <= 0 selects
// runtime.NumCPU().
func New(numWorkers int) *Pool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &Pool{numWorkers: numWorkers}
}

// NumWorkers reports how many workers the pool runs concurrently.
func (p *Pool) NumWorkers() int {
	return p.numWorkers
}

// ParallelFor calls fn(i) for every i in [0, n), distributing indices
// across p.numWorkers long-lived workers via a shared index channel
// (one worker runs one index to completion before requesting the
// next), and blocks until every call has returned. Per spec.md 5, the
// shared state fn closes over must be either read-only or written to
// disjoint slices of the caller's output arrays; ParallelFor takes no
// further locking responsibility.
func (p *Pool) ParallelFor(n int, fn func(i int)) {
	if n <= 0 {
		return
	}
	workers := p.numWorkers
	if workers > n {
		workers = n
	}

	indices := make(chan int, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range indices {
				fn(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		indices <- i
	}
	close(indices)
	wg.Wait()
}

// Scratch holds one per-worker buffer of size sz, indexed by the
// worker slot a given call of ParallelFor happened to run on. Per
// spec.md 5 ("per-worker scratch: one tile-sized image buffer, avoids
// false sharing on refined levels"), scratch is handed to the work
// function explicitly instead of being looked up via a thread-id global
// (spec.md 9's flagged anti-pattern: "process-wide scratch arrays
// indexed by thread id").
type Scratch struct {
	buffers [][]float64
}

// NewScratch allocates one size-sz buffer per worker.
func NewScratch(numWorkers, sz int) *Scratch {
	buffers := make([][]float64, numWorkers)
	for i := range buffers {
		buffers[i] = make([]float64, sz)
	}
	return &Scratch{buffers: buffers}
}

// ParallelForScratch is ParallelFor, but fn additionally receives the
// scratch buffer belonging to the worker slot running i (stable only
// across a single worker's consecutive items, not across workers).
func (p *Pool) ParallelForScratch(n int, scratch *Scratch, fn func(i int, buf []float64)) {
	if n <= 0 {
		return
	}
	workers := p.numWorkers
	if workers > n {
		workers = n
	}
	if workers > len(scratch.buffers) {
		workers = len(scratch.buffers)
	}

	// Each worker owns exactly one scratch slot for its whole run, so a
	// shared index channel (rather than a per-job slot) is what keeps
	// slot ownership from crossing goroutines.
	indices := make(chan int, workers)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		buf := scratch.buffers[w]
		go func() {
			defer wg.Done()
			for i := range indices {
				fn(i, buf)
			}
		}()
	}
	for i := 0; i < n; i++ {
		indices <- i
	}
	close(indices)
	wg.Wait()
}
