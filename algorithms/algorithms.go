// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package algorithms implements parallel reductions and scans over an
// abstract index range, dispatched to an execution target (a
// devices.Device).
//
// The caller describes the work with an index range [start, end), a Fetch
// function that produces the element at an index, and a reducers.Reducer
// that combines two values. The device decides how the range is partitioned
// and folded:
//
//   - devices.Sequential folds left to right on the calling goroutine.
//   - devices.Host folds contiguous blocks on parallel workers and combines
//     the block partials in a binary tree.
//   - devices.Accelerator emulates a grid of fixed-size thread blocks with
//     grid-stride element assignment and tree-shaped combining, the
//     association order of a GPU reduction kernel.
//
// For a fixed device, tuning and range, the association order is a pure
// function of the inputs, so results are reproducible from run to run. Across
// devices the association order differs, which for floating-point reducers
// means results may differ by rounding.
//
// Example:
//
//	dev := devices.New()
//	xs := []float64{1, 2, 3, 4}
//	total, err := algorithms.Reduce(dev, 0, len(xs),
//		func(i int) float64 { return xs[i] },
//		reducers.Sum[float64]())
//
// Fetch and combine functions must be safe to call concurrently on the
// parallel devices. The accelerator additionally interleaves elements across
// its virtual threads, so combines there must be commutative as well as
// associative. All catalog reducers are both.
package algorithms

import (
	"math"
	"runtime"
	"sync"

	"github.com/gomlx/reductions/devices"
	"github.com/gomlx/reductions/reducers"
)

// Fetch produces the element value at index i.
//
// A Fetch is typically a small closure over some backing data, e.g. a slice
// lookup or a formula on i. It must be pure: no side effects beyond reading
// its captured source, and the same value for the same index within a call,
// since devices are free to fetch in any order (and scans fetch twice). It
// must be safe for concurrent calls when the reduction runs on a parallel
// device, and it may panic to signal a faulty element, which fails the whole
// reduction with a *ComputeError.
type Fetch[T any] func(i int) T

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}

// foldRange folds fetch over [from, to) left to right, seeding the
// accumulator with the first element. Requires from < to.
//
// It keeps *index updated with the element being processed, so a trapped
// panic can be attributed to it.
func foldRange[T any](from, to int, fetch Fetch[T], reducer reducers.Reducer[T], index *int) T {
	*index = from
	acc := fetch(from)
	for i := from + 1; i < to; i++ {
		*index = i
		acc = reducer.Combine(acc, fetch(i))
	}
	return acc
}

// combineTree folds the partials pairwise in a fixed binary tree: neighbors
// at increasing strides, the shape used by device reduction kernels. The
// slice is clobbered and the result left at partials[0]. Requires
// len(partials) > 0.
func combineTree[T any](partials []T, reducer reducers.Reducer[T]) T {
	for stride := 1; stride < len(partials); stride *= 2 {
		for i := 0; i+stride < len(partials); i += 2 * stride {
			partials[i] = reducer.Combine(partials[i], partials[i+stride])
		}
	}
	return partials[0]
}

// combinePartials runs combineTree trapping panics from the combine
// function. Faults at this stage are not under any element, so the
// *ComputeError carries no index.
func combinePartials[T any](partials []T, reducer reducers.Reducer[T]) (result T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			var zero T
			result = zero
			err = &ComputeError{Recovered: rec, Index: -1}
		}
	}()
	result = combineTree(partials, reducer)
	return
}

// faultTrap captures the first panic raised by the workers of a parallel
// reduction. The reduction still waits for all workers and then discards the
// partials, so a fault never leaks partial results.
type faultTrap struct {
	mu    sync.Mutex
	fault *ComputeError
}

// trap must be called deferred by each worker, with a pointer to the
// worker's current element index (-1 when not under an element).
func (f *faultTrap) trap(index *int) {
	rec := recover()
	if rec == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fault == nil {
		f.fault = &ComputeError{Recovered: rec, Index: *index}
	}
}

func (f *faultTrap) err() error {
	if f.fault == nil {
		return nil
	}
	return f.fault
}

// hostParallelism resolves the device's parallelism budget to a block count
// limit.
func hostParallelism(dev devices.Device) int {
	p := dev.MaxParallelism()
	if p == 0 {
		return runtime.NumCPU()
	}
	if p < 0 {
		// Unlimited: blocks are then bounded only by the min block size.
		return math.MaxInt
	}
	return p
}

// hostPartition splits n elements into contiguous blocks for a Host device:
// as many blocks as the parallelism budget allows, but never smaller than
// the device's min block size. Returns numBlocks == 1 when the range is not
// worth folding in parallel.
func hostPartition(dev devices.Device, n int) (numBlocks, blockLen int) {
	numBlocks = min(hostParallelism(dev), n/dev.MinBlockSize())
	if numBlocks <= 1 {
		return 1, n
	}
	blockLen = ceilDiv(n, numBlocks)
	// Rounding up blockLen may have left trailing blocks empty.
	numBlocks = ceilDiv(n, blockLen)
	return
}

// accelPartition splits n elements into the grid geometry of an Accelerator
// device: up to MaxGridSize blocks of BlockSize virtual threads each.
func accelPartition(dev devices.Device, n int) (numBlocks, blockSize int) {
	blockSize = dev.BlockSize()
	numBlocks = min(dev.MaxGridSize(), ceilDiv(n, blockSize))
	return
}
