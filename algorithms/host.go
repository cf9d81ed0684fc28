// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package algorithms

import (
	"sync"

	"k8s.io/klog/v2"

	"github.com/gomlx/reductions/devices"
	"github.com/gomlx/reductions/internal/workers"
	"github.com/gomlx/reductions/reducers"
)

// reduceHost splits [start, end) into contiguous blocks folded by parallel
// workers, then combines the block partials in a binary tree.
//
// The partition is a pure function of the range and the device tuning, so
// the association order does not depend on scheduling: each block partial is
// an in-order fold of a fixed sub-range, wherever and whenever it ran.
func reduceHost[T any](dev devices.Device, start, end int, fetch Fetch[T], reducer reducers.Reducer[T]) (T, error) {
	n := end - start
	numBlocks, blockLen := hostPartition(dev, n)
	if numBlocks <= 1 || !workers.Default().IsEnabled() {
		// Too small to be worth the parallelism overhead.
		return reduceSequential(start, end, fetch, reducer)
	}
	klog.V(2).Infof("reductions: host reduce of [%d, %d) in %d blocks of up to %d elements",
		start, end, numBlocks, blockLen)

	partials, err := foldBlocks(numBlocks, blockLen, start, end, fetch, reducer)
	if err != nil {
		var zero T
		return zero, err
	}
	return combinePartials(partials, reducer)
}

// foldBlocks folds each contiguous block of the partition into its partial,
// running the blocks on the process worker pool. Blocks the pool cannot take
// are folded inline by the caller, which bounds goroutines without ever
// blocking, so reductions nested inside callbacks cannot deadlock.
//
// If any callback panics, all blocks still run to completion, the partials
// are discarded and the first fault is returned.
func foldBlocks[T any](numBlocks, blockLen, start, end int, fetch Fetch[T], reducer reducers.Reducer[T]) ([]T, error) {
	pool := workers.Default()
	partials := make([]T, numBlocks)
	var trap faultTrap
	var wg sync.WaitGroup
	wg.Add(numBlocks)
	for b := range numBlocks {
		blockStart := start + b*blockLen
		blockEnd := min(blockStart+blockLen, end)
		task := func() {
			defer wg.Done()
			index := blockStart
			defer trap.trap(&index)
			partials[b] = foldRange(blockStart, blockEnd, fetch, reducer, &index)
		}
		if !pool.StartIfAvailable(task) {
			task()
		}
	}
	wg.Wait()
	if err := trap.err(); err != nil {
		return nil, err
	}
	return partials, nil
}
