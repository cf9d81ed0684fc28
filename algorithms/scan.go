// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package algorithms

import (
	"sync"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/gomlx/reductions/devices"
	"github.com/gomlx/reductions/internal/workers"
	"github.com/gomlx/reductions/reducers"
)

// Scan computes the running (inclusive prefix) reduction of the range: for
// every i in [start, end) it calls out(i, v) exactly once, v being the fold
// of the elements [start, i]. An empty range emits nothing and is not an
// error.
//
// On parallel devices the scan runs in two passes, per-block folds followed
// by seeded replays, so fetch is called twice per element and out may be
// called concurrently from different goroutines (still exactly once per
// index). Prefixes of blocks after the first associate differently from the
// sequential device, with the usual floating-point rounding consequences.
//
// A panic in fetch, combine or out fails the scan with a *ComputeError.
// Prefixes already handed to out stay emitted, but the scan's error must be
// checked before trusting any of them.
func Scan[T any](dev devices.Device, start, end int, fetch Fetch[T], reducer reducers.Reducer[T], out func(i int, value T)) error {
	return scan(dev, start, end, fetch, reducer, out, false)
}

// ScanExclusive computes the exclusive prefix reduction of the range: for
// every i in [start, end) it calls out(i, v) exactly once, v being the fold
// of the elements [start, i), so out(start) receives the reducer's identity
// value. It fails with ErrIdentityRequired if the reducer has no identity.
//
// Concurrency, rounding and fault behavior are as in Scan.
func ScanExclusive[T any](dev devices.Device, start, end int, fetch Fetch[T], reducer reducers.Reducer[T], out func(i int, value T)) error {
	return scan(dev, start, end, fetch, reducer, out, true)
}

func scan[T any](dev devices.Device, start, end int, fetch Fetch[T], reducer reducers.Reducer[T], out func(i int, value T), exclusive bool) error {
	if fetch == nil {
		exceptions.Panicf("algorithms: scan given a nil fetch function")
	}
	if out == nil {
		exceptions.Panicf("algorithms: scan given a nil out function")
	}
	if !reducer.IsValid() {
		exceptions.Panicf("algorithms: scan given a zero reducers.Reducer, build one with reducers.New or reducers.NewWithIdentity")
	}
	if start > end {
		return errors.Wrapf(ErrInvalidRange, "scanning range [%d, %d)", start, end)
	}
	identity, hasIdentity := reducer.Identity()
	if exclusive && !hasIdentity {
		return errors.Wrapf(ErrIdentityRequired, "exclusive scan of range [%d, %d)", start, end)
	}
	if start == end {
		return nil
	}

	n := end - start
	switch dev.Kind() {
	case devices.Sequential:
		return scanSequential(start, end, fetch, reducer, identity, out, exclusive)
	case devices.Host:
		numBlocks, blockLen := hostPartition(dev, n)
		if numBlocks <= 1 || !workers.Default().IsEnabled() {
			return scanSequential(start, end, fetch, reducer, identity, out, exclusive)
		}
		return scanParallel(numBlocks, blockLen, start, end, fetch, reducer, identity, out, exclusive)
	case devices.Accelerator:
		numBlocks, blockSize := accelPartition(dev, n)
		if numBlocks <= 1 {
			// A single block replays in order: same prefixes as sequential.
			return scanSequential(start, end, fetch, reducer, identity, out, exclusive)
		}
		// A grid-stride layout would break prefix order, so the scan tiles
		// the range contiguously: one tile per block, tile lengths rounded
		// up to whole threads.
		blockLen := ceilDiv(ceilDiv(n, numBlocks), blockSize) * blockSize
		numBlocks = ceilDiv(n, blockLen)
		return scanParallel(numBlocks, blockLen, start, end, fetch, reducer, identity, out, exclusive)
	}
	exceptions.Panicf("algorithms: unknown device kind %s", dev.Kind())
	return nil
}

// scanSequential emits the prefixes in a single left-to-right pass on the
// calling goroutine.
func scanSequential[T any](start, end int, fetch Fetch[T], reducer reducers.Reducer[T], identity T, out func(i int, value T), exclusive bool) (err error) {
	index := start
	defer func() {
		if rec := recover(); rec != nil {
			err = &ComputeError{Recovered: rec, Index: index}
		}
	}()
	if exclusive {
		acc := identity
		for i := start; i < end; i++ {
			index = i
			out(i, acc)
			acc = reducer.Combine(acc, fetch(i))
		}
		return nil
	}
	acc := fetch(start)
	out(start, acc)
	for i := start + 1; i < end; i++ {
		index = i
		acc = reducer.Combine(acc, fetch(i))
		out(i, acc)
	}
	return nil
}

// scanParallel runs the two-pass parallel scan: fold each block, fold the
// block partials left to right into per-block seeds, then replay each block
// emitting its prefixes on top of its seed.
func scanParallel[T any](numBlocks, blockLen, start, end int, fetch Fetch[T], reducer reducers.Reducer[T], identity T, out func(i int, value T), exclusive bool) error {
	klog.V(2).Infof("reductions: parallel scan of [%d, %d) in %d blocks of up to %d elements",
		start, end, numBlocks, blockLen)
	partials, err := foldBlocks(numBlocks, blockLen, start, end, fetch, reducer)
	if err != nil {
		return err
	}
	seeds, seeded, err := scanSeeds(partials, reducer, identity, exclusive)
	if err != nil {
		return err
	}

	pool := workers.Default()
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
			acc, hasAcc := seeds[b], seeded[b]
			for i := blockStart; i < blockEnd; i++ {
				index = i
				if exclusive {
					out(i, acc)
					acc = reducer.Combine(acc, fetch(i))
					continue
				}
				v := fetch(i)
				if hasAcc {
					acc = reducer.Combine(acc, v)
				} else {
					acc = v
					hasAcc = true
				}
				out(i, acc)
			}
		}
		if !pool.StartIfAvailable(task) {
			task()
		}
	}
	wg.Wait()
	return trap.err()
}

// scanSeeds folds the block partials left to right into the seed of each
// block: the fold of every element before it. The first block's seed is the
// identity for exclusive scans and absent otherwise (seeded[0] == false).
func scanSeeds[T any](partials []T, reducer reducers.Reducer[T], identity T, exclusive bool) (seeds []T, seeded []bool, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			seeds, seeded = nil, nil
			err = &ComputeError{Recovered: rec, Index: -1}
		}
	}()
	numBlocks := len(partials)
	seeds = make([]T, numBlocks)
	seeded = make([]bool, numBlocks)
	if exclusive {
		seeds[0] = identity
		seeded[0] = true
	}
	for b := 1; b < numBlocks; b++ {
		if seeded[b-1] {
			seeds[b] = reducer.Combine(seeds[b-1], partials[b-1])
		} else {
			seeds[b] = partials[b-1]
		}
		seeded[b] = true
	}
	return
}
