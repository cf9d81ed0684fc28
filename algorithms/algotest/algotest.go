// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package algotest holds test utilities for packages that exercise
// reductions across every device kind.
package algotest

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/gomlx/reductions/algorithms"
	"github.com/gomlx/reductions/devices"
	"github.com/gomlx/reductions/reducers"
)

var printDevicesOnce sync.Once

// TestDevices returns the devices tests should run on: every kind with
// default tuning, plus tightly tuned variants that force the many-block
// paths even on the small ranges tests use.
func TestDevices() []devices.Device {
	devs := []devices.Device{
		devices.Sequential.Device(),
		devices.Host.Device(),
		devices.Host.Device().WithMaxParallelism(2).WithMinBlockSize(1),
		devices.Accelerator.Device(),
		devices.Accelerator.Device().WithBlockSize(4).WithMaxGridSize(2),
	}
	printDevicesOnce.Do(func() {
		for _, dev := range devs {
			fmt.Printf("Test device: %s\n", dev.Description())
		}
	})
	return devs
}

// RunReduce reduces [start, end) on every test device and checks the result
// against want, reporting back any errors in t.
//
// delta is the margin on the difference of result and want that is
// acceptable. Values of delta <= 0 mean only exact equality is accepted.
func RunReduce[T any](t *testing.T, testName string, start, end int, fetch algorithms.Fetch[T], reducer reducers.Reducer[T], want T, delta float64) {
	t.Run(testName, func(t *testing.T) {
		for _, dev := range TestDevices() {
			got, err := algorithms.Reduce(dev, start, end, fetch, reducer)
			require.NoErrorf(t, err, "%s: Reduce failed on device %s", testName, dev.Description())
			if delta > 0 {
				require.InDeltaf(t, want, got, delta, "%s: wrong result on device %s", testName, dev.Description())
			} else {
				require.Equalf(t, want, got, "%s: wrong result on device %s", testName, dev.Description())
			}
		}
	})
}

// RunAgainstSequential reduces [start, end) on every test device and checks
// the parallel devices agree with the sequential left-to-right fold within
// delta (<= 0 meaning exact equality), the associativity sanity check for a
// reducer.
func RunAgainstSequential[T any](t *testing.T, testName string, start, end int, fetch algorithms.Fetch[T], reducer reducers.Reducer[T], delta float64) {
	t.Run(testName, func(t *testing.T) {
		want, err := algorithms.Reduce(devices.Sequential.Device(), start, end, fetch, reducer)
		require.NoErrorf(t, err, "%s: Reduce failed on the sequential device", testName)
		for _, dev := range TestDevices() {
			got, err := algorithms.Reduce(dev, start, end, fetch, reducer)
			require.NoErrorf(t, err, "%s: Reduce failed on device %s", testName, dev.Description())
			if delta > 0 {
				require.InDeltaf(t, want, got, delta, "%s: device %s disagrees with sequential", testName, dev.Description())
			} else {
				require.Equalf(t, want, got, "%s: device %s disagrees with sequential", testName, dev.Description())
			}
		}
	})
}
