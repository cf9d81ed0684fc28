// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package algorithms_test

import (
	"fmt"
	"math"
	"math/rand"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/x448/float16"

	"github.com/gomlx/reductions/algorithms"
	"github.com/gomlx/reductions/algorithms/algotest"
	"github.com/gomlx/reductions/devices"
	"github.com/gomlx/reductions/reducers"
)

func TestReduceEmptyRange(t *testing.T) {
	// An empty range must return the identity without ever calling fetch.
	neverFetch := func(i int) int {
		panic(fmt.Sprintf("fetch(%d) called on an empty range", i))
	}
	for _, dev := range algotest.TestDevices() {
		t.Run(dev.Description(), func(t *testing.T) {
			got, err := algorithms.Reduce(dev, 3, 3, neverFetch, reducers.Sum[int]())
			require.NoError(t, err)
			assert.Equal(t, 0, got)

			got, err = algorithms.Reduce(dev, -7, -7, neverFetch, reducers.Product[int]())
			require.NoError(t, err)
			assert.Equal(t, 1, got)

			got, err = algorithms.Reduce(dev, 0, 0, neverFetch, reducers.Max[int]())
			require.NoError(t, err)
			assert.Equal(t, math.MinInt, got)

			// Without an identity there is nothing to return.
			got, err = algorithms.Reduce(dev, 5, 5, neverFetch,
				reducers.New(func(a, b int) int { return a + b }))
			require.ErrorIs(t, err, algorithms.ErrEmptyRange)
			assert.Equal(t, 0, got)
		})
	}
}

func TestReduceInvalidRange(t *testing.T) {
	fetch := func(i int) int { return i }
	for _, dev := range algotest.TestDevices() {
		t.Run(dev.Description(), func(t *testing.T) {
			got, err := algorithms.Reduce(dev, 10, 0, fetch, reducers.Sum[int]())
			require.ErrorIs(t, err, algorithms.ErrInvalidRange)
			assert.Equal(t, 0, got)

			_, _, err = algorithms.ReduceWithArgument(dev, 1, 0, fetch, reducers.MaxWithArgument[int]())
			require.ErrorIs(t, err, algorithms.ErrInvalidRange)
		})
	}
}

func TestReduceCounting(t *testing.T) {
	// Reducing n ones with + must count exactly n on every device, whatever
	// the partition: blocks, grids and partial tiles must neither drop nor
	// duplicate elements.
	one := func(i int) int { return 1 }
	for _, n := range []int{1, 2, 3, 5, 8, 100, 1023, 1024, 1025, 100_000} {
		algotest.RunReduce(t, fmt.Sprintf("count-%d", n), 0, n, one, reducers.Sum[int](), n, 0)
	}
	// Also with an offset range.
	algotest.RunReduce(t, "count-offset", -50, 1000, one, reducers.Sum[int](), 1050, 0)
}

func TestReduceFirstTen(t *testing.T) {
	fetch := func(i int) int { return i }
	algotest.RunReduce(t, "sum-0..9", 0, 10, fetch, reducers.Sum[int](), 45, 0)
	algotest.RunReduce(t, "max-0..9", 0, 10, fetch, reducers.Max[int](), 9, 0)

	// The same reductions work without an identity on a non-empty range.
	algotest.RunReduce(t, "sum-0..9-no-identity", 0, 10, fetch,
		reducers.New(func(a, b int) int { return a + b }), 45, 0)
	algotest.RunReduce(t, "max-0..9-no-identity", 0, 10, fetch,
		reducers.New(func(a, b int) int { return max(a, b) }), 9, 0)
}

func TestReduceCatalogOps(t *testing.T) {
	xs := []uint8{0b1100, 0b1010, 0b0110, 0b1111, 0b0001}
	fetch := func(i int) uint8 { return xs[i] }
	algotest.RunReduce(t, "bitwise-and", 0, len(xs), fetch, reducers.BitwiseAnd[uint8](), uint8(0b0000), 0)
	algotest.RunReduce(t, "bitwise-or", 0, len(xs), fetch, reducers.BitwiseOr[uint8](), uint8(0b1111), 0)
	// 1100^1010=0110, ^0110=0000, ^1111=1111, ^0001=1110.
	algotest.RunReduce(t, "bitwise-xor", 0, len(xs), fetch, reducers.BitwiseXor[uint8](), uint8(0b1110), 0)

	bools := []bool{true, true, false, true}
	fetchBool := func(i int) bool { return bools[i] }
	algotest.RunReduce(t, "logical-and", 0, len(bools), fetchBool, reducers.LogicalAnd(), false, 0)
	algotest.RunReduce(t, "logical-or", 0, len(bools), fetchBool, reducers.LogicalOr(), true, 0)
	algotest.RunReduce(t, "logical-xor", 0, len(bools), fetchBool, reducers.LogicalXor(), true, 0)

	halves := []float16.Float16{
		float16.Fromfloat32(1.5),
		float16.Fromfloat32(2.5),
		float16.Fromfloat32(3),
	}
	fetchHalf := func(i int) float16.Float16 { return halves[i] }
	algotest.RunReduce(t, "sum-float16", 0, len(halves), fetchHalf,
		reducers.SumFloat16(), float16.Fromfloat32(7), 0)
	algotest.RunReduce(t, "max-float16", 0, len(halves), fetchHalf,
		reducers.MaxFloat16(), float16.Fromfloat32(3), 0)
}

func TestReduceMatchesSequential(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	xs := make([]float64, 10_000)
	for i := range xs {
		xs[i] = rng.Float64()*2 - 1
	}
	fetch := func(i int) float64 { return xs[i] }

	// Sums associate differently per device, so only within tolerance.
	algotest.RunAgainstSequential(t, "random-sum", 0, len(xs), fetch, reducers.Sum[float64](), 1e-9)
	// Min and max are association independent, results must be identical.
	algotest.RunAgainstSequential(t, "random-min", 0, len(xs), fetch, reducers.Min[float64](), 0)
	algotest.RunAgainstSequential(t, "random-max", 0, len(xs), fetch, reducers.Max[float64](), 0)

	ints := make([]int64, 5_000)
	for i := range ints {
		ints[i] = rng.Int63n(1_000_000) - 500_000
	}
	fetchInt := func(i int) int64 { return ints[i] }
	// Integer addition is exactly associative: all devices agree exactly.
	algotest.RunAgainstSequential(t, "random-int-sum", 0, len(ints), fetchInt, reducers.Sum[int64](), 0)
	algotest.RunAgainstSequential(t, "random-int-xor", 0, len(ints), fetchInt, reducers.BitwiseXor[int64](), 0)
}

func TestReduceDeterministic(t *testing.T) {
	// Two identical calls must produce bit-identical results, even for
	// floating point: the partition, and so the association order, is a pure
	// function of the range and device tuning.
	rng := rand.New(rand.NewSource(7))
	xs := make([]float64, 50_000)
	for i := range xs {
		xs[i] = rng.NormFloat64()
	}
	fetch := func(i int) float64 { return xs[i] }
	for _, dev := range algotest.TestDevices() {
		t.Run(dev.Description(), func(t *testing.T) {
			first, err := algorithms.Reduce(dev, 0, len(xs), fetch, reducers.Sum[float64]())
			require.NoError(t, err)
			for range 3 {
				again, err := algorithms.Reduce(dev, 0, len(xs), fetch, reducers.Sum[float64]())
				require.NoError(t, err)
				require.Equal(t, first, again)
			}
		})
	}
}

func TestReduceOrderedDevices(t *testing.T) {
	// Sequential and host devices preserve left-to-right order, so
	// associative but non-commutative reducers work on them. The accelerator
	// interleaves elements and gives no such guarantee.
	concat := reducers.New(func(a, b string) string { return a + b })
	fetch := func(i int) string { return fmt.Sprintf("%d", i) }
	orderedDevs := []devices.Device{
		devices.Sequential.Device(),
		devices.Host.Device(),
		devices.Host.Device().WithMaxParallelism(4).WithMinBlockSize(1),
	}
	for _, dev := range orderedDevs {
		t.Run(dev.Description(), func(t *testing.T) {
			got, err := algorithms.Reduce(dev, 0, 10, fetch, concat)
			require.NoError(t, err)
			assert.Equal(t, "0123456789", got)
		})
	}
}

func TestReduceWithArgument(t *testing.T) {
	xs := []float64{3, 1, 4, 1, 5, 9, 2, 6, 5, 3}
	fetch := func(i int) float64 { return xs[i] }
	for _, dev := range algotest.TestDevices() {
		t.Run(dev.Description(), func(t *testing.T) {
			value, index, err := algorithms.ReduceWithArgument(dev, 0, len(xs), fetch, reducers.MaxWithArgument[float64]())
			require.NoError(t, err)
			assert.Equal(t, 9.0, value)
			assert.Equal(t, 5, index)

			// 1 appears at indices 1 and 3: ties keep the lowest index.
			value, index, err = algorithms.ReduceWithArgument(dev, 0, len(xs), fetch, reducers.MinWithArgument[float64]())
			require.NoError(t, err)
			assert.Equal(t, 1.0, value)
			assert.Equal(t, 1, index)

			// All-equal elements: the lowest index must win on every device,
			// whatever the partition.
			constant := func(i int) int { return 42 }
			cValue, cIndex, err := algorithms.ReduceWithArgument(dev, 0, 1000, constant, reducers.MaxWithArgument[int]())
			require.NoError(t, err)
			assert.Equal(t, 42, cValue)
			assert.Equal(t, 0, cIndex)

			// Empty ranges have no argument to return.
			_, _, err = algorithms.ReduceWithArgument(dev, 0, 0, fetch, reducers.MaxWithArgument[float64]())
			require.ErrorIs(t, err, algorithms.ErrEmptyRange)
		})
	}
}

var errBadElement = errors.New("bad element")

func TestReduceFaultyFetch(t *testing.T) {
	const n = 1000
	const faultyIndex = 377
	fetch := func(i int) float64 {
		if i == faultyIndex {
			panic(errBadElement)
		}
		return 1
	}
	for _, dev := range algotest.TestDevices() {
		t.Run(dev.Description(), func(t *testing.T) {
			got, err := algorithms.Reduce(dev, 0, n, fetch, reducers.Sum[float64]())
			require.Error(t, err)

			// No partial results: the value is the zero value.
			assert.Zero(t, got)

			// The fault is reported with the element index and the panic
			// value, whatever worker hit it.
			var computeErr *algorithms.ComputeError
			require.ErrorAs(t, err, &computeErr)
			assert.Equal(t, faultyIndex, computeErr.Index)
			assert.ErrorIs(t, err, errBadElement)
		})
	}
}

func TestReduceFaultyCombine(t *testing.T) {
	fetch := func(i int) int { return i }
	badCombine := reducers.New(func(a, b int) int {
		if b == 55 {
			panic("poisoned value")
		}
		return a + b
	})
	for _, dev := range algotest.TestDevices() {
		t.Run(dev.Description(), func(t *testing.T) {
			got, err := algorithms.Reduce(dev, 0, 100, fetch, badCombine)
			require.Error(t, err)
			assert.Zero(t, got)
			var computeErr *algorithms.ComputeError
			require.ErrorAs(t, err, &computeErr)
			assert.Equal(t, "poisoned value", computeErr.Recovered)
		})
	}
}

func TestReduceMisusePanics(t *testing.T) {
	dev := devices.Sequential.Device()
	require.Panics(t, func() {
		_, _ = algorithms.Reduce[int](dev, 0, 10, nil, reducers.Sum[int]())
	})
	require.Panics(t, func() {
		_, _ = algorithms.Reduce(dev, 0, 10, func(i int) int { return i }, reducers.Reducer[int]{})
	})
	require.Panics(t, func() {
		_, _, _ = algorithms.ReduceWithArgument(dev, 0, 10, func(i int) int { return i }, reducers.ArgReducer[int]{})
	})
}

func TestReduceNested(t *testing.T) {
	// A reduction whose fetch runs another reduction must not deadlock even
	// when the worker pool saturates: blocks the pool cannot take run inline.
	const outer = 16
	const inner = 2000
	one := func(i int) int { return 1 }
	outerDev := devices.Host.Device().WithMaxParallelism(8).WithMinBlockSize(1)
	innerDev := devices.Host.Device().WithMinBlockSize(100)
	fetch := func(i int) int {
		total, err := algorithms.Reduce(innerDev, 0, inner, one, reducers.Sum[int]())
		if err != nil {
			panic(err)
		}
		return total
	}
	got, err := algorithms.Reduce(outerDev, 0, outer, fetch, reducers.Sum[int]())
	require.NoError(t, err)
	assert.Equal(t, outer*inner, got)
}
