// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package vectors

import (
	"math"

	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"

	"github.com/gomlx/reductions/algorithms"
	"github.com/gomlx/reductions/devices"
	"github.com/gomlx/reductions/reducers"
)

// Sum returns the sum of the elements, 0 for an empty view.
func Sum[T reducers.Number](dev devices.Device, v View[T]) (T, error) {
	return algorithms.Reduce(dev, 0, v.Len(), v.Fetch(), reducers.Sum[T]())
}

// Product returns the product of the elements, 1 for an empty view.
func Product[T reducers.Number](dev devices.Device, v View[T]) (T, error) {
	return algorithms.Reduce(dev, 0, v.Len(), v.Fetch(), reducers.Product[T]())
}

// Min returns the smallest element. An empty view returns the highest value
// of T (+Inf for floats), the identity of the min reduction.
func Min[T reducers.Number](dev devices.Device, v View[T]) (T, error) {
	return algorithms.Reduce(dev, 0, v.Len(), v.Fetch(), reducers.Min[T]())
}

// Max returns the largest element. An empty view returns the lowest value of
// T (-Inf for floats), the identity of the max reduction.
func Max[T reducers.Number](dev devices.Device, v View[T]) (T, error) {
	return algorithms.Reduce(dev, 0, v.Len(), v.Fetch(), reducers.Max[T]())
}

// ArgMin returns the smallest element and its index, the lowest such index
// when the smallest value repeats. An empty view fails with
// algorithms.ErrEmptyRange.
func ArgMin[T reducers.Number](dev devices.Device, v View[T]) (value T, index int, err error) {
	return algorithms.ReduceWithArgument(dev, 0, v.Len(), v.Fetch(), reducers.MinWithArgument[T]())
}

// ArgMax returns the largest element and its index, the lowest such index
// when the largest value repeats. An empty view fails with
// algorithms.ErrEmptyRange.
func ArgMax[T reducers.Number](dev devices.Device, v View[T]) (value T, index int, err error) {
	return algorithms.ReduceWithArgument(dev, 0, v.Len(), v.Fetch(), reducers.MaxWithArgument[T]())
}

// Dot returns the dot product of a and b. The views must have the same
// length, it panics otherwise.
func Dot[T reducers.Number](dev devices.Device, a, b View[T]) (T, error) {
	if a.Len() != b.Len() {
		exceptions.Panicf("vectors: Dot of views with different lengths, %d and %d", a.Len(), b.Len())
	}
	aData, bData := a.data, b.data
	return algorithms.Reduce(dev, 0, a.Len(),
		func(i int) T { return aData[i] * bData[i] },
		reducers.Sum[T]())
}

// SumSquares returns the sum of the squared elements, 0 for an empty view.
func SumSquares[T reducers.Number](dev devices.Device, v View[T]) (T, error) {
	data := v.data
	return algorithms.Reduce(dev, 0, v.Len(),
		func(i int) T { return data[i] * data[i] },
		reducers.Sum[T]())
}

// L2Norm returns the Euclidean norm of the view, 0 for an empty view.
func L2Norm[T reducers.Float](dev devices.Device, v View[T]) (T, error) {
	sumSquares, err := SumSquares(dev, v)
	if err != nil {
		return 0, err
	}
	return T(math.Sqrt(float64(sumSquares))), nil
}

// Mean returns the arithmetic mean of the elements. An empty view fails with
// algorithms.ErrEmptyRange: it has no mean.
func Mean[T reducers.Float](dev devices.Device, v View[T]) (T, error) {
	if v.Len() == 0 {
		return 0, errors.Wrap(algorithms.ErrEmptyRange, "taking the mean of an empty view")
	}
	total, err := Sum(dev, v)
	if err != nil {
		return 0, err
	}
	return total / T(v.Len()), nil
}

// CumSum returns the inclusive running sums of the view: out[i] is the sum
// of elements [0, i]. An empty view returns an empty slice.
func CumSum[T reducers.Number](dev devices.Device, v View[T]) ([]T, error) {
	out := make([]T, v.Len())
	err := algorithms.Scan(dev, 0, v.Len(), v.Fetch(), reducers.Sum[T](),
		func(i int, value T) { out[i] = value })
	if err != nil {
		return nil, err
	}
	return out, nil
}

// All returns whether every element of the view is true. An empty view is
// vacuously true.
func All(dev devices.Device, v View[bool]) (bool, error) {
	return algorithms.Reduce(dev, 0, v.Len(), v.Fetch(), reducers.LogicalAnd())
}

// Any returns whether at least one element of the view is true, false for an
// empty view.
func Any(dev devices.Device, v View[bool]) (bool, error) {
	return algorithms.Reduce(dev, 0, v.Len(), v.Fetch(), reducers.LogicalOr())
}
