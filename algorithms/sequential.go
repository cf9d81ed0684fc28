// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package algorithms

import (
	"github.com/gomlx/reductions/reducers"
)

// reduceSequential folds the range left to right on the calling goroutine.
// This is the association order the parallel devices are measured against.
func reduceSequential[T any](start, end int, fetch Fetch[T], reducer reducers.Reducer[T]) (result T, err error) {
	index := start
	defer func() {
		if rec := recover(); rec != nil {
			var zero T
			result = zero
			err = &ComputeError{Recovered: rec, Index: index}
		}
	}()
	result = foldRange(start, end, fetch, reducer, &index)
	return
}
