// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package reducers

import (
	"github.com/x448/float16"
)

// Half-precision reducers. float16.Float16 is not a Go arithmetic type, so
// these combine through float32 and convert back, rounding at each step.

// SumFloat16 reduces half-precision floats by adding. The identity is 0.
func SumFloat16() Reducer[float16.Float16] {
	return NewWithIdentity(func(a, b float16.Float16) float16.Float16 {
		return float16.Fromfloat32(a.Float32() + b.Float32())
	}, float16.Fromfloat32(0))
}

// MinFloat16 reduces half-precision floats to the smallest value.
// The identity is +Inf.
func MinFloat16() Reducer[float16.Float16] {
	return NewWithIdentity(func(a, b float16.Float16) float16.Float16 {
		if b.Float32() < a.Float32() {
			return b
		}
		return a
	}, float16.Inf(1))
}

// MaxFloat16 reduces half-precision floats to the largest value.
// The identity is -Inf.
func MaxFloat16() Reducer[float16.Float16] {
	return NewWithIdentity(func(a, b float16.Float16) float16.Float16 {
		if b.Float32() > a.Float32() {
			return b
		}
		return a
	}, float16.Inf(-1))
}
