// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package reducers

import (
	"math"

	"github.com/gomlx/exceptions"
)

// lowestOf returns the lowest value of T, -Inf for floats.
//
// It only knows the plain Go numeric types: user-defined types (with a "~"
// underlying numeric type) panic, they should build reducers directly with
// New or NewWithIdentity.
func lowestOf[T Number]() (value T) {
	switch p := any(&value).(type) {
	case *int:
		*p = math.MinInt
	case *int8:
		*p = math.MinInt8
	case *int16:
		*p = math.MinInt16
	case *int32:
		*p = math.MinInt32
	case *int64:
		*p = math.MinInt64

	case *uint, *uint8, *uint16, *uint32, *uint64, *uintptr:
		// Zero value already.

	case *float32:
		*p = float32(math.Inf(-1))
	case *float64:
		*p = math.Inf(-1)

	default:
		exceptions.Panicf("reducers: no known lowest value for type %T", value)
	}
	return
}

// highestOf returns the highest value of T, +Inf for floats.
//
// Like lowestOf, it only knows the plain Go numeric types.
func highestOf[T Number]() (value T) {
	switch p := any(&value).(type) {
	case *int:
		*p = math.MaxInt
	case *int8:
		*p = math.MaxInt8
	case *int16:
		*p = math.MaxInt16
	case *int32:
		*p = math.MaxInt32
	case *int64:
		*p = math.MaxInt64

	case *uint:
		*p = ^uint(0)
	case *uint8:
		*p = math.MaxUint8
	case *uint16:
		*p = math.MaxUint16
	case *uint32:
		*p = math.MaxUint32
	case *uint64:
		*p = math.MaxUint64
	case *uintptr:
		*p = ^uintptr(0)

	case *float32:
		*p = float32(math.Inf(1))
	case *float64:
		*p = math.Inf(1)

	default:
		exceptions.Panicf("reducers: no known highest value for type %T", value)
	}
	return
}
