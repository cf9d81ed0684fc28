// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package reducers provides the combining operations that reductions fold
// elements with: a Reducer pairs an associative combine function with an
// optional identity value, and an ArgReducer tracks which index the winning
// value came from.
//
// The package ships a catalog of the usual reducers (Sum, Product, Min, Max,
// logical and bitwise operations) for the Go numeric types. Custom operations
// can be built with New and NewWithIdentity.
//
// Reducers must be associative for the parallel devices to be correct.
// Floating-point combines are only approximately associative, so different
// devices may produce slightly different roundings of the same reduction.
// Comparisons on NaN values follow Go semantics.
package reducers

import (
	"golang.org/x/exp/constraints"
)

// Number is the constraint with the Go numeric types the reducer catalog
// supports.
type Number interface {
	constraints.Integer | constraints.Float
}

// Float is the constraint with the Go floating-point types.
type Float interface {
	constraints.Float
}

// Reducer combines two element values into one.
//
// A Reducer may carry an identity value: an identity is required to reduce an
// empty range, and is used to seed accumulators that may otherwise see no
// elements. The combine function must be associative, and must treat the
// identity as neutral: combine(identity, x) == x for every x.
//
// The zero value is not a valid Reducer, build one with New or
// NewWithIdentity.
type Reducer[T any] struct {
	combine     func(a, b T) T
	identity    T
	hasIdentity bool
}

// New returns a Reducer with the given associative combine function and no
// identity value. Reducing an empty range with it fails.
func New[T any](combine func(a, b T) T) Reducer[T] {
	return Reducer[T]{combine: combine}
}

// NewWithIdentity returns a Reducer with the given associative combine
// function and identity value.
func NewWithIdentity[T any](combine func(a, b T) T, identity T) Reducer[T] {
	return Reducer[T]{combine: combine, identity: identity, hasIdentity: true}
}

// IsValid reports whether the Reducer was properly initialized with a combine
// function.
func (r Reducer[T]) IsValid() bool {
	return r.combine != nil
}

// Combine merges two values. On the sequential and host devices argument
// order is preserved: a folds values fetched to the left of b. The
// accelerator interleaves elements across its threads, so combines running
// there must be commutative as well as associative.
func (r Reducer[T]) Combine(a, b T) T {
	return r.combine(a, b)
}

// Identity returns the identity value of the reducer, and whether it has one.
func (r Reducer[T]) Identity() (identity T, ok bool) {
	return r.identity, r.hasIdentity
}

// Sum reduces by adding. The identity is 0.
func Sum[T Number]() Reducer[T] {
	return NewWithIdentity(func(a, b T) T { return a + b }, T(0))
}

// Product reduces by multiplying. The identity is 1.
func Product[T Number]() Reducer[T] {
	return NewWithIdentity(func(a, b T) T { return a * b }, T(1))
}

// Min reduces to the smallest value. The identity is the highest value of T,
// +Inf for floats.
func Min[T Number]() Reducer[T] {
	return NewWithIdentity(func(a, b T) T { return min(a, b) }, highestOf[T]())
}

// Max reduces to the largest value. The identity is the lowest value of T,
// -Inf for floats.
func Max[T Number]() Reducer[T] {
	return NewWithIdentity(func(a, b T) T { return max(a, b) }, lowestOf[T]())
}

// LogicalAnd reduces booleans with "and". The identity is true.
func LogicalAnd() Reducer[bool] {
	return NewWithIdentity(func(a, b bool) bool { return a && b }, true)
}

// LogicalOr reduces booleans with "or". The identity is false.
func LogicalOr() Reducer[bool] {
	return NewWithIdentity(func(a, b bool) bool { return a || b }, false)
}

// LogicalXor reduces booleans with "xor", that is, it reduces to whether an
// odd number of elements is true. The identity is false.
func LogicalXor() Reducer[bool] {
	return NewWithIdentity(func(a, b bool) bool { return a != b }, false)
}

// BitwiseAnd reduces integers with "and". The identity is the all-ones value.
func BitwiseAnd[T constraints.Integer]() Reducer[T] {
	return NewWithIdentity(func(a, b T) T { return a & b }, ^T(0))
}

// BitwiseOr reduces integers with "or". The identity is 0.
func BitwiseOr[T constraints.Integer]() Reducer[T] {
	return NewWithIdentity(func(a, b T) T { return a | b }, T(0))
}

// BitwiseXor reduces integers with "xor". The identity is 0.
func BitwiseXor[T constraints.Integer]() Reducer[T] {
	return NewWithIdentity(func(a, b T) T { return a ^ b }, T(0))
}

// ValueAndIndex is the result of a reduction with argument: the winning value
// and the index it was fetched from.
type ValueAndIndex[T any] struct {
	Value T
	Index int
}

// ArgReducer picks, out of two (value, index) candidates, the one a reduction
// with argument keeps.
//
// The zero value is not a valid ArgReducer, build one with NewArg.
type ArgReducer[T any] struct {
	pick func(a, b ValueAndIndex[T]) ValueAndIndex[T]
}

// NewArg returns an ArgReducer with the given pick function.
//
// For the result to be independent of how the range was partitioned, pick
// must be associative, which in particular requires a deterministic rule for
// equal values. The catalog reducers keep the lowest index on ties.
func NewArg[T any](pick func(a, b ValueAndIndex[T]) ValueAndIndex[T]) ArgReducer[T] {
	return ArgReducer[T]{pick: pick}
}

// IsValid reports whether the ArgReducer was properly initialized with a pick
// function.
func (r ArgReducer[T]) IsValid() bool {
	return r.pick != nil
}

// Pick selects the winner of two candidates. Argument order follows the same
// per-device rules as Reducer.Combine.
func (r ArgReducer[T]) Pick(a, b ValueAndIndex[T]) ValueAndIndex[T] {
	return r.pick(a, b)
}

// MaxWithArgument picks the largest value, keeping the lowest index on ties.
func MaxWithArgument[T Number]() ArgReducer[T] {
	return NewArg(func(a, b ValueAndIndex[T]) ValueAndIndex[T] {
		if b.Value > a.Value || (b.Value == a.Value && b.Index < a.Index) {
			return b
		}
		return a
	})
}

// MinWithArgument picks the smallest value, keeping the lowest index on ties.
func MinWithArgument[T Number]() ArgReducer[T] {
	return NewArg(func(a, b ValueAndIndex[T]) ValueAndIndex[T] {
		if b.Value < a.Value || (b.Value == a.Value && b.Index < a.Index) {
			return b
		}
		return a
	})
}
