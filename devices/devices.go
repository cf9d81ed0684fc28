// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package devices defines the execution targets on which reductions run.
//
// A Device is a small immutable value: a Kind (Sequential, Host or
// Accelerator) plus the tuning parameters for that kind. Devices are cheap to
// copy and safe to share across goroutines.
//
// The package also keeps a registry of named device configurations, so the
// target can be selected at runtime with a string, e.g. "host:parallelism=8",
// or through the REDUCTIONS_DEVICE environment variable. See New and
// NewWithConfig.
//
// To simplify error handling, configuration errors panic with a stack trace.
// See package github.com/gomlx/exceptions.
package devices

import (
	"fmt"

	"github.com/gomlx/exceptions"
)

// Kind enumerates the types of execution targets available.
//
// The set is closed: reduction strategies switch exhaustively on it.
type Kind int

const (
	// Sequential executes reductions as a plain left-to-right fold on the
	// calling goroutine. It is the reference target the parallel ones are
	// compared against.
	Sequential Kind = iota

	// Host executes reductions on the host CPU, splitting the index range in
	// contiguous blocks folded by parallel workers.
	Host

	// Accelerator executes reductions with a grid-and-blocks decomposition in
	// the style of GPU reduction kernels: fixed-size thread blocks, grid-stride
	// element assignment and tree-shaped combining. It runs on the host but
	// reproduces the deterministic association order of a device kernel.
	Accelerator
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case Sequential:
		return "sequential"
	case Host:
		return "host"
	case Accelerator:
		return "accelerator"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Default tuning values. They can be overridden per Device with the
// WithXxx methods.
const (
	// DefaultMinBlockSize is the minimum number of elements per host block.
	// Ranges smaller than this are folded sequentially, the per-goroutine
	// overhead not being worth it.
	DefaultMinBlockSize = 4096

	// DefaultBlockSize is the number of virtual threads per accelerator block.
	DefaultBlockSize = 256

	// DefaultMaxGridSize is the maximum number of accelerator blocks per launch.
	DefaultMaxGridSize = 1024
)

// Device is an execution target for reductions: a Kind plus tuning.
//
// The zero value is a valid Sequential device. Use Kind.Device to build one
// and the WithXxx methods to refine it:
//
//	dev := devices.Host.Device().WithMaxParallelism(4)
//
// Devices are values: WithXxx methods return copies, and a Device can be
// shared freely between goroutines.
type Device struct {
	kind Kind

	// maxParallelism limits the number of block workers of a Host reduction.
	// 0 means runtime.NumCPU(), -1 means no limit.
	maxParallelism int

	// minBlockSize is the minimum elements per Host block, 0 meaning
	// DefaultMinBlockSize.
	minBlockSize int

	// blockSize is the number of virtual threads per Accelerator block, 0
	// meaning DefaultBlockSize. Always a power of two.
	blockSize int

	// maxGridSize is the maximum Accelerator blocks per launch, 0 meaning
	// DefaultMaxGridSize.
	maxGridSize int
}

// Device returns a Device of this kind with default tuning.
func (k Kind) Device() Device {
	switch k {
	case Sequential, Host, Accelerator:
		return Device{kind: k}
	}
	exceptions.Panicf("devices: invalid device kind %d", int(k))
	return Device{}
}

// Kind returns the kind of the device.
func (d Device) Kind() Kind {
	return d.kind
}

// Name returns the short name of the device, e.g. "host".
func (d Device) Name() string {
	return d.kind.String()
}

// Description is a longer description of the Device that can be used to pretty-print,
// including its tuning parameters.
func (d Device) Description() string {
	switch d.kind {
	case Host:
		parallelism := "auto"
		if d.maxParallelism > 0 {
			parallelism = fmt.Sprintf("%d", d.maxParallelism)
		} else if d.maxParallelism < 0 {
			parallelism = "unlimited"
		}
		return fmt.Sprintf("host(parallelism=%s, minblock=%d)", parallelism, d.MinBlockSize())
	case Accelerator:
		return fmt.Sprintf("accelerator(blocksize=%d, grid=%d)", d.BlockSize(), d.MaxGridSize())
	}
	return d.kind.String()
}

// String implements fmt.Stringer.
func (d Device) String() string {
	return d.Name()
}

// MaxParallelism returns the limit on block workers for Host reductions:
// 0 means runtime.NumCPU() and -1 means no limit.
func (d Device) MaxParallelism() int {
	return d.maxParallelism
}

// MinBlockSize returns the minimum number of elements per block of a Host
// reduction. Ranges smaller than this are folded sequentially.
func (d Device) MinBlockSize() int {
	if d.minBlockSize == 0 {
		return DefaultMinBlockSize
	}
	return d.minBlockSize
}

// BlockSize returns the number of virtual threads per block of an Accelerator
// reduction. It is always a power of two.
func (d Device) BlockSize() int {
	if d.blockSize == 0 {
		return DefaultBlockSize
	}
	return d.blockSize
}

// MaxGridSize returns the maximum number of blocks per launch of an
// Accelerator reduction.
func (d Device) MaxGridSize() int {
	if d.maxGridSize == 0 {
		return DefaultMaxGridSize
	}
	return d.maxGridSize
}

// WithMaxParallelism returns a copy of the device with the limit of parallel
// block workers set to maxParallelism: 0 means runtime.NumCPU(), -1 means no
// limit. It panics if the device is not a Host device.
func (d Device) WithMaxParallelism(maxParallelism int) Device {
	if d.kind != Host {
		exceptions.Panicf("devices: WithMaxParallelism is only valid for %s devices, got %s", Host, d.kind)
	}
	if maxParallelism < -1 {
		exceptions.Panicf("devices: invalid max parallelism %d, must be >= -1", maxParallelism)
	}
	d.maxParallelism = maxParallelism
	return d
}

// WithMinBlockSize returns a copy of the device with the minimum number of
// elements per parallel block set to minBlockSize. It panics if the device is
// not a Host device or if minBlockSize < 1.
func (d Device) WithMinBlockSize(minBlockSize int) Device {
	if d.kind != Host {
		exceptions.Panicf("devices: WithMinBlockSize is only valid for %s devices, got %s", Host, d.kind)
	}
	if minBlockSize < 1 {
		exceptions.Panicf("devices: invalid min block size %d, must be >= 1", minBlockSize)
	}
	d.minBlockSize = minBlockSize
	return d
}

// WithBlockSize returns a copy of the device with the number of virtual
// threads per block set to blockSize, which must be a power of two. It panics
// if the device is not an Accelerator device.
func (d Device) WithBlockSize(blockSize int) Device {
	if d.kind != Accelerator {
		exceptions.Panicf("devices: WithBlockSize is only valid for %s devices, got %s", Accelerator, d.kind)
	}
	if blockSize < 1 || blockSize&(blockSize-1) != 0 {
		exceptions.Panicf("devices: invalid block size %d, must be a power of two", blockSize)
	}
	d.blockSize = blockSize
	return d
}

// WithMaxGridSize returns a copy of the device with the maximum number of
// blocks per launch set to maxGridSize. It panics if the device is not an
// Accelerator device or if maxGridSize < 1.
func (d Device) WithMaxGridSize(maxGridSize int) Device {
	if d.kind != Accelerator {
		exceptions.Panicf("devices: WithMaxGridSize is only valid for %s devices, got %s", Accelerator, d.kind)
	}
	if maxGridSize < 1 {
		exceptions.Panicf("devices: invalid max grid size %d, must be >= 1", maxGridSize)
	}
	d.maxGridSize = maxGridSize
	return d
}
