// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package devices

import (
	"os"
	"strconv"
	"strings"

	"github.com/gomlx/exceptions"
)

// Constructor takes a device configuration string (optionally empty) and
// returns the configured Device.
type Constructor func(config string) Device

var (
	registeredConstructors = make(map[string]Constructor)
	firstRegistered        string
)

// Register a device constructor with the given name.
//
// The built-in kinds register themselves, but a program can register extra
// names, for instance a pre-tuned profile for a known machine.
//
// To be safe, call Register during initialization of a package.
func Register(name string, constructor Constructor) {
	if len(registeredConstructors) == 0 {
		firstRegistered = name
	}
	registeredConstructors[name] = constructor
}

// DefaultConfig is the device configuration to use if specified.
//
// See NewWithConfig for the format of the configuration string.
var DefaultConfig string

// REDUCTIONS_DEVICE is the environment variable with the default device
// configuration to use.
//
// The format of the config is "<device_name>[:<device_configuration>]",
// e.g. "host:parallelism=8". See NewWithConfig.
const REDUCTIONS_DEVICE = "REDUCTIONS_DEVICE"

// New returns the default Device.
//
// The default is:
//
// 1. The environment REDUCTIONS_DEVICE is used as a configuration if defined.
// 2. Next the variable DefaultConfig is used as a configuration if defined.
// 3. The first registered device is used with an empty configuration ("host").
//
// It panics on an invalid configuration.
func New() Device {
	config, found := os.LookupEnv(REDUCTIONS_DEVICE)
	if found {
		return NewWithConfig(config)
	}
	if DefaultConfig != "" {
		return NewWithConfig(DefaultConfig)
	}
	return NewWithConfig("")
}

// NewWithConfig takes a configuration string formatted as
// "<device_name>[:<device_configuration>]".
//
// The "<device_name>" is the name of a registered device and
// "<device_configuration>" is device specific, a comma-separated list of
// "key=value" pairs:
//
//   - "sequential" takes no parameters.
//   - "host" takes "parallelism" (an int >= -1, see Device.WithMaxParallelism)
//     and "minblock" (an int >= 1, see Device.WithMinBlockSize).
//   - "accelerator" takes "blocksize" (a power of two, see Device.WithBlockSize)
//     and "grid" (an int >= 1, see Device.WithMaxGridSize).
//
// An empty config selects the first registered device ("host") with defaults.
// It panics on unknown device names or malformed configurations.
func NewWithConfig(config string) Device {
	name := firstRegistered
	deviceConfig := ""
	if config != "" {
		name = config
		if idx := strings.Index(config, ":"); idx != -1 {
			name = config[:idx]
			deviceConfig = config[idx+1:]
		}
	}
	constructor, found := registeredConstructors[name]
	if !found {
		exceptions.Panicf("devices: can't find device %q for configuration %q given", name, config)
	}
	return constructor(deviceConfig)
}

func init() {
	// "host" first: it is the default when nothing is configured.
	Register(Host.String(), newHostFromConfig)
	Register(Sequential.String(), newSequentialFromConfig)
	Register(Accelerator.String(), newAcceleratorFromConfig)
}

func newSequentialFromConfig(config string) Device {
	for key := range configPairs(config) {
		exceptions.Panicf("devices: unknown parameter %q for %s device, it takes none", key, Sequential)
	}
	return Sequential.Device()
}

func newHostFromConfig(config string) Device {
	dev := Host.Device()
	for key, value := range configPairs(config) {
		switch key {
		case "parallelism":
			dev = dev.WithMaxParallelism(value)
		case "minblock":
			dev = dev.WithMinBlockSize(value)
		default:
			exceptions.Panicf("devices: unknown parameter %q for %s device, valid ones are \"parallelism\" and \"minblock\"", key, Host)
		}
	}
	return dev
}

func newAcceleratorFromConfig(config string) Device {
	dev := Accelerator.Device()
	for key, value := range configPairs(config) {
		switch key {
		case "blocksize":
			dev = dev.WithBlockSize(value)
		case "grid":
			dev = dev.WithMaxGridSize(value)
		default:
			exceptions.Panicf("devices: unknown parameter %q for %s device, valid ones are \"blocksize\" and \"grid\"", key, Accelerator)
		}
	}
	return dev
}

// configPairs parses a "key=value,key=value" configuration into a map with
// the values converted to ints. It panics on malformed entries.
func configPairs(config string) map[string]int {
	if config == "" {
		return nil
	}
	pairs := make(map[string]int)
	for _, part := range strings.Split(config, ",") {
		key, valueStr, found := strings.Cut(part, "=")
		if !found {
			exceptions.Panicf("devices: malformed configuration entry %q, expected \"key=value\"", part)
		}
		value, err := strconv.Atoi(valueStr)
		if err != nil {
			exceptions.Panicf("devices: invalid value %q for parameter %q, expected an integer", valueStr, key)
		}
		pairs[key] = value
	}
	return pairs
}
