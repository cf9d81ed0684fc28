// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// reductions_benchmark measures reduction throughput on the available execution devices.
//
// It times algorithms.Reduce over random float64 data for every combination of
// device, input size and operation, and prints one throughput table per operation.
//
// Example:
//
//	reductions_benchmark -devices="sequential;host;accelerator:blocksize=512" -sizes=1000,1000000 -ops=sum,max
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/exceptions"
	"github.com/gomlx/reductions/algorithms"
	"github.com/gomlx/reductions/devices"
	"github.com/gomlx/reductions/reducers"
	"github.com/gomlx/reductions/vectors"
	"github.com/janpfeifer/must"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"
)

var (
	flagDevices = flag.String("devices", "sequential;host;accelerator",
		"Semicolon-separated list of device configurations to benchmark. "+
			"Each entry uses the same syntax as the REDUCTIONS_DEVICE environment variable, "+
			"e.g. \"host:parallelism=4,minblock=1024\".")
	flagSizes = flag.String("sizes", "1000,100000,10000000",
		"Comma-separated list of input sizes (number of elements) to benchmark.")
	flagOps = flag.String("ops", "sum,max",
		"Comma-separated list of operations to benchmark. Supported: sum, product, min, max.")
	flagTrials = flag.Int("trials", 10,
		"Number of timed runs per device/size/operation combination. The best time is reported.")
	flagSeed = flag.Int64("seed", 42, "Seed used to generate the random input data.")
)

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	if flag.NArg() > 0 {
		klog.Errorf("Unexpected arguments %q. See 'reductions_benchmark -help'.", flag.Args())
		os.Exit(1)
	}
	if *flagTrials < 1 {
		klog.Errorf("Invalid -trials=%d, it must be at least 1.", *flagTrials)
		os.Exit(1)
	}
	devs, names := parseDevices(*flagDevices)
	sizes := parseSizes(*flagSizes)
	ops := parseOps(*flagOps)
	benchmark(devs, names, sizes, ops)
}

var (
	headerRowStyle = lipgloss.NewStyle().Reverse(true).
			Padding(0, 2, 0, 2).Align(lipgloss.Center)

	oddRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFF")).
			PaddingLeft(1).PaddingRight(1)
	evenRowStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#999")).
			PaddingLeft(1).PaddingRight(1)

	titleStyle = lipgloss.NewStyle().Bold(true).Padding(1, 4, 1, 4)
)

func newPlainTable(withHeader bool) *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) (s lipgloss.Style) {
			if withHeader && row == 1 {
				s = headerRowStyle
				return
			}
			switch {
			case row%2 == 0:
				// Even row style.
				s = oddRowStyle
			default:
				// Odd row style
				s = evenRowStyle
			}
			if col == 0 {
				s = s.Align(lipgloss.Right)
			} else {
				s = s.Align(lipgloss.Left)
			}
			return
		})
}

func parseDevices(list string) (devs []devices.Device, names []string) {
	for _, field := range strings.Split(list, ";") {
		name := strings.TrimSpace(field)
		if name == "" {
			continue
		}
		var dev devices.Device
		err := exceptions.TryCatch[error](func() {
			dev = devices.NewWithConfig(name)
		})
		if err != nil {
			klog.Errorf("Invalid device configuration %q in -devices: %v", name, err)
			os.Exit(1)
		}
		devs = append(devs, dev)
		names = append(names, name)
	}
	if len(devs) == 0 {
		klog.Errorf("No devices selected, set -devices to a non-empty list.")
		os.Exit(1)
	}
	return
}

func parseSizes(list string) []int {
	var sizes []int
	for _, field := range strings.Split(list, ",") {
		size, err := strconv.Atoi(strings.TrimSpace(field))
		if err != nil || size <= 0 {
			klog.Errorf("Invalid size %q in -sizes, it must be a positive integer.", field)
			os.Exit(1)
		}
		sizes = append(sizes, size)
	}
	if len(sizes) == 0 {
		klog.Errorf("No sizes selected, set -sizes to a non-empty list.")
		os.Exit(1)
	}
	return sizes
}

// benchOp is one reduction operation selected with -ops.
type benchOp struct {
	name    string
	reducer reducers.Reducer[float64]
}

func parseOps(list string) []benchOp {
	var ops []benchOp
	for _, field := range strings.Split(list, ",") {
		name := strings.ToLower(strings.TrimSpace(field))
		if name == "" {
			continue
		}
		var reducer reducers.Reducer[float64]
		switch name {
		case "sum":
			reducer = reducers.Sum[float64]()
		case "product":
			reducer = reducers.Product[float64]()
		case "min":
			reducer = reducers.Min[float64]()
		case "max":
			reducer = reducers.Max[float64]()
		default:
			klog.Errorf("Unknown operation %q in -ops. Supported: sum, product, min, max.", name)
			os.Exit(1)
		}
		ops = append(ops, benchOp{name: name, reducer: reducer})
	}
	if len(ops) == 0 {
		klog.Errorf("No operations selected, set -ops to a non-empty list.")
		os.Exit(1)
	}
	return ops
}

func benchmark(devs []devices.Device, names []string, sizes []int, ops []benchOp) {
	maxSize := slices.Max(sizes)
	rng := rand.New(rand.NewSource(*flagSeed))
	data := make([]float64, maxSize)
	for i := range data {
		data[i] = rng.Float64()
	}

	opNames := make([]string, len(ops))
	for i, op := range ops {
		opNames[i] = op.name
	}
	fmt.Println(titleStyle.Render("Benchmark"))
	table := newPlainTable(false)
	table.Row("devices", strings.Join(names, ", "))
	table.Row("operations", strings.Join(opNames, ", "))
	table.Row("# elements", humanize.Comma(int64(maxSize)))
	table.Row("data", humanize.Bytes(uint64(maxSize)*8))
	table.Row("trials", humanize.Comma(int64(*flagTrials)))
	fmt.Println(table.Render())

	totalRuns := len(ops) * len(sizes) * len(devs) * *flagTrials
	bar := progressbar.NewOptions(totalRuns,
		progressbar.OptionSetDescription("Benchmarking: "),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("runs"),
		progressbar.OptionSetTheme(progressbar.ThemeUnicode),
	)

	// All measurements happen before any table is rendered, so the progress
	// bar does not interleave with the report.
	rows := make([][][]string, len(ops))
	for opIdx, op := range ops {
		rows[opIdx] = make([][]string, len(sizes))
		for sizeIdx, size := range sizes {
			row := make([]string, 1+len(devs))
			row[0] = humanize.Comma(int64(size))
			fetch := vectors.FromSlice(data[:size]).Fetch()
			for devIdx, dev := range devs {
				var best time.Duration
				for trial := 0; trial < *flagTrials; trial++ {
					start := time.Now()
					_ = must.M1(algorithms.Reduce(dev, 0, size, fetch, op.reducer))
					elapsed := time.Since(start)
					if trial == 0 || elapsed < best {
						best = elapsed
					}
					_ = bar.Add(1)
				}
				gElemsPerSec := float64(size) / best.Seconds() / 1e9
				row[1+devIdx] = fmt.Sprintf("%s (%.3f Gelems/s)", best, gElemsPerSec)
			}
			rows[opIdx][sizeIdx] = row
		}
	}
	must.M(bar.Close())
	fmt.Println()

	header := make([]string, 1+len(devs))
	header[0] = "Size"
	copy(header[1:], names)
	for opIdx, op := range ops {
		title := strings.ToUpper(op.name[:1]) + op.name[1:]
		fmt.Println(titleStyle.Render("Reduce " + title))
		table := newPlainTable(true)
		table.Row(header...)
		for _, row := range rows[opIdx] {
			table.Row(row...)
		}
		fmt.Println(table.Render())
	}
}
