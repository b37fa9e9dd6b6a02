package main

import (
	"fmt"
	"slices"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer formats numbers with thousands separators.
var printer = message.NewPrinter(language.English)

type benchResult struct {
	Workload   string        `json:"workload"`
	Target     string        `json:"target"`
	Iterations int           `json:"iterations"`
	Ops        int           `json:"ops"`
	Elapsed    time.Duration `json:"elapsed_ns"`
	NsPerOp    float64       `json:"ns_per_op"`

	Allocs int   `json:"allocs"`
	Frees  int   `json:"frees"`
	Resets int   `json:"resets"`
	Failed int   `json:"failed"`
	Peak   int   `json:"peak_live"`
	Bytes  int64 `json:"requested_bytes"`

	GoMallocs uint64 `json:"go_mallocs"`
	GoBytes   uint64 `json:"go_bytes"`

	Arena   *arenaSummary   `json:"arena,omitempty"`
	Latency *latencySummary `json:"latency,omitempty"`
}

type arenaSummary struct {
	Backing       string  `json:"backing"`
	Classes       string  `json:"classes"`
	Capacity      int64   `json:"capacity"`
	HighWater     int64   `json:"high_water"`
	Grows         int     `json:"grows"`
	OutOfMemory   int     `json:"out_of_memory"`
	FastPathRate  float64 `json:"fast_path_rate"`
	Fragmentation float64 `json:"fragmentation"`
}

type latencySummary struct {
	Samples int           `json:"samples"`
	P50     time.Duration `json:"p50_ns"`
	P99     time.Duration `json:"p99_ns"`
	Max     time.Duration `json:"max_ns"`
}

func summarizeLatency(samples []time.Duration) *latencySummary {
	if len(samples) == 0 {
		return nil
	}
	sorted := slices.Clone(samples)
	slices.Sort(sorted)
	at := func(q float64) time.Duration {
		return sorted[min(int(q*float64(len(sorted))), len(sorted)-1)]
	}
	return &latencySummary{
		Samples: len(sorted),
		P50:     at(0.50),
		P99:     at(0.99),
		Max:     sorted[len(sorted)-1],
	}
}

func printResult(r benchResult) {
	printInfo("\n%s on %s\n", r.Workload, r.Target)
	printInfo("  ops:        %d x %d\n", r.Ops/max(r.Iterations, 1), r.Iterations)
	printInfo("  elapsed:    %s (%.1f ns/op)\n", r.Elapsed.Round(time.Microsecond), r.NsPerOp)
	printInfo("  allocs:     %d (failed %d, peak live %d)\n", r.Allocs, r.Failed, r.Peak)
	printInfo("  frees:      %d, resets: %d\n", r.Frees, r.Resets)
	printInfo("  requested:  %s\n", formatBytes(r.Bytes))
	printInfo("  go heap:    %d mallocs, %s\n", r.GoMallocs, formatBytes(int64(r.GoBytes)))
	if a := r.Arena; a != nil {
		printInfo("  arena:      %s, %s backing, capacity %s, high water %s, %d grows\n",
			a.Classes, a.Backing, formatBytes(a.Capacity), formatBytes(a.HighWater), a.Grows)
		printInfo("  fast path:  %.1f%%, fragmentation %.1f%%\n", a.FastPathRate*100, a.Fragmentation*100)
	}
	if l := r.Latency; l != nil {
		printInfo("  latency:    p50 %s, p99 %s, max %s (%d samples)\n", l.P50, l.P99, l.Max, l.Samples)
	}
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
