package main

import (
	"bufio"
	"cmp"
	"encoding/json"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"
)

// baseline is the target name of the plain-make runs.
const baseline = "make"

// benchmarkResult is one parsed benchmark line.
type benchmarkResult struct {
	Name        string
	Workload    string
	Target      string // size-class preset, "mmap" or "make"
	Iterations  int
	NsPerOp     float64
	BytesPerOp  int64
	AllocsPerOp int64
}

// comparison pairs one arena target with the make baseline of its workload.
type comparison struct {
	Workload     string
	Target       string
	ArenaNs      float64
	MakeNs       float64
	Speedup      float64 // MakeNs / ArenaNs
	ArenaAllocs  int64
	MakeAllocs   int64
	HasBaseline  bool
}

// BenchmarkWorkload/churn/balanced-8    100    12450 ns/op    4096 B/op    8 allocs/op
var benchmarkRegex = regexp.MustCompile(
	`^(Benchmark\S+)\s+(\d+)\s+([\d.]+)\s+ns/op(?:\s+([\d.]+)\s+B/op)?(?:\s+([\d.]+)\s+allocs/op)?`,
)

func parseBenchmarks(scanner *bufio.Scanner) []benchmarkResult {
	var results []benchmarkResult
	for scanner.Scan() {
		line := scanner.Text()

		// Lines from `go test -json` carry the text in Output.
		var event struct{ Output string }
		if err := json.Unmarshal([]byte(line), &event); err == nil && event.Output != "" {
			line = event.Output
		}

		m := benchmarkRegex.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		parts := strings.Split(m[1], "/")
		if len(parts) != 3 || parts[0] != "BenchmarkWorkload" {
			continue
		}

		r := benchmarkResult{
			Name:     m[1],
			Workload: parts[1],
			Target:   trimProcs(parts[2]),
		}
		r.Iterations, _ = strconv.Atoi(m[2])
		r.NsPerOp, _ = strconv.ParseFloat(m[3], 64)
		if m[4] != "" {
			r.BytesPerOp, _ = strconv.ParseInt(m[4], 10, 64)
		}
		if m[5] != "" {
			r.AllocsPerOp, _ = strconv.ParseInt(m[5], 10, 64)
		}
		results = append(results, r)
	}
	return results
}

// trimProcs drops the -GOMAXPROCS suffix the testing package appends.
func trimProcs(s string) string {
	if i := strings.LastIndex(s, "-"); i > 0 {
		if _, err := strconv.Atoi(s[i+1:]); err == nil {
			return s[:i]
		}
	}
	return s
}

func compare(results []benchmarkResult) []comparison {
	base := make(map[string]benchmarkResult)
	for _, r := range results {
		if r.Target == baseline {
			base[r.Workload] = r
		}
	}

	var out []comparison
	for _, r := range results {
		if r.Target == baseline {
			continue
		}
		c := comparison{
			Workload:    r.Workload,
			Target:      r.Target,
			ArenaNs:     r.NsPerOp,
			ArenaAllocs: r.AllocsPerOp,
		}
		if b, ok := base[r.Workload]; ok && r.NsPerOp > 0 {
			c.HasBaseline = true
			c.MakeNs = b.NsPerOp
			c.MakeAllocs = b.AllocsPerOp
			c.Speedup = b.NsPerOp / r.NsPerOp
		}
		out = append(out, c)
	}

	slices.SortFunc(out, func(a, b comparison) int {
		return cmp.Or(cmp.Compare(a.Workload, b.Workload), cmp.Compare(a.Target, b.Target))
	})
	return out
}

func markdownReport(comparisons []comparison, now time.Time) string {
	var sb strings.Builder
	sb.WriteString("# Arena Benchmark Report\n\n")
	fmt.Fprintf(&sb, "Generated: %s\n\n", now.Format("2006-01-02 15:04:05"))

	faster := 0
	for _, c := range comparisons {
		if c.HasBaseline && c.Speedup > 1 {
			faster++
		}
	}
	fmt.Fprintf(&sb, "Arena faster than make in %d of %d configurations.\n\n", faster, len(comparisons))

	sb.WriteString("| Workload | Target | Arena ns/op | make ns/op | Speedup | Arena allocs/op | make allocs/op |\n")
	sb.WriteString("|---|---|---:|---:|---:|---:|---:|\n")
	for _, c := range comparisons {
		if !c.HasBaseline {
			fmt.Fprintf(&sb, "| %s | %s | %.0f | - | - | %d | - |\n", c.Workload, c.Target, c.ArenaNs, c.ArenaAllocs)
			continue
		}
		fmt.Fprintf(&sb, "| %s | %s | %.0f | %.0f | %.2fx | %d | %d |\n",
			c.Workload, c.Target, c.ArenaNs, c.MakeNs, c.Speedup, c.ArenaAllocs, c.MakeAllocs)
	}
	return sb.String()
}
