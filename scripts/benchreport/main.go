// Command benchreport turns `go test -bench BenchmarkWorkload` output into a
// markdown table comparing each arena configuration with plain make.
//
//	go test ./alloc -run '^$' -bench BenchmarkWorkload -benchmem | go run ./scripts/benchreport
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"time"
)

var (
	inputFile = flag.String(
		"input",
		"",
		"Input file with benchmark output (stdin if not specified)",
	)
	outputFile = flag.String("output", "", "Output markdown file (stdout if not specified)")
	quiet      = flag.Bool("quiet", false, "Suppress progress output")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	in := os.Stdin
	if *inputFile != "" {
		f, err := os.Open(*inputFile)
		if err != nil {
			return fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		in = f
	}

	results := parseBenchmarks(bufio.NewScanner(in))
	if !*quiet {
		fmt.Fprintf(os.Stderr, "Parsed %d benchmark results\n", len(results))
	}

	comparisons := compare(results)
	report := markdownReport(comparisons, time.Now())

	if *outputFile == "" {
		_, err := fmt.Fprint(os.Stdout, report)
		return err
	}
	if err := os.WriteFile(*outputFile, []byte(report), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	if !*quiet {
		fmt.Fprintf(os.Stderr, "Report written to %s\n", *outputFile)
	}
	return nil
}
