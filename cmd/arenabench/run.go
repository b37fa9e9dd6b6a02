package main

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/joshuapare/arenakit/alloc"
	"github.com/joshuapare/arenakit/internal/backing"
	"github.com/joshuapare/arenakit/internal/logger"
	"github.com/joshuapare/arenakit/internal/workload"
	"github.com/joshuapare/arenakit/sizeclass"
)

var (
	runWorkload    string
	runOps         int
	runLive        int
	runMinSize     int64
	runMaxSize     int64
	runScope       int
	runSeed        int64
	runClasses     string
	runBacking     string
	runCapacity    int64
	runMaxCapacity int64
	runIterations  int
	runRate        float64
	runBurst       int
	runCompare     bool
)

func init() {
	cmd := newRunCmd()
	d := workload.DefaultConfig
	cmd.Flags().StringVarP(&runWorkload, "workload", "w", "churn", "Workload: churn, mixed, scoped, fill or all")
	cmd.Flags().IntVar(&runOps, "ops", d.Ops, "Operations per iteration")
	cmd.Flags().IntVar(&runLive, "live", d.Live, "Blocks kept live (churn, mixed)")
	cmd.Flags().Int64Var(&runMinSize, "min", d.MinSize, "Smallest request in bytes")
	cmd.Flags().Int64Var(&runMaxSize, "max", d.MaxSize, "Largest request in bytes (churn, scoped, fill)")
	cmd.Flags().IntVar(&runScope, "scope", d.Scope, "Allocations per scope (scoped)")
	cmd.Flags().Int64Var(&runSeed, "seed", d.Seed, "Random seed")
	cmd.Flags().StringVar(&runClasses, "classes", "balanced", "Size classes: fine, balanced or coarse")
	cmd.Flags().StringVar(&runBacking, "backing", "heap", "Backing store: heap or mmap")
	cmd.Flags().Int64Var(&runCapacity, "capacity", 1<<20, "Initial arena capacity in bytes")
	cmd.Flags().Int64Var(&runMaxCapacity, "max-capacity", 1<<30, "Growth cap in bytes (0 = fixed capacity)")
	cmd.Flags().IntVarP(&runIterations, "iterations", "n", 3, "Replays of the workload")
	cmd.Flags().Float64Var(&runRate, "rate", 0, "Open-loop mode: operations per second (0 = closed loop)")
	cmd.Flags().IntVar(&runBurst, "burst", 1, "Burst size for --rate")
	cmd.Flags().BoolVar(&runCompare, "compare", false, "Also run the workload against plain make")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Replay a workload and report results",
		Long: `The run command generates a deterministic workload and replays it
against a fresh arena allocator, resetting the arena between iterations.

Example:
  arenabench run --workload churn
  arenabench run --workload all --classes fine --backing mmap
  arenabench run --workload mixed --compare --json
  arenabench run --workload churn --rate 50000 --ops 20000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd.Context())
		},
	}
	return cmd
}

func runBench(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	kinds, err := selectedKinds()
	if err != nil {
		return err
	}
	classes, ok := sizeclass.Presets[strings.ToLower(runClasses)]
	if !ok {
		return fmt.Errorf("unknown size classes %q (want one of %s)", runClasses, presetNames())
	}
	kind, err := backing.ParseKind(runBacking)
	if err != nil {
		return err
	}
	if runIterations <= 0 {
		return fmt.Errorf("iterations must be positive, got %d", runIterations)
	}

	cfg := workload.Config{
		Ops:     runOps,
		Live:    runLive,
		MinSize: runMinSize,
		MaxSize: runMaxSize,
		Scope:   runScope,
		Seed:    runSeed,
	}

	var results []benchResult
	for _, k := range kinds {
		printVerbose("Generating %s workload (%d ops, seed %d)\n", k, cfg.Ops, cfg.Seed)
		plan, err := workload.Generate(k, cfg)
		if err != nil {
			return err
		}

		r, err := runArena(ctx, plan, classes, kind)
		if err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
		results = append(results, r)

		if runCompare {
			r, err := runHeap(ctx, plan)
			if err != nil {
				return fmt.Errorf("%s on make: %w", k, err)
			}
			results = append(results, r)
		}
	}

	if jsonOut {
		return printJSON(results)
	}
	for _, r := range results {
		printResult(r)
	}
	return nil
}

func selectedKinds() ([]workload.Kind, error) {
	if strings.EqualFold(runWorkload, "all") {
		return workload.Kinds, nil
	}
	k, err := workload.ParseKind(runWorkload)
	if err != nil {
		return nil, err
	}
	return []workload.Kind{k}, nil
}

func presetNames() string {
	names := make([]string, 0, len(sizeclass.Presets))
	for name := range sizeclass.Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func runArena(ctx context.Context, plan *workload.Plan, classes sizeclass.Config, kind backing.Kind) (benchResult, error) {
	opts := []alloc.Option{
		alloc.WithCapacity(runCapacity),
		alloc.WithSizeClasses(classes),
		alloc.WithBacking(kind),
		alloc.WithLogger(logger.L),
	}
	if runMaxCapacity > 0 {
		opts = append(opts, alloc.WithMaxCapacity(runMaxCapacity))
	}
	a, err := alloc.New(opts...)
	if err != nil {
		return benchResult{}, err
	}
	defer a.Close()

	var target workload.Target[alloc.Handle] = a
	var pacer *paced[alloc.Handle]
	if runRate > 0 {
		pacer = newPaced[alloc.Handle](ctx, a, runRate, runBurst)
		target = pacer
	}

	r := benchResult{
		Workload: string(plan.Kind),
		Target:   "arena/" + strings.ToLower(classes.Name) + "/" + kind.String(),
	}
	err = measure(&r, func(i int) (workload.Result, error) {
		if i > 0 {
			a.Reset()
		}
		return workload.Run(target, plan, alloc.ErrOutOfMemory)
	}, len(plan.Ops))
	if err != nil {
		return r, err
	}

	s := a.Stats()
	r.Arena = &arenaSummary{
		Backing:       a.Backing().String(),
		Classes:       classes.Name,
		Capacity:      s.Arena.Capacity,
		HighWater:     s.Arena.HighWater,
		Grows:         s.Arena.Grows,
		OutOfMemory:   s.OutOfMemory,
		FastPathRate:  s.FastPathRate(),
		Fragmentation: s.Fragmentation(),
	}
	if pacer != nil {
		r.Latency = summarizeLatency(pacer.samples)
	}
	logger.L.Info("run complete", "workload", r.Workload, "target", r.Target, "stats", s)
	return r, nil
}

func runHeap(ctx context.Context, plan *workload.Plan) (benchResult, error) {
	var target workload.Target[[]byte] = workload.GoHeap{}
	var pacer *paced[[]byte]
	if runRate > 0 {
		pacer = newPaced[[]byte](ctx, workload.GoHeap{}, runRate, runBurst)
		target = pacer
	}

	r := benchResult{Workload: string(plan.Kind), Target: "make"}
	err := measure(&r, func(int) (workload.Result, error) {
		return workload.Run(target, plan, nil)
	}, len(plan.Ops))
	if err != nil {
		return r, err
	}
	if pacer != nil {
		r.Latency = summarizeLatency(pacer.samples)
	}
	return r, nil
}

// measure runs fn for every iteration and fills the timing, counter and Go
// heap fields of r.
func measure(r *benchResult, fn func(i int) (workload.Result, error), opsPerIter int) error {
	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	start := time.Now()

	for i := range runIterations {
		res, err := fn(i)
		if err != nil {
			return err
		}
		r.Allocs += res.Allocs
		r.Frees += res.Frees
		r.Resets += res.Resets
		r.Failed += res.Failed
		r.Bytes += res.Bytes
		r.Peak = max(r.Peak, res.Peak)
	}

	r.Elapsed = time.Since(start)
	runtime.ReadMemStats(&after)
	r.Iterations = runIterations
	r.Ops = opsPerIter * runIterations
	if r.Ops > 0 {
		r.NsPerOp = float64(r.Elapsed.Nanoseconds()) / float64(r.Ops)
	}
	r.GoMallocs = after.Mallocs - before.Mallocs
	r.GoBytes = after.TotalAlloc - before.TotalAlloc
	return nil
}
