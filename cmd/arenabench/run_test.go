package main

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command with args, restoring every flag to its
// default first, and returns what was written to stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var buf bytes.Buffer
	stdout = &buf
	rootCmd.SetOut(&buf)
	t.Cleanup(func() {
		stdout = os.Stdout
		rootCmd.SetOut(nil)
	})

	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.PersistentFlags().VisitAll(reset)
	cmd.Flags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func TestRunCommand_JSONWithCompare(t *testing.T) {
	out, err := runCLI(t, "run", "--workload", "churn", "--ops", "2000", "--live", "32",
		"--iterations", "2", "--compare", "--json")
	require.NoError(t, err)

	var results []benchResult
	require.NoError(t, json.Unmarshal([]byte(out), &results), out)
	require.Len(t, results, 2)

	arena, heap := results[0], results[1]
	assert.Equal(t, "churn", arena.Workload)
	assert.Equal(t, "arena/balanced/heap", arena.Target)
	assert.Equal(t, 2, arena.Iterations)
	assert.Equal(t, arena.Allocs, arena.Frees)
	assert.Zero(t, arena.Failed)
	require.NotNil(t, arena.Arena)
	assert.Positive(t, arena.Arena.Capacity)

	assert.Equal(t, "make", heap.Target)
	assert.Equal(t, arena.Allocs, heap.Allocs)
	assert.Nil(t, heap.Arena)
}

func TestRunCommand_AllWorkloadsText(t *testing.T) {
	out, err := runCLI(t, "run", "--workload", "all", "--ops", "1000", "--live", "16",
		"--scope", "16", "--iterations", "1", "--classes", "coarse", "--backing", "mmap")
	require.NoError(t, err)
	for _, want := range []string{"churn on", "mixed on", "scoped on", "fill on", "arena/coarse/mmap", "fast path"} {
		assert.Contains(t, out, want)
	}
}

func TestRunCommand_Paced(t *testing.T) {
	out, err := runCLI(t, "run", "--workload", "scoped", "--ops", "200", "--scope", "10",
		"--iterations", "1", "--rate", "100000", "--burst", "50", "--json")
	require.NoError(t, err)

	var results []benchResult
	require.NoError(t, json.Unmarshal([]byte(out), &results), out)
	require.Len(t, results, 1)
	require.NotNil(t, results[0].Latency)
	assert.Equal(t, results[0].Allocs, results[0].Latency.Samples)
	assert.LessOrEqual(t, results[0].Latency.P50, results[0].Latency.Max)
}

func TestRunCommand_FixedCapacityFill(t *testing.T) {
	out, err := runCLI(t, "run", "--workload", "fill", "--ops", "2000", "--capacity", "65536",
		"--max-capacity", "0", "--iterations", "1", "--json")
	require.NoError(t, err)

	var results []benchResult
	require.NoError(t, json.Unmarshal([]byte(out), &results), out)
	require.Len(t, results, 1)
	assert.Positive(t, results[0].Failed)
	assert.Equal(t, results[0].Failed, results[0].Arena.OutOfMemory)
	assert.Zero(t, results[0].Arena.Grows)
}

func TestRunCommand_BadFlags(t *testing.T) {
	_, err := runCLI(t, "run", "--workload", "bogus")
	require.Error(t, err)

	_, err = runCLI(t, "run", "--classes", "tiny")
	require.Error(t, err)

	_, err = runCLI(t, "run", "--backing", "disk")
	require.Error(t, err)

	_, err = runCLI(t, "run", "--iterations", "0")
	require.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "arenabench dev")
}

func TestVersionFlagMatchesVersionCommand(t *testing.T) {
	flagOut, err := runCLI(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, flagOut, "arenabench version "+version)

	cmdOut, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.Contains(t, cmdOut, "arenabench "+version)
}
