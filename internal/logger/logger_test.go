package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNew_DisabledDiscards(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Enabled: false, Output: &buf})
	l.Info("dropped")
	require.Zero(t, buf.Len())
}

func TestNew_TextAndLevel(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Enabled: true, Output: &buf, Level: slog.LevelWarn})
	l.Info("hidden")
	l.Warn("shown", "off", 64)
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")
	require.Contains(t, buf.String(), "off=64")
}

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(Options{Enabled: true, Output: &buf, JSON: true})
	l.Info("grow", "capacity", 8192)
	require.Contains(t, buf.String(), `"capacity":8192`)
}

func TestInit_ReplacesGlobal(t *testing.T) {
	prev := L
	t.Cleanup(func() { L = prev })

	var buf bytes.Buffer
	Init(Options{Enabled: true, Output: &buf})
	L.Info("hello")
	require.Contains(t, buf.String(), "hello")
}
