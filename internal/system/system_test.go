package system

import (
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"testing"

	"github.com/alejoacosta74/thalex-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSettingsApply(t *testing.T) {
	procs := runtime.GOMAXPROCS(0)
	gc := debug.SetGCPercent(100)
	debug.SetGCPercent(gc)

	s := NewSettings(config.SystemConfig{MaxProcs: 1, GCPercent: 250, MemoryLimit: 512})
	restore := s.Apply()

	assert.Equal(t, 1, runtime.GOMAXPROCS(0))
	assert.Equal(t, int64(512*1024*1024), debug.SetMemoryLimit(-1))

	restore()
	assert.Equal(t, procs, runtime.GOMAXPROCS(0))
	assert.Equal(t, gc, debug.SetGCPercent(gc))
}

func TestSettingsZeroKeepsDefaults(t *testing.T) {
	procs := runtime.GOMAXPROCS(0)
	limit := debug.SetMemoryLimit(-1)

	restore := NewSettings(config.SystemConfig{}).Apply()
	defer restore()

	assert.Equal(t, procs, runtime.GOMAXPROCS(0))
	assert.Equal(t, limit, debug.SetMemoryLimit(-1))
}

func TestProfiling(t *testing.T) {
	dir := t.TempDir()
	cpu := filepath.Join(dir, "cpu.prof")
	mem := filepath.Join(dir, "mem.prof")

	stop, err := StartProfiling(cpu, mem)
	require.NoError(t, err)
	require.NoError(t, stop())

	for _, path := range []string{cpu, mem} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Greater(t, info.Size(), int64(0), path)
	}
}

func TestProfilingDisabled(t *testing.T) {
	stop, err := StartProfiling("", "")
	require.NoError(t, err)
	assert.NoError(t, stop())
}

func TestProfilingBadPath(t *testing.T) {
	_, err := StartProfiling(filepath.Join(t.TempDir(), "missing", "cpu.prof"), "")
	assert.ErrorContains(t, err, "could not create cpu profile file")

	stop, err := StartProfiling("", filepath.Join(t.TempDir(), "missing", "mem.prof"))
	require.NoError(t, err)
	assert.ErrorContains(t, stop(), "could not create memory profile file")
}
