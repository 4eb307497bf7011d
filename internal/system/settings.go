// Package system tunes the Go runtime and drives profiling for the
// long running commands.
package system

import (
	"runtime"
	"runtime/debug"

	"github.com/alejoacosta74/thalex-api/internal/config"
	"github.com/sirupsen/logrus"
)

// Settings holds the runtime limits applied at startup. A zero field keeps
// the runtime's own value.
type Settings struct {
	MaxProcs    int
	GCPercent   int
	MaxThreads  int
	MemoryLimit int // in MB
	logger      *logrus.Entry
}

func NewSettings(cfg config.SystemConfig) *Settings {
	return &Settings{
		MaxProcs:    cfg.MaxProcs,
		GCPercent:   cfg.GCPercent,
		MaxThreads:  cfg.MaxThreads,
		MemoryLimit: cfg.MemoryLimit,
		logger:      logrus.WithField("component", "system_settings"),
	}
}

// Apply configures the runtime and returns a function restoring the previous
// values.
func (s *Settings) Apply() (restore func()) {
	var undo []func()

	if s.MaxProcs > 0 {
		prev := runtime.GOMAXPROCS(s.MaxProcs)
		undo = append(undo, func() { runtime.GOMAXPROCS(prev) })
		s.logger.Infof("GOMAXPROCS set to %d", s.MaxProcs)
	}
	if s.GCPercent != 0 {
		prev := debug.SetGCPercent(s.GCPercent)
		undo = append(undo, func() { debug.SetGCPercent(prev) })
		s.logger.Infof("GC percent set to %d", s.GCPercent)
	}
	if s.MaxThreads > 0 {
		prev := debug.SetMaxThreads(s.MaxThreads)
		undo = append(undo, func() { debug.SetMaxThreads(prev) })
		s.logger.Infof("Max threads set to %d", s.MaxThreads)
	}
	if s.MemoryLimit > 0 {
		prev := debug.SetMemoryLimit(int64(s.MemoryLimit) * 1024 * 1024)
		undo = append(undo, func() { debug.SetMemoryLimit(prev) })
		s.logger.Infof("Memory limit set to %dMB", s.MemoryLimit)
	}

	return func() {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
	}
}
