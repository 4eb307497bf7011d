package system

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
)

// StartProfiling starts a CPU profile written to cpuprofile. The returned
// stop function ends it and, when memprofile is set, writes a heap profile.
// Empty paths disable the matching profile.
//
// Inspect the files with go tool pprof.
func StartProfiling(cpuprofile, memprofile string) (stop func() error, err error) {
	var cpuFile *os.File
	if cpuprofile != "" {
		cpuFile, err = os.Create(cpuprofile)
		if err != nil {
			return nil, fmt.Errorf("could not create cpu profile file: %w", err)
		}
		if err := pprof.StartCPUProfile(cpuFile); err != nil {
			cpuFile.Close()
			return nil, fmt.Errorf("could not start cpu profile: %w", err)
		}
	}

	return func() error {
		if cpuFile != nil {
			pprof.StopCPUProfile()
			if err := cpuFile.Close(); err != nil {
				return fmt.Errorf("could not close cpu profile: %w", err)
			}
		}
		return writeHeapProfile(memprofile)
	}, nil
}

func writeHeapProfile(memprofile string) error {
	if memprofile == "" {
		return nil
	}
	f, err := os.Create(memprofile)
	if err != nil {
		return fmt.Errorf("could not create memory profile file: %w", err)
	}
	defer f.Close()

	runtime.GC() // get up-to-date statistics
	if err := pprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}
	return nil
}
