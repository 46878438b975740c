// Package prof enables self-profiling of the modprof CLI, for diagnosing
// report runs over very large trace logs.
package prof

import (
	"fmt"
	"os"
	"runtime"
	"runtime/pprof"
)

// Run holds the files backing one self-profiling window.
type Run struct {
	cpuFile *os.File
	memPath string
}

// Start begins CPU profiling to cpuPath (if non-empty) and arms a heap
// snapshot to memPath (if non-empty) for Stop.
func Start(cpuPath, memPath string) (*Run, error) {
	r := &Run{memPath: memPath}
	if cpuPath != "" {
		f, err := os.Create(cpuPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create cpu profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to start cpu profile: %w", err)
		}
		r.cpuFile = f
	}
	return r, nil
}

// Stop ends CPU profiling and writes the heap snapshot. Safe on a nil Run.
func (r *Run) Stop() error {
	if r == nil {
		return nil
	}
	if r.cpuFile != nil {
		pprof.StopCPUProfile()
		if err := r.cpuFile.Close(); err != nil {
			return fmt.Errorf("failed to close cpu profile: %w", err)
		}
		r.cpuFile = nil
	}
	if r.memPath != "" {
		f, err := os.Create(r.memPath)
		if err != nil {
			return fmt.Errorf("failed to create heap profile: %w", err)
		}
		defer func() { _ = f.Close() }()
		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			return fmt.Errorf("failed to write heap profile: %w", err)
		}
	}
	return nil
}
