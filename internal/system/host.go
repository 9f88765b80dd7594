package system

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// Workers returns the number of logical CPUs, falling back to the Go runtime's
// view when gopsutil cannot read it.
func Workers() int {
	n, err := cpu.Counts(true)
	if err != nil || n <= 0 {
		return runtime.NumCPU()
	}
	return n
}

// LoadLimit caps concurrent frame loads so decoded sources plus their output
// canvases fit in a quarter of the available memory. It never returns less
// than 1 or more than workers.
func LoadLimit(workers int, frameBytes int64) int {
	if workers < 1 {
		workers = 1
	}
	if frameBytes <= 0 {
		return workers
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		return workers
	}
	return limitFor(workers, frameBytes, vm.Available)
}

func limitFor(workers int, frameBytes int64, available uint64) int {
	budget := available / 4
	// a loaded source is assumed to be about as large as its output canvas
	perLoad := uint64(frameBytes) * 2
	fit := int(budget / perLoad)
	if fit < 1 {
		return 1
	}
	if fit > workers {
		return workers
	}
	return fit
}
