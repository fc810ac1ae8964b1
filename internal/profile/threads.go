package profile

import (
	"runtime"

	"github.com/shirou/gopsutil/v3/cpu"
)

// hostThreads reports logical CPUs. Swapped in tests.
var hostThreads = func() int {
	if n, err := cpu.Counts(true); err == nil && n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// ResolveThreads returns configured when positive, otherwise the host's
// logical CPU count.
func ResolveThreads(configured int) int {
	if configured > 0 {
		return configured
	}
	return max(hostThreads(), 1)
}
