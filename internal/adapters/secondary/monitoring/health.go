package monitoring

import (
	"math"
	"runtime"
	"time"

	"github.com/fredcamaral/coursekit/internal/domain/ports"
)

const (
	maxHealthyMemory     = int64(500 * 1024 * 1024)
	maxHealthyGoroutines = 1000
)

// Health reports process health for the /healthz endpoint
type Health struct {
	started time.Time
	clock   ports.TimeProvider
}

// NewHealth creates a health reporter; uptime counts from now
func NewHealth(clock ports.TimeProvider) *Health {
	if clock == nil {
		clock = ports.NewRealTimeProvider()
	}
	return &Health{started: clock.Now(), clock: clock}
}

// Uptime returns time since the reporter was created
func (h *Health) Uptime() time.Duration {
	return h.clock.Now().Sub(h.started)
}

// Status returns a snapshot of runtime health. healthy is false once
// memory or goroutine counts pass their limits.
func (h *Health) Status() map[string]interface{} {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	alloc := safeUint64ToInt64(mem.Alloc)
	goroutines := runtime.NumGoroutine()

	return map[string]interface{}{
		"healthy":    alloc < maxHealthyMemory && goroutines < maxHealthyGoroutines,
		"uptime":     h.Uptime().Round(time.Second).String(),
		"memory_mb":  alloc / (1024 * 1024),
		"heap_mb":    safeUint64ToInt64(mem.HeapAlloc) / (1024 * 1024),
		"goroutines": goroutines,
		"gc_cycles":  mem.NumGC,
	}
}

// safeUint64ToInt64 safely converts uint64 to int64, capping at max int64 value
func safeUint64ToInt64(val uint64) int64 {
	if val > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(val)
}
