package monitoring

import (
	"math"
	"runtime"
	"sync"
	"time"

	"github.com/fredcamaral/texdeck/internal/domain/entities"
)

// Weight of the newest sample in the moving average
const averageAlpha = 0.1

// Snapshot is a point-in-time copy of the service counters
type Snapshot struct {
	Uptime         string           `json:"uptime"`
	StartedAt      time.Time        `json:"started_at"`
	Conversions    map[string]int64 `json:"conversions"`
	Failures       int64            `json:"failures"`
	AverageMs      int64            `json:"avg_conversion_ms"`
	LastConversion *time.Time       `json:"last_conversion,omitempty"`
	Requests       int64            `json:"http_requests"`
	ServerErrors   int64            `json:"http_server_errors"`
	Connections    int64            `json:"websocket_connections"`
	Cleaned        int64            `json:"files_cleaned"`
	MemoryMB       int64            `json:"memory_mb"`
	Goroutines     int              `json:"goroutines"`
	GCCycles       uint32           `json:"gc_cycles"`
}

// Monitor counts conversions, requests and cleanups for one process
type Monitor struct {
	mu sync.RWMutex

	startedAt      time.Time
	conversions    map[entities.Format]int64
	failures       int64
	average        time.Duration
	lastConversion time.Time
	requests       int64
	serverErrors   int64
	connections    int64
	cleaned        int64

	now func() time.Time
}

// NewMonitor creates a monitor whose uptime starts now
func NewMonitor() *Monitor {
	return newMonitorAt(time.Now)
}

func newMonitorAt(now func() time.Time) *Monitor {
	return &Monitor{
		startedAt:   now(),
		conversions: make(map[entities.Format]int64),
		now:         now,
	}
}

// RecordConversion records one finished conversion. Failed conversions
// count toward failures only.
func (m *Monitor) RecordConversion(format entities.Format, d time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.failures++
		return
	}

	m.conversions[format]++
	m.lastConversion = m.now()
	if m.average == 0 {
		m.average = d
		return
	}
	m.average = time.Duration(float64(m.average)*(1-averageAlpha) + float64(d)*averageAlpha)
}

// RecordRequest records one served HTTP request
func (m *Monitor) RecordRequest(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests++
	if status >= 500 {
		m.serverErrors++
	}
}

// RecordConnection records one accepted websocket client
func (m *Monitor) RecordConnection() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.connections++
}

// RecordCleanup adds n purged files
func (m *Monitor) RecordCleanup(n int) {
	if n <= 0 {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.cleaned += int64(n)
}

// Uptime returns the time since the monitor was created
func (m *Monitor) Uptime() time.Duration {
	return m.now().Sub(m.startedAt)
}

// Snapshot copies the counters and samples the runtime
func (m *Monitor) Snapshot() Snapshot {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := Snapshot{
		Uptime:       m.Uptime().Round(time.Second).String(),
		StartedAt:    m.startedAt,
		Conversions:  make(map[string]int64, len(m.conversions)),
		Failures:     m.failures,
		AverageMs:    m.average.Milliseconds(),
		Requests:     m.requests,
		ServerErrors: m.serverErrors,
		Connections:  m.connections,
		Cleaned:      m.cleaned,
		MemoryMB:     safeUint64ToInt64(memStats.Alloc) / (1024 * 1024),
		Goroutines:   runtime.NumGoroutine(),
		GCCycles:     memStats.NumGC,
	}
	for format, n := range m.conversions {
		snap.Conversions[string(format)] = n
	}
	if !m.lastConversion.IsZero() {
		last := m.lastConversion
		snap.LastConversion = &last
	}

	return snap
}

// safeUint64ToInt64 safely converts uint64 to int64, capping at max int64 value
func safeUint64ToInt64(val uint64) int64 {
	if val > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(val)
}
