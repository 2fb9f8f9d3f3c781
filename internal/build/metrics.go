package build

import (
	"sync"
	"time"
)

// Metrics tracks compile performance across one Compiler's lifetime.
type Metrics struct {
	TotalCompiles      int64
	SuccessfulCompiles int64
	FailedCompiles     int64
	AverageDuration    time.Duration
	TotalDuration      time.Duration
	mutex              sync.RWMutex
}

// record updates the counters for one finished compile.
func (m *Metrics) record(duration time.Duration, err error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.TotalCompiles++
	m.TotalDuration += duration
	if err != nil {
		m.FailedCompiles++
	} else {
		m.SuccessfulCompiles++
	}
	if m.TotalCompiles > 0 {
		m.AverageDuration = m.TotalDuration / time.Duration(m.TotalCompiles)
	}
}

// Snapshot returns a copy of the current counters.
func (m *Metrics) Snapshot() Metrics {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return Metrics{
		TotalCompiles:      m.TotalCompiles,
		SuccessfulCompiles: m.SuccessfulCompiles,
		FailedCompiles:     m.FailedCompiles,
		AverageDuration:    m.AverageDuration,
		TotalDuration:      m.TotalDuration,
	}
}
