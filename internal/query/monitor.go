package query

import (
	"sync"
	"time"
)

const (
	slowQueryThreshold = time.Second
	slowQueryKeep      = 10
)

// QueryStat is the aggregated timing for one named query.
type QueryStat struct {
	Name        string        `json:"name"`
	Count       int64         `json:"count"`
	Total       time.Duration `json:"totalMs"`
	Average     time.Duration `json:"averageMs"`
	LastElapsed time.Duration `json:"lastMs"`
}

// SlowQuery is one sample of a query that exceeded the slow threshold.
type SlowQuery struct {
	Name       string        `json:"name"`
	Elapsed    time.Duration `json:"elapsedMs"`
	ObservedAt time.Time     `json:"observedAt"`
}

// Monitor records per-query-name running totals and keeps a bounded ring
// of slow-query samples. Instances are injected, never package globals, so
// tests and multi-tenant deployments can isolate their metrics.
type Monitor struct {
	mu    sync.Mutex
	stats map[string]*QueryStat
	slow  []SlowQuery
	now   func() time.Time
}

func NewMonitor() *Monitor {
	return &Monitor{
		stats: map[string]*QueryStat{},
		now:   time.Now,
	}
}

// StartTimer returns a func that records the elapsed time under name.
func (m *Monitor) StartTimer(name string) func() {
	start := m.now()
	return func() {
		m.Record(name, m.now().Sub(start))
	}
}

func (m *Monitor) Record(name string, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stat, ok := m.stats[name]
	if !ok {
		stat = &QueryStat{Name: name}
		m.stats[name] = stat
	}
	stat.Count++
	stat.Total += elapsed
	stat.Average = stat.Total / time.Duration(stat.Count)
	stat.LastElapsed = elapsed
	if elapsed > slowQueryThreshold {
		m.slow = append(m.slow, SlowQuery{Name: name, Elapsed: elapsed, ObservedAt: m.now()})
		if len(m.slow) > slowQueryKeep {
			m.slow = m.slow[len(m.slow)-slowQueryKeep:]
		}
	}
}

// Stats returns a snapshot of all aggregated query timings.
func (m *Monitor) Stats() []QueryStat {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]QueryStat, 0, len(m.stats))
	for _, stat := range m.stats {
		items = append(items, *stat)
	}
	return items
}

// SlowQueries returns the retained slow-query samples, oldest first.
func (m *Monitor) SlowQueries() []SlowQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := make([]SlowQuery, len(m.slow))
	copy(items, m.slow)
	return items
}

// Reset drops all recorded metrics.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = map[string]*QueryStat{}
	m.slow = nil
}
