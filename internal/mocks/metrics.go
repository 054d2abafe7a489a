package mocks

import (
	"sync"
	"testing"
	"time"
)

// BatchRecord is one recorded RecordBatch call
type BatchRecord struct {
	Frequency string
	Duration  time.Duration
	Sent      int
	Failed    int
}

// Metrics is an in-memory ports.MetricsCollector
type Metrics struct {
	mu              sync.Mutex
	CacheHits       int
	CacheMisses     int
	APICalls        map[string]int
	LifecycleEvents map[string]int
	Deliveries      map[string]int
	Batches         []BatchRecord
}

// NewMetrics creates an empty collector
func NewMetrics(_ testing.TB) *Metrics {
	return &Metrics{
		APICalls:        make(map[string]int),
		LifecycleEvents: make(map[string]int),
		Deliveries:      make(map[string]int),
	}
}

func (m *Metrics) RecordCacheHit() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}

func (m *Metrics) RecordCacheMiss() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}

func (m *Metrics) RecordWeatherAPICall(provider string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.APICalls[outcomeKey(provider, success)]++
}

func (m *Metrics) RecordLifecycleEvent(event string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LifecycleEvents[event]++
}

func (m *Metrics) RecordDelivery(frequency string, success bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Deliveries[outcomeKey(frequency, success)]++
}

func (m *Metrics) RecordBatch(frequency string, duration time.Duration, sent, failed int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Batches = append(m.Batches, BatchRecord{Frequency: frequency, Duration: duration, Sent: sent, Failed: failed})
}

// Event returns the count for a lifecycle event
func (m *Metrics) Event(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.LifecycleEvents[event]
}

// Delivery returns the count of deliveries with the given outcome
func (m *Metrics) Delivery(frequency string, success bool) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Deliveries[outcomeKey(frequency, success)]
}

func outcomeKey(name string, success bool) string {
	if success {
		return name + ":success"
	}
	return name + ":failure"
}

// BatchRecords returns a copy of the recorded batch runs
func (m *Metrics) BatchRecords() []BatchRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]BatchRecord, len(m.Batches))
	copy(out, m.Batches)
	return out
}
