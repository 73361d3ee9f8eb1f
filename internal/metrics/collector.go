// Package metrics aggregates in-memory runtime statistics for chat turns,
// model calls, and store operations.
package metrics

import (
	"sync"
	"time"
)

// Operation names recorded by the services.
const (
	OpTurn         = "turn"
	OpLLMInvoke    = "llm_invoke"
	OpLLMSummarize = "llm_summarize"
	OpStoreGet     = "store_get"
	OpStorePut     = "store_put"
)

// opStats holds the raw counters for one operation.
type opStats struct {
	count     int64
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration

	// Token counters, populated for model operations only.
	inputTokens  int64
	outputTokens int64
}

// OperationSnapshot is the computed view of one operation's counters.
type OperationSnapshot struct {
	Count       int64
	TotalTimeMs int64
	AvgTimeMs   float64
	MinTimeMs   int64
	MaxTimeMs   int64

	// Nil for operations that carry no token usage.
	AvgInputTokens  *float64
	AvgOutputTokens *float64
}

// Snapshot is a point-in-time view of all recorded operations.
type Snapshot struct {
	UptimeSeconds float64
	Turn          *OperationSnapshot
	LLMInvoke     *OperationSnapshot
	LLMSummarize  *OperationSnapshot
	StoreGet      *OperationSnapshot
	StorePut      *OperationSnapshot
}

// Collector records operation timings and token usage. Safe for concurrent
// use.
type Collector struct {
	mu      sync.RWMutex
	started time.Time
	ops     map[string]*opStats
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{
		started: time.Now(),
		ops:     make(map[string]*opStats),
	}
}

// record folds one observation into the operation's counters. Caller holds
// the write lock.
func (c *Collector) record(op string, duration time.Duration) *opStats {
	m, ok := c.ops[op]
	if !ok {
		m = &opStats{}
		c.ops[op] = m
	}
	m.count++
	m.totalTime += duration
	if m.count == 1 || duration < m.minTime {
		m.minTime = duration
	}
	if duration > m.maxTime {
		m.maxTime = duration
	}
	return m
}

// RecordTiming records the duration of one operation.
func (c *Collector) RecordTiming(op string, duration time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.record(op, duration)
}

// RecordLLMUsage records the duration and token usage of one model call.
func (c *Collector) RecordLLMUsage(op string, duration time.Duration, inputTokens, outputTokens int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.record(op, duration)
	m.inputTokens += inputTokens
	m.outputTokens += outputTokens
}

func snapshotOp(m *opStats) *OperationSnapshot {
	if m == nil || m.count == 0 {
		return nil
	}

	snap := &OperationSnapshot{
		Count:       m.count,
		TotalTimeMs: m.totalTime.Milliseconds(),
		AvgTimeMs:   float64(m.totalTime.Milliseconds()) / float64(m.count),
		MinTimeMs:   m.minTime.Milliseconds(),
		MaxTimeMs:   m.maxTime.Milliseconds(),
	}
	if m.inputTokens > 0 || m.outputTokens > 0 {
		avgIn := float64(m.inputTokens) / float64(m.count)
		avgOut := float64(m.outputTokens) / float64(m.count)
		snap.AvgInputTokens = &avgIn
		snap.AvgOutputTokens = &avgOut
	}
	return snap
}

// Snapshot returns the current view of all operations.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return Snapshot{
		UptimeSeconds: time.Since(c.started).Seconds(),
		Turn:          snapshotOp(c.ops[OpTurn]),
		LLMInvoke:     snapshotOp(c.ops[OpLLMInvoke]),
		LLMSummarize:  snapshotOp(c.ops[OpLLMSummarize]),
		StoreGet:      snapshotOp(c.ops[OpStoreGet]),
		StorePut:      snapshotOp(c.ops[OpStorePut]),
	}
}
