package telemetry

import (
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	arena "github.com/pavanmanishd/framearena"
)

// Collector exports arena activity as Prometheus metrics. Event counters are
// fed by the hooks returned from Telemetry; size gauges are read from every
// watched arena at scrape time. All series carry an "arena" label: the name
// given to Watch, or the arena ID for unwatched arenas.
type Collector struct {
	refills     *prometheus.CounterVec
	refillBytes *prometheus.CounterVec
	resets      *prometheus.CounterVec
	waits       *prometheus.CounterVec
	waitSeconds *prometheus.HistogramVec

	reserved    *prometheus.Desc
	inUse       *prometheus.Desc
	capacity    *prometheus.Desc
	blocks      *prometheus.Desc
	spare       *prometheus.Desc
	epochs      *prometheus.Desc
	utilization *prometheus.Desc

	mu        sync.Mutex
	names     map[uint64]string
	watched   map[string]*arena.Arena
	waitStart map[uint64]time.Time
}

// NewCollector creates a Collector whose metric names start with namespace.
func NewCollector(namespace string) *Collector {
	label := []string{"arena"}
	gauge := func(name, help string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "arena", name), help, label, nil)
	}
	return &Collector{
		refills: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "arena", Name: "refills_total",
			Help: "Blocks obtained from the upstream.",
		}, label),
		refillBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "arena", Name: "refill_bytes_total",
			Help: "Bytes obtained from the upstream.",
		}, label),
		resets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "arena", Name: "resets_total",
			Help: "Completed resets and purges.",
		}, label),
		waits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "arena", Name: "epoch_waits_total",
			Help: "Epoch drain waits by result.",
		}, []string{"arena", "result"}),
		waitSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "arena", Name: "epoch_wait_seconds",
			Help:    "Time spent waiting for active epochs to drain.",
			Buckets: prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, label),

		reserved:    gauge("reserved_bytes", "Bytes held from the upstream."),
		inUse:       gauge("in_use_bytes", "Bytes handed out since the last reset."),
		capacity:    gauge("capacity_bytes", "Usable bytes across all blocks."),
		blocks:      gauge("blocks", "Blocks owned by the arena."),
		spare:       gauge("spare_blocks", "Rewound blocks not yet reused."),
		epochs:      gauge("active_epochs", "Epochs currently in flight."),
		utilization: gauge("utilization_ratio", "Bytes in use over capacity."),

		names:     make(map[uint64]string),
		watched:   make(map[string]*arena.Arena),
		waitStart: make(map[uint64]time.Time),
	}
}

// Watch adds a's size gauges to every scrape under the given name. Watching
// a second arena under the same name replaces the first.
func (c *Collector) Watch(name string, a *arena.Arena) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.watched[name]; ok {
		delete(c.names, old.ID())
	}
	c.watched[name] = a
	c.names[a.ID()] = name
}

// Unwatch removes the arena registered under name.
func (c *Collector) Unwatch(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if a, ok := c.watched[name]; ok {
		delete(c.names, a.ID())
		delete(c.watched, name)
	}
}

func (c *Collector) label(a *arena.Arena) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if name, ok := c.names[a.ID()]; ok {
		return name
	}
	return strconv.FormatUint(a.ID(), 10)
}

// Telemetry returns hooks that feed the collector's counters.
//
// Wait durations are tracked per arena; concurrent WaitForEpochZero calls on
// one arena share a single start time.
func (c *Collector) Telemetry() arena.Telemetry {
	return arena.Telemetry{
		OnRefill: func(a *arena.Arena, bytes uintptr) {
			name := c.label(a)
			c.refills.WithLabelValues(name).Inc()
			c.refillBytes.WithLabelValues(name).Add(float64(bytes))
		},
		OnResetEnd: func(a *arena.Arena) {
			c.resets.WithLabelValues(c.label(a)).Inc()
		},
		OnWaitBegin: func(a *arena.Arena) {
			c.mu.Lock()
			c.waitStart[a.ID()] = time.Now()
			c.mu.Unlock()
		},
		OnWaitEnd: func(a *arena.Arena, timedOut bool) {
			c.mu.Lock()
			start, ok := c.waitStart[a.ID()]
			delete(c.waitStart, a.ID())
			c.mu.Unlock()

			name := c.label(a)
			result := "ok"
			if timedOut {
				result = "timeout"
			}
			c.waits.WithLabelValues(name, result).Inc()
			if ok {
				c.waitSeconds.WithLabelValues(name).Observe(time.Since(start).Seconds())
			}
		},
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.refills.Describe(ch)
	c.refillBytes.Describe(ch)
	c.resets.Describe(ch)
	c.waits.Describe(ch)
	c.waitSeconds.Describe(ch)
	ch <- c.reserved
	ch <- c.inUse
	ch <- c.capacity
	ch <- c.blocks
	ch <- c.spare
	ch <- c.epochs
	ch <- c.utilization
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.refills.Collect(ch)
	c.refillBytes.Collect(ch)
	c.resets.Collect(ch)
	c.waits.Collect(ch)
	c.waitSeconds.Collect(ch)

	// OnRefill takes c.mu under the arena lock: never call Metrics with c.mu held.
	c.mu.Lock()
	names := make([]string, 0, len(c.watched))
	for name := range c.watched {
		names = append(names, name)
	}
	sort.Strings(names)
	arenas := make([]*arena.Arena, len(names))
	for i, name := range names {
		arenas[i] = c.watched[name]
	}
	c.mu.Unlock()

	for i, a := range arenas {
		m := a.Metrics()
		name := names[i]
		ch <- prometheus.MustNewConstMetric(c.reserved, prometheus.GaugeValue, float64(m.Reserved), name)
		ch <- prometheus.MustNewConstMetric(c.inUse, prometheus.GaugeValue, float64(m.SizeInUse), name)
		ch <- prometheus.MustNewConstMetric(c.capacity, prometheus.GaugeValue, float64(m.Capacity), name)
		ch <- prometheus.MustNewConstMetric(c.blocks, prometheus.GaugeValue, float64(m.NumBlocks), name)
		ch <- prometheus.MustNewConstMetric(c.spare, prometheus.GaugeValue, float64(m.SpareBlocks), name)
		ch <- prometheus.MustNewConstMetric(c.epochs, prometheus.GaugeValue, float64(m.ActiveEpochs), name)
		ch <- prometheus.MustNewConstMetric(c.utilization, prometheus.GaugeValue, m.Utilization, name)
	}
}
