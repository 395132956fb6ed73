// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

package core

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors a [Pool] updates as it runs.
// A nil *Metrics is valid everywhere in this package — every method has a
// nil receiver guard — so a Pool constructed without [WithMetrics] pays no
// collection cost at all.
type Metrics struct {
	headWords    prometheus.Gauge
	tailWords    prometheus.Gauge
	skippedWords prometheus.Gauge

	leasesTotal               prometheus.Counter
	wrapsTotal                prometheus.Counter
	descriptorsAllocatedTotal prometheus.Counter
	queuedTotal               prometheus.Counter

	retirementWaitSeconds prometheus.Histogram
}

// NewMetrics builds the pool's metric collectors and, if reg is non-nil,
// registers them. Pass the result to [WithMetrics] at construction time.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		headWords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cbpool_ring_head_words",
			Help: "Current word offset of the ring's head (next lease boundary).",
		}),
		tailWords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cbpool_ring_tail_words",
			Help: "Current word offset of the ring's tail (oldest un-retired lease).",
		}),
		skippedWords: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "cbpool_ring_skipped_words",
			Help: "Words skipped at the end of the ring by the most recent wraparound.",
		}),
		leasesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cbpool_leases_total",
			Help: "Total pool-backed leases granted by AllocateCommandBuffer.",
		}),
		wrapsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cbpool_wraps_total",
			Help: "Total times the ring head wrapped back to the base.",
		}),
		descriptorsAllocatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cbpool_descriptors_allocated_total",
			Help: "Total CommandBuffer descriptors allocated because the free-list was empty.",
		}),
		queuedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "cbpool_queued_total",
			Help: "Total command buffers handed to the GPU queue, pool-backed or display list.",
		}),
		retirementWaitSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "cbpool_retirement_wait_seconds",
			Help:    "Time AllocateCommandBuffer spent blocked waiting for the GPU to retire buffers.",
			Buckets: prometheus.DefBuckets,
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.headWords, m.tailWords, m.skippedWords,
			m.leasesTotal, m.wrapsTotal, m.descriptorsAllocatedTotal, m.queuedTotal,
			m.retirementWaitSeconds,
		)
	}
	return m
}

func (m *Metrics) setHead(v uint32) {
	if m == nil {
		return
	}
	m.headWords.Set(float64(v))
}

func (m *Metrics) setTail(v uint32) {
	if m == nil {
		return
	}
	if v == tailEmpty {
		m.tailWords.Set(0)
		return
	}
	m.tailWords.Set(float64(v))
}

func (m *Metrics) setSkipped(v uint32) {
	if m == nil {
		return
	}
	m.skippedWords.Set(float64(v))
}

func (m *Metrics) incLeases() {
	if m == nil {
		return
	}
	m.leasesTotal.Inc()
}

func (m *Metrics) incWraps() {
	if m == nil {
		return
	}
	m.wrapsTotal.Inc()
}

func (m *Metrics) incDescriptorsAllocated() {
	if m == nil {
		return
	}
	m.descriptorsAllocatedTotal.Inc()
}

func (m *Metrics) incQueued() {
	if m == nil {
		return
	}
	m.queuedTotal.Inc()
}

func (m *Metrics) observeWait(d time.Duration) {
	if m == nil {
		return
	}
	m.retirementWaitSeconds.Observe(d.Seconds())
}
