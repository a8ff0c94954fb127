// Copyright 2025 The MetaCache Authors
// This file is part of metacache.
//
// metacache is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// metacache is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with metacache. If not, see <http://www.gnu.org/licenses/>.

package registry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors a Registry reports through. It
// follows the one-collector-set-per-subsystem pattern the teacher
// repository's own services use: construct once, register once, update
// from every operation that touches state worth observing.
type Metrics struct {
	cachesCreated prometheus.Counter
	cardinality   *prometheus.GaugeVec
	agePruned     *prometheus.CounterVec
	pruneDuration *prometheus.HistogramVec
}

// NewMetrics builds a Metrics instance and, if reg is non-nil, registers
// its collectors against it. Passing nil is valid and builds collectors
// that are simply never scraped, which is convenient for tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		cachesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "metacache",
			Name:      "caches_created_total",
			Help:      "Number of metadata caches created by this registry.",
		}),
		cardinality: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "metacache",
			Name:      "cardinality",
			Help:      "Current distinct-tuple count of a metadata cache, immediately after its last prune.",
		}, []string{"db", "table", "cache"}),
		agePruned: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "metacache",
			Name:      "entries_pruned_total",
			Help:      "Number of tuples evicted by prune passes.",
		}, []string{"db", "table", "cache"}),
		pruneDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "metacache",
			Name:      "prune_duration_seconds",
			Help:      "Wall time spent pruning a single metadata cache.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"db", "table", "cache"}),
	}
	if reg != nil {
		reg.MustRegister(m.cachesCreated, m.cardinality, m.agePruned, m.pruneDuration)
	}
	return m
}

func (m *Metrics) observePrune(db, table, name string, cardinalityAfter, evicted int, d time.Duration) {
	m.cardinality.WithLabelValues(db, table, name).Set(float64(cardinalityAfter))
	if evicted > 0 {
		m.agePruned.WithLabelValues(db, table, name).Add(float64(evicted))
	}
	m.pruneDuration.WithLabelValues(db, table, name).Observe(d.Seconds())
}
