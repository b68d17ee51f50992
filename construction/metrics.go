// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package construction

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type serviceMetrics struct {
	requests    *prometheus.CounterVec
	errors      *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	submissions *prometheus.CounterVec
}

func (m *serviceMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.requests = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bowerbird_construction_requests_total",
			Help: "construction requests by operation",
		},
		[]string{"operation"},
	)
	m.errors = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bowerbird_construction_errors_total",
			Help: "failed construction requests by operation and error kind",
		},
		[]string{"operation", "kind"},
	)
	m.duration = promautoFactory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bowerbird_construction_duration_seconds",
			Help:    "construction request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	m.submissions = promautoFactory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bowerbird_construction_submissions_total",
			Help: "transaction submissions by result",
		},
		[]string{"result"},
	)
}

func (m *serviceMetrics) observe(operation string, start time.Time, errKind string) {
	m.requests.WithLabelValues(operation).Inc()
	m.duration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if errKind != "" {
		m.errors.WithLabelValues(operation, errKind).Inc()
	}
}
