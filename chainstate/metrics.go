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

package chainstate

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type cacheMetrics struct {
	hits        prometheus.Counter
	misses      prometheus.Counter
	fetchErrors prometheus.Counter
}

func (m *cacheMetrics) init(promRegistry prometheus.Registerer) {
	promautoFactory := promauto.With(promRegistry)
	m.hits = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "bowerbird_protocol_params_cache_hits_total",
		Help: "protocol parameter lookups served from the cache",
	})
	m.misses = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "bowerbird_protocol_params_cache_misses_total",
		Help: "protocol parameter lookups that triggered a fetch",
	})
	m.fetchErrors = promautoFactory.NewCounter(prometheus.CounterOpts{
		Name: "bowerbird_protocol_params_fetch_errors_total",
		Help: "failed protocol parameter fetches",
	})
}
