// Copyright The hyp-core-ctl Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package metrics exposes the observability surface of the reservation
// controller as Prometheus collectors. The teacher's metrics package is a
// generic named-collector registry feeding pkg/instrumentation's gRPC/HTTP
// exporter; this controller has no RPC surface to instrument and a fixed,
// small set of gauges/counters to expose, so registration is direct
// rather than plugin-based.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Collector holds the gauges/counters the reservation controller exposes.
type Collector struct {
	ReserveCPUsWeight    prometheus.Gauge
	FinalReservedCPUs    prometheus.Gauge
	ShortfallCount       prometheus.Gauge
	HypercallFailures    prometheus.Counter
	IsolateFailures      prometheus.Counter
	ThermalThrottledCPUs prometheus.Gauge
}

// NewCollector constructs a Collector with all metrics pre-created (so
// they report zero rather than being absent before the first event).
func NewCollector() *Collector {
	return &Collector{
		ReserveCPUsWeight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hyp_core_ctl",
			Name:      "reserve_cpus_weight",
			Help:      "Number of physical CPUs currently requested for reservation.",
		}),
		FinalReservedCPUs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hyp_core_ctl",
			Name:      "final_reserved_cpus_weight",
			Help:      "Number of physical CPUs actually reserved as of the last engine pass.",
		}),
		ShortfallCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hyp_core_ctl",
			Name:      "shortfall_cpus",
			Help:      "reserve_cpus weight minus final_reserved_cpus weight, when positive.",
		}),
		HypercallFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hyp_core_ctl",
			Name:      "hypercall_failures_total",
			Help:      "Total number of failed vcpu_affinity_set hypercalls.",
		}),
		IsolateFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hyp_core_ctl",
			Name:      "isolate_failures_total",
			Help:      "Total number of failed isolate_cpu/unisolate_cpu calls.",
		}),
		ThermalThrottledCPUs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hyp_core_ctl",
			Name:      "thermal_throttled_cpus",
			Help:      "Number of physical CPUs currently thermally throttled.",
		}),
	}
}

// MustRegister registers every metric in c with reg.
func (c *Collector) MustRegister(reg *prometheus.Registry) {
	reg.MustRegister(
		c.ReserveCPUsWeight,
		c.FinalReservedCPUs,
		c.ShortfallCount,
		c.HypercallFailures,
		c.IsolateFailures,
		c.ThermalThrottledCPUs,
	)
}

// NewRegistry builds a pedantic registry with c already registered,
// mirroring the teacher's NewMetricGatherer.
func NewRegistry(c *Collector) *prometheus.Registry {
	reg := prometheus.NewPedanticRegistry()
	c.MustRegister(reg)
	return reg
}
