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

// Package reservation is the core of this module: the vcpu table, the
// reservation engine (do_reservation/undo_reservation/finalize_reservation/
// handle_thermal), the state-machine worker, and the event sources that
// feed it (thermal, hotplug, enable/disable, vcpu population, the
// hypervisor suspend/resume IRQ and its watchdog). It is a single-instance
// controller, constructed explicitly and torn down explicitly, in place of
// the original driver's process-wide global pointer (spec.md §9).
package reservation

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/hypcore/hyp-core-ctl/pkg/cpuset"
	"github.com/hypcore/hyp-core-ctl/pkg/freqfloor"
	"github.com/hypcore/hyp-core-ctl/pkg/hypervisor"
	"github.com/hypcore/hyp-core-ctl/pkg/isolate"
	"github.com/hypcore/hyp-core-ctl/pkg/log"
	"github.com/hypcore/hyp-core-ctl/pkg/metrics"
)

var logger = log.Get("reservation")

// MaxReserveCPUsFraction is the divisor in MAX_RESERVE_CPUS =
// num_possible_cpus() / 2.
const MaxReserveCPUsFraction = 2

// Config carries the fixed-at-construction-time dependencies and tunables
// of a Controller.
type Config struct {
	PossibleCPUs   cpuset.CPUSet
	Hypervisor     hypervisor.Hypervisor
	Isolator       isolate.Isolator
	Freq           *freqfloor.Manager
	SuspendTimeout time.Duration
	Metrics        *metrics.Collector
}

// Controller is the single-instance reservation state machine.
type Controller struct {
	hv   hypervisor.Hypervisor
	iso  isolate.Isolator
	freq *freqfloor.Manager
	met  *metrics.Collector

	possibleCPUs cpuset.CPUSet

	// spinlock guards the fields in this block: short read-modify-write
	// sequences that must be atomic with waking the worker (spec.md §5).
	mu                 sync.Mutex
	pending            bool
	reservationEnabled bool
	reserveCPUs        cpuset.CPUSet
	finalReservedCPUs  cpuset.CPUSet
	ourIsolatedCPUs    cpuset.CPUSet
	onlineCPUs         cpuset.CPUSet
	thermalCPUs        cpuset.CPUSet

	// reservation mutex: the coarse lock serializing engine passes
	// against the thermal handler and enable/disable. Lock order is
	// always reservation-mutex then spinlock, never the reverse.
	resMu sync.Mutex

	table             []VCPU
	maxReserveCPUs    int
	vcpuInfoPopulated bool

	vpmGroupInfoPopulated bool
	vpmCapID              uint64
	suspendTimeout        time.Duration
	watchdog              *time.Timer
	watchdogMu            sync.Mutex

	wake chan struct{}
	done chan struct{}
	stop chan struct{}

	unexpectedWakeLimiter log.Logger
}

// New constructs a Controller. The vcpu table is empty until Populate is
// called for each reported vcpu and Freeze latches it.
func New(cfg Config) *Controller {
	timeout := cfg.SuspendTimeout
	if timeout <= 0 {
		timeout = time.Second
	}

	c := &Controller{
		hv:                 cfg.Hypervisor,
		iso:                cfg.Isolator,
		freq:               cfg.Freq,
		met:                cfg.Metrics,
		possibleCPUs:       cfg.PossibleCPUs,
		onlineCPUs:         cfg.PossibleCPUs,
		reserveCPUs:        cpuset.New(),
		finalReservedCPUs:  cpuset.New(),
		ourIsolatedCPUs:    cpuset.New(),
		thermalCPUs:        cpuset.New(),
		maxReserveCPUs:     cfg.PossibleCPUs.Size() / MaxReserveCPUsFraction,
		suspendTimeout:     timeout,
		wake:               make(chan struct{}, 1),
		done:               make(chan struct{}),
		stop:               make(chan struct{}),
		unexpectedWakeLimiter: log.RateLimit(log.Get("reservation.suspend"), log.Interval(10*time.Second)),
	}
	return c
}

// Populate appends one vcpu record while the SVM is in state READY
// (spec.md §4.7). It is rejected once the table has been frozen by
// Freeze, and once it would exceed MAX_RESERVE_CPUS.
func (c *Controller) Populate(cpuIdx int, capID uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.vcpuInfoPopulated {
		return errors.Wrap(ErrNotReady, "vcpu table already frozen")
	}
	if capID == 0 {
		return errors.Wrap(ErrInvalidInput, "cap_id 0 is reserved as the terminator")
	}
	if len(c.table) >= c.maxReserveCPUs {
		return errors.Wrapf(ErrInvalidInput, "nr_vcpus would exceed MAX_RESERVE_CPUS (%d)", c.maxReserveCPUs)
	}

	c.table = append(c.table, VCPU{CapID: capID, PCPUOriginal: cpuIdx, PCPUCurrent: cpuIdx})
	return nil
}

// Freeze latches the vcpu table on the SVM's READY -> RUNNING transition:
// reserve_cpus is initialized to the union of pcpu_original across all
// vcpus, final_reserved_cpus is copied from it, and is_vcpu_info_populated
// is latched true.
func (c *Controller) Freeze() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.vcpuInfoPopulated {
		return
	}

	ids := make([]int, 0, len(c.table))
	for _, v := range c.table {
		ids = append(ids, v.PCPUOriginal)
	}
	union := cpuset.New(ids...)

	c.reserveCPUs = union
	c.finalReservedCPUs = union
	c.vcpuInfoPopulated = true

	logger.Info("vcpu table frozen: nr_vcpus=%d reserve_cpus=%s", len(c.table), cpuset.ShortString(union))
}

// RegisterVPMGroup records the VPM group's cap_id, latching
// is_vpm_group_info_populated (spec.md §3, §9).
func (c *Controller) RegisterVPMGroup(capID uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vpmCapID = capID
	c.vpmGroupInfoPopulated = true
}

// Start launches the state-machine worker goroutine.
func (c *Controller) Start() {
	go c.runWorker()
}

// Stop tears down the worker. Safe to call once.
func (c *Controller) Stop() {
	close(c.stop)
	<-c.done
}

// snapshot is an immutable copy of the spinlock-guarded state the engine
// needs for one pass.
type snapshot struct {
	enabled     bool
	reserve     cpuset.CPUSet
	finalRes    cpuset.CPUSet
	ourIsolated cpuset.CPUSet
	online      cpuset.CPUSet
	thermal     cpuset.CPUSet
}

func (c *Controller) snapshot() snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return snapshot{
		enabled:     c.reservationEnabled,
		reserve:     c.reserveCPUs,
		finalRes:    c.finalReservedCPUs,
		ourIsolated: c.ourIsolatedCPUs,
		online:      c.onlineCPUs,
		thermal:     c.thermalCPUs,
	}
}

func (c *Controller) setWake() {
	c.mu.Lock()
	c.pending = true
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// context for hypercalls issued synchronously from engine passes; the
// engine has no natural cancellation source of its own, so a background
// context with no deadline is used, matching the kernel driver's
// uninterruptible hypercalls.
func engineContext() context.Context {
	return context.Background()
}
