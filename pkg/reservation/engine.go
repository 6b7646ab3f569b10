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

package reservation

import (
	"github.com/hypcore/hyp-core-ctl/pkg/cpuset"
)

// doReservation implements spec.md §4.1's do_reservation algorithm. Callers
// must already hold resMu; doReservation takes the spinlock only for the
// short read-modify-write sequences on the shared masks.
func (c *Controller) doReservation() {
	snap := c.snapshot()

	thermal := snap.thermal
	wantIso := snap.reserve.Difference(snap.ourIsolated).Difference(thermal)

	offlineCPUs := cpuset.New()
	for _, cpu := range wantIso.List() {
		if !snap.online.Contains(cpu) {
			offlineCPUs = offlineCPUs.Union(cpuset.New(cpu))
			continue
		}
		if err := c.iso.Isolate(cpu); err != nil {
			logger.Warn("isolate(%d) failed: %v", cpu, err)
			c.countIsolateFailure()
			continue
		}
		c.addIsolated(cpu)
		if err := c.freq.Raise(cpu); err != nil {
			logger.Warn("freq floor raise on cpu %d failed: %v", cpu, err)
		}
	}

	isoRequired := snap.reserve.Difference(offlineCPUs).Size()
	isoDone := c.ourIsolatedSize()

	if isoDone < isoRequired {
		c.fillShortfall(snap, &offlineCPUs, isoRequired)
	} else if isoDone > isoRequired {
		c.trimOvershoot(snap, isoRequired)
	}

	temp := c.ourIsolatedSnapshot().Union(offlineCPUs)
	c.finalizeReservation(temp)
	c.recordMetrics()
}

// recordMetrics updates the optional Prometheus collector from current
// state. A no-op if no collector was configured.
func (c *Controller) recordMetrics() {
	if c.met == nil {
		return
	}
	snap := c.snapshot()
	c.met.ReserveCPUsWeight.Set(float64(snap.reserve.Size()))
	c.met.FinalReservedCPUs.Set(float64(snap.finalRes.Size()))
	c.met.ThermalThrottledCPUs.Set(float64(snap.thermal.Size()))
	if shortfall := snap.reserve.Size() - snap.finalRes.Size(); shortfall > 0 {
		c.met.ShortfallCount.Set(float64(shortfall))
	} else {
		c.met.ShortfallCount.Set(0)
	}
}

// fillShortfall implements step 4 of do_reservation: offline candidates
// are drained into offlineCPUs for free before any isolate_cpu is
// attempted on an online candidate. Each drained offline cpu and each
// successfully isolated online cpu counts one toward the shortfall; the
// fill stops once the shortfall is zero or the candidates run out.
func (c *Controller) fillShortfall(snap snapshot, offlineCPUs *cpuset.CPUSet, isoRequired int) {
	shortfall := isoRequired - c.ourIsolatedSize()

	candidates := c.possibleCPUs.
		Difference(c.ourIsolatedSnapshot()).
		Difference(snap.thermal).
		Difference(*offlineCPUs).
		List()

	var onlineCandidates []int
	for _, cpu := range candidates {
		if shortfall <= 0 {
			return
		}
		if snap.online.Contains(cpu) {
			onlineCandidates = append(onlineCandidates, cpu)
			continue
		}
		*offlineCPUs = offlineCPUs.Union(cpuset.New(cpu))
		shortfall--
	}

	for _, cpu := range onlineCandidates {
		if shortfall <= 0 {
			return
		}
		if err := c.iso.Isolate(cpu); err != nil {
			logger.Warn("isolate(%d) failed during shortfall fill: %v", cpu, err)
			continue
		}
		c.addIsolated(cpu)
		shortfall--
		if err := c.freq.Raise(cpu); err != nil {
			logger.Warn("freq floor raise on cpu %d failed: %v", cpu, err)
		}
	}
}

// trimOvershoot implements step 5 of do_reservation.
func (c *Controller) trimOvershoot(snap snapshot, isoRequired int) {
	excess := c.ourIsolatedSnapshot().Difference(snap.reserve)
	for _, cpu := range excess.List() {
		if c.ourIsolatedSize() <= isoRequired {
			break
		}
		if err := c.iso.Unisolate(cpu); err != nil {
			logger.Warn("unisolate(%d) failed during overshoot trim: %v", cpu, err)
			continue
		}
		if err := c.freq.Reset(cpu); err != nil {
			logger.Warn("freq floor reset on cpu %d failed: %v", cpu, err)
		}
		c.removeIsolated(cpu)
	}
}

// undoReservation implements spec.md §4.1's undo_reservation: unisolate
// every pcpu in our_isolated_cpus, clear the set, reset frequency floors.
// No hypercalls are issued; the hypervisor is free to migrate vcpus once
// isolation is lifted.
func (c *Controller) undoReservation() {
	isolated := c.ourIsolatedSnapshot()
	for _, cpu := range isolated.List() {
		if err := c.iso.Unisolate(cpu); err != nil {
			logger.Warn("unisolate(%d) failed during undo_reservation: %v", cpu, err)
			c.countIsolateFailure()
		}
		if err := c.freq.Reset(cpu); err != nil {
			logger.Warn("freq floor reset on cpu %d failed during undo_reservation: %v", cpu, err)
		}
	}

	c.mu.Lock()
	c.ourIsolatedCPUs = cpuset.New()
	c.mu.Unlock()

	c.recordMetrics()
}

func (c *Controller) countIsolateFailure() {
	if c.met != nil {
		c.met.IsolateFailures.Inc()
	}
}

func (c *Controller) countHypercallFailure() {
	if c.met != nil {
		c.met.HypercallFailures.Inc()
	}
}

// handleThermal implements the disabled-but-remap path of §4.1/§4.3: a
// one-swap proposal replacing a throttled reserved pcpu with a
// non-throttled, non-reserved candidate (or vice versa on unthrottle).
func (c *Controller) handleThermal(cpu int, throttled bool) {
	snap := c.snapshot()
	target := snap.finalRes

	if throttled {
		if !target.Contains(cpu) {
			return
		}
		replacement, ok := c.pickReplacement(snap, cpu)
		if !ok {
			logger.Warn("thermal throttle of cpu %d: no replacement available, accepting shortfall", cpu)
			return
		}
		target = target.Difference(cpuset.New(cpu)).Union(cpuset.New(replacement))
	} else {
		// Unthrottle: if a currently-throttled cpu is carried as
		// reserved, and this cpu is a better (non-reserved, non-throttled)
		// candidate, swap it back in.
		if !snap.reserve.Contains(cpu) {
			return
		}
		throttledReserved := target.Intersection(snap.thermal)
		if throttledReserved.IsEmpty() {
			return
		}
		victim, _ := cpuset.LowestElement(throttledReserved)
		target = target.Difference(cpuset.New(victim)).Union(cpuset.New(cpu))
	}

	c.finalizeReservation(target)
}

// pickReplacement finds a candidate pcpu to take over for throttledCPU:
// online, not thermally throttled, not already reserved. Lowest-id is
// used for determinism (spec.md §9 Open Questions).
func (c *Controller) pickReplacement(snap snapshot, throttledCPU int) (int, bool) {
	candidates := snap.online.
		Difference(snap.finalRes).
		Difference(snap.thermal)
	return cpuset.LowestElement(candidates)
}

// finalizeReservation implements spec.md §4.1's finalize_reservation(T).
func (c *Controller) finalizeReservation(target cpuset.CPUSet) {
	c.mu.Lock()
	current := c.finalReservedCPUs
	reserveSize := c.reserveCPUs.Size()
	c.mu.Unlock()

	if target.Equals(current) {
		return
	}
	if target.Size() < reserveSize {
		// Shortfall: don't mutate assignments, the next pass retries.
		return
	}

	c.mu.Lock()
	c.finalReservedCPUs = target
	c.mu.Unlock()

	c.matchVCPUs(target)
}

// matchVCPUs performs the two-pass vcpu -> pcpu matching against the
// remaining-candidates set T (spec.md §4.1). T is consumed as pcpus are
// claimed; by the end it must be empty.
func (c *Controller) matchVCPUs(target cpuset.CPUSet) {
	remaining := target
	var needsRepair []int

	for i := range c.table {
		v := &c.table[i]
		if v.Empty() {
			continue
		}
		switch {
		case remaining.Contains(v.PCPUOriginal):
			remaining = remaining.Difference(cpuset.New(v.PCPUOriginal))
			if v.PCPUCurrent != v.PCPUOriginal {
				if err := c.hv.SetVCPUAffinity(engineContext(), v.CapID, v.PCPUOriginal); err != nil {
					logger.Warn("vcpu_affinity_set(cap=%d, pcpu=%d) failed: %v", v.CapID, v.PCPUOriginal, err)
					c.countHypercallFailure()
				} else {
					v.PCPUCurrent = v.PCPUOriginal
				}
			}
		case remaining.Contains(v.PCPUCurrent):
			remaining = remaining.Difference(cpuset.New(v.PCPUCurrent))
		default:
			needsRepair = append(needsRepair, i)
		}
	}

	for _, i := range needsRepair {
		v := &c.table[i]
		r, ok := cpuset.LowestElement(remaining)
		if !ok {
			logger.Error("finalize_reservation: ran out of candidates repairing vcpu cap=%d", v.CapID)
			continue
		}
		remaining = remaining.Difference(cpuset.New(r))
		if err := c.hv.SetVCPUAffinity(engineContext(), v.CapID, r); err != nil {
			logger.Warn("vcpu_affinity_set(cap=%d, pcpu=%d) failed during repair: %v", v.CapID, r, err)
			c.countHypercallFailure()
			continue
		}
		v.PCPUCurrent = r
	}

	if !remaining.IsEmpty() {
		logger.Error("finalize_reservation: %d candidate cpus left unclaimed, input was inconsistent", remaining.Size())
	}
}

// --- small spinlock-guarded accessors on the shared masks ---

func (c *Controller) ourIsolatedSnapshot() cpuset.CPUSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ourIsolatedCPUs
}

func (c *Controller) ourIsolatedSize() int {
	return c.ourIsolatedSnapshot().Size()
}

func (c *Controller) addIsolated(cpu int) {
	c.mu.Lock()
	c.ourIsolatedCPUs = c.ourIsolatedCPUs.Union(cpuset.New(cpu))
	c.mu.Unlock()
}

func (c *Controller) removeIsolated(cpu int) {
	c.mu.Lock()
	c.ourIsolatedCPUs = c.ourIsolatedCPUs.Difference(cpuset.New(cpu))
	c.mu.Unlock()
}
