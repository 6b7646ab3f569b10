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
	"time"

	"github.com/pkg/errors"

	"github.com/hypcore/hyp-core-ctl/pkg/cpuset"
	"github.com/hypcore/hyp-core-ctl/pkg/hypervisor"
)

// Enable implements spec.md §4.5.
func (c *Controller) Enable(enabled bool) error {
	c.mu.Lock()
	populated := c.vcpuInfoPopulated
	c.mu.Unlock()
	if !populated {
		return errors.Wrap(ErrNotReady, "vcpu info not populated")
	}

	c.resMu.Lock()
	defer c.resMu.Unlock()

	c.mu.Lock()
	if c.reservationEnabled == enabled {
		c.mu.Unlock()
		return nil
	}
	c.mu.Unlock()

	if c.vpmGroupInfoPopulated {
		if enabled {
			c.cancelWatchdog()
		} else {
			c.armWatchdog()
		}
	}

	c.mu.Lock()
	c.reservationEnabled = enabled
	c.pending = true
	c.mu.Unlock()

	c.setWake()
	return nil
}

// SetReserveCPUs implements the reserve_cpus debugfs write of spec.md §6:
// rejected if reservation is enabled, the weight doesn't match nr_vcpus, or
// the set names a cpu outside the possible set.
func (c *Controller) SetReserveCPUs(cset cpuset.CPUSet) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.vcpuInfoPopulated {
		return errors.Wrap(ErrNotReady, "vcpu info not populated")
	}
	if c.reservationEnabled {
		return errors.Wrap(ErrPermission, "reserve_cpus is immutable while reservation is enabled")
	}
	if cset.Size() != len(c.table) {
		return errors.Wrapf(ErrInvalidInput, "reserve_cpus weight %d does not match nr_vcpus %d", cset.Size(), len(c.table))
	}
	if outside := cset.Difference(c.possibleCPUs); !outside.IsEmpty() {
		return errors.Wrapf(ErrInvalidInput, "reserve_cpus %s is outside the possible cpus", outside.String())
	}

	c.reserveCPUs = cset
	return nil
}

// ReserveCPUs returns the current intent set.
func (c *Controller) ReserveCPUs() cpuset.CPUSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reserveCPUs
}

// Enabled reports whether reservation is currently enabled.
func (c *Controller) Enabled() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reservationEnabled
}

// VCPUInfoPopulated reports whether the vcpu table has been frozen by
// Freeze, mirroring the original's is_vcpu_info_populated gate that
// write_reserve_cpus and hcc_min_freq_store both check before proceeding.
func (c *Controller) VCPUInfoPopulated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vcpuInfoPopulated
}

// ThermalNotify implements spec.md §4.3: the thermal notifier.
func (c *Controller) ThermalNotify(cpu int, throttled bool) {
	c.resMu.Lock()
	defer c.resMu.Unlock()

	c.mu.Lock()
	if throttled {
		c.thermalCPUs = c.thermalCPUs.Union(cpuset.New(cpu))
	} else {
		c.thermalCPUs = c.thermalCPUs.Difference(cpuset.New(cpu))
	}
	finalRes := c.finalReservedCPUs
	reserve := c.reserveCPUs
	isolated := c.ourIsolatedCPUs
	enabled := c.reservationEnabled
	c.mu.Unlock()

	relevant := false
	if throttled {
		relevant = finalRes.Contains(cpu)
		if relevant && isolated.Contains(cpu) {
			if err := c.iso.Unisolate(cpu); err != nil {
				logger.Warn("unisolate(%d) failed during thermal throttle: %v", cpu, err)
			}
			if err := c.freq.Reset(cpu); err != nil {
				logger.Warn("freq floor reset on cpu %d failed during thermal throttle: %v", cpu, err)
			}
			c.removeIsolated(cpu)
		}
	} else {
		relevant = reserve.Contains(cpu) || finalRes.Intersection(c.thermalSnapshot()).Size() > 0
	}

	if !relevant {
		return
	}

	if enabled {
		c.setWake()
		return
	}
	c.handleThermal(cpu, throttled)
}

func (c *Controller) thermalSnapshot() cpuset.CPUSet {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.thermalCPUs
}

// HotplugOffline implements spec.md §4.4's offline callback.
func (c *Controller) HotplugOffline(cpu int) {
	c.mu.Lock()
	c.onlineCPUs = c.onlineCPUs.Difference(cpuset.New(cpu))
	enabled := c.reservationEnabled
	isolated := c.ourIsolatedCPUs.Contains(cpu)
	if isolated {
		c.ourIsolatedCPUs = c.ourIsolatedCPUs.Difference(cpuset.New(cpu))
	}
	c.mu.Unlock()

	if enabled && isolated {
		if err := c.iso.UnisolateUnlocked(cpu); err != nil {
			logger.Warn("unisolate_unlocked(%d) failed during hotplug offline: %v", cpu, err)
		}
		if err := c.freq.Reset(cpu); err != nil {
			logger.Warn("freq floor reset on cpu %d failed during hotplug offline: %v", cpu, err)
		}
	}
}

// HotplugOnline implements spec.md §4.4's online callback.
func (c *Controller) HotplugOnline(cpu int) {
	c.mu.Lock()
	c.onlineCPUs = c.onlineCPUs.Union(cpuset.New(cpu))
	enabled := c.reservationEnabled
	reserved := c.finalReservedCPUs.Contains(cpu)
	if enabled && reserved {
		c.pending = true
	}
	c.mu.Unlock()

	if enabled && reserved {
		c.setWake()
	}
}

// SuspendIRQNotify implements spec.md §4.6: the hypervisor suspend/resume
// IRQ handler. It reads the VPM group's state via hypercall and reacts.
func (c *Controller) SuspendIRQNotify(hv hypervisor.Hypervisor) {
	c.mu.Lock()
	capID := c.vpmCapID
	enabled := c.reservationEnabled
	c.mu.Unlock()

	state, err := hv.VPMGroupState(engineContext(), capID)
	if err != nil {
		logger.Warn("vpm_group_get_state failed: %v", err)
		return
	}

	switch state {
	case hypervisor.StateRunning:
		if !enabled {
			c.unexpectedWakeLimiter.Warn("unexpected SVM wake up while reservation is disabled")
		}
	case hypervisor.StateSystemSuspended:
		c.cancelWatchdog()
	default:
		logger.Error("invalid vpm group state %v observed from suspend IRQ", state)
	}
}

// armWatchdog starts the one-shot suspend watchdog (spec.md §4.6).
func (c *Controller) armWatchdog() {
	c.watchdogMu.Lock()
	defer c.watchdogMu.Unlock()

	if c.watchdog != nil {
		c.watchdog.Stop()
	}
	c.watchdog = time.AfterFunc(c.suspendTimeout, func() {
		logger.Warn("suspend watchdog timed out waiting for SVM to confirm system-suspended")
	})
}

// cancelWatchdog cancels the suspend watchdog if armed.
func (c *Controller) cancelWatchdog() {
	c.watchdogMu.Lock()
	defer c.watchdogMu.Unlock()

	if c.watchdog != nil {
		c.watchdog.Stop()
		c.watchdog = nil
	}
}
