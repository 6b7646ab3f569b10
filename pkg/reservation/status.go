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
	"fmt"
	"strings"

	"github.com/hypcore/hyp-core-ctl/pkg/cpuset"
)

// Status is a point-in-time snapshot of everything the status text
// surface dumps (spec.md §6), in the exact field order status_show()
// produces in the original driver.
type Status struct {
	Enabled          bool
	ReserveCPUs      cpuset.CPUSet
	ReservedCPUs     cpuset.CPUSet
	OurIsolatedCPUs  cpuset.CPUSet
	OnlineCPUs       cpuset.CPUSet
	IsolatedCPUs     cpuset.CPUSet
	ThermalCPUs      cpuset.CPUSet
	VCPUs            []VCPU
}

// Status takes the reservation mutex so the dump observes one consistent
// pass's worth of state (text-surface reads that must observe consistent
// state are one of the reservation mutex's documented holders, spec.md §5).
func (c *Controller) Status() Status {
	c.resMu.Lock()
	defer c.resMu.Unlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	table := make([]VCPU, 0, len(c.table))
	table = append(table, c.table...)

	return Status{
		Enabled:         c.reservationEnabled,
		ReserveCPUs:     c.reserveCPUs,
		ReservedCPUs:    c.finalReservedCPUs,
		OurIsolatedCPUs: c.ourIsolatedCPUs,
		OnlineCPUs:      c.onlineCPUs,
		IsolatedCPUs:    c.ourIsolatedCPUs,
		ThermalCPUs:     c.thermalCPUs,
		VCPUs:           table,
	}
}

// String renders Status field-for-field in status_show()'s order.
func (s Status) String() string {
	var b strings.Builder

	enabled := 0
	if s.Enabled {
		enabled = 1
	}

	fmt.Fprintf(&b, "enabled=%d\n", enabled)
	fmt.Fprintf(&b, "reserve_cpus=%s\n", cpuset.ShortString(s.ReserveCPUs))
	fmt.Fprintf(&b, "reserved_cpus=%s\n", cpuset.ShortString(s.ReservedCPUs))
	fmt.Fprintf(&b, "our_isolated_cpus=%s\n", cpuset.ShortString(s.OurIsolatedCPUs))
	fmt.Fprintf(&b, "online_cpus=%s\n", cpuset.ShortString(s.OnlineCPUs))
	fmt.Fprintf(&b, "isolated_cpus=%s\n", cpuset.ShortString(s.IsolatedCPUs))
	fmt.Fprintf(&b, "thermal_cpus=%s\n", cpuset.ShortString(s.ThermalCPUs))

	for i, v := range s.VCPUs {
		if v.Empty() {
			continue
		}
		fmt.Fprintf(&b, "vcpu=%d pcpu=%d curr_pcpu=%d\n", i, v.PCPUOriginal, v.PCPUCurrent)
	}

	return b.String()
}
