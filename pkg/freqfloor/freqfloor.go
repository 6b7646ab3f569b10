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

// Package freqfloor enforces the per-CPU minimum-frequency QoS floor the
// engine raises on isolate and resets on unisolate (spec.md §4.8). It is
// grounded on the teacher's control/cpu controller, which enforces a
// class's MinFreq/MaxFreq with the same goresctrl primitive; here there is
// only a floor (no ceiling) and it is driven by isolation state rather
// than a container's assigned QoS class.
package freqfloor

import (
	"fmt"
	"strings"
	"sync"

	"github.com/hashicorp/go-multierror"
	"github.com/intel/goresctrl/pkg/utils"
	"github.com/pkg/errors"

	"github.com/hypcore/hyp-core-ctl/pkg/log"
)

// DefaultFloor is "no floor" — the value every possible CPU is reset to
// when unisolated and the value every request is created at before the
// first hcc_min_freq write.
const DefaultFloor = 0

var logger = log.Get("freqfloor")

// Manager owns the per-CPU floor configuration and applies it to the
// platform via goresctrl. It mirrors the original driver's
// freq_qos_init_done latch: floor requests for a CPU only start existing
// once Configure has been called at least once.
type Manager struct {
	mu       sync.Mutex
	possible []int
	floor    map[int]uint
	initDone bool
}

// NewManager creates a Manager for the given possible-CPU ids. No QoS
// requests are created yet; that only happens on the first Configure.
func NewManager(possible []int) *Manager {
	return &Manager{
		possible: append([]int(nil), possible...),
		floor:    make(map[int]uint, len(possible)),
	}
}

// Configure is the hcc_min_freq write: cpu -> floor frequency (kHz). The
// first call lazily seeds every possible CPU at DefaultFloor before
// applying the given pairs, matching init_freq_qos_req's lazy allocation.
func (m *Manager) Configure(floors map[int]uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.initDone {
		for _, cpu := range m.possible {
			m.floor[cpu] = DefaultFloor
		}
		m.initDone = true
	}

	for cpu, freq := range floors {
		if _, ok := m.floor[cpu]; !ok {
			return errors.Errorf("freqfloor: cpu %d is not a possible cpu", cpu)
		}
		m.floor[cpu] = freq
	}

	return nil
}

// Raise applies cpu's configured floor. Called by the engine immediately
// after a successful isolate. A no-op (but not an error) if Configure has
// never been called, or if cpu has no non-default floor configured.
func (m *Manager) Raise(cpu int) error {
	m.mu.Lock()
	freq, ok := m.floor[cpu]
	m.mu.Unlock()
	if !ok || freq == DefaultFloor {
		return nil
	}

	if err := utils.SetCPUsScalingMinFreq([]int{cpu}, int(freq)); err != nil {
		return errors.Wrapf(err, "failed to raise min-freq floor on cpu %d to %d", cpu, freq)
	}
	logger.Debug("raised min-freq floor on cpu %d to %d", cpu, freq)
	return nil
}

// Reset resets cpu's floor back to DefaultFloor. Called by the engine on
// unisolate, and by hotplug-offline.
func (m *Manager) Reset(cpu int) error {
	m.mu.Lock()
	_, configured := m.floor[cpu]
	m.mu.Unlock()
	if !configured {
		return nil
	}

	if err := utils.SetCPUsScalingMinFreq([]int{cpu}, DefaultFloor); err != nil {
		return errors.Wrapf(err, "failed to reset min-freq floor on cpu %d", cpu)
	}
	logger.Debug("reset min-freq floor on cpu %d", cpu)
	return nil
}

// Show renders every possible CPU's configured floor as "cpu:freq " pairs,
// matching hcc_min_freq_show's for_each_possible_cpu loop. A CPU with no
// floor configured yet (Configure never called) reads as DefaultFloor, the
// same zero-valued per_cpu(qos_min_freq) the original reads before
// init_freq_qos_req runs.
func (m *Manager) Show() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var b strings.Builder
	for _, cpu := range m.possible {
		freq, ok := m.floor[cpu]
		if !ok {
			freq = DefaultFloor
		}
		fmt.Fprintf(&b, "%d:%d ", cpu, freq)
	}
	return b.String()
}

// ResetAll resets every cpu in cpus, accumulating any failures instead of
// aborting at the first one — undo_reservation must make a best effort
// across the whole of our_isolated_cpus.
func ResetAll(m *Manager, cpus []int) error {
	var merr *multierror.Error
	for _, cpu := range cpus {
		if err := m.Reset(cpu); err != nil {
			merr = multierror.Append(merr, err)
		}
	}
	return merr.ErrorOrNil()
}
