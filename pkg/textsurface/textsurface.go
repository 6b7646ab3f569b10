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

// Package textsurface is the external sysfs/debugfs-shaped text surface
// of spec.md §6: enable, status, hcc_min_freq, reserve_cpus. Parsing and
// formatting live here; the reservation semantics they drive live in
// pkg/reservation. This module has no actual sysfs/debugfs file nodes —
// see cmd/hyp-core-ctld for how these are exposed (a minimal HTTP surface
// over the same four operations, since platform-device probe and kernfs
// node creation are out of this module's scope).
package textsurface

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/hypcore/hyp-core-ctl/pkg/cpuset"
	"github.com/hypcore/hyp-core-ctl/pkg/freqfloor"
	"github.com/hypcore/hyp-core-ctl/pkg/reservation"
)

// Surface exposes the four text operations over a Controller and its
// frequency-floor manager.
type Surface struct {
	Controller *reservation.Controller
	Freq       *freqfloor.Manager
}

// ReadEnable returns "0" or "1".
func (s *Surface) ReadEnable() string {
	if s.Controller.Enabled() {
		return "1"
	}
	return "0"
}

// WriteEnable parses "0"/"1" and calls Controller.Enable.
func (s *Surface) WriteEnable(value string) error {
	value = strings.TrimSpace(value)
	switch value {
	case "0":
		return s.Controller.Enable(false)
	case "1":
		return s.Controller.Enable(true)
	default:
		return errors.Wrapf(reservation.ErrInvalidInput, "enable must be \"0\" or \"1\", got %q", value)
	}
}

// ReadStatus renders the multi-line status dump.
func (s *Surface) ReadStatus() string {
	return s.Controller.Status().String()
}

// WriteReserveCPUs parses a cpulist string and calls Controller.SetReserveCPUs.
func (s *Surface) WriteReserveCPUs(value string) error {
	cset, err := cpuset.Parse(strings.TrimSpace(value))
	if err != nil {
		return errors.Wrapf(reservation.ErrInvalidInput, "malformed cpulist %q: %v", value, err)
	}
	return s.Controller.SetReserveCPUs(cset)
}

// ReadReserveCPUs renders the current reserve_cpus intent as a cpulist.
func (s *Surface) ReadReserveCPUs() string {
	return cpuset.ShortString(s.Controller.ReserveCPUs())
}

// ReadHccMinFreq renders every possible CPU's configured minimum-frequency
// floor as space-separated "cpu:freq" pairs.
func (s *Surface) ReadHccMinFreq() string {
	return s.Freq.Show()
}

// WriteHccMinFreq parses space-separated "cpu:freq" pairs and applies them
// as the per-CPU minimum-frequency floor. Rejected until the vcpu table has
// been frozen, matching hcc_min_freq_store's is_vcpu_info_populated gate.
func (s *Surface) WriteHccMinFreq(value string) error {
	if !s.Controller.VCPUInfoPopulated() {
		return errors.Wrap(reservation.ErrNotReady, "vcpu info not populated")
	}

	fields := strings.Fields(value)
	if len(fields) == 0 {
		return errors.Wrap(reservation.ErrInvalidInput, "hcc_min_freq requires at least one cpu:freq pair")
	}

	floors := make(map[int]uint, len(fields))
	for _, field := range fields {
		cpu, freq, err := parsePair(field)
		if err != nil {
			return errors.Wrapf(reservation.ErrInvalidInput, "malformed hcc_min_freq pair %q: %v", field, err)
		}
		floors[cpu] = freq
	}

	if err := s.Freq.Configure(floors); err != nil {
		return errors.Wrapf(reservation.ErrInvalidInput, "%v", err)
	}
	return nil
}

func parsePair(field string) (int, uint, error) {
	parts := strings.SplitN(field, ":", 2)
	if len(parts) != 2 {
		return 0, 0, errors.New("expected cpu:freq")
	}
	cpu, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, errors.Wrap(err, "invalid cpu id")
	}
	freq, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return 0, 0, errors.Wrap(err, "invalid frequency")
	}
	return cpu, uint(freq), nil
}
