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

package textsurface

import (
	"context"
	"strings"
	"testing"

	"github.com/hypcore/hyp-core-ctl/pkg/cpuset"
	"github.com/hypcore/hyp-core-ctl/pkg/freqfloor"
	"github.com/hypcore/hyp-core-ctl/pkg/hypervisor"
	"github.com/hypcore/hyp-core-ctl/pkg/reservation"
)

type stubHypervisor struct{}

func (stubHypervisor) SetVCPUAffinity(ctx context.Context, capID uint64, pcpu int) error {
	return nil
}

func (stubHypervisor) VPMGroupState(ctx context.Context, capID uint64) (hypervisor.VPMState, error) {
	return hypervisor.StateRunning, nil
}

type stubIsolator struct{}

func (stubIsolator) Isolate(cpu int) error           { return nil }
func (stubIsolator) Unisolate(cpu int) error         { return nil }
func (stubIsolator) UnisolateUnlocked(cpu int) error { return nil }

func newTestSurface(t *testing.T) *Surface {
	t.Helper()

	ctl := reservation.New(reservation.Config{
		PossibleCPUs: cpuset.MustParse("0-7"),
		Hypervisor:   stubHypervisor{},
		Isolator:     stubIsolator{},
		Freq:         freqfloor.NewManager([]int{0, 1, 2, 3, 4, 5, 6, 7}),
	})
	if err := ctl.Populate(4, 1); err != nil {
		t.Fatalf("populate: %v", err)
	}
	if err := ctl.Populate(5, 2); err != nil {
		t.Fatalf("populate: %v", err)
	}
	ctl.Freeze()

	return &Surface{Controller: ctl, Freq: freqfloor.NewManager([]int{0, 1, 2, 3, 4, 5, 6, 7})}
}

func TestReadWriteEnableRoundTrip(t *testing.T) {
	s := newTestSurface(t)

	if got := s.ReadEnable(); got != "0" {
		t.Fatalf("ReadEnable = %q, want 0", got)
	}

	if err := s.WriteEnable("1"); err != nil {
		t.Fatalf("WriteEnable(1): %v", err)
	}
	if got := s.ReadEnable(); got != "1" {
		t.Errorf("ReadEnable after enable = %q, want 1", got)
	}

	if err := s.WriteEnable("bogus"); err == nil {
		t.Errorf("expected WriteEnable to reject a non 0/1 value")
	}
}

func TestReadWriteReserveCPUsRoundTrip(t *testing.T) {
	s := newTestSurface(t)

	if err := s.WriteReserveCPUs("4-5"); err != nil {
		t.Fatalf("WriteReserveCPUs: %v", err)
	}
	if got := s.ReadReserveCPUs(); got != "4-5" {
		t.Errorf("ReadReserveCPUs = %q, want 4-5", got)
	}

	if err := s.WriteReserveCPUs("not a cpulist"); err == nil {
		t.Errorf("expected WriteReserveCPUs to reject a malformed cpulist")
	}

	if err := s.WriteReserveCPUs("4-6"); err == nil {
		t.Errorf("expected WriteReserveCPUs to reject a weight mismatch")
	}
}

func TestWriteHccMinFreq(t *testing.T) {
	s := newTestSurface(t)

	if got := s.ReadHccMinFreq(); got != "0:0 1:0 2:0 3:0 4:0 5:0 6:0 7:0 " {
		t.Errorf("ReadHccMinFreq before any write = %q, want all-zero floors", got)
	}

	if err := s.WriteHccMinFreq("0:1200000 1:1400000"); err != nil {
		t.Fatalf("WriteHccMinFreq: %v", err)
	}
	if got := s.ReadHccMinFreq(); !strings.Contains(got, "0:1200000") || !strings.Contains(got, "1:1400000") {
		t.Errorf("ReadHccMinFreq after write = %q, want it to reflect the configured floors", got)
	}

	if err := s.WriteHccMinFreq(""); err == nil {
		t.Errorf("expected WriteHccMinFreq to reject an empty value")
	}
	if err := s.WriteHccMinFreq("not-a-pair"); err == nil {
		t.Errorf("expected WriteHccMinFreq to reject a malformed pair")
	}
	if err := s.WriteHccMinFreq("0:notanumber"); err == nil {
		t.Errorf("expected WriteHccMinFreq to reject a malformed frequency")
	}
}

func TestWriteHccMinFreqRejectedBeforePopulation(t *testing.T) {
	ctl := reservation.New(reservation.Config{
		PossibleCPUs: cpuset.MustParse("0-7"),
		Hypervisor:   stubHypervisor{},
		Isolator:     stubIsolator{},
		Freq:         freqfloor.NewManager([]int{0, 1, 2, 3, 4, 5, 6, 7}),
	})
	s := &Surface{Controller: ctl, Freq: freqfloor.NewManager([]int{0, 1, 2, 3, 4, 5, 6, 7})}

	if err := s.WriteHccMinFreq("0:1200000"); err == nil {
		t.Errorf("expected WriteHccMinFreq to be rejected before the vcpu table is frozen")
	}
}

func TestReadStatusIncludesVCPULines(t *testing.T) {
	s := newTestSurface(t)

	status := s.ReadStatus()
	if status == "" {
		t.Fatalf("expected a non-empty status dump")
	}
	if want := "vcpu=0 pcpu=4 curr_pcpu=4\n"; !strings.Contains(status, want) {
		t.Errorf("status dump missing vcpu0 line, got:\n%s", status)
	}
}
