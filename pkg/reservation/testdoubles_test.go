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
	"context"
	"sync"

	"github.com/hypcore/hyp-core-ctl/pkg/freqfloor"
	"github.com/hypcore/hyp-core-ctl/pkg/hypervisor"
)

// fakeHypervisor records every vcpu_affinity_set call it sees.
type fakeHypervisor struct {
	mu    sync.Mutex
	calls []fakeAffinityCall
}

type fakeAffinityCall struct {
	capID uint64
	pcpu  int
}

func (f *fakeHypervisor) SetVCPUAffinity(ctx context.Context, capID uint64, pcpu int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fakeAffinityCall{capID: capID, pcpu: pcpu})
	return nil
}

func (f *fakeHypervisor) VPMGroupState(ctx context.Context, capID uint64) (hypervisor.VPMState, error) {
	return hypervisor.StateRunning, nil
}

func (f *fakeHypervisor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeIsolator tracks which cpus are currently isolated.
type fakeIsolator struct {
	mu       sync.Mutex
	isolated map[int]bool
}

func newFakeIsolator() *fakeIsolator {
	return &fakeIsolator{isolated: map[int]bool{}}
}

func (f *fakeIsolator) Isolate(cpu int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.isolated[cpu] = true
	return nil
}

func (f *fakeIsolator) Unisolate(cpu int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.isolated, cpu)
	return nil
}

func (f *fakeIsolator) UnisolateUnlocked(cpu int) error {
	return f.Unisolate(cpu)
}

func (f *fakeIsolator) isIsolated(cpu int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.isolated[cpu]
}

func noopFreq() *freqfloor.Manager {
	return freqfloor.NewManager([]int{0, 1, 2, 3, 4, 5, 6, 7})
}
