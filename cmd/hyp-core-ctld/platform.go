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

package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/hypcore/hyp-core-ctl/pkg/hypervisor"
)

// unconfiguredHypervisor and unconfiguredIsolator stand in for the actual
// hypercall transport and host-scheduler isolation primitive, both out of
// scope per spec.md §1/§6: this module specifies only their contract
// (pkg/hypervisor, pkg/isolate). A real deployment supplies concrete
// implementations that talk to the platform's hypercall ABI and scheduler
// isolation mechanism; wiring them in is a one-line change to
// reservation.Config in main().
type unconfiguredHypervisor struct{}

func (*unconfiguredHypervisor) SetVCPUAffinity(ctx context.Context, capID uint64, pcpu int) error {
	return errors.New("hyp-core-ctld: no hypervisor transport configured")
}

func (*unconfiguredHypervisor) VPMGroupState(ctx context.Context, capID uint64) (hypervisor.VPMState, error) {
	return hypervisor.StateUnknown, errors.New("hyp-core-ctld: no hypervisor transport configured")
}

type unconfiguredIsolator struct{}

func (*unconfiguredIsolator) Isolate(cpu int) error {
	return errors.New("hyp-core-ctld: no isolate transport configured")
}

func (*unconfiguredIsolator) Unisolate(cpu int) error {
	return errors.New("hyp-core-ctld: no isolate transport configured")
}

func (*unconfiguredIsolator) UnisolateUnlocked(cpu int) error {
	return errors.New("hyp-core-ctld: no isolate transport configured")
}
