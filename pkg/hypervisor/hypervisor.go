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

// Package hypervisor is the contract the reservation engine consumes from
// the hypervisor side of the SVM: reassigning a vcpu's physical affinity,
// and reading the VPM group's suspend/resume state. Neither the hypercall
// transport nor the SVM itself is implemented here; Hypervisor is the seam
// a production build wires to the platform's actual hypercall ABI, and
// production code should only ever see it through this interface.
package hypervisor

import "context"

// VPMState is the suspend/resume state of a VPM group, as read via
// vpm_group_get_state.
type VPMState int

const (
	// StateUnknown is returned before a VPM group has ever reported a state.
	StateUnknown VPMState = iota
	// StateRunning means the SVM's vcpus are scheduled normally.
	StateRunning
	// StateCPUsSuspended means the SVM has parked its vcpus but the guest
	// itself has not yet reached system suspend.
	StateCPUsSuspended
	// StateSystemSuspended means the SVM has fully suspended.
	StateSystemSuspended
)

// String renders a VPMState the way status dumps and log lines want it.
func (s VPMState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateCPUsSuspended:
		return "cpus_suspended"
	case StateSystemSuspended:
		return "system_suspended"
	default:
		return "unknown"
	}
}

// Hypervisor is the hypercall surface the engine drives vcpus through.
type Hypervisor interface {
	// SetVCPUAffinity issues vcpu_affinity_set(capID, pcpu). It is expected
	// to be idempotent when pcpu is already the vcpu's current affinity.
	// Failures are observable but not recoverable by the caller beyond
	// logging and leaving the vcpu's recorded affinity unchanged.
	SetVCPUAffinity(ctx context.Context, capID uint64, pcpu int) error

	// VPMGroupState issues vpm_group_get_state(capID).
	VPMGroupState(ctx context.Context, capID uint64) (VPMState, error)
}

// SuspendIRQ is the virtual IRQ signaling a VPM group state change. A real
// binding delivers this from an interrupt context; tests and the daemon's
// own wiring can drive it directly.
type SuspendIRQ interface {
	// Notify is called once per VPM-state-change interrupt, with the
	// capID of the group that changed.
	Notify(capID uint64)
}
