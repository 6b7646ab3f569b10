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

// Package thermal is the contract the thermal cooling subsystem is
// expected to drive the reservation engine through. The cooling subsystem
// itself — whatever decides a pcpu is too hot and must be throttled — is
// out of scope; this package only names the event shape and the
// subscription seam a real cooling-device driver would call into.
package thermal

// Event is one throttle/unthrottle transition for a physical CPU.
type Event struct {
	CPU       int
	Throttled bool
}

// Notifiee receives thermal events. The reservation Controller does not
// implement this interface; its ThermalNotify method takes the same
// (cpu, throttled) pair as two arguments.
type Notifiee interface {
	Notify(ev Event)
}

// Subsystem is a query surface for the cooling subsystem's currently
// throttled CPUs. The reservation engine does not call it: it computes T
// in the reservation algorithm from its own throttled set, which
// ThermalNotify keeps up to date.
type Subsystem interface {
	// ThrottledCPUs returns the current thermally-throttled set by pcpu id.
	ThrottledCPUs() []int
}
