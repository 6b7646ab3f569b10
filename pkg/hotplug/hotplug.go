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

// Package hotplug is the contract the CPU hotplug subsystem is expected to
// drive the reservation engine through. Deciding when a CPU goes offline
// or comes back online is out of scope; this package only names the
// callback shape a real cpuhp_setup_state-style registration would
// deliver.
package hotplug

// Notifiee receives hotplug transitions.
type Notifiee interface {
	// Offline is called after cpu has left the online set.
	Offline(cpu int)
	// Online is called after cpu has joined the online set.
	Online(cpu int)
}
