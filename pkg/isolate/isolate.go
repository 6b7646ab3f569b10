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

// Package isolate is the host scheduler isolation primitive the engine
// drives: taking a pcpu out of (and back into) the regular host scheduling
// domain. The primitive itself (cpuset/cgroup manipulation, or a
// platform-specific scheduler hook) is outside this module's scope; only
// its contract is specified here.
package isolate

// Isolator removes pcpus from, and returns them to, the pool the host
// scheduler may place ordinary tasks on.
type Isolator interface {
	// Isolate removes cpu from the host scheduling domain. Must be
	// callable from task context. A non-nil error means cpu was not
	// isolated; the caller skips it for this pass and retries later.
	Isolate(cpu int) error

	// Unisolate returns cpu to the host scheduling domain.
	Unisolate(cpu int) error

	// UnisolateUnlocked is the variant used from the hotplug-offline path,
	// where the caller already holds whatever lock Unisolate would
	// otherwise need to acquire itself.
	UnisolateUnlocked(cpu int) error
}
