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

import "github.com/pkg/errors"

// Sentinel errors for the "not-ready" and "invalid input" error kinds of
// spec.md §7. Transient errors (isolate/hypercall/QoS failures) are
// logged and absorbed inline instead of being returned as sentinels:
// nothing upstream of the engine is in a position to react to them.
var (
	// ErrNotReady is returned when an operation requires vcpu info to be
	// populated (or the controller to be otherwise probed) and it isn't.
	ErrNotReady = errors.New("hyp-core-ctl: not ready")

	// ErrInvalidInput is returned for malformed cpulists, wrong weight
	// reserve_cpus writes, and out-of-range cpu ids.
	ErrInvalidInput = errors.New("hyp-core-ctl: invalid input")

	// ErrPermission is returned when reserve_cpus is written while
	// reservation is enabled.
	ErrPermission = errors.New("hyp-core-ctl: permission denied")
)
