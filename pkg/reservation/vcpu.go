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

// VCPU is one record of the vcpu table: (cap_id, pcpu_original, pcpu_current).
// cap_id == 0 marks an empty slot / the table's terminator; it is never a
// valid hypervisor capability handle.
type VCPU struct {
	CapID        uint64
	PCPUOriginal int
	PCPUCurrent  int
}

// Empty reports whether this is the unpopulated terminator slot.
func (v VCPU) Empty() bool {
	return v.CapID == 0
}
