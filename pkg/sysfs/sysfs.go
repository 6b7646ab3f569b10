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

// Package sysfs discovers the possible and online CPU sets from
// /sys/devices/system/cpu. This is a small slice of the teacher's much
// larger topology/idset package: only the possible and online cpulist
// files are read here. The daemon uses Possible() to seed possible_cpus;
// Online() has no caller in this module, since the controller starts with
// every possible CPU online and follows HotplugOffline/HotplugOnline
// from there. SST, RAPL and cstate discovery have no SPEC_FULL consumer
// and are not ported.
package sysfs

import (
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/hypcore/hyp-core-ctl/pkg/cpuset"
)

const sysfsCPURoot = "/sys/devices/system/cpu"

// Possible reads /sys/devices/system/cpu/possible.
func Possible() (cpuset.CPUSet, error) {
	return readCPUList(sysfsCPURoot + "/possible")
}

// Online reads /sys/devices/system/cpu/online.
func Online() (cpuset.CPUSet, error) {
	return readCPUList(sysfsCPURoot + "/online")
}

func readCPUList(path string) (cpuset.CPUSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return cpuset.New(), errors.Wrapf(err, "failed to read %q", path)
	}

	cset, err := cpuset.Parse(strings.TrimSpace(string(raw)))
	if err != nil {
		return cpuset.New(), errors.Wrapf(err, "failed to parse cpulist in %q", path)
	}

	return cset, nil
}
