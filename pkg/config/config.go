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

// Package config collects the handful of runtime tunables the reservation
// controller exposes. Unlike the teacher's multi-module, hot-reloadable
// configuration framework, these settings are read once at startup: the
// controller has no equivalent of per-container dynamic policy config, so a
// flag-and-YAML-file Settings struct is all the ambient config concern needs.
package config

import (
	"flag"
	"os"

	"github.com/ghodss/yaml"
	"github.com/pkg/errors"
)

// DefaultSuspendTimeout is sysctl_hh_suspend_timeout_ms's default (spec.md §6).
const DefaultSuspendTimeout = Duration(1000_000_000) // 1000ms, expressed in time.Duration nanoseconds

// Settings are the daemon-wide tunables for the reservation controller.
type Settings struct {
	// SuspendTimeout is how long the suspend watchdog waits for the SVM to
	// confirm SYSTEM_SUSPENDED after reservation is disabled (spec.md §4.6).
	SuspendTimeout Duration `json:"suspendTimeoutMs"`
	// PossibleCPUs overrides autodetection of the possible-CPU set. Empty
	// means discover it from /sys/devices/system/cpu/possible.
	PossibleCPUs string `json:"possibleCpus"`
	// MetricsListen is the address the Prometheus exporter listens on.
	// Empty disables the exporter.
	MetricsListen string `json:"metricsListen"`
	// ControlListen is the address the text surface (enable/status/
	// hcc_min_freq/reserve_cpus) is served on. Empty disables it.
	ControlListen string `json:"controlListen"`
}

// Default returns the out-of-the-box settings.
func Default() Settings {
	return Settings{
		SuspendTimeout: DefaultSuspendTimeout,
		MetricsListen:  "",
	}
}

// RegisterFlags registers command-line overrides for the settings onto fs.
func (s *Settings) RegisterFlags(fs *flag.FlagSet) {
	fs.Var(&s.SuspendTimeout, "suspend-timeout", "suspend watchdog timeout (e.g. 1s, 1000ms)")
	fs.StringVar(&s.PossibleCPUs, "possible-cpus", s.PossibleCPUs, "override the possible CPU set (cpulist), empty autodetects")
	fs.StringVar(&s.MetricsListen, "metrics-listen", s.MetricsListen, "address to serve Prometheus metrics on, empty disables")
	fs.StringVar(&s.ControlListen, "control-listen", s.ControlListen, "address to serve the text control surface on, empty disables")
}

// Load reads settings from a YAML file, overlaying them onto base. Callers
// pass the result of Default() plus RegisterFlags()+flag.Parse() as base,
// so a value already set by a command-line flag survives unless the YAML
// file also sets it; yaml.Unmarshal into an already-populated struct only
// touches the fields present in the document. A missing file or an empty
// path is not an error; it simply leaves base unchanged.
func Load(path string, base Settings) (Settings, error) {
	settings := base
	if path == "" {
		return settings, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return settings, nil
		}
		return settings, errors.Wrapf(err, "failed to read config file %q", path)
	}

	if err := yaml.Unmarshal(raw, &settings); err != nil {
		return settings, errors.Wrapf(err, "failed to parse config file %q", path)
	}

	return settings, nil
}
