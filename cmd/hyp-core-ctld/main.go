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
	"flag"
	"io"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sys/unix"

	"github.com/hypcore/hyp-core-ctl/pkg/config"
	"github.com/hypcore/hyp-core-ctl/pkg/cpuset"
	"github.com/hypcore/hyp-core-ctl/pkg/freqfloor"
	"github.com/hypcore/hyp-core-ctl/pkg/log"
	"github.com/hypcore/hyp-core-ctl/pkg/metrics"
	"github.com/hypcore/hyp-core-ctl/pkg/pidfile"
	"github.com/hypcore/hyp-core-ctl/pkg/reservation"
	"github.com/hypcore/hyp-core-ctl/pkg/sysfs"
	"github.com/hypcore/hyp-core-ctl/pkg/textsurface"
	"github.com/hypcore/hyp-core-ctl/pkg/version"
)

var logger = log.Get("main")

func main() {
	settings := config.Default()
	settings.RegisterFlags(flag.CommandLine)
	configFile := flag.String("config", "", "path to a YAML settings file")
	flag.Parse()

	logger.Info("hyp-core-ctld (version %s, build %s) starting...", version.Version, version.Build)

	loaded, err := config.Load(*configFile, settings)
	if err != nil {
		logger.Fatal("failed to load configuration: %v", err)
	}
	settings = loaded

	if err := pidfile.Write(); err != nil {
		logger.Fatal("failed to acquire PID file, is another instance running? %v", err)
	}
	defer pidfile.Remove()

	possibleCPUs, err := discoverPossibleCPUs(settings.PossibleCPUs)
	if err != nil {
		logger.Fatal("failed to determine possible CPU set: %v", err)
	}

	freq := freqfloor.NewManager(possibleCPUs.List())
	collector := metrics.NewCollector()

	ctl := reservation.New(reservation.Config{
		PossibleCPUs:   possibleCPUs,
		Hypervisor:     &unconfiguredHypervisor{},
		Isolator:       &unconfiguredIsolator{},
		Freq:           freq,
		SuspendTimeout: time.Duration(settings.SuspendTimeout),
		Metrics:        collector,
	})
	ctl.Start()
	defer ctl.Stop()

	surface := &textsurface.Surface{Controller: ctl, Freq: freq}

	if settings.MetricsListen != "" {
		go serveMetrics(settings.MetricsListen, collector)
	}
	if settings.ControlListen != "" {
		go serveControl(settings.ControlListen, surface)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, unix.SIGINT, unix.SIGTERM)

	logger.Info("hyp-core-ctld running, possible_cpus=%s", possibleCPUs.String())
	<-sigCh
	logger.Info("received shutdown signal, stopping...")
}

func discoverPossibleCPUs(override string) (cpuset.CPUSet, error) {
	if override != "" {
		return cpuset.Parse(override)
	}
	return sysfs.Possible()
}

func serveMetrics(addr string, c *metrics.Collector) {
	reg := metrics.NewRegistry(c)
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics server stopped: %v", err)
	}
}

// serveControl exposes the four text-surface operations of spec.md §6 over
// plain HTTP, standing in for the sysfs/debugfs file nodes the original
// kernel driver creates under /sys/kernel/hyp_core_ctl. Each endpoint's GET
// reads the current value and POST writes a new one, body and response both
// being the same text format the kernel driver's file nodes use.
func serveControl(addr string, s *textsurface.Surface) {
	mux := http.NewServeMux()
	mux.HandleFunc("/enable", controlHandler(s.ReadEnable, s.WriteEnable))
	mux.HandleFunc("/status", controlHandler(s.ReadStatus, nil))
	mux.HandleFunc("/reserve_cpus", controlHandler(s.ReadReserveCPUs, s.WriteReserveCPUs))
	mux.HandleFunc("/hcc_min_freq", controlHandler(s.ReadHccMinFreq, s.WriteHccMinFreq))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("control server stopped: %v", err)
	}
}

func controlHandler(read func() string, write func(string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if read == nil {
				http.Error(w, "write-only", http.StatusMethodNotAllowed)
				return
			}
			w.Write([]byte(read() + "\n"))
		case http.MethodPost:
			if write == nil {
				http.Error(w, "read-only", http.StatusMethodNotAllowed)
				return
			}
			body, err := io.ReadAll(r.Body)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if err := write(string(body)); err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
		default:
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
