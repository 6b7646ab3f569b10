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

import "runtime"

// runWorker is the state-machine worker of spec.md §4.2: a single
// long-lived task that wakes on the pending flag, dispatches to
// do_reservation or undo_reservation, and is the only caller of either.
// It is grounded on the teacher's processEvents goroutine
// (github.com/intel/cri-resource-manager/pkg/cri/resource-manager/events.go),
// adapted from an event-channel drain to a coalescing pending-flag drain
// because spec.md requires multiple wakes before a pass collapse into
// exactly one pass that observes the latest state.
func (c *Controller) runWorker() {
	// Best-effort approximation of the original's SCHED_FIFO kthread: pin
	// the worker to its own OS thread so at least it isn't preempted by Go's
	// scheduler migrating it across Ms. Actual realtime priority requires
	// privileges this daemon cannot assume; see DESIGN.md.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(c.done)

	logger.Info("reservation worker started")

	for {
		select {
		case <-c.stop:
			logger.Info("reservation worker stopping")
			return
		case <-c.wake:
			c.runPass()
		}
	}
}

// runPass drains pending and dispatches one engine pass under the
// reservation mutex. enabled is re-read under resMu, right before
// dispatch, so a concurrent Enable/disable can't race the dispatch
// decision the way a snapshot taken before resMu is acquired could.
func (c *Controller) runPass() {
	c.mu.Lock()
	if !c.pending {
		c.mu.Unlock()
		return
	}
	c.pending = false
	c.mu.Unlock()

	c.resMu.Lock()
	defer c.resMu.Unlock()

	c.mu.Lock()
	enabled := c.reservationEnabled
	c.mu.Unlock()

	if enabled {
		c.doReservation()
	} else {
		c.undoReservation()
	}
}
