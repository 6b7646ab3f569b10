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

package log

import (
	"bytes"
	"strings"
	"testing"
)

func TestGetReturnsSameLoggerForSameSource(t *testing.T) {
	a := Get("testsource")
	b := Get("testsource")
	if a != b {
		t.Errorf("expected Get to return the same Logger instance for the same source")
	}
	if a.Source() != "testsource" {
		t.Errorf("Source() = %q, want %q", a.Source(), "testsource")
	}
}

func TestEnableDebugGatesDebugMessages(t *testing.T) {
	l := Get("debuggate-test")

	old := captureOutput(t, func() {
		l.Debug("should not appear")
	})
	if strings.Contains(old, "should not appear") {
		t.Errorf("expected debug output to be suppressed by default, got %q", old)
	}

	prev := l.EnableDebug(true)
	if prev {
		t.Errorf("expected debug to have been disabled before EnableDebug(true)")
	}

	enabled := captureOutput(t, func() {
		l.Debug("now visible")
	})
	if !strings.Contains(enabled, "now visible") {
		t.Errorf("expected debug output once enabled, got %q", enabled)
	}
	if !l.DebugEnabled() {
		t.Errorf("expected DebugEnabled() to report true")
	}
}

func TestWarnAndErrorTagMessages(t *testing.T) {
	l := Get("tag-test")

	warn := captureOutput(t, func() { l.Warn("warn message") })
	if !strings.Contains(warn, "W: [tag-test] warn message") {
		t.Errorf("unexpected Warn output: %q", warn)
	}

	errOut := captureOutput(t, func() { l.Error("error message") })
	if !strings.Contains(errOut, "E: [tag-test] error message") {
		t.Errorf("unexpected Error output: %q", errOut)
	}
}

func captureOutput(t *testing.T, fn func()) string {
	t.Helper()
	old := out
	var buf bytes.Buffer
	out = &buf
	defer func() { out = old }()
	fn()
	return buf.String()
}
