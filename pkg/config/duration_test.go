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

package config

import (
	"encoding/json"
	"testing"
	"time"
)

func TestDurationSet(t *testing.T) {
	var d Duration
	if err := d.Set("1500ms"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if time.Duration(d) != 1500*time.Millisecond {
		t.Errorf("got %v, want 1500ms", time.Duration(d))
	}

	if err := d.Set("not-a-duration"); err == nil {
		t.Errorf("expected an error for an invalid duration string")
	}
}

func TestDurationJSONRoundTrip(t *testing.T) {
	in := Duration(2500 * time.Millisecond)

	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var out Duration
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if out != in {
		t.Errorf("round trip: got %v, want %v", time.Duration(out), time.Duration(in))
	}
}

func TestDurationUnmarshalInvalid(t *testing.T) {
	var d Duration
	if err := d.UnmarshalJSON([]byte("x")); err == nil {
		t.Errorf("expected an error for too-short input")
	}
	if err := d.UnmarshalJSON([]byte(`"nonsense"`)); err == nil {
		t.Errorf("expected an error for an unparseable duration")
	}
}
