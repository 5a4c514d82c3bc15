// Copyright 2011 Google Inc. All Rights Reserved.
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

import "testing"

func TestNew_Defaults(t *testing.T) {
	c := New()
	if c.Verbosity != Normal {
		t.Fatalf("Verbosity = %v, want Normal", c.Verbosity)
	}
	if c.Parallelism != 1 {
		t.Fatalf("Parallelism = %d, want 1", c.Parallelism)
	}
	if c.Incremental {
		t.Fatalf("Incremental should default to false")
	}
}
