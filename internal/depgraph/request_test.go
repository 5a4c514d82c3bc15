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

package depgraph

import (
	"testing"

	"github.com/maruel/incdep/internal/stablepath"
)

func TestSourceRequest_ActiveFileRoundTrips(t *testing.T) {
	file := stablepath.Intern("A.swift")
	var src SourceRequest = NewSourceRequest(file)
	if src.ActiveFile() != file {
		t.Fatalf("ActiveFile() = %v, want %v", src.ActiveFile(), file)
	}
}

func TestSinkRequest_RecordDependencyThroughInterface(t *testing.T) {
	tr := NewTracker()
	var sink SinkRequest = tr
	name := stablepath.Intern("dep")
	sink.RecordDependency(TopLevel, stablepath.Identifier{}, name, true)

	var kinds []NodeKind
	tr.EnumerateUses(true, false, func(kind NodeKind, context, name stablepath.Identifier, cascades bool) {
		kinds = append(kinds, kind)
		if !cascades {
			t.Fatalf("expected the recorded cascade flag to survive")
		}
	})
	if len(kinds) != 1 || kinds[0] != TopLevel {
		t.Fatalf("expected one TopLevel use recorded through SinkRequest, got %v", kinds)
	}
}
