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

func TestBuildFileGraph_AlwaysHasSourceFileProvideNode(t *testing.T) {
	file := stablepath.Intern("A.swift")
	tr := NewTracker()
	g := BuildFileGraph(NewSourceRequest(file), tr, nil, 0xdeadbeef)

	if len(g.Nodes) == 0 || g.Nodes[0].Key.Kind != SourceFileProvide {
		t.Fatalf("first node must be the distinguished SourceFileProvide node")
	}
	if g.Nodes[0].Fingerprint == nil || *g.Nodes[0].Fingerprint != 0xdeadbeef {
		t.Fatalf("SourceFileProvide node fingerprint must be the interface hash")
	}
	if !g.Nodes[0].Provides {
		t.Fatalf("SourceFileProvide node must be a provides node")
	}
}

func TestBuildFileGraph_ArcsReferenceOwnNodes(t *testing.T) {
	file := stablepath.Intern("A.swift")
	tr := NewTracker()
	tr.AddTopLevelName(stablepath.Intern("dep"), true)
	g := BuildFileGraph(NewSourceRequest(file), tr, nil, 1)

	if err := g.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if len(g.Arcs) != 1 {
		t.Fatalf("expected 1 arc, got %d", len(g.Arcs))
	}
	if !g.Arcs[0].Cascades {
		t.Fatalf("expected the recorded cascade flag to survive into the arc")
	}
}

func TestBuildFileGraph_ProvidesCarryFingerprints(t *testing.T) {
	file := stablepath.Intern("A.swift")
	name := stablepath.Intern("Base")
	tr := NewTracker()
	tr.AddProvides(name)
	defs := DefFingerprints{name: 42}
	g := BuildFileGraph(NewSourceRequest(file), tr, defs, 1)

	var found bool
	for _, n := range g.Nodes {
		if n.Key.Kind == TopLevel && n.Key.Name == name {
			found = true
			if n.Fingerprint == nil || *n.Fingerprint != 42 {
				t.Fatalf("expected fingerprint 42 for provided name, got %v", n.Fingerprint)
			}
		}
	}
	if !found {
		t.Fatalf("provided name did not produce a node")
	}
}
