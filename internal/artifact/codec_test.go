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

package artifact

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/maruel/incdep/internal/depgraph"
	"github.com/maruel/incdep/internal/stablepath"
)

func fp(v uint64) *uint64 { return &v }

func sampleGraph() *depgraph.FileGraph {
	file := stablepath.Intern("A.swift")
	nameB := stablepath.Intern("b")
	typeT := stablepath.Intern("T")
	artifact := stablepath.Intern("Other.swiftdeps")

	return &depgraph.FileGraph{
		File: file,
		Nodes: []depgraph.Node{
			{Key: depgraph.DepKey{Kind: depgraph.SourceFileProvide, Name: file}, Provides: true, Fingerprint: fp(0xdeadbeef)},
			{Key: depgraph.DepKey{Kind: depgraph.TopLevel, Name: stablepath.Intern("a")}, Provides: true, Fingerprint: fp(42)},
			{Key: depgraph.DepKey{Kind: depgraph.TopLevel, Name: nameB}, Provides: false},
			{Key: depgraph.DepKey{Kind: depgraph.Member, Context: typeT, Name: stablepath.Intern("m")}, Provides: false},
			{Key: depgraph.DepKey{Kind: depgraph.ExternalDepend, Name: artifact}, Provides: false, ArtifactPath: &artifact},
		},
		Arcs: []depgraph.Arc{
			{UseIdx: 2, Def: depgraph.DepKey{Kind: depgraph.TopLevel, Name: nameB}, Cascades: true},
			{UseIdx: 3, Def: depgraph.DepKey{Kind: depgraph.Member, Context: typeT, Name: stablepath.Intern("m")}, Cascades: false},
			{UseIdx: 4, Def: depgraph.DepKey{Kind: depgraph.ExternalDepend, Name: artifact}, Cascades: true},
		},
		InterfaceHash: 0xdeadbeef,
		Externals:     []stablepath.Identifier{artifact},
	}
}

func sortNodes(g *depgraph.FileGraph) {
	recs := canonicalNodeOrder(g)
	g.Nodes = g.Nodes[:0]
	g.Arcs = g.Arcs[:0]
	for _, r := range recs {
		idx := len(g.Nodes)
		g.Nodes = append(g.Nodes, r.node)
		if !r.node.Provides {
			g.Arcs = append(g.Arcs, depgraph.Arc{UseIdx: idx, Def: r.node.Key, Cascades: r.cascades})
		}
	}
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	want := sampleGraph()
	sortNodes(want) // canonicalize first so the comparison is order-independent

	data := Encode(want, "incdep-test")
	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if diff := cmp.Diff(want, got, cmp.AllowUnexported(stablepath.Identifier{})); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestEncode_IsCanonicalAcrossNodeOrder(t *testing.T) {
	g1 := sampleGraph()
	g2 := sampleGraph()
	// Shuffle g2's node order (and keep arcs consistent by rebuilding via
	// the same canonicalization used by Encode).
	g2.Nodes[1], g2.Nodes[3] = g2.Nodes[3], g2.Nodes[1]

	if d1, d2 := Encode(g1, "v1"), Encode(g2, "v1"); string(d1) != string(d2) {
		t.Fatalf("encoding is not canonical: differing input node order produced different bytes")
	}
}

func TestDecode_RejectsBadSignature(t *testing.T) {
	_, err := Decode([]byte("not-an-artifact"))
	if err == nil {
		t.Fatalf("expected a decode error for a bad signature")
	}
}

func TestDecode_RejectsUnknownMajorVersion(t *testing.T) {
	g := sampleGraph()
	data := Encode(g, "v1")
	// Bump the major version field (right after the 4-byte signature).
	data[4] = 0xff
	data[5] = 0xff
	_, err := Decode(data)
	if err == nil {
		t.Fatalf("expected a decode error for an unsupported major version")
	}
}

func TestDecode_RejectsTruncatedInput(t *testing.T) {
	g := sampleGraph()
	data := Encode(g, "v1")
	_, err := Decode(data[:len(data)-3])
	if err == nil {
		t.Fatalf("expected a decode error for truncated input")
	}
}
