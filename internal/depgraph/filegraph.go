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

import "github.com/maruel/incdep/internal/stablepath"

// FileGraph is the immutable per-file dependency graph: the compile
// artifact for one source file. It is created once compilation succeeds,
// serialized to disk (internal/artifact), and never mutated afterward --
// only unioned into the ModuleGraph via Integrate.
type FileGraph struct {
	File          FileID
	Nodes         []Node
	Arcs          []Arc
	InterfaceHash uint64
	Externals     []stablepath.Identifier
}

// DefFingerprints maps a declared top-level name to the fingerprint of
// its definition, as computed by the front end (internal/frontend). Only
// entities with a self-stable body hash (nominal types, protocols) need
// an entry; everything else is left unfingerprinted.
type DefFingerprints map[stablepath.Identifier]uint64

// BuildFileGraph assembles the FileGraph for one file from its Tracker
// and its definitions' fingerprints. src names the file being compiled --
// the SourceRequest half of the sink/source split documented in
// request.go, kept separate from tracker (the SinkRequest half) so
// neither can be mistaken for the other. It always contributes the
// distinguished SourceFileProvide node whose fingerprint is the file's
// interface hash -- the invalidation key downstream modules key off of.
func BuildFileGraph(src SourceRequest, tracker *Tracker, defs DefFingerprints, interfaceHash uint64) *FileGraph {
	file := src.ActiveFile()
	g := &FileGraph{File: file}

	ifaceHash := interfaceHash
	g.Nodes = append(g.Nodes, Node{
		Key:         DepKey{Kind: SourceFileProvide, Aspect: Interface, Name: file},
		Provides:    true,
		Fingerprint: &ifaceHash,
	})

	for _, name := range tracker.ProvidesInOrder() {
		var fp *uint64
		if f, ok := defs[name]; ok {
			v := f
			fp = &v
		}
		g.Nodes = append(g.Nodes, Node{
			Key:         DepKey{Kind: TopLevel, Aspect: Interface, Name: name},
			Provides:    true,
			Fingerprint: fp,
		})
	}

	tracker.EnumerateUses(true, true, func(kind NodeKind, context, name stablepath.Identifier, cascades bool) {
		key := DepKey{Kind: kind, Aspect: Interface, Context: context, Name: name}
		idx := len(g.Nodes)
		var artifactPath *stablepath.Identifier
		if kind == ExternalDepend {
			p := name
			artifactPath = &p
		}
		g.Nodes = append(g.Nodes, Node{Key: key, Provides: false, ArtifactPath: artifactPath})
		g.Arcs = append(g.Arcs, Arc{UseIdx: idx, Def: key, Cascades: cascades})
	})

	g.Externals = tracker.ExternalsInOrder()
	g.InterfaceHash = interfaceHash
	return g
}

// Provides returns the set of keys this file declares (Provides==true
// nodes), in node order.
func (g *FileGraph) Provides() []DepKey {
	var out []DepKey
	for _, n := range g.Nodes {
		if n.Provides {
			out = append(out, n.Key)
		}
	}
	return out
}

// Validate checks the per-file invariant: every arc's use endpoint
// indexes a node owned by this same graph.
func (g *FileGraph) Validate() error {
	for _, a := range g.Arcs {
		if a.UseIdx < 0 || a.UseIdx >= len(g.Nodes) {
			return &InvariantError{Msg: "arc use index out of range for owning file graph"}
		}
	}
	return nil
}

// InvariantError reports a violation of a dependency-graph invariant.
type InvariantError struct{ Msg string }

func (e *InvariantError) Error() string { return "depgraph: " + e.Msg }
