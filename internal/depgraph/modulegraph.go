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

// FileStatus is one state in a source file's build lifecycle.
type FileStatus int

const (
	UpToDate FileStatus = iota
	Queued
	Compiling
	Success
	Failure
)

func (s FileStatus) String() string {
	switch s {
	case UpToDate:
		return "up-to-date"
	case Queued:
		return "queued"
	case Compiling:
		return "compiling"
	case Success:
		return "success"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

type fileMeta struct {
	Status FileStatus
	Graph  *FileGraph
}

// ModuleGraph is the disjoint union of every file's FileGraph, plus the
// indexes needed to answer dependent-closure queries in one pass. It is
// owned by a single goroutine (the driver, C7): worker jobs never see it
// directly, they hand their freshly compiled FileGraph back over a
// channel and only the driver calls Integrate. This is why ModuleGraph
// carries no mutex.
type ModuleGraph struct {
	provides  map[DepKey]map[FileID]*uint64
	uses      map[DepKey]map[FileID]bool
	externals map[stablepath.Identifier]bool
	files     map[FileID]*fileMeta
	order     []FileID // file registration order; the tie-break for determinism
}

// NewModuleGraph returns an empty module graph.
func NewModuleGraph() *ModuleGraph {
	return &ModuleGraph{
		provides:  map[DepKey]map[FileID]*uint64{},
		uses:      map[DepKey]map[FileID]bool{},
		externals: map[stablepath.Identifier]bool{},
		files:     map[FileID]*fileMeta{},
	}
}

func fpEqual(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func (m *ModuleGraph) fingerprintOf(g *FileGraph, key DepKey) *uint64 {
	if g == nil {
		return nil
	}
	for _, n := range g.Nodes {
		if n.Provides && n.Key == key {
			return n.Fingerprint
		}
	}
	return nil
}

func (m *ModuleGraph) ensureMeta(file FileID) *fileMeta {
	meta := m.files[file]
	if meta == nil {
		meta = &fileMeta{}
		m.files[file] = meta
		m.order = append(m.order, file)
	}
	return meta
}

func (m *ModuleGraph) removeFromIndex(file FileID, g *FileGraph) {
	if g == nil {
		return
	}
	for _, n := range g.Nodes {
		if !n.Provides {
			continue
		}
		if set := m.provides[n.Key]; set != nil {
			delete(set, file)
			if len(set) == 0 {
				delete(m.provides, n.Key)
			}
		}
	}
	for _, a := range g.Arcs {
		if set := m.uses[a.Def]; set != nil {
			delete(set, file)
			if len(set) == 0 {
				delete(m.uses, a.Def)
			}
		}
	}
}

// Integrate merges a freshly compiled FileGraph into the module graph,
// replacing whatever was previously integrated for the same file. It
// returns the set of changed definition keys: newly added or removed
// provides entries, and entries whose fingerprint differs from the prior
// revision. Re-integrating the identical graph a second time returns an
// empty changed set (idempotent union).
func (m *ModuleGraph) Integrate(g *FileGraph) []DepKey {
	meta := m.ensureMeta(g.File)
	prior := meta.Graph

	changed := map[DepKey]bool{}
	var changedOrder []DepKey
	markChanged := func(k DepKey) {
		if !changed[k] {
			changed[k] = true
			changedOrder = append(changedOrder, k)
		}
	}

	priorProvides := map[DepKey]bool{}
	if prior != nil {
		for _, k := range prior.Provides() {
			priorProvides[k] = true
		}
	}

	m.removeFromIndex(g.File, prior)

	newProvides := map[DepKey]bool{}
	for _, n := range g.Nodes {
		if !n.Provides {
			continue
		}
		newProvides[n.Key] = true
		if m.provides[n.Key] == nil {
			m.provides[n.Key] = map[FileID]*uint64{}
		}
		m.provides[n.Key][g.File] = n.Fingerprint

		priorFP := m.fingerprintOf(prior, n.Key)
		if !priorProvides[n.Key] || !fpEqual(priorFP, n.Fingerprint) {
			markChanged(n.Key)
			if n.Key.Kind == Member {
				// A member was added (or changed) on Context: sensitize
				// potential-member dependents even without a concrete arc.
				markChanged(DepKey{Kind: PotentialMember, Aspect: n.Key.Aspect, Context: n.Key.Context})
			}
		}
	}
	// Removal of a provides entity is equivalent to a change.
	for k := range priorProvides {
		if !newProvides[k] {
			markChanged(k)
			if k.Kind == Member {
				markChanged(DepKey{Kind: PotentialMember, Aspect: k.Aspect, Context: k.Context})
			}
		}
	}

	for _, a := range g.Arcs {
		if m.uses[a.Def] == nil {
			m.uses[a.Def] = map[FileID]bool{}
		}
		m.uses[a.Def][g.File] = m.uses[a.Def][g.File] || a.Cascades
	}
	for _, e := range g.Externals {
		m.externals[e] = true
	}

	meta.Graph = g
	meta.Status = Success
	return changedOrder
}

// FindDependents computes the transitive closure of files that must
// rebuild given a set of changed definition keys. It is a work-list BFS:
// each file is visited at most once, and the cascade flag on the arc
// that reached it decides whether its own provides re-enter the
// work-list (cascading) or the traversal stops there (non-cascading).
// Files are visited in FileID registration order within each round for
// determinism when reporting.
func (m *ModuleGraph) FindDependents(changedKeys []DepKey) []FileID {
	visited := map[FileID]bool{}
	var result []FileID

	queued := map[DepKey]bool{}
	queue := append([]DepKey(nil), changedKeys...)
	for _, k := range changedKeys {
		queued[k] = true
	}

	for i := 0; i < len(queue); i++ {
		key := queue[i]
		users := m.uses[key]
		if users == nil {
			continue
		}
		for _, file := range m.order {
			cascades, ok := users[file]
			if !ok {
				continue
			}
			if !visited[file] {
				visited[file] = true
				result = append(result, file)
			}
			if !cascades {
				continue
			}
			meta := m.files[file]
			if meta == nil || meta.Graph == nil {
				continue
			}
			for _, pk := range meta.Graph.Provides() {
				if !queued[pk] {
					queued[pk] = true
					queue = append(queue, pk)
				}
			}
		}
	}
	return result
}

// InvalidatedByExternal returns every file whose recorded external
// dependencies include path -- always a cascading invalidation, since a
// foreign module's interface hash is opaque to this module's own graph.
func (m *ModuleGraph) InvalidatedByExternal(path stablepath.Identifier) []FileID {
	var out []FileID
	for _, file := range m.order {
		meta := m.files[file]
		if meta == nil || meta.Graph == nil {
			continue
		}
		for _, e := range meta.Graph.Externals {
			if e == path {
				out = append(out, file)
				break
			}
		}
	}
	return out
}

// Status returns the current lifecycle state of file, or UpToDate if the
// file has never been seen.
func (m *ModuleGraph) Status(file FileID) FileStatus {
	meta := m.files[file]
	if meta == nil {
		return UpToDate
	}
	return meta.Status
}

// SetStatus transitions file's lifecycle state, creating its metadata
// record if this is the first time the file is seen.
func (m *ModuleGraph) SetStatus(file FileID, s FileStatus) {
	m.ensureMeta(file).Status = s
}

// InterfaceHash returns the last-integrated interface hash for file, and
// whether one is on record.
func (m *ModuleGraph) InterfaceHash(file FileID) (uint64, bool) {
	meta := m.files[file]
	if meta == nil || meta.Graph == nil {
		return 0, false
	}
	return meta.Graph.InterfaceHash, true
}

// Graph returns the last-integrated FileGraph for file, or nil.
func (m *ModuleGraph) Graph(file FileID) *FileGraph {
	meta := m.files[file]
	if meta == nil {
		return nil
	}
	return meta.Graph
}

// KnownFiles returns every file ever integrated, in registration order.
func (m *ModuleGraph) KnownFiles() []FileID {
	return append([]FileID(nil), m.order...)
}
