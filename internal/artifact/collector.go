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
	"sort"

	"github.com/maruel/incdep/internal/depgraph"
	"github.com/maruel/incdep/internal/stablepath"
)

// identCollector builds the artifact's identifier table: first-encounter
// order, with the empty identifier implicitly at index 0 and never
// written to the table itself.
type identCollector struct {
	seen  map[stablepath.Identifier]uint32
	order []stablepath.Identifier
}

func newCollector() *identCollector {
	return &identCollector{seen: map[stablepath.Identifier]uint32{}}
}

func (c *identCollector) add(id stablepath.Identifier) {
	if id.IsEmpty() {
		return
	}
	if _, ok := c.seen[id]; ok {
		return
	}
	c.seen[id] = uint32(len(c.order) + 1) // 1-based; 0 means empty
	c.order = append(c.order, id)
}

func (c *identCollector) indexOf(id stablepath.Identifier) uint32 {
	if id.IsEmpty() {
		return 0
	}
	return c.seen[id]
}

// nodeRec pairs a node with the cascade flag of its owning arc (if any),
// since on-disk NODE records fold Arc.Cascades into the use node itself
// rather than emitting a separate ARC record.
type nodeRec struct {
	node     depgraph.Node
	cascades bool
}

// canonicalNodeOrder sorts nodes into a deterministic key order so that
// re-encoding a decoded graph produces byte-identical output regardless
// of the order BuildFileGraph happened to append them in.
func canonicalNodeOrder(g *depgraph.FileGraph) []nodeRec {
	cascades := make(map[int]bool, len(g.Arcs))
	for _, a := range g.Arcs {
		cascades[a.UseIdx] = a.Cascades
	}

	recs := make([]nodeRec, len(g.Nodes))
	for i, n := range g.Nodes {
		recs[i] = nodeRec{node: n, cascades: cascades[i]}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		a, b := recs[i].node.Key, recs[j].node.Key
		if a.Kind != b.Kind {
			return a.Kind < b.Kind
		}
		if a.Aspect != b.Aspect {
			return a.Aspect < b.Aspect
		}
		ac, bc := stablepath.String(a.Context), stablepath.String(b.Context)
		if ac != bc {
			return ac < bc
		}
		an, bn := stablepath.String(a.Name), stablepath.String(b.Name)
		return an < bn
	})
	return recs
}
