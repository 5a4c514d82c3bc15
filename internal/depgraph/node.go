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

// Node is either a definition ("provides=true", emitted by the owning
// file) or a use ("provides=false"). Nodes are immutable once
// constructed; the module graph mutates only via union operations over
// whole node sets, never in place.
type Node struct {
	Key      DepKey
	Provides bool

	// Fingerprint is present only for definition nodes with a self-stable
	// body hash: nominal types, protocols, and the per-file
	// SourceFileProvide node. nil means "no fingerprint".
	Fingerprint *uint64

	// ArtifactPath is set when Key.Kind == ExternalDepend: the identifier
	// of the referenced foreign module's dependency artifact.
	ArtifactPath *stablepath.Identifier
}

// Arc is a directed use -> def edge owned by one source-file graph.
// UseIdx indexes into that file's own Nodes slice (the file "provides"
// the use to the module, in the sense that it is the one recording the
// dependency); Def is the key the arc targets, which may resolve to a
// definition in the same file, another file, or an external module.
type Arc struct {
	UseIdx   int
	Def      DepKey
	Cascades bool
}
