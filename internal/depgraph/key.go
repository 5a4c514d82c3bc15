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

// Package depgraph is the fine-grained dependency graph: the per-file
// referenced-name tracker (C3), the source-file dependency graph that
// becomes the compile artifact (C4), and the module-wide graph that
// answers "who must rebuild?" (C5).
package depgraph

import "github.com/maruel/incdep/internal/stablepath"

// NodeKind discriminates what a DepKey's (context, name) pair means.
type NodeKind uint8

const (
	// TopLevel("", n): top-level name n.
	TopLevel NodeKind = iota
	// Nominal(T, ""): the nominal type T itself (its existence, not a member).
	Nominal
	// PotentialMember(T, ""): any member of T a dependent may acquire.
	PotentialMember
	// Member(T, m): member m of type T.
	Member
	// DynamicLookup(n): a name resolved by dynamic/runtime lookup.
	DynamicLookup
	// ExternalDepend(path): a reference to a foreign module's artifact.
	ExternalDepend
	// SourceFileProvide(file): the distinguished per-file interface node.
	SourceFileProvide
)

func (k NodeKind) String() string {
	switch k {
	case TopLevel:
		return "TopLevel"
	case Nominal:
		return "Nominal"
	case PotentialMember:
		return "PotentialMember"
	case Member:
		return "Member"
	case DynamicLookup:
		return "DynamicLookup"
	case ExternalDepend:
		return "ExternalDepend"
	case SourceFileProvide:
		return "SourceFileProvide"
	default:
		return "NodeKind(?)"
	}
}

// Aspect splits a key between the public interface (cross-file visible)
// and a private implementation detail (only the declaring file cares).
type Aspect uint8

const (
	Interface Aspect = iota
	Implementation
)

func (a Aspect) String() string {
	if a == Implementation {
		return "Implementation"
	}
	return "Interface"
}

// DepKey is the four-field identity of a dependency node: what kind of
// relationship it is, which aspect it belongs to, and the (context, name)
// pair whose meaning is defined per NodeKind. DepKey is comparable and
// usable directly as a map key -- Identifier compares by interned index,
// so no string hashing happens on every lookup.
type DepKey struct {
	Kind    NodeKind
	Aspect  Aspect
	Context stablepath.Identifier
	Name    stablepath.Identifier
}

// FileID identifies the source file that owns a node or arc.
type FileID = stablepath.Identifier
