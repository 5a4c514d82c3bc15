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

// Package stablepath builds location-independent identity for
// declarations: a StablePath fingerprints to the same ID regardless of
// process, architecture, or source-file declaration order.
package stablepath

import (
	"sync"

	"github.com/maruel/incdep/internal/stablehash"
)

// ID is a fingerprinted StablePath, or the fingerprinted form of an
// Identifier's contents when used as a hash-table key elsewhere.
type ID uint64

// Kind is the discriminant of a StablePath.
type Kind uint8

const (
	// Module is the root of a module; its ParentID is always 0.
	Module Kind = iota
	// Container is an intermediate scope (a type, an extension, ...).
	Container
	// Name is a leaf declaration.
	Name

	// tombstoneKind marks the distinguished tombstone path; it is not a
	// real path kind and must never be fingerprinted.
	tombstoneKind Kind = 0xff
)

// Hashable is implemented by every value that may appear as an "extra" in a
// path constructor. Only stable-hash-contract types may implement it:
// identifiers, enums, strings, and numeric literals -- never pointers.
type Hashable interface {
	CombineInto(h *stablehash.Hasher)
}

// StringExtra hashes a plain string value.
type StringExtra string

func (s StringExtra) CombineInto(h *stablehash.Hasher) { h.CombineString(string(s)) }

// Uint64Extra hashes a numeric literal.
type Uint64Extra uint64

func (u Uint64Extra) CombineInto(h *stablehash.Hasher) { h.CombineUint64(uint64(u)) }

// Path is the value (parent_id, kind, extra_hash) from which an ID is
// derived. Equality of all three fields is path equality; Fingerprint
// collisions are cryptographically unlikely but not impossible.
type Path struct {
	ParentID  ID
	Kind      Kind
	ExtraHash uint64
}

// Tombstone is the distinguished value reserved for hash-table deleted
// slots. It must never be passed to Fingerprint.
var Tombstone = Path{ParentID: ^ID(0), Kind: tombstoneKind, ExtraHash: ^uint64(0)}

// Fingerprint computes the ID of p. It is a pure function of
// (ParentID, Kind, ExtraHash) -- never of memory addresses -- so permuting
// declaration order in the source file never changes the set of IDs
// produced for the declarations it contains.
func (p Path) Fingerprint() ID {
	if p == Tombstone {
		panic("stablepath: cannot fingerprint the tombstone value")
	}
	h := stablehash.New()
	h.CombineUint64(uint64(p.ParentID))
	h.CombineByte(byte(p.Kind))
	h.CombineUint64(p.ExtraHash)
	return ID(h.Finalize())
}

func hashExtras(extras []Hashable) uint64 {
	h := stablehash.New()
	h.CombineSequence(len(extras), func(i int) { extras[i].CombineInto(&h) })
	return h.Finalize()
}

// Root constructs the StablePath for a module: parent_id = 0, kind = Module.
func Root(extras ...Hashable) Path {
	return Path{ParentID: 0, Kind: Module, ExtraHash: hashExtras(extras)}
}

// NewContainer constructs an intermediate-scope StablePath whose parent_id
// is the fingerprint of its enclosing path.
func NewContainer(parent Path, extras ...Hashable) Path {
	return Path{ParentID: parent.Fingerprint(), Kind: Container, ExtraHash: hashExtras(extras)}
}

// NewName constructs a leaf-declaration StablePath. The original sources
// built this with kind Container in one revision; that was a bug (see the
// design notes) -- here it is always Kind Name.
func NewName(parent Path, extras ...Hashable) Path {
	return Path{ParentID: parent.Fingerprint(), Kind: Name, ExtraHash: hashExtras(extras)}
}

// Identifier is an interned, immutable byte string. Two identifiers
// compare by identity (their interned index), never by content, which
// makes equality an O(1) integer compare. The empty string interns to
// the distinguished zero identifier.
type Identifier struct {
	idx uint32
}

// IsEmpty reports whether id is the distinguished empty identifier.
func (id Identifier) IsEmpty() bool { return id.idx == 0 }

// CombineInto implements Hashable by absorbing the identifier's interned
// string contents, never its index (the index is a process-local detail,
// the string is the stable identity).
func (id Identifier) CombineInto(h *stablehash.Hasher) {
	h.CombineString(defaultInterner.String(id))
}

// Interner interns byte strings into small immutable Identifier handles.
// Safe for concurrent use: every operating goroutine shares one Interner
// but only ever reads or appends to disjoint slots under its mutex.
type Interner struct {
	mu      sync.Mutex
	strings []string
	index   map[string]Identifier
}

// NewInterner returns an Interner pre-seeded with the empty identifier at
// index 0.
func NewInterner() *Interner {
	return &Interner{
		strings: []string{""},
		index:   map[string]Identifier{"": {idx: 0}},
	}
}

// Intern returns the Identifier for s, creating one if this is the first
// occurrence.
func (in *Interner) Intern(s string) Identifier {
	if s == "" {
		return Identifier{}
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	if id, ok := in.index[s]; ok {
		return id
	}
	id := Identifier{idx: uint32(len(in.strings))}
	in.strings = append(in.strings, s)
	in.index[s] = id
	return id
}

// String resolves id back to its original bytes.
func (in *Interner) String(id Identifier) string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.strings[id.idx]
}

var defaultInterner = NewInterner()

// Intern interns s in the package-wide default Interner.
func Intern(s string) Identifier { return defaultInterner.Intern(s) }

// String resolves id using the package-wide default Interner.
func String(id Identifier) string { return defaultInterner.String(id) }
