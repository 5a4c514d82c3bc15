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

// Tracker accumulates the outgoing edges recorded while one source file
// is compiled. It is a SinkRequest: the front end calls its Add* methods
// as a side effect of evaluating requests over the parsed file; it never
// reads back what it has already recorded except through EnumerateUses
// once compilation of the file is done. One Tracker belongs to exactly
// one goroutine for its whole lifetime -- see internal/sched.
type Tracker struct {
	uses      map[DepKey]bool // recorded use -> cascades (OR of all recordings)
	usesOrder []DepKey

	provides      map[stablepath.Identifier]bool
	providesOrder []stablepath.Identifier

	externals      map[stablepath.Identifier]bool
	externalsOrder []stablepath.Identifier
}

// NewTracker returns an empty tracker ready to accumulate one file's
// edges.
func NewTracker() *Tracker {
	return &Tracker{
		uses:      map[DepKey]bool{},
		provides:  map[stablepath.Identifier]bool{},
		externals: map[stablepath.Identifier]bool{},
	}
}

// RecordDependency implements SinkRequest: it is the single primitive
// every use-recording Add* helper below (AddTopLevelName, AddUsedMember,
// AddPotentialMember, AddDynamicLookupName) funnels through; AddProvides
// and AddExternalDepend keep their own sets. The cascade flag is the
// logical OR over every recording of the same key, so cascading
// dominates non-cascading.
func (t *Tracker) RecordDependency(kind NodeKind, context, name stablepath.Identifier, cascades bool) {
	key := DepKey{Kind: kind, Aspect: Interface, Context: context, Name: name}
	prev, existed := t.uses[key]
	if !existed {
		t.usesOrder = append(t.usesOrder, key)
	}
	t.uses[key] = prev || cascades
}

var _ SinkRequest = (*Tracker)(nil)

// AddTopLevelName records a dependency on a top-level name.
func (t *Tracker) AddTopLevelName(name stablepath.Identifier, cascades bool) {
	t.RecordDependency(TopLevel, stablepath.Identifier{}, name, cascades)
}

// AddUsedMember records a dependency on a named member of context.
func (t *Tracker) AddUsedMember(context, name stablepath.Identifier, cascades bool) {
	t.RecordDependency(Member, context, name, cascades)
}

// AddPotentialMember records a dependency on "any member of context" --
// sensitive to additions and removals even when no concrete member arc
// exists.
func (t *Tracker) AddPotentialMember(context stablepath.Identifier, cascades bool) {
	t.RecordDependency(PotentialMember, context, stablepath.Identifier{}, cascades)
}

// AddDynamicLookupName records a dependency resolved by dynamic lookup.
func (t *Tracker) AddDynamicLookupName(name stablepath.Identifier, cascades bool) {
	t.RecordDependency(DynamicLookup, stablepath.Identifier{}, name, cascades)
}

// AddProvides declares that the file defines name at file scope.
func (t *Tracker) AddProvides(name stablepath.Identifier) {
	if !t.provides[name] {
		t.provides[name] = true
		t.providesOrder = append(t.providesOrder, name)
	}
}

// AddExternalDepend records a reference to a foreign module's artifact.
func (t *Tracker) AddExternalDepend(path stablepath.Identifier) {
	if !t.externals[path] {
		t.externals[path] = true
		t.externalsOrder = append(t.externalsOrder, path)
	}
}

// ProvidesInOrder returns the declared names in first-recorded order.
func (t *Tracker) ProvidesInOrder() []stablepath.Identifier {
	return append([]stablepath.Identifier(nil), t.providesOrder...)
}

// ExternalsInOrder returns the referenced foreign artifacts in
// first-recorded order.
func (t *Tracker) ExternalsInOrder() []stablepath.Identifier {
	return append([]stablepath.Identifier(nil), t.externalsOrder...)
}

// EnumerateUses emits (kind, context, name, cascades) for every recorded
// use, in first-recorded order for determinism. When includeIntrafile is
// false, top-level uses whose Name was also separately declared via
// AddProvides (a reference the file satisfies itself) are skipped; uses of
// other kinds are always emitted. When
// includeExternalDeps is true, one ExternalDepend entry is also emitted
// per recorded external artifact, non-cascading by construction (a
// foreign interface-hash change is handled at the module-graph level, not
// via an implicit cascade bit here).
func (t *Tracker) EnumerateUses(includeIntrafile, includeExternalDeps bool, visit func(kind NodeKind, context, name stablepath.Identifier, cascades bool)) {
	for _, key := range t.usesOrder {
		if !includeIntrafile && key.Kind == TopLevel && t.provides[key.Name] {
			continue
		}
		visit(key.Kind, key.Context, key.Name, t.uses[key])
	}
	if includeExternalDeps {
		for _, path := range t.externalsOrder {
			visit(ExternalDepend, stablepath.Identifier{}, path, false)
		}
	}
}
