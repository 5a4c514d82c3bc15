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

// Package verify is the dependency verifier (C8): it runs a front end over
// one annotated source file, collects every edge the front end recorded
// into a referenced-name tracker, and checks those edges against
// `expected-<selector> {{message}}` comments embedded in the source. It
// never participates in a build; it is a single-file property test.
package verify

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/maruel/incdep/internal/depgraph"
	"github.com/maruel/incdep/internal/editdist"
	"github.com/maruel/incdep/internal/frontend"
	"github.com/maruel/incdep/internal/stablepath"
)

// Kind is the obligation category an emitted edge falls into. It is a
// verifier-level concept, coarser than depgraph.NodeKind: the fixture front
// ends in this repository only ever populate Superclass and Member/
// DynamicMember obligations; Conformance exists in the matrix for
// completeness (a real front end with a dedicated conformance-lookup
// request would populate it the same way Member is populated today).
type Kind string

const (
	KindProvides      Kind = "provides"
	KindSuperclass    Kind = "superclass"
	KindConformance   Kind = "conformance"
	KindMember        Kind = "member"
	KindDynamicMember Kind = "dynamic-member"
)

// selectors is the exhaustive, only-allowed set named by spec §4.8.
var selectors = []string{
	"no-dependency",
	"provides",
	"private-superclass", "cascading-superclass",
	"private-conformance", "cascading-conformance",
	"private-member", "cascading-member",
	"private-dynamic-member", "cascading-dynamic-member",
}

// obligationState is the three-state machine an obligation moves through:
// Owed at creation, Fulfilled by a matching expectation, Failed by a
// mismatching one (wrong scope, or a no-dependency that turned out to
// exist).
type obligationState int

const (
	Owed obligationState = iota
	Fulfilled
	Failed
)

type obligationKey struct {
	Name string
	Kind Kind
}

type obligation struct {
	key      obligationKey
	cascades bool
	state    obligationState
}

// Diagnostic is one verifier finding, positioned at the expectation comment
// that produced it (or a synthesized trailing position for an obligation
// that no comment ever addressed).
type Diagnostic struct {
	Line    int
	Message string
	// FixIt, when non-empty, is the expectation comment text that would
	// resolve this diagnostic if inserted into the source.
	FixIt string
}

// noLine is the sort position for diagnostics synthesized from a leftover
// obligation rather than from a source comment: they sort after every
// commented diagnostic, and among themselves by message text.
const noLine = 1 << 30

var expectationRE = regexp.MustCompile(`expected-([A-Za-z0-9_-]+)\s*\{\{([^}]*)\}\}`)

type expectation struct {
	Line     int
	Selector string
	Message  string
}

func parseExpectations(source []byte) []expectation {
	var out []expectation
	for i, line := range strings.Split(string(source), "\n") {
		for _, m := range expectationRE.FindAllStringSubmatch(line, -1) {
			out = append(out, expectation{Line: i + 1, Selector: m[1], Message: strings.TrimSpace(m[2])})
		}
	}
	return out
}

// decomposeSelector splits a selector into (scope, kind); ok is false for
// "provides" and "no-dependency", which stand alone, or for an unknown
// selector.
func decomposeSelector(selector string) (cascading bool, kind Kind, ok bool) {
	var scope, rest string
	switch {
	case strings.HasPrefix(selector, "private-"):
		scope, rest = "private", strings.TrimPrefix(selector, "private-")
	case strings.HasPrefix(selector, "cascading-"):
		scope, rest = "cascading", strings.TrimPrefix(selector, "cascading-")
	default:
		return false, "", false
	}
	switch Kind(rest) {
	case KindSuperclass, KindConformance, KindMember, KindDynamicMember:
		return scope == "cascading", Kind(rest), true
	default:
		return false, "", false
	}
}

// buildObligations turns the tracker's recorded provides and uses into the
// obligation pool the expectations are checked against.
func buildObligations(tracker *depgraph.Tracker) map[obligationKey]*obligation {
	obligations := map[obligationKey]*obligation{}

	for _, name := range tracker.ProvidesInOrder() {
		key := obligationKey{Name: stablepath.String(name), Kind: KindProvides}
		obligations[key] = &obligation{key: key, state: Owed}
	}

	tracker.EnumerateUses(true, false, func(kind depgraph.NodeKind, context, name stablepath.Identifier, cascades bool) {
		var k Kind
		var nm string
		switch kind {
		case depgraph.TopLevel:
			k, nm = KindSuperclass, stablepath.String(name)
		case depgraph.Nominal:
			k, nm = KindConformance, stablepath.String(context)
		case depgraph.Member:
			k, nm = KindMember, stablepath.String(context)+"."+stablepath.String(name)
		case depgraph.PotentialMember:
			k, nm = KindMember, stablepath.String(context)
		case depgraph.DynamicLookup:
			k, nm = KindDynamicMember, stablepath.String(name)
		default:
			return // ExternalDepend, SourceFileProvide are not selector-observable.
		}
		key := obligationKey{Name: nm, Kind: k}
		if ob, ok := obligations[key]; ok {
			ob.cascades = ob.cascades || cascades
			return
		}
		obligations[key] = &obligation{key: key, cascades: cascades, state: Owed}
	})

	return obligations
}

func selectorFor(ob *obligation) string {
	if ob.key.Kind == KindProvides {
		return "provides"
	}
	scope := "private"
	if ob.cascades {
		scope = "cascading"
	}
	return scope + "-" + string(ob.key.Kind)
}

// Verify runs compiler over source, then checks its recorded dependencies
// against the expected-<selector> comments embedded in source. It never
// returns an error for a verification mismatch: mismatches are ordinary
// Diagnostics, sorted deterministically by source location. A non-nil
// error means the front end itself failed to compile the file.
func Verify(ctx context.Context, compiler frontend.Compiler, file stablepath.Identifier, source []byte) ([]Diagnostic, error) {
	expectations := parseExpectations(source)

	result, err := compiler.Compile(ctx, file, source)
	if err != nil {
		return nil, err
	}
	obligations := buildObligations(result.Tracker)

	var diags []Diagnostic
	for _, exp := range expectations {
		switch exp.Selector {
		case "no-dependency":
			diags = append(diags, checkNoDependency(obligations, exp)...)
		case "provides":
			diags = append(diags, checkExact(obligations, obligationKey{Name: exp.Message, Kind: KindProvides}, exp)...)
		default:
			cascading, kind, ok := decomposeSelector(exp.Selector)
			if !ok {
				msg := fmt.Sprintf("unknown expectation selector %q", exp.Selector)
				if s := editdist.Suggest(exp.Selector, selectors); s != "" {
					msg += fmt.Sprintf(", did you mean %q?", s)
				}
				diags = append(diags, Diagnostic{Line: exp.Line, Message: msg})
				continue
			}
			diags = append(diags, checkScoped(obligations, obligationKey{Name: exp.Message, Kind: kind}, cascading, exp)...)
		}
	}

	var names []obligationKey
	for k := range obligations {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		if names[i].Kind != names[j].Kind {
			return names[i].Kind < names[j].Kind
		}
		return names[i].Name < names[j].Name
	})
	for _, k := range names {
		ob := obligations[k]
		if ob.state != Owed {
			continue
		}
		diags = append(diags, Diagnostic{
			Line:    noLine,
			Message: fmt.Sprintf("unexpected %s dependency: %s", ob.key.Kind, ob.key.Name),
			FixIt:   fmt.Sprintf("expected-%s {{%s}}", selectorFor(ob), ob.key.Name),
		})
	}

	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].Line != diags[j].Line {
			return diags[i].Line < diags[j].Line
		}
		return diags[i].Message < diags[j].Message
	})
	return diags, nil
}

func checkNoDependency(obligations map[obligationKey]*obligation, exp expectation) []Diagnostic {
	for k, ob := range obligations {
		if k.Name != exp.Message || k.Kind == KindProvides {
			continue
		}
		ob.state = Failed
		return []Diagnostic{{Line: exp.Line, Message: fmt.Sprintf("unexpected dependency exists: %s", exp.Message)}}
	}
	return nil
}

func checkExact(obligations map[obligationKey]*obligation, key obligationKey, exp expectation) []Diagnostic {
	ob, found := obligations[key]
	if !found {
		return []Diagnostic{{Line: exp.Line, Message: fmt.Sprintf("expected %s %q not found", key.Kind, key.Name)}}
	}
	ob.state = Fulfilled
	return nil
}

func checkScoped(obligations map[obligationKey]*obligation, key obligationKey, cascading bool, exp expectation) []Diagnostic {
	ob, found := obligations[key]
	if !found {
		return []Diagnostic{{Line: exp.Line, Message: fmt.Sprintf("expected %s dependency on %q not found", key.Kind, key.Name)}}
	}
	if ob.cascades != cascading {
		ob.state = Failed
		wantScope, gotScope := "private", "private"
		if cascading {
			wantScope = "cascading"
		}
		if ob.cascades {
			gotScope = "cascading"
		}
		return []Diagnostic{{Line: exp.Line, Message: fmt.Sprintf("dependency on %q is %s, expected %s", key.Name, gotScope, wantScope)}}
	}
	ob.state = Fulfilled
	return nil
}

// ApplyFixIts appends every diagnostic's fix-it comment to the end of
// source, one per line, in diagnostic order. Diagnostics without a FixIt
// are skipped.
func ApplyFixIts(source []byte, diags []Diagnostic) []byte {
	out := append([]byte(nil), source...)
	for _, d := range diags {
		if d.FixIt == "" {
			continue
		}
		if len(out) > 0 && out[len(out)-1] != '\n' {
			out = append(out, '\n')
		}
		out = append(out, []byte("// "+d.FixIt+"\n")...)
	}
	return out
}
