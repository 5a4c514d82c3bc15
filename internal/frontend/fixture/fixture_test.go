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

package fixture

import (
	"context"
	"testing"

	"github.com/maruel/incdep/internal/depgraph"
	"github.com/maruel/incdep/internal/stablepath"
)

func TestCompile_ProvidesAndUses(t *testing.T) {
	src := []byte("provides Foo 42\ntop bar cascading\nexternal Other.swiftdeps\n")
	res, err := Compiler{}.Compile(context.Background(), stablepath.Intern("A.fix"), src)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if res.Defs[stablepath.Intern("Foo")] != 42 {
		t.Fatalf("expected fingerprint 42 for Foo, got %v", res.Defs)
	}

	var sawTop, sawExternal bool
	res.Tracker.EnumerateUses(true, true, func(kind depgraph.NodeKind, _, name stablepath.Identifier, cascades bool) {
		switch kind {
		case depgraph.TopLevel:
			if stablepath.String(name) == "bar" && cascades {
				sawTop = true
			}
		case depgraph.ExternalDepend:
			if stablepath.String(name) == "Other.swiftdeps" {
				sawExternal = true
			}
		}
	})
	if !sawTop {
		t.Fatalf("expected a cascading top-level use of bar")
	}
	if !sawExternal {
		t.Fatalf("expected an external dependency on Other.swiftdeps")
	}
}

func TestCompile_WhitespaceOnlyEditDoesNotChangeInterfaceHash(t *testing.T) {
	a := []byte("provides Foo 42\ntop bar\n")
	b := []byte("provides Foo 42\n\n\ntop    bar    \n")

	resA, err := Compiler{}.Compile(context.Background(), stablepath.Intern("A.fix"), a)
	if err != nil {
		t.Fatalf("Compile a: %v", err)
	}
	resB, err := Compiler{}.Compile(context.Background(), stablepath.Intern("A.fix"), b)
	if err != nil {
		t.Fatalf("Compile b: %v", err)
	}
	if resA.InterfaceHash != resB.InterfaceHash {
		t.Fatalf("whitespace-only edit changed interface hash: %d != %d", resA.InterfaceHash, resB.InterfaceHash)
	}
}

func TestCompile_BodyEditDoesNotChangeInterfaceHash(t *testing.T) {
	a := []byte("provides Foo 42\ntop bar\n")
	b := []byte("provides Foo 42\ntop bar cascading\ntop baz\n")

	resA, err := Compiler{}.Compile(context.Background(), stablepath.Intern("A.fix"), a)
	if err != nil {
		t.Fatalf("Compile a: %v", err)
	}
	resB, err := Compiler{}.Compile(context.Background(), stablepath.Intern("A.fix"), b)
	if err != nil {
		t.Fatalf("Compile b: %v", err)
	}
	if resA.InterfaceHash != resB.InterfaceHash {
		t.Fatalf("editing only use lines changed the interface hash: %d != %d", resA.InterfaceHash, resB.InterfaceHash)
	}
}

func TestCompile_InterfaceEditChangesInterfaceHash(t *testing.T) {
	a := []byte("provides Foo 42\n")
	b := []byte("provides Foo 43\n")

	resA, err := Compiler{}.Compile(context.Background(), stablepath.Intern("A.fix"), a)
	if err != nil {
		t.Fatalf("Compile a: %v", err)
	}
	resB, err := Compiler{}.Compile(context.Background(), stablepath.Intern("A.fix"), b)
	if err != nil {
		t.Fatalf("Compile b: %v", err)
	}
	if resA.InterfaceHash == resB.InterfaceHash {
		t.Fatalf("changing a provided fingerprint did not change the interface hash")
	}
}

func TestCompile_UnknownDirectiveIsError(t *testing.T) {
	_, err := Compiler{}.Compile(context.Background(), stablepath.Intern("A.fix"), []byte("bogus thing\n"))
	if err == nil {
		t.Fatalf("expected an error for an unknown directive")
	}
}
