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

// Package fixture is a deliberately trivial stand-in front end: a
// line-oriented declaration scanner, not a real parser for any
// language. It exists to drive the graph and driver tests without
// pulling in an actual compiler front end.
//
// Each non-blank, non-comment line is one directive:
//
//	provides NAME [FINGERPRINT]
//	top NAME [cascading]
//	member TYPE NAME [cascading]
//	potential TYPE [cascading]
//	dynamic NAME [cascading]
//	external PATH
//
// Lines are read in order; unknown directives are a compile error. The
// file's interface hash is derived only from its `provides` lines, so
// editing a `top`/`member`/`external` line (the equivalent of a
// function body) never changes it -- the hash line that other files key
// their own dependency on.
package fixture

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/maruel/incdep/internal/depgraph"
	"github.com/maruel/incdep/internal/frontend"
	"github.com/maruel/incdep/internal/stablehash"
	"github.com/maruel/incdep/internal/stablepath"
)

// Compiler implements frontend.Compiler over the directive syntax
// documented at the package level.
type Compiler struct{}

const cascadingTok = "cascading"

// Compile scans source and returns the tracker, declared fingerprints,
// and interface hash it produced.
func (Compiler) Compile(ctx context.Context, file stablepath.Identifier, source []byte) (*frontend.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tracker := depgraph.NewTracker()
	defs := depgraph.DefFingerprints{}
	h := stablehash.New()

	for lineNo, line := range strings.Split(string(source), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		fields := strings.Fields(trimmed)
		directive := fields[0]
		args := fields[1:]

		switch directive {
		case "provides":
			if len(args) < 1 {
				return nil, fmt.Errorf("fixture: %s:%d: provides needs a name", stablepath.String(file), lineNo+1)
			}
			name := stablepath.Intern(args[0])
			tracker.AddProvides(name)
			var fp uint64
			if len(args) >= 2 {
				v, err := strconv.ParseUint(args[1], 10, 64)
				if err != nil {
					return nil, fmt.Errorf("fixture: %s:%d: bad fingerprint: %w", stablepath.String(file), lineNo+1, err)
				}
				fp = v
				defs[name] = fp
			}
			h.CombineString(args[0])
			h.CombineUint64(fp)
		case "top":
			if len(args) < 1 {
				return nil, fmt.Errorf("fixture: %s:%d: top needs a name", stablepath.String(file), lineNo+1)
			}
			tracker.AddTopLevelName(stablepath.Intern(args[0]), hasFlag(args, 1, cascadingTok))
		case "member":
			if len(args) < 2 {
				return nil, fmt.Errorf("fixture: %s:%d: member needs a type and a name", stablepath.String(file), lineNo+1)
			}
			typ := stablepath.Intern(args[0])
			name := stablepath.Intern(args[1])
			tracker.AddUsedMember(typ, name, hasFlag(args, 2, cascadingTok))
		case "potential":
			if len(args) < 1 {
				return nil, fmt.Errorf("fixture: %s:%d: potential needs a type", stablepath.String(file), lineNo+1)
			}
			tracker.AddPotentialMember(stablepath.Intern(args[0]), hasFlag(args, 1, cascadingTok))
		case "dynamic":
			if len(args) < 1 {
				return nil, fmt.Errorf("fixture: %s:%d: dynamic needs a name", stablepath.String(file), lineNo+1)
			}
			tracker.AddDynamicLookupName(stablepath.Intern(args[0]), hasFlag(args, 1, cascadingTok))
		case "external":
			if len(args) < 1 {
				return nil, fmt.Errorf("fixture: %s:%d: external needs a path", stablepath.String(file), lineNo+1)
			}
			tracker.AddExternalDepend(stablepath.Intern(args[0]))
		default:
			return nil, fmt.Errorf("fixture: %s:%d: unknown directive %q", stablepath.String(file), lineNo+1, directive)
		}
	}

	return &frontend.Result{
		Tracker:       tracker,
		Defs:          defs,
		InterfaceHash: h.Finalize(),
	}, nil
}

func hasFlag(args []string, idx int, tok string) bool {
	return idx < len(args) && args[idx] == tok
}
