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

// Package frontend declares the external-collaborator boundary: the
// parser and semantic analyzer that actually reads a source file and
// populates a dependency tracker. The core graph machinery never parses
// source itself -- it drives whatever Compiler the caller supplies.
// internal/frontend/fixture provides a deliberately trivial one for
// tests.
package frontend

import (
	"context"

	"github.com/maruel/incdep/internal/depgraph"
	"github.com/maruel/incdep/internal/stablepath"
)

// Result is what one Compile call produces: the recorded uses (a
// SinkRequest accumulator), the fingerprints of the names the file
// declares, and the file's own interface hash (the SourceFileProvide
// fingerprint).
type Result struct {
	Tracker       *depgraph.Tracker
	Defs          depgraph.DefFingerprints
	InterfaceHash uint64
}

// Compiler is the front end: given a file and its contents, it parses,
// runs semantic analysis, and records every cross-declaration reference
// it observes into a fresh Tracker. Implementations own their own
// caches; the driver calls Compile from multiple worker goroutines
// concurrently, one call per file, never two concurrently for the same
// file.
type Compiler interface {
	Compile(ctx context.Context, file stablepath.Identifier, source []byte) (*Result, error)
}

// CompileError wraps a front-end failure with the file it was compiling,
// so the driver can keep that file dirty without losing the file
// identity that produced the error.
type CompileError struct {
	File stablepath.Identifier
	Err  error
}

func (e *CompileError) Error() string {
	return "frontend: " + stablepath.String(e.File) + ": " + e.Err.Error()
}

func (e *CompileError) Unwrap() error { return e.Err }
