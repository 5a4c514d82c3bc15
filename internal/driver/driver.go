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

// Package driver is the incremental driver loop (C7): it loads the prior
// module graph, classifies which inputs are dirty, dispatches compile jobs
// at bounded parallelism, integrates their results, and repeats until no
// further invalidation is discovered -- the direct generalization of the
// teacher's Builder loop in build.go.
package driver

import (
	"context"
	"fmt"
	"io"

	"github.com/maruel/incdep/internal/artifact"
	"github.com/maruel/incdep/internal/config"
	"github.com/maruel/incdep/internal/depgraph"
	"github.com/maruel/incdep/internal/disk"
	"github.com/maruel/incdep/internal/frontend"
	"github.com/maruel/incdep/internal/metrics"
	"github.com/maruel/incdep/internal/sched"
	"github.com/maruel/incdep/internal/stablehash"
	"github.com/maruel/incdep/internal/stablepath"
	"github.com/maruel/incdep/internal/status"
)

// CompilerVersion is stamped into every persisted artifact's metadata
// record. It has no effect on decode acceptance (only major/minor gate
// that); it exists for diagnostics.
const CompilerVersion = "incdep-driver/1"

// Input is one source file offered to a build: its stable identity and its
// current contents. The driver hashes Source to decide whether the file is
// locally invalidated relative to the prior run.
type Input struct {
	File   stablepath.Identifier
	Source []byte
}

// JobOutcome is one compiled file's result, reported in completion order.
type JobOutcome struct {
	File    stablepath.Identifier
	Reason  string
	Success bool
	Err     error
}

// Result is the outcome of one call to Run.
type Result struct {
	Jobs   []JobOutcome
	Failed []stablepath.Identifier
}

// OK reports whether every dispatched job succeeded -- the driver's
// exit-code contract (§6: "Exit code 0 iff every job succeeded").
func (r *Result) OK() bool { return len(r.Failed) == 0 }

// Driver owns the module graph for one build tree across incremental runs.
// It is not safe for concurrent calls to Run: the module graph is owned by
// a single goroutine by design (§5), the same way ModuleGraph documents.
type Driver struct {
	Config   config.Config
	Disk     disk.Interface
	Compiler frontend.Compiler
	Reporter status.Reporter

	graph       *depgraph.ModuleGraph
	contentHash map[stablepath.Identifier]uint64
	metrics     *metrics.Registry
}

// New returns a Driver with an empty module graph. Call Load to resume
// from a previously persisted graph before the first Run.
func New(cfg config.Config, d disk.Interface, compiler frontend.Compiler, reporter status.Reporter) *Driver {
	return &Driver{
		Config:      cfg,
		Disk:        d,
		Compiler:    compiler,
		Reporter:    reporter,
		graph:       depgraph.NewModuleGraph(),
		contentHash: map[stablepath.Identifier]uint64{},
		metrics:     metrics.NewRegistry(),
	}
}

// ReportMetrics writes the accumulated per-code-path timing table to w (the
// teacher's `-d stats` table dump, see cmd/nin/ninja.go's debugEnable).
// Recording happens unconditionally in Run; this only decides whether the
// table is ever printed.
func (d *Driver) ReportMetrics(w io.Writer) error {
	return d.metrics.Report(w)
}

// Load reads the persisted module graph from Config.GraphPath, if one
// exists. A missing graph is not an error: the next Run treats every input
// as initial.
func (d *Driver) Load() error {
	if d.Config.GraphPath == "" {
		return nil
	}
	data, err := d.Disk.ReadFile(d.Config.GraphPath)
	if err == disk.ErrNotFound {
		return nil
	}
	if err != nil {
		return err
	}
	graph, hashes, err := decodeStore(data)
	if err != nil {
		// A corrupt graph store is treated like a missing artifact (§7,
		// decode error): fall back to a full rebuild rather than fail the
		// run outright.
		d.Reporter.Warning("discarding unreadable module graph at %s: %v", d.Config.GraphPath, err)
		return nil
	}
	d.graph = graph
	d.contentHash = hashes
	return nil
}

// Graph exposes the current module graph for inspection (tests, C8).
func (d *Driver) Graph() *depgraph.ModuleGraph { return d.graph }

func (d *Driver) parallelism() int {
	if d.Config.Parallelism > 0 {
		return d.Config.Parallelism
	}
	return 1
}

// Run executes one full incremental build (§4.7): classify, dispatch,
// integrate, repeat until the queue is empty, then persist. changedExternals
// lists foreign artifact paths known to have changed since the prior run;
// it is only consulted when Config.EnableCrossModuleIncrementalBuild is set.
func (d *Driver) Run(ctx context.Context, inputs []Input, changedExternals []stablepath.Identifier) (*Result, error) {
	sourceByFile := make(map[stablepath.Identifier][]byte, len(inputs))
	for _, in := range inputs {
		sourceByFile[in.File] = in.Source
	}

	queued := map[stablepath.Identifier]bool{}
	var queue []stablepath.Identifier
	enqueue := func(file stablepath.Identifier, reason string) {
		if queued[file] {
			return
		}
		queued[file] = true
		queue = append(queue, file)
		d.graph.SetStatus(file, depgraph.Queued)
		if d.Config.ShowIncremental {
			d.Reporter.Info("queuing %s: %s", stablepath.String(file), reason)
		}
	}

	for _, in := range inputs {
		hash := stablehash.Hash(in.Source)
		prior, seen := d.contentHash[in.File]
		switch {
		case !seen:
			enqueue(in.File, "initial build")
		case prior != hash:
			enqueue(in.File, "content changed")
		}
	}

	if d.Config.EnableCrossModuleIncrementalBuild {
		for _, path := range changedExternals {
			for _, f := range d.graph.InvalidatedByExternal(path) {
				enqueue(f, "queuing because of incremental external dependencies")
			}
		}
	}

	var jobs []JobOutcome
	totalJobs := len(queue)
	d.Reporter.JobsTotal(totalJobs)
	d.Reporter.BuildStarted()

	for len(queue) > 0 {
		round := queue
		queue = nil

		if d.Config.ShowJobLifecycle {
			for _, file := range round {
				d.Reporter.Info("job started: %s", stablepath.String(file))
			}
		}

		results := sched.Run(ctx, d.parallelism(), round, func(ctx context.Context, file stablepath.Identifier) (*depgraph.FileGraph, error) {
			return d.compile(ctx, file, sourceByFile)
		})

		var changedOrder []depgraph.DepKey
		changedSeen := map[depgraph.DepKey]bool{}

		for r := range results {
			file := r.Item
			if d.Config.ShowJobLifecycle {
				d.Reporter.Info("job finished: %s", stablepath.String(file))
			}
			if r.Err != nil {
				d.graph.SetStatus(file, depgraph.Failure)
				d.Reporter.JobFinished(stablepath.String(file), false, r.Err.Error())
				jobs = append(jobs, JobOutcome{File: file, Success: false, Err: r.Err})
				continue
			}
			d.graph.SetStatus(file, depgraph.Compiling)
			stopIntegrate := d.metrics.Record("integrate")
			changed := d.graph.Integrate(r.Value)
			stopIntegrate()
			d.contentHash[file] = stablehash.Hash(sourceByFile[file])
			if d.Config.EmitDependencies {
				if err := d.emitDependencyArtifact(file, r.Value); err != nil {
					d.Reporter.Warning("writing dependency artifact for %s: %v", stablepath.String(file), err)
				}
			}
			d.Reporter.JobFinished(stablepath.String(file), true, "")
			jobs = append(jobs, JobOutcome{File: file, Success: true})
			for _, k := range changed {
				if !changedSeen[k] {
					changedSeen[k] = true
					changedOrder = append(changedOrder, k)
				}
			}
		}

		if len(changedOrder) > 0 {
			stopFindDependents := d.metrics.Record("find_dependents")
			dependents := d.graph.FindDependents(changedOrder)
			stopFindDependents()
			for _, f := range dependents {
				enqueue(f, "queuing because of incremental dependencies")
			}
		}
		if len(queue) > 0 {
			totalJobs += len(queue)
			d.Reporter.JobsTotal(totalJobs)
		}
	}

	d.Reporter.BuildFinished()

	if d.Config.GraphPath != "" {
		if err := d.Disk.WriteFile(d.Config.GraphPath, encodeStore(d.graph, d.contentHash, CompilerVersion)); err != nil {
			return nil, fmt.Errorf("driver: persisting module graph: %w", err)
		}
	}

	var failed []stablepath.Identifier
	for _, j := range jobs {
		if !j.Success {
			failed = append(failed, j.File)
		}
	}
	return &Result{Jobs: jobs, Failed: failed}, nil
}

// emitDependencyArtifact writes fg's encoded artifact to the path named by
// file's entry in Config.OutputFileMap, if any (§6 "-emit-dependencies").
// A file absent from the map has nothing to emit; that is not an error.
func (d *Driver) emitDependencyArtifact(file stablepath.Identifier, fg *depgraph.FileGraph) error {
	entry, ok := d.Config.OutputFileMap[stablepath.String(file)]
	if !ok || entry.DependencyArtifact == "" {
		return nil
	}
	return d.Disk.WriteFile(entry.DependencyArtifact, artifact.Encode(fg, CompilerVersion))
}

// compile runs the front end for one file and assembles its FileGraph. It
// is called from worker goroutines dispatched by internal/sched; it never
// touches the driver's module graph.
func (d *Driver) compile(ctx context.Context, file stablepath.Identifier, sourceByFile map[stablepath.Identifier][]byte) (*depgraph.FileGraph, error) {
	defer d.metrics.Record("compile")()
	source, ok := sourceByFile[file]
	if !ok {
		return nil, fmt.Errorf("driver: no source provided for %s this run", stablepath.String(file))
	}
	res, err := d.Compiler.Compile(ctx, file, source)
	if err != nil {
		return nil, &frontend.CompileError{File: file, Err: err}
	}
	g := depgraph.BuildFileGraph(depgraph.NewSourceRequest(file), res.Tracker, res.Defs, res.InterfaceHash)
	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("driver: %s: %w", stablepath.String(file), err)
	}
	return g, nil
}
