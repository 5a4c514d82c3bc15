// Copyright 2021 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/maruel/incdep/internal/config"
	"github.com/maruel/incdep/internal/disk"
	"github.com/maruel/incdep/internal/driver"
	"github.com/maruel/incdep/internal/editdist"
	"github.com/maruel/incdep/internal/frontend/fixture"
	"github.com/maruel/incdep/internal/stablepath"
	"github.com/maruel/incdep/internal/status"
	"github.com/maruel/incdep/internal/verify"
	"github.com/maruel/incdep/internal/watch"
)

// Command-line options that do not belong on config.Config itself: paths
// and the verbosity/watch toggles that get folded into Config during
// readFlags.
type options struct {
	outputFileMap string
	graphPath     string
	watch         bool
	verbose       bool
	quiet         bool
	stats         bool
}

// debugEnable parses the -d flag's value, mirroring the teacher's
// cmd/nin/ninja.go debugEnable: "list" prints the known modes and exits,
// an unknown mode reports an edit-distance suggestion, and a known mode
// flips the matching option. "stats" is this repository's only mode today
// (the teacher also carries explain/keepdepfile/keeprsp/nostatcache, which
// are ninja-manifest-specific and have no analog here).
func debugEnable(name string, opts *options) bool {
	switch name {
	case "list":
		fmt.Printf("debugging modes:\n  stats  print per-code-path timing info at build end\n")
		return false
	case "stats":
		opts.stats = true
		return true
	default:
		msg := fmt.Sprintf("unknown debug setting %q", name)
		if s := editdist.Suggest(name, []string{"list", "stats"}); s != "" {
			msg += fmt.Sprintf(", did you mean %q?", s)
		}
		fmt.Fprintln(os.Stderr, msg)
		return false
	}
}

// Choose a default value for the -j (parallelism) flag.
func guessParallelism() int {
	switch processors := runtime.NumCPU(); processors {
	case 0, 1:
		return 2
	case 2:
		return 3
	default:
		return processors + 2
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: incdep [options] [files...]\n\n")
	fmt.Fprintf(os.Stderr, "compiles each file and maintains its incremental dependency graph.\n\n")
	flag.PrintDefaults()
}

func readFlags(opts *options, cfg *config.Config) int {
	flag.BoolVar(&cfg.Incremental, "incremental", false, "enable the incremental driver loop")
	flag.BoolVar(&cfg.EmitDependencies, "emit-dependencies", false, "write a dependency artifact for each successful job")
	flag.BoolVar(&cfg.ShowIncremental, "driver-show-incremental", false, "log, per job, why it was queued")
	flag.BoolVar(&cfg.ShowJobLifecycle, "driver-show-job-lifecycle", false, "log job start/finish events")
	flag.StringVar(&opts.outputFileMap, "output-file-map", "", "path to the output file map")
	flag.BoolVar(&cfg.VerifyIncrementalDependencies, "verify-incremental-dependencies", false, "run the dependency verifier instead of a build")
	flag.BoolVar(&cfg.EnableCrossModuleIncrementalBuild, "enable-experimental-cross-module-incremental-build", false, "enable external (cross-module) incremental invalidation")

	// Additive, not in the distilled CLI surface (SPEC_FULL.md §6).
	flag.BoolVar(&opts.watch, "watch", false, "keep the driver alive, re-running on source-tree changes")

	flag.StringVar(&opts.graphPath, "graph", ".incdep-graph", "path to the persisted module graph")
	flag.IntVar(&cfg.Parallelism, "j", guessParallelism(), "run N jobs in parallel")
	flag.BoolVar(&opts.verbose, "v", false, "show verbose driver output")
	flag.BoolVar(&opts.quiet, "quiet", false, "don't show progress status")
	dbgEnable := flag.String("d", "", "enable debugging (use '-d list' to list modes)")

	flag.Usage = usage
	flag.Parse()

	if opts.verbose && opts.quiet {
		fmt.Fprintf(os.Stderr, "can't use both -v and --quiet\n")
		return 2
	}
	if opts.verbose {
		cfg.Verbosity = config.Verbose
	}
	if opts.quiet {
		cfg.Verbosity = config.Quiet
	}
	if *dbgEnable != "" {
		if !debugEnable(*dbgEnable, opts) {
			return 1
		}
	}
	cfg.GraphPath = opts.graphPath
	cfg.Watch = opts.watch
	return -1
}

func loadOutputFileMap(d disk.Interface, path string) (map[string]config.OutputFileMap, error) {
	out := map[string]config.OutputFileMap{}
	if path == "" {
		return out, nil
	}
	data, err := d.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("output file map: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("output file map: %w", err)
	}
	return out, nil
}

func Main() int {
	cfg := config.New()
	opts := options{}
	exitCode := readFlags(&opts, &cfg)
	if exitCode >= 0 {
		return exitCode
	}

	files := flag.Args()
	if len(files) == 0 {
		fatalf("no input files")
	}

	d := disk.NewRealDisk()

	ofm, err := loadOutputFileMap(d, opts.outputFileMap)
	if err != nil {
		errorf("%v", err)
		return 1
	}
	cfg.OutputFileMap = ofm

	if !cfg.Incremental {
		// Without the loop of §4.7 there is nothing to resume from or
		// persist: every input is compiled fresh every run.
		cfg.GraphPath = ""
	}

	compiler := fixture.Compiler{}

	if cfg.VerifyIncrementalDependencies {
		return runVerify(compiler, d, files)
	}

	reporter := status.NewPrinter(cfg.Verbosity == config.Quiet)
	drv := driver.New(cfg, d, compiler, reporter)
	if cfg.Incremental {
		if err := drv.Load(); err != nil {
			errorf("loading module graph: %v", err)
			return 1
		}
	}

	ctx := context.Background()
	if opts.watch {
		return runWatch(ctx, drv, d, files, opts.stats)
	}
	return runOnce(ctx, drv, d, files, opts.stats)
}

func readInputs(d disk.Interface, files []string) ([]driver.Input, error) {
	inputs := make([]driver.Input, 0, len(files))
	for _, f := range files {
		source, err := d.ReadFile(f)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		inputs = append(inputs, driver.Input{File: stablepath.Intern(f), Source: source})
	}
	return inputs, nil
}

func runOnce(ctx context.Context, drv *driver.Driver, d disk.Interface, files []string, stats bool) int {
	inputs, err := readInputs(d, files)
	if err != nil {
		errorf("%v", err)
		return 1
	}
	res, err := drv.Run(ctx, inputs, nil)
	if stats {
		if err := drv.ReportMetrics(os.Stdout); err != nil {
			warningf("writing metrics report: %v", err)
		}
	}
	if err != nil {
		errorf("%v", err)
		return 1
	}
	for _, j := range res.Jobs {
		if !j.Success {
			errorf("%s: %v", stablepath.String(j.File), j.Err)
		}
	}
	if !res.OK() {
		return 1
	}
	return 0
}

func runVerify(compiler fixture.Compiler, d disk.Interface, files []string) int {
	ctx := context.Background()
	failed := false
	for _, f := range files {
		source, err := d.ReadFile(f)
		if err != nil {
			errorf("reading %s: %v", f, err)
			failed = true
			continue
		}
		diags, err := verify.Verify(ctx, compiler, stablepath.Intern(f), source)
		if err != nil {
			errorf("%s: %v", f, err)
			failed = true
			continue
		}
		for _, diag := range diags {
			infof("%s: %s", f, diag.Message)
			failed = true
		}
	}
	if failed {
		return 1
	}
	return 0
}

// runWatch keeps the driver alive, re-running the §4.7 loop once per
// debounced burst of filesystem activity under any input's directory
// (SPEC_FULL.md §6, additive -watch flag). It never returns except on a
// watcher setup failure: the caller's os.Exit(Main()) wrapper only sees
// a normal exit on signal (SIGINT/SIGTERM), handled by the runtime default.
func runWatch(ctx context.Context, drv *driver.Driver, d disk.Interface, files []string, stats bool) int {
	dirs := map[string]bool{}
	for _, f := range files {
		dirs[filepath.Dir(f)] = true
	}
	var roots []string
	for dir := range dirs {
		roots = append(roots, dir)
	}

	w, err := watch.New(roots)
	if err != nil {
		errorf("starting watcher: %v", err)
		return 1
	}
	defer w.Stop()
	go w.Run()

	if runOnce(ctx, drv, d, files, stats) != 0 {
		warningf("initial build failed")
	}
	for {
		select {
		case <-w.Changes():
			infof("rebuilding")
			if runOnce(ctx, drv, d, files, stats) != 0 {
				warningf("build failed")
			}
		case err := <-w.Errors():
			warningf("watch error: %v", err)
		}
	}
}
