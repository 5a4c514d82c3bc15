// Copyright 2016 Google Inc. All Rights Reserved.
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

// Package status tracks and prints the progress of one incremental
// build: completion fraction, per-job start/finish events, and leveled
// messages.
package status

import (
	"fmt"
	"sync"

	"github.com/pterm/pterm"
)

// Reporter is the abstract interface the driver reports progress
// through. Implementations may be silent (quiet builds), a terminal
// progress bar, or a test double recording every call.
type Reporter interface {
	JobsTotal(n int)
	JobStarted(file string)
	JobFinished(file string, success bool, reason string)
	BuildStarted()
	BuildFinished()

	Info(format string, args ...interface{})
	Warning(format string, args ...interface{})
	Error(format string, args ...interface{})
}

// Printer is the terminal-backed Reporter: a pterm progress bar plus
// pterm's leveled print styles for messages.
type Printer struct {
	mu sync.Mutex

	quiet    bool
	bar      *pterm.ProgressbarPrinter
	total    int
	started  int
	finished int
}

// NewPrinter returns a Printer. quiet suppresses the progress bar (but
// not Warning/Error messages), mirroring the teacher's QUIET verbosity.
func NewPrinter(quiet bool) *Printer {
	return &Printer{quiet: quiet}
}

func (p *Printer) JobsTotal(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.total = n
}

func (p *Printer) BuildStarted() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started, p.finished = 0, 0
	if p.quiet {
		return
	}
	bar, err := pterm.DefaultProgressbar.WithTotal(p.total).WithTitle("compiling").Start()
	if err == nil {
		p.bar = bar
	}
}

func (p *Printer) JobStarted(file string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started++
}

func (p *Printer) JobFinished(file string, success bool, reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.finished++
	if p.bar != nil {
		p.bar.Increment()
	}
	if !success {
		pterm.Error.Printfln("FAILED: %s: %s", file, reason)
	}
}

func (p *Printer) BuildFinished() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.bar != nil {
		p.bar.Stop()
		p.bar = nil
	}
}

func (p *Printer) Info(format string, args ...interface{})    { pterm.Info.Printfln(format, args...) }
func (p *Printer) Warning(format string, args ...interface{}) { pterm.Warning.Printfln(format, args...) }
func (p *Printer) Error(format string, args ...interface{})   { pterm.Error.Printfln(format, args...) }

// Recorder is a test-only Reporter: it records every call instead of
// printing, so driver tests can assert on job lifecycle without a
// terminal.
type Recorder struct {
	mu       sync.Mutex
	Events   []string
	Total    int
	Infos    []string
	Errors   []string
	Warnings []string
}

func NewRecorder() *Recorder { return &Recorder{} }

func (r *Recorder) JobsTotal(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Total = n
}

func (r *Recorder) JobStarted(file string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, "start:"+file)
}

func (r *Recorder) JobFinished(file string, success bool, reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	status := "ok"
	if !success {
		status = "fail"
	}
	r.Events = append(r.Events, fmt.Sprintf("finish:%s:%s:%s", file, status, reason))
}

func (r *Recorder) BuildStarted() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, "build-started")
}

func (r *Recorder) BuildFinished() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, "build-finished")
}

func (r *Recorder) Info(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Infos = append(r.Infos, fmt.Sprintf(format, args...))
}

func (r *Recorder) Warning(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

func (r *Recorder) Error(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}
