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

// Package metrics is the debug-mode timing report: a named counter of
// call count and total duration per code path, dumped as a table at the
// end of a build. It is not a monitoring system -- there is no export,
// no labels, no time series -- just enough to answer "where did the
// incremental build spend its time" for one run.
package metrics

import (
	"fmt"
	"io"
	"sort"
	"sync"
	"time"
)

// Metric is one named code path being timed.
type Metric struct {
	name  string
	count int
	sum   time.Duration
}

// Registry owns every Metric created through it. The zero value is
// ready to use; concurrent Record calls across driver worker goroutines
// are safe.
type Registry struct {
	mu      sync.Mutex
	metrics map[string]*Metric
	order   []string
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{metrics: map[string]*Metric{}}
}

func (r *Registry) metric(name string) *Metric {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.metrics == nil {
		r.metrics = map[string]*Metric{}
	}
	m, ok := r.metrics[name]
	if !ok {
		m = &Metric{name: name}
		r.metrics[name] = m
		r.order = append(r.order, name)
	}
	return m
}

// Record starts timing name and returns a func to stop it, meant to be
// deferred at the top of the measured function:
//
//	defer reg.Record("integrate")()
func (r *Registry) Record(name string) func() {
	m := r.metric(name)
	start := time.Now()
	return func() {
		dt := time.Since(start)
		r.mu.Lock()
		m.count++
		m.sum += dt
		r.mu.Unlock()
	}
}

// Report writes a summary table to w, one row per metric sorted by name,
// with the name column padded to the widest name.
func (r *Registry) Report(w io.Writer) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := append([]string(nil), r.order...)
	sort.Strings(names)

	width := len("metric")
	for _, n := range names {
		if len(n) > width {
			width = len(n)
		}
	}

	if _, err := fmt.Fprintf(w, "%-*s\t%-6s\t%-9s\t%s\n", width, "metric", "count", "avg (us)", "total (ms)"); err != nil {
		return err
	}
	for _, n := range names {
		m := r.metrics[n]
		var avgMicros float64
		if m.count > 0 {
			avgMicros = float64(m.sum.Microseconds()) / float64(m.count)
		}
		totalMillis := float64(m.sum.Microseconds()) / 1000
		if _, err := fmt.Fprintf(w, "%-*s\t%-6d\t%-8.1f\t%.1f\n", width, m.name, m.count, avgMicros, totalMillis); err != nil {
			return err
		}
	}
	return nil
}
