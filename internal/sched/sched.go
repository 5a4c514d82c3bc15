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

// Package sched dispatches compile jobs at bounded parallelism and
// reports each one's outcome back to its single owning goroutine over a
// channel, the same division of labor the manifest parser uses for its
// subninja goroutines: workers never touch shared state directly, they
// only ever produce a result value.
package sched

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Result is one job's outcome, paired with the item that produced it so
// the receiving goroutine can tell which job just finished.
type Result[T, V any] struct {
	Item  T
	Value V
	Err   error
}

// Run dispatches work(item) for every item in items at up to
// parallelism concurrent goroutines, and returns one Result per item on
// the returned channel, in completion order (not submission order). The
// channel is closed once every job has reported.
//
// A single failing job does not cancel the others: Run has no partial-
// failure semantics of its own, that policy belongs to the caller (the
// driver keeps a failed file dirty and lets its siblings continue).
func Run[T, V any](ctx context.Context, parallelism int, items []T, work func(context.Context, T) (V, error)) <-chan Result[T, V] {
	out := make(chan Result[T, V], len(items))
	if len(items) == 0 {
		close(out)
		return out
	}

	var g errgroup.Group
	g.SetLimit(parallelism)

	for _, item := range items {
		item := item
		g.Go(func() error {
			v, err := work(ctx, item)
			out <- Result[T, V]{Item: item, Value: v, Err: err}
			return nil // job errors are reported via the channel, never abort siblings
		})
	}

	go func() {
		g.Wait()
		close(out)
	}()
	return out
}
