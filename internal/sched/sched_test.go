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

package sched

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
)

func TestRun_AllItemsReported(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	out := Run(context.Background(), 2, items, func(ctx context.Context, i int) (int, error) {
		return i * i, nil
	})

	seen := map[int]int{}
	for r := range out {
		if r.Err != nil {
			t.Fatalf("unexpected error for item %d: %v", r.Item, r.Err)
		}
		seen[r.Item] = r.Value
	}
	if len(seen) != len(items) {
		t.Fatalf("got %d results, want %d", len(seen), len(items))
	}
	for _, i := range items {
		if seen[i] != i*i {
			t.Fatalf("item %d: got %d, want %d", i, seen[i], i*i)
		}
	}
}

func TestRun_EmptyInputClosesImmediately(t *testing.T) {
	out := Run(context.Background(), 4, []int{}, func(ctx context.Context, i int) (int, error) { return i, nil })
	n := 0
	for range out {
		n++
	}
	if n != 0 {
		t.Fatalf("expected no results for empty input, got %d", n)
	}
}

func TestRun_OneFailureDoesNotStopSiblings(t *testing.T) {
	items := []int{1, 2, 3}
	out := Run(context.Background(), 3, items, func(ctx context.Context, i int) (int, error) {
		if i == 2 {
			return 0, errors.New("boom")
		}
		return i, nil
	})

	var ok, failed int32
	for r := range out {
		if r.Err != nil {
			atomic.AddInt32(&failed, 1)
		} else {
			atomic.AddInt32(&ok, 1)
		}
	}
	if failed != 1 || ok != 2 {
		t.Fatalf("ok=%d failed=%d, want ok=2 failed=1", ok, failed)
	}
}

func TestRun_RespectsParallelismLimit(t *testing.T) {
	var current, max int32
	items := make([]int, 20)
	for i := range items {
		items[i] = i
	}
	out := Run(context.Background(), 3, items, func(ctx context.Context, i int) (int, error) {
		n := atomic.AddInt32(&current, 1)
		for {
			m := atomic.LoadInt32(&max)
			if n <= m || atomic.CompareAndSwapInt32(&max, m, n) {
				break
			}
		}
		atomic.AddInt32(&current, -1)
		return i, nil
	})
	for range out {
	}
	if max > 3 {
		t.Fatalf("observed concurrency %d, want <= 3", max)
	}
}
