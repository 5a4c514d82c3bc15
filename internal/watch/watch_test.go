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

package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWatcher_SignalsOnFileWrite(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	w.Debounce = 10 * time.Millisecond
	defer w.Stop()
	go w.Run()

	path := filepath.Join(dir, "a.txt")
	if err := os.WriteFile(path, []byte("hello"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	select {
	case <-w.Changes():
	case err := <-w.Errors():
		t.Fatalf("unexpected watcher error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for a change signal")
	}
}

func TestWatcher_StopClosesRunLoop(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	doneCh := make(chan struct{})
	go func() {
		w.Run()
		close(doneCh)
	}()
	if err := w.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	select {
	case <-doneCh:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Stop")
	}
}
