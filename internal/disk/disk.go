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

// Package disk abstracts the filesystem operations the driver needs:
// reading source files, and atomically writing artifacts and the
// persisted module graph. Abstract so it can be faked in tests; the
// real implementation is RealDisk.
package disk

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrNotFound is returned by ReadFile when the path does not exist.
var ErrNotFound = errors.New("disk: not found")

// Interface is the filesystem surface the driver depends on.
type Interface interface {
	// ReadFile returns the full contents of path, or ErrNotFound.
	ReadFile(path string) ([]byte, error)

	// WriteFile atomically replaces path's contents with data: the bytes
	// are written to a temporary file in the same directory and renamed
	// into place, so a crash or concurrent reader never observes a
	// partially written artifact.
	WriteFile(path string, data []byte) error

	// MakeDirs creates every missing parent directory of path, like
	// `mkdir -p $(dirname path)`.
	MakeDirs(path string) error
}

// RealDisk implements Interface against the host filesystem.
type RealDisk struct{}

// NewRealDisk returns the real, disk-backed implementation.
func NewRealDisk() RealDisk { return RealDisk{} }

func (RealDisk) ReadFile(path string) ([]byte, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (RealDisk) WriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o777); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

func (RealDisk) MakeDirs(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o777)
}

// Fake is an in-memory Interface for tests: no real filesystem access,
// deterministic, and safe to inspect directly after a driver run.
type Fake struct {
	Files map[string][]byte
}

// NewFake returns an empty in-memory filesystem.
func NewFake() *Fake { return &Fake{Files: map[string][]byte{}} }

func (f *Fake) ReadFile(path string) ([]byte, error) {
	b, ok := f.Files[path]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), b...), nil
}

func (f *Fake) WriteFile(path string, data []byte) error {
	f.Files[path] = append([]byte(nil), data...)
	return nil
}

func (f *Fake) MakeDirs(path string) error { return nil }
