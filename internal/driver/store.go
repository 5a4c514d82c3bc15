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

package driver

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/maruel/incdep/internal/artifact"
	"github.com/maruel/incdep/internal/depgraph"
	"github.com/maruel/incdep/internal/stablepath"
)

// storeMagic tags the on-disk persisted module graph, distinct from the
// per-file artifact signature: the graph store is a driver-owned container
// of artifacts plus the content hashes needed to classify dirty inputs on
// the next run, not itself a §4.6 artifact.
var storeMagic = [4]byte{'I', 'G', 'P', 'H'}

const storeVersion uint32 = 1

// encodeStore serializes every integrated file's artifact plus its
// recorded content hash into one container, in file registration order so
// re-encoding an unchanged graph reproduces the same bytes.
func encodeStore(g *depgraph.ModuleGraph, contentHash map[stablepath.Identifier]uint64, compilerVersion string) []byte {
	var files []stablepath.Identifier
	for _, f := range g.KnownFiles() {
		if g.Graph(f) != nil {
			files = append(files, f)
		}
	}
	var out bytes.Buffer
	out.Write(storeMagic[:])
	writeU32(&out, storeVersion)
	writeU32(&out, uint32(len(files)))
	for _, f := range files {
		fg := g.Graph(f)
		writeBytes(&out, []byte(stablepath.String(f)))
		writeU64(&out, contentHash[f])
		writeBytes(&out, artifact.Encode(fg, compilerVersion))
	}
	return out.Bytes()
}

// decodeStore parses a container written by encodeStore back into a fresh
// ModuleGraph (via Integrate, one file at a time) plus the content-hash
// index the driver uses to classify dirty inputs.
func decodeStore(data []byte) (*depgraph.ModuleGraph, map[stablepath.Identifier]uint64, error) {
	if len(data) < 4 || !bytes.Equal(data[:4], storeMagic[:]) {
		return nil, nil, fmt.Errorf("driver: graph store: bad signature")
	}
	r := bytes.NewReader(data[4:])
	var version uint32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, nil, fmt.Errorf("driver: graph store: truncated version: %w", err)
	}
	if version != storeVersion {
		return nil, nil, fmt.Errorf("driver: graph store: unsupported version %d", version)
	}
	var count uint32
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, nil, fmt.Errorf("driver: graph store: truncated count: %w", err)
	}

	graph := depgraph.NewModuleGraph()
	hashes := map[stablepath.Identifier]uint64{}
	for i := uint32(0); i < count; i++ {
		nameBytes, err := readBytes(r)
		if err != nil {
			return nil, nil, fmt.Errorf("driver: graph store: truncated file name: %w", err)
		}
		file := stablepath.Intern(string(nameBytes))
		hash, err := readU64(r)
		if err != nil {
			return nil, nil, fmt.Errorf("driver: graph store: truncated content hash: %w", err)
		}
		artifactBytes, err := readBytes(r)
		if err != nil {
			return nil, nil, fmt.Errorf("driver: graph store: truncated artifact: %w", err)
		}
		fg, err := artifact.Decode(artifactBytes)
		if err != nil {
			return nil, nil, fmt.Errorf("driver: graph store: %s: %w", stablepath.String(file), err)
		}
		graph.Integrate(fg)
		hashes[file] = hash
	}
	return graph, hashes, nil
}

func writeU32(w *bytes.Buffer, v uint32) { binary.Write(w, binary.LittleEndian, v) }
func writeU64(w *bytes.Buffer, v uint64) { binary.Write(w, binary.LittleEndian, v) }

func writeBytes(w *bytes.Buffer, b []byte) {
	writeU32(w, uint32(len(b)))
	w.Write(b)
}

func readU64(r *bytes.Reader) (uint64, error) {
	var v uint64
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	var n uint32
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if n > 0 {
		if _, err := r.Read(b); err != nil {
			return nil, err
		}
	}
	return b, nil
}
