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

// Package artifact is the tagged-record binary codec (C6) for the
// per-file dependency artifact: signature, version metadata, an
// identifier table, and a bit-packed sequence of node/external records.
package artifact

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/maruel/incdep/internal/depgraph"
	"github.com/maruel/incdep/internal/stablepath"
)

// Signature is the 4-byte magic every artifact starts with.
var Signature = [4]byte{'D', 'D', 'E', 'P'}

// CurrentMajor/CurrentMinor are the canonical artifact version constants,
// established once at process start and never mutated afterward.
const (
	CurrentMajor uint16 = 1
	CurrentMinor uint16 = 0
)

const (
	recordNode     = 0
	recordFinger   = 1
	recordExternal = 2
	recordEnd      = 3
)

// DecodeError reports a malformed artifact. The caller treats the file
// as missing and falls back to a full rebuild of that unit.
type DecodeError struct{ Msg string }

func (e *DecodeError) Error() string { return "artifact: decode error: " + e.Msg }

// Encode serializes g into the §4.6 wire format. Nodes are written in a
// canonical, deterministically sorted order so that re-encoding a decoded
// graph is byte-identical.
func Encode(g *depgraph.FileGraph, compilerVersion string) []byte {
	recs := canonicalNodeOrder(g)

	interner := newCollector()
	interner.add(g.File)
	for _, r := range recs {
		interner.add(r.node.Key.Context)
		interner.add(r.node.Key.Name)
		if r.node.ArtifactPath != nil {
			interner.add(*r.node.ArtifactPath)
		}
	}
	for _, e := range g.Externals {
		interner.add(e)
	}

	var out bytes.Buffer
	out.Write(Signature[:])

	writeU16(&out, CurrentMajor)
	writeU16(&out, CurrentMinor)
	writeBytes(&out, []byte(compilerVersion))
	writeU32(&out, interner.indexOf(g.File))
	writeU64(&out, g.InterfaceHash)

	writeU32(&out, uint32(len(interner.order)))
	for _, id := range interner.order {
		writeBytes(&out, []byte(stablepath.String(id)))
	}

	bw := &bitWriter{}
	for _, r := range recs {
		n := r.node
		bw.WriteBits(recordNode, 2)
		bw.WriteBits(uint64(n.Key.Kind), 3)
		bw.WriteBits(uint64(n.Key.Aspect), 1)
		bw.WriteVBR(uint64(interner.indexOf(n.Key.Context)), 13)
		bw.WriteVBR(uint64(interner.indexOf(n.Key.Name)), 13)
		if n.Provides {
			bw.WriteBits(1, 1)
		} else {
			bw.WriteBits(0, 1)
		}
		if n.ArtifactPath != nil {
			bw.WriteBits(1, 1)
			// The node's own artifact-path identifier, never context/name
			// (a historical encoder swapped these; do not repeat that bug).
			bw.WriteVBR(uint64(interner.indexOf(*n.ArtifactPath)), 13)
		} else {
			bw.WriteBits(0, 1)
		}
		if !n.Provides {
			if r.cascades {
				bw.WriteBits(1, 1)
			} else {
				bw.WriteBits(0, 1)
			}
		}
		if n.Fingerprint != nil {
			bw.WriteBits(recordFinger, 2)
			bw.WriteBits(*n.Fingerprint&0xffffffff, 32)
			bw.WriteBits(*n.Fingerprint>>32, 32)
		}
	}
	for _, e := range g.Externals {
		bw.WriteBits(recordExternal, 2)
		bw.WriteVBR(uint64(interner.indexOf(e)), 13)
	}
	bw.WriteBits(recordEnd, 2)

	out.Write(bw.Flush())
	return out.Bytes()
}

// Decode parses the §4.6 wire format back into a FileGraph. Unknown
// majors are rejected; newer minors within the same major are accepted.
func Decode(data []byte) (*depgraph.FileGraph, error) {
	if len(data) < 4 || !bytes.Equal(data[:4], Signature[:]) {
		return nil, &DecodeError{Msg: "bad signature"}
	}
	r := bytes.NewReader(data[4:])

	var major, minor uint16
	if err := binary.Read(r, binary.LittleEndian, &major); err != nil {
		return nil, &DecodeError{Msg: "truncated metadata: " + err.Error()}
	}
	if err := binary.Read(r, binary.LittleEndian, &minor); err != nil {
		return nil, &DecodeError{Msg: "truncated metadata: " + err.Error()}
	}
	if major != CurrentMajor {
		return nil, &DecodeError{Msg: fmt.Sprintf("unsupported major version %d", major)}
	}
	if _, err := readBytes(r); err != nil { // compiler_version, unused by decode
		return nil, &DecodeError{Msg: "truncated compiler_version: " + err.Error()}
	}
	fileIdx, err := readU32(r)
	if err != nil {
		return nil, &DecodeError{Msg: "truncated file identifier: " + err.Error()}
	}
	ifaceHash, err := readU64(r)
	if err != nil {
		return nil, &DecodeError{Msg: "truncated interface hash: " + err.Error()}
	}

	identCount, err := readU32(r)
	if err != nil {
		return nil, &DecodeError{Msg: "truncated identifier count: " + err.Error()}
	}
	idents := make([]stablepath.Identifier, identCount+1) // index 0 = empty
	for i := uint32(1); i <= identCount; i++ {
		b, err := readBytes(r)
		if err != nil {
			return nil, &DecodeError{Msg: "truncated identifier table: " + err.Error()}
		}
		idents[i] = stablepath.Intern(string(b))
	}
	resolve := func(idx uint32) (stablepath.Identifier, error) {
		if idx >= uint32(len(idents)) {
			return stablepath.Identifier{}, &DecodeError{Msg: "identifier index out of range"}
		}
		return idents[idx], nil
	}

	file, err := resolve(fileIdx)
	if err != nil {
		return nil, err
	}

	rest := data[len(data)-r.Len():]
	br := newBitReader(rest)

	g := &depgraph.FileGraph{File: file, InterfaceHash: ifaceHash}
	for {
		tag, err := br.ReadBits(2)
		if err != nil {
			return nil, &DecodeError{Msg: "truncated record stream: " + err.Error()}
		}
		switch tag {
		case recordNode:
			kind, err := br.ReadBits(3)
			if err != nil {
				return nil, &DecodeError{Msg: err.Error()}
			}
			aspect, err := br.ReadBits(1)
			if err != nil {
				return nil, &DecodeError{Msg: err.Error()}
			}
			contextIdx, err := br.ReadVBR(13)
			if err != nil {
				return nil, &DecodeError{Msg: err.Error()}
			}
			nameIdx, err := br.ReadVBR(13)
			if err != nil {
				return nil, &DecodeError{Msg: err.Error()}
			}
			provides, err := br.ReadBits(1)
			if err != nil {
				return nil, &DecodeError{Msg: err.Error()}
			}
			hasArtifact, err := br.ReadBits(1)
			if err != nil {
				return nil, &DecodeError{Msg: err.Error()}
			}
			var artifactPath *stablepath.Identifier
			if hasArtifact == 1 {
				idx, err := br.ReadVBR(13)
				if err != nil {
					return nil, &DecodeError{Msg: err.Error()}
				}
				id, err := resolve(uint32(idx))
				if err != nil {
					return nil, err
				}
				artifactPath = &id
			}
			var cascades uint64
			if provides == 0 {
				cascades, err = br.ReadBits(1)
				if err != nil {
					return nil, &DecodeError{Msg: err.Error()}
				}
			}
			context, err := resolve(uint32(contextIdx))
			if err != nil {
				return nil, err
			}
			name, err := resolve(uint32(nameIdx))
			if err != nil {
				return nil, err
			}
			key := depgraph.DepKey{
				Kind:    depgraph.NodeKind(kind),
				Aspect:  depgraph.Aspect(aspect),
				Context: context,
				Name:    name,
			}
			node := depgraph.Node{Key: key, Provides: provides == 1, ArtifactPath: artifactPath}
			idx := len(g.Nodes)
			g.Nodes = append(g.Nodes, node)
			if provides == 0 {
				g.Arcs = append(g.Arcs, depgraph.Arc{UseIdx: idx, Def: key, Cascades: cascades == 1})
			}
		case recordFinger:
			lo, err := br.ReadBits(32)
			if err != nil {
				return nil, &DecodeError{Msg: err.Error()}
			}
			hi, err := br.ReadBits(32)
			if err != nil {
				return nil, &DecodeError{Msg: err.Error()}
			}
			v := lo | hi<<32
			if len(g.Nodes) == 0 {
				return nil, &DecodeError{Msg: "FINGERPRINT record with no preceding NODE"}
			}
			g.Nodes[len(g.Nodes)-1].Fingerprint = &v
		case recordExternal:
			idx, err := br.ReadVBR(13)
			if err != nil {
				return nil, &DecodeError{Msg: err.Error()}
			}
			id, err := resolve(uint32(idx))
			if err != nil {
				return nil, err
			}
			g.Externals = append(g.Externals, id)
		case recordEnd:
			return g, nil
		default:
			return nil, &DecodeError{Msg: "unknown record tag"}
		}
	}
}

func writeU16(w *bytes.Buffer, v uint16) { binary.Write(w, binary.LittleEndian, v) }
func writeU32(w *bytes.Buffer, v uint32) { binary.Write(w, binary.LittleEndian, v) }
func writeU64(w *bytes.Buffer, v uint64) { binary.Write(w, binary.LittleEndian, v) }

func writeBytes(w *bytes.Buffer, b []byte) {
	writeU32(w, uint32(len(b)))
	w.Write(b)
}

func readU32(r *bytes.Reader) (uint32, error) {
	var v uint32
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readU64(r *bytes.Reader) (uint64, error) {
	var v uint64
	err := binary.Read(r, binary.LittleEndian, &v)
	return v, err
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	n, err := readU32(r)
	if err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err := r.Read(b); err != nil && n > 0 {
		return nil, err
	}
	return b, nil
}
