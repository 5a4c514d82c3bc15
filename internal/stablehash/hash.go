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

// Package stablehash is a deterministic, process- and platform-independent
// streaming 64-bit hash used to fingerprint declarations and source-file
// interfaces. It must never depend on pointer values, map iteration order,
// or host endianness: the same byte sequence always finalizes to the same
// value.
package stablehash

import "math/bits"

// Fixed SipHash-2-4 key. Unlike a general-purpose hash table seed, this must
// be a process-wide constant: two runs hashing the same bytes must agree.
const (
	seedK0 uint64 = 0x0f0f0f0f0f0f0f0f
	seedK1 uint64 = 0x8585858585858585
)

// Hasher is a streaming SipHash-2-4-style hash. The zero value is not
// valid; use New.
//
// The state keeps the pending tail bytes (tail, tailLen) and the true byte
// count (total) in separate fields; TailAndByteCount packs them on demand
// as (count<<56 | tail), where count is a saturating byte count and tail
// holds the bytes not yet folded into a compression block. Pointer and
// reference types cannot be absorbed: Combine only
// accepts []byte, so there is no type-level way to hash an address.
type Hasher struct {
	v0, v1, v2, v3 uint64

	tail    [8]byte
	tailLen int
	total   uint64
}

// New returns a fresh hasher seeded with the fixed process-wide key.
func New() Hasher {
	return Hasher{
		v0: 0x736f6d6570736575 ^ seedK0,
		v1: 0x646f72616e646f6d ^ seedK1,
		v2: 0x6c7967656e657261 ^ seedK0,
		v3: 0x7465646279746573 ^ seedK1,
	}
}

// TailAndByteCount exposes the packed (count, tail) state described by the
// streaming contract. count saturates at 0xff; it is diagnostic only, the
// hasher itself tracks the true byte count separately for correctness.
func (h *Hasher) TailAndByteCount() uint64 {
	count := h.total
	if count > 0xff {
		count = 0xff
	}
	var tail uint64
	for i := 0; i < h.tailLen; i++ {
		tail |= uint64(h.tail[i]) << (8 * i)
	}
	return (count << 56) | (tail & 0x00ffffffffffffff)
}

func sipRound(v0, v1, v2, v3 uint64) (uint64, uint64, uint64, uint64) {
	v0 += v1
	v1 = bits.RotateLeft64(v1, 13)
	v1 ^= v0
	v0 = bits.RotateLeft64(v0, 32)
	v2 += v3
	v3 = bits.RotateLeft64(v3, 16)
	v3 ^= v2
	v0 += v3
	v3 = bits.RotateLeft64(v3, 21)
	v3 ^= v0
	v2 += v1
	v1 = bits.RotateLeft64(v1, 17)
	v1 ^= v2
	v2 = bits.RotateLeft64(v2, 32)
	return v0, v1, v2, v3
}

func (h *Hasher) compress(m uint64) {
	h.v3 ^= m
	h.v0, h.v1, h.v2, h.v3 = sipRound(h.v0, h.v1, h.v2, h.v3)
	h.v0, h.v1, h.v2, h.v3 = sipRound(h.v0, h.v1, h.v2, h.v3)
	h.v0 ^= m
}

// Combine absorbs bytes into the hasher. It fills the head of the pending
// tail, compresses a block the moment 8 bytes are available, and spills
// any overflow into the next tail -- the splitting discipline required by
// the streaming contract.
func (h *Hasher) Combine(b []byte) {
	h.total += uint64(len(b))
	for len(b) > 0 {
		n := 8 - h.tailLen
		if n > len(b) {
			n = len(b)
		}
		copy(h.tail[h.tailLen:], b[:n])
		h.tailLen += n
		b = b[n:]
		if h.tailLen == 8 {
			h.compress(leUint64(h.tail[:]))
			h.tailLen = 0
		}
	}
}

// CombineByte absorbs a single byte.
func (h *Hasher) CombineByte(b byte) { h.Combine([]byte{b}) }

// CombineUint64 absorbs the little-endian bytes of v.
func (h *Hasher) CombineUint64(v uint64) {
	var buf [8]byte
	putLeUint64(buf[:], v)
	h.Combine(buf[:])
}

// CombineString absorbs the raw bytes of s.
func (h *Hasher) CombineString(s string) { h.Combine([]byte(s)) }

// CombineRange absorbs each chunk in order -- the aggregate-type combiner:
// every component is folded in declared order, not as a set.
func (h *Hasher) CombineRange(chunks [][]byte) {
	for _, c := range chunks {
		h.Combine(c)
	}
}

// CombineSequence absorbs a zero marker byte followed by calling elem(i)
// for i in [0, n). An empty sequence still absorbs the marker byte, so
// an empty slice and an absent field never collide.
func (h *Hasher) CombineSequence(n int, elem func(i int)) {
	h.CombineByte(0)
	for i := 0; i < n; i++ {
		elem(i)
	}
}

// Finalize folds the trailing length block, runs the SipHash finalization
// rounds, and consumes the hasher: it must not be used again.
func (h *Hasher) Finalize() uint64 {
	var last [8]byte
	copy(last[:], h.tail[:h.tailLen])
	last[7] = byte(h.total)
	h.compress(leUint64(last[:]))

	h.v2 ^= 0xff
	for i := 0; i < 4; i++ {
		h.v0, h.v1, h.v2, h.v3 = sipRound(h.v0, h.v1, h.v2, h.v3)
	}
	return h.v0 ^ h.v1 ^ h.v2 ^ h.v3
}

func leUint64(b []byte) uint64 {
	_ = b[7]
	return uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24 |
		uint64(b[4])<<32 | uint64(b[5])<<40 | uint64(b[6])<<48 | uint64(b[7])<<56
}

func putLeUint64(b []byte, v uint64) {
	_ = b[7]
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
	b[3] = byte(v >> 24)
	b[4] = byte(v >> 32)
	b[5] = byte(v >> 40)
	b[6] = byte(v >> 48)
	b[7] = byte(v >> 56)
}

// Hash is a convenience one-shot hash of a single byte sequence.
func Hash(b []byte) uint64 {
	h := New()
	h.Combine(b)
	return h.Finalize()
}
