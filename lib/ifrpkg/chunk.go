// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package ifrpkg implements the chunked opcode-byte arena, the
// parallel record log, and the wire/listing serializers that back the
// IFR package builder.
package ifrpkg

import (
	"github.com/tianocore/edk2-sub023/lib/vfrdiag"
)

// DefaultChunkCapacity is the default fixed capacity of a Chunk.
const DefaultChunkCapacity = 4096

// Chunk is a fixed-capacity span of the package byte arena. Chunks
// are never reallocated in place: growth always allocates a new
// chunk and links it after the current one, so any Span previously
// handed out by Reserve stays valid for the lifetime of the buffer.
type Chunk struct {
	data []byte
	free int
	next *Chunk
	prev *Chunk
}

func newChunk(cap int) *Chunk {
	return &Chunk{data: make([]byte, cap)}
}

func (c *Chunk) len() int { return c.free }
func (c *Chunk) cap() int { return len(c.data) }

// Span is a handle to a contiguous, live range of bytes inside a
// Chunk, used everywhere a raw pointer into the arena would otherwise
// be patched or linked.
type Span struct {
	chunk *Chunk
	start int
	n     int
}

// Bytes returns the live byte slice the Span addresses. The slice
// aliases the Chunk's storage and is only valid as long as the owning
// ChunkedBuffer is not released.
func (s Span) Bytes() []byte {
	if s.chunk == nil {
		return nil
	}
	return s.chunk.data[s.start : s.start+s.n]
}

// Len is the number of bytes the Span addresses.
func (s Span) Len() int { return s.n }

// Slice returns the sub-Span addressing n bytes starting off bytes
// into s, for patching an individual field of a reserved record (e.g.
// a pending patch targeting just the question_id bytes). Returns the
// zero Span if [off, off+n) runs outside s.
func (s Span) Slice(off, n int) Span {
	if s.chunk == nil || off < 0 || n < 0 || off+n > s.n {
		return Span{}
	}
	return Span{chunk: s.chunk, start: s.start + off, n: n}
}

// ChunkedBuffer is an append-only byte arena made of fixed-capacity
// Chunks.
type ChunkedBuffer struct {
	capacity    int
	first, last *Chunk
	length      int // total used bytes across all chunks
}

// NewChunkedBuffer creates an empty ChunkedBuffer whose chunks have
// the given capacity (DefaultChunkCapacity if cap<=0).
func NewChunkedBuffer(cap int) *ChunkedBuffer {
	if cap <= 0 {
		cap = DefaultChunkCapacity
	}
	b := &ChunkedBuffer{capacity: cap}
	first := newChunk(cap)
	b.first, b.last = first, first
	return b
}

// Len is the total number of bytes reserved so far across all chunks.
func (b *ChunkedBuffer) Len() int { return b.length }

// Reserve returns n contiguous zeroed bytes, appending a fresh chunk
// if the current one lacks room. It fails only when n exceeds the
// buffer's chunk capacity.
func (b *ChunkedBuffer) Reserve(n int) (Span, error) {
	if n > b.capacity {
		return Span{}, &vfrdiag.ExhaustedError{Namespace: "ChunkedBuffer"}
	}
	if b.last.cap()-b.last.free < n {
		next := newChunk(b.capacity)
		next.prev = b.last
		b.last.next = next
		b.last = next
	}
	start := b.last.free
	b.last.free += n
	b.length += n
	return Span{chunk: b.last, start: start, n: n}, nil
}

// Read returns a copy of the n bytes starting at the package-wide
// offset, walking the chunk chain.
func (b *ChunkedBuffer) Read(offset, n int) []byte {
	out := make([]byte, 0, n)
	base := 0
	for c := b.first; c != nil && n > 0; c = c.next {
		clen := c.len()
		if offset >= base+clen {
			base += clen
			continue
		}
		start := offset - base
		if start < 0 {
			start = 0
		}
		avail := clen - start
		take := avail
		if take > n {
			take = n
		}
		out = append(out, c.data[start:start+take]...)
		n -= take
		offset += take
		base += clen
	}
	return out
}

// AddressOf returns the Span addressing the n live bytes starting at
// the package-wide offset, or the zero Span if offset+n runs past the
// end of the buffer.
func (b *ChunkedBuffer) AddressOf(offset, n int) Span {
	base := 0
	for c := b.first; c != nil; c = c.next {
		clen := c.len()
		if offset < base+clen {
			start := offset - base
			if start+n > clen {
				return Span{}
			}
			return Span{chunk: c, start: start, n: n}
		}
		base += clen
	}
	return Span{}
}

// ChunkContaining returns the chunk addressing the given package-wide
// offset, and the offset of the chunk's first byte.
func (b *ChunkedBuffer) ChunkContaining(offset int) (*Chunk, int) {
	base := 0
	for c := b.first; c != nil; c = c.next {
		clen := c.len()
		if offset < base+clen || c.next == nil {
			return c, base
		}
		base += clen
	}
	return nil, 0
}

// InsertBefore relinks so that newChunk occupies anchor's prior slot
// in the chain (used by dynamic-opcode relocation to splice rescue
// chunks into the arena).
func (b *ChunkedBuffer) InsertBefore(anchor, newChunk *Chunk) {
	newChunk.prev = anchor.prev
	newChunk.next = anchor
	if anchor.prev != nil {
		anchor.prev.next = newChunk
	} else {
		b.first = newChunk
	}
	anchor.prev = newChunk
	b.length += newChunk.len()
}

// InsertAfter relinks so that newChunk occupies the slot immediately
// after anchor.
func (b *ChunkedBuffer) InsertAfter(anchor, newChunk *Chunk) {
	newChunk.next = anchor.next
	newChunk.prev = anchor
	if anchor.next != nil {
		anchor.next.prev = newChunk
	} else {
		b.last = newChunk
	}
	anchor.next = newChunk
	b.length += newChunk.len()
}

// AppendChunk links an already-populated chunk onto the end of the
// chain, growing Len by the chunk's used length.
func (b *ChunkedBuffer) AppendChunk(c *Chunk) {
	c.prev = b.last
	b.last.next = c
	b.last = c
	b.length += c.len()
}

// NewDetachedChunk allocates a chunk not yet linked into any buffer,
// for use as a Postprocessor rescue chunk.
func (b *ChunkedBuffer) NewDetachedChunk(data []byte) *Chunk {
	c := &Chunk{data: append([]byte(nil), data...)}
	c.free = len(data)
	return c
}

// Unlink removes c from the chain without freeing it, for use when
// the Postprocessor splices a run of chunks out before reinserting
// them elsewhere.
func (b *ChunkedBuffer) Unlink(c *Chunk) {
	if c.prev != nil {
		c.prev.next = c.next
	} else {
		b.first = c.next
	}
	if c.next != nil {
		c.next.prev = c.prev
	} else {
		b.last = c.prev
	}
	b.length -= c.len()
	c.prev, c.next = nil, nil
}

// ChunkCapacity returns the fixed capacity new chunks are allocated
// with.
func (b *ChunkedBuffer) ChunkCapacity() int { return b.capacity }

// ReplaceWith swaps b's chunk chain and length for other's, used by
// Postprocessor when it rebuilds the arena after a record-log splice.
func (b *ChunkedBuffer) ReplaceWith(other *ChunkedBuffer) {
	b.first, b.last, b.length = other.first, other.last, other.length
}

// Bytes concatenates the entire chunk chain into a single slice, used
// by the Serializer and by Postprocessor's consistency check.
func (b *ChunkedBuffer) Bytes() []byte {
	out := make([]byte, 0, b.length)
	for c := b.first; c != nil; c = c.next {
		out = append(out, c.data[:c.free]...)
	}
	return out
}
