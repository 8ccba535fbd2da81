// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package ifrpkg_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tianocore/edk2-sub023/lib/ifrpkg"
)

func TestChunkedBufferReserveAndBytes(t *testing.T) {
	t.Parallel()
	b := ifrpkg.NewChunkedBuffer(8)

	s1, err := b.Reserve(4)
	require.NoError(t, err)
	copy(s1.Bytes(), []byte{1, 2, 3, 4})

	s2, err := b.Reserve(4)
	require.NoError(t, err)
	copy(s2.Bytes(), []byte{5, 6, 7, 8})

	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, b.Bytes())
	assert.Equal(t, 8, b.Len())
}

func TestChunkedBufferGrowsAcrossChunks(t *testing.T) {
	t.Parallel()
	b := ifrpkg.NewChunkedBuffer(4)

	s1, err := b.Reserve(4)
	require.NoError(t, err)
	copy(s1.Bytes(), []byte{0xAA, 0xAA, 0xAA, 0xAA})

	// This reservation doesn't fit in the first chunk's remaining
	// space, so a second chunk is appended; the Span previously
	// returned by s1 must remain valid and untouched.
	s2, err := b.Reserve(4)
	require.NoError(t, err)
	copy(s2.Bytes(), []byte{0xBB, 0xBB, 0xBB, 0xBB})

	assert.Equal(t, []byte{0xAA, 0xAA, 0xAA, 0xAA}, s1.Bytes())
	assert.Equal(t, []byte{0xAA, 0xAA, 0xAA, 0xAA, 0xBB, 0xBB, 0xBB, 0xBB}, b.Bytes())
}

func TestChunkedBufferReserveExceedingCapacityFails(t *testing.T) {
	t.Parallel()
	b := ifrpkg.NewChunkedBuffer(4)
	_, err := b.Reserve(5)
	assert.Error(t, err)
}

func TestChunkedBufferRead(t *testing.T) {
	t.Parallel()
	b := ifrpkg.NewChunkedBuffer(4)
	s1, _ := b.Reserve(4)
	copy(s1.Bytes(), []byte{1, 2, 3, 4})
	s2, _ := b.Reserve(4)
	copy(s2.Bytes(), []byte{5, 6, 7, 8})

	assert.Equal(t, []byte{3, 4, 5, 6}, b.Read(2, 4))
}

// TestChunkSpliceOperations exercises the chunk-granularity relocation
// primitives: detach a populated rescue chunk, splice it ahead of the
// chunk holding a given offset, and unlink it again.
func TestChunkSpliceOperations(t *testing.T) {
	t.Parallel()
	b := ifrpkg.NewChunkedBuffer(4)
	s1, _ := b.Reserve(4)
	copy(s1.Bytes(), []byte{1, 2, 3, 4})
	s2, _ := b.Reserve(4)
	copy(s2.Bytes(), []byte{5, 6, 7, 8})

	anchor, base := b.ChunkContaining(4)
	require.NotNil(t, anchor)
	assert.Equal(t, 4, base)

	rescue := b.NewDetachedChunk([]byte{0xAA, 0xBB})
	b.InsertBefore(anchor, rescue)
	assert.Equal(t, []byte{1, 2, 3, 4, 0xAA, 0xBB, 5, 6, 7, 8}, b.Bytes())

	b.Unlink(rescue)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8}, b.Bytes())

	b.AppendChunk(rescue)
	assert.Equal(t, []byte{1, 2, 3, 4, 5, 6, 7, 8, 0xAA, 0xBB}, b.Bytes())
}

func TestSpanSlice(t *testing.T) {
	t.Parallel()
	b := ifrpkg.NewChunkedBuffer(8)
	s, _ := b.Reserve(6)
	copy(s.Bytes(), []byte{1, 2, 3, 4, 5, 6})

	sub := s.Slice(2, 2)
	assert.Equal(t, []byte{3, 4}, sub.Bytes())

	// A write through the sub-Span lands in the parent's bytes.
	copy(sub.Bytes(), []byte{0xAA, 0xBB})
	assert.Equal(t, []byte{1, 2, 0xAA, 0xBB, 5, 6}, s.Bytes())

	assert.Nil(t, s.Slice(5, 2).Bytes(), "out-of-range sub-Span is the zero Span")
}

func TestChunkedBufferAddressOf(t *testing.T) {
	t.Parallel()
	b := ifrpkg.NewChunkedBuffer(8)
	s, _ := b.Reserve(4)
	copy(s.Bytes(), []byte{1, 2, 3, 4})

	got := b.AddressOf(0, 4)
	assert.Equal(t, []byte{1, 2, 3, 4}, got.Bytes())

	// Out-of-range address request returns the zero Span.
	zero := b.AddressOf(100, 4)
	assert.Nil(t, zero.Bytes())
}
