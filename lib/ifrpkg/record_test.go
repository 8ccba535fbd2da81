// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package ifrpkg_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tianocore/edk2-sub023/lib/ifrpkg"
)

func TestRecordLogRegisterAndEach(t *testing.T) {
	t.Parallel()
	log := ifrpkg.NewRecordLog(true)

	e1 := log.Register(1, ifrpkg.Span{}, 2, 0)
	e2 := log.Register(2, ifrpkg.Span{}, 3, 2)
	e3 := log.Register(3, ifrpkg.Span{}, 4, 5)

	assert.Equal(t, 3, log.Len())

	var lines []int
	log.Each(func(e *ifrpkg.RecordEntry) { lines = append(lines, e.SourceLine) })
	assert.Equal(t, []int{1, 2, 3}, lines)

	assert.Same(t, e1, log.Head())
	assert.Same(t, e2, e1.Next())
	assert.Same(t, e3, e2.Next())
	assert.Nil(t, e3.Next())
	assert.Same(t, e2, e3.Prev())
}

func TestRecordLogDisabledIsNoop(t *testing.T) {
	t.Parallel()
	log := ifrpkg.NewRecordLog(false)
	h := log.Register(1, ifrpkg.Span{}, 2, 0)
	assert.Equal(t, ifrpkg.INVALID, h)
	assert.Equal(t, 0, log.Len())
}

func TestRecordLogFindByOffset(t *testing.T) {
	t.Parallel()
	log := ifrpkg.NewRecordLog(true)
	log.Register(1, ifrpkg.Span{}, 2, 0)
	e2 := log.Register(2, ifrpkg.Span{}, 3, 2)

	assert.Same(t, e2, log.FindByOffset(2))
	assert.Nil(t, log.FindByOffset(99))
}

// TestRecordLogSpliceMiddleToFront relocates a single entry from the
// middle of the log to its front, the shape of move used by dynamic
// opcode relocation.
func TestRecordLogSpliceMiddleToFront(t *testing.T) {
	t.Parallel()
	log := ifrpkg.NewRecordLog(true)
	e1 := log.Register(1, ifrpkg.Span{}, 2, 0)
	e2 := log.Register(2, ifrpkg.Span{}, 3, 2)
	e3 := log.Register(3, ifrpkg.Span{}, 4, 5)

	log.Splice(e2, e2, e1)
	log.RecomputeOffsets()

	var order []int
	log.Each(func(e *ifrpkg.RecordEntry) { order = append(order, e.SourceLine) })
	assert.Equal(t, []int{2, 1, 3}, order)

	assert.Equal(t, 0, e2.Offset)
	assert.Equal(t, 3, e1.Offset)
	assert.Equal(t, 5, e3.Offset)
}

// TestRecordLogSpliceRunToEnd relocates a multi-entry run to the tail,
// the shape used when insertionPoint is nil.
func TestRecordLogSpliceRunToEnd(t *testing.T) {
	t.Parallel()
	log := ifrpkg.NewRecordLog(true)
	e1 := log.Register(1, ifrpkg.Span{}, 1, 0)
	e2 := log.Register(2, ifrpkg.Span{}, 1, 1)
	e3 := log.Register(3, ifrpkg.Span{}, 1, 2)
	e4 := log.Register(4, ifrpkg.Span{}, 1, 3)

	log.Splice(e1, e2, nil)
	log.RecomputeOffsets()

	var order []int
	log.Each(func(e *ifrpkg.RecordEntry) { order = append(order, e.SourceLine) })
	assert.Equal(t, []int{3, 4, 1, 2}, order)
	assert.Same(t, e2, log.Head().Next().Next().Next())
	_ = e3
	_ = e4
}
