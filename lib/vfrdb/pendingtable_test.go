// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package vfrdb_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tianocore/edk2-sub023/lib/ifrpkg"
	"github.com/tianocore/edk2-sub023/lib/vfrdb"
)

func TestPendingTableResolveWritesMinWidth(t *testing.T) {
	t.Parallel()
	buf := ifrpkg.NewChunkedBuffer(16)
	span, _ := buf.Reserve(2)

	pt := vfrdb.NewPendingTable()
	entry := pt.Add("Q1", span, 2, 1, "unresolved question Q1")
	assert.Equal(t, vfrdb.Pending, entry.State)

	// Resolve with a wider value than the entry's declared width: only
	// the first Width bytes are copied.
	pt.Resolve("Q1", []byte{0x34, 0x12, 0xFF, 0xFF}, 4)

	assert.Equal(t, []byte{0x34, 0x12}, span.Bytes())
	assert.Equal(t, vfrdb.Assigned, entry.State)
}

func TestPendingTableUnassignedSortedAndFiltered(t *testing.T) {
	t.Parallel()
	buf := ifrpkg.NewChunkedBuffer(16)
	span, _ := buf.Reserve(2)

	pt := vfrdb.NewPendingTable()
	pt.Add("Zeta", span, 2, 1, "unresolved")
	pt.Add("Alpha", span, 2, 2, "unresolved")
	pt.Resolve("Alpha", []byte{1, 0}, 2)

	unassigned := pt.Unassigned()
	require.Len(t, unassigned, 1)
	assert.Equal(t, "Zeta", unassigned[0].Key)
}

func TestPendingTableResolveIsIdempotentAfterAssigned(t *testing.T) {
	t.Parallel()
	buf := ifrpkg.NewChunkedBuffer(16)
	span, _ := buf.Reserve(2)

	pt := vfrdb.NewPendingTable()
	pt.Add("Q1", span, 2, 1, "unresolved")
	pt.Resolve("Q1", []byte{0x01, 0x00}, 2)
	pt.Resolve("Q1", []byte{0xFF, 0xFF}, 2)

	assert.Equal(t, []byte{0x01, 0x00}, span.Bytes(), "an already-Assigned entry is not patched again")
}
