// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package vfrdb_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tianocore/edk2-sub023/lib/ifrpkg"
	"github.com/tianocore/edk2-sub023/lib/vfrdb"
)

func TestDefaultStoreDBRegisterAndLookup(t *testing.T) {
	t.Parallel()
	ids := vfrdb.NewIdRegistry()
	db := vfrdb.NewDefaultStoreDB(ids)
	buf := ifrpkg.NewChunkedBuffer(16)
	span, _ := buf.Reserve(2)

	require.NoError(t, db.Register("Standard", 3, vfrdb.DefaultIdStandard, span))

	ds, ok := db.Lookup("Standard")
	require.True(t, ok)
	assert.Equal(t, uint16(3), ds.NameStringId)
	assert.Equal(t, vfrdb.DefaultIdStandard, ds.DefaultId)
}

func TestDefaultStoreDBRegisterRejectsRedefinition(t *testing.T) {
	t.Parallel()
	ids := vfrdb.NewIdRegistry()
	db := vfrdb.NewDefaultStoreDB(ids)
	buf := ifrpkg.NewChunkedBuffer(16)
	span, _ := buf.Reserve(2)

	require.NoError(t, db.Register("Standard", 3, vfrdb.DefaultIdStandard, span))
	assert.Error(t, db.Register("Standard", 4, vfrdb.DefaultIdManufacturing, span))
}

func TestDefaultStoreDBAllPreservesRegistrationOrder(t *testing.T) {
	t.Parallel()
	ids := vfrdb.NewIdRegistry()
	db := vfrdb.NewDefaultStoreDB(ids)
	buf := ifrpkg.NewChunkedBuffer(16)
	span, _ := buf.Reserve(2)

	require.NoError(t, db.Register("B", 1, vfrdb.DefaultIdManufacturing, span))
	require.NoError(t, db.Register("A", 2, vfrdb.DefaultIdStandard, span))

	all := db.All()
	require.Len(t, all, 2)
	assert.Equal(t, "B", all[0].RefName)
	assert.Equal(t, "A", all[1].RefName)
}

func TestDefaultStoreDBActiveIdsSortedAndDeduped(t *testing.T) {
	t.Parallel()
	ids := vfrdb.NewIdRegistry()
	db := vfrdb.NewDefaultStoreDB(ids)
	buf := ifrpkg.NewChunkedBuffer(16)
	span, _ := buf.Reserve(2)

	require.NoError(t, db.Register("Mfg", 1, vfrdb.DefaultIdManufacturing, span))
	require.NoError(t, db.Register("Std", 2, vfrdb.DefaultIdStandard, span))

	assert.Equal(t, []uint16{vfrdb.DefaultIdStandard, vfrdb.DefaultIdManufacturing}, db.ActiveIds())
}

func TestBufferAltConfigAddAndEntries(t *testing.T) {
	t.Parallel()
	var c vfrdb.BufferAltConfig
	c.Add(vfrdb.BufferAltConfigEntry{VarStoreId: 1, DefaultId: 0, Offset: 4, Width: 2, Value: []byte{1, 0}})
	c.Add(vfrdb.BufferAltConfigEntry{VarStoreId: 1, DefaultId: 1, Offset: 4, Width: 2, Value: []byte{2, 0}})

	entries := c.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, 4, entries[0].Offset)
	assert.Equal(t, uint16(1), entries[1].DefaultId)

	var out strings.Builder
	require.NoError(t, c.WriteDump(&out))
	assert.Contains(t, out.String(), "varstore=0x0001 default=0x0000 offset=0x0004 width=2 value=01 00")
}
