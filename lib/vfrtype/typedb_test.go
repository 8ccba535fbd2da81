// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package vfrtype_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tianocore/edk2-sub023/lib/vfrtype"
)

func TestNewTypeDBBuiltins(t *testing.T) {
	t.Parallel()
	db := vfrtype.NewTypeDB()
	for _, name := range []string{"UINT8", "UINT16", "UINT32", "UINT64", "BOOLEAN", "EFI_HII_DATE", "EFI_HII_TIME", "EFI_GUID", "EFI_HII_REF"} {
		_, err := db.Lookup(name)
		assert.NoErrorf(t, err, "built-in %s should be registered", name)
	}
	_, err := db.Lookup("NOPE")
	assert.Error(t, err)
}

func TestDeclareStructRejectsRedefinition(t *testing.T) {
	t.Parallel()
	db := vfrtype.NewTypeDB()
	_, err := db.DeclareStruct("MyStruct")
	require.NoError(t, err)
	_, err = db.DeclareStruct("MyStruct")
	assert.Error(t, err)
}

// TestAddFieldAlignment exercises the field-offset/alignment
// arithmetic: a UINT8 followed by a UINT32 must pad to a 4-byte
// boundary, and the struct's own alignment becomes the widest member's.
func TestAddFieldAlignment(t *testing.T) {
	t.Parallel()
	db := vfrtype.NewTypeDB()
	st, err := db.DeclareStruct("Packed")
	require.NoError(t, err)

	require.NoError(t, db.AddField(st, "Flag", "UINT8", 0))
	require.NoError(t, db.AddField(st, "Count", "UINT32", 0))
	require.NoError(t, db.AddField(st, "Arr", "UINT16", 3))

	require.Len(t, st.Fields, 3)
	assert.Equal(t, 0, st.Fields[0].Offset)
	assert.Equal(t, 4, st.Fields[1].Offset, "UINT32 pads past the UINT8 byte")
	assert.Equal(t, 8, st.Fields[2].Offset)
	assert.Equal(t, 8+2*3, st.TotalSize)
	assert.Equal(t, 4, st.Align)
}

func TestResolveDottedArrayPath(t *testing.T) {
	t.Parallel()
	db := vfrtype.NewTypeDB()
	inner, err := db.DeclareStruct("Inner")
	require.NoError(t, err)
	require.NoError(t, db.AddField(inner, "V", "UINT16", 0))

	outer, err := db.DeclareStruct("Outer")
	require.NoError(t, err)
	require.NoError(t, db.AddField(outer, "Items", "Inner", 4))

	res, err := db.Resolve("Outer.Items[2].V")
	require.NoError(t, err)
	assert.Equal(t, 0+2*inner.TotalSize+0, res.Offset)
	assert.Equal(t, 2, res.Width)
	assert.False(t, res.IsBitField)
}

func TestResolveUndefinedField(t *testing.T) {
	t.Parallel()
	db := vfrtype.NewTypeDB()
	_, err := db.DeclareStruct("Empty")
	require.NoError(t, err)
	_, err = db.Resolve("Empty.Missing")
	assert.Error(t, err)
}

func TestAddBitField(t *testing.T) {
	t.Parallel()
	db := vfrtype.NewTypeDB()
	st, err := db.DeclareStruct("Flags")
	require.NoError(t, err)
	require.NoError(t, db.AddBitField(st, "Enabled", "UINT8", 0, 1))

	res, err := db.Resolve("Flags.Enabled")
	require.NoError(t, err)
	assert.True(t, res.IsBitField)
	assert.Equal(t, 1, res.BitWidth)

	err = db.AddBitField(st, "TooWide", "UINT8", 0, 40)
	assert.Error(t, err)
}

func TestWriteDumpListsTypesSortedWithFields(t *testing.T) {
	t.Parallel()
	db := vfrtype.NewTypeDB()
	st, err := db.DeclareStruct("MY_DATA")
	require.NoError(t, err)
	require.NoError(t, db.AddField(st, "Mode", "UINT8", 0))

	var out strings.Builder
	require.NoError(t, db.WriteDump(&out))
	text := out.String()
	assert.Contains(t, text, "MY_DATA size=0x0001 align=1")
	assert.Contains(t, text, "  UINT8 Mode offset=0x0000")
	assert.Less(t, strings.Index(text, "EFI_GUID"), strings.Index(text, "MY_DATA"),
		"types are dumped in sorted name order")
}

func TestPackStackPushPopAssign(t *testing.T) {
	t.Parallel()
	db := vfrtype.NewTypeDB()
	assert.Equal(t, 8, db.Show())

	db.Push("scope1", 1)
	assert.Equal(t, 1, db.Show())

	db.Assign(4)
	assert.Equal(t, 4, db.Show())

	assert.True(t, db.Pop("scope1"))
	assert.Equal(t, 8, db.Show())

	assert.False(t, db.Pop("nonexistent-id"))
}
