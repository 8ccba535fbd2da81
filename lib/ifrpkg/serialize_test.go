// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package ifrpkg_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tianocore/edk2-sub023/lib/ifrpkg"
)

func TestSerializerPackageBytes(t *testing.T) {
	t.Parallel()
	buf := ifrpkg.NewChunkedBuffer(16)
	s, _ := buf.Reserve(2)
	copy(s.Bytes(), []byte{0x01, 0x02})

	ser := &ifrpkg.Serializer{Buf: buf, Log: ifrpkg.NewRecordLog(true)}
	pkg := ser.PackageBytes()

	require.Len(t, pkg, 6)
	assert.Equal(t, byte(6), pkg[0])
	assert.Equal(t, byte(0), pkg[1])
	assert.Equal(t, byte(0), pkg[2])
	assert.Equal(t, byte(ifrpkg.PackageTypeForm), pkg[3])
	assert.Equal(t, []byte{0x01, 0x02}, pkg[4:])
}

func TestSerializerWriteCSource(t *testing.T) {
	t.Parallel()
	buf := ifrpkg.NewChunkedBuffer(16)
	s, _ := buf.Reserve(1)
	copy(s.Bytes(), []byte{0xAB})

	ser := &ifrpkg.Serializer{Buf: buf, Log: ifrpkg.NewRecordLog(true)}
	var out bytes.Buffer
	require.NoError(t, ser.WriteCSource(&out, "Form"))

	text := out.String()
	assert.True(t, strings.HasPrefix(text, "unsigned char FormBin[] = {\n"))
	assert.Contains(t, text, "0xAB")
	assert.True(t, strings.HasSuffix(text, "};\n"))
}

// TestSerializerCSourceLengthPrefix pins the `.c` output's 4-byte
// little-endian prefix: for a 0x100-byte opcode payload, the prefix is
// the package length including the 4-byte package header, 0x0104.
func TestSerializerCSourceLengthPrefix(t *testing.T) {
	t.Parallel()
	buf := ifrpkg.NewChunkedBuffer(0x200)
	_, err := buf.Reserve(0x100)
	require.NoError(t, err)

	ser := &ifrpkg.Serializer{Buf: buf, Log: ifrpkg.NewRecordLog(true)}

	pkg := ser.PackageBytes()
	require.Len(t, pkg, 0x104)
	assert.Equal(t, byte(0x04), pkg[0])
	assert.Equal(t, byte(0x01), pkg[1])
	assert.Equal(t, byte(0x00), pkg[2])
	assert.Equal(t, byte(ifrpkg.PackageTypeForm), pkg[3])

	var out bytes.Buffer
	require.NoError(t, ser.WriteCSource(&out, "Form"))
	assert.True(t, strings.Contains(out.String(), "0x04, 0x01, 0x00, 0x00"),
		"the .c prefix is the 4-byte LE package length")
}

func TestSerializerWriteListing(t *testing.T) {
	t.Parallel()
	buf := ifrpkg.NewChunkedBuffer(16)
	span, _ := buf.Reserve(2)
	copy(span.Bytes(), []byte{0x01, 0x02})

	log := ifrpkg.NewRecordLog(true)
	log.Register(1, span, 2, 0)

	ser := &ifrpkg.Serializer{
		Buf: buf,
		Log: log,
		TypeDump: func(w io.Writer) error {
			_, err := io.WriteString(w, "UINT8 size=0x0001 align=1\n")
			return err
		},
	}
	var out bytes.Buffer
	require.NoError(t, ser.WriteListing(&out, []string{"form formid = 1,"}))

	text := out.String()
	assert.Contains(t, text, "form formid = 1,")
	assert.Contains(t, text, ">00000000: 01 02")
	assert.Contains(t, text, "// All Opcode Record List")
	assert.Contains(t, text, "UINT8 size=0x0001 align=1")
}
