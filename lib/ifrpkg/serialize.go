// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package ifrpkg

import (
	"bufio"
	"fmt"
	"io"

	"golang.org/x/text/width"
)

// PackageTypeForm is the EFI_HII_PACKAGE_HEADER Type byte for a form
// package.
const PackageTypeForm = 0x02

// Serializer emits the bytes accumulated in a ChunkedBuffer as an IFR
// binary package, as an equivalent C source array, or as an
// interleaved source/record listing.
type Serializer struct {
	Buf *ChunkedBuffer
	Log *RecordLog

	// TypeDump, if set, is appended to WriteListing's trailing section
	// (the type-database dump lives in lib/vfrtype; this hook keeps the
	// serializer from importing it).
	TypeDump func(io.Writer) error
}

// PackageBytes returns {EFI_HII_PACKAGE_HEADER{length:u24,type:u8},
// opcode_bytes...}.
func (s *Serializer) PackageBytes() []byte {
	body := s.Buf.Bytes()
	total := len(body) + 4
	out := make([]byte, 0, total)
	out = append(out, byte(total), byte(total>>8), byte(total>>16), PackageTypeForm)
	out = append(out, body...)
	return out
}

// WriteCSource writes `unsigned char {base}Bin[] = { ... };` with the
// package bytes prefixed by their own 4-byte little-endian total
// length, 16 bytes per line.
func (s *Serializer) WriteCSource(w io.Writer, base string) error {
	pkg := s.PackageBytes()
	total := len(pkg)
	all := make([]byte, 0, 4+total)
	all = append(all, byte(total), byte(total>>8), byte(total>>16), byte(total>>24))
	all = append(all, pkg...)

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "unsigned char %sBin[] = {\n", base)
	for i, b := range all {
		if i%16 == 0 {
			bw.WriteString("  ")
		}
		fmt.Fprintf(bw, "0x%02X", b)
		if i != len(all)-1 {
			bw.WriteString(",")
		}
		if i%16 == 15 || i == len(all)-1 {
			bw.WriteString("\n")
		} else {
			bw.WriteString(" ")
		}
	}
	bw.WriteString("};\n")
	return bw.Flush()
}

// WriteListing echoes srcLines verbatim, and after each source line
// prints every log entry whose SourceLine matches it as
// `>OOOOOOOO: xx xx xx ...`; a trailing section dumps all entries and
// (if TypeDump is set) the type database. Each 2-hex-digit byte is
// passed through golang.org/x/text/width's narrow (halfwidth)
// transform; no column padding is applied.
func (s *Serializer) WriteListing(w io.Writer, srcLines []string) error {
	bw := bufio.NewWriter(w)
	byLine := map[int][]*RecordEntry{}
	s.Log.Each(func(e *RecordEntry) {
		byLine[e.SourceLine] = append(byLine[e.SourceLine], e)
	})
	for i, line := range srcLines {
		lineNo := i + 1
		fmt.Fprintln(bw, line)
		for _, e := range byLine[lineNo] {
			writeRecordLine(bw, e)
		}
	}

	// Trailing section: every record in declaration order, then the
	// type database.
	bw.WriteString("//\n// All Opcode Record List\n//\n")
	s.Log.Each(func(e *RecordEntry) {
		writeRecordLine(bw, e)
	})
	if s.TypeDump != nil {
		if err := bw.Flush(); err != nil {
			return err
		}
		if err := s.TypeDump(w); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeRecordLine(w io.Writer, e *RecordEntry) {
	fmt.Fprintf(w, ">%08X:", e.Offset)
	for _, b := range e.PayloadPtr.Bytes() {
		// Normalize to narrow (halfwidth) form so the hex columns line
		// up even if a locale-aware terminal font substitutes
		// fullwidth glyphs for ASCII.
		fmt.Fprintf(w, " %s", width.Narrow.String(fmt.Sprintf("%02X", b)))
	}
	fmt.Fprintln(w)
}
