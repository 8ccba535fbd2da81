// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package ifrcode

import (
	"github.com/tianocore/edk2-sub023/lib/binstruct"
	"github.com/tianocore/edk2-sub023/lib/fmtutil"
)

// StringId is an HII string package identifier.
type StringId uint16

// QuestionFlags is the trailing flags byte shared by every question
// opcode header.
type QuestionFlags uint8

const (
	QuestionFlagReadOnly      QuestionFlags = 1 << 0
	QuestionFlagCallback      QuestionFlags = 1 << 2
	QuestionFlagResetRequired QuestionFlags = 1 << 4
	QuestionFlagLateCheck     QuestionFlags = 1 << 5
	QuestionFlagOptsOnly      QuestionFlags = 1 << 7
)

func (f QuestionFlags) Has(req QuestionFlags) bool { return f&req == req }

var questionFlagNames = []string{
	"READ_ONLY",
	"",
	"CALLBACK",
	"",
	"RESET_REQUIRED",
	"LATE_CHECK",
	"",
	"OPTIONS_ONLY",
}

func (f QuestionFlags) String() string {
	return fmtutil.BitfieldString(f, questionFlagNames, fmtutil.HexUpper)
}

// OpHeader is the 2-byte record header shared by every opcode: the
// low 7 bits of the second byte hold the total length (including the
// header itself), the high bit holds scope-open.
type OpHeader struct {
	Op          uint8 `bin:"off=0,siz=1"`
	LengthScope uint8 `bin:"off=1,siz=1"`
}

// Length returns the record's total length.
func (h OpHeader) Length() int { return int(h.LengthScope & 0x7F) }

// ScopeOpen reports whether this record opens a scope.
func (h OpHeader) ScopeOpen() bool { return h.LengthScope&0x80 != 0 }

// QuestionHeader is the shared header for question opcodes (numeric,
// checkbox, one-of, ordered-list, string, password, date, time, ref).
type QuestionHeader struct {
	Prompt        StringId      `bin:"off=0x0,siz=0x2"`
	Help          StringId      `bin:"off=0x2,siz=0x2"`
	QuestionId    uint16        `bin:"off=0x4,siz=0x2"`
	VarStoreId    uint16        `bin:"off=0x6,siz=0x2"`
	VarStoreInfo  uint16        `bin:"off=0x8,siz=0x2"` // offset, or name-value string-id index
	Flags         QuestionFlags `bin:"off=0xA,siz=0x1"`
	binstruct.End `bin:"off=0xB"`
}

// QuestionHeaderSize is the on-wire size of QuestionHeader:
// 2+2+2+2+2+1 = 11 bytes.
const QuestionHeaderSize = 11
