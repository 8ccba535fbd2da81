// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package ifrcode

import (
	"github.com/tianocore/edk2-sub023/lib/binstruct"
	"github.com/tianocore/edk2-sub023/lib/ifrpkg"
)

// headerBytes marshals a QuestionHeader through its `bin:"off=,siz="`
// tags rather than packing bytes by hand, so the tags on
// QuestionHeader stay load-bearing.
func headerBytes(h QuestionHeader) []byte {
	b, err := binstruct.Marshal(h)
	if err != nil {
		panic(err)
	}
	return b
}

// NumericFlags is the flags byte of EFI_IFR_NUMERIC/EFI_IFR_ONE_OF:
// the low 2 bits select the min/max/step field width encoding.
type NumericFlags uint8

const (
	NumericSize1       NumericFlags = 0x00
	NumericSize2       NumericFlags = 0x01
	NumericSize4       NumericFlags = 0x02
	NumericSize8       NumericFlags = 0x03
	NumericDisplayMask NumericFlags = 0x30
)

func (f NumericFlags) valueWidth() int {
	switch f & 0x3 {
	case 0x00:
		return 1
	case 0x01:
		return 2
	case 0x02:
		return 4
	default:
		return 8
	}
}

// BeginNumeric starts a delayed numeric opcode: question-header(11)
// flags(u8), min/max/step sized per flags.
func (e *Emitter) BeginNumeric(h QuestionHeader, flags NumericFlags, min, max, step uint64, line int) *Delayed {
	w := flags.valueWidth()
	body := make([]byte, QuestionHeaderSize+1+3*w)
	copy(body, headerBytes(h))
	body[QuestionHeaderSize] = byte(flags)
	off := QuestionHeaderSize + 1
	putSized(body[off:off+w], min, w)
	putSized(body[off+w:off+2*w], max, w)
	putSized(body[off+2*w:off+3*w], step, w)
	return e.BeginDelayed(OpNumeric, true, line, body)
}

func putSized(b []byte, v uint64, w int) {
	for i := 0; i < w; i++ {
		b[i] = byte(v >> (8 * i))
	}
}

// CheckBoxFlags is EFI_IFR_CHECKBOX's flags byte.
type CheckBoxFlags uint8

const (
	CheckBoxFlagDefault    CheckBoxFlags = 1 << 0
	CheckBoxFlagDefaultMfg CheckBoxFlags = 1 << 5
)

// EmitCheckBox writes the checkbox opcode: question-header, flags(u8).
func (e *Emitter) EmitCheckBox(h QuestionHeader, flags CheckBoxFlags, line int) (ifrpkg.Handle, error) {
	body := append(headerBytes(h), byte(flags))
	hnd, _, err := e.Emit(OpCheckBox, true, body, line)
	return hnd, err
}

// BeginOneOf starts a delayed one-of opcode: question-header(11)
// flags(u8) min/max/step sized per flags. one-of-option children are
// emitted separately inside the scope; Flush closes only the one-of
// header record, the caller still must EmitEnd after the options.
func (e *Emitter) BeginOneOf(h QuestionHeader, flags NumericFlags, min, max, step uint64, line int) *Delayed {
	w := flags.valueWidth()
	body := make([]byte, QuestionHeaderSize+1+3*w)
	copy(body, headerBytes(h))
	body[QuestionHeaderSize] = byte(flags)
	off := QuestionHeaderSize + 1
	putSized(body[off:off+w], min, w)
	putSized(body[off+w:off+2*w], max, w)
	putSized(body[off+2*w:off+3*w], step, w)
	return e.BeginDelayed(OpOneOf, true, line, body)
}

// OneOfOptionFlags is EFI_IFR_ONE_OF_OPTION's flags byte.
type OneOfOptionFlags uint8

const (
	OptionFlagDefault    OneOfOptionFlags = 1 << 4
	OptionFlagDefaultMfg OneOfOptionFlags = 1 << 5
)

// ValueType is EFI_IFR_TYPE_VALUE's discriminant byte.
type ValueType uint8

const (
	ValueTypeU8   ValueType = 0x00
	ValueTypeU16  ValueType = 0x01
	ValueTypeU32  ValueType = 0x02
	ValueTypeU64  ValueType = 0x03
	ValueTypeBool ValueType = 0x04
	ValueTypeTime ValueType = 0x05
	ValueTypeDate ValueType = 0x06
	ValueTypeStr  ValueType = 0x07
)

// ValueWidth returns the on-wire size of a value of the given type.
func ValueWidth(t ValueType) int {
	switch t {
	case ValueTypeU8, ValueTypeBool:
		return 1
	case ValueTypeU16, ValueTypeStr:
		return 2
	case ValueTypeU32:
		return 4
	case ValueTypeU64:
		return 8
	case ValueTypeDate:
		return 4
	case ValueTypeTime:
		return 3
	default:
		return 1
	}
}

// EmitOneOfOption writes one-of-option: option_string(StringId)
// flags(u8) type(u8) value(sized by type).
func (e *Emitter) EmitOneOfOption(optionString StringId, flags OneOfOptionFlags, typ ValueType, value []byte, line int) (ifrpkg.Handle, error) {
	body := make([]byte, 0, 2+1+1+len(value))
	b2 := make([]byte, 2)
	putU16(b2, uint16(optionString))
	body = append(body, b2...)
	body = append(body, byte(flags), byte(typ))
	body = append(body, value...)
	h, _, err := e.Emit(OpOneOfOption, false, body, line)
	return h, err
}

// DefaultExprSize is the total record size of the expression-valued
// default_2 variant: header + default_id + type, with no inline
// value. A default record of exactly this size opens a scope holding
// the producing expression; longer default records carry the value
// inline and open no scope. The simple `default` always carries at
// least one value byte, so the two wire shapes of OpDefault are
// disjoint by length.
const DefaultExprSize = 5

// EmitDefault writes the simple default opcode: default_id(u16)
// type(u8) value(sized by type). (The expression-valued default_2
// variant is a scope-open opcode whose value is produced by a nested
// expression; EmitDefaultExpr below covers it.)
func (e *Emitter) EmitDefault(defaultId uint16, typ ValueType, value []byte, line int) (ifrpkg.Handle, error) {
	body := make([]byte, 0, 2+1+len(value))
	b2 := make([]byte, 2)
	putU16(b2, defaultId)
	body = append(body, b2...)
	body = append(body, byte(typ))
	body = append(body, value...)
	h, _, err := e.Emit(OpDefault, false, body, line)
	return h, err
}

// EmitDefaultExpr writes the scope-open default_2 variant: default_id(u16)
// type(u8); the producing expression opcodes follow, terminated by end.
func (e *Emitter) EmitDefaultExpr(defaultId uint16, typ ValueType, line int) (ifrpkg.Handle, error) {
	body := make([]byte, 3)
	putU16(body[0:2], defaultId)
	body[2] = byte(typ)
	h, _, err := e.Emit(OpDefault, true, body, line)
	return h, err
}

// BeginOrderedList starts a delayed ordered-list opcode:
// question-header(11) max_containers(u8) flags(u8).
func (e *Emitter) BeginOrderedList(h QuestionHeader, maxContainers, flags uint8, line int) *Delayed {
	body := append(headerBytes(h), maxContainers, flags)
	return e.BeginDelayed(OpOrderedList, true, line, body)
}

// ---- composite questions: date / time / ref --------------------------

// EmitDate writes the date opcode: question-header(11) (the three
// Year/Month/Day sub-questions share this one question_id with
// distinct bitmasks allocated by QuestionDB; the wire body carries no
// extra fields beyond the header, per EFI_IFR_DATE).
func (e *Emitter) EmitDate(h QuestionHeader, line int) (ifrpkg.Handle, error) {
	hnd, _, err := e.Emit(OpDate, true, headerBytes(h), line)
	return hnd, err
}

// EmitTime mirrors EmitDate for EFI_IFR_TIME (Hour/Minute/Second).
func (e *Emitter) EmitTime(h QuestionHeader, line int) (ifrpkg.Handle, error) {
	hnd, _, err := e.Emit(OpTime, true, headerBytes(h), line)
	return hnd, err
}

// RefKind selects how many of the ref opcode family's trailing fields
// are present.
type RefKind int

const (
	RefPlain RefKind = iota // EFI_IFR_REF: question-header + form_id(u16)
	Ref2                    // + question_id(u16)
	Ref3                    // + formset_guid(16)
	Ref4                    // + device_path(StringId)
)

// EmitRef writes ref/ref2/ref3/ref4 according to kind.
func (e *Emitter) EmitRef(h QuestionHeader, kind RefKind, formId, refQuestionId uint16, formSetGuid Guid, devicePath StringId, line int) (ifrpkg.Handle, error) {
	body := headerBytes(h)
	b2 := make([]byte, 2)
	putU16(b2, formId)
	body = append(body, b2...)
	if kind >= Ref2 {
		putU16(b2, refQuestionId)
		body = append(body, b2...)
	}
	if kind >= Ref3 {
		body = append(body, formSetGuid[:]...)
	}
	if kind >= Ref4 {
		putU16(b2, uint16(devicePath))
		body = append(body, b2...)
	}
	hnd, _, err := e.Emit(OpRef, true, body, line)
	return hnd, err
}
