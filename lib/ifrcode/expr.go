// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package ifrcode

import (
	"github.com/tianocore/edk2-sub023/lib/ifrpkg"
)

// EmitEqIdVal writes eq-id-val: question_id(u16) value(u16).
func (e *Emitter) EmitEqIdVal(questionId, value uint16, line int) (ifrpkg.Handle, error) {
	body := make([]byte, 4)
	putU16(body[0:2], questionId)
	putU16(body[2:4], value)
	h, _, err := e.Emit(OpEqIdVal, false, body, line)
	return h, err
}

// EmitEqIdId writes eq-id-id: question_id_1(u16) question_id_2(u16).
func (e *Emitter) EmitEqIdId(q1, q2 uint16, line int) (ifrpkg.Handle, error) {
	body := make([]byte, 4)
	putU16(body[0:2], q1)
	putU16(body[2:4], q2)
	h, _, err := e.Emit(OpEqIdId, false, body, line)
	return h, err
}

// BeginEqIdValList starts a delayed eq-id-val-list: question_id(u16)
// list_length(u16) values[u16×list_length]; AddValue appends entries
// and corrects list_length before Flush.
func (e *Emitter) BeginEqIdValList(questionId uint16, line int) *Delayed {
	body := make([]byte, 4)
	putU16(body[0:2], questionId)
	return e.BeginDelayed(OpEqIdValList, false, line, body)
}

// AddValue appends one u16 value to a pending eq-id-val-list and
// bumps its recorded list_length.
func (d *Delayed) AddValue(v uint16) {
	b := d.Body()
	n := uint16(len(b)-4)/2 + 1
	putU16(b[2:4], n)
	b2 := make([]byte, 2)
	putU16(b2, v)
	d.Append(b2)
}

// EmitInconsistentIf writes inconsistent-if: error_string(StringId)
// flags(u8) (scope-open; the comparison expression follows, terminated
// by end). The postprocessor may rewrite this opcode's Op byte in
// place to OpNoSubmitIf.
func (e *Emitter) EmitInconsistentIf(errorString StringId, flags uint8, line int) (ifrpkg.Handle, error) {
	body := make([]byte, 3)
	putU16(body[0:2], uint16(errorString))
	body[2] = flags
	h, _, err := e.Emit(OpInconsistentIf, true, body, line)
	return h, err
}

// EmitNoSubmitIf mirrors EmitInconsistentIf for the no-submit-if opcode.
func (e *Emitter) EmitNoSubmitIf(errorString StringId, flags uint8, line int) (ifrpkg.Handle, error) {
	body := make([]byte, 3)
	putU16(body[0:2], uint16(errorString))
	body[2] = flags
	h, _, err := e.Emit(OpNoSubmitIf, true, body, line)
	return h, err
}

// EmitSuppressIf writes suppress-if: flags(u8) (scope-open).
func (e *Emitter) EmitSuppressIf(flags uint8, line int) (ifrpkg.Handle, error) {
	h, _, err := e.Emit(OpSuppressIf, true, []byte{flags}, line)
	return h, err
}

// EmitGrayOutIf writes gray-out-if: flags(u8) (scope-open).
func (e *Emitter) EmitGrayOutIf(flags uint8, line int) (ifrpkg.Handle, error) {
	h, _, err := e.Emit(OpGrayOutIf, true, []byte{flags}, line)
	return h, err
}

// BeginDisableIf begins a delayed disable-if (scope-open, no fixed
// body: the condition expression is nested, and the caller Flushes
// immediately since disable-if carries no header fields of its own).
func (e *Emitter) BeginDisableIf(line int) *Delayed {
	return e.BeginDelayed(OpDisableIf, true, line, nil)
}
