// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package ifrcode

import (
	"encoding/binary"

	"github.com/tianocore/edk2-sub023/lib/ifrpkg"
)

// Guid is a 16-byte little-endian-encoded GUID, wire-identical across
// every opcode that embeds one.
type Guid [16]byte

func putU16(b []byte, v uint16) { binary.LittleEndian.PutUint16(b, v) }
func putU32(b []byte, v uint32) { binary.LittleEndian.PutUint32(b, v) }

// FormSetFlags is EFI_IFR_FORM_SET's trailing flags byte: the low
// nibble counts the number of class-guids that follow.
type FormSetFlags uint8

// EmitFormSet writes the form-set opcode: guid(16) title(StringId)
// help(StringId) flags(u8) class-guids[flags]…
func (e *Emitter) EmitFormSet(guid Guid, title, help StringId, classGuids []Guid, line int) (ifrpkg.Handle, error) {
	body := make([]byte, 0, 16+2+2+1+16*len(classGuids))
	body = append(body, guid[:]...)
	b2 := make([]byte, 2)
	putU16(b2, uint16(title))
	body = append(body, b2...)
	putU16(b2, uint16(help))
	body = append(body, b2...)
	body = append(body, byte(len(classGuids)))
	for _, g := range classGuids {
		body = append(body, g[:]...)
	}
	h, _, err := e.Emit(OpFormSet, true, body, line)
	return h, err
}

// EmitForm writes the form opcode: form_id(u16) title(StringId).
func (e *Emitter) EmitForm(formId uint16, title StringId, line int) (ifrpkg.Handle, error) {
	body := make([]byte, 4)
	putU16(body[0:2], formId)
	putU16(body[2:4], uint16(title))
	h, _, err := e.Emit(OpForm, true, body, line)
	return h, err
}

// BeginFormMap starts a delayed form-map opcode (the method-map list
// is variable-length and appended via AddMethod before Flush).
func (e *Emitter) BeginFormMap(formId uint16, line int) *Delayed {
	body := make([]byte, 2)
	putU16(body, formId)
	return e.BeginDelayed(OpFormMap, true, line, body)
}

// AddMethod appends a {method_title(StringId), method_identifier(16)}
// pair to a pending form-map.
func (d *Delayed) AddMethod(methodTitle StringId, methodId Guid) {
	b := make([]byte, 2+16)
	putU16(b[0:2], uint16(methodTitle))
	copy(b[2:], methodId[:])
	d.Append(b)
}

// EmitDefaultStore writes the default-store opcode: name_id(StringId)
// default_id(u16).
func (e *Emitter) EmitDefaultStore(nameId StringId, defaultId uint16, line int) (ifrpkg.Handle, error) {
	body := make([]byte, 4)
	putU16(body[0:2], uint16(nameId))
	putU16(body[2:4], defaultId)
	h, _, err := e.Emit(OpDefaultStore, false, body, line)
	return h, err
}

// BeginVarStore starts a delayed buffer-varstore opcode: guid(16)
// varstore_id(u16) size(u16) name(Cstr). Name is appended via SetName
// before Flush since the compiler may not know the final size until
// the associated type has been fully declared.
func (e *Emitter) BeginVarStore(guid Guid, varStoreId, size uint16, line int) *Delayed {
	body := make([]byte, 16+2+2)
	copy(body[0:16], guid[:])
	putU16(body[16:18], varStoreId)
	putU16(body[18:20], size)
	return e.BeginDelayed(OpVarStore, false, line, body)
}

// BeginVarStoreEfi starts a delayed EFI-varstore opcode: guid(16)
// varstore_id(u16) attributes(u32) size(u16) name(Cstr).
func (e *Emitter) BeginVarStoreEfi(guid Guid, varStoreId uint16, attributes uint32, size uint16, line int) *Delayed {
	body := make([]byte, 16+2+4+2)
	copy(body[0:16], guid[:])
	putU16(body[16:18], varStoreId)
	putU32(body[18:22], attributes)
	putU16(body[22:24], size)
	return e.BeginDelayed(OpVarStoreEfi, false, line, body)
}

// SetName appends a NUL-terminated name to a pending varstore/
// varstore-efi/name-value delayed opcode.
func (d *Delayed) SetName(name string) {
	d.Append(append([]byte(name), 0))
}

// EmitGuid writes a literal-GUID value-opcode: a 16-byte GUID plus an
// arbitrary opaque data trailer (0 bytes by default; some framework-
// compatibility extensions append vendor data after the GUID, passed
// via extra).
func (e *Emitter) EmitGuid(guid Guid, extra []byte, line int) (ifrpkg.Handle, error) {
	body := make([]byte, 0, 16+len(extra))
	body = append(body, guid[:]...)
	body = append(body, extra...)
	h, _, err := e.Emit(OpGuid, false, body, line)
	return h, err
}

// EmitRule writes the rule opcode: rule_id(u8) (scope-open; the
// expression it scopes follows).
func (e *Emitter) EmitRule(ruleId uint8, line int) (ifrpkg.Handle, error) {
	h, _, err := e.Emit(OpRule, true, []byte{ruleId}, line)
	return h, err
}

// EmitRuleRef writes the rule-ref opcode: rule_id(u8).
func (e *Emitter) EmitRuleRef(ruleId uint8, line int) (ifrpkg.Handle, error) {
	h, _, err := e.Emit(OpRuleRef, false, []byte{ruleId}, line)
	return h, err
}

// EmitSubtitle writes the subtitle opcode: prompt(StringId) flags(u8).
func (e *Emitter) EmitSubtitle(prompt StringId, flags uint8, line int) (ifrpkg.Handle, error) {
	body := make([]byte, 3)
	putU16(body[0:2], uint16(prompt))
	body[2] = flags
	h, _, err := e.Emit(OpSubtitle, true, body, line)
	return h, err
}

// EmitText writes the text opcode: help(StringId) text_two(StringId)
// text_one(StringId).
func (e *Emitter) EmitText(help, textTwo, textOne StringId, line int) (ifrpkg.Handle, error) {
	body := make([]byte, 6)
	putU16(body[0:2], uint16(help))
	putU16(body[2:4], uint16(textTwo))
	putU16(body[4:6], uint16(textOne))
	h, _, err := e.Emit(OpText, false, body, line)
	return h, err
}
