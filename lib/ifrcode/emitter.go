// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package ifrcode

import (
	"fmt"

	"github.com/tianocore/edk2-sub023/lib/ifrpkg"
	"github.com/tianocore/edk2-sub023/lib/vfrdiag"
)

// MaxOpcodeLength is the largest value the header's 7-bit length
// field can hold.
const MaxOpcodeLength = 0x7F

// Emitter is the IFR opcode writer: it reserves bytes in a
// ChunkedBuffer, writes the 2-byte header plus opcode-specific tail,
// and registers a RecordLog entry for each emitted opcode. It also
// tracks the process-wide scope-open counter.
type Emitter struct {
	Buf   *ifrpkg.ChunkedBuffer
	Log   *ifrpkg.RecordLog
	scope int
}

// NewEmitter creates an Emitter over buf/log.
func NewEmitter(buf *ifrpkg.ChunkedBuffer, log *ifrpkg.RecordLog) *Emitter {
	return &Emitter{Buf: buf, Log: log}
}

// ScopeDepth returns the current scope-open counter, used by
// Postprocessor to recognize top-level (scope==0) opcodes.
func (e *Emitter) ScopeDepth() int { return e.scope }

// Emit reserves len(body)+2 bytes, writes the header (op, length,
// scope bit) followed by body, and registers a log entry at line. If
// scopeOpen, the scope counter is incremented after the header is
// written.
//
// The header's scope bit is the OR of "this opcode opens a scope"
// with "the outer scope counter is currently nonzero": any opcode
// emitted inside a pending scope has scope_open=1 in its own header,
// independent of whether it itself opens a new one.
func (e *Emitter) Emit(op Op, scopeOpen bool, body []byte, line int) (ifrpkg.Handle, ifrpkg.Span, error) {
	total := len(body) + 2
	if total > MaxOpcodeLength {
		return nil, ifrpkg.Span{}, &vfrdiag.ExhaustedError{Namespace: fmt.Sprintf("opcode 0x%02X length", op)}
	}
	span, err := e.Buf.Reserve(total)
	if err != nil {
		return nil, ifrpkg.Span{}, err
	}
	bs := span.Bytes()
	lengthScope := uint8(total)
	if scopeOpen || e.scope > 0 {
		lengthScope |= 0x80
	}
	bs[0] = uint8(op)
	bs[1] = lengthScope
	copy(bs[2:], body)

	offset := e.Buf.Len() - total
	h := e.Log.Register(line, span, total, offset)

	if scopeOpen {
		e.scope++
	}
	return h, span, nil
}

// EmitEnd emits the 2-byte `end` opcode. Constructing an `end`
// decrements the scope counter, so the counter is
// dropped before the header is written: an `end` that closes the
// outermost open scope carries scope_open=0, while an `end` closing an
// inner scope still sits inside a pending outer scope and carries 1.
func (e *Emitter) EmitEnd(line int) (ifrpkg.Handle, error) {
	if e.scope > 0 {
		e.scope--
	}
	h, _, err := e.Emit(OpEnd, false, nil, line)
	if err != nil {
		return nil, err
	}
	return h, nil
}

// Delayed is a scratch-buffer emitter for opcodes whose final length
// depends on setter calls made after construction (numeric, one-of,
// varstore, varstore-efi, form-map, disable-if, eq-id-list). The
// caller must call Flush on every exit path, including error paths.
type Delayed struct {
	e         *Emitter
	op        Op
	scopeOpen bool
	line      int
	body      []byte
	flushed   bool
}

// BeginDelayed starts a delayed emission of op with an initial body
// (typically the fixed-size header fields); setters append or
// overwrite bytes in Body before Flush.
func (e *Emitter) BeginDelayed(op Op, scopeOpen bool, line int, initial []byte) *Delayed {
	return &Delayed{e: e, op: op, scopeOpen: scopeOpen, line: line, body: append([]byte(nil), initial...)}
}

// Body returns the mutable scratch body; setters write into it
// directly (e.g. `copy(d.Body()[off:], value)`).
func (d *Delayed) Body() []byte { return d.body }

// Append grows the scratch body by appending more bytes (e.g. a new
// one-of-option or eq-id-list entry).
func (d *Delayed) Append(b []byte) { d.body = append(d.body, b...) }

// Shrink reduces the scratch body by n bytes from the end.
func (d *Delayed) Shrink(n int) {
	if n > len(d.body) {
		n = len(d.body)
	}
	d.body = d.body[:len(d.body)-n]
}

// Flush finalizes the length and reserves/writes the opcode in the
// package buffer. It is idempotent: calling Flush twice (e.g. once on
// the success path and once deferred for the error path) only emits
// once.
func (d *Delayed) Flush() (ifrpkg.Handle, ifrpkg.Span, error) {
	if d.flushed {
		return nil, ifrpkg.Span{}, nil
	}
	d.flushed = true
	return d.e.Emit(d.op, d.scopeOpen, d.body, d.line)
}
