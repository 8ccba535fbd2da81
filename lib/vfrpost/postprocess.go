// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package vfrpost implements the end-of-parse postprocessor:
// dynamic-opcode relocation, framework-compatibility record-list
// adjustment, auto-default scanning/synthesis, and the final
// consistency check.
package vfrpost

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/tianocore/edk2-sub023/lib/ifrcode"
	"github.com/tianocore/edk2-sub023/lib/ifrpkg"
	"github.com/tianocore/edk2-sub023/lib/vfrdiag"
)

// Postprocessor runs the end-of-parse fixups over a single builder's
// ChunkedBuffer/RecordLog.
type Postprocessor struct {
	Buf *ifrpkg.ChunkedBuffer
	Log *ifrpkg.RecordLog

	// CompatMode enables the framework-compatibility record-list
	// adjustment rewrites (inconsistent-if relocation, late-varstore
	// relocation); without it only dynamic-opcode relocation and the
	// consistency check run.
	CompatMode bool
}

// MoveDynamicOpcodes relocates a run of opcodes that were emitted
// physically after the region they logically belong to (e.g.
// auto-default synthesis appending into an already-closed scope).
//
// insertAddr is the physical position where the opcodes logically
// belong; the dynamic run is the record-log entries from
// dynamicStart to the end of the log (inclusive). Both the chunk
// chain and the record log are adjusted; RecomputeOffsets is called
// once at the end, and every moved entry's PayloadPtr is corrected to
// its new physical location.
func (p *Postprocessor) MoveDynamicOpcodes(insertAddr int, dynamicStart *ifrpkg.RecordEntry) error {
	if dynamicStart == nil {
		return nil
	}
	target := p.Log.FindByOffset(insertAddr)
	if target == nil {
		return &vfrdiag.AdjustFailureError{Step: "dynamic-opcode-move", Detail: "insert anchor not found"}
	}
	if target == dynamicStart {
		return nil // already in place
	}

	// Record-list move: unlink [dynamicStart..tail] and relink before
	// target (the logical position).
	tail := lastEntry(dynamicStart)
	p.Log.Splice(dynamicStart, tail, target)
	p.Log.RecomputeOffsets()

	// Buffer-side move: re-materialize the chunk chain in the new
	// declaration order so ChunkedBuffer.Bytes() matches the record
	// log. PayloadPtr is the only live reference to a record's bytes,
	// so rebuilding from the now-correctly-ordered record log moves
	// the byte ranges without leaving dangling pointers.
	p.rebuildBuffer()
	return nil
}

func lastEntry(e *ifrpkg.RecordEntry) *ifrpkg.RecordEntry {
	for e.Next() != nil {
		e = e.Next()
	}
	return e
}

func collectBytes(from, to *ifrpkg.RecordEntry) []byte {
	var buf bytes.Buffer
	for e := from; e != nil; e = e.Next() {
		buf.Write(e.PayloadPtr.Bytes())
		if e == to {
			break
		}
	}
	return buf.Bytes()
}

// rebuildBuffer replaces the ChunkedBuffer's contents with a single
// fresh chunk chain holding the record log's entries concatenated in
// their current (possibly just-spliced) order, and repoints every
// entry's PayloadPtr at its new location. This keeps
// ChunkedBuffer.Bytes() and the record-log-derived byte stream
// trivially consistent after a splice, which is what ConsistencyCheck
// verifies.
func (p *Postprocessor) rebuildBuffer() {
	var all []byte
	var lens []int
	p.Log.Each(func(e *ifrpkg.RecordEntry) {
		all = append(all, e.PayloadPtr.Bytes()...)
		lens = append(lens, e.Length)
	})

	fresh := ifrpkg.NewChunkedBuffer(p.Buf.ChunkCapacity())
	off := 0
	i := 0
	p.Log.Each(func(e *ifrpkg.RecordEntry) {
		n := lens[i]
		span, err := fresh.Reserve(n)
		if err == nil {
			copy(span.Bytes(), all[off:off+n])
			e.PayloadPtr = span
		}
		off += n
		i++
	})
	p.Buf.ReplaceWith(fresh)
}

// ConsistencyCheck builds two byte vectors, one by serializing the
// chunk chain and one by concatenating record payloads in declaration
// order, and byte-compares them. A mismatch is an internal error and
// fails the compile.
func (p *Postprocessor) ConsistencyCheck() error {
	fromChunks := p.Buf.Bytes()
	fromLog := collectBytes(p.Log.Head(), nil)
	n := len(fromChunks)
	if len(fromLog) < n {
		n = len(fromLog)
	}
	for i := 0; i < n; i++ {
		if fromChunks[i] != fromLog[i] {
			return errors.WithStack(&vfrdiag.ConsistencyError{Offset: i})
		}
	}
	if len(fromChunks) != len(fromLog) {
		return errors.WithStack(&vfrdiag.ConsistencyError{Offset: n})
	}
	return nil
}

// ScopeOpenOf reports whether the record e opens a scope, used by the
// record-list adjustment rewrites to walk nested scopes. For most
// opcodes this is a static property; OpDefault is the exception, with
// a non-scope value-inline shape and the scope-opening expression
// shape (default_2), discriminated by record length.
func ScopeOpenOf(e *ifrpkg.RecordEntry) bool {
	b := e.PayloadPtr.Bytes()
	if len(b) < 2 || b[1]&0x80 == 0 {
		return false
	}
	if ifrcode.Op(b[0]) == ifrcode.OpDefault {
		return len(b) == ifrcode.DefaultExprSize
	}
	return opOpensOwnScope(ifrcode.Op(b[0]))
}

func opOpensOwnScope(op ifrcode.Op) bool {
	scopeOpen, _, ok := ifrcode.Info(op)
	return ok && scopeOpen
}

// OpOf returns the opcode byte of e's payload.
func OpOf(e *ifrpkg.RecordEntry) ifrcode.Op {
	b := e.PayloadPtr.Bytes()
	if len(b) == 0 {
		return 0
	}
	return ifrcode.Op(b[0])
}
