// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package vfrpost

import (
	"encoding/binary"

	"github.com/tianocore/edk2-sub023/lib/ifrcode"
	"github.com/tianocore/edk2-sub023/lib/ifrpkg"
)

// AdjustRecordList performs the two framework-compatibility rewrites,
// each run to a fixed point, restarting from the list head after
// every successful move (a later splice can expose a new top-level
// inconsistent-if that a single pass would miss), then calls
// RecomputeOffsets once.
func (p *Postprocessor) AdjustRecordList(lateCheckQuestions map[uint16]bool) {
	if !p.CompatMode {
		return
	}
	moved := false
	for p.moveOneInconsistentIf(lateCheckQuestions) {
		moved = true
	}
	for p.moveOneLateVarStoreRun() {
		moved = true
	}
	p.Log.RecomputeOffsets()
	if moved {
		// The splices reordered the record list only; re-materialize
		// the chunk chain in the new declaration order so the package
		// bytes match the log again.
		p.rebuildBuffer()
	}
}

// moveOneInconsistentIf finds ONE top-level inconsistent-if (scope
// counter 0 at emission, i.e. not nested inside anything) whose body
// references a question via a nested eq-id-* opcode, and splices its
// whole [inconsistent-if..end] run immediately after that question's
// own emission (or, for date/time composites, after the first
// trailing default). If the referenced question has LATE_CHECK set,
// the opcode is rewritten in place to no-submit-if. Returns true if a
// move was made (caller loops until false == fixed point).
func (p *Postprocessor) moveOneInconsistentIf(lateCheckQuestions map[uint16]bool) bool {
	for e := p.Log.Head(); e != nil; e = e.Next() {
		if OpOf(e) != ifrcode.OpInconsistentIf {
			continue
		}
		if !topLevelAtEmission(p.Log, e) {
			continue
		}
		end := matchingEnd(e)
		if end == nil {
			continue
		}
		qid, ok := findEqIdQuestion(e, end)
		if !ok {
			continue
		}
		target := findQuestionRecord(p.Log, qid)
		if target == nil {
			continue
		}
		if lateCheckQuestions[qid] {
			rewriteOpToNoSubmitIf(e)
		}
		insertAfter := firstDefaultFollowing(target)
		p.Log.Splice(e, end, insertAfter.Next())
		return true
	}
	return false
}

// moveOneLateVarStoreRun finds a run of consecutive varstore/
// varstore-efi opcodes terminated by an end (meaning the run was
// parsed after the formset body had already closed) and splices it
// before the first form opcode. Returns true if a move was made.
func (p *Postprocessor) moveOneLateVarStoreRun() bool {
	var runStart *ifrpkg.RecordEntry
	for e := p.Log.Head(); e != nil; e = e.Next() {
		op := OpOf(e)
		if op == ifrcode.OpVarStore || op == ifrcode.OpVarStoreEfi {
			if runStart == nil {
				runStart = e
			}
			continue
		}
		if op == ifrcode.OpEnd && runStart != nil {
			firstForm := findFirstForm(p.Log)
			if firstForm == nil || firstForm == runStart {
				runStart = nil
				continue
			}
			// Confirm the run genuinely comes after the first form
			// (i.e. was parsed late); otherwise it's already in place.
			if afterInDeclOrder(firstForm, runStart) {
				runEnd := e.Prev()
				p.Log.Splice(runStart, runEnd, firstForm)
				return true
			}
			runStart = nil
			continue
		}
		runStart = nil
	}
	return false
}

func afterInDeclOrder(anchor, candidate *ifrpkg.RecordEntry) bool {
	for e := anchor.Next(); e != nil; e = e.Next() {
		if e == candidate {
			return true
		}
	}
	return false
}

func findFirstForm(log *ifrpkg.RecordLog) *ifrpkg.RecordEntry {
	for e := log.Head(); e != nil; e = e.Next() {
		if OpOf(e) == ifrcode.OpForm {
			return e
		}
	}
	return nil
}

// topLevelAtEmission reports whether e sits outside every other
// opcode's scope, by walking from the list head and tracking nesting
// depth. e's own header scope bit can't be used for this: it's the OR
// of "this opcode opens its own scope" with "the outer scope counter
// is nonzero", so for an opcode that always opens its own scope (like
// inconsistent-if) the bit is set regardless of nesting.
func topLevelAtEmission(log *ifrpkg.RecordLog, e *ifrpkg.RecordEntry) bool {
	depth := 0
	for cur := log.Head(); cur != nil && cur != e; cur = cur.Next() {
		if ScopeOpenOf(cur) {
			depth++
		} else if OpOf(cur) == ifrcode.OpEnd {
			depth--
		}
	}
	return depth == 0
}

// ScopeEnd returns the `end` entry matching start, if start opens a
// scope, or nil if it doesn't (e.g. a guid record, which carries no
// nested scope of its own).
func ScopeEnd(start *ifrpkg.RecordEntry) *ifrpkg.RecordEntry {
	if !ScopeOpenOf(start) {
		return nil
	}
	return matchingEnd(start)
}

// matchingEnd walks forward from a scope-open entry, tracking nested
// scope depth, and returns the `end` entry that closes it.
func matchingEnd(open *ifrpkg.RecordEntry) *ifrpkg.RecordEntry {
	depth := 1
	for e := open.Next(); e != nil; e = e.Next() {
		if ScopeOpenOf(e) {
			depth++
			continue
		}
		if OpOf(e) == ifrcode.OpEnd {
			depth--
			if depth == 0 {
				return e
			}
		}
	}
	return nil
}

// findEqIdQuestion looks, within [open..end)'s own scope (one level
// deep), for an eq-id-* opcode and reads its question_id.
func findEqIdQuestion(open, end *ifrpkg.RecordEntry) (uint16, bool) {
	for e := open.Next(); e != nil && e != end; e = e.Next() {
		switch OpOf(e) {
		case ifrcode.OpEqIdVal, ifrcode.OpEqIdId, ifrcode.OpEqIdValList:
			b := e.PayloadPtr.Bytes()
			if len(b) >= 4 {
				return binary.LittleEndian.Uint16(b[2:4]), true
			}
		}
	}
	return 0, false
}

// findQuestionRecord searches the whole list for a question-header
// opcode carrying question_id == qid.
func findQuestionRecord(log *ifrpkg.RecordLog, qid uint16) *ifrpkg.RecordEntry {
	for e := log.Head(); e != nil; e = e.Next() {
		switch OpOf(e) {
		case ifrcode.OpNumeric, ifrcode.OpOneOf, ifrcode.OpCheckBox,
			ifrcode.OpOrderedList, ifrcode.OpDate, ifrcode.OpTime, ifrcode.OpRef:
			b := e.PayloadPtr.Bytes()
			if len(b) >= 2+ifrcode.QuestionHeaderSize && binary.LittleEndian.Uint16(b[6:8]) == qid {
				return e
			}
		}
	}
	return nil
}

// firstDefaultFollowing returns the first trailing `default` opcode
// immediately after target (date/time questions are immediately
// followed by per-sub-question defaults), or target itself if there
// is none. At most one step: a longer default run does not push the
// splice point further.
func firstDefaultFollowing(target *ifrpkg.RecordEntry) *ifrpkg.RecordEntry {
	if e := target.Next(); e != nil && OpOf(e) == ifrcode.OpDefault {
		return e
	}
	return target
}

// rewriteOpToNoSubmitIf mutates the live opcode byte of an
// inconsistent-if record to no-submit-if in place.
func rewriteOpToNoSubmitIf(e *ifrpkg.RecordEntry) {
	b := e.PayloadPtr.Bytes()
	if len(b) > 0 {
		b[0] = byte(ifrcode.OpNoSubmitIf)
	}
}
