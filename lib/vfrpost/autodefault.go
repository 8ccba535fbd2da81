// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package vfrpost

import (
	"github.com/tianocore/edk2-sub023/lib/ifrcode"
	"github.com/tianocore/edk2-sub023/lib/ifrpkg"
	"github.com/tianocore/edk2-sub023/lib/vfrdb"
	"github.com/tianocore/edk2-sub023/lib/vfrdiag"
)

// QuestionDefaultReport is the per-question scan result: which
// default-store ids the question already carries a default for, and
// where/how to synthesize the rest.
type QuestionDefaultReport struct {
	Present          map[uint16]bool
	SmallestPresent  uint16
	HasAny           bool
	OneOfDefaultValue []byte // EmitOneOfOption's value, if origin is a one-of
	OneOfDefaultType ifrcode.ValueType
	IsCheckbox       bool
	IsOneOf          bool
	ExplicitDefaults map[uint16][]byte // default_id -> raw value bytes, for explicit `default` origin
	ExplicitType     ifrcode.ValueType

	// ExprDefaults maps default_id -> the default_2 record whose
	// nested expression run [record..matching end] is replicated for
	// each synthesized id.
	ExprDefaults map[uint16]*ifrpkg.RecordEntry
}

// ScanQuestionDefaults walks a question's scope starting at its
// header record up to (and including) its matching end, noting
// one-of-option default/default-mfg flag bits, checkbox
// default/default-mfg flag bits, and explicit `default` opcodes.
func ScanQuestionDefaults(start *ifrpkg.RecordEntry) *QuestionDefaultReport {
	r := &QuestionDefaultReport{
		Present:          map[uint16]bool{},
		ExplicitDefaults: map[uint16][]byte{},
		ExprDefaults:     map[uint16]*ifrpkg.RecordEntry{},
	}
	depth := 0
	for e := start; e != nil; e = e.Next() {
		b := e.PayloadPtr.Bytes()
		if e != start && ScopeOpenOf(e) {
			depth++
		}
		switch OpOf(e) {
		case ifrcode.OpOneOfOption:
			r.IsOneOf = true
			if len(b) >= 6 {
				flags := ifrcode.OneOfOptionFlags(b[4])
				typ := ifrcode.ValueType(b[5])
				val := b[6:]
				if flags&ifrcode.OptionFlagDefault != 0 {
					r.mark(vfrdb.DefaultIdStandard, val, typ)
				}
				if flags&ifrcode.OptionFlagDefaultMfg != 0 {
					r.mark(vfrdb.DefaultIdManufacturing, val, typ)
				}
			}
		case ifrcode.OpCheckBox:
			r.IsCheckbox = true
			if len(b) >= 2+ifrcode.QuestionHeaderSize+1 {
				flags := ifrcode.CheckBoxFlags(b[2+ifrcode.QuestionHeaderSize])
				trueVal := []byte{1}
				if flags&ifrcode.CheckBoxFlagDefault != 0 {
					r.mark(vfrdb.DefaultIdStandard, trueVal, ifrcode.ValueTypeBool)
				}
				if flags&ifrcode.CheckBoxFlagDefaultMfg != 0 {
					r.mark(vfrdb.DefaultIdManufacturing, trueVal, ifrcode.ValueTypeBool)
				}
			}
		case ifrcode.OpDefault:
			if len(b) == ifrcode.DefaultExprSize {
				// default_2: the value is produced by the nested
				// expression; remember the record so synthesis can
				// replicate the whole run.
				id := uint16(b[2]) | uint16(b[3])<<8
				typ := ifrcode.ValueType(b[4])
				r.ExplicitType = typ
				r.ExprDefaults[id] = e
				r.mark(id, nil, typ)
			} else if len(b) >= 6 {
				id := uint16(b[2]) | uint16(b[3])<<8
				typ := ifrcode.ValueType(b[4])
				val := append([]byte(nil), b[5:]...)
				r.ExplicitType = typ
				r.ExplicitDefaults[id] = val
				r.mark(id, val, typ)
			}
		case ifrcode.OpEnd:
			if e != start {
				depth--
				if depth < 0 {
					return r
				}
			}
		}
	}
	return r
}

func (r *QuestionDefaultReport) mark(id uint16, val []byte, typ ifrcode.ValueType) {
	if !r.Present[id] {
		r.Present[id] = true
		if !r.HasAny || id < r.SmallestPresent {
			r.SmallestPresent = id
		}
		r.HasAny = true
	}
	r.OneOfDefaultValue, r.OneOfDefaultType = val, typ
}

// CopyValue returns the value SynthesizeMissingDefaults will replicate
// into each synthesized default opcode, or nil when the source default
// is expression-valued (the value only exists at runtime).
func (r *QuestionDefaultReport) CopyValue() []byte {
	if r.IsOneOf || r.IsCheckbox {
		return r.OneOfDefaultValue
	}
	return r.ExplicitDefaults[r.SmallestPresent]
}

// Missing returns the default-store ids active in the compiled form
// that r has no default for.
func (r *QuestionDefaultReport) Missing(activeIds []uint16) []uint16 {
	var out []uint16
	for _, id := range activeIds {
		if !r.Present[id] {
			out = append(out, id)
		}
	}
	return out
}

// SynthesizeMissingDefaults emits the missing `default` opcodes for
// one question:
//   - one-of origin: replicate the chosen option's value;
//   - checkbox origin: synthesize TRUE;
//   - explicit-`default`-opcode origin: copy type+value for each
//     missing id; if the source default is the expression-valued
//     default_2 variant, copy its expression opcodes up to their
//     matching end instead.
//
// The synthesized opcodes are appended to the emitter's current
// position (end of buffer); the caller is responsible for relocating
// them into place via Postprocessor.MoveDynamicOpcodes.
func SynthesizeMissingDefaults(e *ifrcode.Emitter, r *QuestionDefaultReport, missing []uint16, line int) (*ifrpkg.RecordEntry, error) {
	var first *ifrpkg.RecordEntry
	emit := func(id uint16, typ ifrcode.ValueType, val []byte) error {
		h, err := e.EmitDefault(id, typ, val, line)
		if err != nil {
			return err
		}
		if first == nil {
			first = h
		}
		return nil
	}
	switch {
	case r.IsOneOf, r.IsCheckbox:
		for _, id := range missing {
			if err := emit(id, r.OneOfDefaultType, r.OneOfDefaultValue); err != nil {
				return nil, err
			}
		}
	default:
		// Explicit-default origin: copy the smallest present
		// default's value/type for every id we lack one for.
		if src, ok := r.ExprDefaults[r.SmallestPresent]; ok {
			for _, id := range missing {
				h, err := e.EmitDefaultExpr(id, r.ExplicitType, line)
				if err != nil {
					return nil, err
				}
				if first == nil {
					first = h
				}
				if err := copyExpressionRun(e, src, line); err != nil {
					return nil, err
				}
			}
			return first, nil
		}
		val := r.ExplicitDefaults[r.SmallestPresent]
		for _, id := range missing {
			if err := emit(id, r.ExplicitType, val); err != nil {
				return nil, err
			}
		}
	}
	return first, nil
}

// copyExpressionRun re-emits the opcode run nested inside src (a
// default_2 record), up to and including the end that closes src's
// scope. Each record is re-emitted through the emitter so lengths,
// log entries, and the scope counter stay accounted for.
func copyExpressionRun(e *ifrcode.Emitter, src *ifrpkg.RecordEntry, line int) error {
	depth := 1
	for ent := src.Next(); ent != nil; ent = ent.Next() {
		b := ent.PayloadPtr.Bytes()
		op := ifrcode.Op(b[0])
		if op == ifrcode.OpEnd {
			if _, err := e.EmitEnd(line); err != nil {
				return err
			}
			depth--
			if depth == 0 {
				return nil
			}
			continue
		}
		open := ScopeOpenOf(ent)
		if _, _, err := e.Emit(op, open, b[2:], line); err != nil {
			return err
		}
		if open {
			depth++
		}
	}
	return &vfrdiag.AdjustFailureError{Step: "default-expression-copy", Detail: "unterminated expression scope"}
}
