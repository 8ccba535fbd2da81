// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package vfrdb implements the identifier namespaces, the
// question/variable-store/default-store/rule databases, and the
// pending-patch table that back the IFR package builder.
package vfrdb

import (
	"github.com/tianocore/edk2-sub023/lib/containers"
	"github.com/tianocore/edk2-sub023/lib/vfrdiag"
)

// poolBits is the size of each namespace's bitmap: the
// form/question/varstore namespaces each cover 0x10000 ids.
const poolBits = 0x10000

// IdPool is a compact bitmap-backed free-id allocator, one per
// namespace (form, question, varstore, default-store, rule). Bit 0 is
// pre-marked used since id 0 is reserved in every namespace.
type IdPool struct {
	name string
	bits []uint64
	size int
}

// NewIdPool creates a pool covering n ids (poolBits by default) with
// id 0 pre-marked used.
func NewIdPool(name string, n int) *IdPool {
	if n <= 0 {
		n = poolBits
	}
	p := &IdPool{name: name, bits: make([]uint64, (n+63)/64), size: n}
	p.setBit(0)
	return p
}

func (p *IdPool) setBit(id int)      { p.bits[id/64] |= 1 << uint(id%64) }
func (p *IdPool) clearBit(id int)    { p.bits[id/64] &^= 1 << uint(id%64) }
func (p *IdPool) testBit(id int) bool {
	if id/64 >= len(p.bits) {
		return false
	}
	return p.bits[id/64]&(1<<uint(id%64)) != 0
}

// IsFree reports whether id is currently unallocated.
func (p *IdPool) IsFree(id int) bool { return !p.testBit(id) }

// Alloc performs a linear scan for the first zero bit, sets it, and
// returns its index. It fails only when every bit is set.
func (p *IdPool) Alloc() (int, error) {
	for w := 0; w < len(p.bits); w++ {
		if p.bits[w] == ^uint64(0) {
			continue
		}
		for b := 0; b < 64; b++ {
			id := w*64 + b
			if id >= p.size {
				break
			}
			if !p.testBit(id) {
				p.setBit(id)
				return id, nil
			}
		}
	}
	return 0, &vfrdiag.ExhaustedError{Namespace: p.name}
}

// MarkUsed marks id used, failing if it was already set (Redefined).
func (p *IdPool) MarkUsed(id int) error {
	if p.testBit(id) {
		return &vfrdiag.RedefinedError{Namespace: p.name, Key: idKey(id)}
	}
	p.setBit(id)
	return nil
}

// Free clears id's bit, allowing it to be reallocated.
func (p *IdPool) Free(id int) { p.clearBit(id) }

// AllocatedSet returns the set of currently-allocated ids, for the
// `vfrcompile dump-idregistry` diagnostic subcommand's
// lowmemjson-encoded dump.
func (p *IdPool) AllocatedSet() containers.Set[int] {
	s := containers.Set[int]{}
	for w := 0; w < len(p.bits); w++ {
		word := p.bits[w]
		if word == 0 {
			continue
		}
		for b := 0; b < 64; b++ {
			id := w*64 + b
			if word&(1<<uint(b)) != 0 {
				s.Insert(id)
			}
		}
	}
	return s
}

func idKey(id int) string {
	const hex = "0123456789abcdef"
	b := []byte{'0', 'x', hex[(id>>12)&0xF], hex[(id>>8)&0xF], hex[(id>>4)&0xF], hex[id&0xF]}
	return string(b)
}

// IdRegistry bundles the five independent id namespaces: form,
// question, varstore, default-store, rule.
type IdRegistry struct {
	Form         *IdPool
	Question     *IdPool
	VarStore     *IdPool
	DefaultStore *IdPool
	Rule         *IdPool

	// CompatMode disables redefinition checking on the question
	// namespace (framework-compatible forms reuse question ids).
	CompatMode bool
}

// NewIdRegistry creates a fresh IdRegistry with all five pools empty
// (aside from the reserved id 0).
func NewIdRegistry() *IdRegistry {
	return &IdRegistry{
		Form:         NewIdPool("form", poolBits),
		Question:     NewIdPool("question", poolBits),
		VarStore:     NewIdPool("varstore", poolBits),
		DefaultStore: NewIdPool("default-store", 0x100),
		Rule:         NewIdPool("rule", 0x100),
	}
}

// MarkQuestionUsed marks a question id used, skipping the
// redefinition check when CompatMode is set.
func (r *IdRegistry) MarkQuestionUsed(id int) error {
	if r.CompatMode {
		r.Question.setBit(id)
		return nil
	}
	return r.Question.MarkUsed(id)
}
