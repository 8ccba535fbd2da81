// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package vfrdb

import (
	"encoding/binary"

	"git.lukeshu.com/go/typedsync"

	"github.com/tianocore/edk2-sub023/lib/vfrdiag"
)

// QuestionKind distinguishes a normal single-id question from the
// three composite kinds.
type QuestionKind int

const (
	QuestionNormal QuestionKind = iota
	QuestionDate
	QuestionTime
	QuestionRef
)

// Date/time/ref sub-question bitmask bits.
const (
	BitYear   = 1 << 0
	BitMonth  = 1 << 1
	BitDay    = 1 << 2
	BitHour   = 1 << 0
	BitMinute = 1 << 1
	BitSecond = 1 << 2

	BitRefQuestionId  = 1 << 0
	BitRefFormId      = 1 << 1
	BitRefFormSetGuid = 1 << 2
	BitRefDevicePath  = 1 << 3
)

// Question is one question record. A composite question is
// represented as 3 or 4 Question values that share QuestionId but
// hold distinct Bitmask bits.
type Question struct {
	Name    string
	VarId   string
	QuestionId uint16
	Bitmask int
	Kind    QuestionKind
}

// questionPool is where allocQuestion draws every Question from (one
// per sub-field for date/time/ref composites). Registered Questions
// stay referenced by the QuestionDB and are never Put back, so Get
// finds the pool empty and a fresh Question is allocated.
var questionPool typedsync.Pool[*Question]

func allocQuestion() *Question {
	q, ok := questionPool.Get()
	if !ok || q == nil {
		return &Question{}
	}
	*q = Question{}
	return q
}

// QuestionDB maps question name and variable-id string to a question
// id.
type QuestionDB struct {
	ids      *IdRegistry
	pending  *PendingTable
	byName   map[string]*Question
	byVarId  map[string]*Question
	all      []*Question
}

// NewQuestionDB creates a QuestionDB bound to the given IdRegistry and
// PendingTable (pending entries keyed by varid are resolved as ids
// become known).
func NewQuestionDB(ids *IdRegistry, pending *PendingTable) *QuestionDB {
	return &QuestionDB{ids: ids, pending: pending, byName: map[string]*Question{}, byVarId: map[string]*Question{}}
}

// Register records a Normal question: if name is non-empty and
// already present, fails Redefined. If *id is 0 (INVALID), a fresh id
// is allocated; otherwise the id is marked used (skipped in
// compatibility mode). Triggers any PendingTable entries keyed by
// varid.
func (db *QuestionDB) Register(name, varid string, id *uint16) error {
	if name != "" {
		if _, ok := db.byName[name]; ok {
			return &vfrdiag.RedefinedError{Namespace: "question", Key: name}
		}
	}
	if *id == 0 {
		allocated, err := db.ids.Question.Alloc()
		if err != nil {
			return err
		}
		*id = uint16(allocated)
	} else if err := db.ids.MarkQuestionUsed(int(*id)); err != nil {
		return err
	}
	q := allocQuestion()
	q.Name, q.VarId, q.QuestionId, q.Kind = name, varid, *id, QuestionNormal
	db.store(q)
	db.resolvePending(varid, *id)
	return nil
}

// RegisterDate creates three Question records sharing one id with
// bitmasks Year/Month/Day.
func (db *QuestionDB) RegisterDate(varidY, varidM, varidD string, id *uint16) error {
	return db.registerComposite(QuestionDate, []string{varidY, varidM, varidD}, []int{BitYear, BitMonth, BitDay}, id)
}

// RegisterTime mirrors RegisterDate for Hour/Minute/Second.
func (db *QuestionDB) RegisterTime(varidH, varidM, varidS string, id *uint16) error {
	return db.registerComposite(QuestionTime, []string{varidH, varidM, varidS}, []int{BitHour, BitMinute, BitSecond}, id)
}

// RegisterRef creates four Question records with sub-varids
// base.QuestionId/FormId/FormSetGuid/DevicePath.
func (db *QuestionDB) RegisterRef(name, baseVarid string, id *uint16) error {
	if name != "" {
		if _, ok := db.byName[name]; ok {
			return &vfrdiag.RedefinedError{Namespace: "question", Key: name}
		}
	}
	varids := []string{baseVarid + ".QuestionId", baseVarid + ".FormId", baseVarid + ".FormSetGuid", baseVarid + ".DevicePath"}
	bits := []int{BitRefQuestionId, BitRefFormId, BitRefFormSetGuid, BitRefDevicePath}
	return db.registerCompositeNamed(QuestionRef, name, varids, bits, id)
}

func (db *QuestionDB) registerComposite(kind QuestionKind, varids []string, bits []int, id *uint16) error {
	return db.registerCompositeNamed(kind, "", varids, bits, id)
}

func (db *QuestionDB) registerCompositeNamed(kind QuestionKind, name string, varids []string, bits []int, id *uint16) error {
	if *id == 0 {
		allocated, err := db.ids.Question.Alloc()
		if err != nil {
			return err
		}
		*id = uint16(allocated)
	} else if err := db.ids.MarkQuestionUsed(int(*id)); err != nil {
		return err
	}
	for i, varid := range varids {
		q := allocQuestion()
		q.Name, q.VarId, q.QuestionId, q.Bitmask, q.Kind = "", varid, *id, bits[i], kind
		if i == 0 {
			q.Name = name
		}
		db.store(q)
		db.resolvePending(varid, *id)
	}
	return nil
}

func (db *QuestionDB) store(q *Question) {
	if q.Name != "" {
		db.byName[q.Name] = q
	}
	db.byVarId[q.VarId] = q
	db.all = append(db.all, q)
}

func (db *QuestionDB) resolvePending(varid string, id uint16) {
	if varid == "" {
		return
	}
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, id)
	db.pending.Resolve(varid, buf, 2)
}

// UpdateId re-points every Question sharing oldId to newId and re-runs
// pending patches; only used during post-processing.
func (db *QuestionDB) UpdateId(oldId, newId uint16) {
	for _, q := range db.all {
		if q.QuestionId == oldId {
			q.QuestionId = newId
			db.resolvePending(q.VarId, newId)
		}
	}
}

// LookupByName returns the Question registered under name.
func (db *QuestionDB) LookupByName(name string) (*Question, bool) {
	q, ok := db.byName[name]
	return q, ok
}

// LookupByVarId returns the Question registered under varid.
func (db *QuestionDB) LookupByVarId(varid string) (*Question, bool) {
	q, ok := db.byVarId[varid]
	return q, ok
}

// All returns every registered Question record (including each
// sub-record of a composite), in registration order.
func (db *QuestionDB) All() []*Question { return db.all }
