// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package vfrbuild ties together every IFR package-builder subsystem
// into a single Builder context value threaded explicitly through
// every parser callback.
package vfrbuild

import (
	"context"

	"github.com/datawire/dlib/dlog"

	"github.com/tianocore/edk2-sub023/lib/ifrcode"
	"github.com/tianocore/edk2-sub023/lib/ifrpkg"
	"github.com/tianocore/edk2-sub023/lib/vfrdb"
	"github.com/tianocore/edk2-sub023/lib/vfrdiag"
	"github.com/tianocore/edk2-sub023/lib/vfrpost"
	"github.com/tianocore/edk2-sub023/lib/vfrtype"
)

// Config controls the builder's optional behaviors; cmd/vfrcompile
// builds it directly from its flags.
type Config struct {
	CompatMode       bool
	WarningsAsErrors bool
	ChunkSize        int
	RecordLogEnabled bool
}

// Builder is the single context value threaded through every parser
// callback. It owns the ChunkedBuffer, the RecordLog, the Emitter,
// and every database.
type Builder struct {
	Config Config

	Buf     *ifrpkg.ChunkedBuffer
	Log     *ifrpkg.RecordLog
	Emit    *ifrcode.Emitter
	Ids     *vfrdb.IdRegistry
	Types   *vfrtype.TypeDB
	Vars    *vfrdb.VarStoreDB
	Defaults *vfrdb.DefaultStoreDB
	Rules   *vfrdb.RuleDB
	Pending *vfrdb.PendingTable
	Questions *vfrdb.QuestionDB

	AltConfig *vfrdb.BufferAltConfig
	Diag      *vfrdiag.Handler
}

// New creates a Builder with every subsystem wired together per cfg.
func New(cfg Config) *Builder {
	ids := vfrdb.NewIdRegistry()
	ids.CompatMode = cfg.CompatMode
	pending := vfrdb.NewPendingTable()

	buf := ifrpkg.NewChunkedBuffer(cfg.ChunkSize)
	log := ifrpkg.NewRecordLog(cfg.RecordLogEnabled)

	b := &Builder{
		Config:    cfg,
		Buf:       buf,
		Log:       log,
		Emit:      ifrcode.NewEmitter(buf, log),
		Ids:       ids,
		Types:     vfrtype.NewTypeDB(),
		Vars:      vfrdb.NewVarStoreDB(ids),
		Defaults:  vfrdb.NewDefaultStoreDB(ids),
		Rules:     vfrdb.NewRuleDB(),
		Pending:   pending,
		Questions: vfrdb.NewQuestionDB(ids, pending),
		AltConfig: &vfrdb.BufferAltConfig{},
		Diag:      &vfrdiag.Handler{WarningsAsErrors: cfg.WarningsAsErrors, Lines: &vfrdiag.LineMap{}},
	}
	return b
}

// Postprocessor returns a vfrpost.Postprocessor bound to this
// builder's buffer/log, ready to run at end-of-parse.
func (b *Builder) Postprocessor() *vfrpost.Postprocessor {
	return &vfrpost.Postprocessor{Buf: b.Buf, Log: b.Log, CompatMode: b.Config.CompatMode}
}

// Finish runs the end-of-parse sequence: auto-default synthesis,
// dynamic-opcode relocation, the compatibility-mode record-list
// adjustment, and finally the consistency check. It returns a
// PendingUnassignedError if any PendingTable entry never resolved.
func (b *Builder) Finish(ctx context.Context, lateCheckQuestions map[uint16]bool) error {
	p := b.Postprocessor()

	if err := b.synthesizeAutoDefaults(dlog.WithField(ctx, "vfrcompile.postprocess.pass", "autodefault"), p); err != nil {
		return err
	}

	p.AdjustRecordList(lateCheckQuestions)

	if err := p.ConsistencyCheck(); err != nil {
		b.Diag.Error(ctx, vfrdiag.CodeConsistencyMismatch, 0, "%s", err)
		return err
	}

	for _, pe := range b.Pending.Unassigned() {
		err := &vfrdiag.PendingUnassignedError{Key: pe.Key, Line: pe.SourceLine, Message: pe.Message}
		b.Diag.Error(ctx, vfrdiag.CodePendingUnassigned, pe.SourceLine, "%s", err)
		return err
	}
	return nil
}
