// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package vfrpost_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tianocore/edk2-sub023/lib/ifrcode"
	"github.com/tianocore/edk2-sub023/lib/ifrpkg"
	"github.com/tianocore/edk2-sub023/lib/vfrpost"
)

func opSequence(log *ifrpkg.RecordLog) []ifrcode.Op {
	var out []ifrcode.Op
	log.Each(func(e *ifrpkg.RecordEntry) { out = append(out, vfrpost.OpOf(e)) })
	return out
}

// TestAdjustRecordListRelocatesInconsistentIf covers the
// inconsistent-if relocation: a top-level inconsistent-if referencing a
// question via eq-id-val is spliced inside that question's own scope,
// immediately before its closing end.
func TestAdjustRecordListRelocatesInconsistentIf(t *testing.T) {
	t.Parallel()
	buf, log, e := newBuilder(t)

	h := ifrcode.QuestionHeader{QuestionId: 5}
	_, err := e.EmitCheckBox(h, 0, 1)
	require.NoError(t, err)
	_, err = e.EmitEnd(2)
	require.NoError(t, err)

	_, err = e.EmitInconsistentIf(0, 0, 3)
	require.NoError(t, err)
	_, err = e.EmitEqIdVal(5, 1, 4)
	require.NoError(t, err)
	_, err = e.EmitEnd(5)
	require.NoError(t, err)

	p := &vfrpost.Postprocessor{Buf: buf, Log: log, CompatMode: true}
	p.AdjustRecordList(nil)

	got := opSequence(log)
	want := []ifrcode.Op{
		ifrcode.OpCheckBox,
		ifrcode.OpInconsistentIf,
		ifrcode.OpEqIdVal,
		ifrcode.OpEnd, // closes inconsistent-if
		ifrcode.OpEnd, // closes checkbox
	}
	assert.Equal(t, want, got)
}

// TestAdjustRecordListSplicesAfterFirstTrailingDefault pins the splice
// point for a question trailed by several default opcodes (the usual
// shape after auto-default synthesis): the relocated run lands after
// the FIRST trailing default, not after the whole run.
func TestAdjustRecordListSplicesAfterFirstTrailingDefault(t *testing.T) {
	t.Parallel()
	buf, log, e := newBuilder(t)

	h := ifrcode.QuestionHeader{QuestionId: 3}
	_, err := e.EmitDate(h, 1)
	require.NoError(t, err)
	_, err = e.EmitDefault(0, ifrcode.ValueTypeDate, []byte{0xE0, 0x07, 1, 1}, 2)
	require.NoError(t, err)
	_, err = e.EmitDefault(1, ifrcode.ValueTypeDate, []byte{0xE0, 0x07, 1, 1}, 3)
	require.NoError(t, err)
	_, err = e.EmitEnd(4)
	require.NoError(t, err)

	_, err = e.EmitInconsistentIf(0, 0, 5)
	require.NoError(t, err)
	_, err = e.EmitEqIdVal(3, 1, 6)
	require.NoError(t, err)
	_, err = e.EmitEnd(7)
	require.NoError(t, err)

	p := &vfrpost.Postprocessor{Buf: buf, Log: log, CompatMode: true}
	p.AdjustRecordList(nil)

	got := opSequence(log)
	want := []ifrcode.Op{
		ifrcode.OpDate,
		ifrcode.OpDefault,
		ifrcode.OpInconsistentIf,
		ifrcode.OpEqIdVal,
		ifrcode.OpEnd, // closes inconsistent-if
		ifrcode.OpDefault,
		ifrcode.OpEnd, // closes date
	}
	assert.Equal(t, want, got)
}

// TestAdjustRecordListRewritesLateCheckToNoSubmitIf covers the
// LATE_CHECK passthrough: a relocated inconsistent-if whose question
// has LATE_CHECK set is rewritten to no-submit-if in place.
func TestAdjustRecordListRewritesLateCheckToNoSubmitIf(t *testing.T) {
	t.Parallel()
	buf, log, e := newBuilder(t)

	h := ifrcode.QuestionHeader{QuestionId: 7}
	_, err := e.EmitCheckBox(h, 0, 1)
	require.NoError(t, err)
	_, err = e.EmitEnd(2)
	require.NoError(t, err)

	_, err = e.EmitInconsistentIf(0, 0, 3)
	require.NoError(t, err)
	_, err = e.EmitEqIdVal(7, 1, 4)
	require.NoError(t, err)
	_, err = e.EmitEnd(5)
	require.NoError(t, err)

	p := &vfrpost.Postprocessor{Buf: buf, Log: log, CompatMode: true}
	p.AdjustRecordList(map[uint16]bool{7: true})

	got := opSequence(log)
	assert.Contains(t, got, ifrcode.OpNoSubmitIf)
	assert.NotContains(t, got, ifrcode.OpInconsistentIf)
}

// TestAdjustRecordListRelocatesLateVarStoreRun covers the late-varstore
// relocation: a varstore declared after the formset body has already
// closed is spliced back before the first form.
func TestAdjustRecordListRelocatesLateVarStoreRun(t *testing.T) {
	t.Parallel()
	buf, log, e := newBuilder(t)

	_, err := e.EmitFormSet(ifrcode.Guid{}, 1, 2, nil, 1)
	require.NoError(t, err)
	_, err = e.EmitForm(1, 3, 2)
	require.NoError(t, err)
	_, err = e.EmitEnd(3) // closes form
	require.NoError(t, err)
	_, err = e.EmitEnd(4) // closes formset
	require.NoError(t, err)

	vs := e.BeginVarStore(ifrcode.Guid{}, 1, 4, 5)
	vs.SetName("Setup")
	_, _, err = vs.Flush()
	require.NoError(t, err)
	_, err = e.EmitEnd(6)
	require.NoError(t, err)

	p := &vfrpost.Postprocessor{Buf: buf, Log: log, CompatMode: true}
	p.AdjustRecordList(nil)

	got := opSequence(log)
	want := []ifrcode.Op{
		ifrcode.OpFormSet,
		ifrcode.OpVarStore,
		ifrcode.OpForm,
		ifrcode.OpEnd,
		ifrcode.OpEnd,
		ifrcode.OpEnd,
	}
	assert.Equal(t, want, got)
}

func TestAdjustRecordListNoopWhenCompatModeDisabled(t *testing.T) {
	t.Parallel()
	buf, log, e := newBuilder(t)
	_, err := e.EmitInconsistentIf(0, 0, 1)
	require.NoError(t, err)
	_, err = e.EmitEnd(2)
	require.NoError(t, err)

	before := opSequence(log)
	p := &vfrpost.Postprocessor{Buf: buf, Log: log, CompatMode: false}
	p.AdjustRecordList(nil)
	assert.Equal(t, before, opSequence(log))
}
