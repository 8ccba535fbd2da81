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

func newBuilder(t *testing.T) (*ifrpkg.ChunkedBuffer, *ifrpkg.RecordLog, *ifrcode.Emitter) {
	t.Helper()
	buf := ifrpkg.NewChunkedBuffer(64)
	log := ifrpkg.NewRecordLog(true)
	return buf, log, ifrcode.NewEmitter(buf, log)
}

func TestConsistencyCheckPassesOnFreshLog(t *testing.T) {
	t.Parallel()
	buf, log, e := newBuilder(t)
	_, err := e.EmitForm(1, 2, 10)
	require.NoError(t, err)
	_, err = e.EmitEnd(11)
	require.NoError(t, err)

	p := &vfrpost.Postprocessor{Buf: buf, Log: log}
	assert.NoError(t, p.ConsistencyCheck())
}

func TestConsistencyCheckFailsOnLengthMismatch(t *testing.T) {
	t.Parallel()
	buf, log, e := newBuilder(t)
	_, err := e.EmitForm(1, 2, 10)
	require.NoError(t, err)

	// Fabricate an extra log entry whose payload was never written into
	// buf, so the log-derived byte stream is longer than the chunk
	// chain's actual contents.
	other := ifrpkg.NewChunkedBuffer(8)
	span, rerr := other.Reserve(2)
	require.NoError(t, rerr)
	log.Register(11, span, 2, buf.Len())

	p := &vfrpost.Postprocessor{Buf: buf, Log: log}
	assert.Error(t, p.ConsistencyCheck())
}

func TestScopeOpenOfAndOpOf(t *testing.T) {
	t.Parallel()
	_, _, e := newBuilder(t)
	formHandle, err := e.EmitForm(1, 2, 10)
	require.NoError(t, err)
	assert.Equal(t, ifrcode.OpForm, vfrpost.OpOf(formHandle))
	assert.True(t, vfrpost.ScopeOpenOf(formHandle))

	guidHandle, err := e.EmitGuid(ifrcode.Guid{}, nil, 11)
	require.NoError(t, err)
	assert.False(t, vfrpost.ScopeOpenOf(guidHandle))
}

func TestMoveDynamicOpcodesRelocatesRunAndKeepsConsistency(t *testing.T) {
	t.Parallel()
	buf, log, e := newBuilder(t)
	formHandle, err := e.EmitForm(1, 2, 10)
	require.NoError(t, err)
	_, err = e.EmitSubtitle(3, 0, 11)
	require.NoError(t, err)
	insertAddr := formHandle.Offset + formHandle.Length

	// Simulate a dynamically-appended default opcode landing at the
	// tail of the log/buffer, logically belonging right after form.
	dynStart, err := e.EmitDefault(0, ifrcode.ValueTypeU8, []byte{1}, 12)
	require.NoError(t, err)

	p := &vfrpost.Postprocessor{Buf: buf, Log: log}
	require.NoError(t, p.MoveDynamicOpcodes(insertAddr, dynStart))

	var opsInOrder []ifrcode.Op
	log.Each(func(ent *ifrpkg.RecordEntry) {
		opsInOrder = append(opsInOrder, vfrpost.OpOf(ent))
	})
	assert.Equal(t, []ifrcode.Op{ifrcode.OpForm, ifrcode.OpDefault, ifrcode.OpSubtitle}, opsInOrder)
	assert.NoError(t, p.ConsistencyCheck())
}

func TestMoveDynamicOpcodesNoopWhenAlreadyInPlace(t *testing.T) {
	t.Parallel()
	buf, log, e := newBuilder(t)
	formHandle, err := e.EmitForm(1, 2, 10)
	require.NoError(t, err)

	p := &vfrpost.Postprocessor{Buf: buf, Log: log}
	require.NoError(t, p.MoveDynamicOpcodes(formHandle.Offset, formHandle))
	assert.NoError(t, p.ConsistencyCheck())
}
