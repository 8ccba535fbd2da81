// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package vfrdiag_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tianocore/edk2-sub023/lib/vfrdiag"
)

func TestLineMapResolve(t *testing.T) {
	t.Parallel()
	var m vfrdiag.LineMap

	file, line := m.Resolve(5)
	assert.Equal(t, "", file)
	assert.Equal(t, 5, line)

	m.AddBreak(vfrdiag.LineBreak{CumulativeLine: 1, File: "a.vfr", FileLine: 1})
	m.AddBreak(vfrdiag.LineBreak{CumulativeLine: 10, File: "b.vfr", FileLine: 1})

	file, line = m.Resolve(1)
	assert.Equal(t, "a.vfr", file)
	assert.Equal(t, 1, line)

	file, line = m.Resolve(5)
	assert.Equal(t, "a.vfr", file)
	assert.Equal(t, 5, line)

	file, line = m.Resolve(10)
	assert.Equal(t, "b.vfr", file)
	assert.Equal(t, 1, line)

	file, line = m.Resolve(15)
	assert.Equal(t, "b.vfr", file)
	assert.Equal(t, 6, line)
}

func TestCodeString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "REDEFINED", vfrdiag.CodeRedefined.String())
	assert.Equal(t, "CONSISTENCY_MISMATCH", vfrdiag.CodeConsistencyMismatch.String())
	assert.Contains(t, vfrdiag.Code(999).String(), "Code(999)")
}
