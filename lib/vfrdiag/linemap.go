// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package vfrdiag

import "sort"

// LineBreak is one `# lineno "file"` marker left by the C
// preprocessor in the preprocessed VFR source, associating a
// cumulative line number in the preprocessed stream with a line in
// an original source file.
type LineBreak struct {
	CumulativeLine int
	File           string
	FileLine       int
}

// LineMap resolves a cumulative preprocessed-source line number back
// to the (file, line) the parser's diagnostics should report.
//
// Breaks must be added in increasing CumulativeLine order; Resolve
// binary-searches the accumulated slice.
type LineMap struct {
	breaks []LineBreak
}

// AddBreak records a new `# lineno "file"` marker.
func (m *LineMap) AddBreak(b LineBreak) {
	m.breaks = append(m.breaks, b)
}

// Resolve maps a cumulative line number to the (file, line) it falls
// under, per the most recent break at or before that line. If no
// break has been recorded yet, it returns ("", cumulative).
func (m *LineMap) Resolve(cumulative int) (file string, line int) {
	if len(m.breaks) == 0 {
		return "", cumulative
	}
	i := sort.Search(len(m.breaks), func(i int) bool {
		return m.breaks[i].CumulativeLine > cumulative
	})
	if i == 0 {
		return "", cumulative
	}
	b := m.breaks[i-1]
	return b.File, b.FileLine + (cumulative - b.CumulativeLine)
}
