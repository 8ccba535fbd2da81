// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package vfrdiag carries the VFR compiler's diagnostic taxonomy: a
// numeric code plus name table, a preprocessed-source line map, and
// the reported-vs-fatal error split.
package vfrdiag

import "fmt"

// Code is a VFR diagnostic code, one per distinct failure kind.
type Code int

const (
	CodeUnknown Code = iota
	CodeSyntax
	CodeRedefined
	CodeUndefined
	CodeExhausted
	CodeFlagsUnsupported
	CodeDatumShape
	CodePendingUnassigned
	CodeAdjustFailure
	CodeConsistencyMismatch
)

var codeNames = [...]string{
	CodeUnknown:             "UNKNOWN",
	CodeSyntax:              "SYNTAX",
	CodeRedefined:           "REDEFINED",
	CodeUndefined:           "UNDEFINED",
	CodeExhausted:           "EXHAUSTED",
	CodeFlagsUnsupported:    "FLAGS_UNSUPPORTED",
	CodeDatumShape:          "DATUM_SHAPE",
	CodePendingUnassigned:   "PENDING_UNASSIGNED",
	CodeAdjustFailure:       "ADJUST_FAILURE",
	CodeConsistencyMismatch: "CONSISTENCY_MISMATCH",
}

// String implements fmt.Stringer via the fixed name table.
func (c Code) String() string {
	if int(c) < 0 || int(c) >= len(codeNames) || codeNames[c] == "" {
		return fmt.Sprintf("Code(%d)", int(c))
	}
	return codeNames[c]
}

// Diagnostic is a single reported problem: a code, the file/line it
// was attributed to, and a human-readable message.
type Diagnostic struct {
	Code     Code
	File     string
	Line     int
	Message  string
	Warning  bool
}

func (d *Diagnostic) Error() string {
	kind := "error"
	if d.Warning {
		kind = "warning"
	}
	return fmt.Sprintf("%s:%d: %s %s: %s", d.File, d.Line, kind, d.Code, d.Message)
}
