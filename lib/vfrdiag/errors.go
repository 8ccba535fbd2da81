// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package vfrdiag

import "fmt"

// RedefinedError is returned when a Form/Question/VarStore/type/
// default-store name or id is registered a second time.
type RedefinedError struct {
	Namespace string
	Key       string
}

func (e *RedefinedError) Error() string {
	return fmt.Sprintf("%s: %q is already defined", e.Namespace, e.Key)
}

// UndefinedError is returned when a varid's head does not resolve to
// a registered varstore or type.
type UndefinedError struct {
	Namespace string
	Key       string
}

func (e *UndefinedError) Error() string {
	return fmt.Sprintf("%s: %q is not defined", e.Namespace, e.Key)
}

// ExhaustedError is returned when an id bitmap pool has no free bits
// left, or a chunked-buffer allocation fails.
type ExhaustedError struct {
	Namespace string
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%s: no ids remain", e.Namespace)
}

// PendingUnassignedError is returned for any PendingTable entry still
// Pending at end-of-parse.
type PendingUnassignedError struct {
	Key     string
	Line    int
	Message string
}

func (e *PendingUnassignedError) Error() string {
	return fmt.Sprintf("line %d: unresolved reference %q: %s", e.Line, e.Key, e.Message)
}

// AdjustFailureError is returned when a Postprocessor reordering step
// cannot locate its anchor record.
type AdjustFailureError struct {
	Step   string
	Detail string
}

func (e *AdjustFailureError) Error() string {
	return fmt.Sprintf("adjust %s: %s", e.Step, e.Detail)
}

// ConsistencyError is returned by the postprocessor's final
// consistency check when the chunked-buffer bytes and the record
// log's concatenated payload disagree. This is an internal error and
// fails the compile.
type ConsistencyError struct {
	Offset int
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("internal error: record log and package buffer disagree at offset 0x%x", e.Offset)
}
