// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package vfrdb

import (
	"sort"

	"github.com/tianocore/edk2-sub023/lib/ifrpkg"
)

// PendingState is the lifecycle of a PendingTable entry: created
// Pending, transitions once to Assigned, never back.
type PendingState int

const (
	Pending PendingState = iota
	Assigned
)

// PendingEntry is one buffer location that must receive a value once
// its referenced symbol becomes known.
type PendingEntry struct {
	Key        string
	PatchAddr  ifrpkg.Span
	Width      int
	SourceLine int
	Message    string
	State      PendingState
}

// PendingTable is a string-keyed multimap of locations in the package
// buffer awaiting a later-registered symbol: resolution copies
// min(width, entry.Width) bytes of the value into every Pending entry
// matching the key.
type PendingTable struct {
	byKey map[string][]*PendingEntry
}

// NewPendingTable creates an empty PendingTable.
func NewPendingTable() *PendingTable {
	return &PendingTable{byKey: map[string][]*PendingEntry{}}
}

// Add records a new Pending entry keyed by key.
func (t *PendingTable) Add(key string, addr ifrpkg.Span, width int, line int, message string) *PendingEntry {
	e := &PendingEntry{Key: key, PatchAddr: addr, Width: width, SourceLine: line, Message: message, State: Pending}
	t.byKey[key] = append(t.byKey[key], e)
	return e
}

// Resolve copies value (little-endian, already-encoded bytes) into
// every Pending entry registered under key, truncating to
// min(width, entry.Width), and marks each Assigned.
func (t *PendingTable) Resolve(key string, value []byte, width int) {
	for _, e := range t.byKey[key] {
		if e.State != Pending {
			continue
		}
		n := width
		if e.Width < n {
			n = e.Width
		}
		if n > len(value) {
			n = len(value)
		}
		copy(e.PatchAddr.Bytes(), value[:n])
		e.State = Assigned
	}
}

// Unassigned returns every entry still Pending, sorted by key (stable
// order within a key), for end-of-parse reporting.
func (t *PendingTable) Unassigned() []*PendingEntry {
	keys := make([]string, 0, len(t.byKey))
	for k := range t.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []*PendingEntry
	for _, k := range keys {
		for _, e := range t.byKey[k] {
			if e.State == Pending {
				out = append(out, e)
			}
		}
	}
	return out
}
