// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package ifrpkg

// Handle identifies a RecordLog entry. INVALID is returned by
// Register when the log has been toggled off.
type Handle = *RecordEntry

// INVALID is the zero Handle, returned by Register when logging is
// disabled.
var INVALID Handle

// RecordEntry is one opcode's log entry: its source line, its current
// live location, and its neighbours in declaration order. PayloadPtr
// tracks the live byte location even after post-parse reorderings.
type RecordEntry struct {
	SourceLine int
	Offset     int
	Length     int
	PayloadPtr Span

	list       *RecordLog
	prev, next *RecordEntry
}

// RecordLog is an ordered, singly-(for iteration)/doubly-(for splice)
// linked list of opcode log entries.
type RecordLog struct {
	head, tail *RecordEntry
	count      int
	enabled    bool
}

// NewRecordLog creates a RecordLog. Pass enabled=false to build a
// no-op log: every mutator becomes a no-op and Register returns
// INVALID.
func NewRecordLog(enabled bool) *RecordLog {
	return &RecordLog{enabled: enabled}
}

// Enabled reports whether the log is active.
func (l *RecordLog) Enabled() bool { return l.enabled }

// Len returns the number of entries currently in the log.
func (l *RecordLog) Len() int { return l.count }

// Head returns the first entry, or nil if the log is empty.
func (l *RecordLog) Head() *RecordEntry { return l.head }

// Next returns the entry following e in declaration order, or nil.
func (e *RecordEntry) Next() *RecordEntry { return e.next }

// Prev returns the entry preceding e in declaration order, or nil.
func (e *RecordEntry) Prev() *RecordEntry { return e.prev }

// Register appends a new entry to the end of the log.
func (l *RecordLog) Register(line int, addr Span, length, offset int) Handle {
	if !l.enabled {
		return INVALID
	}
	e := &RecordEntry{SourceLine: line, Offset: offset, Length: length, PayloadPtr: addr, list: l}
	if l.tail == nil {
		l.head, l.tail = e, e
	} else {
		e.prev = l.tail
		l.tail.next = e
		l.tail = e
	}
	l.count++
	return e
}

// Update overwrites the fields of an existing entry in place.
func (l *RecordLog) Update(h Handle, line int, addr Span, length, offset int) {
	if !l.enabled || h == nil {
		return
	}
	h.SourceLine, h.PayloadPtr, h.Length, h.Offset = line, addr, length, offset
}

// FindByOffset returns the entry whose Offset equals offset, or nil.
func (l *RecordLog) FindByOffset(offset int) *RecordEntry {
	for e := l.head; e != nil; e = e.next {
		if e.Offset == offset {
			return e
		}
	}
	return nil
}

// RecomputeOffsets re-walks the list, rewriting each entry's Offset
// as the running sum of the prior entries' lengths, restoring the
// invariant that Offset equals cumulative declaration-order length
// after a splice.
func (l *RecordLog) RecomputeOffsets() {
	off := 0
	for e := l.head; e != nil; e = e.next {
		e.Offset = off
		off += e.Length
	}
}

// Splice detaches the contiguous run [a..b] (inclusive, a and b must
// both be entries of this log, with a not later than b) and
// reinserts it immediately before insertionPoint. If insertionPoint
// is nil, the run is reinserted at the end of the log. The caller
// must call RecomputeOffsets afterward.
func (l *RecordLog) Splice(a, b, insertionPoint *RecordEntry) {
	if !l.enabled || a == nil || b == nil {
		return
	}
	// Unlink [a..b].
	before, after := a.prev, b.next
	if before != nil {
		before.next = after
	} else {
		l.head = after
	}
	if after != nil {
		after.prev = before
	} else {
		l.tail = before
	}
	a.prev, b.next = nil, nil

	// Reinsert before insertionPoint (or at tail).
	if insertionPoint == nil {
		if l.tail == nil {
			l.head, l.tail = a, b
		} else {
			l.tail.next = a
			a.prev = l.tail
			l.tail = b
		}
		return
	}
	if insertionPoint.prev != nil {
		insertionPoint.prev.next = a
		a.prev = insertionPoint.prev
	} else {
		l.head = a
		a.prev = nil
	}
	b.next = insertionPoint
	insertionPoint.prev = b
}

// Each calls fn for every entry in declaration order.
func (l *RecordLog) Each(fn func(*RecordEntry)) {
	for e := l.head; e != nil; e = e.next {
		fn(e)
	}
}
