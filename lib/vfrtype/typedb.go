// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package vfrtype implements the user-defined C-like type system used
// to decode a varstore field reference (a dotted "varid" string) into
// an (offset, width, type) triple.
package vfrtype

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/tianocore/edk2-sub023/lib/vfrdiag"
)

// Kind distinguishes scalar built-ins from user-declared struct types.
type Kind int

const (
	KindScalar Kind = iota
	KindStruct
)

// Field is one member of a struct Type.
type Field struct {
	Name       string
	Type       *Type
	Offset     int // byte offset within the owning struct
	ArrayCount int // 0 means scalar (not an array)
	BitWidth   int // >0 marks a bit-field; BitOffset is then meaningful
	BitOffset  int
}

// Type is a registered built-in or user-defined type.
type Type struct {
	Name      string
	Kind      Kind
	Align     int // current alignment requirement, in bytes
	TotalSize int // in bytes
	Fields    []*Field
}

func (t *Type) fieldByName(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// TypeDB is the registry of all known types, plus the packing-
// alignment directive stack.
type TypeDB struct {
	types map[string]*Type
	pack  packStack
}

// NewTypeDB creates a TypeDB seeded with the built-in scalar and
// composite types: unsigned integers of width 1/2/4/8, boolean, Date,
// Time, Guid, and Ref.
func NewTypeDB() *TypeDB {
	db := &TypeDB{types: map[string]*Type{}}
	db.pack.push(0, 8)
	for name, size := range map[string]int{
		"UINT8": 1, "UINT16": 2, "UINT32": 4, "UINT64": 8,
	} {
		db.types[name] = &Type{Name: name, Kind: KindScalar, Align: size, TotalSize: size}
	}
	db.types["BOOLEAN"] = &Type{Name: "BOOLEAN", Kind: KindScalar, Align: 1, TotalSize: 1}

	date := &Type{Name: "EFI_HII_DATE", Kind: KindStruct, Align: 1, TotalSize: 4}
	date.Fields = []*Field{
		{Name: "Year", Type: db.types["UINT16"], Offset: 0},
		{Name: "Month", Type: db.types["UINT8"], Offset: 2},
		{Name: "Day", Type: db.types["UINT8"], Offset: 3},
	}
	db.types[date.Name] = date

	tm := &Type{Name: "EFI_HII_TIME", Kind: KindStruct, Align: 1, TotalSize: 3}
	tm.Fields = []*Field{
		{Name: "Hour", Type: db.types["UINT8"], Offset: 0},
		{Name: "Minute", Type: db.types["UINT8"], Offset: 1},
		{Name: "Second", Type: db.types["UINT8"], Offset: 2},
	}
	db.types[tm.Name] = tm

	u16, u8 := db.types["UINT16"], db.types["UINT8"]
	guid := &Type{Name: "EFI_GUID", Kind: KindStruct, Align: 1, TotalSize: 16}
	for i := 0; i < 16; i++ {
		guid.Fields = append(guid.Fields, &Field{Name: "b" + strconv.Itoa(i), Type: u8, Offset: i})
	}
	db.types[guid.Name] = guid

	ref := &Type{Name: "EFI_HII_REF", Kind: KindStruct, Align: 2, TotalSize: 2 + 2 + 16 + 2}
	ref.Fields = []*Field{
		{Name: "QuestionId", Type: u16, Offset: 0},
		{Name: "FormId", Type: u16, Offset: 2},
		{Name: "FormSetGuid", Type: guid, Offset: 4},
		{Name: "DevicePath", Type: u16, Offset: 20},
	}
	db.types[ref.Name] = ref

	return db
}

// All returns every registered type sorted by name, for the `.lst`
// trailing dump and the dump-types diagnostic subcommand.
func (db *TypeDB) All() []*Type {
	names := make([]string, 0, len(db.types))
	for name := range db.types {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]*Type, len(names))
	for i, name := range names {
		out[i] = db.types[name]
	}
	return out
}

// WriteDump writes a human-readable dump of the whole type database,
// one line per type plus one indented line per field.
func (db *TypeDB) WriteDump(w io.Writer) error {
	for _, t := range db.All() {
		if _, err := fmt.Fprintf(w, "%s size=0x%04X align=%d\n", t.Name, t.TotalSize, t.Align); err != nil {
			return err
		}
		for _, f := range t.Fields {
			suffix := ""
			if f.ArrayCount > 0 {
				suffix = fmt.Sprintf("[%d]", f.ArrayCount)
			}
			if f.BitWidth > 0 {
				suffix = fmt.Sprintf(" : %d", f.BitWidth)
			}
			if _, err := fmt.Fprintf(w, "  %s %s%s offset=0x%04X\n", f.Type.Name, f.Name, suffix, f.Offset); err != nil {
				return err
			}
		}
	}
	return nil
}

// DeclareStruct registers a new, empty named struct type ready to
// receive fields via AddField.
func (db *TypeDB) DeclareStruct(name string) (*Type, error) {
	if _, ok := db.types[name]; ok {
		return nil, &vfrdiag.RedefinedError{Namespace: "type", Key: name}
	}
	t := &Type{Name: name, Kind: KindStruct, Align: 1}
	db.types[name] = t
	return t, nil
}

// Lookup returns the type registered under name.
func (db *TypeDB) Lookup(name string) (*Type, error) {
	t, ok := db.types[name]
	if !ok {
		return nil, &vfrdiag.UndefinedError{Namespace: "type", Key: name}
	}
	return t, nil
}

// AddField appends a field to struct t: the running
// offset is aligned to min(pack_align, field_type.align), the struct's
// total size grows by fieldType.size × max(arrayCount,1), and the
// struct's own alignment is updated to min(pack_align,
// max(current_align, field_type.align)).
func (db *TypeDB) AddField(t *Type, fieldName, typeName string, arrayCount int) error {
	ft, err := db.Lookup(typeName)
	if err != nil {
		return err
	}
	packAlign := db.pack.current()
	fieldAlign := ft.Align
	align := fieldAlign
	if packAlign < align {
		align = packAlign
	}
	if align < 1 {
		align = 1
	}
	offset := t.TotalSize
	if rem := offset % align; rem != 0 {
		offset += align - rem
	}
	count := arrayCount
	if count < 1 {
		count = 1
	}
	t.Fields = append(t.Fields, &Field{
		Name: fieldName, Type: ft, Offset: offset, ArrayCount: arrayCount,
	})
	t.TotalSize = offset + ft.TotalSize*count

	newAlign := t.Align
	if fieldAlign > newAlign {
		newAlign = fieldAlign
	}
	if packAlign < newAlign {
		newAlign = packAlign
	}
	t.Align = newAlign
	return nil
}

// AddBitField appends a bit-field member: width must be <= the
// container type's bit width and <= 32.
func (db *TypeDB) AddBitField(t *Type, fieldName, containerTypeName string, bitOffset, bitWidth int) error {
	ft, err := db.Lookup(containerTypeName)
	if err != nil {
		return err
	}
	if bitWidth > 32 || bitWidth > ft.TotalSize*8 {
		return &vfrdiag.RedefinedError{Namespace: "bitfield", Key: fieldName}
	}
	t.Fields = append(t.Fields, &Field{
		Name: fieldName, Type: ft, Offset: t.TotalSize, BitWidth: bitWidth, BitOffset: bitOffset,
	})
	return nil
}

// Resolution is the (offset, width, type) triple a varid string
// resolves to.
type Resolution struct {
	Offset    int
	Width     int
	Type      *Type
	TotalSize int
	IsBitField bool
	BitOffset int
	BitWidth  int
}

// Resolve decodes a dotted varid string such as "S.field[k].sub" into
// an (offset, width, type) triple: the head segment up to '.'/'['
// names a registered struct type; each following segment is a dotted
// field name optionally subscripted by [index].
func (db *TypeDB) Resolve(varid string) (Resolution, error) {
	head, rest := splitHead(varid)
	t, err := db.Lookup(head)
	if err != nil {
		return Resolution{}, err
	}
	offset := 0
	cur := t
	for rest != "" {
		name, idx, remain := splitSegment(rest)
		f := cur.fieldByName(name)
		if f == nil {
			return Resolution{}, &vfrdiag.UndefinedError{Namespace: "field", Key: name}
		}
		elemSize := f.Type.TotalSize
		offset += f.Offset + elemSize*idx
		if f.BitWidth > 0 {
			return Resolution{
				Offset: offset, Width: f.Type.TotalSize, Type: f.Type,
				TotalSize: t.TotalSize, IsBitField: true, BitOffset: f.BitOffset, BitWidth: f.BitWidth,
			}, nil
		}
		cur = f.Type
		rest = remain
	}
	return Resolution{Offset: offset, Width: cur.TotalSize, Type: cur, TotalSize: t.TotalSize}, nil
}

func splitHead(s string) (head, rest string) {
	i := strings.IndexAny(s, ".[")
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

// splitSegment consumes a leading '.'-or-'['-delimited field name plus
// an optional [index], returning the field name, the index (0 if
// none), and the unconsumed remainder.
func splitSegment(s string) (name string, idx int, remain string) {
	s = strings.TrimPrefix(s, ".")
	i := strings.IndexAny(s, ".[")
	if i < 0 {
		return s, 0, ""
	}
	name = s[:i]
	remain = s[i:]
	if strings.HasPrefix(remain, "[") {
		end := strings.Index(remain, "]")
		idx, _ = strconv.Atoi(remain[1:end])
		remain = remain[end+1:]
	}
	return name, idx, remain
}

// packStack is a stack of numeric pack alignments, default 8.
type packStack struct {
	stack []packEntry
}

type packEntry struct {
	id    string
	align int
}

func (p *packStack) current() int {
	if len(p.stack) == 0 {
		return 8
	}
	return p.stack[len(p.stack)-1].align
}

func (p *packStack) push(align int, fallback int) {
	if align <= 0 {
		align = fallback
	}
	p.stack = append(p.stack, packEntry{align: normalizePack(align)})
}

// Push pushes the current alignment (or a newly assigned one if n>0)
// onto the stack, optionally tagged with an id for matched Pop.
func (p *TypeDB) Push(id string, n int) {
	align := n
	if align == 0 {
		align = p.pack.current()
	}
	p.pack.stack = append(p.pack.stack, packEntry{id: id, align: normalizePack(align)})
}

// Pop pops the stack; if id is non-empty it must match the entry's id.
func (p *TypeDB) Pop(id string) bool {
	if len(p.pack.stack) == 0 {
		return false
	}
	top := p.pack.stack[len(p.pack.stack)-1]
	if id != "" && top.id != id {
		return false
	}
	p.pack.stack = p.pack.stack[:len(p.pack.stack)-1]
	return true
}

// Assign sets the current pack alignment directly, rounding up to the
// next supported power of two in {1,2,4,8,16}; anything above 8
// becomes 16.
func (p *TypeDB) Assign(n int) {
	if len(p.pack.stack) == 0 {
		p.pack.push(n, 8)
		return
	}
	p.pack.stack[len(p.pack.stack)-1].align = normalizePack(n)
}

// Show returns the currently active pack alignment.
func (p *TypeDB) Show() int { return p.pack.current() }

func normalizePack(n int) int {
	switch {
	case n <= 1:
		return 1
	case n <= 2:
		return 2
	case n <= 4:
		return 4
	case n <= 8:
		return 8
	default:
		return 16
	}
}
