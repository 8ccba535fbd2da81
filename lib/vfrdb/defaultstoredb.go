// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package vfrdb

import (
	"fmt"
	"io"

	"github.com/tianocore/edk2-sub023/lib/ifrpkg"
	"github.com/tianocore/edk2-sub023/lib/vfrdiag"
)

// Well-known default-store ids.
const (
	DefaultIdStandard     uint16 = 0x0000
	DefaultIdManufacturing uint16 = 0x0001
)

// DefaultStore is one registered default-store record.
type DefaultStore struct {
	RefName      string
	NameStringId uint16
	DefaultId    uint16
	BinPtr       ifrpkg.Span
}

// DefaultStoreDB registers default stores and tracks the set of
// DefaultIds active in the compiled form.
type DefaultStoreDB struct {
	ids     *IdRegistry
	byRef   map[string]*DefaultStore
	all     []*DefaultStore
	active  map[uint16]bool
}

// NewDefaultStoreDB creates a DefaultStoreDB bound to ids.
func NewDefaultStoreDB(ids *IdRegistry) *DefaultStoreDB {
	return &DefaultStoreDB{ids: ids, byRef: map[string]*DefaultStore{}, active: map[uint16]bool{}}
}

// Register pairs refName -> (nameStringId, defaultId, emitter
// address).
func (db *DefaultStoreDB) Register(refName string, nameStringId, defaultId uint16, addr ifrpkg.Span) error {
	if _, ok := db.byRef[refName]; ok {
		return &vfrdiag.RedefinedError{Namespace: "default-store", Key: refName}
	}
	ds := &DefaultStore{RefName: refName, NameStringId: nameStringId, DefaultId: defaultId, BinPtr: addr}
	db.byRef[refName] = ds
	db.all = append(db.all, ds)
	db.active[defaultId] = true
	return nil
}

// Lookup returns the default-store registered under refName.
func (db *DefaultStoreDB) Lookup(refName string) (*DefaultStore, bool) {
	ds, ok := db.byRef[refName]
	return ds, ok
}

// All returns every registered default-store, in registration order.
func (db *DefaultStoreDB) All() []*DefaultStore { return db.all }

// ActiveIds returns the global set of default-store ids active in the
// compiled form, sorted ascending, for the auto-default synthesis
// sweep.
func (db *DefaultStoreDB) ActiveIds() []uint16 {
	out := make([]uint16, 0, len(db.active))
	for id := range db.active {
		out = append(out, id)
	}
	// insertion sort; the set is tiny (a handful of default classes)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}

// BufferAltConfigEntry records one (offset, width, value) triple
// touched for a buffer variable-store by a given default-store, used
// to support the Device Manager's "alternate config string" output.
type BufferAltConfigEntry struct {
	VarStoreId uint16
	DefaultId  uint16
	Offset     int
	Width      int
	Value      []byte
}

// BufferAltConfig accumulates BufferAltConfigEntry rows as the
// auto-default synthesis pass runs, one per (varstore, default-id,
// field) touched.
type BufferAltConfig struct {
	entries []BufferAltConfigEntry
}

// Add records one touched buffer field.
func (c *BufferAltConfig) Add(e BufferAltConfigEntry) {
	c.entries = append(c.entries, e)
}

// Entries returns every recorded row, in the order they were added.
func (c *BufferAltConfig) Entries() []BufferAltConfigEntry { return c.entries }

// WriteDump renders the accumulated rows one per line. This is a
// deliberately minimal rendering, not the full <ConfigResp>
// alternate-config string grammar from the HII config-routing
// protocol.
func (c *BufferAltConfig) WriteDump(w io.Writer) error {
	for _, e := range c.entries {
		_, err := fmt.Fprintf(w, "varstore=0x%04X default=0x%04X offset=0x%04X width=%d value=% X\n",
			e.VarStoreId, e.DefaultId, e.Offset, e.Width, e.Value)
		if err != nil {
			return err
		}
	}
	return nil
}
