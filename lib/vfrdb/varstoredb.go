// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package vfrdb

import (
	"fmt"

	"github.com/tianocore/edk2-sub023/lib/containers"
	"github.com/tianocore/edk2-sub023/lib/textui"
	"github.com/tianocore/edk2-sub023/lib/vfrdiag"
	"github.com/tianocore/edk2-sub023/lib/vfrtype"
)

// VarStoreKind discriminates the three variable-store shapes.
type VarStoreKind int

const (
	VarStoreBuffer VarStoreKind = iota
	VarStoreEfi
	VarStoreNameValue
)

// VarStore is one registered variable-store record.
type VarStore struct {
	Name string
	Guid [16]byte
	HasGuid bool
	Id   uint16
	Kind VarStoreKind

	// Buffer
	Type *vfrtype.Type

	// Efi
	EfiNameStringId uint16
	EfiSize         int

	// NameValue
	NameStringIds []uint16
}

// VarStoreDB tracks buffer, EFI, and name-value variable stores.
type VarStoreDB struct {
	ids     *IdRegistry
	buffers []*VarStore
	efis    []*VarStore
	names   []*VarStore

	// resolveCache memoizes Resolve lookups keyed by the bare name, or
	// by "name\x00guid" when a guid is supplied, so repeated resolve(name, guid) calls made during a large VFR
	// file's default-synthesis pass don't re-walk the three varstore
	// lists every time.
	resolveCache *containers.LRUCache[string, uint16]
}

// NewVarStoreDB creates a VarStoreDB bound to ids.
func NewVarStoreDB(ids *IdRegistry) *VarStoreDB {
	return &VarStoreDB{ids: ids, resolveCache: containers.NewLRUCache[string, uint16](textui.Tunable(256))}
}

// DeclareBuffer registers a buffer variable-store. If id is nil or
// points at 0 a fresh id is allocated (and not written back through
// id); otherwise *id is marked used.
func (db *VarStoreDB) DeclareBuffer(name string, guid [16]byte, typ *vfrtype.Type, id *uint16) (*VarStore, error) {
	resolved, err := db.allocId(id)
	if err != nil {
		return nil, err
	}
	vs := &VarStore{Name: name, Guid: guid, HasGuid: true, Id: resolved, Kind: VarStoreBuffer, Type: typ}
	db.buffers = append(db.buffers, vs)
	db.invalidateCache(name)
	return vs, nil
}

// DeclareEfi registers an EFI variable-store. size must be <= 8.
func (db *VarStoreDB) DeclareEfi(name string, guid [16]byte, efiNameId uint16, size int, id *uint16) (*VarStore, error) {
	if size > 8 {
		return nil, &vfrdiag.RedefinedError{Namespace: "efi-varstore-size", Key: name}
	}
	resolved, err := db.allocId(id)
	if err != nil {
		return nil, err
	}
	vs := &VarStore{Name: name, Guid: guid, HasGuid: true, Id: resolved, Kind: VarStoreEfi, EfiNameStringId: efiNameId, EfiSize: size}
	db.efis = append(db.efis, vs)
	db.invalidateCache(name)
	return vs, nil
}

// DeclareNameBegin registers a name-value variable-store; NameAdd
// grows its string-id table, NameEnd finalizes the guid.
func (db *VarStoreDB) DeclareNameBegin(name string, id *uint16) (*VarStore, error) {
	resolved, err := db.allocId(id)
	if err != nil {
		return nil, err
	}
	vs := &VarStore{Name: name, Id: resolved, Kind: VarStoreNameValue}
	db.names = append(db.names, vs)
	db.invalidateCache(name)
	return vs, nil
}

// NameAdd appends a string id to a name-value store's table (append's
// amortized doubling covers the growth).
func (vs *VarStore) NameAdd(stringId uint16) {
	vs.NameStringIds = append(vs.NameStringIds, stringId)
}

// NameEnd sets the guid on a name-value store once known.
func (vs *VarStore) NameEnd(guid [16]byte) {
	vs.Guid, vs.HasGuid = guid, true
}

func (db *VarStoreDB) allocId(id *uint16) (uint16, error) {
	if id == nil || *id == 0 {
		allocated, err := db.ids.VarStore.Alloc()
		if err != nil {
			return 0, err
		}
		return uint16(allocated), nil
	}
	if err := db.ids.VarStore.MarkUsed(int(*id)); err != nil {
		return 0, err
	}
	return *id, nil
}

// Resolve looks up a store by name (and optionally guid):
//  1. walk buffer, then efi, then name lists for a name match;
//  2. if guid is supplied and matches, return immediately;
//  3. if guid is omitted, track the first match; more than one match
//     with no guid to disambiguate is NameRedefined;
//  4. if nothing named name is found in any list, treat name as a
//     data-type name and search buffer stores whose element type
//     carries that name.
func (db *VarStoreDB) Resolve(name string, guid containers.Optional[[16]byte]) (uint16, error) {
	cacheKey := name
	if guid.OK {
		cacheKey = fmt.Sprintf("%s\x00%x", name, guid.Val)
	}
	if id, ok := db.resolveCache.Get(cacheKey); ok {
		return id, nil
	}

	var found *VarStore
	multiple := false
	for _, list := range [][]*VarStore{db.buffers, db.efis, db.names} {
		for _, vs := range list {
			if vs.Name != name {
				continue
			}
			if guid.OK {
				if vs.HasGuid && vs.Guid == guid.Val {
					db.resolveCache.Add(cacheKey, vs.Id)
					return vs.Id, nil
				}
				continue
			}
			if found != nil {
				multiple = true
			}
			found = vs
		}
	}
	if multiple {
		return 0, &vfrdiag.RedefinedError{Namespace: "varstore-name", Key: name}
	}
	if found != nil {
		db.resolveCache.Add(cacheKey, found.Id)
		return found.Id, nil
	}

	// Treat name as a data-type name: search buffer stores whose
	// element type carries that name.
	for _, vs := range db.buffers {
		if vs.Type != nil && vs.Type.Name == name {
			db.resolveCache.Add(cacheKey, vs.Id)
			return vs.Id, nil
		}
	}
	return 0, &vfrdiag.UndefinedError{Namespace: "varstore", Key: name}
}

func (db *VarStoreDB) invalidateCache(name string) {
	db.resolveCache.Remove(name)
}

// ById returns the VarStore registered under id, searching all three
// lists, or nil.
func (db *VarStoreDB) ById(id uint16) *VarStore {
	for _, list := range [][]*VarStore{db.buffers, db.efis, db.names} {
		for _, vs := range list {
			if vs.Id == id {
				return vs
			}
		}
	}
	return nil
}
