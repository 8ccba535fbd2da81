// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package vfrdb

import "github.com/tianocore/edk2-sub023/lib/vfrdiag"

// RuleDB is the rule-id namespace: sequential id allocation starting
// at 1 (rule id 0 is reserved, like every other namespace),
// name-keyed.
type RuleDB struct {
	byName map[string]uint8
	next   uint8
}

// NewRuleDB creates an empty RuleDB.
func NewRuleDB() *RuleDB {
	return &RuleDB{byName: map[string]uint8{}, next: 1}
}

// Register allocates (or returns the existing) rule id for name.
func (db *RuleDB) Register(name string) (uint8, error) {
	if id, ok := db.byName[name]; ok {
		return id, &vfrdiag.RedefinedError{Namespace: "rule", Key: name}
	}
	id := db.next
	db.next++
	db.byName[name] = id
	return id, nil
}

// Lookup returns the rule id registered under name.
func (db *RuleDB) Lookup(name string) (uint8, bool) {
	id, ok := db.byName[name]
	return id, ok
}
