// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package vfrbuild

import "io"

// Parser is the external collaborator that drives a Builder from VFR
// source text. A concrete lexer/grammar implementation does not ship
// in this repository; this interface is the seam a textual front end
// implements against.
type Parser interface {
	// Parse reads preprocessed VFR source from r and issues calls
	// against b (EmitForm, Register, DeclareBuffer, etc.) to build up
	// the IFR package. It returns the first fatal error encountered,
	// if any; non-fatal domain errors are reported through b.Diag and
	// do not stop the parse.
	Parse(r io.Reader, b *Builder) error
}

// StringResolver is the external collaborator that resolves an HII
// string id back to a variable-store name. Nothing in this repository
// calls it: the compatibility-mode record-list adjustment finds late
// varstore runs by opcode alone. The HII string-package reader itself
// does not ship in this repository.
type StringResolver interface {
	ResolveString(id uint16) (string, bool)
}
