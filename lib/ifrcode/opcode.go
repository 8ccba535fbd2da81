// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Package ifrcode defines the IFR opcode wire layouts and the emitter
// that writes them through a ChunkedBuffer while registering
// RecordLog entries.
package ifrcode

// Op is an IFR opcode byte.
type Op uint8

const (
	OpForm            Op = 0x01
	OpSubtitle        Op = 0x02
	OpText            Op = 0x03
	OpGraphicsImage   Op = 0x04
	OpOneOf           Op = 0x05
	OpCheckBox        Op = 0x06
	OpNumeric         Op = 0x07
	OpPassword        Op = 0x08
	OpOneOfOption     Op = 0x09
	OpSuppressIf      Op = 0x0A
	OpLocked          Op = 0x0B
	OpAction          Op = 0x0C
	OpResetButton     Op = 0x0D
	OpFormSet         Op = 0x0E
	OpRef             Op = 0x0F
	OpNoSubmitIf      Op = 0x10
	OpInconsistentIf  Op = 0x11
	OpEqIdVal         Op = 0x12
	OpEqIdId          Op = 0x13
	OpEqIdValList     Op = 0x14
	OpAnd             Op = 0x15
	OpOr              Op = 0x16
	OpNot             Op = 0x17
	OpRule            Op = 0x18
	OpGrayOutIf       Op = 0x19
	OpDate            Op = 0x1A
	OpTime            Op = 0x1B
	OpString          Op = 0x1C
	OpRefresh         Op = 0x1D
	OpDisableIf       Op = 0x1E
	OpAnimation       Op = 0x1F
	OpToLower         Op = 0x20
	OpToUpper         Op = 0x21
	OpMapTernary      Op = 0x22
	OpOrderedList     Op = 0x23
	OpVarStore        Op = 0x24
	OpVarStoreNameVal Op = 0x25
	OpVarStoreEfi     Op = 0x26
	OpVarStoreDevice  Op = 0x27
	OpVersion         Op = 0x28
	OpEnd             Op = 0x29
	OpMatch           Op = 0x2A
	OpGet             Op = 0x2B
	OpSet             Op = 0x2C
	OpRead            Op = 0x2D
	OpWrite           Op = 0x2E
	OpEqual           Op = 0x2F
	OpNotEqual        Op = 0x30
	OpGreaterThan     Op = 0x31
	OpGreaterEqual    Op = 0x32
	OpLessThan        Op = 0x33
	OpLessEqual       Op = 0x34
	OpBitwiseAnd      Op = 0x35
	OpBitwiseOr       Op = 0x36
	OpBitwiseNot      Op = 0x37
	OpShiftLeft       Op = 0x38
	OpShiftRight      Op = 0x39
	OpAdd             Op = 0x3A
	OpSubtract        Op = 0x3B
	OpMultiply        Op = 0x3C
	OpDivide          Op = 0x3D
	OpModulo          Op = 0x3E
	OpRuleRef         Op = 0x3F
	OpQuestionRef1    Op = 0x40
	OpQuestionRef2    Op = 0x41
	OpUint8           Op = 0x42
	OpUint16          Op = 0x43
	OpUint32          Op = 0x44
	OpUint64          Op = 0x45
	OpTrue            Op = 0x46
	OpFalse           Op = 0x47
	OpToUint          Op = 0x48
	OpToString        Op = 0x49
	OpToBoolean       Op = 0x4A
	OpMid             Op = 0x4B
	OpFind            Op = 0x4C
	OpToken           Op = 0x4D
	OpStringRef1      Op = 0x4E
	OpStringRef2      Op = 0x4F
	OpConditional     Op = 0x50
	OpQuestionRef3    Op = 0x51
	OpZero            Op = 0x52
	OpOne             Op = 0x53
	OpOnes            Op = 0x54
	OpUndefined       Op = 0x55
	OpLength          Op = 0x56
	OpDup             Op = 0x57
	OpThis            Op = 0x58
	OpSpan            Op = 0x59
	OpValue           Op = 0x5A
	OpDefaultStore    Op = 0x5B
	OpDefault         Op = 0x5C
	OpFormMap         Op = 0x5D
	OpCatenate        Op = 0x5E
	OpGuid            Op = 0x5F
	OpSecurity        Op = 0x60
	OpModalTag        Op = 0x61
	OpRefreshId       Op = 0x62
	OpWarningIf       Op = 0x63
	OpMatch2          Op = 0x64
)

// Scope-open behavior and default record size (excluding variable-
// length trailers, which emitters compute from their fields).
type opcodeInfo struct {
	scopeOpen bool
	size      int // header + fixed body; 0 means caller always supplies size
}

var opcodeTable = map[Op]opcodeInfo{
	OpFormSet:         {scopeOpen: true, size: 0},
	OpForm:            {scopeOpen: true, size: 6},
	OpSubtitle:        {scopeOpen: true, size: 5},
	OpText:            {scopeOpen: false, size: 0},
	OpOneOf:           {scopeOpen: true, size: 0},
	OpCheckBox:        {scopeOpen: true, size: 14},
	OpNumeric:         {scopeOpen: true, size: 0},
	OpOneOfOption:     {scopeOpen: false, size: 0},
	OpSuppressIf:      {scopeOpen: true, size: 3},
	OpRef:             {scopeOpen: true, size: 0},
	OpNoSubmitIf:      {scopeOpen: true, size: 5},
	OpInconsistentIf:  {scopeOpen: true, size: 5},
	OpEqIdVal:         {scopeOpen: false, size: 6},
	OpEqIdId:          {scopeOpen: false, size: 6},
	OpEqIdValList:     {scopeOpen: false, size: 0},
	OpRule:            {scopeOpen: true, size: 3},
	OpGrayOutIf:       {scopeOpen: true, size: 3},
	OpDate:            {scopeOpen: true, size: 0},
	OpTime:            {scopeOpen: true, size: 0},
	OpOrderedList:     {scopeOpen: true, size: 0},
	OpVarStore:        {scopeOpen: false, size: 0},
	OpVarStoreEfi:     {scopeOpen: false, size: 0},
	OpEnd:             {scopeOpen: false, size: 2},
	OpRuleRef:         {scopeOpen: false, size: 3},
	// OpDefault has two wire shapes: the simple value-inline form
	// (no scope) tabled here, and the expression-valued default_2
	// form, which opens a scope and is discriminated by its record
	// length being exactly DefaultExprSize.
	OpDefault:      {scopeOpen: false, size: 0},
	OpDefaultStore: {scopeOpen: false, size: 6},
	OpFormMap:      {scopeOpen: true, size: 0},
	OpGuid:         {scopeOpen: false, size: 0},
}

// Info returns the static scope-open/size entry for op, and whether
// one was registered.
func Info(op Op) (scopeOpen bool, size int, ok bool) {
	i, ok := opcodeTable[op]
	return i.scopeOpen, i.size, ok
}
