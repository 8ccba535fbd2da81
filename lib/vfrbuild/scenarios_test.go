// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package vfrbuild_test

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tianocore/edk2-sub023/lib/ifrcode"
	"github.com/tianocore/edk2-sub023/lib/ifrpkg"
	"github.com/tianocore/edk2-sub023/lib/vfrbuild"
)

type scenarioStep struct {
	Op string `yaml:"op"`

	FormId     uint16 `yaml:"formid"`
	Title      uint16 `yaml:"title"`
	Name       string `yaml:"name"`
	Id         uint16 `yaml:"id"`
	Size       uint16 `yaml:"size"`
	Qid        uint16 `yaml:"qid"`
	VarStoreId uint16 `yaml:"varstoreid"`
	Info       uint16 `yaml:"info"`
	Flags      uint8  `yaml:"flags"`
	Key        string `yaml:"key"`
	Value      uint16 `yaml:"value"`
	NameId     uint16 `yaml:"nameid"`
	DefaultId  uint16 `yaml:"defaultid"`
	RefName    string `yaml:"refname"`
	ErrStr     uint16 `yaml:"errstr"`
	VarId      string `yaml:"varid"`
	ValType    uint8  `yaml:"valtype"`
}

type scenario struct {
	Name   string         `yaml:"name"`
	Compat bool           `yaml:"compat"`
	Steps  []scenarioStep `yaml:"steps"`
	Want   string         `yaml:"want"`
}

func parseHex(t *testing.T, s string) []byte {
	t.Helper()
	var out []byte
	for _, tok := range strings.Fields(s) {
		v, err := strconv.ParseUint(tok, 16, 8)
		require.NoError(t, err)
		out = append(out, byte(v))
	}
	return out
}

// TestScenarios replays the end-to-end fixtures in
// testdata/scenarios.yaml against a fresh Builder each, comparing the
// final package bytes.
func TestScenarios(t *testing.T) {
	t.Parallel()
	raw, err := os.ReadFile(filepath.Join("testdata", "scenarios.yaml"))
	require.NoError(t, err)
	var scenarios []scenario
	require.NoError(t, yaml.Unmarshal(raw, &scenarios))
	require.NotEmpty(t, scenarios)

	for _, sc := range scenarios {
		sc := sc
		t.Run(sc.Name, func(t *testing.T) {
			t.Parallel()
			b := vfrbuild.New(vfrbuild.Config{
				RecordLogEnabled: true,
				CompatMode:       sc.Compat,
			})
			for i, st := range sc.Steps {
				line := i + 1
				var err error
				switch st.Op {
				case "form":
					_, err = b.Emit.EmitForm(st.FormId, ifrcode.StringId(st.Title), line)
				case "end":
					_, err = b.Emit.EmitEnd(line)
				case "varstore":
					d := b.Emit.BeginVarStore(ifrcode.Guid{}, st.Id, st.Size, line)
					d.SetName(st.Name)
					_, _, err = d.Flush()
				case "numeric":
					h := ifrcode.QuestionHeader{QuestionId: st.Qid, VarStoreId: st.VarStoreId, VarStoreInfo: st.Info}
					d := b.Emit.BeginNumeric(h, ifrcode.NumericSize1, 0, 0, 0, line)
					_, _, err = d.Flush()
				case "checkbox":
					h := ifrcode.QuestionHeader{QuestionId: st.Qid}
					_, err = b.Emit.EmitCheckBox(h, ifrcode.CheckBoxFlags(st.Flags), line)
				case "defaultstore":
					var hnd ifrpkg.Handle
					hnd, err = b.Emit.EmitDefaultStore(ifrcode.StringId(st.NameId), st.DefaultId, line)
					if err == nil {
						err = b.Defaults.Register(st.RefName, st.NameId, st.DefaultId, hnd.PayloadPtr)
					}
				case "default-expr":
					_, err = b.Emit.EmitDefaultExpr(st.DefaultId, ifrcode.ValueType(st.ValType), line)
				case "inconsistent-if":
					_, err = b.Emit.EmitInconsistentIf(ifrcode.StringId(st.ErrStr), 0, line)
				case "eq-id-val":
					_, err = b.Emit.EmitEqIdVal(st.Qid, st.Value, line)
				case "eq-id-val-pending":
					var hnd ifrpkg.Handle
					hnd, err = b.Emit.EmitEqIdVal(0, st.Value, line)
					if err == nil {
						b.Pending.Add(st.Key, hnd.PayloadPtr.Slice(2, 2), 2, line, "unresolved question "+st.Key)
					}
				case "register-question":
					id := st.Id
					err = b.Questions.Register(st.Name, st.VarId, &id)
				case "finish":
					err = b.Finish(context.Background(), nil)
				default:
					t.Fatalf("unknown scenario op %q", st.Op)
				}
				require.NoErrorf(t, err, "step %d (%s)", line, st.Op)
			}

			assert.Equal(t, parseHex(t, sc.Want), b.Buf.Bytes(),
				"steps:\n%s", spew.Sdump(sc.Steps))
		})
	}
}
