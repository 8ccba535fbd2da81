// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package main

import (
	"os"

	"git.lukeshu.com/go/lowmemjson"
	"github.com/spf13/cobra"
)

// dumpIdRegistryCmd implements `vfrcompile dump-idregistry`, a
// diagnostic subcommand that prints each namespace's allocated ids as
// a sorted JSON array.
func dumpIdRegistryCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "dump-idregistry <input.vfr>",
		Short: "Dump allocated form/question/varstore/default-store/rule ids as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b := newBuilder(f)
			out := map[string]any{
				"form":          b.Ids.Form.AllocatedSet(),
				"question":      b.Ids.Question.AllocatedSet(),
				"varstore":      b.Ids.VarStore.AllocatedSet(),
				"default-store": b.Ids.DefaultStore.AllocatedSet(),
				"rule":          b.Ids.Rule.AllocatedSet(),
			}
			return lowmemjson.Encode(os.Stdout, out)
		},
	}
}

// dumpTypesCmd implements `vfrcompile dump-types`. Without a linked
// vfrbuild.Parser only the built-in types are registered, so the dump
// covers exactly those.
func dumpTypesCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "dump-types <input.vfr>",
		Short: "Dump the registered type database as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			type fieldDump struct {
				Name       string
				Type       string
				Offset     int
				ArrayCount int `json:",omitempty"`
				BitWidth   int `json:",omitempty"`
			}
			type typeDump struct {
				Align     int
				TotalSize int
				Fields    []fieldDump `json:",omitempty"`
			}
			b := newBuilder(f)
			out := map[string]typeDump{}
			for _, t := range b.Types.All() {
				d := typeDump{Align: t.Align, TotalSize: t.TotalSize}
				for _, fld := range t.Fields {
					d.Fields = append(d.Fields, fieldDump{
						Name: fld.Name, Type: fld.Type.Name, Offset: fld.Offset,
						ArrayCount: fld.ArrayCount, BitWidth: fld.BitWidth,
					})
				}
				out[t.Name] = d
			}
			return lowmemjson.Encode(os.Stdout, out)
		},
	}
}

// listingCmd implements `vfrcompile listing`. It runs the same compile
// path as the root command, which reports that no vfrbuild.Parser is
// linked in; no `.lst` listing is written.
func listingCmd(f *flags) *cobra.Command {
	return &cobra.Command{
		Use:   "listing <input.vfr>",
		Short: "Emit the interleaved source/record listing for a compiled form",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return compile(cmd.Context(), args[0], f)
		},
	}
}
