// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

// Command vfrcompile translates a VFR source file into a UEFI HII IFR
// binary package (.hpk) plus a companion .c source embedding the same
// bytes.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/datawire/dlib/dlog"
	"github.com/datawire/ocibuild/pkg/cliutil"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tianocore/edk2-sub023/lib/textui"
	"github.com/tianocore/edk2-sub023/lib/vfrbuild"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "vfrcompile: error: %v\n", err)
		os.Exit(1)
	}
}

type flags struct {
	verbosity     textui.LogLevelFlag
	ifrOutPkg     string
	ifrOutC       string
	outDir        string
	compatMode    bool
	autoDefault   bool
	warnAsError   bool
	chunkSize     int
}

var _ pflag.Value = (*textui.LogLevelFlag)(nil)

func run() error {
	f := &flags{verbosity: textui.LogLevelFlag{Level: dlog.LogLevelInfo}, autoDefault: true}

	root := &cobra.Command{
		Use:   "vfrcompile <input.vfr>",
		Short: "Compile a VFR source file into a UEFI HII IFR binary package",

		Args: cliutil.WrapPositionalArgs(cobra.ExactArgs(1)),

		SilenceErrors: true,
		SilenceUsage:  true,

		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.SetFlagErrorFunc(cliutil.FlagErrorFunc)
	root.SetHelpTemplate(cliutil.HelpTemplate)

	root.PersistentFlags().Var(&f.verbosity, "verbosity", "set the verbosity")
	root.PersistentFlags().StringVar(&f.ifrOutPkg, "ifrout", "", "output `path` for the .hpk binary package")
	root.PersistentFlags().StringVar(&f.ifrOutC, "ifrpkg", "", "output `path` for the .c source embedding the package bytes")
	root.PersistentFlags().StringVar(&f.outDir, "od", ".", "output `directory` for generated files (used when -ifrout/-ifrpkg are relative)")
	root.PersistentFlags().BoolVarP(&f.compatMode, "compat", "c", false, "enable framework-compatibility record-list adjustment")
	root.PersistentFlags().BoolVar(&f.autoDefault, "autodefault", true, "synthesize missing per-question defaults")
	root.PersistentFlags().BoolVar(&f.warnAsError, "warning-as-error", false, "promote warnings to errors")
	root.PersistentFlags().IntVar(&f.chunkSize, "chunk-size", 0, "override the chunked-buffer chunk capacity (0 = default)")

	root.RunE = func(cmd *cobra.Command, args []string) error {
		return compile(cmd.Context(), args[0], f)
	}

	root.AddCommand(dumpIdRegistryCmd(f), dumpTypesCmd(f), listingCmd(f))

	logger := logrus.New()
	root.PersistentPreRun = func(*cobra.Command, []string) {
		switch f.verbosity.Level {
		case dlog.LogLevelError:
			logger.SetLevel(logrus.ErrorLevel)
		case dlog.LogLevelWarn:
			logger.SetLevel(logrus.WarnLevel)
		case dlog.LogLevelInfo:
			logger.SetLevel(logrus.InfoLevel)
		case dlog.LogLevelDebug:
			logger.SetLevel(logrus.DebugLevel)
		case dlog.LogLevelTrace:
			logger.SetLevel(logrus.TraceLevel)
		}
	}
	ctx := dlog.WithLogger(context.Background(), dlog.WrapLogrus(logger))
	root.SetArgs(os.Args[1:])
	return root.ExecuteContext(ctx)
}

func newBuilder(f *flags) *vfrbuild.Builder {
	return vfrbuild.New(vfrbuild.Config{
		CompatMode:       f.compatMode,
		WarningsAsErrors: f.warnAsError,
		ChunkSize:        f.chunkSize,
		RecordLogEnabled: true,
	})
}

func outputPath(f *flags, explicit, defaultExt, input string) string {
	if explicit != "" {
		if filepath.IsAbs(explicit) {
			return explicit
		}
		return filepath.Join(f.outDir, explicit)
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	return filepath.Join(f.outDir, base+defaultExt)
}

// compile is where a vfrbuild.Parser implementation gets wired in; no
// concrete VFR grammar/lexer ships in this repository, so this
// reports the seam rather than guessing a grammar.
func compile(ctx context.Context, input string, f *flags) error {
	b := newBuilder(f)
	_ = b

	dlog.Infof(ctx, "compiling %s (compat=%v autodefault=%v)", input, f.compatMode, f.autoDefault)
	return fmt.Errorf("no VFR parser is wired into this build: "+
		"link a concrete vfrbuild.Parser implementation to compile %q", input)
}
