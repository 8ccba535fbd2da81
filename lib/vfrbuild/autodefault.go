// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package vfrbuild

import (
	"context"
	"encoding/binary"
	"time"

	"github.com/datawire/dlib/dlog"

	"github.com/tianocore/edk2-sub023/lib/ifrcode"
	"github.com/tianocore/edk2-sub023/lib/ifrpkg"
	"github.com/tianocore/edk2-sub023/lib/textui"
	"github.com/tianocore/edk2-sub023/lib/vfrdb"
	"github.com/tianocore/edk2-sub023/lib/vfrpost"
)

var questionHeaderOps = map[ifrcode.Op]bool{
	ifrcode.OpNumeric: true, ifrcode.OpOneOf: true, ifrcode.OpCheckBox: true,
	ifrcode.OpOrderedList: true, ifrcode.OpDate: true, ifrcode.OpTime: true, ifrcode.OpRef: true,
}

// synthesizeAutoDefaults drives the per-question scan and synthesis:
// for every question record in the log, scan its scope, and if it
// carries fewer defaults than the set of active default-store ids,
// synthesize and relocate the rest.
func (b *Builder) synthesizeAutoDefaults(ctx context.Context, p *vfrpost.Postprocessor) error {
	active := b.Defaults.ActiveIds()
	if len(active) == 0 {
		return nil
	}

	var starts []*ifrpkg.RecordEntry
	b.Log.Each(func(e *ifrpkg.RecordEntry) {
		if questionHeaderOps[vfrpost.OpOf(e)] {
			starts = append(starts, e)
		}
	})

	progressWriter := textui.NewProgress[textui.Portion[int]](ctx, dlog.LogLevelDebug, textui.Tunable(1*time.Second))
	defer progressWriter.Done()
	progress := textui.Portion[int]{D: len(starts)}
	progressWriter.Set(progress)

	for _, start := range starts {
		progress.N++
		progressWriter.Set(progress)
		report := vfrpost.ScanQuestionDefaults(start)
		if !report.HasAny {
			// A question with no default of its own stays that way:
			// synthesis only tops up a question that already names at
			// least one default to copy from.
			continue
		}
		missing := report.Missing(active)
		if len(missing) == 0 {
			continue
		}
		insertPoint := start
		if end := vfrpost.ScopeEnd(start); end != nil {
			insertPoint = end.Prev()
			if insertPoint == nil {
				insertPoint = start
			}
		}
		insertAddr := insertPoint.Offset + insertPoint.Length
		first, err := vfrpost.SynthesizeMissingDefaults(b.Emit, report, missing, start.SourceLine)
		if err != nil {
			return err
		}
		b.recordAltConfig(start, report, missing)
		if first == nil {
			continue
		}
		if err := p.MoveDynamicOpcodes(insertAddr, first); err != nil {
			return err
		}
	}
	return nil
}

// recordAltConfig notes each synthesized (varstore, default-id,
// offset, width, value) in the alternate-config side table backing
// the Device Manager's alternate config string.
func (b *Builder) recordAltConfig(start *ifrpkg.RecordEntry, report *vfrpost.QuestionDefaultReport, missing []uint16) {
	hdr := start.PayloadPtr.Bytes()
	if len(hdr) < 2+ifrcode.QuestionHeaderSize {
		return
	}
	varStoreId := binary.LittleEndian.Uint16(hdr[8:10])
	varStoreInfo := binary.LittleEndian.Uint16(hdr[10:12])
	val := report.CopyValue()
	if len(val) == 0 {
		// Expression-valued defaults have no literal bytes to record.
		return
	}
	for _, id := range missing {
		b.AltConfig.Add(vfrdb.BufferAltConfigEntry{
			VarStoreId: varStoreId,
			DefaultId:  id,
			Offset:     int(varStoreInfo),
			Width:      len(val),
			Value:      append([]byte(nil), val...),
		})
	}
}
