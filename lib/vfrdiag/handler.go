// Copyright (C) 2022-2023  Luke Shumaker <lukeshu@lukeshu.com>
//
// SPDX-License-Identifier: GPL-2.0-or-later

package vfrdiag

import (
	"context"
	"fmt"

	"github.com/datawire/dlib/dlog"
)

// Handler is the process-wide diagnostic sink. Domain errors are
// reported through it and the builder continues; only at end-of-parse
// does the caller decide whether any reported diagnostic should fail
// the compile.
type Handler struct {
	// WarningsAsErrors promotes every Warn call to behave like Error.
	WarningsAsErrors bool

	Lines *LineMap

	diags []*Diagnostic
}

// Warn records a non-fatal diagnostic at the given cumulative source
// line. If WarningsAsErrors is set, it is recorded and logged as an
// error instead.
func (h *Handler) Warn(ctx context.Context, code Code, cumulativeLine int, format string, args ...any) {
	d := h.report(code, cumulativeLine, !h.WarningsAsErrors, format, args...)
	ctx = h.logCtx(ctx, d)
	if d.Warning {
		dlog.Warnf(ctx, "%s", d.Error())
	} else {
		dlog.Errorf(ctx, "%s", d.Error())
	}
}

// Error records a domain diagnostic. These are reported and the
// builder continues; only PendingUnassigned, AdjustFailure,
// Exhausted, and ConsistencyMismatch actually abort the compile at
// end-of-parse (see HasFatal).
func (h *Handler) Error(ctx context.Context, code Code, cumulativeLine int, format string, args ...any) {
	d := h.report(code, cumulativeLine, false, format, args...)
	dlog.Errorf(h.logCtx(ctx, d), "%s", d.Error())
}

// logCtx attaches the resolved source position as dlog fields, which
// textui's field-abbreviation rules render compactly.
func (h *Handler) logCtx(ctx context.Context, d *Diagnostic) context.Context {
	if d.File != "" {
		ctx = dlog.WithField(ctx, "vfrcompile.source.file", d.File)
	}
	return dlog.WithField(ctx, "vfrcompile.source.line", d.Line)
}

func (h *Handler) report(code Code, cumulativeLine int, warning bool, format string, args ...any) *Diagnostic {
	file, line := "", cumulativeLine
	if h.Lines != nil {
		file, line = h.Lines.Resolve(cumulativeLine)
	}
	d := &Diagnostic{
		Code:    code,
		File:    file,
		Line:    line,
		Message: fmt.Sprintf(format, args...),
		Warning: warning,
	}
	h.diags = append(h.diags, d)
	return d
}

// Diagnostics returns every diagnostic reported so far, in report order.
func (h *Handler) Diagnostics() []*Diagnostic { return h.diags }

// HasFatal reports whether any recorded diagnostic belongs to a code
// that is fatal at end-of-parse regardless of WarningsAsErrors:
// pending-unassigned, adjust-failure, resource exhaustion, and
// record/buffer mismatch.
func (h *Handler) HasFatal() bool {
	for _, d := range h.diags {
		if d.Warning {
			continue
		}
		switch d.Code {
		case CodePendingUnassigned, CodeAdjustFailure, CodeConsistencyMismatch, CodeExhausted:
			return true
		}
	}
	return false
}
