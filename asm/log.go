// Copyright 2022 The asm7x Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"io"
	"strings"
)

// A logger writes verbose assembly traces. A nil logger, or one that is
// not verbose, discards everything.
type logger struct {
	out     io.Writer
	verbose bool
}

func newLogger(out io.Writer, verbose bool) *logger {
	return &logger{out: out, verbose: verbose && out != nil}
}

func (l *logger) enabled() bool {
	return l != nil && l.verbose
}

// In verbose mode, log a formatted string.
func (l *logger) log(format string, args ...any) {
	if l.enabled() {
		fmt.Fprintf(l.out, format, args...)
		fmt.Fprintf(l.out, "\n")
	}
}

// In verbose mode, log a detail string along with the source position it
// refers to.
func (l *logger) logPos(pos Pos, format string, args ...any) {
	if l.enabled() {
		detail := fmt.Sprintf(format, args...)
		fmt.Fprintf(l.out, "%-3d %-3d | %s\n", pos.Line, pos.Column, detail)
	}
}

// In verbose mode, log a series of bytes with starting address.
func (l *logger) logBytes(addr uint32, b []byte) {
	if l.enabled() {
		for i, n := 0, len(b); i < n; i += 3 {
			j := min(i+3, n)
			l.log("%04X-*  %s", addr+uint32(i), byteString(b[i:j]))
		}
	}
}

// In verbose mode, log a section header.
func (l *logger) logSection(name string) {
	if l.enabled() {
		fmt.Fprintln(l.out, strings.Repeat("-", len(name)+6))
		fmt.Fprintf(l.out, "-- %s --\n", name)
		fmt.Fprintln(l.out, strings.Repeat("-", len(name)+6))
	}
}
