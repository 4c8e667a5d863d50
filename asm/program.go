// Copyright 2022 The asm7x Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// ParamKind tags a parameter with the syntax used to write it.
type ParamKind byte

// Parameter kinds
const (
	Immediate ParamKind = iota // written with a leading '#'
	Address                    // a bare number
)

func (k ParamKind) String() string {
	switch k {
	case Immediate:
		return "immediate"
	default:
		return "address"
	}
}

// A Parameter is the numeric operand of an instruction.
type Parameter struct {
	Kind  ParamKind
	Value int64
	Pos   Pos // position of the first digit
}

func (p *Parameter) String() string {
	if p.Kind == Immediate {
		return fmt.Sprintf("#%d", p.Value)
	}
	return fmt.Sprintf("%d", p.Value)
}

// An Instruction is a mnemonic with its optional parameter. The mnemonic
// keeps the case it was written with.
type Instruction struct {
	Mnemonic string
	Param    *Parameter // nil if the instruction has no parameter
	Pos      Pos        // position of the mnemonic
}

func (i *Instruction) String() string {
	if i.Param == nil {
		return i.Mnemonic
	}
	return i.Mnemonic + " " + i.Param.String()
}

// A Line holds the result of parsing one physical line of source.
type Line struct {
	Row   int          // 1-based source line number
	Label string       // empty if the line has no label
	Inst  *Instruction // nil if the line has no instruction
}

// A Program is the ordered sequence of parsed source lines.
type Program struct {
	Source string
	Lines  []Line
}

// WriteListing writes one row per parsed line showing its label, mnemonic
// and parameter.
func (p *Program) WriteListing(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for i := range p.Lines {
		fmt.Fprintln(bw, listingRow(&p.Lines[i]))
	}
	return bw.Flush()
}

func listingRow(l *Line) string {
	label := ""
	if l.Label != "" {
		label = l.Label + ":"
	}

	var mnemonic, param string
	if l.Inst != nil {
		mnemonic = l.Inst.Mnemonic
		if l.Inst.Param != nil {
			param = l.Inst.Param.String()
		}
	}

	row := fmt.Sprintf("%4d  %-12s %-10s %s", l.Row, label, mnemonic, param)
	return strings.TrimRight(row, " ")
}
