// Copyright 2022 The asm7x Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"fmt"
	"io"

	"github.com/jbqueru/asm7x/cpu"
)

// Directives emit no opcode. They are matched before the instruction set.
var pseudoOps = map[string]func(g *Generator, inst *Instruction) error{
	"processor": (*Generator).processor,
	"org":       (*Generator).org,
	"byte":      (*Generator).data,
}

// A Generator converts parsed instructions into machine code in a single
// forward pass. It owns the address counter, which starts at 0 and never
// decreases.
type Generator struct {
	w       io.ByteWriter
	instSet *cpu.InstructionSet
	addr    uint32       // the address counter
	start   uint32       // address of the first emitted byte
	emitted int          // number of bytes written so far
	lines   []SourceLine // address of each generated line
	log     *logger
}

// NewGenerator creates a generator writing machine code to w.
func NewGenerator(w io.ByteWriter) *Generator {
	return &Generator{w: w, instSet: cpu.GetInstructionSet()}
}

// Addr returns the current value of the address counter.
func (g *Generator) Addr() uint32 {
	return g.addr
}

// Origin returns the address of the first emitted byte. If nothing has been
// emitted, it returns the address counter.
func (g *Generator) Origin() uint32 {
	if g.emitted == 0 {
		return g.addr
	}
	return g.start
}

// Lines returns the address and size of the code generated for each source
// line holding an instruction, in source order.
func (g *Generator) Lines() []SourceLine {
	return g.lines
}

// Generate emits the machine code for every instruction in the program.
// Generation stops at the first error.
func (g *Generator) Generate(prog *Program) error {
	g.log.logSection("Generating code")
	for i := range prog.Lines {
		l := &prog.Lines[i]
		if l.Inst == nil {
			continue
		}
		if err := g.Instruction(l.Row, l.Inst); err != nil {
			return err
		}
	}
	return nil
}

// Instruction emits the code for a single instruction found on source line
// row. No bytes are written if the instruction is invalid.
func (g *Generator) Instruction(row int, inst *Instruction) error {
	before, n := g.addr, g.emitted

	var err error
	if fn, ok := pseudoOps[inst.Mnemonic]; ok {
		err = fn(g, inst)
	} else {
		err = g.encode(inst)
	}
	if err != nil {
		return err
	}

	l := SourceLine{Address: int(before), Line: row, Length: g.emitted - n}
	if l.Length == 0 {
		l.Address = int(g.addr)
	}
	g.lines = append(g.lines, l)
	return nil
}

// CheckOrigin returns ErrOriginBackward unless the address counter may be
// moved to addr. An unset (zero) counter accepts any origin; otherwise the
// new origin must lie strictly beyond the counter.
func (g *Generator) CheckOrigin(addr uint32) error {
	if g.addr != 0 && addr <= g.addr {
		return ErrOriginBackward
	}
	return nil
}

// Handle the "processor" pragma. It is informational only.
func (g *Generator) processor(inst *Instruction) error {
	g.log.logPos(inst.Pos, "processor")
	return nil
}

// Handle the "org" directive: set the unset origin, or pad forward to the
// new origin with NOP bytes.
func (g *Generator) org(inst *Instruction) error {
	v, err := requireParam(inst, Address, 0xffff)
	if err != nil {
		return err
	}

	addr := uint32(v)
	if err := g.CheckOrigin(addr); err != nil {
		return wrapError(Semantic, inst.Param.Pos, err)
	}

	g.log.logPos(inst.Pos, "origin=$%04X", addr)
	if g.addr == 0 {
		g.addr = addr
		return nil
	}

	pad := make([]byte, addr-g.addr)
	for i := range pad {
		pad[i] = cpu.NOP
	}
	return g.emit(pad...)
}

// Handle the "byte" directive, which emits one literal byte.
func (g *Generator) data(inst *Instruction) error {
	v, err := requireParam(inst, Address, 0xff)
	if err != nil {
		return err
	}
	return g.emit(byte(v))
}

// Encode a real instruction according to its addressing mode.
func (g *Generator) encode(inst *Instruction) error {
	ci := g.instSet.GetInstruction(inst.Mnemonic)
	if ci == nil {
		return newError(Semantic, inst.Pos, "unknown instruction '%s'", inst.Mnemonic)
	}

	var operand []byte
	switch ci.Mode {
	case cpu.IMP:
		if inst.Param != nil {
			return newError(Semantic, inst.Param.Pos, "unexpected parameter for '%s'", inst.Mnemonic)
		}

	case cpu.IMM:
		v, err := requireParam(inst, Immediate, ci.Mode.OperandMax())
		if err != nil {
			return err
		}
		operand = toBytes(1, v)

	case cpu.ABS:
		v, err := requireParam(inst, Address, ci.Mode.OperandMax())
		if err != nil {
			return err
		}
		operand = toBytes(2, v)

	case cpu.REL:
		v, err := requireParam(inst, Address, ci.Mode.OperandMax())
		if err != nil {
			return err
		}
		offset, err := relOffset(uint32(v), g.addr, g.addr+uint32(ci.Length))
		if err != nil {
			return wrapError(Semantic, inst.Param.Pos, err)
		}
		operand = []byte{offset}

	default:
		panic("invalid addressing mode")
	}

	g.log.logPos(inst.Pos, "%04X  %s Len:%d Mode:%s Opcode:%02X",
		g.addr, ci.Name, ci.Length, ci.Mode, ci.Opcode)
	return g.emit(append([]byte{ci.Opcode}, operand...)...)
}

// Write bytes to the output and advance the address counter past them.
func (g *Generator) emit(b ...byte) error {
	if len(b) == 0 {
		return nil
	}
	if g.emitted == 0 {
		g.start = g.addr
	}
	for _, v := range b {
		if err := g.w.WriteByte(v); err != nil {
			return fmt.Errorf("writing code: %w", err)
		}
	}
	g.log.logBytes(g.addr, b)
	g.addr += uint32(len(b))
	g.emitted += len(b)
	return nil
}

// Return the parameter of an instruction after checking that it is present,
// has the required kind and lies within 0..limit.
func requireParam(inst *Instruction, kind ParamKind, limit int64) (int64, error) {
	p := inst.Param
	switch {
	case p == nil:
		return 0, newError(Structural, inst.Pos, "missing %s parameter for '%s'", kind, inst.Mnemonic)
	case p.Kind != kind:
		return 0, newError(Semantic, p.Pos, "invalid parameter type for '%s': expected %s, found %s",
			inst.Mnemonic, kind, p.Kind)
	case p.Value < 0 || p.Value > limit:
		return 0, newError(Semantic, p.Pos, "invalid parameter value %d for '%s' (expected 0 to %d)",
			p.Value, inst.Mnemonic, limit)
	}
	return p.Value, nil
}

// Compute the branch offset byte for a branch at addr targeting dest, where
// next is the address following the branch operand. Only destinations at or
// beyond the branch itself are accepted.
func relOffset(dest, addr, next uint32) (byte, error) {
	d, a := int64(dest), int64(addr)
	if d < a || d < a-128 {
		return 0, ErrBranchRange
	}
	return byte(d + 256 - int64(next)), nil
}
