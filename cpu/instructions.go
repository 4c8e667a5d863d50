// Copyright 2022 The asm7x Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cpu describes the subset of the 6502 instruction set understood
// by the asm7x assembler and disassembler.
package cpu

// Mode describes a memory addressing mode.
type Mode byte

// Addressing modes supported by the assembler
const (
	IMP Mode = iota // Implied (no operand)
	IMM             // Immediate
	ABS             // Absolute
	REL             // Relative
)

var modeName = []string{
	"IMP",
	"IMM",
	"ABS",
	"REL",
}

func (m Mode) String() string {
	if int(m) < len(modeName) {
		return modeName[m]
	}
	return "???"
}

// OperandMax returns the largest operand value accepted by the addressing
// mode. Implied instructions accept no operand and return 0.
func (m Mode) OperandMax() int64 {
	switch m {
	case IMM:
		return 0xff
	case ABS, REL:
		return 0xffff
	default:
		return 0
	}
}

// An Instruction describes a CPU instruction, including its name,
// its addressing mode, its opcode value and its encoded size.
type Instruction struct {
	Name   string // all-caps name of the instruction
	Mode   Mode   // addressing mode
	Opcode byte   // hexadecimal opcode value
	Length byte   // combined size of opcode and operand, in bytes
}

// All valid (name, mode) pairs. Each mnemonic is bound to exactly one mode.
var data = []Instruction{
	{"CLC", IMP, 0x18, 1},
	{"CLD", IMP, 0xd8, 1},
	{"RTI", IMP, 0x40, 1},
	{"SEI", IMP, 0x78, 1},
	{"TXS", IMP, 0x9a, 1},

	{"LDA", IMM, 0xa9, 2},
	{"LDX", IMM, 0xa2, 2},

	{"BIT", ABS, 0x2c, 3},
	{"JMP", ABS, 0x4c, 3},
	{"STA", ABS, 0x8d, 3},

	{"BCS", REL, 0xb0, 2},
	{"BPL", REL, 0xd0, 2},
}

// NOP is the opcode used to fill address gaps.
const NOP byte = 0xea

// An InstructionSet indexes the supported instructions by name and by
// opcode.
type InstructionSet struct {
	byOpcode [256]*Instruction
	byName   map[string]*Instruction
}

// Lookup retrieves the instruction corresponding to the requested opcode,
// or nil if the opcode is not part of the set.
func (s *InstructionSet) Lookup(opcode byte) *Instruction {
	return s.byOpcode[opcode]
}

// GetInstruction returns the instruction whose name exactly matches the
// provided string. Matching is case-sensitive.
func (s *InstructionSet) GetInstruction(name string) *Instruction {
	return s.byName[name]
}

// Instructions returns every instruction in the set, in table order.
func (s *InstructionSet) Instructions() []*Instruction {
	l := make([]*Instruction, len(data))
	for i := range data {
		l[i] = s.byName[data[i].Name]
	}
	return l
}

func newInstructionSet() *InstructionSet {
	set := &InstructionSet{byName: make(map[string]*Instruction, len(data))}
	for i := range data {
		inst := &data[i]
		if set.byOpcode[inst.Opcode] != nil || set.byName[inst.Name] != nil {
			panic("duplicate instruction")
		}
		if int(inst.Length) != 1+operandSize(inst.Mode) {
			panic("invalid instruction length")
		}
		set.byOpcode[inst.Opcode] = inst
		set.byName[inst.Name] = inst
	}
	return set
}

func operandSize(m Mode) int {
	switch m {
	case IMM, REL:
		return 1
	case ABS:
		return 2
	default:
		return 0
	}
}

var instructionSet *InstructionSet

// GetInstructionSet returns the supported instruction set.
func GetInstructionSet() *InstructionSet {
	if instructionSet == nil {
		// Lazy-create the instruction set.
		instructionSet = newInstructionSet()
	}
	return instructionSet
}
