// Copyright 2014 Brett Vickers. All rights reserved.
// Copyright 2022 The asm7x Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package disasm implements a disassembler for the 6502 instruction
// subset produced by the asm package.
package disasm

import (
	"fmt"

	"github.com/jbqueru/asm7x/cpu"
)

// Memory is the address space read by the disassembler. It is satisfied
// by cpu.FlatMemory.
type Memory interface {
	LoadByte(addr uint16) byte
	LoadBytes(addr uint16, b []byte)
}

// Disassembler formatting for addressing modes
var modeFormat = map[cpu.Mode]string{
	cpu.IMP: "%s",
	cpu.IMM: "#$%s",
	cpu.ABS: "$%s",
	cpu.REL: "$%s",
}

var hex = "0123456789ABCDEF"

// Return a hexadecimal string representation of the byte slice, most
// significant byte last in memory order.
func hexString(b []byte) string {
	hexlen := len(b) * 2
	hexbuf := make([]byte, hexlen)
	j := hexlen - 1
	for _, n := range b {
		hexbuf[j] = hex[n&0xf]
		hexbuf[j-1] = hex[n>>4]
		j -= 2
	}
	return string(hexbuf)
}

// Disassemble the machine code in memory 'm' at address 'addr'. Return a
// 'line' string representing the disassembled instruction and a 'next'
// address that starts the following line of machine code. Bytes that do
// not start a known instruction are shown as data.
//
// Branch offsets are decoded as signed bytes, as the CPU does. A forward
// branch assembled more than 127 bytes ahead is therefore shown with the
// backward target it actually reaches.
func Disassemble(m Memory, addr uint16) (line string, next uint16) {
	opcode := m.LoadByte(addr)
	inst := cpu.GetInstructionSet().Lookup(opcode)
	if inst == nil {
		return fmt.Sprintf(".byte $%02X", opcode), addr + 1
	}

	operand := make([]byte, inst.Length-1)
	m.LoadBytes(addr+1, operand)
	next = addr + uint16(inst.Length)

	if inst.Mode == cpu.REL {
		// Convert relative offset to absolute address.
		braddr := next + uint16(int8(operand[0]))
		operand = []byte{byte(braddr), byte(braddr >> 8)}
	}

	if inst.Mode == cpu.IMP {
		return inst.Name, next
	}
	format := "%s " + modeFormat[inst.Mode]
	return fmt.Sprintf(format, inst.Name, hexString(operand)), next
}

// Bytes returns the number of bytes occupied by the instruction starting at
// addr.
func Bytes(m Memory, addr uint16) int {
	if inst := cpu.GetInstructionSet().Lookup(m.LoadByte(addr)); inst != nil {
		return int(inst.Length)
	}
	return 1
}
