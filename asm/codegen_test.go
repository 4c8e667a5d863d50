// Copyright 2022 The asm7x Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func generate(t *testing.T, src string) ([]byte, *Generator, error) {
	t.Helper()
	prog, err := Parse("test", src)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	var buf bytes.Buffer
	g := NewGenerator(&buf)
	err = g.Generate(prog)
	return buf.Bytes(), g, err
}

func checkCode(t *testing.T, src string, expected string) *Generator {
	t.Helper()
	code, g, err := generate(t, src)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := byteString(code); got != expected {
		t.Errorf("code doesn't match expected")
		t.Errorf("got: %s", got)
		t.Errorf("exp: %s", expected)
	}
	return g
}

func checkCodeError(t *testing.T, src string, kind error, msg string) []byte {
	t.Helper()
	code, _, err := generate(t, src)
	if err == nil {
		t.Fatalf("expected error generating %q", src)
	}
	if !errors.Is(err, kind) {
		t.Errorf("expected %v, got %v", kind, err)
	}
	if !strings.Contains(err.Error(), msg) {
		t.Errorf("message. exp substring %q, got %q", msg, err.Error())
	}
	return code
}

func TestImplied(t *testing.T) {
	checkCode(t, "\tCLC\n\tCLD\n\tRTI\n\tSEI\n\tTXS\n", "18 D8 40 78 9A")
}

func TestImpliedIgnoresCounter(t *testing.T) {
	for _, origin := range []string{"0", "1", "255", "4096", "65535"} {
		checkCode(t, "\torg "+origin+"\n\tCLC\n", "18")
	}
}

func TestImmediate(t *testing.T) {
	checkCode(t, "\tLDA #0\n\tLDX #255\n\tLDA #32\n", "A9 00 A2 FF A9 20")
}

func TestAbsolute(t *testing.T) {
	checkCode(t, "\tBIT 8192\n\tJMP 4660\n\tSTA 65535\n\tSTA 0\n",
		"2C 00 20 4C 34 12 8D FF FF 8D 00 00")
}

func TestBranch(t *testing.T) {
	checkCode(t, "\torg 1000\n\tBCS 1000\n", "B0 FE")
	checkCode(t, "\torg 1000\n\tBPL 1010\n", "D0 08")
	checkCode(t, "\tBCS 5\n", "B0 03")
	checkCode(t, "\torg 1000\n\tBCS 1002\n", "B0 00")

	// The range check only bounds the destination from below.
	checkCode(t, "\torg 1000\n\tBCS 2000\n", "B0 E6")
}

func TestBranchOutOfRange(t *testing.T) {
	code := checkCodeError(t, "\torg 1000\n\tBCS 999\n", ErrBranchRange, "branch out of range")
	if len(code) != 0 {
		t.Errorf("bytes written: % X", code)
	}
	checkCodeError(t, "\torg 1000\n\tBPL 872\n", ErrSemantic, "branch out of range")
	checkCodeError(t, "\tBCS\t9999999\n", ErrSemantic, "invalid parameter value")
	checkCodeError(t, "\tBCS #1\n", ErrSemantic, "invalid parameter type")
}

func TestOriginPadding(t *testing.T) {
	g := checkCode(t, "\torg 10\n\tCLC\n\torg 14\n\tSEI\n", "18 EA EA EA 78")
	if g.Origin() != 10 || g.Addr() != 15 {
		t.Errorf("origin $%X addr $%X", g.Origin(), g.Addr())
	}
}

func TestOriginFirstSetsCounter(t *testing.T) {
	g := checkCode(t, "\torg 100\n", "")
	if g.Addr() != 100 || g.Origin() != 100 {
		t.Errorf("addr %d origin %d", g.Addr(), g.Origin())
	}

	// A zero origin leaves the counter unset.
	g = checkCode(t, "\torg 0\n\torg 0\n\torg 3\n\tCLC\n", "18")
	if g.Origin() != 3 {
		t.Errorf("origin %d", g.Origin())
	}
}

func TestOriginAfterCodeAtZero(t *testing.T) {
	checkCode(t, "\tCLC\n\torg 3\n\tSEI\n", "18 EA EA 78")
}

func TestOriginBackward(t *testing.T) {
	_, _, err := generate(t, "\torg 10\n\torg 10\n")
	if !errors.Is(err, ErrOriginBackward) || !errors.Is(err, ErrSemantic) {
		t.Fatalf("expected origin moved backward, got %v", err)
	}
	if err.Error() != "test:2:6: origin moved backward" {
		t.Errorf("message: %s", err.Error())
	}

	checkCodeError(t, "\torg 10\n\tCLC\n\torg 5\n", ErrOriginBackward, "origin moved backward")
	checkCodeError(t, "\torg 10\n\tCLC\n\torg 11\n\torg 11\n", ErrOriginBackward, "origin moved backward")
}

func TestOriginParameter(t *testing.T) {
	checkCodeError(t, "\torg 65536\n", ErrSemantic, "invalid parameter value 65536")
	checkCodeError(t, "\torg #5\n", ErrSemantic, "invalid parameter type")
	checkCodeError(t, "\torg\n", ErrStructural, "missing address parameter")
	checkCode(t, "\torg 65535\n\tCLC\n", "18")
}

func TestCheckOrigin(t *testing.T) {
	var buf bytes.Buffer
	g := NewGenerator(&buf)

	for _, addr := range []uint32{0, 1, 65535} {
		if err := g.CheckOrigin(addr); err != nil {
			t.Errorf("unset origin rejected %d: %v", addr, err)
		}
	}

	org := &Instruction{Mnemonic: "org", Param: &Parameter{Kind: Address, Value: 5}}
	if err := g.Instruction(1, org); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		addr uint32
		err  error
	}{
		{4, ErrOriginBackward},
		{5, ErrOriginBackward},
		{0, ErrOriginBackward},
		{6, nil},
		{65535, nil},
	}
	for _, tt := range tests {
		if err := g.CheckOrigin(tt.addr); err != tt.err {
			t.Errorf("CheckOrigin(%d). exp: %v, got: %v", tt.addr, tt.err, err)
		}
	}
	if buf.Len() != 0 {
		t.Errorf("CheckOrigin wrote bytes")
	}
}

func TestByte(t *testing.T) {
	checkCode(t, "\tbyte 255\n\tbyte 0\n\tbyte 1\n", "FF 00 01")
	checkCodeError(t, "\tbyte 256\n", ErrSemantic, "invalid parameter value 256")
	checkCodeError(t, "\tbyte #1\n", ErrSemantic, "invalid parameter type")
	checkCodeError(t, "\tbyte\n", ErrStructural, "missing address parameter")
}

func TestProcessor(t *testing.T) {
	g := checkCode(t, "\tprocessor\n\tprocessor 6502\n\tprocessor #1\n", "")
	if g.Addr() != 0 {
		t.Errorf("addr %d", g.Addr())
	}
}

func TestLabelsAreNotResolved(t *testing.T) {
	checkCode(t, "Start:\tCLC\nLoop:\n\tJMP 0\n", "18 4C 00 00")
}

func TestUnknownInstruction(t *testing.T) {
	code := checkCodeError(t, "\tFOO\n", ErrSemantic, "unknown instruction 'FOO'")
	if len(code) != 0 {
		t.Errorf("bytes written: % X", code)
	}
	checkCodeError(t, "\tclc\n", ErrSemantic, "unknown instruction 'clc'")
	checkCodeError(t, "\tORG 5\n", ErrSemantic, "unknown instruction 'ORG'")
	checkCodeError(t, "\tNOP\n", ErrSemantic, "unknown instruction 'NOP'")
}

func TestHashWithoutNumber(t *testing.T) {
	checkCode(t, "\tCLC #\n\tSEI # ;c\n", "18 78")
}

func TestParameterContracts(t *testing.T) {
	checkCodeError(t, "\tLDA\n", ErrStructural, "missing immediate parameter for 'LDA'")
	checkCodeError(t, "\tLDA #\n", ErrStructural, "missing immediate parameter for 'LDA'")
	checkCodeError(t, "\tJMP\n", ErrStructural, "missing address parameter for 'JMP'")
	checkCodeError(t, "\tBPL\n", ErrStructural, "missing address parameter for 'BPL'")
	checkCodeError(t, "\tCLC 5\n", ErrSemantic, "unexpected parameter for 'CLC'")
	checkCodeError(t, "\tTXS #5\n", ErrSemantic, "unexpected parameter for 'TXS'")
	checkCodeError(t, "\tLDA 5\n", ErrSemantic, "expected immediate, found address")
	checkCodeError(t, "\tJMP #5\n", ErrSemantic, "expected address, found immediate")
	checkCodeError(t, "\tLDX #256\n", ErrSemantic, "invalid parameter value 256")
	checkCodeError(t, "\tSTA 65536\n", ErrSemantic, "invalid parameter value 65536")
}

func TestFailedInstructionEmitsNothing(t *testing.T) {
	code, g, err := generate(t, "\torg 10\n\tCLC\n\tLDA #256\n\tSEI\n")
	if err == nil {
		t.Fatal("expected error")
	}
	if byteString(code) != "18" || g.Addr() != 11 {
		t.Errorf("code %s addr %d", byteString(code), g.Addr())
	}
}

func TestGeneratedLines(t *testing.T) {
	g := checkCode(t, " processor 6502\n org 100\n byte 1\nReset:\n\tLDX\t#255\n\tTXS\n", "01 A2 FF 9A")
	if g.Addr() != 104 || g.Origin() != 100 {
		t.Errorf("addr %d origin %d", g.Addr(), g.Origin())
	}

	expected := []SourceLine{
		{Address: 0, Line: 1, Length: 0},
		{Address: 100, Line: 2, Length: 0},
		{Address: 100, Line: 3, Length: 1},
		{Address: 101, Line: 5, Length: 2},
		{Address: 103, Line: 6, Length: 1},
	}
	lines := g.Lines()
	if len(lines) != len(expected) {
		t.Fatalf("line count. exp: %d, got: %d", len(expected), len(lines))
	}
	for i := range expected {
		if lines[i] != expected[i] {
			t.Errorf("line %d. exp: %+v, got: %+v", i, expected[i], lines[i])
		}
	}
}

type failingWriter struct{}

func (failingWriter) WriteByte(c byte) error {
	return errors.New("disk full")
}

func TestSinkError(t *testing.T) {
	prog, err := Parse("test", "\tCLC\n")
	if err != nil {
		t.Fatal(err)
	}
	err = NewGenerator(failingWriter{}).Generate(prog)
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Errorf("expected sink error, got %v", err)
	}
}
