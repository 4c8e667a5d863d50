// Copyright 2022 The asm7x Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm_test

import (
	"bytes"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jbqueru/asm7x/asm"
)

const resetProgram = " processor 6502\n org 100\n byte 1\nReset:\n\tLDX\t#255\n\tTXS\n"

func assemble(code string) (*asm.Assembly, *asm.SourceMap, error) {
	return asm.Assemble(strings.NewReader(code), "test", nil, 0)
}

func checkASM(t *testing.T, code string, expected string) *asm.Assembly {
	t.Helper()
	assembly, _, err := assemble(code)
	if err != nil {
		t.Fatal(err)
	}

	s := strings.ToUpper(hex.EncodeToString(assembly.Code))
	if s != expected {
		t.Error("code doesn't match expected")
		t.Errorf("got: %s\n", s)
		t.Errorf("exp: %s\n", expected)
	}
	return assembly
}

func checkASMError(t *testing.T, code string, errString string) {
	t.Helper()
	assembly, sourceMap, err := assemble(code)
	if err == nil {
		t.Fatalf("Expected error on %q, didn't get one", code)
	}
	if errString != err.Error() {
		t.Errorf("Expected '%s', got '%v'", errString, err)
	}
	if len(assembly.Code) != 0 || sourceMap != nil {
		t.Errorf("failed assembly returned code % X", assembly.Code)
	}
	if len(assembly.Errors) != 1 || assembly.Errors[0] != errString {
		t.Errorf("Errors: %q", assembly.Errors)
	}
}

func TestResetProgram(t *testing.T) {
	assembly := checkASM(t, resetProgram, "01A2FF9A")
	if assembly.Origin != 100 {
		t.Errorf("origin. exp: 100, got: %d", assembly.Origin)
	}
	if len(assembly.Program.Lines) != 6 || assembly.Program.Lines[3].Label != "Reset" {
		t.Errorf("unexpected program: %+v", assembly.Program.Lines)
	}
}

func TestAssembleErrors(t *testing.T) {
	checkASMError(t, "\torg 10\n\torg 10\n", "test:2:6: origin moved backward")
	checkASMError(t, "\tBCS\t9999999\n", "test:1:6: invalid parameter value 9999999 for 'BCS' (expected 0 to 65535)")
	checkASMError(t, "\tFOO\n", "test:1:2: unknown instruction 'FOO'")
	checkASMError(t, "\tbyte 256\n", "test:1:7: invalid parameter value 256 for 'byte' (expected 0 to 255)")
	checkASMError(t, "\tCLC\n\tSEI", "test:2:5: unexpected end of input in instruction")
	checkASMError(t, "\tCLC\n\tLDA #300\n", "test:2:7: invalid parameter value 300 for 'LDA' (expected 0 to 255)")
}

func TestAssembleByte255(t *testing.T) {
	checkASM(t, "\tbyte 255\n", "FF")
}

func TestAssembleKinds(t *testing.T) {
	_, _, err := assemble("\tJMP 99999\n")
	var e *asm.Error
	if !errors.As(err, &e) || e.Kind != asm.Semantic {
		t.Errorf("expected semantic *asm.Error, got %v", err)
	}
	if !errors.Is(err, asm.ErrSemantic) || errors.Is(err, asm.ErrLexical) {
		t.Errorf("kind sentinel mismatch for %v", err)
	}

	_, _, err = assemble("Bad1:\n")
	if !errors.Is(err, asm.ErrLexical) {
		t.Errorf("expected lexical error, got %v", err)
	}

	_, _, err = assemble("\tSTA\n")
	if !errors.Is(err, asm.ErrStructural) {
		t.Errorf("expected structural error, got %v", err)
	}
}

func TestAssembleString(t *testing.T) {
	assembly, err := asm.AssembleString("inline", "\tSEI\n\tCLD\n\tLDA #0\n", asm.Verbose)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(assembly.Code, []byte{0x78, 0xd8, 0xa9, 0x00}) {
		t.Errorf("code % X", assembly.Code)
	}
}

func TestSourceMap(t *testing.T) {
	_, sourceMap, err := assemble(resetProgram)
	if err != nil {
		t.Fatal(err)
	}
	if sourceMap.Origin != 100 || sourceMap.Size != 4 || sourceMap.Source != "test" {
		t.Errorf("source map header: %+v", sourceMap)
	}

	tests := []struct {
		addr int
		line int
	}{
		{99, -1},
		{100, 3},
		{101, 5},
		{102, 5},
		{103, 6},
		{104, -1},
	}
	for _, tt := range tests {
		if line := sourceMap.Search(tt.addr); line != tt.line {
			t.Errorf("Search(%d). exp: %d, got: %d", tt.addr, tt.line, line)
		}
	}

	var buf bytes.Buffer
	if _, err := sourceMap.WriteTo(&buf); err != nil {
		t.Fatal(err)
	}
	var loaded asm.SourceMap
	if _, err := loaded.ReadFrom(&buf); err != nil {
		t.Fatal(err)
	}
	if loaded.CRC != sourceMap.CRC || len(loaded.Lines) != len(sourceMap.Lines) {
		t.Errorf("reloaded source map differs: %+v", loaded)
	}
}

func TestProgramListing(t *testing.T) {
	assembly := checkASM(t, resetProgram, "01A2FF9A")

	var buf bytes.Buffer
	if err := assembly.Program.WriteListing(&buf); err != nil {
		t.Fatal(err)
	}
	expected := "" +
		"   1               processor  6502\n" +
		"   2               org        100\n" +
		"   3               byte       1\n" +
		"   4  Reset:\n" +
		"   5               LDX        #255\n" +
		"   6               TXS\n"
	if buf.String() != expected {
		t.Errorf("listing:\n%s\nexpected:\n%s", buf.String(), expected)
	}
}

func TestAssemblyListing(t *testing.T) {
	assembly := checkASM(t, resetProgram, "01A2FF9A")

	var buf bytes.Buffer
	if err := assembly.WriteListing(&buf); err != nil {
		t.Fatal(err)
	}
	expected := "" +
		"0000               1               processor  6502\n" +
		"0064               2               org        100\n" +
		"0064  01           3               byte       1\n" +
		"                   4  Reset:\n" +
		"0065  A2 FF        5               LDX        #255\n" +
		"0067  9A           6               TXS\n"
	if buf.String() != expected {
		t.Errorf("listing:\n%s\nexpected:\n%s", buf.String(), expected)
	}
}

func TestVerboseOutput(t *testing.T) {
	var out bytes.Buffer
	_, _, err := asm.Assemble(strings.NewReader(resetProgram), "test", &out, asm.Verbose)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"-- Parsing assembly code --", "-- Generating code --", "0065-*  A2 FF"} {
		if !strings.Contains(out.String(), s) {
			t.Errorf("verbose output missing %q:\n%s", s, out.String())
		}
	}

	out.Reset()
	_, _, err = asm.Assemble(strings.NewReader(resetProgram), "test", &out, 0)
	if err != nil || out.Len() != 0 {
		t.Errorf("quiet assembly wrote %q (err %v)", out.String(), err)
	}
}

func TestAssembleFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "reset.asm")
	if err := os.WriteFile(path, []byte(resetProgram), 0600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	if err := asm.AssembleFile(path, asm.Listing, &out); err != nil {
		t.Fatalf("%v\n%s", err, out.String())
	}

	bin, err := os.ReadFile(filepath.Join(dir, "reset.bin"))
	if err != nil || !bytes.Equal(bin, []byte{0x01, 0xa2, 0xff, 0x9a}) {
		t.Errorf("bin file % X (err %v)", bin, err)
	}

	mapFile, err := os.Open(filepath.Join(dir, "reset.map"))
	if err != nil {
		t.Fatal(err)
	}
	defer mapFile.Close()
	var sourceMap asm.SourceMap
	if _, err := sourceMap.ReadFrom(mapFile); err != nil || sourceMap.Origin != 100 {
		t.Errorf("map file origin %d (err %v)", sourceMap.Origin, err)
	}

	lst, err := os.ReadFile(filepath.Join(dir, "reset.lst"))
	if err != nil || !strings.Contains(string(lst), "A2 FF") {
		t.Errorf("listing file %q (err %v)", lst, err)
	}
}

func TestAssembleFileError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.asm")
	if err := os.WriteFile(path, []byte("\tFOO\n"), 0600); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	err := asm.AssembleFile(path, 0, &out)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(out.String(), "bad.asm:1:2: unknown instruction 'FOO'") {
		t.Errorf("diagnostic output: %q", out.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "bad.bin")); !os.IsNotExist(err) {
		t.Errorf("binary written for failed assembly")
	}
}
