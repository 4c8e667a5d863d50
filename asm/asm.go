// Copyright 2022 The asm7x Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package asm implements an assembler for a small subset of 6502 assembly
// language.
//
// Source text is line oriented. Each line holds an optional label
// (letters followed by ':', starting in the first column), an optional
// indented instruction and an optional comment introduced by ';'. Every
// line, including the last one, ends with a newline.
//
// Supported instructions are CLC, CLD, RTI, SEI and TXS (no parameter),
// LDA and LDX (immediate parameter, '#n'), BIT, JMP and STA (absolute
// address) and the branches BCS and BPL. The directives org, byte and
// processor are also understood. Numbers are decimal.
//
// Labels are recorded in the parsed program but are not resolved to
// addresses; every operand must be a literal number.
package asm

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Assembly contains the assembled machine code and other data associated with
// the machine code.
type Assembly struct {
	Origin  uint16       // Address of the first code byte
	Code    []byte       // Assembled machine code
	Errors  []string     // Errors encountered during assembly
	Program *Program     // Parsed source
	Lines   []SourceLine // Address of the code generated for each line
}

// ReadFrom reads machine code from a binary input source.
func (a *Assembly) ReadFrom(r io.Reader) (n int64, err error) {
	a.Errors = []string{}
	a.Code, err = io.ReadAll(r)
	n = int64(len(a.Code))
	if n > 0x10000 {
		return n, fmt.Errorf("code exceeded 64K size")
	}
	return n, err
}

// WriteTo saves machine code as binary data into an output writer.
func (a *Assembly) WriteTo(w io.Writer) (n int64, err error) {
	nn, err := w.Write(a.Code)
	return int64(nn), err
}

// WriteListing writes the parsed program along with the address and bytes
// generated for each line.
func (a *Assembly) WriteListing(w io.Writer) error {
	if a.Program == nil {
		return errors.New("assembly has no parsed program")
	}

	generated := make(map[int]SourceLine, len(a.Lines))
	for _, l := range a.Lines {
		generated[l.Line] = l
	}

	bw := bufio.NewWriter(w)
	for i := range a.Program.Lines {
		line := &a.Program.Lines[i]

		var addr, code string
		if l, ok := generated[line.Row]; ok {
			addr = fmt.Sprintf("%04X", l.Address)
			code = a.codeString(l)
		}
		fmt.Fprintf(bw, "%-4s  %-9s %s\n", addr, code, listingRow(line))
	}
	return bw.Flush()
}

// Format up to three bytes of the code generated by a line.
func (a *Assembly) codeString(l SourceLine) string {
	start := l.Address - int(a.Origin)
	if l.Length == 0 || start < 0 || start+l.Length > len(a.Code) {
		return ""
	}
	b := a.Code[start : start+l.Length]
	if len(b) > 3 {
		return byteString(b[:3]) + "+"
	}
	return byteString(b)
}

// Option type used by the Assemble function.
type Option uint

// Options for the Assemble function.
const (
	Verbose Option = 1 << iota // verbose output during assembly
	Listing                    // AssembleFile also writes a listing file
)

// AssembleFile reads a file containing 6502 assembly code, assembles it,
// and produces a binary output file and a source map file.
func AssembleFile(path string, options Option, out io.Writer) error {
	if out == nil {
		out = os.Stdout
	}

	inFile, err := os.Open(path)
	if err != nil {
		return err
	}
	defer inFile.Close()

	assembly, sourceMap, err := Assemble(inFile, path, out, options)
	if err != nil {
		for _, e := range assembly.Errors {
			fmt.Fprintln(out, e)
		}
		return err
	}

	ext := filepath.Ext(path)
	prefix := path[:len(path)-len(ext)]

	binPath := prefix + ".bin"
	if err := writeFile(binPath, assembly.WriteTo); err != nil {
		return err
	}

	mapPath := prefix + ".map"
	if err := writeFile(mapPath, sourceMap.WriteTo); err != nil {
		return err
	}

	if options&Listing != 0 {
		lstPath := prefix + ".lst"
		err := writeFile(lstPath, func(w io.Writer) (int64, error) {
			return 0, assembly.WriteListing(w)
		})
		if err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "Assembled '%s' to produce '%s' and '%s'.\n",
		filepath.Base(path),
		filepath.Base(binPath),
		filepath.Base(mapPath))
	return nil
}

func writeFile(path string, fn func(w io.Writer) (int64, error)) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}

	_, err = fn(file)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("writing '%s': %w", filepath.Base(path), err)
	}
	return nil
}

// Assemble reads data from the provided stream and attempts to assemble it
// into 6502 byte code. The source id names the stream in diagnostics.
//
// Code is generated into a buffer and only returned if assembly succeeds.
// On failure the returned Assembly holds the diagnostic in Errors and the
// error is an *Error.
func Assemble(r io.Reader, source string, out io.Writer, options Option) (*Assembly, *SourceMap, error) {
	log := newLogger(out, options&Verbose != 0)
	assembly := &Assembly{}

	text, err := io.ReadAll(r)
	if err != nil {
		err = fmt.Errorf("reading '%s': %w", source, err)
		assembly.Errors = []string{err.Error()}
		return assembly, nil, err
	}

	log.logSection("Parsing assembly code")
	prog, err := parse(source, string(text), log)
	if err != nil {
		assembly.Errors = []string{err.Error()}
		return assembly, nil, err
	}

	var code bytes.Buffer
	g := NewGenerator(&code)
	g.log = log
	if err := g.Generate(prog); err != nil {
		assembly.Errors = []string{err.Error()}
		return assembly, nil, err
	}

	assembly.Origin = uint16(g.Origin())
	assembly.Code = code.Bytes()
	assembly.Program = prog
	assembly.Lines = g.Lines()

	sourceMap := &SourceMap{
		Source: source,
		Origin: assembly.Origin,
		Size:   uint32(len(assembly.Code)),
		CRC:    crc32.ChecksumIEEE(assembly.Code),
		Lines:  assembly.Lines,
	}

	log.log("Assembled %d bytes at $%04X", len(assembly.Code), assembly.Origin)
	return assembly, sourceMap, nil
}

// AssembleString assembles a source text held in memory.
func AssembleString(source, text string, options Option) (*Assembly, error) {
	assembly, _, err := Assemble(strings.NewReader(text), source, nil, options&^Listing)
	return assembly, err
}
