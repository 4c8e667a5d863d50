// Copyright 2018 Brett Vickers. All rights reserved.
// Copyright 2022 The asm7x Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package host implements an interactive shell around the asm7x
// assembler. The shell owns 64K of memory into which assembled or
// previously saved binaries are loaded, and offers commands to list
// source files, disassemble code and dump memory.
package host

import (
	"bufio"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/beevik/cmd"
	"github.com/jbqueru/asm7x/asm"
	"github.com/jbqueru/asm7x/cpu"
	"github.com/jbqueru/asm7x/disasm"
)

// A Host holds the memory image and shell state used by the commands.
type Host struct {
	input       *bufio.Scanner
	output      *bufio.Writer
	interactive bool
	mem         *cpu.FlatMemory
	lastCmd     *cmd.Selection
	sourceMap   *asm.SourceMap
	settings    *settings
}

// New creates a new host with empty memory.
func New() *Host {
	return &Host{
		output:   bufio.NewWriter(os.Stdout),
		mem:      cpu.NewFlatMemory(),
		settings: newSettings(),
	}
}

// RunCommands accepts host commands from a reader and outputs the results
// to a writer. If the commands are interactive, a prompt is displayed while
// the host waits for the the next command to be entered.
func (h *Host) RunCommands(r io.Reader, w io.Writer, interactive bool) {
	h.input = bufio.NewScanner(r)
	h.output = bufio.NewWriter(w)
	h.interactive = interactive

	if interactive {
		h.println()
	}

	for {
		h.prompt()

		line, err := h.getLine()
		if err != nil {
			break
		}

		var c cmd.Selection
		if line != "" {
			c, err = cmds.Lookup(line)
			switch {
			case err == cmd.ErrNotFound:
				h.println("Command not found.")
				continue
			case err == cmd.ErrAmbiguous:
				h.println("Command is ambiguous.")
				continue
			case err != nil:
				h.printf("ERROR: %v.\n", err)
				continue
			}
		} else if h.lastCmd != nil {
			c = *h.lastCmd
		}

		if c.Command == nil {
			continue
		}
		h.lastCmd = &c

		handler := c.Command.Data.(func(*Host, cmd.Selection) error)
		err = handler(h, c)
		if err != nil {
			break
		}
	}
	h.flush()
}

// AssembleFile assembles a file, writing its binary and source map next
// to it, and loads the result into the host's memory.
func (h *Host) AssembleFile(filename string) error {
	if filepath.Ext(filename) == "" {
		filename += ".asm"
	}
	defer h.flush()

	err := asm.AssembleFile(filename, h.options(), h.output)
	if err != nil {
		var e *asm.Error
		if !errors.As(err, &e) {
			h.printf("%v\n", err)
		}
		h.printf("Failed to assemble: %s\n", filepath.Base(filename))
		return err
	}

	ext := filepath.Ext(filename)
	h.load(filename[:len(filename)-len(ext)]+".bin", -1)
	return nil
}

func (h *Host) options() asm.Option {
	var options asm.Option
	if h.settings.Verbose {
		options |= asm.Verbose
	}
	if h.settings.Listing {
		options |= asm.Listing
	}
	return options
}

func (h *Host) printf(format string, args ...any) {
	fmt.Fprintf(h.output, format, args...)
	h.flush()
}

func (h *Host) println(args ...any) {
	fmt.Fprintln(h.output, args...)
	h.flush()
}

func (h *Host) flush() {
	h.output.Flush()
}

func (h *Host) getLine() (string, error) {
	if h.input.Scan() {
		return strings.TrimSpace(h.input.Text()), nil
	}
	if h.input.Err() != nil {
		return "", h.input.Err()
	}
	return "", io.EOF
}

func (h *Host) prompt() {
	if h.interactive {
		h.printf("* ")
	}
}

func (h *Host) cmdAssemble(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayHelpText(c.Command)
		return nil
	}
	h.AssembleFile(c.Args[0])
	return nil
}

func (h *Host) cmdDisassemble(c cmd.Selection) error {
	addr := h.settings.NextDisasmAddr
	if len(c.Args) > 0 && c.Args[0] != "$" {
		a, err := parseNumber(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		addr = a
	}

	lines := h.settings.DisasmLines
	if len(c.Args) > 1 {
		l, err := parseNumber(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		lines = int(l)
	}

	for range lines {
		d, next := h.disassemble(addr)
		h.println(d)
		addr = next
	}

	h.settings.NextDisasmAddr = addr
	h.lastCmd.Args = []string{"$", fmt.Sprintf("%d", lines)}
	return nil
}

func (h *Host) cmdHelp(c cmd.Selection) error {
	if len(c.Args) == 0 {
		h.displayCommands("")
		return nil
	}

	name := strings.Join(c.Args, " ")
	s, err := cmds.Lookup(name)
	switch {
	case err != nil:
		h.printf("%v\n", err)
	case s.Command == nil:
		h.displayCommands(name + " ")
	default:
		if s.Command.Usage != "" {
			h.printf("Syntax: %s\n\n", s.Command.Usage)
		}
		switch {
		case s.Command.Description != "":
			h.printf("Description:\n%s\n\n", indentWrap(3, s.Command.Description))
		case s.Command.Brief != "":
			h.printf("Description:\n%s.\n\n", indentWrap(3, s.Command.Brief))
		}
	}
	return nil
}

func (h *Host) cmdList(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayHelpText(c.Command)
		return nil
	}

	filename := c.Args[0]
	if filepath.Ext(filename) == "" {
		filename += ".asm"
	}

	file, err := os.Open(filename)
	if err != nil {
		h.printf("Failed to open '%s': %v\n", filepath.Base(filename), err)
		return nil
	}
	defer file.Close()

	assembly, _, err := asm.Assemble(file, filename, h.output, h.options())
	if err != nil {
		h.printf("Failed to assemble: %s\n", filepath.Base(filename))
		for _, e := range assembly.Errors {
			h.println(e)
		}
		return nil
	}

	if err := assembly.WriteListing(h.output); err != nil {
		h.printf("%v\n", err)
	}
	h.flush()
	return nil
}

func (h *Host) cmdLoad(c cmd.Selection) error {
	if len(c.Args) < 1 {
		h.displayHelpText(c.Command)
		return nil
	}

	filename := c.Args[0]
	if filepath.Ext(filename) == "" {
		filename += ".bin"
	}

	loadAddr := -1
	if len(c.Args) >= 2 {
		addr, err := parseNumber(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		loadAddr = int(addr)
	}

	h.load(filename, loadAddr)
	return nil
}

func (h *Host) cmdMemoryDump(c cmd.Selection) error {
	addr := h.settings.NextMemDumpAddr
	if len(c.Args) > 0 && c.Args[0] != "$" {
		a, err := parseNumber(c.Args[0])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
		addr = a
	}

	bytes := uint16(h.settings.MemDumpBytes)
	if len(c.Args) >= 2 {
		var err error
		bytes, err = parseNumber(c.Args[1])
		if err != nil {
			h.printf("%v\n", err)
			return nil
		}
	}

	h.dumpMemory(addr, bytes)

	h.settings.NextMemDumpAddr = addr + bytes
	h.lastCmd.Args = []string{"$", fmt.Sprintf("%d", bytes)}
	return nil
}

func (h *Host) cmdQuit(c cmd.Selection) error {
	return errors.New("Exiting program")
}

func (h *Host) cmdSet(c cmd.Selection) error {
	switch len(c.Args) {
	case 0:
		h.println("Variables:")
		h.settings.Display(h.output)
		h.flush()

	case 1:
		h.displayHelpText(c.Command)

	default:
		key, value := c.Args[0], strings.Join(c.Args[1:], " ")

		var err error
		switch h.settings.Kind(key) {
		case reflect.Invalid:
			err = fmt.Errorf("Setting '%s' not found", key)
		case reflect.Bool:
			var v bool
			v, err = stringToBool(value)
			if err == nil {
				err = h.settings.Set(key, v)
			}
		default:
			var v uint16
			v, err = parseNumber(value)
			if err == nil {
				err = h.settings.Set(key, v)
			}
		}

		if err == nil {
			h.println("Setting updated.")
		} else {
			h.printf("%v\n", err)
		}
	}

	return nil
}

// Load a binary file into memory. The binary's source map, if present and
// matching, supplies the load address unless addr is given (not -1).
func (h *Host) load(filename string, addr int) {
	file, err := os.Open(filename)
	if err != nil {
		h.printf("Failed to open '%s': %v\n", filepath.Base(filename), err)
		return
	}
	defer file.Close()

	a := &asm.Assembly{}
	if _, err := a.ReadFrom(file); err != nil {
		h.printf("Failed to read '%s': %v\n", filepath.Base(filename), err)
		return
	}

	ext := filepath.Ext(filename)
	mapFilename := filename[:len(filename)-len(ext)] + ".map"
	sourceMap, err := readSourceMap(mapFilename)
	switch {
	case err == nil:
		if sourceMap.Size != uint32(len(a.Code)) || sourceMap.CRC != crc32.ChecksumIEEE(a.Code) {
			h.printf("Source map '%s' does not match '%s'\n",
				filepath.Base(mapFilename), filepath.Base(filename))
			sourceMap = nil
		} else if addr == -1 {
			addr = int(sourceMap.Origin)
		}
	case !errors.Is(err, fs.ErrNotExist):
		h.printf("Failed to read '%s': %v\n", filepath.Base(mapFilename), err)
	}

	if addr == -1 {
		h.printf("File '%s' has no source map and requires an address\n", filepath.Base(filename))
		return
	}
	if err := h.mem.StoreBytes(uint16(addr), a.Code); err != nil {
		h.printf("Failed to load '%s': %v\n", filepath.Base(filename), err)
		return
	}

	if sourceMap != nil && int(sourceMap.Origin) != addr {
		sourceMap = nil
	}
	h.sourceMap = sourceMap
	h.settings.NextDisasmAddr = uint16(addr)
	h.settings.NextMemDumpAddr = uint16(addr)
	h.printf("Loaded '%s' to $%04X (%d bytes)\n", filepath.Base(filename), addr, len(a.Code))
}

func readSourceMap(filename string) (*asm.SourceMap, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	s := &asm.SourceMap{}
	if _, err := s.ReadFrom(file); err != nil {
		return nil, err
	}
	return s, nil
}

func (h *Host) disassemble(addr uint16) (str string, next uint16) {
	var line string
	line, next = disasm.Disassemble(h.mem, addr)

	b := make([]byte, disasm.Bytes(h.mem, addr))
	h.mem.LoadBytes(addr, b)

	str = fmt.Sprintf("%04X-   %-8s    %-15s", addr, codeString(b), line)
	if h.sourceMap != nil {
		if row := h.sourceMap.Search(int(addr)); row >= 0 {
			str += fmt.Sprintf(" ; line %d", row)
		}
	}
	return strings.TrimRight(str, " "), next
}

func (h *Host) dumpMemory(addr0, bytes uint16) {
	if bytes == 0 {
		return
	}

	addr1 := addr0 + bytes - 1
	if addr1 < addr0 {
		addr1 = 0xffff
	}

	buf := []byte("    -" + strings.Repeat(" ", 35))

	// Don't align display for short dumps.
	if addr1-addr0 < 8 {
		addrToBuf(addr0, buf[0:4])
		for a, c1, c2 := uint32(addr0), 6, 32; a <= uint32(addr1); a, c1, c2 = a+1, c1+3, c2+1 {
			m := h.mem.LoadByte(uint16(a))
			byteToBuf(m, buf[c1:c1+2])
			buf[c2] = toPrintableChar(m)
		}
		h.println(strings.TrimRight(string(buf), " "))
		return
	}

	// Align addr0 and addr1 to 8-byte boundaries.
	start := uint32(addr0) & 0xfff8
	stop := min((uint32(addr1)+8)&0xffff8, 0x10000)

	a := start
	for r := start; r < stop; r += 8 {
		addrToBuf(uint16(a), buf[0:4])
		for c1, c2 := 6, 32; c1 < 29; c1, c2, a = c1+3, c2+1, a+1 {
			if a >= uint32(addr0) && a <= uint32(addr1) {
				m := h.mem.LoadByte(uint16(a))
				byteToBuf(m, buf[c1:c1+2])
				buf[c2] = toPrintableChar(m)
			} else {
				buf[c1] = ' '
				buf[c1+1] = ' '
				buf[c2] = ' '
			}
		}
		h.println(strings.TrimRight(string(buf), " "))
	}
}

func (h *Host) displayHelpText(c *cmd.Command) {
	if c.Usage != "" {
		h.printf("Syntax: %s\n", c.Usage)
	} else {
		h.println("<no help text>")
	}
}

// Display the commands whose path begins with prefix.
func (h *Host) displayCommands(prefix string) {
	title := "asm7x"
	if prefix != "" {
		title = strings.TrimSpace(prefix)
	}
	h.printf("%s commands:\n", title)
	for _, c := range commandIndex {
		if strings.HasPrefix(c.path, prefix) {
			h.printf("    %-15s  %s\n", c.path, c.brief)
		}
	}
}
