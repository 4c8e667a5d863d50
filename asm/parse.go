// Copyright 2022 The asm7x Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import "strconv"

// The parser is a recursive-descent driver that consumes exactly one
// physical line, including its newline, per call to parseLine.
type parser struct {
	c   *Cursor
	log *logger
}

// Parse converts a source text into a Program. Every line of the text,
// including the last, must end with a newline. Parsing stops at the first
// error.
func Parse(source, text string) (*Program, error) {
	return parse(source, text, nil)
}

func parse(source, text string, log *logger) (*Program, error) {
	p := &parser{c: NewCursor(source, text), log: log}
	prog := &Program{Source: source}
	for !p.c.AtEnd() {
		line, err := p.parseLine()
		if err != nil {
			return nil, err
		}
		prog.Lines = append(prog.Lines, line)
	}
	return prog, nil
}

// Parse a single line: an optional label, an optional instruction and an
// optional comment.
func (p *parser) parseLine() (Line, error) {
	line := Line{Row: p.c.Pos().Line}

	label, pos, ok, err := labelScanner.scan(p.c)
	if err != nil {
		return line, err
	}

	switch {
	case ok:
		line.Label = label
		p.log.logPos(pos, "label=%s", label)
		if err := p.skipOptionalSpace(); err != nil {
			return line, err
		}
		err = p.parseAfterLabel(&line)
		return line, err

	default:
		space, err := p.skipMandatorySpace()
		if err != nil {
			return line, err
		}
		if space {
			err = p.parseAfterLabel(&line)
			return line, err
		}
		return line, p.skipOptionalCommentAndNewline()
	}
}

// Parse the remainder of a line once the label field is behind the
// cursor.
func (p *parser) parseAfterLabel(line *Line) error {
	inst, err := p.parseInstruction()
	if err != nil {
		return err
	}
	line.Inst = inst

	if err := p.skipOptionalSpace(); err != nil {
		return err
	}
	return p.skipOptionalCommentAndNewline()
}

// Parse a mnemonic and its optional parameter. Returns nil if no mnemonic
// starts at the cursor.
func (p *parser) parseInstruction() (*Instruction, error) {
	mnemonic, pos, ok, err := instructionScanner.scan(p.c)
	if err != nil || !ok {
		return nil, err
	}
	inst := &Instruction{Mnemonic: mnemonic, Pos: pos}

	space, err := p.skipMandatorySpace()
	if err != nil {
		return nil, err
	}
	if space {
		inst.Param, err = p.parseParameters()
		if err != nil {
			return nil, err
		}
	}

	p.log.logPos(pos, "inst=%s", inst)
	return inst, nil
}

// Parse an immediate ('#' number) or address (number) parameter. Returns
// nil if no number starts at the cursor, even after a '#'.
func (p *parser) parseParameters() (*Parameter, error) {
	kind := Address
	if ch, _ := p.c.Peek(); ch == '#' {
		kind = Immediate
		p.c.Advance()
		if err := p.skipOptionalSpace(); err != nil {
			return nil, err
		}
	}

	tok, pos, ok, err := numberScanner.scan(p.c)
	switch {
	case err != nil:
		return nil, err
	case !ok:
		return nil, nil
	}

	v, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return nil, newError(Lexical, pos, "number '%s' is too large", tok)
	}
	return &Parameter{Kind: kind, Value: v, Pos: pos}, nil
}

// Consume one space or tab followed by any further spacing. Returns false,
// consuming nothing, if the current character is not spacing.
func (p *parser) skipMandatorySpace() (bool, error) {
	ch, ok := p.c.Peek()
	switch {
	case !ok:
		return false, newError(Structural, p.c.Pos(), "unexpected end of input")
	case !whitespace(ch):
		return false, nil
	}
	p.c.Advance()
	return true, p.skipOptionalSpace()
}

// Consume a possibly empty run of spaces and tabs. The run must be followed
// by another character.
func (p *parser) skipOptionalSpace() error {
	for {
		ch, ok := p.c.Peek()
		switch {
		case !ok:
			return newError(Structural, p.c.Pos(), "unexpected end of input")
		case !whitespace(ch):
			return nil
		}
		p.c.Advance()
	}
}

// Consume the end of a line: either a newline, or a comment running up to
// and including the next newline.
func (p *parser) skipOptionalCommentAndNewline() error {
	ch, ok := p.c.Peek()
	switch {
	case !ok:
		return newError(Structural, p.c.Pos(), "unexpected end of input, expected end of line")
	case ch == '\n':
		p.c.Advance()
		return nil
	case !comment(ch):
		return newError(Lexical, p.c.Pos(), "expected comment or end of line, found %q", ch)
	}

	p.c.Advance()
	for {
		ch, ok := p.c.Peek()
		if !ok {
			return newError(Structural, p.c.Pos(), "unexpected end of input in comment")
		}
		p.c.Advance()
		if ch == '\n' {
			return nil
		}
	}
}
