// Copyright 2022 The asm7x Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import "unicode/utf8"

// A Cursor walks a source text one character at a time, keeping track of
// the line and column of the current character. Columns count UTF-8
// encoded characters, not bytes.
type Cursor struct {
	source string // source id used in diagnostics
	text   string // the complete source text
	offset int    // byte offset of the current character
	line   int    // 1-based line of the current character
	column int    // 1-based column of the current character
}

// NewCursor creates a cursor positioned on the first character of text.
func NewCursor(source, text string) *Cursor {
	return &Cursor{
		source: source,
		text:   text,
		line:   1,
		column: 1,
	}
}

// Peek returns the first byte of the current character. The boolean is false when the cursor
// is exhausted.
func (c *Cursor) Peek() (byte, bool) {
	if c.offset >= len(c.text) {
		return 0, false
	}
	return c.text[c.offset], true
}

// AtEnd reports whether every character has been consumed.
func (c *Cursor) AtEnd() bool {
	return c.offset >= len(c.text)
}

// Advance consumes the current character. Consuming a newline moves the
// cursor to column 1 of the next line; any other character moves it one
// column to the right. Advancing an exhausted cursor panics.
func (c *Cursor) Advance() {
	if c.AtEnd() {
		panic("asm: advance past end of input")
	}
	if c.text[c.offset] == '\n' {
		c.line++
		c.column = 1
		c.offset++
		return
	}
	_, n := utf8.DecodeRuneInString(c.text[c.offset:])
	c.column++
	c.offset += n
}

// Pos returns the position of the current character.
func (c *Cursor) Pos() Pos {
	return Pos{Source: c.source, Line: c.line, Column: c.column}
}

// Return the text consumed since the given byte offset.
func (c *Cursor) since(offset int) string {
	return c.text[offset:c.offset]
}
