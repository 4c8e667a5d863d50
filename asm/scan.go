// Copyright 2022 The asm7x Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

// A terminator selects how a scanner ends a token once the continuation
// predicate fails.
type terminator byte

const (
	// The first non-matching character ends the token and is left for the
	// next scanner.
	stopBefore terminator = iota

	// A ':' ends the token and is consumed. Any other non-matching
	// character is an error.
	stopAtColon
)

type scanState byte

const (
	scanBefore scanState = iota // nothing consumed yet
	scanIn                      // inside the token
)

// A scanner is a two-state machine recognizing one token class.
type scanner struct {
	name  string           // token class, used in diagnostics
	entry func(c byte) bool // accepts the first character
	cont  func(c byte) bool // accepts every following character
	term  terminator
}

var (
	labelScanner       = scanner{name: "label", entry: alpha, cont: alpha, term: stopAtColon}
	instructionScanner = scanner{name: "instruction", entry: alpha, cont: alphanumeric, term: stopBefore}
	numberScanner      = scanner{name: "number", entry: decimal, cont: decimal, term: stopBefore}
)

// Scan a token from the cursor. If the current character does not start a
// token, nothing is consumed and ok is false. Reaching the end of input
// inside a token is an error.
func (s *scanner) scan(c *Cursor) (tok string, pos Pos, ok bool, err error) {
	pos = c.Pos()
	start := c.offset
	state := scanBefore
	for {
		ch, more := c.Peek()
		switch state {
		case scanBefore:
			if !more || !s.entry(ch) {
				return "", pos, false, nil
			}
			c.Advance()
			state = scanIn

		case scanIn:
			switch {
			case !more:
				return "", pos, false, newError(Structural, c.Pos(), "unexpected end of input in %s", s.name)
			case s.cont(ch):
				c.Advance()
			case s.term == stopAtColon && ch == ':':
				tok = c.since(start)
				c.Advance()
				return tok, pos, true, nil
			case s.term == stopAtColon:
				return "", pos, false, newError(Lexical, c.Pos(), "invalid character %q in %s", ch, s.name)
			default:
				return c.since(start), pos, true, nil
			}
		}
	}
}

//
// character helper functions
//

func whitespace(c byte) bool {
	return c == ' ' || c == '\t'
}

func alpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func decimal(c byte) bool {
	return c >= '0' && c <= '9'
}

func alphanumeric(c byte) bool {
	return alpha(c) || decimal(c)
}

func comment(c byte) bool {
	return c == ';'
}
