// Copyright 2022 The asm7x Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package asm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an assembly error.
type ErrorKind byte

// Error kinds
const (
	Lexical    ErrorKind = iota // character not valid for the token being scanned
	Structural                  // input ended or a required element is missing
	Semantic                    // well-formed input with an invalid meaning
)

// Sentinel errors matched by errors.Is against an *Error of the same kind.
var (
	ErrLexical    = errors.New("lexical error")
	ErrStructural = errors.New("structural error")
	ErrSemantic   = errors.New("semantic error")
)

var kindErrors = []error{
	ErrLexical,
	ErrStructural,
	ErrSemantic,
}

func (k ErrorKind) String() string {
	if int(k) < len(kindErrors) {
		return kindErrors[k].Error()
	}
	return "unknown error"
}

// A Pos identifies a character position within a source text.
type Pos struct {
	Source string // source id, typically a file name
	Line   int    // 1-based line number
	Column int    // 1-based column number
}

func (p Pos) String() string {
	return fmt.Sprintf("%s:%d:%d", p.Source, p.Line, p.Column)
}

// Errors reported by the code generator, wrapped in an *Error.
var (
	ErrOriginBackward = errors.New("origin moved backward")
	ErrBranchRange    = errors.New("branch out of range")
)

// An Error describes the first fault encountered while assembling.
type Error struct {
	Kind ErrorKind
	Pos  Pos
	Msg  string
	Err  error // underlying cause, if any
}

func newError(kind ErrorKind, pos Pos, format string, args ...any) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func wrapError(kind ErrorKind, pos Pos, err error) *Error {
	return &Error{Kind: kind, Pos: pos, Msg: err.Error(), Err: err}
}

// Error formats the error as "source:line:column: message".
func (e *Error) Error() string {
	return e.Pos.String() + ": " + e.Msg
}

// Is reports whether target is the sentinel error for e's kind.
func (e *Error) Is(target error) bool {
	return int(e.Kind) < len(kindErrors) && target == kindErrors[e.Kind]
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}
