package asm

import (
	"encoding/json"
	"io"
	"sort"
)

// A SourceMap describes the mapping between source code line numbers and
// assembled machine code addresses.
type SourceMap struct {
	Source string       // source id of the assembled text
	Origin uint16       // address of the first code byte
	Size   uint32       // number of code bytes
	CRC    uint32       // IEEE CRC-32 of the code
	Lines  []SourceLine // one entry per line holding an instruction
}

// A SourceLine represents a mapping between a machine code address and
// the source code line used to generate it.
type SourceLine struct {
	Address int // Machine code address
	Line    int // Source code line number
	Length  int // Number of bytes generated by the line
}

// Search searches the source map for the line whose generated code covers
// the requested address. It returns -1 if no line covers it.
func (s *SourceMap) Search(addr int) (line int) {
	i := sort.Search(len(s.Lines), func(i int) bool {
		return s.Lines[i].Address+s.Lines[i].Length > addr
	})
	if i < len(s.Lines) && s.Lines[i].Length > 0 && s.Lines[i].Address <= addr {
		return s.Lines[i].Line
	}
	return -1
}

// ReadFrom reads the contents of an exported source map file.
func (s *SourceMap) ReadFrom(r io.Reader) (n int64, err error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}

	err = json.Unmarshal(b, s)
	if err != nil {
		return 0, err
	}
	return int64(len(b)), nil
}

// WriteTo writes the contents of the source map to an output stream.
func (s *SourceMap) WriteTo(w io.Writer) (n int64, err error) {
	b, err := json.Marshal(*s)
	if err != nil {
		return 0, err
	}

	nn, err := w.Write(b)
	return int64(nn), err
}
