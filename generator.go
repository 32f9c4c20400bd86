// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package jevent

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/creachadair/jevent/internal/buffer"
	"github.com/creachadair/jevent/internal/escape"
	"go4.org/mem"
)

// GenOptions configure a Generator. A nil *GenOptions is ready for use and
// provides default values as described.
type GenOptions struct {
	// Write each value on its own line, indented by depth. If false, the
	// output has no insignificant whitespace.
	Beautify bool

	// The string emitted for each level of depth when Beautify is set.
	// If empty, two spaces are used.
	Indent string

	// The maximum nesting depth of objects and arrays.
	// If zero, DefaultMaxDepth is used.
	MaxDepth int

	// If set, output is written here as it is generated. Otherwise, output
	// accumulates in a buffer owned by the generator (see Bytes).
	Output io.Writer

	// If set, the generator obtains its storage from these functions.
	Alloc *AllocFuncs
}

type genState byte

const (
	gsStart genState = iota
	gsMapStart
	gsMapKey
	gsMapVal
	gsArrayStart
	gsInArray
	gsComplete
	gsError
)

// A Generator emits JSON text from a sequence of calls describing the values
// of a single document. Calls that would produce invalid JSON are rejected
// with an error and produce no output; the generator never repairs its input.
type Generator struct {
	beautify bool
	indent   string
	maxDepth int

	w   io.Writer      // if nil, output goes to buf
	buf *buffer.Buffer // output, when w == nil
	lex *Lexer         // for checking Number text
	tmp []byte         // scratch for one call's output

	state []genState // state[0] is the top level
	err   error      // the write error that stopped the generator
}

// NewGenerator constructs a new Generator with the given options. It reports
// ErrBadAllocator if opts.Alloc is set but incomplete.
func NewGenerator(opts *GenOptions) (*Generator, error) {
	if opts == nil {
		opts = new(GenOptions)
	}
	a, err := newAllocator(opts.Alloc)
	if err != nil {
		return nil, err
	}
	g := &Generator{
		beautify: opts.Beautify,
		indent:   opts.Indent,
		maxDepth: opts.MaxDepth,
		w:        opts.Output,
		lex:      newLexer(nil, a),
	}
	if g.indent == "" {
		g.indent = "  "
	}
	if g.maxDepth <= 0 {
		g.maxDepth = DefaultMaxDepth
	}
	if g.w == nil {
		g.buf = buffer.New(a)
	}
	g.state = make([]genState, 1, g.maxDepth+1)
	return g, nil
}

// Null emits a null value.
func (g *Generator) Null() error {
	if err := g.checkValue(); err != nil {
		return err
	}
	return g.atom(append(g.prefix(), "null"...))
}

// Bool emits a Boolean value.
func (g *Generator) Bool(v bool) error {
	if err := g.checkValue(); err != nil {
		return err
	}
	return g.atom(strconv.AppendBool(g.prefix(), v))
}

// Integer emits an integer value.
func (g *Generator) Integer(v int64) error {
	if err := g.checkValue(); err != nil {
		return err
	}
	return g.atom(strconv.AppendInt(g.prefix(), v, 10))
}

// Double emits a floating-point value, in the shortest form that reads back
// as the same value. A value with no fraction or exponent is written with a
// trailing ".0". Double reports ErrInvalidNumber for NaN and infinities.
func (g *Generator) Double(v float64) error {
	if err := g.checkValue(); err != nil {
		return err
	} else if math.IsNaN(v) || math.IsInf(v, 0) {
		return ErrInvalidNumber
	}
	b := g.prefix()
	n := len(b)
	b = strconv.AppendFloat(b, v, 'g', -1, 64)
	if bytes.IndexAny(b[n:], ".eE") < 0 {
		b = append(b, ".0"...)
	}
	return g.atom(b)
}

// Number emits the text of a number verbatim. Number reports ErrInvalidNumber
// if s is not a JSON number.
func (g *Generator) Number(s string) error {
	if err := g.checkValue(); err != nil {
		return err
	} else if !g.isNumber(s) {
		return ErrInvalidNumber
	}
	return g.atom(append(g.prefix(), s...))
}

// Text emits a string value, or an object key if the generator is expecting
// one. The contents of s are escaped as needed.
func (g *Generator) Text(s string) error {
	if err := g.checkValid(); err != nil {
		return err
	}
	b := append(g.prefix(), '"')
	b = escape.Quote(b, mem.S(s))
	return g.atom(append(b, '"'))
}

// BeginObject begins a new object. Its members are emitted as alternating
// calls to Text for the key and any value call for the value.
func (g *Generator) BeginObject() error { return g.open(gsMapStart, '{') }

// EndObject ends the innermost open object.
func (g *Generator) EndObject() error { return g.close(gsMapStart, gsMapKey, '}') }

// BeginArray begins a new array.
func (g *Generator) BeginArray() error { return g.open(gsArrayStart, '[') }

// EndArray ends the innermost open array.
func (g *Generator) EndArray() error { return g.close(gsArrayStart, gsInArray, ']') }

// Bytes returns the output generated since construction or the last call to
// Clear. The slice is only valid until the next call to a method of g. Bytes
// reports ErrNoBuffer if g writes to an io.Writer.
func (g *Generator) Bytes() ([]byte, error) {
	if g.buf == nil {
		return nil, ErrNoBuffer
	}
	return g.buf.Bytes(), nil
}

// Clear discards the generated output. It does not change the state of the
// document being generated.
func (g *Generator) Clear() {
	if g.buf != nil {
		g.buf.Clear()
	}
}

// Reset returns g to its initial state so that another document can be
// generated. The buffered output, if any, is not changed.
func (g *Generator) Reset() {
	g.state = g.state[:1]
	g.state[0] = gsStart
	g.err = nil
}

// Close releases the storage held by g. The generator must not be used after
// it has been closed.
func (g *Generator) Close() {
	if g.buf != nil {
		g.buf.Free()
	}
	g.lex.buf.Free()
	g.tmp, g.state = nil, nil
}

func (g *Generator) cur() genState { return g.state[len(g.state)-1] }
func (g *Generator) depth() int    { return len(g.state) - 1 }

func (g *Generator) checkValid() error {
	switch g.cur() {
	case gsError:
		return fmt.Errorf("%w: %w", ErrInErrorState, g.err)
	case gsComplete:
		return ErrGenerationComplete
	}
	return nil
}

// checkValue reports whether a non-string value is allowed.
func (g *Generator) checkValue() error {
	if err := g.checkValid(); err != nil {
		return err
	}
	if st := g.cur(); st == gsMapStart || st == gsMapKey {
		return ErrKeysMustBeStrings
	}
	return nil
}

// prefix returns the scratch buffer holding the separator and whitespace
// that precede a value in the current state.
func (g *Generator) prefix() []byte {
	b := g.tmp[:0]
	st := g.cur()
	switch st {
	case gsMapKey, gsInArray:
		b = append(b, ',')
		if g.beautify {
			b = append(b, '\n')
		}
	case gsMapVal:
		b = append(b, ':')
		if g.beautify {
			b = append(b, ' ')
		}
	case gsMapStart, gsArrayStart:
		if g.beautify {
			b = append(b, '\n')
		}
	}
	if g.beautify && st != gsMapVal {
		b = g.appendIndent(b)
	}
	return b
}

func (g *Generator) appendIndent(b []byte) []byte {
	for range g.depth() {
		b = append(b, g.indent...)
	}
	return b
}

// appended updates the state after a complete value, and adds a final
// newline to b if the document is complete.
func (g *Generator) appended(b []byte) []byte {
	switch g.cur() {
	case gsStart:
		g.state[len(g.state)-1] = gsComplete
		if g.beautify {
			b = append(b, '\n')
		}
	case gsMapStart, gsMapKey:
		g.state[len(g.state)-1] = gsMapVal
	case gsMapVal:
		g.state[len(g.state)-1] = gsMapKey
	case gsArrayStart:
		g.state[len(g.state)-1] = gsInArray
	}
	return b
}

func (g *Generator) atom(b []byte) error { return g.emit(g.appended(b)) }

func (g *Generator) open(st genState, c byte) error {
	if err := g.checkValue(); err != nil {
		return err
	} else if g.depth() >= g.maxDepth {
		return ErrMaxDepth
	}
	b := append(g.prefix(), c)
	g.state = append(g.state, st)
	return g.emit(b)
}

func (g *Generator) close(empty, full genState, c byte) error {
	if err := g.checkValid(); err != nil {
		return err
	}
	st := g.cur()
	if st != empty && st != full {
		return ErrUnbalanced
	}
	g.state = g.state[:len(g.state)-1]
	b := g.tmp[:0]
	if st == full && g.beautify {
		b = append(b, '\n')
		b = g.appendIndent(b)
	}
	return g.atom(append(b, c))
}

// emit delivers b to the output.
func (g *Generator) emit(b []byte) error {
	g.tmp = b[:0]
	if g.w == nil {
		g.buf.Append(b)
		return nil
	}
	if _, err := g.w.Write(b); err != nil {
		g.state[len(g.state)-1] = gsError
		g.err = err
		return err
	}
	return nil
}

// isNumber reports whether s is exactly one JSON number.
func (g *Generator) isNumber(s string) bool {
	defer g.lex.discard()
	text := append(g.tmp[:0], s...)
	text = append(text, ' ')
	g.tmp = text[:0]
	tok, _, end := g.lex.Lex(text, 0)
	return (tok == Integer || tok == Double) && g.lex.Span().Pos == 0 && end == len(s)
}
