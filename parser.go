// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jevent

import (
	"errors"
	"strconv"

	"github.com/creachadair/jevent/internal/buffer"
	"github.com/creachadair/jevent/internal/escape"
	"go4.org/mem"
)

// DefaultMaxDepth is the nesting limit used when none is configured.
const DefaultMaxDepth = 128

// Callbacks receive events from a Parser corresponding with the structure of
// the input. Any callback may be nil, in which case its events are dropped. If
// a callback returns false, parsing stops and the parser reports
// StatusCanceled.
//
// Byte slices passed to a callback are only valid for the duration of that
// call. If the callback needs the data after it returns, it must copy it.
type Callbacks struct {
	Null func() bool
	Bool func(bool) bool

	// If Number is set, it receives the text of every number and Integer and
	// Double are not called. Otherwise, an integer is passed to Integer and a
	// number with a fraction or exponent to Double. A value out of range for
	// the type is a parse error.
	Integer func(int64) bool
	Double  func(float64) bool
	Number  func([]byte) bool

	// String receives the decoded contents of a string value.
	String func([]byte) bool

	BeginObject func() bool
	Key         func([]byte) bool // decoded, like String
	EndObject   func() bool

	BeginArray func() bool
	EndArray   func() bool
}

// Options configure a Parser. A nil *Options is ready for use and provides
// default values as described.
type Options struct {
	// Allow // and /* */ comments between tokens.
	AllowComments bool

	// Verify that string contents are valid UTF-8.
	CheckUTF8 bool

	// The maximum nesting depth of objects and arrays.
	// If zero, DefaultMaxDepth is used.
	MaxDepth int

	// If set, the parser obtains its storage from these functions.
	Alloc *AllocFuncs
}

func (o *Options) maxDepth() int {
	if o == nil || o.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return o.MaxDepth
}

type parseState byte

const (
	stStart parseState = iota
	stComplete
	stError
	stMapStart
	stMapNeedKey
	stMapSep
	stMapNeedVal
	stMapGotVal
	stArrayStart
	stArrayNeedVal
	stArrayGotVal
)

// Parser is an incremental parser that consumes windows of input and delivers
// events to a set of Callbacks. A document may be split across any number of
// windows at arbitrary byte offsets; the events are the same regardless.
type Parser struct {
	cb       Callbacks
	lex      *Lexer
	dec      *buffer.Buffer // decoded string contents
	stack    []parseState   // stack[0] is the top level
	maxDepth int
	consumed int
	window   int // length of the last window given to Parse
	err      *SyntaxError
}

// NewParser constructs a new Parser that delivers events to cb. If cb == nil,
// the parser only checks that its input is valid. NewParser reports
// ErrBadAllocator if opts.Alloc is set but incomplete.
func NewParser(cb *Callbacks, opts *Options) (*Parser, error) {
	var alloc *AllocFuncs
	if opts != nil {
		alloc = opts.Alloc
	}
	a, err := newAllocator(alloc)
	if err != nil {
		return nil, err
	}
	var lopts LexerOptions
	if opts != nil {
		lopts = LexerOptions{AllowComments: opts.AllowComments, CheckUTF8: opts.CheckUTF8}
	}
	p := &Parser{
		lex:      newLexer(&lopts, a),
		dec:      buffer.New(a),
		maxDepth: opts.maxDepth(),
	}
	if cb != nil {
		p.cb = *cb
	}
	p.stack = make([]parseState, 1, p.maxDepth+1)
	return p, nil
}

// Parse consumes the next window of input, delivering events for each token
// until the window is exhausted, the document is complete, or an error occurs.
//
// Parse reports StatusInsufficientData if the window ended before the document
// was complete; the caller should supply more input or call Complete. It
// reports StatusOK once a complete top-level value has been parsed; any input
// after the end of the value is not consumed (see BytesConsumed).
//
// If the input is invalid, Parse reports StatusError and an error of concrete
// type *SyntaxError. If a callback returns false, Parse reports
// StatusCanceled and a *SyntaxError wrapping ErrCanceled. Either way, the
// parser remains in an error state and later calls report StatusError with
// the same error until Reset is called.
func (p *Parser) Parse(text []byte) (Status, error) {
	p.consumed, p.window = 0, len(text)
	return p.run(text)
}

// Complete reports to p that the input is finished. A value that can only be
// terminated by a following byte, such as a number at the end of the input,
// is finished and delivered. Complete reports StatusInsufficientData if the
// input ended before a complete value was found.
//
// An error found by Complete is reported at the end of the last window given
// to Parse, so its Offset and BytesConsumed index that window.
func (p *Parser) Complete() (Status, error) {
	failed := p.err != nil
	p.consumed = 0
	st, err := p.run([]byte{' '})
	if p.err != nil && !failed {
		p.err.Offset, p.consumed = p.window, p.window
	}
	return st, err
}

// BytesConsumed reports the number of bytes of the last window consumed by
// Parse. If Parse reported an error, this is the offset where it occurred.
func (p *Parser) BytesConsumed() int { return p.consumed }

// Err reports the error that stopped the parser, or nil.
func (p *Parser) Err() error {
	if p.err == nil {
		return nil
	}
	return p.err
}

// Location reports the line and column of the most recent token, counted
// across all the input given to p.
func (p *Parser) Location() LineCol { return p.lex.Location() }

// Reset returns p to its initial state, discarding any partial document and
// any error, so that it can parse another value. The location counters are
// not reset, so that the locations of values in a stream of concatenated
// documents are relative to the start of the stream.
func (p *Parser) Reset() {
	p.lex.discard()
	p.dec.Clear()
	p.stack = p.stack[:1]
	p.stack[0] = stStart
	p.consumed = 0
	p.err = nil
}

// Close releases the storage held by p. The parser must not be used after
// it has been closed.
func (p *Parser) Close() {
	p.lex.buf.Free()
	p.dec.Free()
	p.stack = nil
}

// idle reports whether p is between documents, with no partial input held.
func (p *Parser) idle() bool { return p.state() == stStart && !p.lex.pending() }

// done reports whether p has parsed a complete document.
func (p *Parser) done() bool { return p.state() == stComplete }

func (p *Parser) state() parseState      { return p.stack[len(p.stack)-1] }
func (p *Parser) setState(st parseState) { p.stack[len(p.stack)-1] = st }
func (p *Parser) depth() int             { return len(p.stack) - 1 }
func (p *Parser) pop()                   { p.stack = p.stack[:len(p.stack)-1] }

// next lexes the next token from the window.
func (p *Parser) next(text []byte) (Token, []byte) {
	tok, val, end := p.lex.Lex(text, p.consumed)
	p.consumed = end
	return tok, val
}

func (p *Parser) run(text []byte) (Status, error) {
	for {
		switch st := p.state(); st {
		case stComplete:
			return StatusOK, nil

		case stError:
			return StatusError, p.err

		case stStart, stMapNeedVal, stArrayNeedVal, stArrayStart:
			tok, val := p.next(text)
			var push parseState
			ok := true

			switch tok {
			case EOF:
				return StatusInsufficientData, nil
			case Invalid:
				return p.lexicalError()
			case String:
				if p.cb.String != nil {
					ok = p.cb.String(val)
				}
			case EscapedString:
				if p.cb.String != nil {
					dec, err := p.decode(val)
					if err != nil {
						return p.lexicalError()
					}
					ok = p.cb.String(dec)
				}
			case True, False:
				if p.cb.Bool != nil {
					ok = p.cb.Bool(tok == True)
				}
			case Null:
				if p.cb.Null != nil {
					ok = p.cb.Null()
				}
			case LBrace:
				if p.depth() >= p.maxDepth {
					return p.structuralError(ErrMaxDepth, "max nesting depth exceeded")
				}
				if p.cb.BeginObject != nil {
					ok = p.cb.BeginObject()
				}
				push = stMapStart
			case LSquare:
				if p.depth() >= p.maxDepth {
					return p.structuralError(ErrMaxDepth, "max nesting depth exceeded")
				}
				if p.cb.BeginArray != nil {
					ok = p.cb.BeginArray()
				}
				push = stArrayStart
			case Integer:
				if p.cb.Number != nil {
					ok = p.cb.Number(val)
				} else if p.cb.Integer != nil {
					v, err := mem.ParseInt(mem.B(val), 10, 64)
					if errors.Is(err, strconv.ErrRange) {
						return p.numericError(ErrIntegerOverflow, "integer overflow")
					}
					ok = p.cb.Integer(v)
				}
			case Double:
				if p.cb.Number != nil {
					ok = p.cb.Number(val)
				} else if p.cb.Double != nil {
					v, err := mem.ParseFloat(mem.B(val), 64)
					if errors.Is(err, strconv.ErrRange) {
						return p.numericError(ErrDoubleOverflow, "numeric (floating point) overflow")
					}
					ok = p.cb.Double(v)
				}
			case RSquare:
				if st == stArrayStart {
					if p.cb.EndArray != nil {
						ok = p.cb.EndArray()
					}
					p.pop()
					if !ok {
						return p.canceled()
					}
					continue
				}
				fallthrough
			default:
				return p.structuralError(ErrUnexpectedToken, "unallowed token at this point in JSON text")
			}
			if !ok {
				p.valueAppended(st, push)
				return p.canceled()
			}
			p.valueAppended(st, push)

		case stMapStart, stMapNeedKey:
			tok, val := p.next(text)
			ok := true

			switch tok {
			case EOF:
				return StatusInsufficientData, nil
			case Invalid:
				return p.lexicalError()
			case String, EscapedString:
				if p.cb.Key != nil {
					key := val
					if tok == EscapedString {
						dec, err := p.decode(val)
						if err != nil {
							return p.lexicalError()
						}
						key = dec
					}
					ok = p.cb.Key(key)
				}
				p.setState(stMapSep)
			case RBrace:
				if st == stMapStart {
					if p.cb.EndObject != nil {
						ok = p.cb.EndObject()
					}
					p.pop()
					break
				}
				fallthrough
			default:
				return p.structuralError(ErrUnexpectedToken, "invalid object key (must be a string)")
			}
			if !ok {
				return p.canceled()
			}

		case stMapSep:
			switch tok, _ := p.next(text); tok {
			case EOF:
				return StatusInsufficientData, nil
			case Invalid:
				return p.lexicalError()
			case Colon:
				p.setState(stMapNeedVal)
			default:
				return p.structuralError(ErrUnexpectedToken, "object key and value must be separated by a colon (':')")
			}

		case stMapGotVal:
			switch tok, _ := p.next(text); tok {
			case EOF:
				return StatusInsufficientData, nil
			case Invalid:
				return p.lexicalError()
			case RBrace:
				ok := true
				if p.cb.EndObject != nil {
					ok = p.cb.EndObject()
				}
				p.pop()
				if !ok {
					return p.canceled()
				}
			case Comma:
				p.setState(stMapNeedKey)
			default:
				return p.structuralError(ErrUnexpectedToken, "after key and value, inside map, I expect ',' or '}'")
			}

		case stArrayGotVal:
			switch tok, _ := p.next(text); tok {
			case EOF:
				return StatusInsufficientData, nil
			case Invalid:
				return p.lexicalError()
			case RSquare:
				ok := true
				if p.cb.EndArray != nil {
					ok = p.cb.EndArray()
				}
				p.pop()
				if !ok {
					return p.canceled()
				}
			case Comma:
				p.setState(stArrayNeedVal)
			default:
				return p.structuralError(ErrUnexpectedToken, "after array element, I expect ',' or ']'")
			}

		default:
			panic("jevent: invalid parser state")
		}
	}
}

// valueAppended records that a value was parsed in state st, and if push is
// not stStart, enters a new container in that state.
func (p *Parser) valueAppended(st, push parseState) {
	switch st {
	case stStart:
		p.setState(stComplete)
	case stMapNeedVal:
		p.setState(stMapGotVal)
	default:
		p.setState(stArrayGotVal)
	}
	if push != stStart {
		p.stack = append(p.stack, push)
	}
}

// decode unescapes the contents of a string into the decode buffer.
func (p *Parser) decode(val []byte) ([]byte, error) {
	p.dec.Clear()
	if err := escape.Unquote(p.dec, mem.B(val)); err != nil {
		p.lex.err = LexInvalidEscape
		return nil, err
	}
	return p.dec.Bytes(), nil
}

func (p *Parser) fail(kind ErrorKind, off int, loc LineCol, err error, msg string) *SyntaxError {
	p.err = &SyntaxError{Kind: kind, Offset: off, Location: loc, Message: msg, err: err}
	p.consumed = off
	p.setState(stError)
	return p.err
}

func (p *Parser) lexicalError() (Status, error) {
	lerr := p.lex.Err()
	return StatusError, p.fail(KindLexical, p.consumed, p.lex.location(), lerr, lerr.Error())
}

func (p *Parser) structuralError(err error, msg string) (Status, error) {
	return StatusError, p.fail(KindStructural, p.lex.Span().Pos, p.lex.Location(), err, msg)
}

func (p *Parser) numericError(err error, msg string) (Status, error) {
	return StatusError, p.fail(KindNumeric, p.lex.Span().Pos, p.lex.Location(), err, msg)
}

func (p *Parser) canceled() (Status, error) {
	return StatusCanceled, p.fail(KindClient, p.consumed, p.lex.location(), ErrCanceled, ErrCanceled.Error())
}
