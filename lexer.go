// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jevent

import (
	"unicode/utf8"

	"github.com/creachadair/jevent/internal/buffer"
)

// Token is the type of a lexical token in the JSON grammar.
type Token byte

// Constants defining the valid Token values.
const (
	Invalid       Token = iota // invalid token; see Lexer.Err
	EOF                        // end of the input window; more input may follow
	LBrace                     // left brace "{"
	RBrace                     // right brace "}"
	LSquare                    // left square bracket "["
	RSquare                    // right square bracket "]"
	Comma                      // comma ","
	Colon                      // colon ":"
	Integer                    // number: integer with no fraction or exponent
	Double                     // number with fraction and/or exponent
	String                     // quoted string with no escapes
	EscapedString              // quoted string containing escapes
	True                       // constant: true
	False                      // constant: false
	Null                       // constant: null
	Comment                    // comment: never returned by Lex
)

var tokenStr = [...]string{
	Invalid:       "invalid token",
	EOF:           "end of input",
	LBrace:        `"{"`,
	RBrace:        `"}"`,
	LSquare:       `"["`,
	RSquare:       `"]"`,
	Comma:         `","`,
	Colon:         `":"`,
	Integer:       "integer",
	Double:        "number",
	String:        "string",
	EscapedString: "string",
	True:          "true",
	False:         "false",
	Null:          "null",
	Comment:       "comment",
}

func (t Token) String() string {
	v := int(t)
	if v >= len(tokenStr) {
		return tokenStr[Invalid]
	}
	return tokenStr[v]
}

// LexerOptions configure a Lexer. A nil *LexerOptions is ready for use and
// provides default values as described.
type LexerOptions struct {
	// Skip C++ style block comments (/* ... */) and line comments (// ...)
	// between tokens. If false, a comment is reported as LexCommentNotAllowed.
	AllowComments bool

	// Report LexInvalidUTF8 for string contents that are not valid UTF-8.
	CheckUTF8 bool
}

// A Lexer splits windows of JSON text into tokens. The input may be supplied
// in any number of windows; a token that crosses the end of a window is held
// by the lexer and completed when the next window is lexed.
type Lexer struct {
	comments  bool
	checkUTF8 bool

	buf      *buffer.Buffer // token prefix carried from an earlier window
	bufOff   int            // read offset in buf
	bufInUse bool
	peeking  bool
	err      LexError

	text []byte // the current window, valid only during lex
	base int    // the offset at which lex began
	off  int

	pos       int // start of the last token in its window
	line, col int // 0-based line and column after the last token
	first     LineCol
}

// NewLexer constructs a new Lexer with the given options.
func NewLexer(opts *LexerOptions) *Lexer { return newLexer(opts, buffer.Default) }

func newLexer(opts *LexerOptions, a buffer.Allocator) *Lexer {
	lx := &Lexer{buf: buffer.New(a)}
	if opts != nil {
		lx.comments = opts.AllowComments
		lx.checkUTF8 = opts.CheckUTF8
	}
	return lx
}

// Lex scans the next token from text beginning at offset, and returns the
// token, its contents, and the offset following the token.
//
// The contents of a String or EscapedString omit the enclosing quotes, and
// escapes are not decoded. The returned slice is a view into text, or into
// storage owned by the lexer if the token began in an earlier window; it is
// only valid until the next call to Lex.
//
// Lex returns EOF if text is exhausted before a complete token is found. The
// caller should then call Lex again with the next window and offset 0. Note
// that a number at the end of a window is always reported as EOF, since more
// digits may follow. Lex returns Invalid in case of a lexical error, which is
// then reported by Err; the returned offset is where the error was detected.
func (lx *Lexer) Lex(text []byte, offset int) (Token, []byte, int) {
	held := lx.pending()
	tok, val, next := lx.lex(text, offset)
	start := min(max(lx.pos, offset), next)
	lx.advance(text[offset:start])
	if !held || start > offset {
		lx.first = lx.location() // otherwise the token began in an earlier window
	}
	lx.advance(text[start:next])
	return tok, val, next
}

// Peek reports the type of the next token in text beginning at offset,
// without changing the state of the lexer.
func (lx *Lexer) Peek(text []byte, offset int) Token {
	n, off, inUse := lx.buf.Len(), lx.bufOff, lx.bufInUse
	pos, err := lx.pos, lx.err

	lx.peeking = true
	tok, _, _ := lx.lex(text, offset)
	lx.peeking = false

	lx.buf.Truncate(n)
	lx.bufOff, lx.bufInUse = off, inUse
	lx.pos, lx.err = pos, err
	return tok
}

// Err reports the error from the last call to Lex that returned Invalid.
func (lx *Lexer) Err() LexError { return lx.err }

// Span reports the offsets of the last token within its window. If the token
// began in an earlier window, Pos is 0.
func (lx *Lexer) Span() Span { return Span{Pos: lx.pos, End: lx.off} }

// Location reports the line and column where the last token began.
func (lx *Lexer) Location() LineCol { return lx.first }

// location reports the line and column following the last token.
func (lx *Lexer) location() LineCol { return LineCol{Line: lx.line + 1, Column: lx.col} }

// advance updates the line and column counters for consumed input.
func (lx *Lexer) advance(data []byte) {
	for _, b := range data {
		if b == '\n' {
			lx.line++
			lx.col = 0
		} else {
			lx.col++
		}
	}
}

// discard drops any partial token and error. Options and location counters
// are unchanged.
func (lx *Lexer) discard() {
	lx.buf.Clear()
	lx.bufOff, lx.bufInUse = 0, false
	lx.err = LexOK
}

// pending reports whether the lexer holds part of a token.
func (lx *Lexer) pending() bool { return lx.bufInUse && lx.buf.Len() != 0 }

func (lx *Lexer) lex(text []byte, offset int) (Token, []byte, int) {
	lx.text, lx.base, lx.off = text, offset, offset
	lx.err = LexOK
	defer func() { lx.text = nil }()

	start := offset
	tok := Invalid
scan:
	for {
		if !lx.more() {
			tok = EOF
			break
		}
		switch c := lx.readChar(); c {
		case '{':
			tok = LBrace
			break scan
		case '}':
			tok = RBrace
			break scan
		case '[':
			tok = LSquare
			break scan
		case ']':
			tok = RSquare
			break scan
		case ',':
			tok = Comma
			break scan
		case ':':
			tok = Colon
			break scan
		case ' ', '\t', '\n', '\r':
			start++
		case 't':
			tok = lx.lexWord("rue", True)
			break scan
		case 'f':
			tok = lx.lexWord("alse", False)
			break scan
		case 'n':
			tok = lx.lexWord("ull", Null)
			break scan
		case '"':
			tok = lx.lexString()
			break scan
		case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
			lx.unreadChar()
			tok = lx.lexNumber()
			break scan
		case '/':
			if !lx.comments {
				lx.unreadChar()
				lx.err = LexCommentNotAllowed
				break scan
			}
			tok = lx.lexComment()
			if tok != Comment {
				break scan // EOF or error
			}

			// Discard the comment and scan for another token.
			if !lx.peeking {
				lx.buf.Clear()
			}
			lx.bufInUse = false
			start = lx.off
			tok = Invalid
		default:
			lx.err = LexInvalidChar
			break scan
		}
	}
	lx.pos = start

	// If a token began in an earlier window, or this one ran out before the
	// token was finished, the text goes into the buffer.
	var val []byte
	if tok == EOF || lx.bufInUse {
		if !lx.bufInUse && !lx.peeking {
			lx.buf.Clear()
		}
		lx.bufInUse = true
		lx.buf.Append(text[start:lx.off])
		lx.bufOff = 0
		if tok != EOF {
			val = lx.buf.Bytes()
			lx.bufInUse = false
		}
	} else if tok != Invalid {
		val = text[start:lx.off]
	}
	if tok == Invalid {
		val = nil
	} else if (tok == String || tok == EscapedString) && len(val) >= 2 {
		val = val[1 : len(val)-1]
	}
	return tok, val, lx.off
}

// more reports whether any input remains, either buffered or in the window.
func (lx *Lexer) more() bool {
	return (lx.bufInUse && lx.bufOff < lx.buf.Len()) || lx.off < len(lx.text)
}

// readChar returns the next input byte. Precondition: lx.more().
func (lx *Lexer) readChar() byte {
	if lx.bufInUse && lx.bufOff < lx.buf.Len() {
		c := lx.buf.Bytes()[lx.bufOff]
		lx.bufOff++
		return c
	}
	c := lx.text[lx.off]
	lx.off++
	return c
}

// unreadChar backs up over the last byte read by readChar.
func (lx *Lexer) unreadChar() {
	if lx.off > lx.base {
		lx.off--
	} else {
		lx.bufOff--
	}
}

// lexWord matches the remainder of a constant whose first byte has been read.
func (lx *Lexer) lexWord(rest string, tok Token) Token {
	for i := 0; i < len(rest); i++ {
		if !lx.more() {
			return EOF
		}
		if c := lx.readChar(); c != rest[i] {
			lx.unreadChar()
			lx.err = LexInvalidString
			return Invalid
		}
	}
	return tok
}

// lexString scans a string whose open quote has been read.
func (lx *Lexer) lexString() Token {
	escaped := false
	for {
		if !lx.more() {
			return EOF
		}
		c := lx.readChar()
		switch {
		case c == '"':
			if escaped {
				return EscapedString
			}
			return String

		case c == '\\':
			escaped = true
			if !lx.more() {
				return EOF
			}
			c = lx.readChar()
			if c == 'u' {
				for i := 0; i < 4; i++ {
					if !lx.more() {
						return EOF
					}
					if c = lx.readChar(); !isHexDigit(c) {
						lx.unreadChar()
						lx.err = LexInvalidHexChar
						return Invalid
					}
				}
			} else if !isEscape(c) {
				lx.unreadChar()
				lx.err = LexInvalidEscape
				return Invalid
			}

		case c < ' ':
			lx.unreadChar()
			lx.err = LexInvalidJSONChar
			return Invalid

		case c >= utf8.RuneSelf && lx.checkUTF8:
			if tok := lx.lexUTF8(c); tok != String {
				return tok
			}
		}
	}
}

// lexUTF8 checks a multi-byte UTF-8 sequence whose first byte is c.
func (lx *Lexer) lexUTF8(c byte) Token {
	var seq [utf8.UTFMax]byte
	var n int
	switch {
	case c>>5 == 0x06:
		n = 2
	case c>>4 == 0x0e:
		n = 3
	case c>>3 == 0x1e:
		n = 4
	default:
		lx.err = LexInvalidUTF8
		return Invalid
	}
	seq[0] = c
	for i := 1; i < n; i++ {
		if !lx.more() {
			return EOF
		}
		if seq[i] = lx.readChar(); seq[i]>>6 != 0x02 {
			lx.err = LexInvalidUTF8
			return Invalid
		}
	}
	if !utf8.Valid(seq[:n]) { // overlong forms, surrogates, out of range
		lx.err = LexInvalidUTF8
		return Invalid
	}
	return String
}

// lexNumber scans a number. Unlike other tokens, the end of a number can only
// be known by reading past it, so a number at the end of the window is EOF.
func (lx *Lexer) lexNumber() Token {
	tok := Integer
	if !lx.more() {
		return EOF
	}
	c := lx.readChar()

	// Optional leading minus.
	if c == '-' {
		if !lx.more() {
			return EOF
		}
		c = lx.readChar()
	}

	// A single zero, or a series of digits.
	if c == '0' {
		if !lx.more() {
			return EOF
		}
		c = lx.readChar()
	} else if isDigit(c) {
		for isDigit(c) {
			if !lx.more() {
				return EOF
			}
			c = lx.readChar()
		}
	} else {
		lx.unreadChar()
		lx.err = LexMissingMinusDigit
		return Invalid
	}

	// Optional fraction.
	if c == '.' {
		var nd int
		if !lx.more() {
			return EOF
		}
		c = lx.readChar()
		for isDigit(c) {
			nd++
			if !lx.more() {
				return EOF
			}
			c = lx.readChar()
		}
		if nd == 0 {
			lx.unreadChar()
			lx.err = LexMissingDecimalDigit
			return Invalid
		}
		tok = Double
	}

	// Optional exponent.
	if c == 'e' || c == 'E' {
		if !lx.more() {
			return EOF
		}
		c = lx.readChar()
		if c == '+' || c == '-' {
			if !lx.more() {
				return EOF
			}
			c = lx.readChar()
		}
		if !isDigit(c) {
			lx.unreadChar()
			lx.err = LexMissingExponentDigit
			return Invalid
		}
		for isDigit(c) {
			if !lx.more() {
				return EOF
			}
			c = lx.readChar()
		}
		tok = Double
	}

	// We always read one byte too far.
	lx.unreadChar()
	return tok
}

// lexComment scans a comment whose leading slash has been read.
func (lx *Lexer) lexComment() Token {
	if !lx.more() {
		return EOF
	}
	switch lx.readChar() {
	case '/':
		for {
			if !lx.more() {
				return EOF
			}
			if lx.readChar() == '\n' {
				return Comment
			}
		}
	case '*':
		for {
			if !lx.more() {
				return EOF
			}
			if lx.readChar() != '*' {
				continue
			}
			if !lx.more() {
				return EOF
			}
			if lx.readChar() == '/' {
				return Comment
			}
			lx.unreadChar() // the byte after '*' may begin "*/"
		}
	default:
		lx.err = LexInvalidChar
		return Invalid
	}
}

func isDigit(c byte) bool  { return '0' <= c && c <= '9' }
func isEscape(c byte) bool { return c == '"' || c == '\\' || c == '/' || c == 'b' || c == 'f' || c == 'n' || c == 'r' || c == 't' }

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
