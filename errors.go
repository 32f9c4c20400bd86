// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package jevent

import (
	"errors"
	"fmt"
	"strings"
)

// Status is the result of feeding input to a Parser.
type Status byte

// Constants defining the valid Status values.
const (
	StatusOK               Status = iota // a complete value was parsed
	StatusCanceled                       // a callback stopped the parse
	StatusInsufficientData               // more input is required
	StatusError                          // the input is invalid
)

var statusStr = [...]string{
	StatusOK:               "ok, no error",
	StatusCanceled:         "client canceled parse",
	StatusInsufficientData: "eof was met before the parse could complete",
	StatusError:            "parse error",
}

func (s Status) String() string {
	if int(s) >= len(statusStr) {
		return "unknown"
	}
	return statusStr[s]
}

// LexError is the type of errors reported by a Lexer.
type LexError byte

// Constants defining the valid LexError values.
const (
	LexOK                   LexError = iota // no error
	LexInvalidUTF8                          // malformed UTF-8 inside a string
	LexInvalidEscape                        // unknown character after \
	LexInvalidJSONChar                      // unescaped control character in a string
	LexInvalidHexChar                       // non-hex digit after \u
	LexInvalidChar                          // character cannot begin a token
	LexInvalidString                        // misspelled true, false, or null
	LexMissingDecimalDigit                  // no digit after a decimal point
	LexMissingExponentDigit                 // no digit after an exponent marker
	LexMissingMinusDigit                    // no digit after a leading minus
	LexCommentNotAllowed                    // comment found with comments disabled
)

var lexErrorStr = [...]string{
	LexOK:                   "ok, no error",
	LexInvalidUTF8:          "invalid bytes in UTF8 string.",
	LexInvalidEscape:        `inside a string, '\' occurs before a character which it may not.`,
	LexInvalidJSONChar:      "invalid character inside string.",
	LexInvalidHexChar:       `invalid (non-hex) character occurs after '\u' inside string.`,
	LexInvalidChar:          "invalid char in json text.",
	LexInvalidString:        "invalid string in json text.",
	LexMissingDecimalDigit:  "malformed number, a digit is required after the decimal point.",
	LexMissingExponentDigit: "malformed number, a digit is required after the exponent.",
	LexMissingMinusDigit:    "malformed number, a digit is required after the minus sign.",
	LexCommentNotAllowed:    "probable comment found in input text, comments are not enabled.",
}

// Error satisfies the error interface.
func (e LexError) Error() string {
	if int(e) >= len(lexErrorStr) {
		return "unknown lexical error"
	}
	return lexErrorStr[e]
}

// Errors reported by a Parser, wrapped in a *SyntaxError.
var (
	ErrCanceled        = errors.New("client cancelled parse via callback return value")
	ErrUnexpectedToken = errors.New("unexpected token")
	ErrIntegerOverflow = errors.New("integer overflow")
	ErrDoubleOverflow  = errors.New("numeric (floating point) overflow")
)

// Errors reported by a Generator.
var (
	ErrKeysMustBeStrings  = errors.New("keys must be strings")
	ErrInErrorState       = errors.New("generator is in an error state")
	ErrGenerationComplete = errors.New("a complete JSON document has been generated")
	ErrInvalidNumber      = errors.New("invalid number (infinity or NaN)")
	ErrNoBuffer           = errors.New("generator has no internal buffer")
	ErrUnbalanced         = errors.New("close does not match the open container")
)

// Errors shared by the Parser and Generator.
var (
	ErrMaxDepth     = errors.New("max nesting depth exceeded")
	ErrBadAllocator = errors.New("incomplete allocator functions")
)

// ErrorKind classifies a SyntaxError.
type ErrorKind byte

// Constants defining the valid ErrorKind values.
const (
	KindLexical    ErrorKind = iota + 1 // malformed token
	KindStructural                      // token not allowed by the parse state
	KindNumeric                         // number out of range
	KindClient                          // a callback stopped the parse
)

var kindStr = [...]string{
	KindLexical:    "lexical",
	KindStructural: "parse",
	KindNumeric:    "parse",
	KindClient:     "client",
}

func (k ErrorKind) String() string {
	if k == 0 || int(k) >= len(kindStr) {
		return "unknown"
	}
	return kindStr[k]
}

// SyntaxError is the concrete type of errors reported by the Parser.
type SyntaxError struct {
	Kind     ErrorKind
	Offset   int     // offset of the failure in the input window
	Location LineCol // location of the failure across all input
	Message  string

	err error
}

// Error satisfies the error interface.
func (e *SyntaxError) Error() string {
	return fmt.Sprintf("at %s: %s error: %s", e.Location, e.Kind, e.Message)
}

// Unwrap supports error wrapping.
func (e *SyntaxError) Unwrap() error { return e.err }

// Verbose renders a multi-line description of e, followed by up to 30 bytes
// of text on either side of the failure and a marker pointing to it. The text
// should be the input window in which the error was reported.
func (e *SyntaxError) Verbose(text []byte) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s error: %s\n", e.Kind, e.Message)

	off := min(max(e.Offset, 0), len(text))
	start, pad := 0, 10
	if off < 30 {
		pad = 40 - off
	} else {
		start = off - 30
	}
	end := min(off+30, len(text))

	sb.WriteString(strings.Repeat(" ", pad))
	for _, b := range text[start:end] {
		if b == '\n' || b == '\r' {
			b = ' '
		}
		sb.WriteByte(b)
	}
	sb.WriteString("\n")
	sb.WriteString("                     (right here) ------^\n")
	return sb.String()
}
