// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

// Package escape handles quoting and unquoting of JSON strings.
package escape

import (
	"errors"
	"fmt"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/creachadair/jevent/internal/buffer"
	"go4.org/mem"
)

// Unquote decodes the JSON encoding of a string into dst. The input must have
// the enclosing double quotation marks already removed.
//
// Escape sequences are replaced with their unescaped equivalents. A \u escape
// for a high surrogate followed by a \u escape for a low surrogate is decoded
// as a single rune. Invalid escapes and unpaired surrogates are replaced by
// the Unicode replacement rune. Unquote reports an error for an incomplete
// escape sequence; dst may hold a partial result in that case.
func Unquote(dst *buffer.Buffer, src mem.RO) error {
	i := mem.IndexByte(src, '\\')
	if i < 0 {
		dst.AppendRO(src)
		return nil
	}

	for src.Len() != 0 {
		dst.AppendRO(src.SliceTo(i))

		// The lexer has already checked escapes in parser input, but Unquote is
		// also reachable from untrusted input through the package API.
		src = src.SliceFrom(i + 1)
		if src.Len() == 0 {
			return errors.New("incomplete escape sequence")
		}
		c := src.At(0)
		src = src.SliceFrom(1)
		switch c {
		case '"', '\\', '/':
			dst.AppendByte(c)
		case 'b':
			dst.AppendByte('\b')
		case 'f':
			dst.AppendByte('\f')
		case 'n':
			dst.AppendByte('\n')
		case 'r':
			dst.AppendByte('\r')
		case 't':
			dst.AppendByte('\t')
		case 'u':
			if src.Len() < 4 {
				return errors.New("incomplete Unicode escape")
			}
			v, err := parseHex(src.SliceTo(4))
			src = src.SliceFrom(4)
			if err != nil {
				putRune(dst, utf8.RuneError)
				break
			}
			r := rune(v)
			if utf16.IsSurrogate(r) {
				r = utf8.RuneError
				if lo, ok := lowSurrogate(src); ok {
					if dec := utf16.DecodeRune(rune(v), lo); dec != utf8.RuneError {
						r = dec
						src = src.SliceFrom(6)
					}
				}
			}
			putRune(dst, r)
		default:
			putRune(dst, utf8.RuneError)
		}

		// Look for the next escape sequence, and if one is not found we can blit
		// the rest of the input and go home.
		i = mem.IndexByte(src, '\\')
		if i < 0 {
			dst.AppendRO(src)
			break
		}
	}
	return nil
}

// lowSurrogate reports whether src begins with a \u escape, and if so returns
// the code it denotes.
func lowSurrogate(src mem.RO) (rune, bool) {
	if src.Len() < 6 || src.At(0) != '\\' || src.At(1) != 'u' {
		return 0, false
	}
	v, err := parseHex(src.Slice(2, 6))
	if err != nil {
		return 0, false
	}
	return rune(v), true
}

func putRune(dst *buffer.Buffer, r rune) {
	var buf [utf8.UTFMax]byte
	n := utf8.EncodeRune(buf[:], r)
	dst.Append(buf[:n])
}

func parseHex(data mem.RO) (int64, error) {
	var v int64
	for i := 0; i < data.Len(); i++ {
		b := data.At(i)
		v <<= 4
		if '0' <= b && b <= '9' {
			v += int64(b - '0')
		} else if 'a' <= b && b <= 'f' {
			v += int64(b - 'a' + 10)
		} else if 'A' <= b && b <= 'F' {
			v += int64(b - 'A' + 10)
		} else {
			return 0, fmt.Errorf("invalid hex digit %q", b)
		}
	}
	return v, nil
}
