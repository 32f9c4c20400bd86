// Copyright (C) 2023 Michael J. Fromberger. All Rights Reserved.

package escape

import (
	"unicode/utf8"

	"go4.org/mem"
)

var controlEsc = [...]byte{
	'\b': 'b',
	'\f': 'f',
	'\n': 'n',
	'\r': 'r',
	'\t': 't',
	' ':  ' ', // sentinel
}

var hexDigit = []byte("0123456789abcdef")

// Quote appends the JSON string encoding of src to dst, without enclosing
// quotation marks, and returns the extended slice.
//
// Control characters, backslash, and double quote are escaped. The line and
// paragraph separators and the replacement rune are written as \u escapes.
// Other runes, and bytes that are not valid UTF-8, are copied unchanged.
func Quote(dst []byte, src mem.RO) []byte {
	for src.Len() != 0 {
		if b := src.At(0); b < utf8.RuneSelf {
			if b < ' ' {
				if e := controlEsc[b]; e != 0 {
					dst = append(dst, '\\', e)
				} else {
					dst = append(dst, '\\', 'u', '0', '0', hexDigit[b>>4], hexDigit[b&15])
				}
			} else if b == '\\' || b == '"' {
				dst = append(dst, '\\', b)
			} else {
				dst = append(dst, b)
			}
			src = src.SliceFrom(1)
			continue
		}

		r, n := mem.DecodeRune(src)
		switch {
		case r == utf8.RuneError && n == 1:
			dst = append(dst, src.At(0)) // pass through invalid bytes
		case r == '\ufffd': // replacement rune
			dst = append(dst, `\ufffd`...)
		case r == '\u2028': // line separator
			dst = append(dst, `\u2028`...)
		case r == '\u2029': // paragraph separator
			dst = append(dst, `\u2029`...)
		default:
			dst = mem.Append(dst, src.SliceTo(n))
		}
		src = src.SliceFrom(n)
	}
	return dst
}
