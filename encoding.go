// Copyright (C) 2021 Michael J. Fromberger. All Rights Reserved.

package jevent

import (
	"errors"
	"strings"

	"github.com/creachadair/jevent/internal/buffer"
	"github.com/creachadair/jevent/internal/escape"

	"go4.org/mem"
)

// Quote encodes src as a JSON string value. The contents are escaped and
// double quotation marks are added.
func Quote(src string) string {
	buf := make([]byte, 0, len(src)+2)
	buf = append(buf, '"')
	buf = escape.Quote(buf, mem.S(src))
	return string(append(buf, '"'))
}

// Unquote decodes a JSON string value. Double quotation marks are removed,
// and escape sequences are replaced with their unescaped equivalents.
//
// Invalid escapes and unpaired surrogates are replaced by the Unicode
// replacement rune. Unquote reports an error for an incomplete escape
// sequence.
func Unquote(src string) ([]byte, error) {
	if len(src) < 2 || !strings.HasPrefix(src, `"`) || !strings.HasSuffix(src, `"`) {
		return nil, errors.New("missing quotations")
	}
	buf := buffer.New(buffer.Default)
	if err := escape.Unquote(buf, mem.S(src[1:len(src)-1])); err != nil {
		return nil, err
	}
	return append([]byte{}, buf.Bytes()...), nil
}
