// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package jevent_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/creachadair/jevent"
	"github.com/google/go-cmp/cmp"
	"github.com/tailscale/hujson"
)

const reformatInput = `{"name": "jevent", "tags": ["a", "b\"c", "tab\there", ""],
  "n": -12.5e-1, "ok": true, "no": false, "none": null,
  "empty": {}, "list": [ ], "nested": [[1, 2], {"x": [0.5, 1E+2]}],
  "big": 123456789012345678901234567890
}
`

func TestReformat(t *testing.T) {
	var compact, indented bytes.Buffer
	if err := json.Compact(&compact, []byte(reformatInput)); err != nil {
		t.Fatalf("Compact: %v", err)
	}
	if err := json.Indent(&indented, compact.Bytes(), "", "  "); err != nil {
		t.Fatalf("Indent: %v", err)
	}
	indented.WriteString("\n")

	tests := []struct {
		name string
		opts jevent.ReformatOptions
		want string
	}{
		{"Compact", jevent.ReformatOptions{}, compact.String()},
		{"Beautify", jevent.ReformatOptions{Beautify: true}, indented.String()},
		{"Indent", jevent.ReformatOptions{Beautify: true, Indent: "\t"},
			strings.ReplaceAll(indented.String(), "  ", "\t")},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			// The output must not depend on how the input is divided.
			for _, size := range []int{0, 1, 2, 3, 5, 7} {
				opts := test.opts
				opts.ChunkSize = size

				var out bytes.Buffer
				if err := jevent.Reformat(&out, strings.NewReader(reformatInput), &opts); err != nil {
					t.Fatalf("Reformat (chunk %d): unexpected error: %v", size, err)
				}
				if diff := cmp.Diff(test.want, out.String()); diff != "" {
					t.Fatalf("Reformat (chunk %d): (-want, +got)\n%s", size, diff)
				}
			}
		})
	}

	t.Run("DataEOF", func(t *testing.T) {
		var out bytes.Buffer
		r := iotest.DataErrReader(strings.NewReader(reformatInput))
		if err := jevent.Reformat(&out, r, nil); err != nil {
			t.Fatalf("Reformat: unexpected error: %v", err)
		}
		if got := out.String(); got != compact.String() {
			t.Errorf("Reformat: got %#q, want %#q", got, compact.String())
		}
	})
}

func TestReformatComments(t *testing.T) {
	const input = `/* header */ {
  "a": 1, // one
  "b": [2, /* two */ 3]
}`
	std, err := hujson.Standardize([]byte(input))
	if err != nil {
		t.Fatalf("Standardize: %v", err)
	}
	var want bytes.Buffer
	if err := json.Compact(&want, std); err != nil {
		t.Fatalf("Compact: %v", err)
	}

	var out bytes.Buffer
	if err := jevent.Reformat(&out, strings.NewReader(input), &jevent.ReformatOptions{
		AllowComments: true,
		ChunkSize:     4,
	}); err != nil {
		t.Fatalf("Reformat: unexpected error: %v", err)
	}
	if got := out.String(); got != want.String() {
		t.Errorf("Reformat: got %#q, want %#q", got, want.String())
	}

	// Without the option, comments are an error.
	err = jevent.Reformat(&out, strings.NewReader(input), nil)
	if !errors.Is(err, jevent.LexCommentNotAllowed) {
		t.Errorf("Reformat: got %v, want %v", err, jevent.LexCommentNotAllowed)
	}
}

func TestReformatMultiple(t *testing.T) {
	const input = ` 1 [2]{"a":3}
"four"  5`
	tests := []struct {
		name string
		opts jevent.ReformatOptions
		want string
	}{
		{"Compact", jevent.ReformatOptions{Multiple: true},
			"1\n[2]\n{\"a\":3}\n\"four\"\n5\n"},
		{"Beautify", jevent.ReformatOptions{Multiple: true, Beautify: true},
			"1\n[\n  2\n]\n{\n  \"a\": 3\n}\n\"four\"\n5\n"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			for _, size := range []int{0, 1, 3} {
				opts := test.opts
				opts.ChunkSize = size

				var out bytes.Buffer
				if err := jevent.Reformat(&out, strings.NewReader(input), &opts); err != nil {
					t.Fatalf("Reformat (chunk %d): unexpected error: %v", size, err)
				}
				if diff := cmp.Diff(test.want, out.String()); diff != "" {
					t.Errorf("Reformat (chunk %d): (-want, +got)\n%s", size, diff)
				}
			}
		})
	}
}

func TestReformatErrors(t *testing.T) {
	errRead := errors.New("read failed")
	tests := []struct {
		name  string
		input string
		opts  *jevent.ReformatOptions
		want  error
	}{
		{"Empty", "", nil, jevent.ErrPrematureEOF},
		{"Blank", " \n\t ", nil, jevent.ErrPrematureEOF},
		{"EmptyMultiple", "", &jevent.ReformatOptions{Multiple: true}, jevent.ErrPrematureEOF},
		{"Unclosed", "[1, 2", nil, jevent.ErrPrematureEOF},
		{"UnclosedMultiple", "1 [2", &jevent.ReformatOptions{Multiple: true}, jevent.ErrPrematureEOF},
		{"UnclosedString", `"abc`, nil, jevent.ErrPrematureEOF},
		{"TrailingValue", "1 2", nil, jevent.ErrTrailingGarbage},
		{"TrailingOpen", "1 [", nil, jevent.ErrTrailingGarbage},
		{"TrailingObject", "{} {}", nil, jevent.ErrTrailingGarbage},
		{"TrailingInvalid", "[] x", nil, jevent.ErrTrailingGarbage},
		{"TooLarge", "[1, 2, 3]", &jevent.ReformatOptions{MaxBytes: 8}, jevent.ErrTooLarge},
		{"TooLargeChunked", "[1, 2, 3]", &jevent.ReformatOptions{MaxBytes: 5, ChunkSize: 2}, jevent.ErrTooLarge},
		{"Syntax", "[1, ]", nil, jevent.ErrUnexpectedToken},
		{"Lexical", "[tru]", nil, jevent.LexInvalidString},
		{"Nested", `{"a": [[[1]]]}`, nil, nil},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var out bytes.Buffer
			err := jevent.Reformat(&out, strings.NewReader(test.input), test.opts)
			if !errors.Is(err, test.want) {
				t.Errorf("Reformat %#q: got %v, want %v", test.input, err, test.want)
			}
			verr := jevent.Verify(strings.NewReader(test.input), test.opts)
			if !errors.Is(verr, test.want) {
				t.Errorf("Verify %#q: got %v, want %v", test.input, verr, test.want)
			}
		})
	}

	t.Run("SyntaxError", func(t *testing.T) {
		const input = `{"a" 1}`
		err := jevent.Verify(strings.NewReader(input), &jevent.ReformatOptions{ChunkSize: 64})
		var serr *jevent.SyntaxError
		if !errors.As(err, &serr) {
			t.Fatalf("Verify: got %v, want *SyntaxError", err)
		}
		if serr.Offset != 5 || serr.Kind != jevent.KindStructural {
			t.Errorf("Verify: got offset %d kind %v, want 5, %v", serr.Offset, serr.Kind, jevent.KindStructural)
		}
	})

	t.Run("ReadError", func(t *testing.T) {
		var out bytes.Buffer
		err := jevent.Reformat(&out, iotest.ErrReader(errRead), nil)
		if !errors.Is(err, errRead) {
			t.Errorf("Reformat: got %v, want %v", err, errRead)
		}
	})

	t.Run("WriteError", func(t *testing.T) {
		errWrite := errors.New("write failed")
		w := &failWriter{n: 3, err: errWrite}
		err := jevent.Reformat(w, strings.NewReader(`[1, 2, 3, 4]`), nil)
		if !errors.Is(err, errWrite) {
			t.Errorf("Reformat: got %v, want %v", err, errWrite)
		}
		if got := w.buf.String(); got != "[1,2" {
			t.Errorf("Output: got %#q, want %#q", got, "[1,2")
		}
	})
}

func TestVerify(t *testing.T) {
	tests := []struct {
		input string
		opts  *jevent.ReformatOptions
		ok    bool
	}{
		{reformatInput, nil, true},
		{`"solo"`, nil, true},
		{"-0.5e-3", nil, true},
		{"  null  ", nil, true},
		{"1 2 3", &jevent.ReformatOptions{Multiple: true}, true},
		{"// c\n[1]", &jevent.ReformatOptions{AllowComments: true}, true},
		{"\"\xff\"", nil, true},
		{"\"\xff\"", &jevent.ReformatOptions{CheckUTF8: true}, false},
		{"[1] [2]", nil, false},
		{"{'a': 1}", nil, false},
		{"[01]", nil, false},
		{"[1e]", nil, false},
		{`{"a":}`, nil, false},
		{"nul", nil, false},
	}
	for _, test := range tests {
		err := jevent.Verify(strings.NewReader(test.input), test.opts)
		if got := err == nil; got != test.ok {
			t.Errorf("Verify %#q: got %v, want ok=%v", test.input, err, test.ok)
		}
	}
}
