// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

package jevent

import (
	"errors"
	"io"
)

// DefaultChunkSize is the read size used by Reformat and Verify when none is
// configured.
const DefaultChunkSize = 64 << 10

// Errors reported by Reformat and Verify.
var (
	ErrTooLarge        = errors.New("input exceeds the size limit")
	ErrTrailingGarbage = errors.New("trailing garbage after JSON value")
	ErrPrematureEOF    = errors.New("premature EOF")
)

// ReformatOptions configure Reformat and Verify. A nil *ReformatOptions is
// ready for use and provides default values as described.
type ReformatOptions struct {
	// Output options; see GenOptions.
	Beautify bool
	Indent   string

	// Input options; see Options.
	AllowComments bool
	CheckUTF8     bool

	// Accept a stream of concatenated values. If false, the input must be
	// exactly one value, optionally surrounded by whitespace. Reformat writes
	// each value of a stream on its own line.
	Multiple bool

	// If positive, the maximum number of input bytes to read.
	MaxBytes int64

	// The number of bytes to read at a time.
	// If zero, DefaultChunkSize is used.
	ChunkSize int
}

func (o *ReformatOptions) chunkSize() int {
	if o == nil || o.ChunkSize <= 0 {
		return DefaultChunkSize
	}
	return o.ChunkSize
}

// Reformat reads JSON text from r and writes it to w, either minimized or
// beautified. Numbers are copied as written. Syntax errors are reported as
// *SyntaxError; output written before the error is not retracted.
func Reformat(w io.Writer, r io.Reader, opts *ReformatOptions) error {
	if opts == nil {
		opts = new(ReformatOptions)
	}
	g, err := NewGenerator(&GenOptions{Beautify: opts.Beautify, Indent: opts.Indent, Output: w})
	if err != nil {
		return err
	}
	defer g.Close()

	// A generator error cancels the parse; report the cause instead.
	var genErr error
	call := func(err error) bool {
		if err != nil {
			genErr = err
			return false
		}
		return true
	}
	text := func(b []byte) bool { return call(g.Text(string(b))) }
	p, err := NewParser(&Callbacks{
		Null:        func() bool { return call(g.Null()) },
		Bool:        func(v bool) bool { return call(g.Bool(v)) },
		Number:      func(b []byte) bool { return call(g.Number(string(b))) },
		String:      text,
		Key:         text,
		BeginObject: func() bool { return call(g.BeginObject()) },
		EndObject:   func() bool { return call(g.EndObject()) },
		BeginArray:  func() bool { return call(g.BeginArray()) },
		EndArray:    func() bool { return call(g.EndArray()) },
	}, &Options{AllowComments: opts.AllowComments, CheckUTF8: opts.CheckUTF8})
	if err != nil {
		return err
	}
	defer p.Close()

	return pump(r, opts, p, func() error {
		g.Reset()
		if !opts.Beautify {
			_, err := w.Write([]byte{'\n'})
			return err
		}
		return nil
	}, func() error { return genErr })
}

// Verify reads JSON text from r and reports whether it is valid. A syntax
// error is reported as *SyntaxError.
func Verify(r io.Reader, opts *ReformatOptions) error {
	if opts == nil {
		opts = new(ReformatOptions)
	}
	p, err := NewParser(nil, &Options{AllowComments: opts.AllowComments, CheckUTF8: opts.CheckUTF8})
	if err != nil {
		return err
	}
	defer p.Close()
	return pump(r, opts, p, func() error { return nil }, func() error { return nil })
}

// pump feeds the contents of r to p in chunks. Each time a value is complete
// in a multiple-value stream, pump calls next. If p reports a cancellation,
// pump reports the result of cause if it is not nil.
func pump(r io.Reader, opts *ReformatOptions, p *Parser, next, cause func() error) error {
	if opts.MaxBytes > 0 {
		r = io.LimitReader(r, opts.MaxBytes+1)
	}
	var total int64
	var ndocs int

	check := func(st Status, err error) error {
		if ndocs > 0 && !opts.Multiple && st != StatusInsufficientData {
			return ErrTrailingGarbage
		}
		if st == StatusCanceled {
			if cerr := cause(); cerr != nil {
				return cerr
			}
		}
		if err != nil {
			return err
		}
		if st == StatusOK {
			ndocs++
			p.Reset()
			if opts.Multiple {
				return next()
			}
		}
		return nil
	}

	buf := make([]byte, opts.chunkSize())
	for {
		n, rerr := r.Read(buf)
		total += int64(n)
		if opts.MaxBytes > 0 && total > opts.MaxBytes {
			return ErrTooLarge
		}
		for chunk := buf[:n]; len(chunk) != 0; {
			st, err := p.Parse(chunk)
			used := p.BytesConsumed()
			if err := check(st, err); err != nil {
				return err
			}
			if st == StatusInsufficientData {
				break
			}
			chunk = chunk[used:]
		}
		if rerr == io.EOF {
			break
		} else if rerr != nil {
			return rerr
		}
	}

	st, err := p.Complete()
	if err := check(st, err); err != nil {
		return err
	}
	if !p.idle() {
		if ndocs > 0 && !opts.Multiple {
			return ErrTrailingGarbage
		}
		return ErrPrematureEOF
	} else if ndocs == 0 {
		return ErrPrematureEOF
	}
	return nil
}
