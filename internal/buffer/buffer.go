// Copyright (C) 2024 Michael J. Fromberger. All Rights Reserved.

// Package buffer implements a growable byte buffer whose contents are always
// followed by a NUL terminator.
package buffer

import "go4.org/mem"

// InitSize is the capacity allocated by the first write to an empty Buffer.
const InitSize = 2048

// An Allocator supplies and releases storage for a Buffer.
//
// Malloc returns a slice of length n. Realloc returns a slice of length n
// whose prefix holds the contents of p (up to n bytes); p may not be used
// afterward. Free releases p, which may not be used afterward.
type Allocator interface {
	Malloc(n int) []byte
	Realloc(p []byte, n int) []byte
	Free(p []byte)
}

// Default is an Allocator backed by the Go runtime.
var Default Allocator = heap{}

type heap struct{}

func (heap) Malloc(n int) []byte { return make([]byte, n) }

func (heap) Realloc(p []byte, n int) []byte {
	out := make([]byte, n)
	copy(out, p)
	return out
}

func (heap) Free([]byte) {}

// A Buffer is a contiguous byte store that grows by doubling. After any
// operation that writes to the buffer, the byte following the last used
// position is zero.
//
// A zero Buffer is ready for use and allocates from Default.
type Buffer struct {
	data  []byte // len(data) is the capacity
	used  int
	alloc Allocator
}

// New constructs an empty buffer that allocates from a.
// If a == nil, Default is used.
func New(a Allocator) *Buffer { return &Buffer{alloc: a} }

func (b *Buffer) allocator() Allocator {
	if b.alloc == nil {
		return Default
	}
	return b.alloc
}

// ensure guarantees room for want more bytes plus the terminator.
func (b *Buffer) ensure(want int) {
	if b.data == nil {
		b.data = b.allocator().Malloc(InitSize)
		b.data[0] = 0
	}
	need := len(b.data)
	for want >= need-b.used {
		need <<= 1
	}
	if need != len(b.data) {
		b.data = b.allocator().Realloc(b.data, need)
	}
}

// Append adds p to the end of the buffer.
func (b *Buffer) Append(p []byte) {
	b.ensure(len(p))
	b.used += copy(b.data[b.used:], p)
	b.data[b.used] = 0
}

// AppendString adds s to the end of the buffer.
func (b *Buffer) AppendString(s string) {
	b.ensure(len(s))
	b.used += copy(b.data[b.used:], s)
	b.data[b.used] = 0
}

// AppendRO adds the contents of m to the end of the buffer.
func (b *Buffer) AppendRO(m mem.RO) {
	b.ensure(m.Len())
	b.used += m.Copy(b.data[b.used:])
	b.data[b.used] = 0
}

// AppendByte adds c to the end of the buffer.
func (b *Buffer) AppendByte(c byte) {
	b.ensure(1)
	b.data[b.used] = c
	b.used++
	b.data[b.used] = 0
}

// Clear discards the contents of b but retains its storage.
func (b *Buffer) Clear() {
	b.used = 0
	if b.data != nil {
		b.data[0] = 0
	}
}

// Truncate discards all but the first n bytes of b.
// It panics if n is negative or greater than b.Len().
func (b *Buffer) Truncate(n int) {
	if n < 0 || n > b.used {
		panic("buffer: truncate out of range")
	}
	b.used = n
	if b.data != nil {
		b.data[n] = 0
	}
}

// Bytes returns a view of the contents of b. The view is valid only until
// the next operation that modifies b.
func (b *Buffer) Bytes() []byte {
	if b.data == nil {
		return nil
	}
	return b.data[:b.used:b.used]
}

// Terminated returns a view of the contents of b including the trailing NUL.
// It returns nil if b has not yet allocated storage.
func (b *Buffer) Terminated() []byte {
	if b.data == nil {
		return nil
	}
	return b.data[:b.used+1]
}

// Len reports the number of bytes in use.
func (b *Buffer) Len() int { return b.used }

// Cap reports the current allocated capacity of b.
func (b *Buffer) Cap() int { return len(b.data) }

// Free releases the storage of b to its allocator. The buffer is empty and
// may be reused afterward.
func (b *Buffer) Free() {
	if b.data != nil {
		b.allocator().Free(b.data)
	}
	b.data, b.used = nil, 0
}
